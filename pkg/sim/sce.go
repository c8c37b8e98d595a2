/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package sim

import (
	"crypto/aes"
	"crypto/cipher"
	"math/bits"

	"jinr.ru/greenlab/go-daric/pkg/log"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// sce is the security co-processor: the global enables, the exchange DMA
// channel and the hash and AES engines sharing the segment memory. Engines
// that were started wait for the DMA to feed their input segment.
type sce struct {
	m *Machine

	suben uint32
	ffen  uint32
	ffcnt uint32

	xchRegs [9]uint32
	xchDone bool

	hashRegs  [3]uint32
	hashArmed bool
	hashDone  bool

	aesRegs   [3]uint32
	aesArmed  bool
	aesDone   bool
	aesKeyErr bool
	block     cipher.Block
}

func newSce(m *Machine) *sce {
	return &sce{m: m}
}

type (
	sceGlobal struct{ s *sce }
	sceXch    struct{ s *sce }
	sceHash   struct{ s *sce }
	sceAes    struct{ s *sce }
)

func (s *sce) global() device { return sceGlobal{s} }
func (s *sce) xch() device    { return sceXch{s} }
func (s *sce) hash() device   { return sceHash{s} }
func (s *sce) aes() device    { return sceAes{s} }

func (g sceGlobal) read(off uint32) uint32 {
	s := g.s
	switch off / 4 {
	case soc.SceSuben.Offset:
		return s.suben
	case soc.SceFfen.Offset:
		return s.ffen
	case soc.SceFfcnt.Offset:
		return s.ffcnt
	case soc.SceFr.Offset:
		var fr uint32
		if s.xchDone {
			fr |= soc.SubenDMA
		}
		if s.hashDone {
			fr |= soc.SubenHash
		}
		if s.aesDone {
			fr |= soc.SubenAES
		}
		return fr
	}
	return 0
}

func (g sceGlobal) write(off uint32, v uint32) {
	s := g.s
	switch off / 4 {
	case soc.SceSuben.Offset:
		s.suben = v
	case soc.SceFfen.Offset:
		s.ffen = v
	case soc.SceFfcnt.Offset:
		s.ffcnt = v
	}
}

func (x sceXch) read(off uint32) uint32 {
	s := x.s
	i := off / 4
	switch {
	case i == soc.DmaXchFr.Offset:
		if s.xchDone {
			return 1
		}
		return 0
	case i < uint32(len(s.xchRegs)):
		return s.xchRegs[i]
	}
	return 0
}

func (x sceXch) write(off uint32, v uint32) {
	s := x.s
	i := off / 4
	switch {
	case i == soc.DmaXchAr.Offset:
		if v == soc.StartToken {
			s.transfer()
		}
	case i == soc.DmaXchFr.Offset:
		if v&1 != 0 {
			s.xchDone = false
		}
	case i < uint32(len(s.xchRegs)):
		s.xchRegs[i] = v
	}
}

func (s *sce) enabled(bit uint32) bool {
	return s.suben&bit != 0
}

// transfer moves words between system memory and a segment. It bypasses the
// data cache like every bus master other than the hart.
func (s *sce) transfer() {
	if !s.enabled(soc.SubenDMA) {
		log.Debug("SCE DMA started with its clock gated")
		return
	}
	r := s.xchRegs
	fn := r[soc.DmaXchFunc.Offset]
	swap := r[soc.DmaXchOpt.Offset]&1 != 0
	ax := r[soc.DmaXchAxstart.Offset]
	id := soc.SegID(r[soc.DmaXchSegid.Offset])
	start := r[soc.DmaXchSegstart.Offset]
	n := r[soc.DmaXchTransize.Offset]

	if id >= soc.SegLimit || (start+n)*4 > soc.SegMap[id].Size {
		log.Warning("SCE DMA out of segment bounds: segment %d start %d words %d", id, start, n)
		s.xchDone = true
		return
	}
	mem := s.m.mem
	for i := uint32(0); i < n; i++ {
		segAddr := soc.SegAddr(id, start+i)
		memAddr := ax + i*4
		if fn == soc.XchFuncSegToMem {
			w := uint32(mem.load(segAddr, 4))
			if swap {
				w = bits.ReverseBytes32(w)
			}
			mem.store(memAddr, 4, uint64(w))
		} else {
			w := uint32(mem.load(memAddr, 4))
			if swap {
				w = bits.ReverseBytes32(w)
			}
			mem.store(segAddr, 4, uint64(w))
		}
	}
	s.xchDone = true
	if fn == soc.XchFuncMemToSeg {
		s.fed(id)
	}
}

func (s *sce) fed(id soc.SegID) {
	switch {
	case id == soc.SegMSG && s.hashArmed && s.ffen&soc.FfenHashMsg != 0:
		s.runHash()
	case id == soc.SegAIB && s.aesArmed && s.ffen&soc.FfenAesIn != 0:
		s.runAes()
	}
}

func (h sceHash) read(off uint32) uint32 {
	s := h.s
	i := off / 4
	switch {
	case i == soc.HashFr.Offset:
		if s.hashDone {
			return 1
		}
		return 0
	case i < uint32(len(s.hashRegs)):
		return s.hashRegs[i]
	}
	return 0
}

func (h sceHash) write(off uint32, v uint32) {
	s := h.s
	i := off / 4
	switch {
	case i == soc.HashAr.Offset:
		if v == soc.StartToken && s.enabled(soc.SubenHash) {
			s.hashArmed = true
			s.hashDone = false
		}
	case i == soc.HashFr.Offset:
		if v&1 != 0 {
			s.hashDone = false
		}
	case i < uint32(len(s.hashRegs)):
		s.hashRegs[i] = v
	}
}

// runHash hashes opt1+1 blocks of the message segment. In big endian mode
// every message word is consumed most significant byte first and the digest
// words are stored as values, otherwise both are byte reversed.
func (s *sce) runHash() {
	s.hashArmed = false
	if s.hashRegs[soc.HashCrfunc.Offset] != soc.HashFuncSHA256 {
		log.Warning("Unsupported hash function %d", s.hashRegs[soc.HashCrfunc.Offset])
		s.hashDone = true
		return
	}
	mem := s.m.mem
	opt2 := s.hashRegs[soc.HashOpt2.Offset]
	bigEndian := opt2&(1<<soc.HashOpt2BigEndian.Offset) != 0

	iv := sha256IV
	if opt2&(1<<soc.HashOpt2IVSeg.Offset) != 0 {
		for i := range iv {
			iv[i] = uint32(mem.load(soc.SegAddr(soc.SegHOUT, uint32(i)), 4))
		}
	}

	words := (s.hashRegs[soc.HashOpt1.Offset]&0xff + 1) * 16
	if words*4 > soc.SegMap[soc.SegMSG].Size {
		words = soc.SegMap[soc.SegMSG].Size / 4
	}
	msg := make([]byte, 0, words*4)
	for i := uint32(0); i < words; i++ {
		w := uint32(mem.load(soc.SegAddr(soc.SegMSG, i), 4))
		if !bigEndian {
			w = bits.ReverseBytes32(w)
		}
		msg = append(msg, byte(w>>24), byte(w>>16), byte(w>>8), byte(w))
	}

	digest := sha256Sum(iv, msg)
	for i, w := range digest {
		if !bigEndian {
			w = bits.ReverseBytes32(w)
		}
		mem.store(soc.SegAddr(soc.SegHOUT, uint32(i)), 4, uint64(w))
	}
	s.hashDone = true
}

func (a sceAes) read(off uint32) uint32 {
	s := a.s
	i := off / 4
	switch {
	case i == soc.AesFr.Offset:
		var fr uint32
		if s.aesDone {
			fr |= 1 << soc.AesFrDone.Offset
		}
		if s.aesKeyErr {
			fr |= 1 << soc.AesFrKeyErr.Offset
		}
		return fr
	case i < uint32(len(s.aesRegs)):
		return s.aesRegs[i]
	}
	return 0
}

func (a sceAes) write(off uint32, v uint32) {
	s := a.s
	i := off / 4
	switch {
	case i == soc.AesAr.Offset:
		if v == soc.StartToken && s.enabled(soc.SubenAES) {
			s.startAes()
		}
	case i == soc.AesFr.Offset:
		if v&1 != 0 {
			s.aesDone = false
		}
	case i < uint32(len(s.aesRegs)):
		s.aesRegs[i] = v
	}
}

var aesKeyBytes = map[uint32]int{
	soc.AesKey128: 16,
	soc.AesKey192: 24,
	soc.AesKey256: 32,
}

func (s *sce) startAes() {
	s.aesDone = false
	switch s.aesRegs[soc.AesCrfunc.Offset] {
	case soc.AesFuncKeySchedule:
		opt := s.aesRegs[soc.AesOpt.Offset]
		n, ok := aesKeyBytes[opt>>soc.AesOptKeyLen.Offset&soc.AesOptKeyLen.Mask]
		if !ok {
			s.aesKeyErr = true
			s.aesDone = true
			return
		}
		key := make([]byte, n)
		s.m.mem.read(soc.SegAddr(soc.SegAKEY, 0), key)
		block, err := aes.NewCipher(key)
		if err != nil {
			log.Warning("AES key schedule failed: %s", err)
			s.aesKeyErr = true
			s.aesDone = true
			return
		}
		s.block = block
		s.aesKeyErr = false
		s.aesDone = true
	case soc.AesFuncEncrypt, soc.AesFuncDecrypt:
		s.aesArmed = true
	}
}

// runAes processes opt1 blocks from the input segment into the output
// segment in ECB mode.
func (s *sce) runAes() {
	s.aesArmed = false
	if s.block == nil {
		s.aesKeyErr = true
		s.aesDone = true
		return
	}
	if mode := s.aesRegs[soc.AesOpt.Offset] >> soc.AesOptMode.Offset & soc.AesOptMode.Mask; mode != soc.AesModeECB {
		log.Warning("Unsupported AES mode %d", mode)
		s.aesDone = true
		return
	}
	blocks := s.aesRegs[soc.AesOpt1.Offset]
	if limit := soc.SegMap[soc.SegAIB].Size / aes.BlockSize; blocks > limit {
		blocks = limit
	}
	in := make([]byte, blocks*aes.BlockSize)
	out := make([]byte, len(in))
	s.m.mem.read(soc.SegAddr(soc.SegAIB, 0), in)
	decrypt := s.aesRegs[soc.AesCrfunc.Offset] == soc.AesFuncDecrypt
	for off := 0; off < len(in); off += aes.BlockSize {
		if decrypt {
			s.block.Decrypt(out[off:], in[off:off+aes.BlockSize])
		} else {
			s.block.Encrypt(out[off:], in[off:off+aes.BlockSize])
		}
	}
	s.m.mem.write(soc.SegAddr(soc.SegAOB, 0), out)
	s.aesDone = true
}
