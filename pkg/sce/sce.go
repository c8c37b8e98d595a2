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

// Package sce exercises the security co-processor end to end: DMA into the
// hash engine, then an AES-256 ECB round trip through the DMA.
package sce

import (
	"math/bits"

	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// Phase markers.
const (
	PhaseInit    = report.SceTag | 0x01
	PhaseHash    = report.SceTag | 0x02
	PhaseEncrypt = report.SceTag | 0x03
	PhaseDecrypt = report.SceTag | 0x04
	// Mismatch is followed by the index and the word read back.
	Mismatch = report.SceTag | 0xee
)

const (
	bufWords  = 16
	pattern   = 0x9999_9999
	aesBlocks = bufWords * 4 / 16
	digestLen = 8
	keyWords  = 8
)

// sk is the SHA-256 initial hash value, loaded into the hash output segment.
var sk = [digestLen]uint32{
	0x6a09e667, 0xbb67ae85, 0x3c6ef372, 0xa54ff53a,
	0x510e527f, 0x9b05688c, 0x1f83d9ab, 0x5be0cd19,
}

type Tester struct {
	bus  csr.Bus
	core cpu.Core
	sink report.Sink
	sync soc.SyncMode
	id   uint32

	global *csr.CSR
	dma    *csr.CSR
	hash   *csr.CSR
	aes    *csr.CSR

	src csr.Region[uint32]
	ct  csr.Region[uint32]
	pt  csr.Region[uint32]
}

func New(bus csr.Bus, core cpu.Core, sink report.Sink, sync soc.SyncMode) *Tester {
	return &Tester{
		bus:    bus,
		core:   core,
		sink:   sink,
		sync:   sync,
		global: csr.New(bus, soc.SceBase),
		dma:    csr.New(bus, soc.SceDmaBase),
		hash:   csr.New(bus, soc.HashBase),
		aes:    csr.New(bus, soc.AesBase),
		src:    csr.NewRegion[uint32](bus, soc.SceBufBase, bufWords),
		ct:     csr.NewRegion[uint32](bus, soc.SceBufBase+bufWords*4, bufWords),
		pt:     csr.NewRegion[uint32](bus, soc.SceBufBase+2*bufWords*4, bufWords),
	}
}

// DMATests runs the pipeline and reports its status under id. It returns
// true when the AES round trip restored the source buffer.
func DMATests(bus csr.Bus, core cpu.Core, sink report.Sink, sync soc.SyncMode, id uint32) bool {
	return New(bus, core, sink, sync).Run(id)
}

func (t *Tester) Run(id uint32) bool {
	t.id = id
	t.setup()
	if !t.hashPhase() {
		return false
	}
	if !t.encryptPhase() {
		return false
	}
	mismatches, ok := t.decryptPhase()
	if !ok {
		return false
	}
	report.Emit(t.sink, report.Check(id, 0, mismatches))
	return mismatches == 0
}

func (t *Tester) setup() {
	t.global.Write(soc.SceSuben, soc.SubenDMA|soc.SubenHash|soc.SubenAES)
	t.global.Write(soc.SceFfen, soc.FfenHashMsg)

	hout := csr.RegionBytes[uint32](t.bus, soc.SegAddr(soc.SegHOUT, 0), soc.SegMap[soc.SegHOUT].Size)
	hout.Fill(0)
	for i, w := range sk {
		hout.Store(i, w)
	}
	t.src.Fill(pattern)
	t.sink.Report(PhaseInit)
}

// await waits for a done flag in poll mode. Delay mode relies on the
// engines stalling on their input FIFOs and never waits. A timeout ends the
// run with a timeout status under the test id.
func (t *Tester) await(c *csr.CSR, done csr.Field, source uint32) bool {
	if t.sync != soc.SyncPoll {
		return true
	}
	if c.WaitField(done, 1, soc.PollLimit) {
		return true
	}
	report.Emit(t.sink, report.TimedOut(t.id, source))
	return false
}

func (t *Tester) move(fn uint32, seg soc.SegID, addr uint32, swap bool) bool {
	if t.sync == soc.SyncPoll {
		t.dma.WriteField(soc.DmaXchFrDone, 1)
	}
	t.dma.Write(soc.DmaXchFunc, fn)
	if swap {
		t.dma.WriteField(soc.DmaXchOptSwap, 1)
	} else {
		t.dma.WriteField(soc.DmaXchOptSwap, 0)
	}
	t.dma.Write(soc.DmaXchAxstart, addr)
	t.dma.Write(soc.DmaXchSegid, uint32(seg))
	t.dma.Write(soc.DmaXchSegstart, 0)
	t.dma.Write(soc.DmaXchTransize, bufWords)
	t.dma.Write(soc.DmaXchAr, soc.StartToken)
	return t.await(t.dma, soc.DmaXchFrDone, report.SourceDMA)
}

func (t *Tester) hashPhase() bool {
	t.hash.Write(soc.HashCrfunc, soc.HashFuncSHA256)
	t.hash.Write(soc.HashOpt1, 0)
	t.hash.Write(soc.HashOpt2, soc.HashOpt2IVSeg.Shift(1)|soc.HashOpt2BigEndian.Shift(1))
	t.hash.Write(soc.HashAr, soc.StartToken)

	if !t.move(soc.XchFuncMemToSeg, soc.SegMSG, t.src.Base(), true) {
		return false
	}
	if !t.await(t.hash, soc.HashFrDone, report.SourceHash) {
		return false
	}

	t.sink.Report(PhaseHash)
	t.sink.Report(t.hash.Read(soc.HashFr))
	digest := csr.NewRegion[uint32](t.bus, soc.SegAddr(soc.SegHOUT, 0), digestLen)
	for i := 0; i < digestLen; i++ {
		t.sink.Report(digest.Load(i))
	}
	for i := 0; i < digestLen; i++ {
		t.sink.Report(bits.ReverseBytes32(digest.Load(i)))
	}
	return true
}

func (t *Tester) scheduleKey() bool {
	key := csr.NewRegion[uint32](t.bus, soc.SegAddr(soc.SegAKEY, 0), keyWords)
	key.Fill(0)
	t.aes.Write(soc.AesOpt, soc.AesOptKeyLen.Shift(soc.AesKey256)|soc.AesOptMode.Shift(soc.AesModeECB))
	t.aes.Write(soc.AesCrfunc, soc.AesFuncKeySchedule)
	t.aes.Write(soc.AesAr, soc.StartToken)
	return t.await(t.aes, soc.AesFrDone, report.SourceAES)
}

// cipher feeds in through the AES engine and collects the result in out.
func (t *Tester) cipher(fn uint32, in, out csr.Region[uint32]) bool {
	t.aes.Write(soc.AesCrfunc, fn)
	t.aes.Write(soc.AesOpt1, aesBlocks)
	t.aes.Write(soc.AesAr, soc.StartToken)
	if !t.move(soc.XchFuncMemToSeg, soc.SegAIB, in.Base(), false) {
		return false
	}
	if !t.await(t.aes, soc.AesFrDone, report.SourceAES) {
		return false
	}
	if !t.move(soc.XchFuncSegToMem, soc.SegAOB, out.Base(), false) {
		return false
	}
	t.core.FlushDataCache()
	return true
}

// encryptPhase compares source and ciphertext for information only: equal
// words would mean the engine passed data through unencrypted.
func (t *Tester) encryptPhase() bool {
	t.global.Write(soc.SceFfen, soc.FfenAesIn|soc.FfenAesOut)
	if !t.scheduleKey() {
		return false
	}
	if !t.cipher(soc.AesFuncEncrypt, t.src, t.ct) {
		return false
	}
	t.sink.Report(PhaseEncrypt)
	var differ uint32
	for i := 0; i < bufWords; i++ {
		if t.ct.Load(i) != t.src.Load(i) {
			differ++
		}
	}
	t.sink.Report(differ)
	return true
}

func (t *Tester) decryptPhase() (uint32, bool) {
	if !t.cipher(soc.AesFuncDecrypt, t.ct, t.pt) {
		return 0, false
	}
	t.sink.Report(PhaseDecrypt)
	var mismatches uint32
	for i := 0; i < bufWords; i++ {
		if got := t.pt.Load(i); got != t.src.Load(i) {
			mismatches++
			t.sink.Report(Mismatch)
			t.sink.Report(uint32(i))
			t.sink.Report(got)
		}
	}
	return mismatches, true
}
