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
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

type sceRig struct {
	m      *Machine
	global *csr.CSR
	dma    *csr.CSR
	hash   *csr.CSR
	aes    *csr.CSR
}

func newSceRig() *sceRig {
	m := New(Options{})
	r := &sceRig{
		m:      m,
		global: csr.New(m, soc.SceBase),
		dma:    csr.New(m, soc.SceDmaBase),
		hash:   csr.New(m, soc.HashBase),
		aes:    csr.New(m, soc.AesBase),
	}
	r.global.Write(soc.SceSuben, soc.SubenDMA|soc.SubenHash|soc.SubenAES)
	return r
}

func (r *sceRig) move(fn uint32, seg soc.SegID, addr, words uint32, swap bool) {
	r.dma.Write(soc.DmaXchFunc, fn)
	if swap {
		r.dma.WriteField(soc.DmaXchOptSwap, 1)
	} else {
		r.dma.WriteField(soc.DmaXchOptSwap, 0)
	}
	r.dma.Write(soc.DmaXchAxstart, addr)
	r.dma.Write(soc.DmaXchSegid, uint32(seg))
	r.dma.Write(soc.DmaXchSegstart, 0)
	r.dma.Write(soc.DmaXchTransize, words)
	r.dma.Write(soc.DmaXchAr, soc.StartToken)
}

func (r *sceRig) fill(addr uint32, words []uint32) {
	for i, w := range words {
		r.m.Write32(addr+uint32(i)*4, w)
	}
}

func (r *sceRig) words(addr uint32, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i], _ = r.m.Peek(addr + uint32(i)*4)
	}
	return out
}

func pattern(n int, w uint32) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = w
	}
	return out
}

func TestSha256MatchesStdlib(t *testing.T) {
	for _, n := range []int{0, 3, 55, 56, 64, 119, 200} {
		msg := make([]byte, n)
		for i := range msg {
			msg[i] = byte(i * 7)
		}
		sum := sha256.Sum256(msg)
		got := sha256Sum(sha256IV, msg)
		for i, w := range got {
			if want := binary.BigEndian.Uint32(sum[i*4:]); w != want {
				t.Errorf("len %d: word %d = %#08x, want %#08x", n, i, w, want)
			}
		}
	}
}

func TestHashKnownAnswer(t *testing.T) {
	r := newSceRig()
	r.global.Write(soc.SceFfen, soc.FfenHashMsg)
	for i, w := range sha256IV {
		r.m.Write32(soc.SegAddr(soc.SegHOUT, uint32(i)), w)
	}
	r.fill(soc.SceBufBase, pattern(16, 0x9999_9999))

	r.hash.Write(soc.HashCrfunc, soc.HashFuncSHA256)
	r.hash.Write(soc.HashOpt1, 0)
	r.hash.Write(soc.HashOpt2, soc.HashOpt2IVSeg.Shift(1)|soc.HashOpt2BigEndian.Shift(1))
	r.hash.Write(soc.HashAr, soc.StartToken)
	if r.hash.ReadField(soc.HashFrDone) != 0 {
		t.Fatal("hash finished before its input arrived")
	}

	r.move(soc.XchFuncMemToSeg, soc.SegMSG, soc.SceBufBase, 16, true)
	if r.dma.ReadField(soc.DmaXchFrDone) != 1 {
		t.Error("DMA done flag not set")
	}
	if r.hash.ReadField(soc.HashFrDone) != 1 {
		t.Fatal("hash did not run")
	}

	want := []uint32{
		0xfc5ba0c1, 0x064081d6, 0xa87b52e9, 0x5212798a,
		0x9a1ac8bb, 0x51e57e85, 0xeec5fa2b, 0x1b3b89d0,
	}
	got := r.words(soc.SegAddr(soc.SegHOUT, 0), 8)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("digest word %d = %#08x, want %#08x", i, got[i], want[i])
		}
	}
}

func (r *sceRig) aesPass(t *testing.T, fn, src, dst uint32) {
	t.Helper()
	r.aes.Write(soc.AesCrfunc, fn)
	r.aes.Write(soc.AesOpt1, 4)
	r.aes.Write(soc.AesAr, soc.StartToken)
	r.move(soc.XchFuncMemToSeg, soc.SegAIB, src, 16, false)
	r.move(soc.XchFuncSegToMem, soc.SegAOB, dst, 16, false)
	if r.aes.ReadField(soc.AesFrDone) != 1 {
		t.Fatalf("AES function %d did not complete", fn)
	}
}

func TestAesRoundTrip(t *testing.T) {
	r := newSceRig()
	r.global.Write(soc.SceFfen, soc.FfenAesIn|soc.FfenAesOut)
	src := soc.SceBufBase
	cipherBuf := src + 0x40
	plainBuf := src + 0x80
	r.fill(src, pattern(16, 0x9999_9999))

	r.aes.Write(soc.AesOpt, soc.AesOptKeyLen.Shift(soc.AesKey256)|soc.AesOptMode.Shift(soc.AesModeECB))
	r.aes.Write(soc.AesCrfunc, soc.AesFuncKeySchedule)
	r.aes.Write(soc.AesAr, soc.StartToken)
	if r.aes.ReadField(soc.AesFrKeyErr) != 0 {
		t.Fatal("key schedule failed")
	}

	r.aesPass(t, soc.AesFuncEncrypt, src, cipherBuf)
	block, err := aes.NewCipher(make([]byte, 32))
	if err != nil {
		t.Fatal(err)
	}
	plain := make([]byte, aes.BlockSize)
	for i := range plain {
		plain[i] = 0x99
	}
	ct := make([]byte, aes.BlockSize)
	block.Encrypt(ct, plain)

	got := r.words(cipherBuf, 16)
	same := 0
	for i, w := range got {
		if want := binary.LittleEndian.Uint32(ct[(i%4)*4:]); w != want {
			t.Errorf("ciphertext word %d = %#08x, want %#08x", i, w, want)
		}
		if w == 0x9999_9999 {
			same++
		}
	}
	if same == len(got) {
		t.Error("encryption is the identity")
	}

	r.aesPass(t, soc.AesFuncDecrypt, cipherBuf, plainBuf)
	for i, w := range r.words(plainBuf, 16) {
		if w != 0x9999_9999 {
			t.Errorf("decrypted word %d = %#08x", i, w)
		}
	}
}

func TestAesWithoutKey(t *testing.T) {
	r := newSceRig()
	r.global.Write(soc.SceFfen, soc.FfenAesIn)
	r.aes.Write(soc.AesCrfunc, soc.AesFuncEncrypt)
	r.aes.Write(soc.AesOpt1, 1)
	r.aes.Write(soc.AesAr, soc.StartToken)
	r.move(soc.XchFuncMemToSeg, soc.SegAIB, soc.SceBufBase, 4, false)
	if r.aes.ReadField(soc.AesFrKeyErr) != 1 {
		t.Error("key error not raised")
	}
}

func TestDmaGatedClock(t *testing.T) {
	r := newSceRig()
	r.global.Write(soc.SceSuben, 0)
	r.fill(soc.SceBufBase, pattern(4, 7))
	r.move(soc.XchFuncMemToSeg, soc.SegMSG, soc.SceBufBase, 4, false)
	if got := r.words(soc.SegAddr(soc.SegMSG, 0), 1)[0]; got != 0 {
		t.Errorf("gated DMA moved data: %#x", got)
	}
}
