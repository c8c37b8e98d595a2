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

package sce

import (
	"testing"

	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/sim"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

var knownDigest = []uint32{
	0xfc5ba0c1, 0x064081d6, 0xa87b52e9, 0x5212798a,
	0x9a1ac8bb, 0x51e57e85, 0xeec5fa2b, 0x1b3b89d0,
}

func index(words []uint32, w uint32) int {
	for i, v := range words {
		if v == w {
			return i
		}
	}
	return -1
}

func TestDMATests(t *testing.T) {
	for _, mode := range []soc.SyncMode{soc.SyncDelay, soc.SyncPoll} {
		t.Run(string(mode), func(t *testing.T) {
			m := sim.New(sim.Options{})
			rec := report.NewRecorder()
			if !DMATests(m, m, rec, mode, 0x0d) {
				t.Fatalf("DMATests failed, reported %#x", rec.Words())
			}
			words := rec.Words()

			h := index(words, PhaseHash)
			if h < 0 || len(words) < h+2+2*digestLen {
				t.Fatalf("hash phase missing: %#x", words)
			}
			if words[h+1] != 1 {
				t.Errorf("hash done flag = %d", words[h+1])
			}
			for i, want := range knownDigest {
				if got := words[h+2+i]; got != want {
					t.Errorf("digest word %d = %#08x, want %#08x", i, got, want)
				}
				le := words[h+2+digestLen+i]
				if le>>24 != want&0xff {
					t.Errorf("little endian view %d = %#08x", i, le)
				}
			}

			e := index(words, PhaseEncrypt)
			if e < 0 {
				t.Fatalf("encrypt phase missing: %#x", words)
			}
			if words[e+1] != bufWords {
				t.Errorf("ciphertext equals plaintext in %d words", bufWords-words[e+1])
			}
			if index(words, Mismatch) >= 0 {
				t.Error("decrypt mismatch reported")
			}
			if last := words[len(words)-1]; last != 0x600d_000d {
				t.Errorf("last word = %#x", last)
			}
		})
	}
}

// encryptTwice turns the decrypt request into a second encryption.
type encryptTwice struct {
	*sim.Machine
}

func (b encryptTwice) Write32(addr uint32, v uint32) {
	if addr == csr.New(nil, soc.AesBase).Addr(soc.AesCrfunc) && v == soc.AesFuncDecrypt {
		v = soc.AesFuncEncrypt
	}
	b.Machine.Write32(addr, v)
}

func TestDMATestsDetectsBrokenDecrypt(t *testing.T) {
	m := sim.New(sim.Options{})
	rec := report.NewRecorder()
	if DMATests(encryptTwice{m}, m, rec, soc.SyncDelay, 0x0d) {
		t.Fatal("DMATests passed with a broken decrypt")
	}
	words := rec.Words()
	if last := words[len(words)-1]; last != 0x0bad_000d {
		t.Errorf("last word = %#x", last)
	}
	if got := words[len(words)-3]; got != bufWords {
		t.Errorf("mismatch count = %d, want %d", got, bufWords)
	}
}

// stuckDma never raises its done flag.
type stuckDma struct {
	*sim.Machine
}

func (b stuckDma) Read32(addr uint32) uint32 {
	if addr == csr.New(nil, soc.SceDmaBase).Addr(soc.DmaXchFr) {
		return 0
	}
	return b.Machine.Read32(addr)
}

func TestDMATestsPollTimeout(t *testing.T) {
	m := sim.New(sim.Options{})
	rec := report.NewRecorder()
	if DMATests(stuckDma{m}, m, rec, soc.SyncPoll, 0x0d) {
		t.Fatal("DMATests passed with a stuck DMA")
	}
	words := rec.Words()
	if last := words[len(words)-1]; last != 0x0bad_720d {
		t.Errorf("last word = %#x, want 0x0bad720d", last)
	}
}
