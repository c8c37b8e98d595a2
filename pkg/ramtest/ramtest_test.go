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

package ramtest

import (
	"testing"

	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/sim"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// countingBus counts stores and can corrupt the store to one address.
type countingBus struct {
	*sim.Machine
	writes  int
	corrupt uint32
}

func (b *countingBus) Write8(addr uint32, v uint8) {
	b.writes++
	b.Machine.Write8(addr, v)
}

func (b *countingBus) Write16(addr uint32, v uint16) {
	b.writes++
	b.Machine.Write16(addr, v)
}

func (b *countingBus) Write32(addr uint32, v uint32) {
	b.writes++
	if addr == b.corrupt {
		v ^= 0x10
	}
	b.Machine.Write32(addr, v)
}

func (b *countingBus) Write64(addr uint32, v uint64) {
	b.writes++
	b.Machine.Write64(addr, v)
}

func newBus() *countingBus {
	return &countingBus{Machine: sim.New(sim.Options{})}
}

func TestAll(t *testing.T) {
	bus := newBus()
	rec := report.NewRecorder()
	r := csr.NewRegion[uint32](bus, soc.RamTestBase, 1024)

	s := All(r, 0x04, rec)
	if !s.Ok() {
		t.Fatalf("All = %+v", s)
	}
	if want := uint32(1023 * 1024 / 2); s.Value != want {
		t.Errorf("checksum = %d, want %d", s.Value, want)
	}
	words := rec.Words()
	if len(words) != 2 || words[1] != 0x600d_0004 {
		t.Errorf("reported %#x", words)
	}
	for _, i := range []int{0, 1, 511, 1023} {
		if got := r.Load(i); got != uint32(i) {
			t.Errorf("slot %d = %d", i, got)
		}
	}
}

func TestAllDetectsCorruption(t *testing.T) {
	bus := newBus()
	bus.corrupt = soc.RamTestBase + 40*4
	rec := report.NewRecorder()
	r := csr.NewRegion[uint32](bus, soc.RamTestBase, 256)

	s := All(r, 0x04, rec)
	if s.Ok() {
		t.Fatal("corruption went unnoticed")
	}
	want := uint32(255 * 256 / 2)
	if s.Expected != want || s.Actual != want+0x10 {
		t.Errorf("status %+v, want expected %d actual %d", s, want, want+0x10)
	}
	words := rec.Words()
	if len(words) != 3 || words[0] != s.Actual || words[1] != s.Expected || words[2] != 0x0bad_0004 {
		t.Errorf("reported %#x", words)
	}
}

func TestFastWidths(t *testing.T) {
	bus := newBus()
	rec := report.NewRecorder()
	tests := []struct {
		name   string
		run    func() report.Status
		writes int
	}{
		{"u8", func() report.Status {
			return Fast(csr.NewRegion[uint8](bus, soc.RamTestBase, 4096), 0x05, rec)
		}, 128},
		{"u16", func() report.Status {
			return Fast(csr.NewRegion[uint16](bus, soc.RamTestBase, 4096), 0x06, rec)
		}, 256},
		{"u64", func() report.Status {
			return Fast(csr.NewRegion[uint64](bus, soc.RamTestBase, 4096), 0x09, rec)
		}, 1024},
		{"special", func() report.Status {
			return FastSpecialCase1(csr.NewRegion[uint32](bus, soc.LargeTestBase, 1024), 0x08, rec)
		}, 3 * 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus.writes = 0
			if s := tt.run(); !s.Ok() {
				t.Errorf("status %+v", s)
			}
			if bus.writes != tt.writes {
				t.Errorf("%d stores, want %d", bus.writes, tt.writes)
			}
		})
	}
}

func TestFastSpecialCase1KeepsLastWrite(t *testing.T) {
	bus := newBus()
	r := csr.NewRegion[uint16](bus, soc.LargeTestBase, 64)
	if s := FastSpecialCase1(r, 0x08, report.Discard); !s.Ok() {
		t.Fatalf("status %+v", s)
	}
	for _, i := range []int{0, 1, 16, 17, 48, 49} {
		if got := r.Load(i); got != uint16(i) {
			t.Errorf("slot %d = %#x", i, got)
		}
	}
}

func TestLFSRHitsEverySlot(t *testing.T) {
	bus := newBus()
	rec := report.NewRecorder()
	r := csr.NewRegion[uint32](bus, soc.RamTestBase, LFSRLen)
	r.Fill(0xffff_ffff)

	s := LFSR(r, 0x03, rec, bus)
	if !s.Ok() {
		t.Fatalf("LFSR = %+v", s)
	}
	seen := map[uint32]bool{}
	for i := 0; i < r.Len(); i++ {
		v := r.Load(i)
		if v%3 != 0 || v > 511*3 {
			t.Fatalf("slot %d holds %#x", i, v)
		}
		if seen[v] {
			t.Fatalf("value %d written twice", v)
		}
		seen[v] = true
	}
	if want := uint32(3 * 511 * 512 / 2); s.Value != want {
		t.Errorf("checksum = %d, want %d", s.Value, want)
	}
}

func TestLFSRRejectsWrongLength(t *testing.T) {
	for _, n := range []int{256, 1024} {
		bus := newBus()
		rec := report.NewRecorder()
		r := csr.NewRegion[uint32](bus, soc.RamTestBase, n)
		r.Fill(0x5a5a_5a5a)
		bus.writes = 0

		s := LFSR(r, 0x03, rec, bus)
		if s.Kind != report.ConfigError {
			t.Errorf("len %d: status %+v", n, s)
		}
		if bus.writes != 0 {
			t.Errorf("len %d: %d stores into the region", n, bus.writes)
		}
		for i := 0; i < n; i++ {
			if r.Load(i) != 0x5a5a_5a5a {
				t.Fatalf("len %d: sentinel overwritten at %d", n, i)
			}
		}
		if words := rec.Words(); len(words) != 1 || words[0] != 0x0bad_0f03 {
			t.Errorf("len %d: reported %#x", n, words)
		}
	}
}

func TestCacheBoundaryProbe(t *testing.T) {
	m := sim.New(sim.Options{})
	rec := report.NewRecorder()
	CacheBoundaryProbe(m, m, rec, soc.RamTestBase, 0x1000)

	words := rec.Words()
	if len(words) != probePasses*(1+4*probeSets) {
		t.Fatalf("reported %d words", len(words))
	}
	for pass := 0; pass < probePasses; pass++ {
		chunk := words[pass*17 : (pass+1)*17]
		if chunk[0] != report.CacheTag|uint32(pass+1) {
			t.Errorf("pass %d marker = %#x", pass+1, chunk[0])
		}
		for i, w := range chunk[1:] {
			if w != report.CacheTag|uint32(i) {
				t.Errorf("pass %d word %d = %#x", pass+1, i, w)
			}
		}
	}
}

type brokenAdder struct {
	*sim.Machine
}

func (b brokenAdder) Read32(addr uint32) uint32 {
	v := b.Machine.Read32(addr)
	if addr == soc.SimCtrlBase+soc.SimAdd5.Offset*4 {
		return v - 1
	}
	return v
}

func TestIOCacheProbe(t *testing.T) {
	rec := report.NewRecorder()
	m := sim.New(sim.Options{})
	if s := IOCacheProbe(m, 0x0a, rec); !s.Ok() || s.Value != ioSeed+5*ioIterations {
		t.Errorf("status %+v", s)
	}
	s := IOCacheProbe(brokenAdder{m}, 0x0a, rec)
	if s.Ok() || s.Expected != ioSeed+5 || s.Actual != ioSeed+4 {
		t.Errorf("status %+v", s)
	}
}

// staleAdder answers from a cached copy after the first read, as a cached
// I/O region would.
type staleAdder struct {
	*sim.Machine
	cached uint32
	hits   int
}

func (b *staleAdder) Read32(addr uint32) uint32 {
	if addr != soc.SimCtrlBase+soc.SimAdd5.Offset*4 {
		return b.Machine.Read32(addr)
	}
	if b.hits == 0 {
		b.cached = b.Machine.Read32(addr)
	}
	b.hits++
	return b.cached
}

func TestIOCacheChainsResponses(t *testing.T) {
	rec := report.NewRecorder()
	s := IOCacheProbe(&staleAdder{Machine: sim.New(sim.Options{})}, 0x0a, rec)
	if s.Ok() || s.Expected != ioSeed+10 || s.Actual != ioSeed+5 {
		t.Errorf("status %+v", s)
	}
}

// wordBus is a flat array of words from base with no cache in front.
type wordBus struct {
	base  uint32
	words [256]uint32
}

func (b *wordBus) Read8(uint32) uint8            { return 0 }
func (b *wordBus) Write8(uint32, uint8)          {}
func (b *wordBus) Read16(uint32) uint16          { return 0 }
func (b *wordBus) Write16(uint32, uint16)        {}
func (b *wordBus) Read32(addr uint32) uint32     { return b.words[(addr-b.base)/4] }
func (b *wordBus) Write32(addr uint32, v uint32) { b.words[(addr-b.base)/4] = v }
func (b *wordBus) Read64(uint32) uint64          { return 0 }
func (b *wordBus) Write64(uint32, uint64)        {}
func (b *wordBus) Fence()                        {}
func (b *wordBus) FlushDataCache()               {}
func (b *wordBus) WaitForInterrupt()             {}
func (b *wordBus) Nop()                          {}
func (b *wordBus) ReadScratch() uint32           { return 0 }
func (b *wordBus) WriteScratch(uint32)           {}

func TestCacheBoundaryDoesNotAllocate(t *testing.T) {
	bus := &wordBus{base: soc.RamTestBase}
	n := testing.AllocsPerRun(10, func() {
		CacheBoundaryProbe(bus, bus, report.Discard, soc.RamTestBase, 0x200)
	})
	if n != 0 {
		t.Errorf("CacheBoundaryProbe allocated %v times", n)
	}
}
