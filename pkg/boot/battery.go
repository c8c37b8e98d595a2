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

package boot

import (
	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/ramtest"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/sce"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const (
	fastBytes  uint32 = 0x1_0000
	allWords          = 1024
	largeBytes        = 2 * soc.L2CacheBytes
	wfiCycles  uint32 = 1000
	settleNops        = 1024
)

var scratchPatterns = [...]uint32{0x5555_5555, 0xaaaa_aaaa, 0x1234_5678}

// Battery is the fixed run of CPU and bus self-tests.
func (s *Sequence) Battery() {
	p, sink := s.p, s.sink
	s.CsrTest(IDCsr)
	s.WfiTest(IDWfi)
	ramtest.LFSR(csr.NewRegion[uint32](p, soc.RamTestBase, ramtest.LFSRLen), IDLfsr, sink, p)
	ramtest.All(csr.NewRegion[uint32](p, soc.RamTestBase, allWords), IDAll, sink)
	ramtest.Fast(csr.RegionBytes[uint8](p, soc.RamTestBase, fastBytes), IDFast8, sink)
	ramtest.Fast(csr.RegionBytes[uint16](p, soc.RamTestBase, fastBytes), IDFast16, sink)
	large := csr.RegionBytes[uint32](p, soc.LargeTestBase, largeBytes)
	ramtest.Fast(large, IDLarge, sink)
	ramtest.FastSpecialCase1(large, IDLargeSpecial, sink)
	ramtest.Fast(csr.RegionBytes[uint64](p, soc.RamTestBase, fastBytes), IDFast64, sink)
	s.Probes()
}

// Probes runs the cache probes that close the battery. The I/O probe needs
// the simulation test registers and is skipped on silicon.
func (s *Sequence) Probes() {
	if s.opts.Target.HasSimRegisters() {
		ramtest.IOCacheProbe(s.p, IDIOCache, s.sink)
	}
	ramtest.CacheBoundaryProbe(s.p, s.p, s.sink, soc.LargeTestBase, soc.L2CacheBytes)
}

// Optional runs the feature gated tests. Tests that need the simulation
// control block report unavailable on silicon.
func (s *Sequence) Optional() {
	f, p, sink := s.opts.Features, s.p, s.sink
	if f.ApbTest {
		if s.opts.Target.HasSimRegisters() {
			s.ApbTest(IDApb)
		} else {
			report.Emit(sink, report.Misconfigured(IDApb, report.ReasonUnavailable))
		}
	}
	if f.Pl230Test {
		s.Pl230Test(IDPl230)
	}
	if f.SceTest {
		sce.DMATests(p, p, sink, s.opts.Sync, IDSce)
	}
	if f.Xip {
		s.XipTest(IDXip)
	}
	// PIO and BIO programs come from an assembler that is not part of the ROM.
	if f.PioTest {
		report.Emit(sink, report.Misconfigured(IDPio, report.ReasonUnavailable))
	}
	if f.BioTest {
		report.Emit(sink, report.Misconfigured(IDBio, report.ReasonUnavailable))
	}
}

// CsrTest writes patterns to the supervisor scratch register and reads
// them back.
func (s *Sequence) CsrTest(id uint32) report.Status {
	for _, want := range scratchPatterns {
		s.p.WriteScratch(want)
		if got := s.p.ReadScratch(); got != want {
			return report.Emit(s.sink, report.Failed(id, want, got))
		}
	}
	return report.Emit(s.sink, report.Passed(id, scratchPatterns[len(scratchPatterns)-1]))
}

// WfiTest arms the wake timer and sleeps. The pending flag must be set once
// the hart is back.
func (s *Sequence) WfiTest(id uint32) report.Status {
	timer := csr.New(s.p, soc.TimerBase)
	timer.WriteField(soc.TimerStatusPending, 1)
	timer.Write(soc.TimerCmp, wfiCycles)
	s.p.WaitForInterrupt()
	pending := timer.ReadField(soc.TimerStatusPending)
	timer.WriteField(soc.TimerStatusPending, 1)
	return report.Emit(s.sink, report.Check(id, 1, pending))
}

// ApbTest walks a one and a zero through every scratch register of the
// control block.
func (s *Sequence) ApbTest(id uint32) report.Status {
	var want, got uint32
	for i := uint32(0); i < soc.SimScratchCount; i++ {
		reg := csr.NewRegister(soc.SimScratch.Offset+i, soc.SimScratch.Mask)
		walk := [2]uint32{1 << (i * 2), ^uint32(1 << (i*2 + 1))}
		for _, v := range walk {
			s.ctrl.Write(reg, v)
			want += v
			got += s.ctrl.Read(reg)
		}
	}
	return report.Emit(s.sink, report.Check(id, want, got))
}

// wait is the completion wait for the optional tests. In delay mode it burns
// cycles and trusts the hardware. A timeout is reported as the final status
// of test id.
func (s *Sequence) wait(c *csr.CSR, field csr.Field, want, id, source uint32) (report.Status, bool) {
	if s.opts.Sync != soc.SyncPoll {
		cpu.Delay(s.p, settleNops)
		return report.Status{}, true
	}
	if !c.WaitField(field, want, soc.PollLimit) {
		return report.Emit(s.sink, report.TimedOut(id, source)), false
	}
	return report.Status{}, true
}
