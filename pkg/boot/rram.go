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
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/lfsr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const (
	rramWords        = 16
	rramSeed  uint32 = 0x0dac_1c00
)

// xipProgram is "li a0, 42; ret". It is only read back through the fetch
// window here, jumping to it needs the translation set up by the platform.
var xipProgram = [...]uint32{0x02a0_0513, 0x0000_8067}

// program stores words into r, which must be inside RRAM, and commits them
// on behalf of test id.
func (s *Sequence) program(r csr.Region[uint32], words []uint32, id uint32) (report.Status, bool) {
	rrc := csr.New(s.p, soc.RrcBase)
	rrc.WriteField(soc.RrcCrWe, 1)
	for i, w := range words {
		r.Store(i, w)
	}
	rrc.Write(soc.RrcAr, soc.StartToken)
	st, ok := s.wait(rrc, soc.RrcSrDone, 1, id, report.SourceRRAM)
	rrc.WriteField(soc.RrcCrWe, 0)
	s.p.Fence()
	return st, ok
}

// RramTest programs a pseudo random pattern into the top of RRAM and reads
// it back. It destroys whatever was stored there.
func (s *Sequence) RramTest(id uint32) report.Status {
	var pattern [rramWords]uint32
	lfsr.Fill32(pattern[:], rramSeed)
	r := csr.NewRegion[uint32](s.p, soc.RramTestBase, rramWords)
	if st, ok := s.program(r, pattern[:], id); !ok {
		return st
	}
	var want, got uint32
	for i, w := range pattern {
		want += w
		got += r.Load(i)
	}
	return report.Emit(s.sink, report.Check(id, want, got))
}

// XipTest places code in the RRAM execute window and checks the fetch path
// sees it halfword by halfword, the way compressed instructions are fetched.
// A mismatch is fatal.
func (s *Sequence) XipTest(id uint32) report.Status {
	code := csr.NewRegion[uint32](s.p, soc.XipTestBase, len(xipProgram))
	if st, ok := s.program(code, xipProgram[:], id); !ok {
		return st
	}
	fetch := csr.NewRegion[uint16](s.p, soc.XipTestBase, 2*len(xipProgram))
	for i := 0; i < fetch.Len(); i++ {
		want := uint16(xipProgram[i/2] >> (16 * (i % 2)))
		if fetch.Load(i) != want {
			panic("xip code window readback mismatch")
		}
	}
	return report.Emit(s.sink, report.Passed(id, uint32(fetch.Len())))
}
