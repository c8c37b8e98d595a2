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
	pl230Words        = 16
	pl230Seed  uint32 = 0xace1
)

var pl230Ch0Enabled = csr.NewField(0x1, 0, soc.Pl230ChnlEnableSet)

// Pl230Test copies a pattern with channel 0 in auto-request mode and
// compares the destination once the channel has disabled itself.
func (s *Sequence) Pl230Test(id uint32) report.Status {
	var pattern [pl230Words]uint32
	lfsr.Fill32(pattern[:], pl230Seed)
	buf := csr.NewRegion[uint32](s.p, soc.Pl230BufBase, 2*pl230Words)
	src, dst := buf.Sub(0, pl230Words), buf.Sub(pl230Words, 2*pl230Words)
	for i, w := range pattern {
		src.Store(i, w)
		dst.Store(i, 0)
	}

	ctl := soc.Pl230CtlCycle.Shift(soc.Pl230CycleAuto) |
		soc.Pl230CtlNMinus1.Shift(pl230Words-1) |
		soc.Pl230CtlSrcSize.Shift(soc.Pl230SizeWord) |
		soc.Pl230CtlSrcInc.Shift(soc.Pl230IncWord) |
		soc.Pl230CtlDstSize.Shift(soc.Pl230SizeWord) |
		soc.Pl230CtlDstInc.Shift(soc.Pl230IncWord)
	desc := csr.NewRegion[uint32](s.p, soc.Pl230CtrlBase, 4)
	desc.Store(0, src.Addr(pl230Words-1))
	desc.Store(1, dst.Addr(pl230Words-1))
	desc.Store(2, ctl)
	desc.Store(3, 0)
	s.p.FlushDataCache()

	dma := csr.New(s.p, soc.Pl230Base)
	dma.Write(soc.Pl230CtrlBasePtr, soc.Pl230CtrlBase)
	dma.WriteField(soc.Pl230CfgMasterEnable, 1)
	dma.Write(soc.Pl230ChnlEnableSet, 1)
	dma.Write(soc.Pl230ChnlSwRequest, 1)
	if st, ok := s.wait(dma, pl230Ch0Enabled, 0, id, report.SourcePL230); !ok {
		return st
	}
	s.p.FlushDataCache()

	for i, want := range pattern {
		if got := dst.Load(i); got != want {
			return report.Emit(s.sink, report.Failed(id, want, got))
		}
	}
	return report.Emit(s.sink, report.Passed(id, pl230Words))
}
