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
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const (
	pl230Channels = 8
	pl230DescSize = 16
)

// pl230 is the micro DMA controller. A software request on an enabled
// channel runs the whole primary descriptor at once.
type pl230 struct {
	m        *Machine
	cfg      uint32
	ctrlBase uint32
	altBase  uint32
	enabled  uint32
}

func (d *pl230) read(off uint32) uint32 {
	switch off / 4 {
	case soc.Pl230Status.Offset:
		return d.cfg&1 | (pl230Channels-1)<<16
	case soc.Pl230Cfg.Offset:
		return d.cfg
	case soc.Pl230CtrlBasePtr.Offset:
		return d.ctrlBase
	case soc.Pl230AltCtrlBasePtr.Offset:
		return d.altBase
	case soc.Pl230ChnlEnableSet.Offset:
		return d.enabled
	}
	return 0
}

func (d *pl230) write(off uint32, v uint32) {
	switch off / 4 {
	case soc.Pl230Cfg.Offset:
		d.cfg = v
	case soc.Pl230CtrlBasePtr.Offset:
		d.ctrlBase = v
	case soc.Pl230AltCtrlBasePtr.Offset:
		d.altBase = v
	case soc.Pl230ChnlEnableSet.Offset:
		d.enabled |= v & (1<<pl230Channels - 1)
	case soc.Pl230ChnlEnableClr.Offset:
		d.enabled &^= v
	case soc.Pl230ChnlSwRequest.Offset:
		for ch := uint32(0); ch < pl230Channels; ch++ {
			if v&(1<<ch) != 0 && d.enabled&(1<<ch) != 0 && d.cfg&1 != 0 {
				d.run(ch)
			}
		}
	}
}

func step(inc uint32) uint32 {
	if inc == soc.Pl230IncNone {
		return 0
	}
	return 1 << inc
}

func (d *pl230) run(ch uint32) {
	mem := d.m.mem
	desc := d.ctrlBase + ch*pl230DescSize
	srcEnd := uint32(mem.load(desc, 4))
	dstEnd := uint32(mem.load(desc+4, 4))
	ctl := uint32(mem.load(desc+8, 4))

	if soc.Pl230CtlCycle.Mask&ctl == soc.Pl230CycleStop {
		return
	}
	n := ctl>>soc.Pl230CtlNMinus1.Offset&soc.Pl230CtlNMinus1.Mask + 1
	size := uint32(1) << (ctl >> soc.Pl230CtlSrcSize.Offset & soc.Pl230CtlSrcSize.Mask)
	srcStep := step(ctl >> soc.Pl230CtlSrcInc.Offset & soc.Pl230CtlSrcInc.Mask)
	dstStep := step(ctl >> soc.Pl230CtlDstInc.Offset & soc.Pl230CtlDstInc.Mask)
	src := srcEnd - (n-1)*srcStep
	dst := dstEnd - (n-1)*dstStep
	for i := uint32(0); i < n; i++ {
		mem.store(dst+i*dstStep, size, mem.load(src+i*srcStep, size))
	}

	ctl &^= soc.Pl230CtlCycle.Shift(soc.Pl230CtlCycle.Mask) | soc.Pl230CtlNMinus1.Shift(soc.Pl230CtlNMinus1.Mask)
	mem.store(desc+8, 4, uint64(ctl))
	d.enabled &^= 1 << ch
}
