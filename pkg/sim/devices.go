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
	"io"

	"jinr.ru/greenlab/go-daric/pkg/log"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// control is the simulation control block. Test benches snoop the report
// register, the add and increment registers exercise uncached I/O.
type control struct {
	m       *Machine
	add5    uint32
	inc3    uint32
	scratch [16]uint32
}

func (c *control) read(off uint32) uint32 {
	switch i := off / 4; {
	case i == soc.SimAdd5.Offset:
		return c.add5 + 5
	case i == soc.SimInc3.Offset:
		c.inc3 += 3
		return c.inc3
	case i >= soc.SimScratch.Offset && i < soc.SimScratch.Offset+soc.SimScratchCount:
		return c.scratch[i-soc.SimScratch.Offset]
	}
	return 0
}

func (c *control) write(off uint32, v uint32) {
	switch i := off / 4; {
	case i == soc.SimReport.Offset:
		if c.m.opts.Report != nil {
			c.m.opts.Report.Report(v)
		}
	case i == soc.SimDone.Offset:
		select {
		case <-c.m.done:
		default:
			close(c.m.done)
			log.Debug("Done register written at cycle %d", c.m.cycles)
		}
	case i == soc.SimAdd5.Offset:
		c.add5 = v
	case i == soc.SimInc3.Offset:
		c.inc3 = v
	case i >= soc.SimScratch.Offset && i < soc.SimScratch.Offset+soc.SimScratchCount:
		c.scratch[i-soc.SimScratch.Offset] = v
	}
}

// timer raises its pending flag cmp cycles after cmp is written.
type timer struct {
	m       *Machine
	fireAt  uint64
	armed   bool
	pending bool
}

func (t *timer) read(off uint32) uint32 {
	t.poll()
	if off/4 == soc.TimerStatus.Offset && t.pending {
		return 1
	}
	return 0
}

func (t *timer) write(off uint32, v uint32) {
	switch off / 4 {
	case soc.TimerCmp.Offset:
		t.fireAt = t.m.cycles + uint64(v)
		t.armed = v != 0
	case soc.TimerStatus.Offset:
		if v&1 != 0 {
			t.pending = false
		}
	}
}

func (t *timer) poll() {
	if t.armed && t.m.cycles >= t.fireAt {
		t.armed = false
		t.pending = true
	}
}

func (t *timer) wait() {
	if t.armed && t.m.cycles < t.fireAt {
		t.m.cycles = t.fireAt
	}
	t.m.cycles++
	t.poll()
}

type uartDev struct {
	out    io.Writer
	clkDiv uint32
	ctrl   uint32
}

func (u *uartDev) read(off uint32) uint32 {
	switch off / 4 {
	case soc.UartClkDiv.Offset:
		return u.clkDiv
	case soc.UartCtrl.Offset:
		return u.ctrl
	}
	return 0
}

func (u *uartDev) write(off uint32, v uint32) {
	switch off / 4 {
	case soc.UartTxd.Offset:
		if _, err := u.out.Write([]byte{byte(v)}); err != nil {
			log.Warning("Console write failed: %s", err)
		}
	case soc.UartClkDiv.Offset:
		u.clkDiv = v
	case soc.UartCtrl.Offset:
		u.ctrl = v
	}
}

// rrc is the RRAM controller. Array stores are collected while write enable
// is set and programmed, page by page, on StartToken.
type rrc struct {
	m      *Machine
	cr     uint32
	done   bool
	staged map[uint32]byte
}

func (r *rrc) read(off uint32) uint32 {
	switch off / 4 {
	case soc.RrcCr.Offset:
		return r.cr
	case soc.RrcSr.Offset:
		if r.done {
			return 1 << soc.RrcSrDone.Offset
		}
	}
	return 0
}

func (r *rrc) write(off uint32, v uint32) {
	switch off / 4 {
	case soc.RrcCr.Offset:
		r.cr = v
	case soc.RrcAr.Offset:
		if v == soc.StartToken {
			r.program()
		}
	}
}

func (r *rrc) stage(addr, size uint32, v uint64) {
	if r.cr&1 == 0 {
		log.Debug("Dropped RRAM store to %#08x with write enable clear", addr)
		return
	}
	r.done = false
	for i := uint32(0); i < size; i++ {
		r.staged[addr+i] = byte(v >> (8 * i))
	}
}

func (r *rrc) program() {
	dirty := map[uint32]bool{}
	for addr, b := range r.staged {
		r.m.mem.storeByte(addr, b)
		dirty[addr&^(soc.PageSize-1)] = true
	}
	r.staged = map[uint32]byte{}
	r.done = true
	if r.m.opts.NVM == nil {
		return
	}
	for base := range dirty {
		data := make([]byte, soc.PageSize)
		r.m.mem.read(base, data)
		if err := r.m.opts.NVM.StorePage(base, data); err != nil {
			log.Warning("Failed to persist RRAM page %#08x: %s", base, err)
		}
	}
}

// trim holds the SRAM and IFRAM margin settings, committed with StartToken.
type trim struct {
	staged [3]uint32
	live   [3]uint32
}

func (t *trim) read(off uint32) uint32 {
	if i := off / 4; i < 3 {
		return t.staged[i]
	}
	return 0
}

func (t *trim) write(off uint32, v uint32) {
	i := off / 4
	switch {
	case i < 3:
		t.staged[i] = v
	case i == soc.SramTrimAr.Offset && v == soc.StartToken:
		t.live = t.staged
	}
}
