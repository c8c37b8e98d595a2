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
	cguSel0 = iota
	cguSel1
	cguFdLp
	cguFdFclk
	cguFdAclk
	cguSet
	cguRegs
)

// cgu is the clock generation unit. Writes land in the staged bank and
// become live only when CommitToken is written to the set register.
type cgu struct {
	staged [cguRegs]uint32
	live   [cguRegs]uint32
}

func (c *cgu) read(off uint32) uint32 {
	if i := off / 4; i < cguSet {
		return c.staged[i]
	}
	return 0
}

func (c *cgu) write(off uint32, v uint32) {
	i := off / 4
	switch {
	case i < cguSet:
		c.staged[i] = v
	case i == cguSet && v == soc.CommitToken:
		c.live = c.staged
	}
}

const (
	ipcEn = iota
	ipcLpEn
	ipcPllmn
	ipcPllf
	ipcPllq
	ipcCp
	ipcAripflow
	ipcLock
	ipcRegs
)

// ipc is the analog PLL control group, committed through the aripflow
// register. The PLL reports lock a fixed number of cycles after it is
// committed powered up.
type ipc struct {
	m      *Machine
	staged [ipcRegs]uint32
	live   [ipcRegs]uint32
	lockAt uint64
}

func (p *ipc) read(off uint32) uint32 {
	switch i := off / 4; {
	case i == ipcLock:
		if p.locked() {
			return 1
		}
		return 0
	case i < ipcAripflow:
		return p.staged[i]
	}
	return 0
}

func (p *ipc) write(off uint32, v uint32) {
	i := off / 4
	switch {
	case i < ipcAripflow:
		p.staged[i] = v
	case i == ipcAripflow && v == soc.CommitToken:
		wasOn := p.powered()
		p.live = p.staged
		if p.powered() && (!wasOn || p.lockAt == 0) {
			p.lockAt = p.m.cycles + p.m.opts.LockCycles
		}
		if !p.powered() {
			p.lockAt = 0
		}
	}
}

func (p *ipc) powered() bool {
	return p.live[ipcEn]&1 == 0 && p.live[ipcPllmn] != 0
}

func (p *ipc) locked() bool {
	return p.powered() && p.lockAt != 0 && p.m.cycles >= p.lockAt
}

// pllOutputHz decodes the PLL setting. The divider product comes from the
// two low nibbles of pllq.
func pllOutputHz(pllmn, pllf, pllq uint32) uint64 {
	mul := uint64(pllq&0xf+1) * uint64(pllq>>4&0xf+1)
	n := uint64(pllmn&0xfff)<<24 | uint64(pllf&0xffffff)
	return n * 2 * 16_000_000 / mul >> 24
}
