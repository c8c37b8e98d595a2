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

// Package clock brings up the clock tree: crystal reference, optional low
// power divider and the PLL.
package clock

import (
	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// Progress words. Marker is followed by freq, pllmn, pllf and pllq.
const (
	Marker      = report.ClockTag
	PhaseOff    = report.ClockTag | 0x01
	PhaseSet    = report.ClockTag | 0x02
	PhaseOn     = report.ClockTag | 0x03
	PhaseSwitch = report.ClockTag | 0x04
	LowPower    = report.ClockTag | 0xff
)

const (
	refHz       = 16_000_000
	settleNops  = 1024
	pllmnM      = 23
	cpBias      = 3
	maxBucket   = 6
	maxLpDivide = 0xffff
)

// Output dividers and their product, per octave above 16 MHz.
var (
	tblQ   = [maxBucket + 1]uint32{0x7777, 0x7737, 0x3733, 0x3313, 0x3311, 0x3301, 0x3301}
	tblMul = [maxBucket + 1]uint64{64, 32, 16, 8, 4, 2, 2}
)

type Params struct {
	Pllmn  uint32
	Pllf   uint32
	Pllq   uint32
	Bucket int
}

// ComputePLL derives the PLL setting for freqHz. The VCO runs at
// freqHz*mul, N is kept as a 24 bit fixed point fraction.
func ComputePLL(freqHz uint32) Params {
	bucket := 0
	for r := freqHz / refHz; r > 1 && bucket < maxBucket; r >>= 1 {
		bucket++
	}
	n := (uint64(freqHz) << 24) * tblMul[bucket] / (2 * refHz)
	p := Params{
		Pllmn:  pllmnM<<12 | uint32(n>>24),
		Pllf:   uint32(n & 0xff_ffff),
		Pllq:   tblQ[bucket],
		Bucket: bucket,
	}
	if p.Pllf != 0 {
		p.Pllf |= 1 << 24
	}
	return p
}

// OutputHz is the frequency the setting produces, rounded down.
func (p Params) OutputHz() uint64 {
	mul := uint64(p.Pllq&0xf+1) * uint64(p.Pllq>>4&0xf+1)
	n := uint64(p.Pllmn&0xfff)<<24 | uint64(p.Pllf&0xff_ffff)
	return n * 2 * refHz / mul >> 24
}

// LowPowerDivider is the FDLP value for a sub-MHz clock.
func LowPowerDivider(freqHz uint32) uint32 {
	div := soc.RCOscHz/freqHz - 1
	if div > maxLpDivide {
		div = maxLpDivide
	}
	return div
}

type Configurator struct {
	cgu  *csr.CSR
	ipc  *csr.CSR
	core cpu.Core
	sink report.Sink
	sync soc.SyncMode
}

func New(bus csr.Bus, core cpu.Core, sink report.Sink, sync soc.SyncMode) *Configurator {
	return &Configurator{
		cgu:  csr.New(bus, soc.CguBase),
		ipc:  csr.New(bus, soc.IpcBase),
		core: core,
		sink: sink,
		sync: sync,
	}
}

func (c *Configurator) commitCgu() {
	c.cgu.WriteField(soc.CguSetCommit, soc.CommitToken)
}

func (c *Configurator) commitIpc() {
	c.ipc.WriteField(soc.IpcAripflowCmt, soc.CommitToken)
}

// SelectXtal makes the crystal the PLL reference.
func (c *Configurator) SelectXtal() {
	c.cgu.WriteField(soc.CguSel1Ref, 1)
	c.commitCgu()
}

// InitClockASIC runs the full clock bring-up for freqHz. Zero keeps the
// oscillator. It returns false only when polling for lock timed out, in which
// case the system clock stays on the oscillator.
func (c *Configurator) InitClockASIC(freqHz uint32) bool {
	c.SelectXtal()
	if freqHz == 0 {
		return true
	}
	if freqHz < soc.MHz {
		div := LowPowerDivider(freqHz)
		c.sink.Report(LowPower)
		c.sink.Report(freqHz)
		c.sink.Report(div)
		c.cgu.WriteField(soc.CguFdLpDiv, div)
		c.cgu.WriteField(soc.CguSel0Src, soc.ClkSrcLP)
		c.commitCgu()
		return true
	}

	p := ComputePLL(freqHz)
	plan := [...]uint32{Marker, freqHz, p.Pllmn, p.Pllf, p.Pllq}
	for _, w := range plan {
		c.sink.Report(w)
	}

	c.ipc.ModifyField(soc.IpcEnPllPD, 1)
	c.commitIpc()
	c.sink.Report(PhaseOff)
	cpu.Delay(c.core, settleNops)

	c.ipc.Write(soc.IpcPllmn, p.Pllmn)
	c.ipc.Write(soc.IpcPllf, p.Pllf)
	c.ipc.Write(soc.IpcPllq, p.Pllq)
	c.ipc.WriteField(soc.IpcCpBias, cpBias)
	c.commitIpc()
	c.sink.Report(PhaseSet)

	c.ipc.ModifyField(soc.IpcEnPllPD, 0)
	c.commitIpc()
	c.sink.Report(PhaseOn)

	if c.sync == soc.SyncPoll {
		if !c.ipc.WaitField(soc.IpcLockLocked, 1, soc.PollLimit) {
			report.Emit(c.sink, report.TimedOut(0, report.SourcePLL))
			return false
		}
	} else {
		cpu.Delay(c.core, settleNops)
	}

	c.cgu.WriteField(soc.CguSel0Src, soc.ClkSrcPLL)
	c.commitCgu()
	c.sink.Report(PhaseSwitch)
	return true
}
