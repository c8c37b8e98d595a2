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

// Package boot is the ROM entry point. It brings up clocks, hands over to
// the translation and trap setup of the platform and then runs the self-test
// battery in a fixed order.
package boot

import (
	"context"

	"jinr.ru/greenlab/go-daric/pkg/clock"
	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
	"jinr.ru/greenlab/go-daric/pkg/uart"
)

// Platform is the hart the sequence runs on. SetupTranslation and SetupTraps
// belong to the startup code linked with the ROM.
type Platform interface {
	csr.Bus
	cpu.Core
	SetupTranslation()
	SetupTraps()
}

type Options struct {
	Target          soc.Target
	Sync            soc.SyncMode
	Features        soc.Features
	FreqHz          uint32
	BootDelayCycles int
}

// SRAM margin settings applied when the sram-margin feature is on.
const (
	sramReadMargin  uint32 = 0x3
	sramWriteMargin uint32 = 0x1
	sram1Margin     uint32 = 0x13
	iframMargin     uint32 = 0x11
)

const unspecifiedPanic = "unspecified panic"

type Sequence struct {
	p     Platform
	sink  report.Sink
	opts  Options
	clock *clock.Configurator
	uart  *uart.UART
	ctrl  *csr.CSR
	idle  chan struct{}
}

func New(p Platform, sink report.Sink, opts Options) *Sequence {
	if opts.Target == "" {
		opts.Target = soc.TargetSim
	}
	if opts.Sync == "" {
		opts.Sync = soc.SyncDelay
	}
	return &Sequence{
		p:     p,
		sink:  sink,
		opts:  opts,
		clock: clock.New(p, p, sink, opts.Sync),
		uart:  uart.New(p, soc.UartBase),
		ctrl:  csr.New(p, soc.SimCtrlBase),
		idle:  make(chan struct{}),
	}
}

// Run boots p and never returns before ctx is done.
func Run(ctx context.Context, p Platform, sink report.Sink, opts Options) {
	New(p, sink, opts).Run(ctx)
}

// Idle is closed once the sequence has nothing left to do, either after the
// done write or after a fatal error.
func (s *Sequence) Idle() <-chan struct{} {
	return s.idle
}

func (s *Sequence) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.fatal(r)
		}
		close(s.idle)
		<-ctx.Done()
	}()
	s.Boot()
}

// Boot runs every step up to and including the done write.
func (s *Sequence) Boot() {
	f := s.opts.Features
	s.EarlyInit()
	if f.BootDelay {
		cpu.Delay(s.p, s.opts.BootDelayCycles)
	}
	if f.SramMargin {
		s.SramMargin()
	}
	if f.RramTesting {
		s.RramTest(IDRram)
	}
	if s.opts.Target.HasPLL() {
		s.clock.InitClockASIC(s.opts.FreqHz)
	}
	s.p.SetupTranslation()
	s.p.SetupTraps()
	s.Battery()
	s.Optional()
	s.ctrl.Write(soc.SimDone, 1)
}

// EarlyInit moves the reference to the crystal and opens the console.
func (s *Sequence) EarlyInit() {
	s.clock.SelectXtal()
	s.uart.Init(soc.XtalHz, uart.DefaultBaud)
}

func (s *Sequence) SramMargin() {
	trim := csr.New(s.p, soc.SramTrimBase)
	trim.Write(soc.SramTrim0, soc.SramTrimRm.Shift(sramReadMargin)|soc.SramTrimWm.Shift(sramWriteMargin))
	trim.Write(soc.SramTrim1, sram1Margin)
	trim.Write(soc.IframTrim, iframMargin)
	trim.Write(soc.SramTrimAr, soc.StartToken)
}

func (s *Sequence) fatal(r interface{}) {
	msg := unspecifiedPanic
	switch v := r.(type) {
	case string:
		msg = v
	case error:
		msg = v.Error()
	}
	s.uart.Puts("panic: ")
	s.uart.Puts(msg)
	s.uart.Puts("\r\n")
	s.sink.Report(report.FatalTag)
}
