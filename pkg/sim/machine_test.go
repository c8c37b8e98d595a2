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
	"bytes"
	"errors"
	"testing"

	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

func TestNarrowAccesses(t *testing.T) {
	m := New(Options{})
	addr := soc.RamTestBase
	m.Write32(addr, 0x1122_3344)
	if got := m.Read8(addr); got != 0x44 {
		t.Errorf("Read8 = %#x, want 0x44", got)
	}
	if got := m.Read16(addr + 2); got != 0x1122 {
		t.Errorf("Read16 = %#x, want 0x1122", got)
	}
	m.Write8(addr+1, 0xaa)
	if got := m.Read32(addr); got != 0x1122_aa44 {
		t.Errorf("Read32 = %#x, want 0x1122aa44", got)
	}
	m.Write64(addr+8, 0x0102_0304_0506_0708)
	if got := m.Read32(addr + 12); got != 0x0102_0304 {
		t.Errorf("upper word = %#x, want 0x01020304", got)
	}
	if got := m.Read64(addr + 8); got != 0x0102_0304_0506_0708 {
		t.Errorf("Read64 = %#x", got)
	}
}

func TestCacheHidesBusMasterWrites(t *testing.T) {
	m := New(Options{})
	addr := soc.RamTestBase
	m.Write32(addr, 1)
	if got := m.Read32(addr); got != 1 {
		t.Fatalf("Read32 = %d, want 1", got)
	}
	if err := m.Poke(addr, 2); err != nil {
		t.Fatal(err)
	}
	if got := m.Read32(addr); got != 1 {
		t.Errorf("cached read = %d, want the stale 1", got)
	}
	m.FlushDataCache()
	if m.CachedLines() != 0 {
		t.Errorf("%d lines resident after flush", m.CachedLines())
	}
	if got := m.Read32(addr); got != 2 {
		t.Errorf("read after flush = %d, want 2", got)
	}
}

func TestSegmentsAreUncached(t *testing.T) {
	m := New(Options{})
	addr := soc.SegAddr(soc.SegMSG, 0)
	m.Write32(addr, 1)
	m.Read32(addr)
	if err := m.Poke(addr, 2); err != nil {
		t.Fatal(err)
	}
	if got := m.Read32(addr); got != 2 {
		t.Errorf("segment read = %d, want 2", got)
	}
}

func TestPeekRejectsUnaligned(t *testing.T) {
	m := New(Options{})
	_, err := m.Peek(soc.SramBase + 2)
	var bad ErrBadAddress
	if !errors.As(err, &bad) || bad.Addr != soc.SramBase+2 {
		t.Errorf("Peek err = %v, want ErrBadAddress", err)
	}
}

type fakeNVM struct {
	pages map[uint32][]byte
}

func (n *fakeNVM) LoadPages(fn func(addr uint32, data []byte)) error {
	for addr, data := range n.pages {
		fn(addr, data)
	}
	return nil
}

func (n *fakeNVM) StorePage(addr uint32, data []byte) error {
	n.pages[addr] = append([]byte(nil), data...)
	return nil
}

func TestRramProgramming(t *testing.T) {
	nvm := &fakeNVM{pages: map[uint32][]byte{}}
	m := New(Options{NVM: nvm})
	rrc := csr.New(m, soc.RrcBase)
	addr := soc.RramTestBase

	m.Write32(addr, 0xdead_beef)
	if got := m.Read32(addr); got != 0 {
		t.Fatalf("store without write enable landed: %#x", got)
	}

	rrc.WriteField(soc.RrcCrWe, 1)
	m.Write32(addr, 0xdead_beef)
	if got := m.Read32(addr); got != 0 {
		t.Fatalf("store visible before programming: %#x", got)
	}
	rrc.Write(soc.RrcAr, soc.StartToken)
	if rrc.ReadField(soc.RrcSrDone) != 1 {
		t.Error("done flag not set")
	}
	if got := m.Read32(addr); got != 0xdead_beef {
		t.Fatalf("Read32 = %#x after programming", got)
	}
	if _, ok := nvm.pages[addr&^(soc.PageSize-1)]; !ok {
		t.Fatal("page not persisted")
	}

	restarted := New(Options{NVM: nvm})
	if got := restarted.Read32(addr); got != 0xdead_beef {
		t.Errorf("Read32 after restart = %#x", got)
	}
}

func TestWaitForInterrupt(t *testing.T) {
	m := New(Options{})
	tmr := csr.New(m, soc.TimerBase)
	tmr.Write(soc.TimerCmp, 1000)
	before := m.Cycles()
	m.WaitForInterrupt()
	if elapsed := m.Cycles() - before; elapsed < 1000 {
		t.Errorf("woke after %d cycles", elapsed)
	}
	if tmr.ReadField(soc.TimerStatusPending) != 1 {
		t.Fatal("timer not pending after wake")
	}
	tmr.WriteField(soc.TimerStatusPending, 1)
	if tmr.ReadField(soc.TimerStatusPending) != 0 {
		t.Error("pending not cleared")
	}
}

func TestControlBlock(t *testing.T) {
	rec := report.NewRecorder()
	m := New(Options{Report: rec})
	ctrl := csr.New(m, soc.SimCtrlBase)

	ctrl.Write(soc.SimAdd5, 10)
	if got := ctrl.Read(soc.SimAdd5); got != 15 {
		t.Errorf("add5 = %d, want 15", got)
	}
	ctrl.Write(soc.SimInc3, 1)
	for _, want := range []uint32{4, 7, 10} {
		if got := ctrl.Read(soc.SimInc3); got != want {
			t.Errorf("inc3 = %d, want %d", got, want)
		}
	}

	ctrl.Write(soc.SimReport, 0x600d_0001)
	if got := rec.Words(); len(got) != 1 || got[0] != 0x600d_0001 {
		t.Errorf("snooped %#x", got)
	}
	ctrl.Write(soc.SimDone, 1)
	select {
	case <-m.Done():
	default:
		t.Error("done not signalled")
	}
	ctrl.Write(soc.SimDone, 1)
}

func TestAsicHasNoControlBlock(t *testing.T) {
	rec := report.NewRecorder()
	m := New(Options{Target: soc.TargetASIC, Report: rec})
	ctrl := csr.New(m, soc.SimCtrlBase)
	ctrl.Write(soc.SimReport, 0x600d_0001)
	ctrl.Write(soc.SimDone, 1)
	if rec.Len() != 0 {
		t.Error("asic captured a report word")
	}
	select {
	case <-m.Done():
		t.Error("asic signalled done")
	default:
	}
}

func TestUartConsole(t *testing.T) {
	var out bytes.Buffer
	m := New(Options{Console: &out})
	uart := csr.New(m, soc.UartBase)
	for _, c := range []byte("ok\r\n") {
		uart.Write(soc.UartTxd, uint32(c))
	}
	if out.String() != "ok\r\n" {
		t.Errorf("console = %q", out.String())
	}
}

func TestPl230MemoryToMemory(t *testing.T) {
	m := New(Options{})
	dma := csr.New(m, soc.Pl230Base)
	src := soc.Pl230BufBase
	dst := soc.Pl230BufBase + 0x100
	const n = 8
	for i := uint32(0); i < n; i++ {
		m.Write32(src+i*4, 0xa000_0000|i)
	}
	ctl := soc.Pl230CtlCycle.Shift(soc.Pl230CycleAuto) |
		soc.Pl230CtlNMinus1.Shift(n-1) |
		soc.Pl230CtlSrcSize.Shift(soc.Pl230SizeWord) |
		soc.Pl230CtlSrcInc.Shift(soc.Pl230IncWord) |
		soc.Pl230CtlDstSize.Shift(soc.Pl230SizeWord) |
		soc.Pl230CtlDstInc.Shift(soc.Pl230IncWord)
	m.Write32(soc.Pl230CtrlBase, src+(n-1)*4)
	m.Write32(soc.Pl230CtrlBase+4, dst+(n-1)*4)
	m.Write32(soc.Pl230CtrlBase+8, ctl)

	dma.WriteField(soc.Pl230CfgMasterEnable, 1)
	dma.Write(soc.Pl230CtrlBasePtr, soc.Pl230CtrlBase)
	dma.Write(soc.Pl230ChnlEnableSet, 1)
	dma.Write(soc.Pl230ChnlSwRequest, 1)

	for i := uint32(0); i < n; i++ {
		got, _ := m.Peek(dst + i*4)
		if got != 0xa000_0000|i {
			t.Errorf("dst[%d] = %#x", i, got)
		}
	}
	desc, _ := m.Peek(soc.Pl230CtrlBase + 8)
	if desc&0x7 != soc.Pl230CycleStop {
		t.Errorf("descriptor cycle = %d after completion", desc&0x7)
	}
	if dma.Read(soc.Pl230ChnlEnableSet) != 0 {
		t.Error("channel still enabled")
	}
}

func TestTraceRecordsOrder(t *testing.T) {
	m := New(Options{Trace: true})
	cgu := csr.New(m, soc.CguBase)
	cgu.WriteField(soc.CguSel1Ref, 1)
	cgu.WriteField(soc.CguSetCommit, soc.CommitToken)
	trace := m.Trace()
	if len(trace) != 2 {
		t.Fatalf("recorded %d accesses, want 2", len(trace))
	}
	if trace[0].Addr != cgu.Addr(soc.CguSel1) || trace[1].Addr != cgu.Addr(soc.CguSet) {
		t.Errorf("trace = %+v", trace)
	}
	if len(m.Trace()) != 0 {
		t.Error("trace not reset")
	}
}
