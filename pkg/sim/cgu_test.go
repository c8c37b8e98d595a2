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
	"testing"

	"jinr.ru/greenlab/go-daric/pkg/cpu"
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

func TestCguCommitToken(t *testing.T) {
	m := New(Options{})
	cgu := csr.New(m, soc.CguBase)

	cgu.WriteField(soc.CguSel0Src, soc.ClkSrcXtal)
	if got := m.Clock().Source; got != soc.ClkSrcRC {
		t.Fatalf("source changed before commit: %d", got)
	}
	if got := cgu.ReadField(soc.CguSel0Src); got != soc.ClkSrcXtal {
		t.Errorf("staged source = %d, want %d", got, soc.ClkSrcXtal)
	}

	cgu.WriteField(soc.CguSetCommit, soc.StartToken)
	if got := m.Clock().Source; got != soc.ClkSrcRC {
		t.Fatalf("wrong token committed the source: %d", got)
	}

	cgu.WriteField(soc.CguSetCommit, soc.CommitToken)
	clk := m.Clock()
	if clk.Source != soc.ClkSrcXtal {
		t.Fatalf("source = %d after commit, want %d", clk.Source, soc.ClkSrcXtal)
	}
	if clk.OutputHz != uint64(soc.XtalHz) {
		t.Errorf("OutputHz = %d, want %d", clk.OutputHz, soc.XtalHz)
	}
}

func TestCguLowPowerDivider(t *testing.T) {
	m := New(Options{})
	cgu := csr.New(m, soc.CguBase)
	cgu.WriteField(soc.CguFdLpDiv, 31)
	cgu.WriteField(soc.CguSel0Src, soc.ClkSrcLP)
	cgu.WriteField(soc.CguSetCommit, soc.CommitToken)
	if got := m.Clock().OutputHz; got != 1_000_000 {
		t.Errorf("OutputHz = %d, want 1000000", got)
	}
}

func TestIpcLock(t *testing.T) {
	m := New(Options{})
	ipc := csr.New(m, soc.IpcBase)
	cgu := csr.New(m, soc.CguBase)

	ipc.Write(soc.IpcPllmn, 23<<12|50)
	ipc.Write(soc.IpcPllf, 0)
	ipc.Write(soc.IpcPllq, 0x3301)
	ipc.WriteField(soc.IpcEnPllPD, 0)
	if m.Clock().PllOn {
		t.Fatal("PLL powered before commit")
	}
	ipc.WriteField(soc.IpcAripflowCmt, soc.CommitToken)
	if !m.Clock().PllOn {
		t.Fatal("PLL not powered after commit")
	}
	if ipc.ReadField(soc.IpcLockLocked) != 0 {
		t.Fatal("PLL locked immediately")
	}

	cpu.Delay(m, DefaultLockCycles)
	if ipc.ReadField(soc.IpcLockLocked) != 1 {
		t.Fatal("PLL not locked after the lock time")
	}

	cgu.WriteField(soc.CguSel0Src, soc.ClkSrcPLL)
	cgu.WriteField(soc.CguSetCommit, soc.CommitToken)
	if got := m.Clock().OutputHz; got != 800_000_000 {
		t.Errorf("OutputHz = %d, want 800000000", got)
	}

	ipc.Write(soc.IpcPllmn, 23<<12|10)
	if got := m.Clock().Pllmn; got != 23<<12|50 {
		t.Errorf("live pllmn changed without commit: %#x", got)
	}
}

func TestIpcPowerDownDropsLock(t *testing.T) {
	m := New(Options{LockCycles: 1})
	ipc := csr.New(m, soc.IpcBase)
	ipc.Write(soc.IpcPllmn, 23<<12|50)
	ipc.WriteField(soc.IpcAripflowCmt, soc.CommitToken)
	cpu.Delay(m, 4)
	if !m.Clock().Locked {
		t.Fatal("PLL not locked")
	}
	ipc.ModifyField(soc.IpcEnPllPD, 1)
	ipc.WriteField(soc.IpcAripflowCmt, soc.CommitToken)
	if m.Clock().Locked {
		t.Error("PLL still locked after power down")
	}
}

func TestPllOutputHz(t *testing.T) {
	tests := []struct {
		pllmn, pllf, pllq uint32
		want              uint64
	}{
		{23<<12 | 50, 0, 0x3301, 800_000_000},
		{23<<12 | 64, 0, 0x7777, 32_000_000},
		{23<<12 | 12, 1<<24 | 0x80_0000, 0x3311, 100_000_000},
	}
	for _, tt := range tests {
		if got := pllOutputHz(tt.pllmn, tt.pllf, tt.pllq); got != tt.want {
			t.Errorf("pllOutputHz(%#x, %#x, %#x) = %d, want %d", tt.pllmn, tt.pllf, tt.pllq, got, tt.want)
		}
	}
}
