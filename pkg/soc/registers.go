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

package soc

import (
	"jinr.ru/greenlab/go-daric/pkg/csr"
)

// Commit tokens. Staged configuration only takes effect once the token is
// written to the commit register of its group.
const (
	CommitToken uint32 = 0x32
	StartToken  uint32 = 0x5A
	ArmToken    uint32 = 0xA5
)

// Clock generation unit, committed through CguSet.
var (
	CguSel0   = csr.NewRegister(0, 0x3)
	CguSel1   = csr.NewRegister(1, 0x1)
	CguFdLp   = csr.NewRegister(2, 0xffff)
	CguFdFclk = csr.NewRegister(3, 0xffff)
	CguFdAclk = csr.NewRegister(4, 0xffff)
	CguSet    = csr.NewRegister(5, 0xff)

	CguSel0Src   = csr.NewField(0x3, 0, CguSel0)
	CguSel1Ref   = csr.NewField(0x1, 0, CguSel1)
	CguFdLpDiv   = csr.NewField(0xffff, 0, CguFdLp)
	CguFdFclkDiv = csr.NewField(0xffff, 0, CguFdFclk)
	CguFdAclkDiv = csr.NewField(0xffff, 0, CguFdAclk)
	CguSetCommit = csr.NewField(0xff, 0, CguSet)
)

const (
	ClkSrcRC   uint32 = 0
	ClkSrcXtal uint32 = 1
	ClkSrcPLL  uint32 = 2
	ClkSrcLP   uint32 = 3
)

// Analog IP control (PLL), committed through IpcAripflow.
var (
	IpcEn       = csr.NewRegister(0, 0x3)
	IpcLpEn     = csr.NewRegister(1, 0x1)
	IpcPllmn    = csr.NewRegister(2, 0x1ffff)
	IpcPllf     = csr.NewRegister(3, 0x1ffffff)
	IpcPllq     = csr.NewRegister(4, 0xffff)
	IpcCp       = csr.NewRegister(5, 0x7)
	IpcAripflow = csr.NewRegister(6, 0xff)
	IpcLock     = csr.NewRegister(7, 0x1)

	IpcEnPllPD     = csr.NewField(0x1, 0, IpcEn)
	IpcEnOscEn     = csr.NewField(0x1, 1, IpcEn)
	IpcPllmnN      = csr.NewField(0xfff, 0, IpcPllmn)
	IpcPllmnM      = csr.NewField(0x1f, 12, IpcPllmn)
	IpcCpBias      = csr.NewField(0x7, 0, IpcCp)
	IpcAripflowCmt = csr.NewField(0xff, 0, IpcAripflow)
	IpcLockLocked  = csr.NewField(0x1, 0, IpcLock)
)

// Diagnostic UART.
var (
	UartTxd    = csr.NewRegister(0, 0xff)
	UartStatus = csr.NewRegister(1, 0x1)
	UartClkDiv = csr.NewRegister(2, 0xffff)
	UartCtrl   = csr.NewRegister(3, 0x1)

	UartStatusBusy = csr.NewField(0x1, 0, UartStatus)
	UartCtrlEn     = csr.NewField(0x1, 0, UartCtrl)
)

// Wake timer used by the wait-for-interrupt test.
var (
	TimerCmp    = csr.NewRegister(0, 0xffffffff)
	TimerStatus = csr.NewRegister(1, 0x1)

	TimerStatusPending = csr.NewField(0x1, 0, TimerStatus)
)

// Simulation control block. Only present in simulation and FPGA builds; test
// benches snoop SimReport.
var (
	SimReport  = csr.NewRegister(0, 0xffffffff)
	SimDone    = csr.NewRegister(1, 0xffffffff)
	SimAdd5    = csr.NewRegister(2, 0xffffffff)
	SimInc3    = csr.NewRegister(3, 0xffffffff)
	SimScratch = csr.NewRegister(16, 0xffffffff)

	SimScratchCount uint32 = 16
)

// SRAM timing margin, committed through SramTrimAr with StartToken.
var (
	SramTrim0  = csr.NewRegister(0, 0xff)
	SramTrim1  = csr.NewRegister(1, 0xff)
	IframTrim  = csr.NewRegister(2, 0xff)
	SramTrimAr = csr.NewRegister(3, 0xff)

	SramTrimRm = csr.NewField(0xf, 0, SramTrim0)
	SramTrimWm = csr.NewField(0x7, 4, SramTrim0)
)

// RRAM controller. Stores into the array are buffered while RrcCrWe is set and
// programmed when StartToken is written to RrcAr.
var (
	RrcCr = csr.NewRegister(0, 0x1)
	RrcAr = csr.NewRegister(1, 0xff)
	RrcSr = csr.NewRegister(2, 0x3)

	RrcCrWe   = csr.NewField(0x1, 0, RrcCr)
	RrcSrBusy = csr.NewField(0x1, 0, RrcSr)
	RrcSrDone = csr.NewField(0x1, 1, RrcSr)
)

// PL230 micro DMA controller.
var (
	Pl230Status         = csr.NewRegister(0, 0xffffffff)
	Pl230Cfg            = csr.NewRegister(1, 0xff)
	Pl230CtrlBasePtr    = csr.NewRegister(2, 0xffffffff)
	Pl230AltCtrlBasePtr = csr.NewRegister(3, 0xffffffff)
	Pl230ChnlSwRequest  = csr.NewRegister(5, 0xff)
	Pl230ChnlEnableSet  = csr.NewRegister(10, 0xff)
	Pl230ChnlEnableClr  = csr.NewRegister(11, 0xff)

	Pl230CfgMasterEnable = csr.NewField(0x1, 0, Pl230Cfg)
)

// PL230 channel control word layout.
const (
	Pl230CycleStop  uint32 = 0
	Pl230CycleBasic uint32 = 1
	Pl230CycleAuto  uint32 = 2

	Pl230SizeWord uint32 = 2
	Pl230IncWord  uint32 = 2
	Pl230IncNone  uint32 = 3
)

var (
	Pl230CtlCycle   = csr.NewField(0x7, 0, csr.Register{})
	Pl230CtlNMinus1 = csr.NewField(0x3ff, 4, csr.Register{})
	Pl230CtlRPower  = csr.NewField(0xf, 14, csr.Register{})
	Pl230CtlSrcSize = csr.NewField(0x3, 24, csr.Register{})
	Pl230CtlSrcInc  = csr.NewField(0x3, 26, csr.Register{})
	Pl230CtlDstSize = csr.NewField(0x3, 28, csr.Register{})
	Pl230CtlDstInc  = csr.NewField(0x3, 30, csr.Register{})
)

// Security co-processor global registers.
var (
	SceSuben = csr.NewRegister(0, 0xff)
	SceFfen  = csr.NewRegister(1, 0xff)
	SceFfcnt = csr.NewRegister(2, 0xffff)
	SceFr    = csr.NewRegister(3, 0xff)
)

// Sub-block clock enables and FIFO enables.
const (
	SubenAES  uint32 = 1 << 0
	SubenHash uint32 = 1 << 1
	SubenPKE  uint32 = 1 << 2
	SubenTRNG uint32 = 1 << 3
	SubenALU  uint32 = 1 << 4
	SubenDMA  uint32 = 1 << 5

	FfenHashMsg uint32 = 1 << 0
	FfenAesIn   uint32 = 1 << 1
	FfenAesOut  uint32 = 1 << 2
)

// Security co-processor DMA (exchange channel).
var (
	DmaSchstartAr  = csr.NewRegister(0, 0xff)
	DmaXchFunc     = csr.NewRegister(1, 0x1)
	DmaXchOpt      = csr.NewRegister(2, 0xff)
	DmaXchAxstart  = csr.NewRegister(3, 0xffffffff)
	DmaXchSegid    = csr.NewRegister(4, 0xff)
	DmaXchSegstart = csr.NewRegister(5, 0xfff)
	DmaXchTransize = csr.NewRegister(6, 0xfff)
	DmaXchAr       = csr.NewRegister(7, 0xff)
	DmaXchFr       = csr.NewRegister(8, 0x1)

	DmaXchOptSwap = csr.NewField(0x1, 0, DmaXchOpt)
	DmaXchFrDone  = csr.NewField(0x1, 0, DmaXchFr)
)

const (
	XchFuncMemToSeg uint32 = 0
	XchFuncSegToMem uint32 = 1
)

// Hash engine.
var (
	HashCrfunc = csr.NewRegister(0, 0xff)
	HashOpt1   = csr.NewRegister(1, 0xff)
	HashOpt2   = csr.NewRegister(2, 0xff)
	HashAr     = csr.NewRegister(3, 0xff)
	HashFr     = csr.NewRegister(4, 0x1)

	HashOpt2IVSeg     = csr.NewField(0x1, 0, HashOpt2)
	HashOpt2BigEndian = csr.NewField(0x1, 1, HashOpt2)
	HashFrDone        = csr.NewField(0x1, 0, HashFr)
)

const (
	HashFuncSHA256 uint32 = 0
)

// AES engine.
var (
	AesCrfunc = csr.NewRegister(0, 0xff)
	AesOpt    = csr.NewRegister(1, 0xff)
	AesOpt1   = csr.NewRegister(2, 0xfff)
	AesAr     = csr.NewRegister(3, 0xff)
	AesFr     = csr.NewRegister(4, 0x3)

	AesOptKeyLen = csr.NewField(0x3, 0, AesOpt)
	AesOptMode   = csr.NewField(0x7, 2, AesOpt)
	AesFrDone    = csr.NewField(0x1, 0, AesFr)
	AesFrKeyErr  = csr.NewField(0x1, 1, AesFr)
)

const (
	AesFuncKeySchedule uint32 = 0
	AesFuncEncrypt     uint32 = 1
	AesFuncDecrypt     uint32 = 2

	AesKey128 uint32 = 0
	AesKey192 uint32 = 1
	AesKey256 uint32 = 2

	AesModeECB uint32 = 0
)
