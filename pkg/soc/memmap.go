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

// Package soc describes the Daric physical memory map, the subset of the
// register tables the boot ROM touches, and the build variants.
package soc

// Peripheral blocks
const (
	RrcBase      uint32 = 0x4000_0000
	Pl230Base    uint32 = 0x4001_1000
	SramTrimBase uint32 = 0x4001_4000
	SegBase      uint32 = 0x4002_0000
	SceBase      uint32 = 0x4002_8000
	SceDmaBase   uint32 = 0x4002_9000
	HashBase     uint32 = 0x4002_B000
	PkeBase      uint32 = 0x4002_C000
	AesBase      uint32 = 0x4002_D000
	TrngBase     uint32 = 0x4002_E000
	AluBase      uint32 = 0x4002_F000
	CguBase      uint32 = 0x4004_0000
	IpcBase      uint32 = 0x4004_1000
	UartBase     uint32 = 0x4004_2000
	TimerBase    uint32 = 0x4004_3000
	SimCtrlBase  uint32 = 0x4008_0000

	BlockSize uint32 = 0x1000
)

// Memories
const (
	RramBase   uint32 = 0x6000_0000
	RramSize   uint32 = 0x40_0000
	SramBase   uint32 = 0x6100_0000
	SramSize   uint32 = 0x20_0000
	Ifram0Base uint32 = 0x5000_0000
	Ifram0Size uint32 = 0x2_0000
	Ifram1Base uint32 = 0x5002_0000
	Ifram1Size uint32 = 0x2_0000

	PageSize uint32 = 0x1000

	// The top page of IFRAM0 is reserved for the UART DMA buffer.
	UartDmaBase uint32 = Ifram0Base + Ifram0Size - PageSize

	CacheLineBytes uint32 = 32
	L2CacheBytes   uint32 = 0x4_0000
)

// Clock sources
const (
	XtalHz  uint32 = 48_000_000
	RCOscHz uint32 = 32_000_000
	MHz     uint32 = 1_000_000
)

// Self-test scratch areas. They live in SRAM above the stack and data of the
// ROM image and are free for destructive tests.
const (
	RamTestBase   uint32 = SramBase + 0x10_0000
	LargeTestBase uint32 = SramBase + 0x18_0000
	SceBufBase    uint32 = Ifram1Base
	Pl230CtrlBase uint32 = Ifram1Base + 0x1000
	Pl230BufBase  uint32 = Ifram1Base + 0x2000
	RramTestBase  uint32 = RramBase + RramSize - 0x1_0000
	XipTestBase   uint32 = RramBase + RramSize - 0x8000
)

// Segment identifiers of the security co-processor memory, in hardware order.
type SegID uint32

const (
	SegLKEY SegID = iota
	SegKEY
	SegSKEY
	SegSCRT
	SegMSG
	SegHOUT
	SegSOB
	SegPCON
	SegPKB
	SegPIB
	SegPSIB
	SegPOB
	SegPSOB
	SegAKEY
	SegAIB
	SegAOB
	SegRNGA
	SegRNGB
	SegLimit
)

// Segment is the byte offset from SegBase and the byte size of a segment.
type Segment struct {
	Offset uint32
	Size   uint32
}

// SegMap is indexed by SegID.
var SegMap = [SegLimit]Segment{
	SegLKEY: {0x0000, 0x100},
	SegKEY:  {0x0100, 0x100},
	SegSKEY: {0x0200, 0x100},
	SegSCRT: {0x0300, 0x100},
	SegMSG:  {0x0400, 0x200},
	SegHOUT: {0x0600, 0x100},
	SegSOB:  {0x0700, 0x100},
	SegPCON: {0x0800, 0x200},
	SegPKB:  {0x0A00, 0x400},
	SegPIB:  {0x0E00, 0x400},
	SegPSIB: {0x1200, 0x400},
	SegPOB:  {0x1600, 0x400},
	SegPSOB: {0x1A00, 0x400},
	SegAKEY: {0x1E00, 0x100},
	SegAIB:  {0x1F00, 0x100},
	SegAOB:  {0x2000, 0x100},
	SegRNGA: {0x2100, 0x400},
	SegRNGB: {0x2500, 0x400},
}

// SegAddr is the physical address of word index word inside segment id.
func SegAddr(id SegID, word uint32) uint32 {
	return SegBase + SegMap[id].Offset + word*4
}

// Cacheable reports whether the data cache sits in front of addr.
func Cacheable(addr uint32) bool {
	return within(addr, SramBase, SramSize) ||
		within(addr, Ifram0Base, Ifram0Size) ||
		within(addr, Ifram1Base, Ifram1Size)
}

func within(addr, base, size uint32) bool {
	return addr >= base && addr-base < size
}
