//go:build tinygo && riscv

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

package csr

import (
	"device/riscv"
	"runtime/volatile"
	"unsafe"
)

// MMIO is the Bus of the running hart: plain volatile accesses to physical
// (or, after translation is on, identity mapped) addresses.
var MMIO Bus = mmio{}

type mmio struct{}

func ptr8(addr uint32) *uint8 { return (*uint8)(unsafe.Pointer(uintptr(addr))) }

func ptr16(addr uint32) *uint16 { return (*uint16)(unsafe.Pointer(uintptr(addr))) }

func ptr32(addr uint32) *uint32 { return (*uint32)(unsafe.Pointer(uintptr(addr))) }

func ptr64(addr uint32) *uint64 { return (*uint64)(unsafe.Pointer(uintptr(addr))) }

func (mmio) Read8(addr uint32) uint8       { return volatile.LoadUint8(ptr8(addr)) }
func (mmio) Write8(addr uint32, v uint8)   { volatile.StoreUint8(ptr8(addr), v) }
func (mmio) Read16(addr uint32) uint16     { return volatile.LoadUint16(ptr16(addr)) }
func (mmio) Write16(addr uint32, v uint16) { volatile.StoreUint16(ptr16(addr), v) }
func (mmio) Read32(addr uint32) uint32     { return volatile.LoadUint32(ptr32(addr)) }
func (mmio) Write32(addr uint32, v uint32) { volatile.StoreUint32(ptr32(addr), v) }
func (mmio) Read64(addr uint32) uint64     { return volatile.LoadUint64(ptr64(addr)) }
func (mmio) Write64(addr uint32, v uint64) { volatile.StoreUint64(ptr64(addr), v) }

func (mmio) Fence() {
	riscv.Asm("fence iorw, iorw")
}
