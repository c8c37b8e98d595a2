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

// Package csr implements ordered, masked access to memory mapped control and
// status registers.
package csr

import (
	"github.com/usbarmory/tamago/bits"
)

// Bus is the physical memory seam. Every access is a single volatile load or
// store of the given width. Fence orders all preceding accesses before all
// following ones, for both the compiler and the hart.
type Bus interface {
	Read8(addr uint32) uint8
	Write8(addr uint32, v uint8)
	Read16(addr uint32) uint16
	Write16(addr uint32, v uint16)
	Read32(addr uint32) uint32
	Write32(addr uint32, v uint32)
	Read64(addr uint32) uint64
	Write64(addr uint32, v uint64)
	Fence()
}

// Register describes one 32-bit word of a peripheral block. Offset is a word
// index from the block base, Mask covers the implemented bits.
type Register struct {
	Offset uint32
	Mask   uint32
}

// Field is a bit range inside a Register. Mask is unshifted.
type Field struct {
	Mask     uint32
	Offset   uint32
	Register Register
}

func NewRegister(offset, mask uint32) Register {
	return Register{Offset: offset, Mask: mask}
}

func NewField(mask, offset uint32, register Register) Field {
	return Field{Mask: mask, Offset: offset, Register: register}
}

// CSR is the accessor for one peripheral block. There is exactly one owner of
// a CSR at a time, it is passed down explicitly rather than shared.
type CSR struct {
	bus  Bus
	base uint32
}

func New(bus Bus, base uint32) *CSR {
	return &CSR{bus: bus, base: base}
}

func (c *CSR) Base() uint32 {
	return c.base
}

func (c *CSR) Bus() Bus {
	return c.bus
}

// Addr returns the physical address of reg.
func (c *CSR) Addr(reg Register) uint32 {
	return c.base + reg.Offset*4
}

// Read fences and then loads reg.
func (c *CSR) Read(reg Register) uint32 {
	c.bus.Fence()
	return c.bus.Read32(c.Addr(reg))
}

// ReadField reads the register owning field and extracts the field value.
func (c *CSR) ReadField(field Field) uint32 {
	raw := c.Read(field.Register)
	return bits.Get(&raw, int(field.Offset), int(field.Mask))
}

// Write stores value to reg and then fences.
func (c *CSR) Write(reg Register, value uint32) {
	c.bus.Write32(c.Addr(reg), value)
	c.bus.Fence()
}

// WriteField stores the shifted field value with every other bit of the
// register cleared. Only use it when the rest of the register is don't-care.
func (c *CSR) WriteField(field Field, value uint32) {
	var raw uint32
	bits.SetN(&raw, int(field.Offset), int(field.Mask), value&field.Mask)
	c.Write(field.Register, raw)
}

// ModifyField replaces field inside the current register contents.
func (c *CSR) ModifyField(field Field, value uint32) {
	raw := c.Read(field.Register)
	bits.SetN(&raw, int(field.Offset), int(field.Mask), value&field.Mask)
	c.Write(field.Register, raw)
}

// Shift returns value positioned for field, for composing multi-field writes.
func (f Field) Shift(value uint32) uint32 {
	return (value & f.Mask) << f.Offset
}

// WaitField polls field until it reads want, at most limit times. It reports
// whether the value was seen.
func (c *CSR) WaitField(field Field, want uint32, limit int) bool {
	for i := 0; i < limit; i++ {
		if c.ReadField(field) == want {
			return true
		}
	}
	return false
}
