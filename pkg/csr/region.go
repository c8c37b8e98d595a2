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
	"unsafe"
)

// Word is the set of element types a test region can be viewed as.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Region is a scoped view over a physical memory range, Len elements of T
// starting at Base. It owns nothing; the memory outlives the view.
type Region[T Word] struct {
	bus    Bus
	base   uint32
	length int
}

func NewRegion[T Word](bus Bus, base uint32, length int) Region[T] {
	return Region[T]{bus: bus, base: base, length: length}
}

// RegionBytes returns a view of T elements covering size bytes.
func RegionBytes[T Word](bus Bus, base, size uint32) Region[T] {
	var zero T
	return NewRegion[T](bus, base, int(size/uint32(unsafe.Sizeof(zero))))
}

func (r Region[T]) Len() int {
	return r.length
}

func (r Region[T]) Base() uint32 {
	return r.base
}

func (r Region[T]) Bus() Bus {
	return r.bus
}

// Width is the element size in bytes.
func (r Region[T]) Width() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

func (r Region[T]) Addr(i int) uint32 {
	return r.base + uint32(i)*r.Width()
}

func (r Region[T]) Load(i int) T {
	addr := r.Addr(i)
	switch r.Width() {
	case 1:
		return T(r.bus.Read8(addr))
	case 2:
		return T(r.bus.Read16(addr))
	case 4:
		return T(r.bus.Read32(addr))
	default:
		return T(r.bus.Read64(addr))
	}
}

func (r Region[T]) Store(i int, v T) {
	addr := r.Addr(i)
	switch r.Width() {
	case 1:
		r.bus.Write8(addr, uint8(v))
	case 2:
		r.bus.Write16(addr, uint16(v))
	case 4:
		r.bus.Write32(addr, uint32(v))
	default:
		r.bus.Write64(addr, uint64(v))
	}
}

// Fill stores v into every element.
func (r Region[T]) Fill(v T) {
	for i := 0; i < r.length; i++ {
		r.Store(i, v)
	}
}

// Sub returns the elements [from, to) as a new view.
func (r Region[T]) Sub(from, to int) Region[T] {
	if from < 0 || to > r.length || from > to {
		panic("csr: region bounds out of range")
	}
	return Region[T]{bus: r.bus, base: r.Addr(from), length: to - from}
}
