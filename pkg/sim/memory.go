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

type page [soc.PageSize]byte

// memory is sparse physical storage. Unwritten bytes read as zero.
type memory struct {
	pages map[uint32]*page
}

func newMemory() *memory {
	return &memory{pages: map[uint32]*page{}}
}

func (m *memory) page(addr uint32, create bool) *page {
	base := addr &^ (soc.PageSize - 1)
	p, ok := m.pages[base]
	if !ok && create {
		p = &page{}
		m.pages[base] = p
	}
	return p
}

func (m *memory) loadByte(addr uint32) byte {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}
	return p[addr&(soc.PageSize-1)]
}

func (m *memory) storeByte(addr uint32, v byte) {
	m.page(addr, true)[addr&(soc.PageSize-1)] = v
}

// load reads size bytes little endian.
func (m *memory) load(addr, size uint32) uint64 {
	var v uint64
	for i := size; i > 0; i-- {
		v = v<<8 | uint64(m.loadByte(addr+i-1))
	}
	return v
}

func (m *memory) store(addr, size uint32, v uint64) {
	for i := uint32(0); i < size; i++ {
		m.storeByte(addr+i, byte(v>>(8*i)))
	}
}

func (m *memory) read(addr uint32, dst []byte) {
	for i := range dst {
		dst[i] = m.loadByte(addr + uint32(i))
	}
}

func (m *memory) write(addr uint32, src []byte) {
	for i, b := range src {
		m.storeByte(addr+uint32(i), b)
	}
}

type line [soc.CacheLineBytes]byte

// dcache is a write-through, read-allocate data cache. Bus masters other than
// the hart bypass it, so the hart keeps seeing stale lines until a flush.
type dcache struct {
	lines    map[uint32]*line
	order    []uint32
	capacity int
}

func newCache(bytes uint32) *dcache {
	return &dcache{
		lines:    map[uint32]*line{},
		capacity: int(bytes / soc.CacheLineBytes),
	}
}

func lineBase(addr uint32) uint32 {
	return addr &^ (soc.CacheLineBytes - 1)
}

func (c *dcache) fill(mem *memory, addr uint32) *line {
	base := lineBase(addr)
	if l, ok := c.lines[base]; ok {
		return l
	}
	if len(c.order) >= c.capacity {
		delete(c.lines, c.order[0])
		c.order = c.order[1:]
	}
	l := &line{}
	mem.read(base, l[:])
	c.lines[base] = l
	c.order = append(c.order, base)
	return l
}

func (c *dcache) load(mem *memory, addr, size uint32) uint64 {
	var v uint64
	for i := size; i > 0; i-- {
		a := addr + i - 1
		l := c.fill(mem, a)
		v = v<<8 | uint64(l[a&(soc.CacheLineBytes-1)])
	}
	return v
}

// update refreshes bytes of lines that are already resident.
func (c *dcache) update(addr, size uint32, v uint64) {
	for i := uint32(0); i < size; i++ {
		a := addr + i
		if l, ok := c.lines[lineBase(a)]; ok {
			l[a&(soc.CacheLineBytes-1)] = byte(v >> (8 * i))
		}
	}
}

func (c *dcache) invalidate() {
	c.lines = map[uint32]*line{}
	c.order = nil
}

func (c *dcache) resident() int {
	return len(c.lines)
}
