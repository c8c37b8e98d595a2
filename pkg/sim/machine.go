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

// Package sim models the parts of the Daric SoC the boot ROM touches, so the
// ROM logic can run and be tested on a host.
package sim

import (
	"io"
	"sync"

	"jinr.ru/greenlab/go-daric/pkg/log"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const (
	DefaultLockCycles = 512
	flushCycles       = 5
)

// NVM persists programmed RRAM pages.
type NVM interface {
	LoadPages(fn func(addr uint32, data []byte)) error
	StorePage(addr uint32, data []byte) error
}

type Options struct {
	Target soc.Target
	// Console receives the diagnostic UART output.
	Console io.Writer
	// Report observes every word written to the report register, the same
	// way a test bench snoops it.
	Report     report.Sink
	NVM        NVM
	LockCycles uint64
	Trace      bool
}

// Access is one bus transaction recorded when tracing is enabled.
type Access struct {
	Write bool   `json:"write"`
	Addr  uint32 `json:"addr"`
	Size  uint32 `json:"size"`
	Value uint64 `json:"value"`
	Cycle uint64 `json:"cycle"`
}

// device is a register block. Offsets are byte offsets of 32-bit words.
type device interface {
	read(off uint32) uint32
	write(off uint32, v uint32)
}

// Machine is the simulated SoC. It implements csr.Bus and cpu.Core and the
// platform hooks of the boot sequence. Every method may be called from any
// goroutine.
type Machine struct {
	mu   sync.Mutex
	opts Options

	mem     *memory
	cache   *dcache
	devices map[uint32]device

	cycles  uint64
	trace   []Access
	scratch uint32

	translation bool
	traps       bool
	done        chan struct{}

	cgu   *cgu
	ipc   *ipc
	sce   *sce
	ctrl  *control
	timer *timer
	uart  *uartDev
	rrc   *rrc
	dma   *pl230
	trim  *trim
}

func New(opts Options) *Machine {
	if opts.Target == "" {
		opts.Target = soc.TargetSim
	}
	if opts.LockCycles == 0 {
		opts.LockCycles = DefaultLockCycles
	}
	if opts.Console == nil {
		opts.Console = io.Discard
	}
	m := &Machine{
		opts:    opts,
		mem:     newMemory(),
		cache:   newCache(soc.L2CacheBytes),
		devices: map[uint32]device{},
		done:    make(chan struct{}),
	}
	m.cgu = &cgu{}
	m.ipc = &ipc{m: m}
	m.sce = newSce(m)
	m.timer = &timer{m: m}
	m.uart = &uartDev{out: opts.Console}
	m.rrc = &rrc{m: m, staged: map[uint32]byte{}}
	m.dma = &pl230{m: m}
	m.trim = &trim{}

	m.devices[soc.CguBase] = m.cgu
	m.devices[soc.IpcBase] = m.ipc
	m.devices[soc.SceBase] = m.sce.global()
	m.devices[soc.SceDmaBase] = m.sce.xch()
	m.devices[soc.HashBase] = m.sce.hash()
	m.devices[soc.AesBase] = m.sce.aes()
	m.devices[soc.TimerBase] = m.timer
	m.devices[soc.UartBase] = m.uart
	m.devices[soc.RrcBase] = m.rrc
	m.devices[soc.Pl230Base] = m.dma
	m.devices[soc.SramTrimBase] = m.trim
	if opts.Target.HasSimRegisters() {
		m.ctrl = &control{m: m}
		m.devices[soc.SimCtrlBase] = m.ctrl
	}

	if opts.NVM != nil {
		err := opts.NVM.LoadPages(func(addr uint32, data []byte) {
			m.mem.write(addr, data)
		})
		if err != nil {
			log.Warning("Failed to load RRAM contents: %s", err)
		}
	}
	return m
}

func (m *Machine) Target() soc.Target {
	return m.opts.Target
}

func (m *Machine) deviceAt(addr uint32) (device, uint32, bool) {
	d, ok := m.devices[addr&^(soc.BlockSize-1)]
	return d, addr & (soc.BlockSize - 1) &^ 3, ok
}

func (m *Machine) record(write bool, addr, size uint32, v uint64) {
	if m.opts.Trace {
		m.trace = append(m.trace, Access{Write: write, Addr: addr, Size: size, Value: v, Cycle: m.cycles})
	}
}

// cpuRead is a hart load, it goes through the data cache when the address is
// cacheable.
func (m *Machine) cpuRead(addr, size uint32) uint64 {
	m.cycles++
	var v uint64
	if d, off, ok := m.deviceAt(addr); ok {
		v = readDevice(d, off, addr, size)
	} else if soc.Cacheable(addr) {
		v = m.cache.load(m.mem, addr, size)
	} else {
		v = m.mem.load(addr, size)
	}
	m.record(false, addr, size, v)
	return v
}

func (m *Machine) cpuWrite(addr, size uint32, v uint64) {
	m.cycles++
	m.record(true, addr, size, v)
	if d, off, ok := m.deviceAt(addr); ok {
		writeDevice(d, off, addr, size, v)
		return
	}
	if inRram(addr) {
		m.rrc.stage(addr, size, v)
		return
	}
	m.mem.store(addr, size, v)
	if soc.Cacheable(addr) {
		m.cache.update(addr, size, v)
	}
}

func readDevice(d device, off, addr, size uint32) uint64 {
	if size == 8 {
		return uint64(d.read(off)) | uint64(d.read(off+4))<<32
	}
	shift := (addr & 3) * 8
	return uint64(d.read(off)>>shift) & (1<<(size*8) - 1)
}

func writeDevice(d device, off, addr, size uint32, v uint64) {
	switch size {
	case 8:
		d.write(off, uint32(v))
		d.write(off+4, uint32(v>>32))
	case 4:
		d.write(off, uint32(v))
	default:
		shift := (addr & 3) * 8
		mask := uint32(1<<(size*8)-1) << shift
		d.write(off, d.read(off)&^mask|uint32(v)<<shift&mask)
	}
}

func inRram(addr uint32) bool {
	return addr >= soc.RramBase && addr-soc.RramBase < soc.RramSize
}

func (m *Machine) Read8(addr uint32) uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint8(m.cpuRead(addr, 1))
}

func (m *Machine) Write8(addr uint32, v uint8) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuWrite(addr, 1, uint64(v))
}

func (m *Machine) Read16(addr uint32) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint16(m.cpuRead(addr, 2))
}

func (m *Machine) Write16(addr uint32, v uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuWrite(addr, 2, uint64(v))
}

func (m *Machine) Read32(addr uint32) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint32(m.cpuRead(addr, 4))
}

func (m *Machine) Write32(addr uint32, v uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuWrite(addr, 4, uint64(v))
}

func (m *Machine) Read64(addr uint32) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cpuRead(addr, 8)
}

func (m *Machine) Write64(addr uint32, v uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cpuWrite(addr, 8, v)
}

// Fence is a no-op, the model executes accesses in program order.
func (m *Machine) Fence() {
	m.mu.Lock()
	m.cycles++
	m.mu.Unlock()
}

func (m *Machine) FlushDataCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.invalidate()
	m.cycles += flushCycles
}

// WaitForInterrupt sleeps until the wake timer fires. Without an armed timer
// it returns at once instead of hanging the host.
func (m *Machine) WaitForInterrupt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timer.wait()
}

func (m *Machine) Nop() {
	m.mu.Lock()
	m.cycles++
	m.mu.Unlock()
}

func (m *Machine) ReadScratch() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scratch
}

func (m *Machine) WriteScratch(v uint32) {
	m.mu.Lock()
	m.scratch = v
	m.mu.Unlock()
}

// SetupTranslation stands in for the page table bring-up, the model runs
// with physical addresses only.
func (m *Machine) SetupTranslation() {
	m.mu.Lock()
	m.translation = true
	m.mu.Unlock()
	log.Debug("Address translation enabled")
}

func (m *Machine) SetupTraps() {
	m.mu.Lock()
	m.traps = true
	m.mu.Unlock()
	log.Debug("Trap vector installed")
}

// Peek reads a word without touching the data cache.
func (m *Machine) Peek(addr uint32) (uint32, error) {
	if addr&3 != 0 {
		return 0, ErrBadAddress{Addr: addr}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, off, ok := m.deviceAt(addr); ok {
		return d.read(off), nil
	}
	return uint32(m.mem.load(addr, 4)), nil
}

// Poke writes a word the way an external bus master would.
func (m *Machine) Poke(addr, v uint32) error {
	if addr&3 != 0 {
		return ErrBadAddress{Addr: addr}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, off, ok := m.deviceAt(addr); ok {
		d.write(off, v)
		return nil
	}
	m.mem.store(addr, 4, uint64(v))
	return nil
}

func (m *Machine) Cycles() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cycles
}

// Trace returns the recorded accesses and starts a new recording.
func (m *Machine) Trace() []Access {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.trace
	m.trace = nil
	return t
}

// Done is closed when the ROM writes the done register.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

func (m *Machine) TranslationEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.translation
}

func (m *Machine) TrapsInstalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.traps
}

// CachedLines is the number of resident data cache lines.
func (m *Machine) CachedLines() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.resident()
}

// Clock is the committed clock state.
type Clock struct {
	Source   uint32 `json:"source"`
	Ref      uint32 `json:"ref"`
	LpDiv    uint32 `json:"lp-div"`
	Pllmn    uint32 `json:"pllmn"`
	Pllf     uint32 `json:"pllf"`
	Pllq     uint32 `json:"pllq"`
	PllOn    bool   `json:"pll-on"`
	Locked   bool   `json:"locked"`
	OutputHz uint64 `json:"output-hz"`
}

func (m *Machine) Clock() Clock {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Clock{
		Source: m.cgu.live[cguSel0],
		Ref:    m.cgu.live[cguSel1],
		LpDiv:  m.cgu.live[cguFdLp],
		Pllmn:  m.ipc.live[ipcPllmn],
		Pllf:   m.ipc.live[ipcPllf],
		Pllq:   m.ipc.live[ipcPllq],
		PllOn:  m.ipc.powered(),
		Locked: m.ipc.locked(),
	}
	switch c.Source {
	case soc.ClkSrcRC:
		c.OutputHz = uint64(soc.RCOscHz)
	case soc.ClkSrcXtal:
		c.OutputHz = uint64(soc.XtalHz)
	case soc.ClkSrcLP:
		c.OutputHz = uint64(soc.RCOscHz) / uint64(c.LpDiv+1)
	case soc.ClkSrcPLL:
		if c.Locked {
			c.OutputHz = pllOutputHz(c.Pllmn, c.Pllf, c.Pllq)
		}
	}
	return c
}

// Trim is the committed SRAM margin setting.
func (m *Machine) Trim() [3]uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trim.live
}
