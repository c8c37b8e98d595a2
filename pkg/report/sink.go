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

package report

import (
	"sync"

	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

// Sink accepts one 32-bit status word at a time.
type Sink interface {
	Report(word uint32)
}

type SinkFunc func(word uint32)

func (f SinkFunc) Report(word uint32) {
	f(word)
}

// Multi fans every word out to all sinks in order.
type Multi []Sink

func (m Multi) Report(word uint32) {
	for _, s := range m {
		s.Report(word)
	}
}

// Discard drops everything.
var Discard Sink = SinkFunc(func(uint32) {})

// RegisterSink writes words to the report register test benches snoop.
type RegisterSink struct {
	csr *csr.CSR
}

func NewRegisterSink(bus csr.Bus) *RegisterSink {
	return &RegisterSink{csr: csr.New(bus, soc.SimCtrlBase)}
}

func (s *RegisterSink) Report(word uint32) {
	s.csr.Write(soc.SimReport, word)
}

// Console is the output side of the diagnostic UART.
type Console interface {
	Putc(c byte)
	PutHex(v uint32)
}

// UARTSink prints every word as 0x-prefixed hex on its own line.
type UARTSink struct {
	console Console
}

func NewUARTSink(console Console) *UARTSink {
	return &UARTSink{console: console}
}

func (s *UARTSink) Report(word uint32) {
	s.console.Putc('0')
	s.console.Putc('x')
	s.console.PutHex(word)
	s.console.Putc('\r')
	s.console.Putc('\n')
}

// Recorder keeps every word in memory. It is safe for concurrent readers.
type Recorder struct {
	mu    sync.Mutex
	words []uint32
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Report(word uint32) {
	r.mu.Lock()
	r.words = append(r.words, word)
	r.mu.Unlock()
}

// Words returns a copy of the recorded stream.
func (r *Recorder) Words() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uint32, len(r.words))
	copy(out, r.words)
	return out
}

func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.words)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.words = nil
	r.mu.Unlock()
}
