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

package srv

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-daric/pkg/layers"
	"jinr.ru/greenlab/go-daric/pkg/log"
	"jinr.ru/greenlab/go-daric/pkg/report"
)

const maxDatagram = 65536

// Monitor receives report frames sent by a UDP report sink and replays
// their words into a local sink.
type Monitor struct {
	conn net.PacketConn
	sink report.Sink

	mu      sync.Mutex
	started bool
	lastSeq uint16
	dropped int
	frames  int
}

func NewMonitor(addr string, sink report.Sink) (*Monitor, error) {
	conn, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Monitor{conn: conn, sink: sink}, nil
}

func (m *Monitor) Addr() net.Addr {
	return m.conn.LocalAddr()
}

// ReadPacketData reads one datagram. The sender address goes to the
// ancillary data of the capture info.
// This method is from PacketDataSource interface.
func (m *Monitor) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	buf := make([]byte, maxDatagram)
	n, addr, err := m.conn.ReadFrom(buf)
	if err != nil {
		return nil, gopacket.CaptureInfo{}, err
	}
	return buf[:n], gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: n,
		Length:        n,
		AncillaryData: []interface{}{addr},
	}, nil
}

// GetAddrPort returns the address of the bench that sent the packet
func GetAddrPort(packet gopacket.Packet) (net.Addr, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 1 {
		addr, ok := meta.CaptureInfo.AncillaryData[0].(net.Addr)
		if !ok {
			return nil, ErrGetAddr{}
		}
		return addr, nil
	}
	return nil, ErrGetAddr{}
}

// Run decodes frames until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		m.conn.Close()
	}()
	source := gopacket.NewPacketSource(m, layers.ReportLayerType)
	for {
		packet, err := source.NextPacket()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if errLayer := packet.ErrorLayer(); errLayer != nil {
			addr, _ := GetAddrPort(packet)
			log.Warning("Dropping bad report frame from %v: %s", addr, errLayer.Error())
			continue
		}
		rl, ok := packet.Layer(layers.ReportLayerType).(*layers.ReportLayer)
		if !ok {
			continue
		}
		m.account(rl.Seq)
		for _, word := range rl.Words {
			m.sink.Report(word)
		}
	}
}

func (m *Monitor) account(seq uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started && seq != m.lastSeq+1 {
		lost := int(seq - m.lastSeq - 1)
		m.dropped += lost
		log.Warning("Lost %d report frames before seq %d", lost, seq)
	}
	m.started = true
	m.lastSeq = seq
	m.frames++
}

// Stats returns the number of frames received and the number of frames
// missing from the sequence.
func (m *Monitor) Stats() (frames, dropped int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames, m.dropped
}
