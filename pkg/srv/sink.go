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
	"net"
	"sync"

	"jinr.ru/greenlab/go-daric/pkg/layers"
	"jinr.ru/greenlab/go-daric/pkg/log"
)

// UDPSink ships every word to a remote bench as a one-word report frame.
// Frames are sequence numbered so the monitor can spot drops.
type UDPSink struct {
	mu   sync.Mutex
	conn net.Conn
	seq  uint16
}

func NewUDPSink(addr string) (*UDPSink, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	return &UDPSink{conn: conn}, nil
}

func (s *UDPSink) Report(word uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame, err := layers.NewReportFrame(s.seq, []uint32{word})
	if err != nil {
		log.Error("Error while building report frame: %s", err)
		return
	}
	s.seq++
	if _, err := s.conn.Write(frame); err != nil {
		log.Error("Error while sending report frame: %s", err)
	}
}

func (s *UDPSink) Close() error {
	return s.conn.Close()
}
