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

package layers

import (
	"reflect"
	"testing"
)

func TestReportFrame(t *testing.T) {
	words := []uint32{0xc0c0_0000, 800_000_000, 0x600d_0001}
	data, err := NewReportFrame(7, words)
	if err != nil {
		t.Fatalf("NewReportFrame() err=%v", err)
	}
	if len(data) != ReportHeaderSize+4*len(words)+ReportCrcSize {
		t.Fatalf("frame is %d bytes", len(data))
	}
	rl, err := DecodeReportFrame(data)
	if err != nil {
		t.Fatalf("DecodeReportFrame() err=%v", err)
	}
	if rl.Seq != 7 || !reflect.DeepEqual(rl.Words, words) {
		t.Errorf("decoded seq %d words %#x", rl.Seq, rl.Words)
	}
}

func TestReportFrameRejectsDamage(t *testing.T) {
	data, err := NewReportFrame(1, []uint32{0x0bad_0004})
	if err != nil {
		t.Fatalf("NewReportFrame() err=%v", err)
	}
	tests := []struct {
		name  string
		frame []byte
	}{
		{"short", data[:5]},
		{"truncated", data[:len(data)-2]},
		{"sync", append([]byte{0x00, 0x00}, data[2:]...)},
		{"crc", func() []byte {
			d := append([]byte(nil), data...)
			d[ReportHeaderSize] ^= 1
			return d
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeReportFrame(tt.frame); err == nil {
				t.Error("damaged frame decoded")
			}
		})
	}
}

func TestReportFrameTooLong(t *testing.T) {
	if _, err := NewReportFrame(0, make([]uint32, ReportMaxWords+1)); err == nil {
		t.Error("oversized frame serialized")
	}
}
