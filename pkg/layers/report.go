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
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-daric/pkg/log"
)

const (
	// ReportLayerNum identifies the layer
	ReportLayerNum = 2999
	// ReportSync is the magic number in the beginning of each report frame
	ReportSync = 0xDA51
	// ReportHeaderSize is sync, seq and word count, 2 bytes each
	ReportHeaderSize = 6
	ReportCrcSize    = 4
	// ReportMaxWords keeps a frame inside one UDP datagram on a standard MTU
	ReportMaxWords = 256
)

// ReportLayer carries a run of report words, little endian like the bus.
// The tail is the crc32 of the header and the words.
type ReportLayer struct {
	layers.BaseLayer
	Sync  uint16
	Seq   uint16
	Words []uint32
	Crc   uint32
}

var ReportLayerType = gopacket.RegisterLayerType(ReportLayerNum,
	gopacket.LayerTypeMetadata{Name: "ReportLayerType", Decoder: gopacket.DecodeFunc(decodeReportLayer)})

func (rl *ReportLayer) LayerType() gopacket.LayerType {
	return ReportLayerType
}

// SerializeTo writes the frame and computes its crc.
func (rl *ReportLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if len(rl.Words) > ReportMaxWords {
		return errors.New(fmt.Sprintf("Too many words in report frame: %d", len(rl.Words)))
	}
	size := ReportHeaderSize + 4*len(rl.Words)
	bytes, err := b.PrependBytes(size + ReportCrcSize)
	if err != nil {
		return err
	}
	rl.Sync = ReportSync
	binary.LittleEndian.PutUint16(bytes[0:2], rl.Sync)
	binary.LittleEndian.PutUint16(bytes[2:4], rl.Seq)
	binary.LittleEndian.PutUint16(bytes[4:6], uint16(len(rl.Words)))
	for i, w := range rl.Words {
		binary.LittleEndian.PutUint32(bytes[ReportHeaderSize+4*i:], w)
	}
	rl.Crc = crc32.ChecksumIEEE(bytes[:size])
	binary.LittleEndian.PutUint32(bytes[size:], rl.Crc)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a report frame
func (rl *ReportLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < ReportHeaderSize+ReportCrcSize {
		df.SetTruncated()
		return errors.New("Report frame too short")
	}
	if sync := binary.LittleEndian.Uint16(data[0:2]); sync != ReportSync {
		return errors.New(fmt.Sprintf("Wrong report sync %#04x. Must be %#04x", sync, ReportSync))
	}
	count := int(binary.LittleEndian.Uint16(data[4:6]))
	size := ReportHeaderSize + 4*count
	if count > ReportMaxWords || len(data) < size+ReportCrcSize {
		df.SetTruncated()
		return errors.New(fmt.Sprintf("Report frame truncated: %d words announced, %d bytes", count, len(data)))
	}
	rl.Sync = ReportSync
	rl.Seq = binary.LittleEndian.Uint16(data[2:4])
	rl.Crc = binary.LittleEndian.Uint32(data[size:])
	if crc := crc32.ChecksumIEEE(data[:size]); crc != rl.Crc {
		return errors.New(fmt.Sprintf("Wrong report crc %#08x. Must be %#08x", rl.Crc, crc))
	}
	rl.Words = make([]uint32, count)
	for i := range rl.Words {
		rl.Words[i] = binary.LittleEndian.Uint32(data[ReportHeaderSize+4*i:])
	}
	rl.BaseLayer = layers.BaseLayer{
		Contents: data[:size+ReportCrcSize],
		Payload:  data[size+ReportCrcSize:],
	}
	return nil
}

func (rl *ReportLayer) CanDecode() gopacket.LayerClass {
	return ReportLayerType
}

func (rl *ReportLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

func decodeReportLayer(data []byte, p gopacket.PacketBuilder) error {
	rl := &ReportLayer{}
	err := rl.DecodeFromBytes(data, p)
	if err != nil {
		log.Error("Error while decoding report layer: %s", err)
		return err
	}
	p.AddLayer(rl)
	return nil
}

// NewReportFrame serializes words into one frame.
func NewReportFrame(seq uint16, words []uint32) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	rl := &ReportLayer{Seq: seq, Words: words}
	if err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, rl); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeReportFrame parses one frame.
func DecodeReportFrame(data []byte) (*ReportLayer, error) {
	packet := gopacket.NewPacket(data, ReportLayerType, gopacket.NoCopy)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, errLayer.Error()
	}
	rl, ok := packet.Layer(ReportLayerType).(*ReportLayer)
	if !ok {
		return nil, errors.New("Report layer not found")
	}
	return rl, nil
}
