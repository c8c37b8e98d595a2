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
	"reflect"
	"testing"
)

func TestStatusWords(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   []uint32
	}{
		{"pass", Passed(0x04, 0x1234), []uint32{0x1234, 0x600d_0004}},
		{"fail", Failed(0x05, 100, 99), []uint32{99, 100, 0x0bad_0005}},
		{"length", Misconfigured(0x03, ReasonLength), []uint32{0x0bad_0f03}},
		{"unavailable", Misconfigured(0x10, ReasonUnavailable), []uint32{0x0bad_0e10}},
		{"timeout", TimedOut(0x0e, SourceRRAM), []uint32{0x0bad_750e}},
		{"clock timeout", TimedOut(0, SourcePLL), []uint32{0x0bad_7100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Words(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words() = %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if s := Check(1, 7, 7); !s.Ok() || s.Value != 7 {
		t.Errorf("Check(1, 7, 7) = %+v", s)
	}
	if s := Check(1, 7, 8); s.Ok() || s.Expected != 7 || s.Actual != 8 {
		t.Errorf("Check(1, 7, 8) = %+v", s)
	}
}

func TestEmitEndsWithTag(t *testing.T) {
	rec := NewRecorder()
	Emit(rec, Failed(0x07, 0xaaaa, 0xbbbb))
	words := rec.Words()
	last := words[len(words)-1]
	if Classify(last) != FamilyFail {
		t.Errorf("last word %#x classified %s", last, Classify(last))
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		word uint32
		want Family
	}{
		{0x600d_0001, FamilyPass},
		{0x0bad_0001, FamilyFail},
		{0x0bad_0f03, FamilyConfig},
		{0x0bad_7100, FamilyTimeout},
		{0x0bad_720d, FamilyTimeout},
		{0xc0c0_0002, FamilyClock},
		{0xcace_0001, FamilyCache},
		{0xdead_0000, FamilyFatal},
		{0x9999_9999, FamilyData},
	}
	for _, tt := range tests {
		if got := Classify(tt.word); got != tt.want {
			t.Errorf("Classify(%#x) = %s, want %s", tt.word, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	rec := NewRecorder()
	rec.Report(0xc0c0_0000)
	Emit(rec, Passed(0x01, 0x55))
	Emit(rec, Failed(0x04, 10, 11))
	Emit(rec, Misconfigured(0x03, ReasonLength))
	Emit(rec, TimedOut(0x0c, SourcePL230))

	got := Decode(rec.Words())
	want := []Status{
		{Kind: Pass, TestID: 0x01, Value: 0x55},
		{Kind: Fail, TestID: 0x04, Expected: 10, Actual: 11},
		{Kind: ConfigError, TestID: 0x03, Reason: ReasonLength},
		{Kind: Timeout, TestID: 0x0c, Reason: ReasonTimeout, Source: SourcePL230},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Decode() = %+v, want %+v", got, want)
	}
}

type fakeConsole struct {
	out []byte
}

func (c *fakeConsole) Putc(b byte) {
	c.out = append(c.out, b)
}

func (c *fakeConsole) PutHex(v uint32) {
	for shift := 28; shift >= 0; shift -= 4 {
		c.Putc("0123456789abcdef"[(v>>uint(shift))&0xf])
	}
}

// countingConsole only counts, so it never allocates itself.
type countingConsole struct {
	n int
}

func (c *countingConsole) Putc(byte) {
	c.n++
}

func (c *countingConsole) PutHex(uint32) {
	c.n += 8
}

func TestUARTSink(t *testing.T) {
	console := &fakeConsole{}
	sink := Multi{NewUARTSink(console), Discard}
	sink.Report(0x600d_000a)
	sink.Report(0x1)
	if want := "0x600d000a\r\n0x00000001\r\n"; string(console.out) != want {
		t.Errorf("console got %q, want %q", console.out, want)
	}
}

func TestTimeoutKeepsTestID(t *testing.T) {
	for _, source := range []uint32{SourcePLL, SourceDMA, SourceHash, SourceAES, SourceRRAM, SourcePL230} {
		code := TimedOut(0x0d, source).Code()
		if code&IDMask != 0x0d {
			t.Errorf("source %d: code %#x lost the test id", source, code)
		}
		if Classify(code) != FamilyTimeout {
			t.Errorf("source %d: code %#x classified %s", source, code, Classify(code))
		}
		if got := Decode([]uint32{code}); len(got) != 1 || got[0].Source != source {
			t.Errorf("Decode(%#x) = %+v", code, got)
		}
	}
}

func TestEmitDoesNotAllocate(t *testing.T) {
	tests := []struct {
		name   string
		status Status
	}{
		{"pass", Passed(0x01, 2)},
		{"fail", Failed(0x02, 3, 4)},
		{"timeout", TimedOut(0x03, SourceDMA)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if n := testing.AllocsPerRun(100, func() { Emit(Discard, tt.status) }); n != 0 {
				t.Errorf("Emit allocated %v times", n)
			}
		})
	}
}

func TestUARTSinkDoesNotAllocate(t *testing.T) {
	console := &countingConsole{}
	sink := NewUARTSink(console)
	if n := testing.AllocsPerRun(100, func() { sink.Report(0x600d_0001) }); n != 0 {
		t.Errorf("Report allocated %v times", n)
	}
	if console.n != 101*12 {
		t.Errorf("console saw %d bytes", console.n)
	}
}
