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

// Package report implements the status word protocol every self-test uses to
// signal progress, success and failure to a test bench or console.
package report

// Tags occupy the upper half of a status word.
const (
	PassTag  uint32 = 0x600d_0000
	FailTag  uint32 = 0x0bad_0000
	ClockTag uint32 = 0xc0c0_0000
	CacheTag uint32 = 0xcace_0000
	SceTag   uint32 = 0x5ce0_0000
	FatalTag uint32 = 0xdead_0000

	TagMask    uint32 = 0xffff_0000
	ReasonMask uint32 = 0x0000_ff00
	IDMask     uint32 = 0x0000_00ff
)

// Reasons are or-ed into a FailTag word for failures that are not data
// mismatches.
const (
	ReasonLength      uint32 = 0x0F00
	ReasonUnavailable uint32 = 0x0E00
	// ReasonTimeout carries the timeout source in the low nibble of the
	// reason byte: 0x0bad_7sii for source s and test id ii.
	ReasonTimeout uint32 = 0x7000

	reasonClassMask  uint32 = 0xf000
	reasonSourceMask uint32 = 0x0f00
)

// Timeout sources. The clock bring-up is not a numbered test and reports
// its timeout with id 0.
const (
	SourcePLL   uint32 = 0x01
	SourceDMA   uint32 = 0x02
	SourceHash  uint32 = 0x03
	SourceAES   uint32 = 0x04
	SourceRRAM  uint32 = 0x05
	SourcePL230 uint32 = 0x06
)

type Kind int

const (
	Pass Kind = iota
	Fail
	ConfigError
	Timeout
)

func (k Kind) String() string {
	switch k {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	case ConfigError:
		return "config-error"
	case Timeout:
		return "timeout"
	}
	return "unknown"
}

// Status is the outcome of one self-test. Value is the payload of a pass,
// usually the checksum.
type Status struct {
	Kind     Kind
	TestID   uint32
	Value    uint32
	Expected uint32
	Actual   uint32
	Reason   uint32
	Source   uint32
}

func Passed(id, value uint32) Status {
	return Status{Kind: Pass, TestID: id, Value: value}
}

func Failed(id, expected, actual uint32) Status {
	return Status{Kind: Fail, TestID: id, Expected: expected, Actual: actual}
}

func Misconfigured(id, reason uint32) Status {
	return Status{Kind: ConfigError, TestID: id, Reason: reason}
}

// TimedOut is the status of test id after a wait on source ran out.
func TimedOut(id, source uint32) Status {
	return Status{Kind: Timeout, TestID: id, Reason: ReasonTimeout, Source: source}
}

// Check is Passed when expected equals actual and Failed otherwise.
func Check(id, expected, actual uint32) Status {
	if expected == actual {
		return Passed(id, actual)
	}
	return Failed(id, expected, actual)
}

func (s Status) Ok() bool {
	return s.Kind == Pass
}

// Code is the final tag word of the status.
func (s Status) Code() uint32 {
	switch s.Kind {
	case Pass:
		return PassTag | s.TestID&IDMask
	case Fail:
		return FailTag | s.TestID&IDMask
	case Timeout:
		return FailTag | ReasonTimeout | s.Source<<8&reasonSourceMask | s.TestID&IDMask
	default:
		return FailTag | s.Reason&ReasonMask | s.TestID&IDMask
	}
}

// Emit writes the legacy wire form of s to sink and returns s: data words
// first, tag word last. A failure carries the computed value and then the
// expected one.
func Emit(sink Sink, s Status) Status {
	switch s.Kind {
	case Pass:
		sink.Report(s.Value)
	case Fail:
		sink.Report(s.Actual)
		sink.Report(s.Expected)
	}
	sink.Report(s.Code())
	return s
}

// Words collects what Emit would write.
func (s Status) Words() []uint32 {
	var words []uint32
	Emit(SinkFunc(func(w uint32) { words = append(words, w) }), s)
	return words
}

// Family classifies a single word of the stream.
type Family string

const (
	FamilyPass    Family = "pass"
	FamilyFail    Family = "fail"
	FamilyConfig  Family = "config"
	FamilyTimeout Family = "timeout"
	FamilyClock   Family = "clock"
	FamilyCache   Family = "cache"
	FamilySce     Family = "sce"
	FamilyFatal   Family = "fatal"
	FamilyData    Family = "data"
)

func Classify(word uint32) Family {
	switch word & TagMask {
	case PassTag:
		return FamilyPass
	case FailTag:
		if word&reasonClassMask == ReasonTimeout {
			return FamilyTimeout
		}
		switch word & ReasonMask {
		case ReasonLength, ReasonUnavailable:
			return FamilyConfig
		}
		return FamilyFail
	case ClockTag:
		return FamilyClock
	case CacheTag:
		return FamilyCache
	case SceTag:
		return FamilySce
	case FatalTag:
		return FamilyFatal
	}
	return FamilyData
}

// Decode rebuilds the statuses contained in a word stream. Data words in
// front of a tag are attached the same way Words lays them out.
func Decode(words []uint32) []Status {
	var result []Status
	for i, w := range words {
		id := w & IDMask
		switch Classify(w) {
		case FamilyPass:
			s := Status{Kind: Pass, TestID: id}
			if i >= 1 {
				s.Value = words[i-1]
			}
			result = append(result, s)
		case FamilyFail:
			s := Status{Kind: Fail, TestID: id}
			if i >= 2 {
				s.Actual = words[i-2]
				s.Expected = words[i-1]
			}
			result = append(result, s)
		case FamilyConfig:
			result = append(result, Status{Kind: ConfigError, TestID: id, Reason: w & ReasonMask})
		case FamilyTimeout:
			result = append(result, TimedOut(id, w&reasonSourceMask>>8))
		}
	}
	return result
}
