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

package soc

import (
	"fmt"
)

// Target selects the chip variant the ROM is built for.
type Target string

const (
	TargetSim  Target = "sim"
	TargetFPGA Target = "fpga"
	TargetASIC Target = "asic"
)

func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetSim, TargetFPGA, TargetASIC:
		return Target(s), nil
	}
	return "", fmt.Errorf("unknown target %q, must be one of sim, fpga, asic", s)
}

// HasPLL is false for the FPGA variant, which runs from a fixed fabric clock.
func (t Target) HasPLL() bool {
	return t != TargetFPGA
}

// HasSimRegisters reports whether the simulation control block (report
// register, test registers) exists.
func (t Target) HasSimRegisters() bool {
	return t != TargetASIC
}

// SyncMode selects how the sequence waits for hardware completion.
type SyncMode string

const (
	// SyncDelay waits fixed nop counts and never polls, matching existing
	// test bench timing.
	SyncDelay SyncMode = "delay"
	// SyncPoll polls lock and done flags with an iteration limit.
	SyncPoll SyncMode = "poll"
)

func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case SyncDelay, SyncPoll:
		return SyncMode(s), nil
	}
	return "", fmt.Errorf("unknown sync mode %q, must be one of delay, poll", s)
}

// Features is one switch per optional part of the boot sequence.
type Features struct {
	BootDelay   bool `json:"boot-delay"`
	SramMargin  bool `json:"sram-margin"`
	RramTesting bool `json:"rram-testing"`
	Xip         bool `json:"xip"`
	ApbTest     bool `json:"apb-test"`
	PioTest     bool `json:"pio-test"`
	BioTest     bool `json:"bio-test"`
	Pl230Test   bool `json:"pl230-test"`
	SceTest     bool `json:"sce-test"`
}

// PollLimit bounds every SyncPoll wait, in polls of the flag register.
const PollLimit = 1 << 16
