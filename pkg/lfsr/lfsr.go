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

// Package lfsr implements the feedback shift registers used for address
// scrambling and test vector generation.
package lfsr

const (
	// Period9 is the number of distinct non-zero states of Next9.
	Period9 = 511
	Mask9   = 0x1ff
)

// Next9 advances a 9-bit register with taps at bits 8 and 4. From any
// non-zero seed it visits all of 1..511 exactly once before repeating; the
// scrambled RAM test depends on this, so the taps must not change.
func Next9(state uint32) uint32 {
	bit := ((state >> 8) ^ (state >> 4)) & 1
	return ((state << 1) + bit) & Mask9
}

// Next32 advances a 32-bit register with taps at bits 31, 21, 1 and 0.
func Next32(state uint32) uint32 {
	bit := ((state >> 31) ^ (state >> 21) ^ (state >> 1) ^ state) & 1
	return (state << 1) | bit
}

// Fill32 writes successive Next32 states starting after seed into dst and
// returns the last state.
func Fill32(dst []uint32, seed uint32) uint32 {
	state := seed
	for i := range dst {
		state = Next32(state)
		dst[i] = state
	}
	return state
}
