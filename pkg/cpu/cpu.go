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

// Package cpu holds the hart primitives that are not memory accesses.
package cpu

// Core is implemented by the running hart and by the simulator.
type Core interface {
	// FlushDataCache writes back and invalidates the data cache. On silicon
	// this is the custom 0x500F encoding followed by nops to let it retire.
	FlushDataCache()
	WaitForInterrupt()
	Nop()
	ReadScratch() uint32
	WriteScratch(v uint32)
}

// Delay busy waits for the given number of nops. It is the only notion of
// time the boot sequence has.
func Delay(core Core, cycles int) {
	for i := 0; i < cycles; i++ {
		core.Nop()
	}
}
