//go:build tinygo && riscv

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

package cpu

import (
	"device/riscv"
)

// Hart is the Core of the running hart.
var Hart Core = hart{}

type hart struct{}

func (hart) FlushDataCache() {
	riscv.Asm(".word 0x500F\nnop\nnop\nnop\nnop")
}

func (hart) WaitForInterrupt() {
	riscv.Asm("wfi")
}

func (hart) Nop() {
	riscv.Asm("nop")
}

func (hart) ReadScratch() uint32 {
	return uint32(riscv.AsmFull("csrr {}, sscratch", nil))
}

func (hart) WriteScratch(v uint32) {
	riscv.AsmFull("csrw sscratch, {value}", map[string]interface{}{"value": v})
}
