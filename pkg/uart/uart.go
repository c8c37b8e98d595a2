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

// Package uart drives the minimal transmit-only diagnostic UART.
package uart

import (
	"jinr.ru/greenlab/go-daric/pkg/csr"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const DefaultBaud = 115_200

type UART struct {
	csr *csr.CSR
}

func New(bus csr.Bus, base uint32) *UART {
	return &UART{csr: csr.New(bus, base)}
}

// Init programs the divider for baud at the given peripheral clock and
// enables the transmitter.
func (u *UART) Init(clkHz, baud uint32) {
	if baud == 0 {
		baud = DefaultBaud
	}
	u.csr.WriteField(soc.UartCtrlEn, 0)
	u.csr.Write(soc.UartClkDiv, clkHz/baud-1)
	u.csr.WriteField(soc.UartCtrlEn, 1)
}

// Putc waits for the transmitter to drain and sends one byte.
func (u *UART) Putc(c byte) {
	for u.csr.ReadField(soc.UartStatusBusy) != 0 {
	}
	u.csr.Write(soc.UartTxd, uint32(c))
}

func (u *UART) Puts(s string) {
	for i := 0; i < len(s); i++ {
		u.Putc(s[i])
	}
}

const hexDigits = "0123456789abcdef"

// PutHex prints v as eight lower case hex digits without a prefix.
func (u *UART) PutHex(v uint32) {
	for shift := 28; shift >= 0; shift -= 4 {
		u.Putc(hexDigits[(v>>uint(shift))&0xf])
	}
}
