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

package pll

import (
	"bytes"
	"strings"
	"testing"
)

func TestPllCommand(t *testing.T) {
	tests := []struct {
		freq string
		want string
	}{
		{"800000000", "bucket=5 pllmn=0x17032 pllf=0x0000000 pllq=0x3301 output=800000000 Hz"},
		{"500000", "low power path: fdlp=0x003f"},
		{"0", "clock stopped"},
	}
	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			out := &bytes.Buffer{}
			cmd := NewCommand()
			cmd.SetOut(out)
			cmd.SetArgs([]string{tt.freq})
			if err := cmd.Execute(); err != nil {
				t.Fatalf("Execute() err=%v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q, want %q", out.String(), tt.want)
			}
		})
	}
}
