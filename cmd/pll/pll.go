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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-daric/pkg/clock"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pll FREQ",
		Short: "Print the clock generator settings for a core frequency in Hz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			freq, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case freq == 0:
				fmt.Fprintln(out, "clock stopped, oscillator kept")
			case freq < uint64(soc.MHz):
				div := clock.LowPowerDivider(uint32(freq))
				fmt.Fprintf(out, "low power path: fdlp=0x%04x output=%d Hz\n",
					div, uint64(soc.RCOscHz)/uint64(div+1))
			default:
				p := clock.ComputePLL(uint32(freq))
				fmt.Fprintf(out, "bucket=%d pllmn=0x%05x pllf=0x%07x pllq=0x%04x output=%d Hz\n",
					p.Bucket, p.Pllmn, p.Pllf, p.Pllq, p.OutputHz())
			}
			return nil
		},
	}
	return cmd
}
