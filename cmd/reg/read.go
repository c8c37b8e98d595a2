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

package reg

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-daric/pkg/command"
	"jinr.ru/greenlab/go-daric/pkg/config"
)

func NewReadCommand(cfg *config.Config) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read a word, bypassing the data cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			value, err := apiClient.RegRead(addr)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Register state: %s = %s\n", addr, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, AddrOptionName, "", "Word address (hexadecimal)")
	cmd.MarkFlagRequired(AddrOptionName)

	return cmd
}
