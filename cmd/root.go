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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-daric/cmd/completion"
	"jinr.ru/greenlab/go-daric/cmd/config"
	"jinr.ru/greenlab/go-daric/cmd/monitor"
	"jinr.ru/greenlab/go-daric/cmd/pll"
	"jinr.ru/greenlab/go-daric/cmd/reg"
	"jinr.ru/greenlab/go-daric/cmd/report"
	"jinr.ru/greenlab/go-daric/cmd/run"
	pkgconfig "jinr.ru/greenlab/go-daric/pkg/config"
	"jinr.ru/greenlab/go-daric/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.LoadOrDefault()
	cmd := &cobra.Command{
		Use:   "go-daric",
		Short: "Tool to run and inspect the Daric bring-up ROM",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
		SilenceUsage: true,
	}
	cmd.SetOut(out)
	cmd.AddCommand(config.NewCommand(cfg))
	cmd.AddCommand(run.NewCommand(cfg))
	cmd.AddCommand(reg.NewCommand(cfg))
	cmd.AddCommand(report.NewCommand(cfg))
	cmd.AddCommand(monitor.NewCommand(cfg))
	cmd.AddCommand(pll.NewCommand())
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
