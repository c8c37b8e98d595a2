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

package monitor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-daric/pkg/config"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/srv"
)

const (
	ListenOptionName = "listen"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print report words received from the udp report channel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen == "" {
				listen = cfg.Report.Address
			}
			out := cmd.OutOrStdout()
			sink := report.SinkFunc(func(word uint32) {
				fmt.Fprintf(out, "0x%08x  %s\n", word, report.Classify(word))
			})
			m, err := srv.NewMonitor(listen, sink)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Listening on %s\n", m.Addr())
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := m.Run(ctx); err != nil {
				return err
			}
			frames, dropped := m.Stats()
			fmt.Fprintf(out, "%d frames, %d lost\n", frames, dropped)
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, ListenOptionName, "", fmt.Sprintf("Address to listen on. E.g. %s", config.DefaultReportAddress))
	return cmd
}
