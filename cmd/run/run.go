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

package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-daric/pkg/command"
	"jinr.ru/greenlab/go-daric/pkg/config"
	"jinr.ru/greenlab/go-daric/pkg/soc"
)

const (
	TargetOptionName  = "target"
	SyncOptionName    = "sync"
	FreqOptionName    = "freq"
	ChannelOptionName = "channel"
	AddressOptionName = "udp-address"
	FeatureOptionName = "feature"
	ServeOptionName   = "serve"
	TraceOptionName   = "trace"
	EraseOptionName   = "erase-rram"
	FeatureNamesHelp  = "boot-delay, sram-margin, rram-testing, xip, apb-test, pio-test, bio-test, pl230-test, sce-test"
)

func enableFeature(f *soc.Features, name string) error {
	switch name {
	case "boot-delay":
		f.BootDelay = true
	case "sram-margin":
		f.SramMargin = true
	case "rram-testing":
		f.RramTesting = true
	case "xip":
		f.Xip = true
	case "apb-test":
		f.ApbTest = true
	case "pio-test":
		f.PioTest = true
	case "bio-test":
		f.BioTest = true
	case "pl230-test":
		f.Pl230Test = true
	case "sce-test":
		f.SceTest = true
	default:
		return fmt.Errorf("unknown feature %q, must be one of %s", name, FeatureNamesHelp)
	}
	return nil
}

func NewCommand(cfg *config.Config) *cobra.Command {
	var target, sync, channel, address string
	var features []string
	var freq uint32
	var serve, trace, erase bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the ROM sequence on the simulated SoC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SetDefaults()
			if target != "" {
				cfg.Target = soc.Target(target)
			}
			if sync != "" {
				cfg.Sync = soc.SyncMode(sync)
			}
			if cmd.Flags().Changed(FreqOptionName) {
				cfg.Clock.FreqHz = freq
			}
			if channel != "" {
				cfg.Report.Channel = channel
			}
			if address != "" {
				cfg.Report.Address = address
			}
			for _, name := range features {
				if err := enableFeature(&cfg.Features, strings.TrimSpace(name)); err != nil {
					return err
				}
			}
			if trace {
				cfg.Sim.Trace = true
			}
			if erase {
				cfg.Sim.EraseRram = true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			summary, err := command.StartSimulation(ctx, cfg, cmd.OutOrStdout(), serve)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nrun %d: %d words, %d passed, %d failed\n",
				summary.RunID, summary.Words, summary.Passed, summary.Failed)
			if summary.Fatal {
				return fmt.Errorf("boot stopped on a fatal error")
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d self-tests failed", summary.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, TargetOptionName, "", "Chip variant: sim, fpga or asic")
	cmd.Flags().StringVar(&sync, SyncOptionName, "", "Completion wait: delay or poll")
	cmd.Flags().Uint32Var(&freq, FreqOptionName, config.DefaultFreqHz, "Core clock in Hz")
	cmd.Flags().StringVar(&channel, ChannelOptionName, "", "Report channel: register, uart or udp")
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Bench address for the udp channel")
	cmd.Flags().StringSliceVar(&features, FeatureOptionName, nil, fmt.Sprintf("Optional tests to enable: %s", FeatureNamesHelp))
	cmd.Flags().BoolVar(&serve, ServeOptionName, false, "Keep the debug bridge API up after the boot")
	cmd.Flags().BoolVar(&trace, TraceOptionName, false, "Record every bus access for the trace API")
	cmd.Flags().BoolVar(&erase, EraseOptionName, false, "Start from a blank RRAM image")
	return cmd
}
