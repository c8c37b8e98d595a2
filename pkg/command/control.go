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

package command

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"jinr.ru/greenlab/go-daric/pkg/boot"
	"jinr.ru/greenlab/go-daric/pkg/config"
	"jinr.ru/greenlab/go-daric/pkg/log"
	"jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/sim"
	"jinr.ru/greenlab/go-daric/pkg/soc"
	"jinr.ru/greenlab/go-daric/pkg/srv"
	"jinr.ru/greenlab/go-daric/pkg/store"
	"jinr.ru/greenlab/go-daric/pkg/uart"
)

// Summary is the outcome of one simulated boot.
type Summary struct {
	RunID  uint64
	Words  int
	Passed int
	Failed int
	Fatal  bool
}

func BootOptions(cfg *config.Config) boot.Options {
	opts := boot.Options{
		Target:          cfg.Target,
		Sync:            cfg.Sync,
		Features:        cfg.Features,
		BootDelayCycles: cfg.BootDelayCycles,
	}
	if cfg.Clock != nil {
		opts.FreqHz = cfg.Clock.FreqHz
	}
	return opts
}

func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.DBPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, err
	}
	return store.Open(cfg.DBPath)
}

// StartSimulation boots the simulated SoC described by cfg. The UART goes
// to console. With serve set the debug bridge is started and kept up,
// together with the idle SoC, until ctx is done.
func StartSimulation(ctx context.Context, cfg *config.Config, console io.Writer, serve bool) (*Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	if st != nil {
		defer st.Close()
	}

	recorder := report.NewRecorder()
	observers := report.Multi{recorder}
	var runLog *store.RunLog
	if st != nil {
		runLog, err = st.NewRun(string(cfg.Target))
		if err != nil {
			return nil, err
		}
		observers = append(observers, runLog)
	}

	simOpts := sim.Options{
		Target:  cfg.Target,
		Console: console,
	}
	if st != nil {
		if cfg.Sim != nil && cfg.Sim.EraseRram {
			if err := st.ErasePages(); err != nil {
				return nil, err
			}
			log.Info("Erased the stored RRAM image")
		}
		simOpts.NVM = st
	}
	if cfg.Sim != nil {
		simOpts.LockCycles = cfg.Sim.LockCycles
		simOpts.Trace = cfg.Sim.Trace
	}

	channel := config.ChannelRegister
	if cfg.Report != nil {
		channel = cfg.Report.Channel
	}
	var sink report.Sink
	var machine *sim.Machine
	switch channel {
	case config.ChannelUART, config.ChannelUDP:
		machine = sim.New(simOpts)
		var out report.Sink
		if channel == config.ChannelUDP {
			udp, err := srv.NewUDPSink(cfg.Report.Address)
			if err != nil {
				return nil, err
			}
			defer udp.Close()
			out = udp
		} else {
			out = report.NewUARTSink(uart.New(machine, soc.UartBase))
		}
		sink = append(report.Multi{out}, observers...)
	default:
		if cfg.Target.HasSimRegisters() {
			// The bench view: words are observed where they land.
			simOpts.Report = observers
			machine = sim.New(simOpts)
			sink = report.NewRegisterSink(machine)
		} else {
			log.Warning("Target %s has no report register, recording words at the sink", cfg.Target)
			machine = sim.New(simOpts)
			sink = append(report.Multi{report.NewRegisterSink(machine)}, observers...)
		}
	}

	if serve {
		api := srv.NewApiServer(ctx, cfg, machine, recorder, st)
		go func() {
			if err := api.Run(); err != nil {
				log.Error("API server stopped: %s", err)
			}
		}()
	}

	seq := boot.New(machine, sink, BootOptions(cfg))
	go seq.Run(ctx)
	select {
	case <-seq.Idle():
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	summary := summarize(recorder.Words())
	if runLog != nil {
		summary.RunID = runLog.ID()
		if err := runLog.Finish(); err != nil {
			return nil, err
		}
	}
	log.Info("Boot finished after %d cycles: %d words, %d passed, %d failed",
		machine.Cycles(), summary.Words, summary.Passed, summary.Failed)

	if serve {
		<-ctx.Done()
	}
	return summary, nil
}

func summarize(words []uint32) *Summary {
	summary := &Summary{Words: len(words)}
	for _, st := range report.Decode(words) {
		if st.Ok() {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	for _, w := range words {
		if report.Classify(w) == report.FamilyFatal {
			summary.Fatal = true
		}
	}
	return summary
}
