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

package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-daric/pkg/config"
	pkgreport "jinr.ru/greenlab/go-daric/pkg/report"
	"jinr.ru/greenlab/go-daric/pkg/store"
)

const (
	YamlOptionName = "yaml"
	timeLayout     = "2006-01-02 15:04:05"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect recorded boot runs",
	}
	cmd.AddCommand(NewRunsCommand(cfg))
	cmd.AddCommand(NewShowCommand(cfg))
	return cmd
}

func NewRunsCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			runs, err := st.Runs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, run := range runs {
				fmt.Fprintf(out, "%4d  %-5s  %s  %d words\n",
					run.ID, run.Target, run.Started.Local().Format(timeLayout), run.Words)
			}
			return nil
		},
	}
	return cmd
}

func NewShowCommand(cfg *config.Config) *cobra.Command {
	var asYaml bool
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print the report stream of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			run, err := st.Run(id)
			if err != nil {
				return err
			}
			if asYaml {
				data, err := yaml.Marshal(run)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			printStream(cmd.OutOrStdout(), run.Stream)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asYaml, YamlOptionName, false, "Print the run as yaml")
	return cmd
}

// printStream prints one word per line with its family, and the decoded
// statuses at the end.
func printStream(out io.Writer, words []uint32) {
	for _, w := range words {
		fmt.Fprintf(out, "0x%08x  %s\n", w, pkgreport.Classify(w))
	}
	for _, st := range pkgreport.Decode(words) {
		switch st.Kind {
		case pkgreport.Pass:
			fmt.Fprintf(out, "test 0x%02x: %s value=0x%08x\n", st.TestID, st.Kind, st.Value)
		case pkgreport.Fail:
			fmt.Fprintf(out, "test 0x%02x: %s expected=0x%08x actual=0x%08x\n", st.TestID, st.Kind, st.Expected, st.Actual)
		case pkgreport.Timeout:
			fmt.Fprintf(out, "test 0x%02x: %s source=%d\n", st.TestID, st.Kind, st.Source)
		default:
			fmt.Fprintf(out, "test 0x%02x: %s reason=0x%04x\n", st.TestID, st.Kind, st.Reason)
		}
	}
}
