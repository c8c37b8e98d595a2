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

package config

import (
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-daric/pkg/soc"
)

type ClockConfig struct {
	// FreqHz is the target core clock. Zero keeps the crystal oscillator,
	// anything below one megahertz selects the low power divider path.
	FreqHz uint32 `json:"freqHz"`
}

type ReportConfig struct {
	Channel string `json:"channel"`
	// Address is host:port of the bench listening for report frames
	Address string `json:"address,omitempty"`
}

type ApiConfig struct {
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
}

type SimConfig struct {
	LockCycles uint64 `json:"lockCycles,omitempty"`
	Trace      bool   `json:"trace,omitempty"`

	// EraseRram starts the run from a blank RRAM image instead of the one
	// kept in the database.
	EraseRram bool `json:"eraseRram,omitempty"`
}

type Config struct {
	Target          soc.Target    `json:"target"`
	Sync            soc.SyncMode  `json:"sync"`
	BootDelayCycles int           `json:"bootDelayCycles"`
	Features        soc.Features  `json:"features"`
	Clock           *ClockConfig  `json:"clock,omitempty"`
	Report          *ReportConfig `json:"report,omitempty"`
	Api             *ApiConfig    `json:"api,omitempty"`
	Sim             *SimConfig    `json:"sim,omitempty"`
	DBPath          string        `json:"dbPath,omitempty"`
	LogLevel        string        `json:"logLevel,omitempty"`
	filepath        string
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return os.WriteFile(c.filepath, data, 0644)
}

// LoadConfig reads the file over the current values, so fields missing from
// the file keep their defaults.
func (c *Config) LoadConfig() error {
	data, err := os.ReadFile(c.filepath)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	c.SetDefaults()
	return c.Validate()
}

// SetDefaults restores sections a file set to null.
func (c *Config) SetDefaults() {
	d := NewDefaultConfig()
	if c.Clock == nil {
		c.Clock = d.Clock
	}
	if c.Report == nil {
		c.Report = d.Report
	}
	if c.Api == nil {
		c.Api = d.Api
	}
	if c.Sim == nil {
		c.Sim = d.Sim
	}
}

func (c *Config) Validate() error {
	if _, err := soc.ParseTarget(string(c.Target)); err != nil {
		return ErrInvalidConfig{Field: "target", Reason: err.Error()}
	}
	if _, err := soc.ParseSyncMode(string(c.Sync)); err != nil {
		return ErrInvalidConfig{Field: "sync", Reason: err.Error()}
	}
	if c.BootDelayCycles < 0 {
		return ErrInvalidConfig{Field: "bootDelayCycles", Reason: "must not be negative"}
	}
	if c.Report != nil {
		switch c.Report.Channel {
		case ChannelRegister, ChannelUART:
		case ChannelUDP:
			if c.Report.Address == "" {
				return ErrInvalidConfig{Field: "report.address", Reason: "required for udp channel"}
			}
		default:
			return ErrInvalidConfig{Field: "report.channel", Reason: "must be one of register, uart, udp"}
		}
	}
	if c.Api != nil && (c.Api.Port < 0 || c.Api.Port > 0xffff) {
		return ErrInvalidConfig{Field: "api.port", Reason: "out of range"}
	}
	return nil
}

func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir)
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		Target:          DefaultTarget,
		Sync:            DefaultSync,
		BootDelayCycles: DefaultBootDelayCycles,
		Clock: &ClockConfig{
			FreqHz: DefaultFreqHz,
		},
		Report: &ReportConfig{
			Channel: DefaultReportChannel,
			Address: DefaultReportAddress,
		},
		Api: &ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		Sim: &SimConfig{
			LockCycles: DefaultLockCycles,
		},
		DBPath:   filepath.Join(DefaultConfigDir(), DBFile),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}

// Load returns the defaults overlaid with the file at path.
func Load(path string) (*Config, error) {
	c := NewDefaultConfig()
	c.filepath = path
	if err := c.LoadConfig(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadOrDefault reads the default config file. Without a usable file the
// defaults are returned.
func LoadOrDefault() *Config {
	c, err := Load(DefaultConfigPath())
	if err != nil {
		return NewDefaultConfig()
	}
	return c
}
