// Package config loads the settings for a simulated run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Report modes.
const (
	ModeTable = "table"
	ModeList  = "list"
)

// Config describes a simulated run.
type Config struct {
	// Ranks is the number of simulated processes.
	Ranks int `toml:"ranks" yaml:"ranks"`

	// Seed offsets the per-rank random seeds.
	Seed int64 `toml:"seed" yaml:"seed"`

	Network Network `toml:"network" yaml:"network"`
	Report  Report  `toml:"report" yaml:"report"`
	Log     Log     `toml:"log" yaml:"log"`
}

// Network configures the simulated links.
type Network struct {
	// Rate is the per-destination bandwidth in bytes per
	// unit of virtual time.
	Rate float64 `toml:"rate" yaml:"rate"`

	// MaxLatency is the upper bound on the random latency
	// added to each message.
	MaxLatency float64 `toml:"max_latency" yaml:"max_latency"`
}

// Report configures how gathered values are printed.
type Report struct {
	Mode   string `toml:"mode" yaml:"mode"`
	Label  string `toml:"label" yaml:"label"`
	Marker string `toml:"marker" yaml:"marker"`

	// Filter restricts list output to a single rank.
	// A negative filter prints every rank.
	Filter int `toml:"filter" yaml:"filter"`
}

// Log configures the zap loggers.
type Log struct {
	Level       string `toml:"level" yaml:"level"`
	Development bool   `toml:"development" yaml:"development"`
}

// Default returns the configuration used when no file is
// given.
func Default() *Config {
	return &Config{
		Ranks: 4,
		Network: Network{
			Rate:       1e6,
			MaxLatency: 0.01,
		},
		Report: Report{
			Mode:   ModeTable,
			Label:  "Random values",
			Marker: "",
			Filter: -1,
		},
		Log: Log{
			Level: "warn",
		},
	}
}

// Load reads a TOML or YAML file on top of the defaults.
// The format is chosen by the file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return nil, fmt.Errorf("load config: unsupported file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// Validate checks that the configuration can be used to
// start a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Ranks < 1 {
		errs = append(errs, fmt.Errorf("ranks must be positive, got %d", c.Ranks))
	}
	if c.Network.Rate <= 0 {
		errs = append(errs, fmt.Errorf("network rate must be positive, got %g", c.Network.Rate))
	}
	if c.Network.MaxLatency < 0 {
		errs = append(errs, fmt.Errorf("network max_latency must not be negative, got %g",
			c.Network.MaxLatency))
	}
	if c.Report.Mode != ModeTable && c.Report.Mode != ModeList {
		errs = append(errs, fmt.Errorf("unknown report mode: %q", c.Report.Mode))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// NewLogger builds a logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	var zc zap.Config
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
