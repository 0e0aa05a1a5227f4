// Package config loads the prwatch settings file. Settings are read
// from the user config directory with an optional local override; the
// core only ever reads these values and never writes the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hal/prwatch/internal/constants"
	"gopkg.in/yaml.v3"
)

// localConfigName is the per-directory override file.
const localConfigName = ".prwatch.yaml"

// Level is a warning/danger pair for size coloring.
type Level struct {
	Warning int `yaml:"warning"`
	Danger  int `yaml:"danger"`
}

// Thresholds controls when diff stats are highlighted in output.
type Thresholds struct {
	Files     Level `yaml:"files"`
	Additions Level `yaml:"additions"`
	Deletions Level `yaml:"deletions"`
}

// Refresh is the refresh cadence as stored in settings: a value plus a
// unit string, e.g. {value: 30, unit: seconds}.
type Refresh struct {
	Value int    `yaml:"value"`
	Unit  string `yaml:"unit"`
}

// Duration converts the cadence to a time.Duration.
func (r Refresh) Duration() (time.Duration, error) {
	if r.Value <= 0 {
		return 0, fmt.Errorf("refresh value must be positive, got %d", r.Value)
	}
	switch r.Unit {
	case "s", "sec", "secs", "second", "seconds":
		return time.Duration(r.Value) * time.Second, nil
	case "m", "min", "mins", "minute", "minutes":
		return time.Duration(r.Value) * time.Minute, nil
	case "h", "hr", "hrs", "hour", "hours":
		return time.Duration(r.Value) * time.Hour, nil
	}
	return 0, fmt.Errorf("unknown refresh unit: %q", r.Unit)
}

// Notify selects which PR transitions fire a notification. Closed
// notifications default to on; the pointer distinguishes "unset" from
// an explicit false.
type Notify struct {
	OnClosed   *bool `yaml:"on_closed,omitempty"`
	OnNew      bool  `yaml:"on_new,omitempty"`
	OnReopened bool  `yaml:"on_reopened,omitempty"`
}

// NotifyOnClosed resolves the closed-notification setting.
func (n Notify) NotifyOnClosed() bool {
	if n.OnClosed == nil {
		return true
	}
	return *n.OnClosed
}

// Config represents the application configuration.
type Config struct {
	Users              []string   `yaml:"users"`
	Refresh            Refresh    `yaml:"refresh"`
	Workers            int        `yaml:"workers,omitempty"`
	RecentlyClosedDays int        `yaml:"recently_closed_days,omitempty"`
	Thresholds         Thresholds `yaml:"thresholds"`
	Notify             Notify     `yaml:"notify"`
}

// Default returns the configuration used when no settings file exists.
func Default() *Config {
	return &Config{
		Refresh:            Refresh{Value: 30, Unit: "seconds"},
		Workers:            constants.DefaultWorkers,
		RecentlyClosedDays: constants.DefaultRecentlyClosedDays,
		Thresholds: Thresholds{
			Files:     Level{Warning: 10, Danger: 50},
			Additions: Level{Warning: 500, Danger: 1000},
			Deletions: Level{Warning: 2000, Danger: 5000},
		},
	}
}

// WorkerCount returns the fetch concurrency bound, falling back to the
// default for unset or invalid values.
func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return constants.DefaultWorkers
	}
	return c.Workers
}

// Interval returns the refresh cadence, falling back to the default
// when unset or invalid.
func (c *Config) Interval() time.Duration {
	d, err := c.Refresh.Duration()
	if err != nil {
		return constants.DefaultRefreshInterval
	}
	return d
}

// globalPath returns the user-level config file location.
func globalPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "prwatch", "config.yaml"), nil
}

// Load reads the user-level config and then applies the local override
// in the working directory, if present. Settings absent from both files
// keep their defaults.
func Load() (*Config, error) {
	cfg := Default()

	if path, err := globalPath(); err == nil {
		if err := loadInto(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := loadInto(localConfigName, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFile reads a single config file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// loadInto unmarshals path onto cfg, leaving unset keys alone. A
// missing file is not an error.
func loadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}
