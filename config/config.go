// Package config provides loading and validation of coordinator.yaml
// configuration files. The configuration covers the coordinator's recognized
// options: the global wall-clock budget, the per-agent stall window, the
// retry limit, and the simulated search result count.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for every recognized option.
const (
	DefaultGlobalTimeoutMs    = 60000
	DefaultStallTimeoutMs     = 15000
	DefaultMaxRetriesPerAgent = 1
	DefaultSearchResultCount  = 5
)

// Config holds the coordinator's runtime options. Zero values mean "use the
// default"; Normalize fills them in.
type Config struct {
	// GlobalTimeoutMs is the wall-clock budget for a whole session.
	GlobalTimeoutMs int `yaml:"globalTimeoutMs"`

	// StallTimeoutMs is the per-agent liveness window: a running agent
	// reporting no progress for this long is treated as failed.
	StallTimeoutMs int `yaml:"stallTimeoutMs"`

	// MaxRetriesPerAgent is the number of automatic retries after an
	// agent failure.
	MaxRetriesPerAgent int `yaml:"maxRetriesPerAgent"`

	// SearchResultCount is how many simulated sources the search agent
	// produces.
	SearchResultCount int `yaml:"searchResultCount"`
}

// Default returns a configuration with every option at its default.
func Default() Config {
	return Config{
		GlobalTimeoutMs:    DefaultGlobalTimeoutMs,
		StallTimeoutMs:     DefaultStallTimeoutMs,
		MaxRetriesPerAgent: DefaultMaxRetriesPerAgent,
		SearchResultCount:  DefaultSearchResultCount,
	}
}

// Normalize replaces zero values with defaults. Explicitly negative values
// are left in place for Validate to reject.
func (c *Config) Normalize() {
	if c.GlobalTimeoutMs == 0 {
		c.GlobalTimeoutMs = DefaultGlobalTimeoutMs
	}
	if c.StallTimeoutMs == 0 {
		c.StallTimeoutMs = DefaultStallTimeoutMs
	}
	if c.MaxRetriesPerAgent == 0 {
		c.MaxRetriesPerAgent = DefaultMaxRetriesPerAgent
	}
	if c.SearchResultCount == 0 {
		c.SearchResultCount = DefaultSearchResultCount
	}
}

// Validate checks that every option is usable.
func (c *Config) Validate() error {
	if c.GlobalTimeoutMs <= 0 {
		return fmt.Errorf("config: globalTimeoutMs must be positive, got %d", c.GlobalTimeoutMs)
	}
	if c.StallTimeoutMs < 0 {
		return fmt.Errorf("config: stallTimeoutMs must not be negative, got %d", c.StallTimeoutMs)
	}
	if c.MaxRetriesPerAgent < 0 {
		return fmt.Errorf("config: maxRetriesPerAgent must not be negative, got %d", c.MaxRetriesPerAgent)
	}
	if c.SearchResultCount <= 0 {
		return fmt.Errorf("config: searchResultCount must be positive, got %d", c.SearchResultCount)
	}
	return nil
}

// GlobalTimeout returns the global budget as a duration.
func (c Config) GlobalTimeout() time.Duration {
	return time.Duration(c.GlobalTimeoutMs) * time.Millisecond
}

// StallTimeout returns the stall window as a duration.
func (c Config) StallTimeout() time.Duration {
	return time.Duration(c.StallTimeoutMs) * time.Millisecond
}

// Load reads a configuration from path. If path is a directory, it looks
// for coordinator.yaml then coordinator.yml inside it. Missing options take
// their defaults; the result is validated before being returned.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	configPath := path
	if info.IsDir() {
		yamlPath := filepath.Join(path, "coordinator.yaml")
		if _, err := os.Stat(yamlPath); err == nil {
			configPath = yamlPath
		} else {
			ymlPath := filepath.Join(path, "coordinator.yml")
			if _, err := os.Stat(ymlPath); err != nil {
				return nil, fmt.Errorf("no coordinator.yaml or coordinator.yml found in %s", path)
			}
			configPath = ymlPath
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
