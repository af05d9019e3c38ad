// Package config loads portray's configuration: reconstruction limits and
// the input file locations for one trace run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration.
type Config struct {
	Trace   TraceConfig   `yaml:"trace"`
	Logging LoggingConfig `yaml:"logging"`
}

// TraceConfig bounds one reconstruction run.
type TraceConfig struct {
	// MaxDepth truncates the call tree below this level.
	MaxDepth int `yaml:"max_depth"`
	// MaxSteps caps how many tree nodes one run may create.
	MaxSteps int `yaml:"max_steps"`
	// FirstSolutionOnly stops processing after the first successful
	// exit of the query goal.
	FirstSolutionOnly bool `yaml:"first_solution_only"`
	// OperatorsFile points at the YAML operator declarations of the
	// traced program. Empty means standard operators only.
	OperatorsFile string `yaml:"operators_file"`
	// ClausesFile points at the YAML clause table. Empty means clauses
	// are registered from event data as they appear.
	ClausesFile string `yaml:"clauses_file"`
}

// LoggingConfig configures the CLI logger.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Trace: TraceConfig{
			MaxDepth:          64,
			MaxSteps:          10000,
			FirstSolutionOnly: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist. Environment variables override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORTRAY_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Trace.MaxDepth = n
		}
	}
	if v := os.Getenv("PORTRAY_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Trace.MaxSteps = n
		}
	}
	if v := os.Getenv("PORTRAY_ALL_SOLUTIONS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Trace.FirstSolutionOnly = !b
		}
	}
	if v := os.Getenv("PORTRAY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configurations the builder cannot honor.
func (c *Config) Validate() error {
	if c.Trace.MaxDepth < 1 {
		return fmt.Errorf("trace.max_depth must be positive, got %d", c.Trace.MaxDepth)
	}
	if c.Trace.MaxSteps < 1 {
		return fmt.Errorf("trace.max_steps must be positive, got %d", c.Trace.MaxSteps)
	}
	return nil
}
