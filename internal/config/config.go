// Package config holds the docplan configuration: engine defaults, batch
// fan-out and logging. Values load from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all docplan configuration.
type Config struct {
	// Engine defaults applied when a plan does not pick its own.
	Engine EngineConfig `yaml:"engine"`

	// Batch fan-out for multi-document runs.
	Batch BatchConfig `yaml:"batch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig configures plan execution defaults.
type EngineConfig struct {
	// ChangeMode is the default edit mode: direct or tracked.
	ChangeMode string `yaml:"change_mode"`

	// PatternLimit caps selector regex patterns in bytes.
	PatternLimit int `yaml:"pattern_limit"`

	// Author attributes tracked-mode marks when a plan names none.
	Author string `yaml:"author"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	// Concurrency bounds how many documents run at once.
	Concurrency int `yaml:"concurrency"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultPath returns the config file path, honoring DOCPLAN_CONFIG.
func DefaultPath() string {
	if path := os.Getenv("DOCPLAN_CONFIG"); path != "" {
		return path
	}
	return "docplan.yaml"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			ChangeMode:   "direct",
			PatternLimit: 1000,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
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

// Save saves configuration to a YAML file.
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
	if mode := os.Getenv("DOCPLAN_CHANGE_MODE"); mode != "" {
		c.Engine.ChangeMode = mode
	}
	if author := os.Getenv("DOCPLAN_AUTHOR"); author != "" {
		c.Engine.Author = author
	}
	if limit := os.Getenv("DOCPLAN_PATTERN_LIMIT"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			c.Engine.PatternLimit = n
		}
	}
	if level := os.Getenv("DOCPLAN_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ValidChangeModes lists the supported edit modes.
var ValidChangeModes = []string{"direct", "tracked"}

// ValidLogLevels lists the supported log levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(ValidChangeModes, c.Engine.ChangeMode) {
		return fmt.Errorf("invalid change mode: %s (valid: %v)", c.Engine.ChangeMode, ValidChangeModes)
	}
	if c.Engine.PatternLimit <= 0 {
		return fmt.Errorf("pattern limit must be positive, got %d", c.Engine.PatternLimit)
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch concurrency must be positive, got %d", c.Batch.Concurrency)
	}
	if !contains(ValidLogLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}
	return nil
}

func contains(valid []string, s string) bool {
	for _, v := range valid {
		if v == s {
			return true
		}
	}
	return false
}
