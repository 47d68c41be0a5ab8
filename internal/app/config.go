package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is the pipeline file, .hcl or .yaml/.yml.
	ConfigPath string
	// Vars override the `vars` block of the pipeline file.
	Vars map[string]string

	LogFormat string
	LogLevel  string
	// Concurrency overrides pipeline.concurrency when positive.
	Concurrency int
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.Concurrency < 0 {
		return nil, fmt.Errorf("invalid concurrency %d", cfg.Concurrency)
	}
	return &cfg, nil
}
