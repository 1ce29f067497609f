// Package config loads vcsync configuration from files, environment
// variables and defaults via viper.
package config

import (
	"fmt"
	"time"

	vcserrors "github.com/mrz1836/vcsync/internal/errors"
)

// Config is the resolved application configuration.
type Config struct {
	// Timeout is the wall-clock limit applied to each external command.
	// Zero disables the limit.
	Timeout time.Duration `mapstructure:"timeout"`

	// Jobs bounds manifest sync parallelism.
	Jobs int `mapstructure:"jobs"`

	// Tools maps a VCS kind tag to a binary override
	// (e.g. git: /usr/local/bin/git).
	Tools map[string]string `mapstructure:"tools"`

	// Log holds logging settings.
	Log LogConfig `mapstructure:"log"`
}

// LogConfig controls log output.
type LogConfig struct {
	// File enables the rotating log file under the vcsync home directory.
	File bool `mapstructure:"file"`
}

// Validate checks value ranges. Zero values selected by defaults are valid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil: %w", vcserrors.ErrConfigInvalid)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %w", vcserrors.ErrConfigInvalid)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("jobs cannot be negative: %w", vcserrors.ErrConfigInvalid)
	}
	for kind, tool := range cfg.Tools {
		if tool == "" {
			return fmt.Errorf("tool override for %q is empty: %w", kind, vcserrors.ErrConfigInvalid)
		}
	}
	return nil
}
