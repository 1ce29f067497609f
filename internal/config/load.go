package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mrz1836/vcsync/internal/constants"
	"github.com/mrz1836/vcsync/internal/errors"
)

// newViperInstance creates a Viper instance with defaults and VCSYNC_*
// environment variable support.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VCSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers built-in defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("timeout", 0)
	v.SetDefault("jobs", 4)
	v.SetDefault("tools", map[string]string{})
	v.SetDefault("log.file", true)
}

// Load reads configuration with the following precedence (highest first):
//
//  1. Environment variables (VCSYNC_* prefix)
//  2. Global config (~/.vcsync/config.yaml, or $VCSYNC_HOME)
//  3. Built-in defaults
//
// A missing config file is not an error; many installations run on defaults.
func Load() (*Config, error) {
	v := newViperInstance()

	if path, ok := globalConfigPath(); ok {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFound(err) {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Home returns the vcsync home directory ($VCSYNC_HOME or ~/.vcsync).
func Home() (string, error) {
	if home := os.Getenv("VCSYNC_HOME"); home != "" {
		return home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(home, constants.VcsyncHome), nil
}

// globalConfigPath returns the config file path when it exists.
func globalConfigPath() (string, bool) {
	home, err := Home()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, constants.ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// isConfigNotFound reports whether err is viper's missing-config error.
func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound)
}
