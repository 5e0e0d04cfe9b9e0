package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides are the settings that may come from the environment.
type envOverrides struct {
	Server     string `env:"PAGEAHEAD_SERVER"`
	LogLevel   string `env:"PAGEAHEAD_LOG_LEVEL"`
	LogFile    string `env:"PAGEAHEAD_LOG_FILE"`
	UseBrowser *bool  `env:"PAGEAHEAD_USE_BROWSER"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with any PAGEAHEAD_* variables that are set.
func ApplyEnv(cfg *Config) error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}
	mergeString(&cfg.Server.BaseURL, o.Server)
	mergeString(&cfg.Log.Level, o.LogLevel)
	mergeString(&cfg.Log.File, o.LogFile)
	if o.UseBrowser != nil {
		cfg.Fetcher.UseBrowser = *o.UseBrowser
	}
	return nil
}
