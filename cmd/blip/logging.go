package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/blip/pkg/config"
)

// configureLogger creates a logger for cfg.
// --log-level takes precedence over the config file.
// Returns a configured logger or error if the log-level is invalid.
func configureLogger(cmd *cobra.Command, cfg *config.Config) (*logrus.Logger, error) {
	if logLevelStr, _ := cmd.Flags().GetString("log-level"); logLevelStr != "" {
		cfg.LogLevel = logLevelStr
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return cfg.NewLogger(), nil
}

// loadConfig reads the file named by --config, falling back to defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}
