package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/srg/blip/internal/peripheral"
	"github.com/srg/blip/internal/profile"
)

// ErrInvalidConfig is returned by Validate and Load for unusable settings.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration
type Config struct {
	LogLevel             string        `yaml:"log_level" default:"info"`
	DeviceName           string        `yaml:"device_name" default:"blip"`
	ServiceUUID          string        `yaml:"service_uuid" default:"6e400001-b5a3-f393-e0a9-e50e24dcca9e"`
	CharacteristicUUID   string        `yaml:"characteristic_uuid" default:"6e400003-b5a3-f393-e0a9-e50e24dcca9e"`
	Properties           string        `yaml:"properties" default:"read,write,notify"`
	Permissions          string        `yaml:"permissions" default:"readable,writeable"`
	WriteRequestCapacity int           `yaml:"write_request_capacity" default:"16"` // 0 is unbounded
	NotifyQueueDepth     int           `yaml:"notify_queue_depth" default:"1"`
	WriteResponseTimeout time.Duration `yaml:"write_response_timeout" default:"5s"`
	NotifyInterval       time.Duration `yaml:"notify_interval" default:"1s"`
}

// DefaultConfig returns default configuration values
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Load reads a YAML file over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every unusable setting at once.
func (c *Config) Validate() error {
	var problems []string

	if _, err := c.Level(); err != nil {
		problems = append(problems, err.Error())
	}
	if strings.TrimSpace(c.DeviceName) == "" {
		problems = append(problems, "device_name is empty")
	}
	if profile.NormalizeUUID(c.ServiceUUID) == "" {
		problems = append(problems, fmt.Sprintf("service_uuid %q is not a UUID", c.ServiceUUID))
	}
	if profile.NormalizeUUID(c.CharacteristicUUID) == "" {
		problems = append(problems, fmt.Sprintf("characteristic_uuid %q is not a UUID", c.CharacteristicUUID))
	}
	if _, err := c.ParsedProperties(); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := c.ParsedPermissions(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.WriteRequestCapacity < 0 {
		problems = append(problems, "write_request_capacity must not be negative")
	}
	if c.NotifyQueueDepth < 1 {
		problems = append(problems, "notify_queue_depth must be at least 1")
	}
	if c.WriteResponseTimeout <= 0 {
		problems = append(problems, "write_response_timeout must be positive")
	}
	if c.NotifyInterval <= 0 {
		problems = append(problems, "notify_interval must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Level parses LogLevel.
func (c *Config) Level() (logrus.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info", "":
		return logrus.InfoLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
}

// ParsedProperties parses Properties into a bitset.
func (c *Config) ParsedProperties() (peripheral.Properties, error) {
	return peripheral.ParseProperties(c.Properties)
}

// ParsedPermissions parses Permissions into a bitset.
func (c *Config) ParsedPermissions() (peripheral.Permissions, error) {
	return peripheral.ParsePermissions(c.Permissions)
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := c.Level()
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
