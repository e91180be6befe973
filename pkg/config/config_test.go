package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srg/blip/internal/peripheral"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "blip", cfg.DeviceName)
	assert.Equal(t, "6e400001-b5a3-f393-e0a9-e50e24dcca9e", cfg.ServiceUUID)
	assert.Equal(t, "6e400003-b5a3-f393-e0a9-e50e24dcca9e", cfg.CharacteristicUUID)
	assert.Equal(t, "read,write,notify", cfg.Properties)
	assert.Equal(t, "readable,writeable", cfg.Permissions)
	assert.Equal(t, 16, cfg.WriteRequestCapacity)
	assert.Equal(t, 1, cfg.NotifyQueueDepth)
	assert.Equal(t, 5*time.Second, cfg.WriteResponseTimeout)
	assert.Equal(t, time.Second, cfg.NotifyInterval)
	assert.NoError(t, cfg.Validate(), "defaults MUST be valid")
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected logrus.Level
	}{
		{
			name:     "creates logger with debug level",
			logLevel: "debug",
			expected: logrus.DebugLevel,
		},
		{
			name:     "creates logger with info level",
			logLevel: "info",
			expected: logrus.InfoLevel,
		},
		{
			name:     "creates logger with warn level",
			logLevel: "warn",
			expected: logrus.WarnLevel,
		},
		{
			name:     "creates logger with error level",
			logLevel: "ERROR",
			expected: logrus.ErrorLevel,
		},
		{
			name:     "falls back to info on invalid level",
			logLevel: "chatty",
			expected: logrus.InfoLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel: tt.logLevel,
			}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.expected, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestConfig_ParsedFlags(t *testing.T) {
	cfg := DefaultConfig()

	props, err := cfg.ParsedProperties()
	require.NoError(t, err)
	assert.Equal(t, peripheral.PropertyRead|peripheral.PropertyWrite|peripheral.PropertyNotify, props)

	perms, err := cfg.ParsedPermissions()
	require.NoError(t, err)
	assert.Equal(t, peripheral.PermissionReadable|peripheral.PermissionWriteable, perms)
}

func TestConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		problem string
	}{
		{name: "log level", modify: func(c *Config) { c.LogLevel = "loud" }, problem: "invalid log level"},
		{name: "device name", modify: func(c *Config) { c.DeviceName = " " }, problem: "device_name"},
		{name: "service uuid", modify: func(c *Config) { c.ServiceUUID = "nope" }, problem: "service_uuid"},
		{name: "characteristic uuid", modify: func(c *Config) { c.CharacteristicUUID = "" }, problem: "characteristic_uuid"},
		{name: "properties", modify: func(c *Config) { c.Properties = "read,fly" }, problem: "fly"},
		{name: "permissions", modify: func(c *Config) { c.Permissions = "root" }, problem: "root"},
		{name: "write capacity", modify: func(c *Config) { c.WriteRequestCapacity = -1 }, problem: "write_request_capacity"},
		{name: "queue depth", modify: func(c *Config) { c.NotifyQueueDepth = 0 }, problem: "notify_queue_depth"},
		{name: "write timeout", modify: func(c *Config) { c.WriteResponseTimeout = 0 }, problem: "write_response_timeout"},
		{name: "notify interval", modify: func(c *Config) { c.NotifyInterval = -time.Second }, problem: "notify_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestConfig_ValidationCollectsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotifyQueueDepth = 0
	cfg.DeviceName = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "notify_queue_depth")
	assert.Contains(t, err.Error(), "device_name")
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blip.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
device_name: thermo
characteristic_uuid: 2a6e
properties: read,indicate
write_request_capacity: 0
write_response_timeout: 250ms
`), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "thermo", cfg.DeviceName)
		assert.Equal(t, "2a6e", cfg.CharacteristicUUID)
		assert.Equal(t, "read,indicate", cfg.Properties)
		assert.Equal(t, 0, cfg.WriteRequestCapacity, "explicit zero MUST survive defaults")
		assert.Equal(t, 250*time.Millisecond, cfg.WriteResponseTimeout)
		assert.Equal(t, time.Second, cfg.NotifyInterval, "unset keys MUST keep defaults")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed"), 0o600))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("invalid values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("notify_queue_depth: 0\n"), 0o600))

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Contains(t, err.Error(), path)
	})
}

func BenchmarkDefaultConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = DefaultConfig()
	}
}

func BenchmarkConfig_NewLogger(b *testing.B) {
	cfg := DefaultConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cfg.NewLogger()
	}
}
