package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/config"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "powerctl.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func flags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend = "10.0.0.2:44443"
interval = 7
log_level = "debug"
limits_file = "/etc/powerctl/limits.toml"
metrics_listen = ":9101"
telemetry = true
telemetry_db = "/tmp/history.db"
telemetry_batch_size = 4
`)

	cfg, err := config.Load(nil, config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2:44443", cfg.Backend)
	assert.Equal(t, 7, cfg.Interval)
	assert.Equal(t, 7*time.Second, cfg.RefreshInterval())
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, logger.DebugLevel, cfg.Level())
	assert.Equal(t, "/etc/powerctl/limits.toml", cfg.LimitsFile)
	assert.Equal(t, ":9101", cfg.MetricsListen)

	tc := cfg.TelemetryConfig()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "/tmp/history.db", tc.DBPath)
	assert.Equal(t, 4, tc.BatchSize)
	assert.Equal(t, 60, tc.BatchTimeout, "unset keys keep their defaults")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POWERCTL_CONFIG", filepath.Join(t.TempDir(), "missing.conf"))

	_, err := config.Load(nil)
	require.Error(t, err, "an explicit config path must exist")

	t.Setenv("POWERCTL_CONFIG", "")
	l, err := config.NewLoader(nil, config.WithEnvPrefix("POWERCTL_TEST"))
	require.NoError(t, err)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, backend.DefaultAddress, cfg.Backend)
	assert.Equal(t, config.DefaultInterval, cfg.Interval)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, logger.WarnLevel, cfg.Level())
	assert.False(t, cfg.Telemetry)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
interval = 7
log_level = "error"
`)

	cfg, err := config.Load(flags(t, "--interval", "2", "--verbose"), config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Interval)
	assert.Equal(t, config.LogLevelError, cfg.LogLevel)
	assert.Equal(t, logger.InfoLevel, cfg.Level(), "verbose overrides log_level")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `backend = "file:1"`)
	t.Setenv("POWERCTL_BACKEND", "env:2")

	cfg, err := config.Load(nil, config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, "env:2", cfg.Backend)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"invalid toml", "This is not a valid TOML file", errors.ErrReadConfig},
		{"invalid log level", `log_level = "loud"`, errors.ErrInvalidLogLevel},
		{"zero interval", `interval = 0`, errors.ErrInvalidInterval},
		{"empty backend", `backend = " "`, errors.ErrInvalidBackend},
		{"telemetry without db", "telemetry = true\ntelemetry_db = \"\"", errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(nil, config.WithConfigFile(writeConfig(t, tt.content)))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLogLevelIsValid(t *testing.T) {
	assert.True(t, config.LogLevelWarning.IsValid())
	assert.False(t, config.LogLevel("verbose").IsValid())
}

func TestWatchWithoutFile(t *testing.T) {
	t.Setenv("POWERCTL_CONFIG", "")
	l, err := config.NewLoader(nil, config.WithEnvPrefix("POWERCTL_TEST"))
	require.NoError(t, err)

	if l.ConfigFile() != "" {
		t.Skip("system config file present")
	}
	err = l.Watch(context.Background(), func(*config.Config) {})
	assert.True(t, errors.HasCode(err, errors.ErrMissingConfig))
}

func TestWatchReloads(t *testing.T) {
	path := writeConfig(t, `interval = 3`)
	l, err := config.NewLoader(nil, config.WithConfigFile(path))
	require.NoError(t, err)

	got := make(chan *config.Config, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, l.Watch(ctx, func(c *config.Config) {
		select {
		case got <- c:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte(`interval = 9`), 0o600))

	// A truncating write can surface an intermediate empty file first.
	timeout := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-got:
			if cfg.Interval == 9 {
				return
			}
		case <-timeout:
			t.Fatal("no reload after config change")
		}
	}
}
