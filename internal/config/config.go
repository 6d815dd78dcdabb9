package config

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/logger"
	"codeberg.org/mutker/powerctl/internal/telemetry"
)

const (
	DefaultEnvPrefix  = "POWERCTL"
	DefaultConfigDir  = "/etc"
	DefaultConfigName = "powerctl.conf"
	DefaultInterval   = 5
	DefaultLogLevel   = LogLevelWarning
)

type Config struct {
	Backend               string   `mapstructure:"backend"`
	Interval              int      `mapstructure:"interval"`
	LogLevel              LogLevel `mapstructure:"log_level"`
	Debug                 bool     `mapstructure:"debug"`
	Verbose               bool     `mapstructure:"verbose"`
	LimitsFile            string   `mapstructure:"limits_file"`
	MetricsListen         string   `mapstructure:"metrics_listen"`
	Telemetry             bool     `mapstructure:"telemetry"`
	TelemetryDB           string   `mapstructure:"telemetry_db"`
	TelemetryBatchSize    int      `mapstructure:"telemetry_batch_size"`
	TelemetryBatchTimeout int      `mapstructure:"telemetry_batch_timeout"`
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"backend":     "backend",
	"interval":    "interval",
	"log-level":   "log_level",
	"debug":       "debug",
	"verbose":     "verbose",
	"limits-file": "limits_file",
	"metrics":     "metrics_listen",
	"telemetry":   "telemetry",
	"database":    "telemetry_db",
}

// RegisterFlags defines the flags Load binds over file and environment
// values.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("backend", backend.DefaultAddress, "Backend address (host:port or URL)")
	fs.Int("interval", DefaultInterval, "Seconds between periodic refreshes")
	fs.String("log-level", DefaultLogLevel.String(), "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
	fs.String("limits-file", "", "TOML file with fallback capability limits")
	fs.String("metrics", "", "Serve Prometheus metrics on this address")
	fs.Bool("telemetry", false, "Record refresh history")
	fs.String("database", telemetry.DefaultConfig().DBPath, "Refresh history database path")
}

// Loader reads configuration from the config file, the environment and
// flags, in increasing order of precedence.
type Loader struct {
	v    *viper.Viper
	log  logger.Logger
	mu   sync.Mutex
	used string
}

var _ Watcher = (*Loader)(nil)

func NewLoader(fs *pflag.FlagSet, opts ...Option) (*Loader, error) {
	errFactory := errors.New()

	o := options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := o.configPath
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(DefaultConfigDir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	if fs != nil {
		for flagName, key := range flagKeys {
			f := fs.Lookup(flagName)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err)
			}
		}
	}

	return &Loader{v: v, log: logger.New("config"), used: v.ConfigFileUsed()}, nil
}

// Load is NewLoader followed by Loader.Load.
func Load(fs *pflag.FlagSet, opts ...Option) (*Config, error) {
	l, err := NewLoader(fs, opts...)
	if err != nil {
		return nil, err
	}

	return l.Load()
}

func setDefaults(v *viper.Viper) {
	td := telemetry.DefaultConfig()

	v.SetDefault("backend", backend.DefaultAddress)
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("log_level", DefaultLogLevel.String())
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
	v.SetDefault("limits_file", "")
	v.SetDefault("metrics_listen", "")
	v.SetDefault("telemetry", false)
	v.SetDefault("telemetry_db", td.DBPath)
	v.SetDefault("telemetry_batch_size", td.BatchSize)
	v.SetDefault("telemetry_batch_timeout", td.BatchTimeout)
}

// Load decodes and validates the current configuration.
func (l *Loader) Load() (*Config, error) {
	errFactory := errors.New()

	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := &Config{}
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}
	cfg.LogLevel = LogLevel(strings.ToLower(strings.TrimSpace(string(cfg.LogLevel))))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the file that was read, or "" when none was found.
func (l *Loader) ConfigFile() string {
	return l.used
}

func (l *Loader) Watch(ctx context.Context, fn func(*Config)) error {
	errFactory := errors.New()

	if l.used == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "No config file to watch")
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if ctx.Err() != nil {
			return
		}
		cfg, err := l.Load()
		if err != nil {
			l.log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid config change")
			return
		}
		l.log.Info().Str("file", e.Name).Msg("Configuration reloaded")
		fn(cfg)
	})
	l.v.WatchConfig()

	return nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.Interval <= 0 {
		return errFactory.WithData(errors.ErrInvalidInterval, c.Interval)
	}
	if strings.TrimSpace(c.Backend) == "" {
		return errFactory.WithMessage(errors.ErrInvalidBackend, "Backend address is empty")
	}
	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}
	if err := c.TelemetryConfig().Validate(); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

// RefreshInterval returns the periodic refresh interval.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Level resolves the effective log level. The debug and verbose switches
// override log_level.
func (c *Config) Level() logger.LogLevel {
	switch {
	case c.Debug:
		return logger.DebugLevel
	case c.Verbose:
		return logger.InfoLevel
	}

	level, err := logger.ParseLevel(c.LogLevel.String())
	if err != nil {
		return logger.WarnLevel
	}

	return level
}

func (c *Config) TelemetryConfig() telemetry.Config {
	return telemetry.Config{
		DBPath:       c.TelemetryDB,
		Enabled:      c.Telemetry,
		BatchSize:    c.TelemetryBatchSize,
		BatchTimeout: c.TelemetryBatchTimeout,
	}
}
