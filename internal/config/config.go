package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/spf13/pflag"
)

type Config struct {
	HTTPAddr     string `toml:"http-addr"`
	SnapshotPath string `toml:"snapshot-path"`
	// Upper bound for draining in-flight HTTP requests at shutdown. The
	// snapshot write that follows is not bounded.
	ShutdownTimeout Duration `toml:"shutdown-timeout"`

	Log LogConfig `toml:"log"`
}

type LogConfig struct {
	Level string `toml:"level"`
	// File enables rotating file output; empty means stderr.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max-size-mb"`
	MaxBackups int    `toml:"max-backups"`
	MaxAgeDays int    `toml:"max-age-days"`
}

// Duration lets TOML files spell durations as strings like "10s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Trace(err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func NewDefaultConfig() *Config {
	return &Config{
		HTTPAddr:        "127.0.0.1:4000",
		SnapshotPath:    "kvstore.dat",
		ShutdownTimeout: Duration{10 * time.Second},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http address must not be empty")
	}
	if c.SnapshotPath == "" {
		return errors.New("snapshot path must not be empty")
	}
	if c.ShutdownTimeout.Duration <= 0 {
		return errors.Errorf("shutdown timeout must be positive, got %s", c.ShutdownTimeout)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("unknown log level %q", c.Log.Level)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{HTTPAddr:%s SnapshotPath:%s ShutdownTimeout:%s Log:%+v}",
		c.HTTPAddr, c.SnapshotPath, c.ShutdownTimeout, c.Log)
}

const (
	flagConfig          = "config"
	flagAddr            = "addr"
	flagSnapshot        = "snapshot"
	flagLogLevel        = "log-level"
	flagLogFile         = "log-file"
	flagShutdownTimeout = "shutdown-timeout"
)

// RegisterFlags declares the server flags on fs. Defaults shown in help are
// the built-in defaults; a flag only overrides the config when set.
func RegisterFlags(fs *pflag.FlagSet) {
	def := NewDefaultConfig()
	fs.StringP(flagConfig, "c", "", "path to a TOML config file")
	fs.String(flagAddr, def.HTTPAddr, "HTTP listen address")
	fs.String(flagSnapshot, def.SnapshotPath, "snapshot file path")
	fs.String(flagLogLevel, def.Log.Level, "log level: debug, info, warn, error")
	fs.String(flagLogFile, "", "rotate logs into this file instead of stderr")
	fs.Duration(flagShutdownTimeout, def.ShutdownTimeout.Duration, "time allowed for in-flight requests at shutdown")
}

// Load builds the config from defaults, then the TOML file named by the
// --config flag, then environment variables, then explicitly set flags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	return load(fs, os.Getenv)
}

func load(fs *pflag.FlagSet, getenv func(string) string) (*Config, error) {
	cfg := NewDefaultConfig()

	path, err := fs.GetString(flagConfig)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, errors.Annotatef(err, "parse config file %s", path)
		}
	}

	cfg.applyEnv(getenv)
	if err := cfg.applyFlags(fs); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := getenv("SNAPSHOT_PATH"); v != "" {
		c.SnapshotPath = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
}

func (c *Config) applyFlags(fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(flagAddr) {
		if c.HTTPAddr, err = fs.GetString(flagAddr); err != nil {
			return errors.Trace(err)
		}
	}
	if fs.Changed(flagSnapshot) {
		if c.SnapshotPath, err = fs.GetString(flagSnapshot); err != nil {
			return errors.Trace(err)
		}
	}
	if fs.Changed(flagLogLevel) {
		if c.Log.Level, err = fs.GetString(flagLogLevel); err != nil {
			return errors.Trace(err)
		}
	}
	if fs.Changed(flagLogFile) {
		if c.Log.File, err = fs.GetString(flagLogFile); err != nil {
			return errors.Trace(err)
		}
	}
	if fs.Changed(flagShutdownTimeout) {
		if c.ShutdownTimeout.Duration, err = fs.GetDuration(flagShutdownTimeout); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
