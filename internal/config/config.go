// Package config loads crawl settings from defaults, an optional .crawl.yaml
// file and CRAWL_* environment variables, later sources winning.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Backend selects the node store.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendDiskv    Backend = "diskv"
	BackendPostgres Backend = "postgres"
)

// Config holds all process settings.
type Config struct {
	Backend          Backend
	Path             string // sqlite file or diskv directory, ~ expanded
	DSN              string
	Debounce         time.Duration
	RefreshInterval  time.Duration
	LogCalls         bool
	LogLevel         slog.Level
	WriteConcurrency int
	// File is the config file that was read, if any.
	File string
}

const (
	defaultSQLitePath = "~/.crawl/crawl.db"
	defaultDiskvPath  = "~/.crawl/nodes"
)

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Backend:          BackendSQLite,
		Debounce:         1500 * time.Millisecond,
		RefreshInterval:  time.Minute,
		LogLevel:         slog.LevelWarn,
		WriteConcurrency: 8,
	}
}

// Load reads configuration. Files are looked up as .crawl.yaml in
// $CRAWL_CONFIG_PATH, the working directory and ~/.crawl; a missing file is
// not an error.
func Load() (Config, error) {
	return load(viper.New(), os.Getenv("CRAWL_CONFIG_PATH"))
}

func load(v *viper.Viper, override string) (Config, error) {
	def := Default()
	v.SetDefault("backend", string(def.Backend))
	v.SetDefault("path", "")
	v.SetDefault("dsn", "")
	v.SetDefault("debounce", def.Debounce)
	v.SetDefault("refresh_interval", def.RefreshInterval)
	v.SetDefault("log_calls", false)
	v.SetDefault("log_level", "warn")
	v.SetDefault("write_concurrency", def.WriteConcurrency)

	v.SetConfigName(".crawl")
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CRAWL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".crawl"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Default()
	cfg.File = v.ConfigFileUsed()

	switch b := Backend(strings.ToLower(v.GetString("backend"))); b {
	case BackendSQLite, BackendDiskv, BackendPostgres:
		cfg.Backend = b
	default:
		return Config{}, fmt.Errorf("backend: unknown value %q (sqlite|diskv|postgres)", v.GetString("backend"))
	}

	path := v.GetString("path")
	if path == "" {
		path = defaultSQLitePath
		if cfg.Backend == BackendDiskv {
			path = defaultDiskvPath
		}
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return Config{}, fmt.Errorf("path: %w", err)
	}
	cfg.Path = expanded

	cfg.DSN = v.GetString("dsn")
	if cfg.Backend == BackendPostgres && cfg.DSN == "" {
		return Config{}, errors.New("dsn is required for the postgres backend")
	}

	cfg.Debounce = v.GetDuration("debounce")
	cfg.RefreshInterval = v.GetDuration("refresh_interval")
	if cfg.Debounce < 0 || cfg.RefreshInterval < 0 {
		return Config{}, errors.New("debounce and refresh_interval must not be negative")
	}
	cfg.LogCalls = v.GetBool("log_calls")
	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log_level"))); err != nil {
		return Config{}, fmt.Errorf("log_level: %w", err)
	}
	cfg.WriteConcurrency = v.GetInt("write_concurrency")
	if cfg.WriteConcurrency < 1 {
		return Config{}, fmt.Errorf("write_concurrency must be at least 1, got %d", cfg.WriteConcurrency)
	}
	return cfg, nil
}
