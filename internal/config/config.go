// Package config handles glucobar configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (GLUCOBAR_*)
//  2. Config file (<user config dir>/glucobar/config.yaml)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tnunamak/glucobar/internal/paths"
)

const (
	// DefaultRegion is the Dexcom Share region used when none is configured.
	DefaultRegion = "us"
	// DefaultPollInterval is how often the tray refreshes the reading.
	DefaultPollInterval = 5 * time.Minute
	// DefaultCacheTTL is how long a cached reading satisfies `status`.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultHTTPTimeout bounds each request to the Share service.
	DefaultHTTPTimeout = 30 * time.Second
)

// Config is the resolved configuration.
type Config struct {
	Region       string
	PollInterval time.Duration
	FontPath     string
	CacheTTL     time.Duration
	HTTPTimeout  time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string
	LogStderr string

	// Path is the config file that was read, empty when none was found.
	Path string
}

// Load reads configuration from all sources. path overrides the default
// config file location when non-empty.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("dexcom.region", DefaultRegion)
	v.SetDefault("poll.interval", DefaultPollInterval)
	v.SetDefault("render.font_path", "")
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.stderr", "auto")

	if logFile, err := paths.DefaultLogFile(); err == nil {
		v.SetDefault("log.file", logFile)
	}

	if path == "" {
		if p, err := paths.ConfigFile(); err == nil {
			path = p
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
	}

	v.SetEnvPrefix("GLUCOBAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}

	if path != "" {
		if err := v.ReadInConfig(); err == nil {
			cfg.Path = v.ConfigFileUsed()
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.Region = strings.ToLower(strings.TrimSpace(v.GetString("dexcom.region")))
	cfg.PollInterval = v.GetDuration("poll.interval")
	cfg.FontPath = strings.TrimSpace(v.GetString("render.font_path"))
	cfg.CacheTTL = v.GetDuration("cache.ttl")
	cfg.HTTPTimeout = v.GetDuration("http.timeout")
	cfg.LogLevel = v.GetString("log.level")
	cfg.LogFormat = v.GetString("log.format")
	cfg.LogFile = v.GetString("log.file")
	cfg.LogStderr = v.GetString("log.stderr")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Region {
	case "us", "ous", "jp":
	default:
		return fmt.Errorf("invalid dexcom.region %q (allowed: us, ous, jp)", c.Region)
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.PollInterval)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http.timeout must be positive, got %s", c.HTTPTimeout)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.CacheTTL)
	}

	return nil
}
