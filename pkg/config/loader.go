// Package config loads the iotsend configuration.
//
// Precedence, highest first:
//  1. Environment variables (IOTSEND_ prefix)
//  2. Configuration file
//  3. Defaults
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/multiformats/go-multiaddr"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"iotsend/pkg/hub"
)

// Config holds all configuration sections.
type Config struct {
	Hub     HubConfig     `mapstructure:"hub"`
	Message MessageConfig `mapstructure:"message"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// HubConfig describes the hub service endpoint.
type HubConfig struct {
	Address     string `mapstructure:"address"`
	DialTimeout int    `mapstructure:"dial_timeout"`
}

// MessageConfig bounds the composed message.
type MessageConfig struct {
	MaxSize int64 `mapstructure:"max_size"`
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the configuration from configPath. A missing file is not an
// error; defaults and environment overrides still apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("iotsend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/iotsend")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !xerrors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, xerrors.Errorf("read config: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, xerrors.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, xerrors.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hub.address", "/ip4/127.0.0.1/tcp/10710")
	v.SetDefault("hub.dial_timeout", 10)

	v.SetDefault("message.max_size", int64(hub.DefaultMaxMessageSize))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

func bindEnvVars(v *viper.Viper) {
	v.SetEnvPrefix("IOTSEND")
	v.AutomaticEnv()

	bindings := map[string]string{
		"hub.address":      "HUB_ADDRESS",
		"hub.dial_timeout": "DIAL_TIMEOUT",
		"message.max_size": "MAX_SIZE",
		"logging.level":    "LOG_LEVEL",
		"logging.format":   "LOG_FORMAT",
	}

	for configKey, envKey := range bindings {
		// BindEnv only fails on an empty key list.
		_ = v.BindEnv(configKey, "IOTSEND_"+envKey)
	}
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if _, err := multiaddr.NewMultiaddr(c.Hub.Address); err != nil {
		return xerrors.Errorf("invalid hub address %q: %w", c.Hub.Address, err)
	}

	if c.Hub.DialTimeout < 1 || c.Hub.DialTimeout > 300 {
		return xerrors.Errorf("invalid dial_timeout: %d (must be 1-300)", c.Hub.DialTimeout)
	}

	if c.Message.MaxSize < 1024 || c.Message.MaxSize > 16*1024*1024 {
		return xerrors.Errorf("invalid max_size: %d (must be 1KB-16MB)", c.Message.MaxSize)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return xerrors.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return xerrors.Errorf("invalid log format: %s (must be json or text)", c.Logging.Format)
	}

	return nil
}

// ToHubConfig converts the configuration into the client's Config.
func (c *Config) ToHubConfig() hub.Config {
	cfg := hub.NewConfig()
	cfg.Address = c.Hub.Address
	cfg.DialTimeout = time.Duration(c.Hub.DialTimeout) * time.Second
	cfg.MaxMessageSize = c.Message.MaxSize
	return cfg
}

// GetConfigPath returns the configuration file path, searching the
// default locations when none is given on the command line. An empty
// result means no config file exists and defaults apply.
func GetConfigPath(cmdLinePath string) string {
	if cmdLinePath != "" {
		return cmdLinePath
	}

	paths := []string{
		"iotsend.yaml",
		filepath.Join("config", "iotsend.yaml"),
		"/etc/iotsend/iotsend.yaml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
