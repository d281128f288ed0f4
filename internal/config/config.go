// Package config loads ludo server settings from LUDO_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// Config holds the server settings. Command-line flags override these values.
type Config struct {
	Host           string        `env:"LUDO_HOST"             envDefault:"localhost"`
	Port           int           `env:"LUDO_PORT"             envDefault:"8080"`
	ReadTimeout    time.Duration `env:"LUDO_READ_TIMEOUT"     envDefault:"30s"`
	WriteTimeout   time.Duration `env:"LUDO_WRITE_TIMEOUT"    envDefault:"30s"`
	IdleTimeout    time.Duration `env:"LUDO_IDLE_TIMEOUT"     envDefault:"60s"`
	MaxFastWorkers int           `env:"LUDO_MAX_FAST_WORKERS" envDefault:"100"`
	MaxSlowWorkers int           `env:"LUDO_MAX_SLOW_WORKERS" envDefault:"4"`
	DefaultPlayers int           `env:"LUDO_DEFAULT_PLAYERS"  envDefault:"4"`
	DatabasePath   string        `env:"LUDO_DATABASE_PATH"` // empty disables persistence
	LogLevel       string        `env:"LUDO_LOG_LEVEL"        envDefault:"info"`
	DevLogging     bool          `env:"LUDO_DEV_LOGGING"      envDefault:"false"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DefaultPlayers < 2 || c.DefaultPlayers > 4 {
		return fmt.Errorf("default players %d outside 2-4", c.DefaultPlayers)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

// NewLogger builds the process logger: JSON in production, console output
// when DevLogging is set.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	if c.DevLogging {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
