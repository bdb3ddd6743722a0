// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/neomorfeo/leaseiq/internal/adapter/otel"
)

// Commit modes select how a transition is persisted.
const (
	// CommitAtomic writes status, audit and events in one transaction.
	CommitAtomic = "atomic"
	// CommitSequential writes the status first and records audit and events
	// best-effort afterwards.
	CommitSequential = "sequential"
)

var (
	ErrParsingConfig = errors.New("config: failed to parse environment")
	ErrInvalidConfig = errors.New("config: invalid value")
)

// Config is the process configuration.
type Config struct {
	Port         string `env:"PORT" envDefault:"8080"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"leaseiq.db"`
	CommitMode   string `env:"COMMIT_MODE" envDefault:"atomic"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	ServiceName    string `env:"OTEL_SERVICE_NAME" envDefault:"leaseiq"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION" envDefault:"0.1.0"`
	Environment    string `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	Exporter       string `env:"OTEL_EXPORTER" envDefault:"stdout"`

	RiverMaxWorkers int `env:"RIVER_MAX_WORKERS" envDefault:"2"`
}

// Load reads an optional .env file from the working directory, then parses
// the environment into a Config. Variables already set take precedence over
// the file.
func Load() (Config, error) {
	// The .env file is optional.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, errors.Join(ErrParsingConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.CommitMode {
	case CommitAtomic, CommitSequential:
	default:
		return fmt.Errorf("%w: COMMIT_MODE %q (want %s or %s)", ErrInvalidConfig, c.CommitMode, CommitAtomic, CommitSequential)
	}
	switch c.Exporter {
	case otel.ExporterStdout, otel.ExporterOTLP:
	default:
		return fmt.Errorf("%w: OTEL_EXPORTER %q (want %s or %s)", ErrInvalidConfig, c.Exporter, otel.ExporterStdout, otel.ExporterOTLP)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.RiverMaxWorkers < 1 {
		return fmt.Errorf("%w: RIVER_MAX_WORKERS must be positive, got %d", ErrInvalidConfig, c.RiverMaxWorkers)
	}
	return nil
}

// SlogLevel parses LogLevel (debug, info, warn, error).
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: LOG_LEVEL %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

// OTel returns the OpenTelemetry provider configuration.
func (c Config) OTel() otel.Config {
	return otel.Config{
		ServiceName:    c.ServiceName,
		ServiceVersion: c.ServiceVersion,
		Environment:    c.Environment,
		Exporter:       c.Exporter,
		Insecure:       c.Environment == "development",
		CommitMode:     c.CommitMode,
	}
}
