// Package config loads dmsched settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/dmsched/sched"
	"github.com/sarchlab/dmsched/timing"
)

// Environment variables read by Load.
const (
	EnvMaxHyperperiod = "DMSCHED_MAX_HYPERPERIOD"
	EnvLogLevel       = "DMSCHED_LOG_LEVEL"
	EnvRecord         = "DMSCHED_RECORD"
	EnvAddr           = "DMSCHED_ADDR"
	EnvMetrics        = "DMSCHED_METRICS"
)

// ErrInvalid is returned for a setting that cannot be parsed.
var ErrInvalid = errors.New("config: invalid value")

// Config holds the settings shared by the CLI and the server.
type Config struct {
	// MaxHyperperiod is the hyperperiod ceiling. Zero lifts it.
	MaxHyperperiod timing.VTime

	LogLevel logrus.Level

	// Record is the path prefix of the SQLite trace. Empty disables
	// recording.
	Record string

	Addr string

	Metrics bool
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		MaxHyperperiod: sched.DefaultHyperperiodCeiling,
		LogLevel:       logrus.WarnLevel,
		Addr:           ":8080",
	}
}

// Load reads envFile, if it exists, into the environment and then builds a
// Config from the environment. Variables already set take precedence over
// the file. An empty envFile means ".env".
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read %s: %w", envFile, err)
	}

	return FromEnv()
}

// FromEnv builds a Config from the environment only.
func FromEnv() (Config, error) {
	c := Default()

	if v, ok := os.LookupEnv(EnvMaxHyperperiod); ok {
		ceiling, err := timing.Parse(v)
		if err != nil || ceiling.Sign() < 0 {
			return Config{}, invalid(EnvMaxHyperperiod, v)
		}

		c.MaxHyperperiod = ceiling
	}

	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, invalid(EnvLogLevel, v)
		}

		c.LogLevel = level
	}

	if v, ok := os.LookupEnv(EnvRecord); ok {
		c.Record = v
	}

	if v, ok := os.LookupEnv(EnvAddr); ok && v != "" {
		c.Addr = v
	}

	if v, ok := os.LookupEnv(EnvMetrics); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, invalid(EnvMetrics, v)
		}

		c.Metrics = enabled
	}

	return c, nil
}

func invalid(name, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalid, name, value)
}

// SimulatorBuilder returns a builder carrying the configured ceiling.
func (c Config) SimulatorBuilder() sched.Builder {
	b := sched.MakeBuilder()
	if c.MaxHyperperiod.Sign() == 0 {
		return b.WithoutHyperperiodCeiling()
	}

	return b.WithHyperperiodCeiling(c.MaxHyperperiod)
}
