package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Config holds all collector settings. Everything is optional with a
// default; values come from the environment, optionally seeded from a
// config.env file first.
type Config struct {
	// Timing
	ReadInterval  time.Duration // time between sensor read cycles
	BatchDuration time.Duration // nominal window length

	// Partitioning
	StationID string // UUID identifying this station in partition paths
	OutputDir string // filesystem root for partitions

	// Temperature compensation
	TempCompensationEnabled bool
	TempCompensationFactor  float64

	// Hardware placement
	I2CBus      string // empty selects the first available bus
	PMS5003Port string
}

// Load reads settings from the environment. A non-empty path names a
// KEY=VALUE file loaded into the environment first; keys already set in the
// real environment win.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ReadInterval:            5 * time.Second,
		BatchDuration:           900 * time.Second,
		StationID:               uuid.Nil.String(),
		OutputDir:               "output",
		TempCompensationEnabled: true,
		TempCompensationFactor:  2.25,
		PMS5003Port:             "/dev/serial0",
	}

	if v := os.Getenv("READ_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid READ_INTERVAL %q: %w", v, err)
		}
		cfg.ReadInterval = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("BATCH_DURATION"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BATCH_DURATION %q: %w", v, err)
		}
		cfg.BatchDuration = time.Duration(secs) * time.Second
	}
	if v := os.Getenv("STATION_ID"); v != "" {
		cfg.StationID = v
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("TEMP_COMPENSATION_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TEMP_COMPENSATION_ENABLED %q: %w", v, err)
		}
		cfg.TempCompensationEnabled = enabled
	}
	if v := os.Getenv("TEMP_COMPENSATION_FACTOR"); v != "" {
		factor, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TEMP_COMPENSATION_FACTOR %q: %w", v, err)
		}
		cfg.TempCompensationFactor = factor
	}
	if v := os.Getenv("I2C_BUS"); v != "" {
		cfg.I2CBus = v
	}
	if v := os.Getenv("PMS5003_PORT"); v != "" {
		cfg.PMS5003Port = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the constraints defaults alone cannot enforce.
func (c *Config) validate() error {
	if c.ReadInterval <= 0 {
		return fmt.Errorf("READ_INTERVAL must be positive, got %s", c.ReadInterval)
	}
	if c.BatchDuration <= 0 {
		return fmt.Errorf("BATCH_DURATION must be positive, got %s", c.BatchDuration)
	}
	if c.TempCompensationFactor <= 0 {
		return fmt.Errorf("TEMP_COMPENSATION_FACTOR must be positive, got %g", c.TempCompensationFactor)
	}
	if _, err := uuid.Parse(c.StationID); err != nil {
		return fmt.Errorf("STATION_ID %q is not a valid UUID: %w", c.StationID, err)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	return nil
}
