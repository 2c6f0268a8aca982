// Package config loads process configuration from the environment and builds
// the root logger.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/office-attendance/goal"
)

// ServiceName is attached to every log line.
const ServiceName = "officetrack"

// Config captures environment driven configuration values.
type Config struct {
	DBPath       string
	Port         int
	Timezone     string
	LogLevel     string
	LockPolicy   string
	LockInterval time.Duration
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		DBPath:       "officetrack.db",
		Port:         8080,
		LogLevel:     "info",
		LockPolicy:   "month_end",
		LockInterval: time.Hour,
	}
}

// Load parses configuration values from the current process environment.
// Every invalid variable is reported in a single error.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Default()
	invalid := make([]string, 0, 2)

	if db := strings.TrimSpace(getenv("OFFICETRACK_DB")); db != "" {
		cfg.DBPath = db
	}

	if portValue := strings.TrimSpace(getenv("OFFICETRACK_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "OFFICETRACK_PORT")
		} else {
			cfg.Port = port
		}
	}

	if tz := strings.TrimSpace(getenv("OFFICETRACK_TIMEZONE")); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			invalid = append(invalid, "OFFICETRACK_TIMEZONE")
		} else {
			cfg.Timezone = tz
		}
	}

	if level := strings.TrimSpace(getenv("OFFICETRACK_LOG_LEVEL")); level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(level)); err != nil {
			invalid = append(invalid, "OFFICETRACK_LOG_LEVEL")
		} else {
			cfg.LogLevel = strings.ToLower(level)
		}
	}

	if policy := strings.TrimSpace(getenv("OFFICETRACK_LOCK_POLICY")); policy != "" {
		if _, err := goal.ParseLockPolicy(policy); err != nil {
			invalid = append(invalid, "OFFICETRACK_LOCK_POLICY")
		} else {
			cfg.LockPolicy = policy
		}
	}

	if intervalValue := strings.TrimSpace(getenv("OFFICETRACK_LOCK_INTERVAL")); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "OFFICETRACK_LOCK_INTERVAL")
		} else {
			cfg.LockInterval = interval
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

// Location resolves Timezone. An empty Timezone means time.Local.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NewLogger builds the root logger writing JSON lines to w. An unknown level
// falls back to info.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}
