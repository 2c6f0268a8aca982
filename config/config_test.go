package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "officetrack.db", cfg.DBPath)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.Timezone)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "month_end", cfg.LockPolicy)
	assert.Equal(t, time.Hour, cfg.LockInterval)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(envFrom(map[string]string{
		"OFFICETRACK_DB":            "/tmp/office.db",
		"OFFICETRACK_PORT":          "9090",
		"OFFICETRACK_TIMEZONE":      "UTC",
		"OFFICETRACK_LOG_LEVEL":     "DEBUG",
		"OFFICETRACK_LOCK_POLICY":   "first_compute",
		"OFFICETRACK_LOCK_INTERVAL": "15m",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/office.db", cfg.DBPath)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "first_compute", cfg.LockPolicy)
	assert.Equal(t, 15*time.Minute, cfg.LockInterval)
}

func TestLoad_CollectsInvalidValues(t *testing.T) {
	_, err := load(envFrom(map[string]string{
		"OFFICETRACK_PORT":          "not-a-port",
		"OFFICETRACK_LOCK_POLICY":   "weekly",
		"OFFICETRACK_LOCK_INTERVAL": "-1h",
	}))
	require.Error(t, err)
	assert.Equal(t,
		"invalid environment values: OFFICETRACK_PORT, OFFICETRACK_LOCK_POLICY, OFFICETRACK_LOCK_INTERVAL",
		err.Error())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("warn", &buf)

	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, ServiceName, line["service"])
	assert.Equal(t, "warn", line["level"])
}
