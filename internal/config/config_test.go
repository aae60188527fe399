package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/test")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.IsProduction)
	assert.True(t, cfg.MigrationsEnabled)
	assert.Equal(t, "UTC", cfg.ClubLocation.String())
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTokenTTL)

	assert.Equal(t, 400*time.Millisecond, cfg.Recurrence.Debounce)
	assert.Equal(t, 500, cfg.Recurrence.MaxOccurrences)
	assert.Equal(t, 6, cfg.Recurrence.OracleConcurrency)
	assert.Equal(t, 5*time.Second, cfg.Recurrence.OracleTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Recurrence.SessionIdleTTL)
	assert.Equal(t, "@every 1m", cfg.Recurrence.ReapSchedule)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("CLUB_TIMEZONE", "Asia/Taipei")
	t.Setenv("RECURRENCE_DEBOUNCE", "250ms")
	t.Setenv("ORACLE_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction)
	assert.Equal(t, "Asia/Taipei", cfg.ClubLocation.String())
	assert.Equal(t, 250*time.Millisecond, cfg.Recurrence.Debounce)
	assert.Equal(t, 8, cfg.Recurrence.OracleConcurrency)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing DB_DSN", env: map[string]string{"DB_DSN": "", "JWT_SECRET": "x"}},
		{name: "missing JWT_SECRET", env: map[string]string{"DB_DSN": "x", "JWT_SECRET": ""}},
		{name: "bad timezone", env: map[string]string{"CLUB_TIMEZONE": "Mars/Olympus"}},
		{name: "bad debounce", env: map[string]string{"RECURRENCE_DEBOUNCE": "soon"}},
		{name: "fan-out too wide", env: map[string]string{"ORACLE_CONCURRENCY": "64"}},
		{name: "zero cap", env: map[string]string{"RECURRENCE_MAX_OCCURRENCES": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
