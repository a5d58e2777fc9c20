package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcal/internal/dedup"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEDUP_RETENTION_HOURS", "")
	t.Setenv("CIVIL_UTC_OFFSET_HOURS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dedup.DefaultRetention, cfg.Retention)
	assert.Equal(t, 3, cfg.CivilOffsetHours)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "default", cfg.GoogleAccount)
}

func TestLoadRetention(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Duration
	}{
		{"explicit hours", "48", 48 * time.Hour},
		{"fractional hours", "0.5", 30 * time.Minute},
		{"zero falls back", "0", dedup.DefaultRetention},
		{"negative falls back", "-2", dedup.DefaultRetention},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEDUP_RETENTION_HOURS", tt.raw)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Retention)
		})
	}
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Setenv("DEDUP_RETENTION_HOURS", "soon")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DEDUP_RETENTION_HOURS", "")
	t.Setenv("CIVIL_UTC_OFFSET_HOURS", "25")
	_, err = Load()
	assert.Error(t, err)
}

func TestCivilLocation(t *testing.T) {
	cfg := &Config{CivilOffsetHours: 3}
	loc := cfg.CivilLocation()

	instant := time.Date(2024, 12, 25, 15, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 12, 25, 12, 0, 0, 0, time.UTC), instant.UTC())
}

func TestLoadChannels(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "channels.yaml")
	content := `channels:
  - id: "12345@g.us"
    audience: community
  - id: "67890@g.us"
  - audience: orphaned
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	routes, err := LoadChannels(path)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"12345@g.us": "community",
		"67890@g.us": "default",
	}, routes)
}

func TestLoadChannelsEmptyPath(t *testing.T) {
	routes, err := LoadChannels("")
	require.NoError(t, err)
	assert.Nil(t, routes)
}

func TestLoadChannelsMissingFile(t *testing.T) {
	_, err := LoadChannels(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
