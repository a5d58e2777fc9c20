// Package config loads runtime settings from the environment (with an
// optional .env file) and the channel routing table from a YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatcal/internal/dedup"
)

// Config is the application configuration.
type Config struct {
	// Extraction
	OpenAIKey   string
	OpenAIModel string

	// Dedup
	Retention time.Duration
	RedisURL  string // empty means the in-memory store

	// Civil offset for interpreting unqualified clock times, in hours from UTC.
	CivilOffsetHours int

	// Routing
	ChannelsFile string

	// CalDAV delivery (enabled when URL is set)
	CalDAVURL      string
	CalDAVUsername string
	CalDAVPassword string
	CalDAVCalendar string

	// Google Calendar delivery (enabled when client ID and calendar ID are set)
	GoogleClientID     string
	GoogleClientSecret string
	GoogleAccount      string
	GoogleCalendarID   string

	LogLevel string
}

// Load reads the configuration from the environment. A .env file is loaded
// first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", ""),
		RedisURL:           os.Getenv("DEDUP_REDIS_URL"),
		ChannelsFile:       os.Getenv("CHANNELS_FILE"),
		CalDAVURL:          os.Getenv("CALDAV_URL"),
		CalDAVUsername:     os.Getenv("CALDAV_USERNAME"),
		CalDAVPassword:     os.Getenv("CALDAV_PASSWORD"),
		CalDAVCalendar:     os.Getenv("CALDAV_CALENDAR"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleAccount:      getEnvOrDefault("GOOGLE_ACCOUNT", "default"),
		GoogleCalendarID:   os.Getenv("GOOGLE_CALENDAR_ID"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
	}

	retention, err := parseRetention(os.Getenv("DEDUP_RETENTION_HOURS"))
	if err != nil {
		return nil, err
	}
	cfg.Retention = retention

	offset, err := parseOffset(os.Getenv("CIVIL_UTC_OFFSET_HOURS"))
	if err != nil {
		return nil, err
	}
	cfg.CivilOffsetHours = offset

	return cfg, nil
}

// CivilLocation returns the fixed offset location used for unqualified times.
func (c *Config) CivilLocation() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.CivilOffsetHours), c.CivilOffsetHours*3600)
}

// parseRetention interprets the retention hours variable. Unset or
// non-positive values fall back to the dedup default.
func parseRetention(raw string) (time.Duration, error) {
	if raw == "" {
		return dedup.DefaultRetention, nil
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid DEDUP_RETENTION_HOURS %q: %w", raw, err)
	}
	if hours <= 0 {
		return dedup.DefaultRetention, nil
	}
	return time.Duration(hours * float64(time.Hour)), nil
}

func parseOffset(raw string) (int, error) {
	if raw == "" {
		return 3, nil // matches temporal.DefaultCivil
	}
	offset, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid CIVIL_UTC_OFFSET_HOURS %q: %w", raw, err)
	}
	if offset < -12 || offset > 14 {
		return 0, fmt.Errorf("CIVIL_UTC_OFFSET_HOURS %d out of range", offset)
	}
	return offset, nil
}

// getEnvOrDefault returns the trimmed environment value or the default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// ChannelRoute maps a watched chat channel to its target audience label.
type ChannelRoute struct {
	ID       string `yaml:"id"`
	Audience string `yaml:"audience"`
}

type channelsFile struct {
	Channels []ChannelRoute `yaml:"channels"`
}

// LoadChannels reads the routing table. Channels without an audience label
// get "default". An empty path returns nil, meaning all channels pass.
func LoadChannels(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var f channelsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse channels file: %w", err)
	}

	routes := make(map[string]string, len(f.Channels))
	for _, ch := range f.Channels {
		if ch.ID == "" {
			continue
		}
		audience := ch.Audience
		if audience == "" {
			audience = "default"
		}
		routes[ch.ID] = audience
	}
	return routes, nil
}
