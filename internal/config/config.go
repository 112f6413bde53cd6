// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds service configuration.
type Config struct {
	Port          int
	Address       string // Infrahub base URL
	APIToken      string
	DefaultBranch string
	SnapshotDSN   string
	LogLevel      string
	PageSize      int
	SchemaFile    string

	// SchemaRefreshInterval polls the schema source; zero disables polling.
	SchemaRefreshInterval time.Duration

	// DisplayTimezone is an IANA zone for rendered timestamps; empty is UTC.
	DisplayTimezone string
	// DisplayMaxLength truncates rendered text; 0 keeps the default and a
	// negative value disables truncation.
	DisplayMaxLength int
}

// DisplayLocation returns the zone named by DisplayTimezone, or nil for UTC.
func (c Config) DisplayLocation() *time.Location {
	if c.DisplayTimezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return nil
	}
	return loc
}

// Defaults.
const (
	DefaultPort     = 8080
	DefaultBranch   = "main"
	DefaultLogLevel = "info"
	DefaultPageSize = 10
)

// Load reads the environment after applying the given .env files. Variables
// already set in the environment win over file values. Missing files are
// ignored; with no files, ".env" is tried.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from a lookup function such as os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := Config{
		Address:       strings.TrimRight(get("INFRAHUB_ADDRESS", ""), "/"),
		APIToken:      get("INFRAHUB_API_TOKEN", ""),
		DefaultBranch: get("INFRAHUB_DEFAULT_BRANCH", DefaultBranch),
		SnapshotDSN:   get("SNAPSHOT_DSN", ""),
		LogLevel:      get("LOG_LEVEL", DefaultLogLevel),
		SchemaFile:    get("SCHEMA_FILE", ""),

		DisplayTimezone: get("DISPLAY_TIMEZONE", ""),
	}

	var err error
	if cfg.Port, err = positiveInt(get("PORT", ""), DefaultPort); err != nil {
		return Config{}, fmt.Errorf("PORT: %w", err)
	}
	if cfg.PageSize, err = positiveInt(get("PAGE_SIZE", ""), DefaultPageSize); err != nil {
		return Config{}, fmt.Errorf("PAGE_SIZE: %w", err)
	}
	if raw := get("SCHEMA_REFRESH_INTERVAL", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return Config{}, fmt.Errorf("SCHEMA_REFRESH_INTERVAL: invalid duration %q", raw)
		}
		cfg.SchemaRefreshInterval = d
	}
	if cfg.DisplayTimezone != "" {
		if _, err := time.LoadLocation(cfg.DisplayTimezone); err != nil {
			return Config{}, fmt.Errorf("DISPLAY_TIMEZONE: %w", err)
		}
	}
	if raw := get("DISPLAY_MAX_LENGTH", ""); raw != "" {
		if cfg.DisplayMaxLength, err = strconv.Atoi(raw); err != nil {
			return Config{}, fmt.Errorf("DISPLAY_MAX_LENGTH: %w", err)
		}
	}
	return cfg, nil
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}
