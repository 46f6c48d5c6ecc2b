// Package config loads the server and example settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/meikuraledutech/process/codec"
	"golang.org/x/text/language"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all settings.
type Config struct {
	DatabaseURL         string
	StoreDriver         string
	SQLitePath          string
	ListenAddr          string
	LogLevel            slog.Level
	LogFormat           string
	Locale              language.Tag
	SnapshotCompression codec.Compression
	ShutdownTimeout     time.Duration
}

// Load reads the environment after loading files (".env" when none are
// given). Missing files are ignored; variables already set win over files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}

	cfg := &Config{
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoreDriver:     getEnvWithDefault("STORE_DRIVER", DriverSQLite),
		SQLitePath:      getEnvWithDefault("SQLITE_PATH", "process.db"),
		ListenAddr:      getEnvWithDefault("LISTEN_ADDR", ":3000"),
		LogFormat:       getEnvWithDefault("LOG_FORMAT", "text"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnvWithDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}

	tag, err := language.Parse(getEnvWithDefault("LOCALE", "en"))
	if err != nil {
		return nil, fmt.Errorf("config: LOCALE: %w", err)
	}
	cfg.Locale = tag

	if cfg.SnapshotCompression, err = codec.ParseCompression(getEnvWithDefault("SNAPSHOT_COMPRESSION", "zstd")); err != nil {
		return nil, fmt.Errorf("config: SNAPSHOT_COMPRESSION: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", DriverPostgres)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the %s driver", DriverSQLite)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

// Serializer returns the snapshot serializer for the configured compression.
func (c *Config) Serializer() *codec.Serializer {
	return codec.New(codec.MsgPack{}, c.SnapshotCompression)
}

// NewLogger builds a logger writing to w in the configured format and level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}
