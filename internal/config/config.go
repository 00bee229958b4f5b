// Package config loads service configuration from the environment.
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

	"github.com/erazemk/lostfound/internal/model"
)

// Config holds the application configuration.
type Config struct {
	Environment string
	DBPath      string
	Addr        string
	LogPath     string
	LogLevel    string
	LogFormat   string

	EmailDomain   string
	AdminEmail    string
	AdminPassword string

	ArchiveAfter    time.Duration
	ArchiveInterval time.Duration

	RedisURL         string
	LoginMaxAttempts int
	LoginWindow      time.Duration

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables, after loading a .env
// file from the working directory if one exists. Variables already set in the
// environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	archiveAfter, err := getDuration("ARCHIVE_AFTER", model.ArchiveAfter)
	if err != nil {
		return nil, err
	}
	archiveInterval, err := getDuration("ARCHIVE_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	loginWindow, err := getDuration("LOGIN_WINDOW", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	maxAttempts, err := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: %w", err)
	}
	if maxAttempts < 1 {
		return nil, fmt.Errorf("invalid LOGIN_MAX_ATTEMPTS: must be at least 1")
	}

	format := getEnv("LOG_FORMAT", "text")
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be text or json", format)
	}

	return &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		DBPath:             getEnv("DB_PATH", "lostfound.sqlite3"),
		Addr:               getEnv("ADDR", ":8080"),
		LogPath:            os.Getenv("LOG_PATH"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          format,
		EmailDomain:        strings.TrimPrefix(getEnv("EMAIL_DOMAIN", "crimson.ua.edu"), "@"),
		AdminEmail:         getEnv("ADMIN_EMAIL", "admin@university.edu"),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		ArchiveAfter:       archiveAfter,
		ArchiveInterval:    archiveInterval,
		RedisURL:           os.Getenv("REDIS_URL"),
		LoginMaxAttempts:   maxAttempts,
		LoginWindow:        loginWindow,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
