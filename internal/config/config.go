package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the service configuration, loaded from environment
// variables.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	RedisURL    string
	StoryDir    string
	SessionTTL  time.Duration
}

// Load reads the configuration from the environment, applying defaults
// for anything unset.
func Load() (*Config, error) {
	ttlMinutes, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}
	if ttlMinutes <= 0 {
		return nil, fmt.Errorf("SESSION_TTL_MINUTES must be positive, got %d", ttlMinutes)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		StoryDir:    getEnv("STORY_DIR", "./data"),
		SessionTTL:  time.Duration(ttlMinutes) * time.Minute,
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
