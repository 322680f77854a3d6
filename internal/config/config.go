package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath   string
	Port     int
	LogLevel slog.Level

	// AdminToken guards organizer routes. Empty leaves them open.
	AdminToken string
	// RedisURL, when set, also publishes live events to redis.
	RedisURL string
}

// Load reads the configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		DBPath:     getenv("LANPARTY_DB_PATH", "lanparty.db"),
		LogLevel:   slog.LevelInfo,
		AdminToken: os.Getenv("LANPARTY_ADMIN_TOKEN"),
		RedisURL:   os.Getenv("LANPARTY_REDIS_URL"),
	}

	port, err := strconv.Atoi(getenv("LANPARTY_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid LANPARTY_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("LANPARTY_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.Port = port

	if level := os.Getenv("LANPARTY_LOG_LEVEL"); level != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
			return nil, fmt.Errorf("invalid LANPARTY_LOG_LEVEL: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
