package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the REST API.
type Config struct {
	DatabaseURL    string
	Port           int
	BearerToken    string
	LogLevel       string
	RequestTimeout time.Duration
	MaxCSVUploadMB int
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file

	cfg := Config{
		Port:           8080,
		LogLevel:       "info",
		RequestTimeout: 15 * time.Second,
		MaxCSVUploadMB: 16,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
		cfg.Port = port
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if secsStr := os.Getenv("API_REQUEST_TIMEOUT_SECONDS"); secsStr != "" {
		secs, err := strconv.Atoi(secsStr)
		if err != nil || secs <= 0 {
			return cfg, fmt.Errorf("invalid API_REQUEST_TIMEOUT_SECONDS: %s", secsStr)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	if mbStr := os.Getenv("MAX_CSV_UPLOAD_MB"); mbStr != "" {
		mb, err := strconv.Atoi(mbStr)
		if err != nil || mb <= 0 {
			return cfg, fmt.Errorf("invalid MAX_CSV_UPLOAD_MB: %s", mbStr)
		}
		cfg.MaxCSVUploadMB = mb
	}

	cfg.BearerToken = os.Getenv("API_BEARER_TOKEN")

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
