package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the client
type Config struct {
	APIBaseURL     string
	LogLevel       string
	Environment    string
	SessionFile    string
	RequestTimeout time.Duration
	ReconcileDelay time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		APIBaseURL:     getEnv("VOTING_API_URL", "http://localhost:8000/api"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "production"),
		SessionFile:    getEnv("SESSION_FILE", defaultSessionFile()),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
		ReconcileDelay: getDurationEnv("RECONCILE_DELAY", 2*time.Second),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value.
// Accepts Go duration strings ("2s") or whole milliseconds.
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.yaml"
	}
	return filepath.Join(home, ".campusvote", "session.yaml")
}
