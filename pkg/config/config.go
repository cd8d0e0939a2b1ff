// Package config provides configuration management for the money
// tracker. It loads configuration from environment variables and .env
// files, plus an optional YAML defaults file for seeding the catalog.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	DBPath     string
	ListenAddr string
	BackupDir  string
	MaxBackups int
	Defaults   string // path to the YAML defaults file, optional
	Debug      bool
}

// Load loads configuration from environment variables.
// It automatically loads .env from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	maxBackups, err := parseIntEnv("MONEYTRACK_MAX_BACKUPS", 7)
	if err != nil {
		return nil, fmt.Errorf("invalid MONEYTRACK_MAX_BACKUPS: %w", err)
	}

	config := &Config{
		DBPath:     getEnvOrDefault("MONEYTRACK_DB_PATH", "./data/moneytrack.db"),
		ListenAddr: getEnvOrDefault("MONEYTRACK_LISTEN_ADDR", "127.0.0.1:5000"),
		BackupDir:  getEnvOrDefault("MONEYTRACK_BACKUP_DIR", "./backups"),
		MaxBackups: maxBackups,
		Defaults:   os.Getenv("MONEYTRACK_DEFAULTS"),
		Debug:      os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}
