package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the bap CLI.
type Config struct {
	// AMSSize is the number of slots in the AMS.
	AMSSize int
	// MaxGroupSize caps the optimizer's group size; 0 means unbounded.
	MaxGroupSize int
	// ChangesFile is the name of the swap-instruction file written next to
	// the input archive.
	ChangesFile string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	amsSize, err := getEnvInt("BAP_AMS_SIZE", 4)
	if err != nil {
		return nil, err
	}
	maxGroupSize, err := getEnvInt("BAP_MAX_GROUP_SIZE", 2)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AMSSize:      amsSize,
		MaxGroupSize: maxGroupSize,
		ChangesFile:  getEnv("BAP_CHANGES_FILE", "filament_changes.txt"),
	}
	if cfg.AMSSize < 1 {
		return nil, fmt.Errorf("BAP_AMS_SIZE must be at least 1, got %d", cfg.AMSSize)
	}
	if cfg.MaxGroupSize < 0 {
		return nil, fmt.Errorf("BAP_MAX_GROUP_SIZE must not be negative, got %d", cfg.MaxGroupSize)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}
