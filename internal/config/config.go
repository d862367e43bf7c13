// Package config provides configuration management functionality.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for databases (defaults to "./data", always absolute)
	StrategiesDir string // Directory scanned for symphony files
	StrategyGlob  string // Filename pattern for symphony files (e.g. "*.clj")

	LogLevel  string
	LogPretty bool

	LookbackDays int    // Historical bar window requested per indicator
	Workers      int    // Parallel strategy evaluations
	Schedule     string // Cron expression for periodic re-evaluation
	ScheduleOn   bool   // Enable the scheduler loop
}

// Load reads configuration from the environment, loading a .env file first
// when one is present. Missing values fall back to defaults.
func Load() *Config {
	// Best effort: absence of a .env file is not an error.
	_ = godotenv.Load()

	dataDir := getEnv("MAESTRO_DATA_DIR", "./data")
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}

	return &Config{
		DataDir:       dataDir,
		StrategiesDir: getEnv("MAESTRO_STRATEGIES_DIR", "./strategies"),
		StrategyGlob:  getEnv("MAESTRO_STRATEGY_GLOB", "*.clj"),
		LogLevel:      getEnv("MAESTRO_LOG_LEVEL", "info"),
		LogPretty:     getEnvBool("MAESTRO_LOG_PRETTY", false),
		LookbackDays:  getEnvInt("MAESTRO_LOOKBACK_DAYS", 365),
		Workers:       getEnvInt("MAESTRO_WORKERS", 4),
		Schedule:      getEnv("MAESTRO_SCHEDULE", "0 0 18 * * MON-FRI"),
		ScheduleOn:    getEnvBool("MAESTRO_SCHEDULE_ENABLED", false),
	}
}

// DatabasePath returns the path of a named sqlite database under DataDir.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
