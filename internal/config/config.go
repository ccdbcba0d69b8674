// ABOUTME: Centralized configuration for the lifeline pipeline
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/harper/lifeline/internal/storage/sqlite"
)

// Config holds all configuration for the pipeline
type Config struct {
	// Storage settings
	DBPath string

	// OpenAI settings
	OpenAIKey  string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	// Pipeline settings
	FirstRunTurnLimit    int           // cap on turns for a first summarization run
	CoverageTurnWindow   int           // recent-turn window for coverage recomputes
	BackfillWindow       time.Duration // how far back the rebuild backfill scans
	FallbackSummaryCount int           // summaries folded into the deterministic fallback
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:               getEnv("LIFELINE_DB", sqlite.DefaultDBPath()),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		ChatModel:            getEnv("LIFELINE_OPENAI_MODEL", "gpt-4o-mini"),
		Timeout:              getEnvDuration("LIFELINE_TIMEOUT", 25*time.Second),
		MaxRetries:           getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:           getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		FirstRunTurnLimit:    getEnvInt("LIFELINE_FIRST_RUN_TURNS", 50),
		CoverageTurnWindow:   getEnvInt("LIFELINE_COVERAGE_TURNS", 300),
		BackfillWindow:       getEnvDuration("LIFELINE_BACKFILL_WINDOW", 14*24*time.Hour),
		FallbackSummaryCount: getEnvInt("LIFELINE_FALLBACK_SUMMARIES", 10),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.FirstRunTurnLimit <= 0 {
		return fmt.Errorf("LIFELINE_FIRST_RUN_TURNS must be positive, got %d", c.FirstRunTurnLimit)
	}
	if c.CoverageTurnWindow <= 0 {
		return fmt.Errorf("LIFELINE_COVERAGE_TURNS must be positive, got %d", c.CoverageTurnWindow)
	}
	if c.BackfillWindow <= 0 {
		return fmt.Errorf("LIFELINE_BACKFILL_WINDOW must be positive, got %s", c.BackfillWindow)
	}
	if c.FallbackSummaryCount <= 0 {
		return fmt.Errorf("LIFELINE_FALLBACK_SUMMARIES must be positive, got %d", c.FallbackSummaryCount)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
