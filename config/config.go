package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort          string
	DatabaseURL         string
	LogLevel            string
	ScrapeIntervalHours string
	PacingDelaySeconds  string
	CacheTTLHours       string
}

// GetScrapeInterval returns how often a full ingestion cycle runs.
func (c *Config) GetScrapeInterval() time.Duration {
	if hours, err := strconv.Atoi(c.ScrapeIntervalHours); err == nil && hours > 0 {
		return time.Duration(hours) * time.Hour
	}
	logrus.Warnf("Invalid SCRAPE_INTERVAL_HOURS value: %s, using default 12 hours", c.ScrapeIntervalHours)
	return 12 * time.Hour
}

// GetPacingDelay returns the inter-company delay inside an ingestion cycle.
// This exists solely to avoid bursting requests at the upstream site.
func (c *Config) GetPacingDelay() time.Duration {
	if seconds, err := strconv.Atoi(c.PacingDelaySeconds); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second
	}
	logrus.Warnf("Invalid PACING_DELAY_SECONDS value: %s, using default 3 seconds", c.PacingDelaySeconds)
	return 3 * time.Second
}

// GetCacheTTL returns the dividend read-cache TTL from environment or default
func (c *Config) GetCacheTTL() time.Duration {
	if c.CacheTTLHours == "" {
		return 24 * time.Hour
	}

	hours, err := strconv.Atoi(c.CacheTTLHours)
	if err != nil {
		logrus.Warnf("Invalid CACHE_TTL_HOURS value: %s, using default 24 hours", c.CacheTTLHours)
		return 24 * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ScrapeIntervalHours: getEnv("SCRAPE_INTERVAL_HOURS", "12"),
		PacingDelaySeconds:  getEnv("PACING_DELAY_SECONDS", "3"),
		CacheTTLHours:       getEnv("CACHE_TTL_HOURS", "24"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
