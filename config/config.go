package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort  string
	DatabaseURL string
	RedisURL    string

	// JWTSecret verifies the HS256 session tokens issued by the hosted
	// auth provider. Empty means every request is treated as anonymous.
	JWTSecret string

	SnapshotKey      string
	SnapshotTTLHours string

	NasdaqCalendarURL string
	LogLevel          string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		SnapshotKey:       getEnv("SNAPSHOT_KEY", "ipo_table"),
		SnapshotTTLHours:  getEnv("SNAPSHOT_TTL_HOURS", "24"),
		NasdaqCalendarURL: getEnv("NASDAQ_CALENDAR_URL", "https://api.nasdaq.com/api/ipo/calendar"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

// GetSnapshotTTL returns the snapshot TTL from the environment or the
// 24 hour default when the value is missing or malformed.
func (c *Config) GetSnapshotTTL() time.Duration {
	if c.SnapshotTTLHours == "" {
		return 24 * time.Hour
	}

	hours, err := strconv.Atoi(c.SnapshotTTLHours)
	if err != nil || hours <= 0 {
		logrus.Warnf("Invalid SNAPSHOT_TTL_HOURS value: %s, using default 24 hours", c.SnapshotTTLHours)
		return 24 * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// ApplyLogLevel configures the global logrus level from config.
func (c *Config) ApplyLogLevel() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
