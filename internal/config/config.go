// Package config provides configuration management for the NEO scanner services.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	apperrors "github.com/neo-scanner/internal/errors"
)

// DateLayout is the wire format for feed dates
const DateLayout = "2006-01-02"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Feed     FeedConfig
	Cache    CacheConfig
	Logging  LoggingConfig
}

// ServerConfig holds stats API server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// FeedConfig holds NeoWs feed and collection run configuration
type FeedConfig struct {
	APIKey             string
	BaseURL            string
	StartDate          time.Time
	EndDate            time.Time
	WindowDays         int
	TargetAsteroids    int
	MinRequestInterval time.Duration
	MaxFetchAttempts   int
	RequestTimeout     time.Duration
}

// CacheConfig holds stats query cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional - environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	startDate, err := time.Parse(DateLayout, getEnv("START_DATE", "2024-01-01"))
	if err != nil {
		return nil, apperrors.NewConfigError("START_DATE", err.Error())
	}

	// Hard boundary for the planned range; the final window is clipped here
	endDate, err := time.Parse(DateLayout, getEnv("END_DATE", "2025-12-31"))
	if err != nil {
		return nil, apperrors.NewConfigError("END_DATE", err.Error())
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "neo_scanner"),
				User:           getEnv("POSTGRES_USER", "scanner"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 10),
			},
		},
		Feed: FeedConfig{
			APIKey:             getEnv("NASA_API_KEY", ""),
			BaseURL:            getEnv("NEOWS_BASE_URL", "https://api.nasa.gov/neo/rest/v1/feed"),
			StartDate:          startDate,
			EndDate:            endDate,
			WindowDays:         getEnvAsInt("WINDOW_DAYS", 7),
			TargetAsteroids:    getEnvAsInt("TARGET_ASTEROIDS", 10000),
			MinRequestInterval: getEnvAsDuration("FETCH_MIN_INTERVAL", 1*time.Second),
			MaxFetchAttempts:   getEnvAsInt("FETCH_MAX_ATTEMPTS", 5),
			RequestTimeout:     getEnvAsDuration("FETCH_REQUEST_TIMEOUT", 30*time.Second),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// Validate checks the configuration once at startup. A credential that is
// merely wrong (as opposed to absent) is only detectable at the first fetch.
func (c *Config) Validate() error {
	if c.Feed.APIKey == "" {
		return apperrors.NewConfigError("NASA_API_KEY", "must not be empty")
	}
	if c.Feed.BaseURL == "" {
		return apperrors.NewConfigError("NEOWS_BASE_URL", "must not be empty")
	}
	if c.Feed.WindowDays < 1 {
		return apperrors.NewConfigError("WINDOW_DAYS", "must be at least 1")
	}
	if c.Feed.TargetAsteroids < 1 {
		return apperrors.NewConfigError("TARGET_ASTEROIDS", "must be at least 1")
	}
	if c.Feed.MaxFetchAttempts < 1 {
		return apperrors.NewConfigError("FETCH_MAX_ATTEMPTS", "must be at least 1")
	}
	if c.Feed.MinRequestInterval <= 0 {
		return apperrors.NewConfigError("FETCH_MIN_INTERVAL", "must be positive")
	}
	if !c.Feed.EndDate.After(c.Feed.StartDate) {
		return apperrors.NewConfigError("END_DATE", "must be after START_DATE")
	}
	return nil
}

// PostgresURL builds the connection URL used by the migration tooling
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
