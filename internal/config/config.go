package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Redis (optional; status counts are not cached when empty)
	RedisAddress          string
	RedisPassword         string
	StatusCacheTTLSeconds int

	// Bulk operations
	BulkChunkSize   int
	BulkConcurrency int

	// Cutoff-start auto seeding
	AutoSeedEnabled bool
	AutoSeedCron    string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		WorkerCount:           getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:        getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:             getEnv("SENTRY_DSN", ""),
		RedisAddress:          getEnv("REDIS_ADDRESS", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		StatusCacheTTLSeconds: getEnvAsInt("STATUS_CACHE_TTL_SECONDS", 30),
		BulkChunkSize:         getEnvAsInt("BULK_CHUNK_SIZE", 200),
		BulkConcurrency:       getEnvAsInt("BULK_CONCURRENCY", 8),
		AutoSeedEnabled:       getEnvAsBool("AUTO_SEED_ENABLED", false),
		AutoSeedCron:          getEnv("AUTO_SEED_CRON", "0 1 1,16 * *"),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.BulkChunkSize < 1 {
		cfg.BulkChunkSize = 200
	}
	if cfg.BulkConcurrency < 1 {
		cfg.BulkConcurrency = 1
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
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

// getEnvAsBool reads an environment variable as boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
