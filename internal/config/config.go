package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds environment-derived settings for the game server process.
type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL      string
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     string

	// Redis (optional; enables cross-process subscriber fan-out)
	RedisURL      string
	RedisPassword string

	// Server
	Port string

	// Authentication
	JWTSecret   string
	JWTIssuer   string
	JWTTokenTTL int // minutes

	// State manager tuning
	MaxAIIterations  int
	ShutdownTimeoutS int
}

func Load() *Config {
	return &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),

		DatabaseURL:      getEnvOrDefault("DATABASE_URL", ""),
		PostgresDB:       getEnvOrDefault("POSTGRES_DB", "gameserver"),
		PostgresUser:     getEnvOrDefault("POSTGRES_USER", "gameserver"),
		PostgresPassword: getEnvOrDefault("POSTGRES_PASSWORD", "gameserver"),
		PostgresHost:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvOrDefault("POSTGRES_PORT", "5432"),

		RedisURL:      getEnvOrDefault("REDIS_URL", ""),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		Port: getEnvOrDefault("PORT", "8080"),

		JWTSecret:   getEnvOrDefault("JWT_SECRET", "game-server-secret-key-change-in-production"),
		JWTIssuer:   getEnvOrDefault("JWT_ISSUER", "turngame"),
		JWTTokenTTL: getEnvIntOrDefault("JWT_TOKEN_TTL_MINUTES", 24*60),

		MaxAIIterations:  getEnvIntOrDefault("MAX_AI_ITERATIONS", 10),
		ShutdownTimeoutS: getEnvIntOrDefault("SHUTDOWN_TIMEOUT_SECONDS", 30),
	}
}

// GetDatabaseURL returns DatabaseURL if set, otherwise assembles one from
// the discrete Postgres fields. Repository implementations disagree on
// whether DATABASE_URL is required; the core is agnostic, so both
// paths are supported here.
func (c *Config) GetDatabaseURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
