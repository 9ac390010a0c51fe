package checkpoint

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds Postgres connection settings for the checkpoint store.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DSN builds a libpq-style connection string from cfg.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LoadConfigFromEnv loads Postgres configuration from environment variables,
// with the same defaults a local development stack uses.
func LoadConfigFromEnv() (Config, error) {
	port, err := strconv.Atoi(getEnvOrDefault("CHECKPOINT_DB_PORT", "5432"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CHECKPOINT_DB_PORT: %w", err)
	}

	maxOpen, _ := strconv.Atoi(getEnvOrDefault("CHECKPOINT_DB_MAX_OPEN_CONNS", "25"))
	maxIdle, _ := strconv.Atoi(getEnvOrDefault("CHECKPOINT_DB_MAX_IDLE_CONNS", "10"))

	maxLifetime, err := time.ParseDuration(getEnvOrDefault("CHECKPOINT_DB_CONN_MAX_LIFETIME", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CHECKPOINT_DB_CONN_MAX_LIFETIME: %w", err)
	}
	maxIdleTime, err := time.ParseDuration(getEnvOrDefault("CHECKPOINT_DB_CONN_MAX_IDLE_TIME", "15m"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid CHECKPOINT_DB_CONN_MAX_IDLE_TIME: %w", err)
	}

	cfg := Config{
		Host:            getEnvOrDefault("CHECKPOINT_DB_HOST", "localhost"),
		Port:            port,
		User:            getEnvOrDefault("CHECKPOINT_DB_USER", "leadrouter"),
		Password:        os.Getenv("CHECKPOINT_DB_PASSWORD"),
		Database:        getEnvOrDefault("CHECKPOINT_DB_NAME", "leadrouter"),
		SSLMode:         getEnvOrDefault("CHECKPOINT_DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: maxLifetime,
		ConnMaxIdleTime: maxIdleTime,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cfg for obviously broken pool settings before a connection
// attempt is made.
func (c Config) Validate() error {
	if c.Password == "" {
		return fmt.Errorf("CHECKPOINT_DB_PASSWORD is required")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("CHECKPOINT_DB_MAX_OPEN_CONNS must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("CHECKPOINT_DB_MAX_IDLE_CONNS (%d) cannot exceed CHECKPOINT_DB_MAX_OPEN_CONNS (%d)",
			c.MaxIdleConns, c.MaxOpenConns)
	}
	if c.MaxIdleConns < 0 {
		return fmt.Errorf("CHECKPOINT_DB_MAX_IDLE_CONNS cannot be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
