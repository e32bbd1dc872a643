// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"wager-market/pkg/db"
)

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort     string
	LogLevel       string
	RequestTimeout time.Duration
	MigrateOnStart bool
	DB             db.Config
	Auth           AuthConfig
}

// AuthConfig configures identity token verification. An empty JWTSecret
// disables the bearer requirement on mutation routes.
type AuthConfig struct {
	JWTSecret string
	JWTIssuer string
}

// Enabled reports whether identity tokens are required.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

// LoadConfig loads configuration from environment variables.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	dbPort, err := envInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	maxOpen, err := envInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, err
	}
	timeout, err := envDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	migrate, err := envBool("MIGRATE_ON_START", true)
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(envDefault("DB_DRIVER", db.DriverPQ))
	if driver != db.DriverPQ && driver != db.DriverPGX {
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want %q or %q", driver, db.DriverPQ, db.DriverPGX)
	}

	return &AppConfig{
		ServerPort:     envDefault("SERVER_PORT", "8080"),
		LogLevel:       envDefault("LOG_LEVEL", "info"),
		RequestTimeout: timeout,
		MigrateOnStart: migrate,
		DB: db.Config{
			Driver:       driver,
			Host:         envDefault("DB_HOST", "localhost"),
			Port:         dbPort,
			User:         envDefault("DB_USER", "user"),
			Password:     envDefault("DB_PASSWORD", "password"),
			DBName:       envDefault("DB_NAME", "wagerdb"),
			SSLMode:      envDefault("DB_SSLMODE", "disable"),
			MaxOpenConns: maxOpen,
		},
		Auth: AuthConfig{
			JWTSecret: strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")),
			JWTIssuer: strings.TrimSpace(os.Getenv("AUTH_JWT_ISSUER")),
		},
	}, nil
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
