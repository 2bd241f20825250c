package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the sandbox API and worker
type Config struct {
	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Logging Configuration
	Logging LoggingConfig

	// HTTP Configuration
	HTTP HTTPConfig

	// Token and bootstrap configuration
	Auth AuthConfig

	// Maintenance Configuration
	Maintenance MaintenanceConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port), empty disables the task queue
}

// Enabled reports whether broadcasts go through the asynq queue
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// HTTPConfig holds listener configuration
type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
}

// AuthConfig holds token lifetimes and the bootstrap account
type AuthConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	InvitationTTL   time.Duration

	AdminEmail     string
	AdminPassword  string
	SeedVolunteers int
}

// MaintenanceConfig holds the sweeper schedule
type MaintenanceConfig struct {
	SweepSchedule string // robfig/cron schedule, e.g. "@every 1h"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	accessTTL, err := durationEnv("ACCESS_TOKEN_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	refreshTTL, err := durationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}
	invitationTTL, err := durationEnv("INVITATION_TTL", 72*time.Hour)
	if err != nil {
		return nil, err
	}

	seed := 0
	if v := os.Getenv("SANDBOX_SEED_VOLUNTEERS"); v != "" {
		seed, err = strconv.Atoi(v)
		if err != nil || seed < 0 {
			return nil, fmt.Errorf("invalid SANDBOX_SEED_VOLUNTEERS %q: expected a non-negative number", v)
		}
	}

	var origins []string
	for _, origin := range strings.Split(envOr("CORS_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			URL: envOr("DATABASE_URL", "pcadmin-sandbox.sqlite"),
		},
		Redis: RedisConfig{
			Address: os.Getenv("REDIS_ADDRESS"),
		},
		Logging: LoggingConfig{
			Level:  envOr("LOG_LEVEL", "info"),
			Format: envOr("LOG_FORMAT", "json"),
		},
		HTTP: HTTPConfig{
			Addr:        envOr("SANDBOX_ADDR", ":8080"),
			CORSOrigins: origins,
		},
		Auth: AuthConfig{
			AccessTokenTTL:  accessTTL,
			RefreshTokenTTL: refreshTTL,
			InvitationTTL:   invitationTTL,
			AdminEmail:      os.Getenv("SANDBOX_ADMIN_EMAIL"),
			AdminPassword:   os.Getenv("SANDBOX_ADMIN_PASSWORD"),
			SeedVolunteers:  seed,
		},
		Maintenance: MaintenanceConfig{
			SweepSchedule: envOr("SWEEP_SCHEDULE", "@every 1h"),
		},
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: expected a positive duration such as 5m", key, v)
	}
	return d, nil
}
