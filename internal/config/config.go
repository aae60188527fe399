package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	MigrationsEnabled bool

	// ClubLocation is the timezone in which recurring dates are interpreted.
	ClubLocation *time.Location

	Recurrence RecurrenceConfig
}

// RecurrenceConfig tunes the recurring-booking engine.
type RecurrenceConfig struct {
	Debounce          time.Duration
	MaxOccurrences    int
	OracleConcurrency int
	OracleTimeout     time.Duration
	SessionIdleTTL    time.Duration
	ReapSchedule      string
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("failed to load .env file: %v", err)
	}

	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Database DSN is required
	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	// JWT secret is required for validating tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	cfg.MigrationsEnabled = getEnv("MIGRATIONS_ENABLED", "true") == "true"

	tz := getEnv("CLUB_TIMEZONE", "UTC")
	cfg.ClubLocation, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid CLUB_TIMEZONE %q: %w", tz, err)
	}

	if err := loadRecurrence(&cfg.Recurrence); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadRecurrence(rc *RecurrenceConfig) error {
	var err error

	if rc.Debounce, err = getEnvAsDuration("RECURRENCE_DEBOUNCE", 400*time.Millisecond); err != nil {
		return err
	}
	if rc.MaxOccurrences, err = getEnvAsInt("RECURRENCE_MAX_OCCURRENCES", 500); err != nil {
		return err
	}
	if rc.MaxOccurrences < 1 {
		return fmt.Errorf("RECURRENCE_MAX_OCCURRENCES must be positive, got %d", rc.MaxOccurrences)
	}

	if rc.OracleConcurrency, err = getEnvAsInt("ORACLE_CONCURRENCY", 6); err != nil {
		return err
	}
	if rc.OracleConcurrency < 1 || rc.OracleConcurrency > 16 {
		return fmt.Errorf("ORACLE_CONCURRENCY must be between 1 and 16, got %d", rc.OracleConcurrency)
	}

	if rc.OracleTimeout, err = getEnvAsDuration("ORACLE_TIMEOUT", 5*time.Second); err != nil {
		return err
	}
	if rc.SessionIdleTTL, err = getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return err
	}

	rc.ReapSchedule = getEnv("SESSION_REAP_SCHEDULE", "@every 1m")
	return nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

// getEnvAsDuration parses values such as "400ms", "15m" or "1h".
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("env %s must not be negative", key)
	}

	return val, nil
}
