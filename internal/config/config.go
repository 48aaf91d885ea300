package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Calendar
	DefaultFiscalYearStartMonth int
	TenantTimezoneOffsetMinutes int

	// Scheduler
	PenaltyRecalcCronDay int

	// S3-backed import bundle store
	S3 S3Config

	// Exchange rate provider
	ExchangeRateAPIBase string

	// Email dispatcher
	GmailAppPassword string
}

// S3Config holds AWS S3 configuration for the import bundle store
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
	ForcePath bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	fiscalStart, err := strconv.Atoi(getEnv("DEFAULT_FISCAL_YEAR_START_MONTH", "1"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_FISCAL_YEAR_START_MONTH must be an integer: %w", err)
	}

	tzOffset, err := strconv.Atoi(getEnv("TENANT_TIMEZONE_OFFSET_MINUTES", "-300"))
	if err != nil {
		return nil, fmt.Errorf("TENANT_TIMEZONE_OFFSET_MINUTES must be an integer: %w", err)
	}

	cronDay, err := strconv.Atoi(getEnv("PENALTY_RECALC_CRON_DAY", "11"))
	if err != nil {
		return nil, fmt.Errorf("PENALTY_RECALC_CRON_DAY must be an integer: %w", err)
	}

	cfg := &Config{
		DatabaseURL:                 getEnv("DATABASE_URL", ""),
		Port:                        getEnv("PORT", "8080"),
		CORSOrigins:                 strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:                         getEnv("ENV", "development"),
		DefaultFiscalYearStartMonth: fiscalStart,
		TenantTimezoneOffsetMinutes: tzOffset,
		PenaltyRecalcCronDay:        cronDay,
		S3: S3Config{
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", "sams-import-bundles"),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			ForcePath: getEnv("S3_FORCE_PATH_STYLE", "false") == "true",
		},
		ExchangeRateAPIBase: getEnv("EXCHANGE_RATE_API_BASE", ""),
		GmailAppPassword:    getEnv("GMAIL_APP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	// DATABASE_URL is optional: leaving it unset selects the in-memory store,
	// used for local development and tests (see cmd/api and cmd/samsctl).
	if c.DefaultFiscalYearStartMonth < 1 || c.DefaultFiscalYearStartMonth > 12 {
		return fmt.Errorf("DEFAULT_FISCAL_YEAR_START_MONTH must be between 1 and 12")
	}
	if c.PenaltyRecalcCronDay < 1 || c.PenaltyRecalcCronDay > 28 {
		return fmt.Errorf("PENALTY_RECALC_CRON_DAY must be between 1 and 28")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
