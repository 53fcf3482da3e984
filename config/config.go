// Package config loads the server and CLI settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/warp/settlement-engine/generic"
)

type Config struct {
	// HTTP Server
	Port               string        `validate:"required,numeric"`
	CORSAllowedOrigins []string      `validate:"min=1,dive,required"`
	ShutdownTimeout    time.Duration `validate:"gte=1s,lte=5m"`

	// Database
	SQLiteDBPath string `validate:"required"`

	// Logging
	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`

	// Billing periods: 1 means calendar years.
	BillingYearStartMonth int `validate:"gte=1,lte=12"`
}

// Load reads .env (if present) and the environment. Unparseable numbers
// fall back to their defaults; Validate reports out-of-range values.
func Load() *Config {
	// Missing .env is normal in production.
	_ = godotenv.Load()

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		ShutdownTimeout:       getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SQLiteDBPath:          getEnv("SQLITE_DB_PATH", "./data/settlement.db"),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", "info")),
		BillingYearStartMonth: getEnvInt("BILLING_YEAR_START_MONTH", 1),
	}
}

var validate = validator.New()

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, describe(fe))
		}
	}

	if port, err := strconv.Atoi(c.Port); err == nil && (port < 1 || port > 65535) {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath != "" && c.SQLiteDBPath != ":memory:" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "Port":
		return fmt.Sprintf("invalid port '%v': must be a number", fe.Value())
	case "ShutdownTimeout":
		return fmt.Sprintf("invalid shutdown timeout %v: must be between 1s and 5m", fe.Value())
	case "LogLevel":
		return fmt.Sprintf("invalid log level '%v'", fe.Value())
	case "BillingYearStartMonth":
		return fmt.Sprintf("invalid billing year start month %v: must be between 1 and 12", fe.Value())
	case "CORSAllowedOrigins":
		return "at least one CORS origin is required"
	case "SQLiteDBPath":
		return "SQLite database path cannot be empty"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// Periods returns the billing period layout.
func (c *Config) Periods() generic.PeriodConfig {
	if c.BillingYearStartMonth <= 1 {
		return generic.PeriodConfig{Type: generic.PeriodCalendarYear}
	}
	return generic.PeriodConfig{
		Type:                 generic.PeriodFiscalYear,
		FiscalYearStartMonth: time.Month(c.BillingYearStartMonth),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
