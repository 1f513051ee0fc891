package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Remote ledger service
	Token   string
	BaseURL string

	// Sync behavior
	Staleness time.Duration

	// Billing period: day of month the reporting period starts on.
	PeriodStartDay int

	// Transfer analysis mode preset name.
	AnalysisMode string

	// Forecast presentation
	RoundBalances bool

	// Local snapshot mirror. Empty disables the mirror entirely.
	SQLiteDBPath string

	// AMQP change announcements. Empty URL disables publishing.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets audit trail
	GoogleSpreadsheetID string
	GoogleAuditSheet    string

	// Audit sink selection
	AuditBackend string
}

func Load() *Config {
	cfg := &Config{
		Token:   getEnv("ZENMONEY_TOKEN", ""),
		BaseURL: getEnv("ZENMONEY_BASE_URL", "https://api.zenmoney.ru"),

		Staleness:      getEnvDuration("SYNC_STALENESS", 5*time.Minute),
		PeriodStartDay: getEnvInt("PERIOD_START_DAY", 1),
		AnalysisMode:   getEnv("ANALYSIS_MODE", "income_vs_expense"),
		RoundBalances:  getEnvBool("ROUND_BALANCES", false),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "zenledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entity_changes"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleAuditSheet:    getEnv("GOOGLE_AUDIT_SHEET_NAME", "Audit"),

		AuditBackend: getEnv("AUDIT_BACKEND", "memory"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.Token == "" {
		errors = append(errors, "ZENMONEY_TOKEN is required")
	}

	if c.BaseURL == "" {
		errors = append(errors, "base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.BaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid base URL '%s': %v", c.BaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.Staleness < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync staleness %v: must be at least 1 second", c.Staleness))
	} else if c.Staleness > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync staleness %v: must be at most 24 hours", c.Staleness))
	}

	if c.PeriodStartDay < 1 || c.PeriodStartDay > 28 {
		errors = append(errors, fmt.Sprintf("invalid period start day %d: must be between 1 and 28", c.PeriodStartDay))
	}

	validModes := []string{"balance_vs_expense", "income_vs_expense"}
	isValidMode := false
	for _, mode := range validModes {
		if c.AnalysisMode == mode {
			isValidMode = true
			break
		}
	}
	if !isValidMode {
		errors = append(errors, fmt.Sprintf("invalid analysis mode '%s': must be one of %v", c.AnalysisMode, validModes))
	}

	// Validate SQLite configuration if the mirror is enabled
	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	validBackends := []string{"memory", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.AuditBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid audit backend '%s': must be one of %v", c.AuditBackend, validBackends))
	}

	// Validate Google Sheets configuration if the audit trail targets it
	if c.AuditBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets audit backend")
		}
		if c.GoogleAuditSheet == "" {
			errors = append(errors, "Google audit sheet name is required when using sheets audit backend")
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
