package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds all runtime configuration for limitbook.
type Config struct {
	LogLevel    string
	TickSize    decimal.Decimal
	DepthLevels int
	JournalDir  string // empty disables the journal
	MetricsFile string // empty disables the metrics textfile
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	tickSize, err := getDecimal("TICK_SIZE", decimal.RequireFromString("0.01"))
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_SIZE: %w", err)
	}
	if !tickSize.IsPositive() {
		return nil, fmt.Errorf("invalid TICK_SIZE: %s, must be greater than 0", tickSize)
	}

	depthLevels, err := getInt("DEPTH_LEVELS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DEPTH_LEVELS: %w", err)
	}
	if depthLevels < 1 {
		return nil, fmt.Errorf("invalid DEPTH_LEVELS: %d, must be at least 1", depthLevels)
	}

	return &Config{
		LogLevel:    logLevel,
		TickSize:    tickSize,
		DepthLevels: depthLevels,
		JournalDir:  getStr("JOURNAL_DIR", ""),
		MetricsFile: getStr("METRICS_FILE", ""),
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDecimal(key string, defaultVal decimal.Decimal) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return decimal.NewFromString(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
