package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	minLookupTimeoutMS = 500
	minScreenTimeoutMS = 1000
	minListsTimeoutMS  = 500
)

// ConsoleConfig holds configuration for the screening console.
type ConsoleConfig struct {
	// Listener
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Logging
	LogLevel string
	LogFile  string

	// Upstream services
	SearchURL         string
	ScreenBaseURL     string
	ScreenDefaultPath string
	ListsURL          string

	// Per-call deadlines
	LookupTimeoutMS int
	ScreenTimeoutMS int
	ListsTimeoutMS  int

	// Rendering
	AlgorithmCatalog string
	ReportSchema     string
	CurrencySymbol   string

	NotifyURL           string
	UpstreamLogMaxBytes int
}

// LoadConsole reads console configuration from environment variables and an
// optional .env file.
func LoadConsole() (*ConsoleConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &ConsoleConfig{
		BindAddr:            getEnvOrDefault("CONSOLE_BIND_ADDR", "127.0.0.1:3000"),
		PortCandidates:      getEnvListOrDefault("CONSOLE_PORT_CANDIDATES", []string{"127.0.0.1:3001", "127.0.0.1:3002", "127.0.0.1:3003"}),
		PortAutoFallback:    getEnvBoolOrDefault("CONSOLE_PORT_AUTO_FALLBACK", true),
		LogLevel:            strings.ToLower(getEnvOrDefault("CONSOLE_LOG_LEVEL", "info")),
		LogFile:             getEnvOrDefault("CONSOLE_LOG_FILE", "logs/console.log"),
		SearchURL:           getEnvOrDefault("SEARCH_URL", "http://127.0.0.1:5000/search"),
		ScreenBaseURL:       getEnvOrDefault("SCREEN_BASE_URL", "http://127.0.0.1:5005"),
		ScreenDefaultPath:   getEnvOrDefault("SCREEN_DEFAULT_PATH", "/api/shooting_star"),
		ListsURL:            getEnvOrDefault("LISTS_URL", "http://127.0.0.1:5000/api/lists"),
		LookupTimeoutMS:     getEnvIntOrDefault("LOOKUP_TIMEOUT_MS", 5000),
		ScreenTimeoutMS:     getEnvIntOrDefault("SCREEN_TIMEOUT_MS", 60000),
		ListsTimeoutMS:      getEnvIntOrDefault("LISTS_TIMEOUT_MS", 5000),
		AlgorithmCatalog:    getEnvOrDefault("ALGORITHM_CATALOG", ""),
		ReportSchema:        strings.ToLower(getEnvOrDefault("REPORT_SCHEMA", "union")),
		CurrencySymbol:      getEnvOrDefault("CURRENCY_SYMBOL", "₹"),
		NotifyURL:           getEnvOrDefault("NOTIFY_URL", ""),
		UpstreamLogMaxBytes: getEnvIntOrDefault("UPSTREAM_LOG_MAX_BYTES", 4096),
	}
	if cfg.LookupTimeoutMS < minLookupTimeoutMS {
		cfg.LookupTimeoutMS = minLookupTimeoutMS
	}
	if cfg.ScreenTimeoutMS < minScreenTimeoutMS {
		cfg.ScreenTimeoutMS = minScreenTimeoutMS
	}
	if cfg.ListsTimeoutMS < minListsTimeoutMS {
		cfg.ListsTimeoutMS = minListsTimeoutMS
	}
	if cfg.UpstreamLogMaxBytes < 0 {
		cfg.UpstreamLogMaxBytes = 0
	}
	return cfg, nil
}

// LookupTimeout is the per-call deadline for stock searches.
func (c *ConsoleConfig) LookupTimeout() time.Duration {
	return time.Duration(c.LookupTimeoutMS) * time.Millisecond
}

func (c *ConsoleConfig) ScreenTimeout() time.Duration {
	return time.Duration(c.ScreenTimeoutMS) * time.Millisecond
}

func (c *ConsoleConfig) ListsTimeout() time.Duration {
	return time.Duration(c.ListsTimeoutMS) * time.Millisecond
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvListOrDefault splits a comma-separated value, dropping blank entries.
func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
