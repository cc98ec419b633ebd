package contract

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/repomind/repomind/schema"
)

// Default values for configuration.
const (
	DefaultEndpoint       = "http://localhost:11434"
	DefaultModel          = "llama3:8b"
	DefaultCacheTTL       = time.Hour
	DefaultSummaryTimeout = 300 * time.Second
	DefaultChatTimeout    = 180 * time.Second
	DefaultListenAddr     = ":8080"
	DefaultRateLimit      = 1.0
	DefaultLogLevel       = "warn"
	DefaultHistoryLimit   = 20
)

// Truncation limits applied by the analysis.
const (
	CloneDepth      = 500
	MaxCommits      = 500
	MaxDependencies = 15
	MaxTreeItems    = 25
	MaxHistogramLen = 12
)

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	Endpoint string
	Model    string

	GitBackend schema.GitBackend
	TempDir    string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
	CacheTTL       time.Duration

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	LogLevel   string

	SummaryTimeout time.Duration
	ChatTimeout    time.Duration

	ListenAddr string
	RateLimit  float64
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	Endpoint         string  `mapstructure:"endpoint"`
	Model            string  `mapstructure:"model"`
	GitBackend       string  `mapstructure:"git-backend"`
	TempDir          string  `mapstructure:"temp-dir"`
	CacheBackend     string  `mapstructure:"cache-backend"`
	CacheDBConnect   string  `mapstructure:"cache-db-connect"`
	CacheTTL         string  `mapstructure:"cache-ttl"`
	HistoryBackend   string  `mapstructure:"history-backend"`
	HistoryDBConnect string  `mapstructure:"history-db-connect"`
	Output           string  `mapstructure:"output"`
	OutputFile       string  `mapstructure:"output-file"`
	Width            int     `mapstructure:"width"`
	Color            string  `mapstructure:"color"`
	LogLevel         string  `mapstructure:"log-level"`
	SummaryTimeout   string  `mapstructure:"summary-timeout"`
	ChatTimeout      string  `mapstructure:"chat-timeout"`
	Listen           string  `mapstructure:"listen"`
	RateLimit        float64 `mapstructure:"rate-limit"`
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateRemote(cfg, input); err != nil {
		return err
	}
	if err := processDurations(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend, schema.MemoryBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes a backend name, treating empty as NoneBackend.
func ParseBackend(s string) schema.DatabaseBackend {
	if strings.TrimSpace(s) == "" {
		return schema.NoneBackend
	}
	return schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
}

// validateSimpleInputs processes output and presentation fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, json, csv", input.Output)
	}

	if input.Width < 0 {
		return fmt.Errorf("width cannot be negative (received %d)", input.Width)
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(input.LogLevel))
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", input.LogLevel)
	}

	cfg.GitBackend = schema.GitBackend(strings.ToLower(input.GitBackend))
	if cfg.GitBackend == "" {
		cfg.GitBackend = schema.GoGitBackend
	}
	if _, ok := schema.ValidGitBackends[cfg.GitBackend]; !ok {
		return fmt.Errorf("invalid git backend '%s'. must be gogit, cli", input.GitBackend)
	}

	cfg.TempDir = input.TempDir
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}

	cfg.ListenAddr = input.Listen
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	cfg.RateLimit = input.RateLimit
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = DefaultRateLimit
	}
	return nil
}

// validateRemote checks the inference server settings.
func validateRemote(cfg *Config, input *ConfigRawInput) error {
	endpoint := strings.TrimSpace(input.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid endpoint '%s'. must be an http or https URL", input.Endpoint)
	}
	cfg.Endpoint = strings.TrimRight(endpoint, "/")

	cfg.Model = strings.TrimSpace(input.Model)
	if cfg.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	return nil
}

// processDurations parses the timeout and TTL strings.
func processDurations(cfg *Config, input *ConfigRawInput) error {
	var err error
	if cfg.CacheTTL, err = parseDurationOr(input.CacheTTL, DefaultCacheTTL); err != nil {
		return fmt.Errorf("invalid cache-ttl: %w", err)
	}
	if cfg.SummaryTimeout, err = parseDurationOr(input.SummaryTimeout, DefaultSummaryTimeout); err != nil {
		return fmt.Errorf("invalid summary-timeout: %w", err)
	}
	if cfg.ChatTimeout, err = parseDurationOr(input.ChatTimeout, DefaultChatTimeout); err != nil {
		return fmt.Errorf("invalid chat-timeout: %w", err)
	}
	return nil
}

// parseDurationOr parses s, falling back to def when s is empty.
func parseDurationOr(s string, def time.Duration) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive (received %s)", s)
	}
	return d, nil
}

// validateBackendConfigs validates cache and history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.MemoryBackend
	}
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be memory, sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- History Backend Validation ---
	cfg.HistoryBackend = ParseBackend(input.HistoryBackend)
	if _, ok := schema.ValidHistoryBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if err := ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}

	// Validate that cache and history use different databases
	if cfg.CacheBackend == cfg.HistoryBackend && cfg.CacheBackend != schema.NoneBackend {
		cachePath, historyPath := cfg.CacheDBConnect, cfg.HistoryDBConnect
		if cfg.CacheBackend == schema.SQLiteBackend {
			if cachePath == "" {
				cachePath = GetCacheDBFilePath()
			}
			if historyPath == "" {
				historyPath = GetHistoryDBFilePath()
			}
		}
		if cachePath == historyPath {
			return fmt.Errorf("cache and history storage must use different databases. Both resolve to %q", cachePath)
		}
	}

	return nil
}
