// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Server     ServerConfig
	Storage    StorageConfig
	Steam      SteamConfig
	Fetch      FetchConfig
	Ranking    RankingConfig
	Catalog    CatalogConfig
	Summary    SummaryConfig
	Summarizer SummarizerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 5m, summaries can take a while)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	ShutdownWait time.Duration // Grace period for in-flight requests on shutdown (default: 30s)
	CORSOrigins  []string      // Allowed origins (default: *)
	RateLimit    float64       // Requests per second per client IP, 0 disables
	RateBurst    int
}

// StorageConfig holds on-disk locations.
type StorageConfig struct {
	// DataPath holds summaries.db, catalog.badger and search.bleve.
	DataPath string
}

// SummaryDBPath returns the SQLite database path.
func (s StorageConfig) SummaryDBPath() string { return filepath.Join(s.DataPath, "summaries.db") }

// CatalogCachePath returns the badger directory used for the catalog snapshot.
func (s StorageConfig) CatalogCachePath() string { return filepath.Join(s.DataPath, "catalog.badger") }

// SearchIndexPath returns the bleve index directory.
func (s StorageConfig) SearchIndexPath() string { return filepath.Join(s.DataPath, "search.bleve") }

// SteamConfig holds the upstream endpoints and harvest parameters.
type SteamConfig struct {
	StoreURL    string // appreviews host
	APIURL      string // GetAppList host
	PageSize    int
	ReviewCap   int
	TrimToCap   bool
	Language    string
	DayRange    int
	RateLimit   float64 // outbound requests per second per host
	RateBurst   int
	HTTPTimeout time.Duration
}

// FetchConfig holds the retry policy of the fetcher.
type FetchConfig struct {
	TLSWait     time.Duration
	EmptyWait   time.Duration
	MaxAttempts int // 0 retries forever with fixed waits
	MaxBackoff  time.Duration
}

// RankingConfig holds candidate ranking parameters.
type RankingConfig struct {
	Threshold float64
	TopK      int
}

// CatalogConfig holds catalog loading parameters.
type CatalogConfig struct {
	Refresh time.Duration
	File    string // optional local catalog, watched for changes
}

// SummaryConfig holds summary cache parameters.
type SummaryConfig struct {
	MaxAge                time.Duration
	MinRatio              float64
	PersistenceRetryDelay time.Duration
	RegenerateTimeout     time.Duration
}

// SummarizerConfig holds the language model client configuration.
type SummarizerConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxAttempts int
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("steam-reviews", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for the summary database, catalog cache and search index")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 5m)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	reviewCap := fs.String("review-cap", "", "Maximum reviews harvested per summary (default: 50)")
	maxAttempts := fs.String("fetch-max-attempts", "", "Fetch attempts before giving up, 0 retries forever (default: 5)")
	catalogFile := fs.String("catalog-file", "", "Local catalog JSON file, watched for changes")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue("", "CORS_ORIGINS", "*")),
			RateLimit:   getFloatConfigValue("", "API_RATE_LIMIT", 10),
			RateBurst:   getIntConfigValue("", "API_RATE_BURST", 20),
		},
		Storage: StorageConfig{
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Steam: SteamConfig{
			StoreURL:  getConfigValue("", "STEAM_STORE_URL", "https://store.steampowered.com"),
			APIURL:    getConfigValue("", "STEAM_API_URL", "https://api.steampowered.com"),
			PageSize:  getIntConfigValue("", "STEAM_PAGE_SIZE", 50),
			ReviewCap: getIntConfigValue(*reviewCap, "HARVEST_REVIEW_CAP", 50),
			TrimToCap: getBoolConfigValue("", "HARVEST_TRIM_TO_CAP", false),
			Language:  getConfigValue("", "STEAM_LANGUAGE", "english"),
			DayRange:  getIntConfigValue("", "STEAM_DAY_RANGE", 365),
			RateLimit: getFloatConfigValue("", "STEAM_RATE_LIMIT", 5),
			RateBurst: getIntConfigValue("", "STEAM_RATE_BURST", 10),
		},
		Fetch: FetchConfig{
			MaxAttempts: getIntConfigValue(*maxAttempts, "FETCH_MAX_ATTEMPTS", 5),
		},
		Ranking: RankingConfig{
			Threshold: getFloatConfigValue("", "RANK_THRESHOLD", 90),
			TopK:      getIntConfigValue("", "RANK_TOP_K", 30),
		},
		Catalog: CatalogConfig{
			File: getConfigValue(*catalogFile, "CATALOG_FILE", ""),
		},
		Summary: SummaryConfig{
			MinRatio: getFloatConfigValue("", "SUMMARY_MIN_RATIO", 0.9),
		},
		Summarizer: SummarizerConfig{
			APIKey:      getConfigValue("", "MISTRAL_API_KEY", ""),
			BaseURL:     getConfigValue("", "MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
			Model:       getConfigValue("", "MISTRAL_MODEL", "mistral-small-latest"),
			MaxAttempts: getIntConfigValue("", "SUMMARIZER_MAX_ATTEMPTS", 3),
		},
	}

	durations := []struct {
		flag, key, def string
		dest           *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "5m", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{"", "SERVER_SHUTDOWN_WAIT", "30s", &cfg.Server.ShutdownWait},
		{"", "STEAM_HTTP_TIMEOUT", "30s", &cfg.Steam.HTTPTimeout},
		{"", "FETCH_TLS_WAIT", "5s", &cfg.Fetch.TLSWait},
		{"", "FETCH_EMPTY_WAIT", "10s", &cfg.Fetch.EmptyWait},
		{"", "FETCH_MAX_BACKOFF", "2m", &cfg.Fetch.MaxBackoff},
		{"", "CATALOG_REFRESH", "24h", &cfg.Catalog.Refresh},
		{"", "SUMMARY_MAX_AGE", "720h", &cfg.Summary.MaxAge},
		{"", "PERSISTENCE_RETRY_DELAY", "5s", &cfg.Summary.PersistenceRetryDelay},
		{"", "SUMMARY_REGENERATE_TIMEOUT", "5m", &cfg.Summary.RegenerateTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dest = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if cfg.Catalog.File != "" {
		expanded, err := expandPath(cfg.Catalog.File, "")
		if err != nil {
			return nil, fmt.Errorf("invalid catalog file: %w", err)
		}
		cfg.Catalog.File = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	for name, raw := range map[string]string{
		"STEAM_STORE_URL":  c.Steam.StoreURL,
		"STEAM_API_URL":    c.Steam.APIURL,
		"MISTRAL_BASE_URL": c.Summarizer.BaseURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}

	switch {
	case c.Steam.PageSize < 1 || c.Steam.PageSize > 100:
		return fmt.Errorf("STEAM_PAGE_SIZE must be between 1 and 100, got %d", c.Steam.PageSize)
	case c.Steam.ReviewCap < 1:
		return fmt.Errorf("HARVEST_REVIEW_CAP must be positive, got %d", c.Steam.ReviewCap)
	case c.Fetch.MaxAttempts < 0:
		return fmt.Errorf("FETCH_MAX_ATTEMPTS cannot be negative, got %d", c.Fetch.MaxAttempts)
	case c.Ranking.Threshold < 0 || c.Ranking.Threshold >= 100:
		return fmt.Errorf("RANK_THRESHOLD must be in [0,100), got %v", c.Ranking.Threshold)
	case c.Ranking.TopK < 1:
		return fmt.Errorf("RANK_TOP_K must be positive, got %d", c.Ranking.TopK)
	case c.Summary.MinRatio < 0 || c.Summary.MinRatio > 1:
		return fmt.Errorf("SUMMARY_MIN_RATIO must be in [0,1], got %v", c.Summary.MinRatio)
	case c.Summarizer.MaxAttempts < 1:
		return fmt.Errorf("SUMMARIZER_MAX_ATTEMPTS must be positive, got %d", c.Summarizer.MaxAttempts)
	}

	// MISTRAL_API_KEY may be empty: cached summaries are still served and
	// regeneration fails with SUMMARIZER_FAILED.

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
// Defaults to ~/SteamReviews/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "SteamReviews", "data")

	expanded, err := expandPath(c.Storage.DataPath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Environment variables take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
