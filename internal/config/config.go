package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Server
	APIPort int

	// Owner identity (the signed-in account this instance mirrors)
	OwnerID string

	// Provider gateway
	ProviderBaseURL string
	ProviderToken   string
	ProviderQPS     float64
	PageSize        int
	MaxPages        int
	ProviderTimeout time.Duration

	// Sync engine
	SyncInterval      time.Duration
	MinSyncInterval   time.Duration
	MessagesPerFolder int
	SnapshotTTL       time.Duration
	DebounceWindow    time.Duration

	// Contact propagation
	ContactBatchSize  int
	ContactBatchDelay time.Duration
	RetryBaseDelay    time.Duration
	RetryMaxAttempts  int

	// Contact exclusion policy
	ExcludePrefixes []string
	ExcludeDomains  []string
	IncludePrefixes []string

	// AI enrichment (optional)
	AIEndpoint    string
	AIAPIKey      string
	AIModel       string
	AIEnrichLimit int

	// Logging
	LogLevel string

	// Security
	APIKey         string
	AllowedOrigins string
	AppEnv         string

	// Rate Limiting
	RateLimitRequests float64
	RateLimitBurst    int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Required: DATABASE_URL
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required but not set")
	}

	// Required: OWNER_ID
	cfg.OwnerID = os.Getenv("OWNER_ID")
	if cfg.OwnerID == "" {
		return nil, fmt.Errorf("OWNER_ID is required but not set")
	}

	// Required: PROVIDER_BASE_URL
	cfg.ProviderBaseURL = strings.TrimRight(os.Getenv("PROVIDER_BASE_URL"), "/")
	if cfg.ProviderBaseURL == "" {
		return nil, fmt.Errorf("PROVIDER_BASE_URL is required but not set")
	}
	cfg.ProviderToken = os.Getenv("PROVIDER_TOKEN")

	// API_PORT (default: 8080)
	apiPort := os.Getenv("API_PORT")
	if apiPort == "" {
		cfg.APIPort = 8080
	} else {
		port, err := strconv.Atoi(apiPort)
		if err != nil {
			return nil, fmt.Errorf("API_PORT must be a valid integer: %w", err)
		}
		cfg.APIPort = port
	}

	// Provider gateway tuning
	cfg.ProviderQPS = floatFromEnv("PROVIDER_QPS", 5.0)
	cfg.PageSize = intFromEnv("PROVIDER_PAGE_SIZE", 50)
	cfg.MaxPages = intFromEnv("PROVIDER_MAX_PAGES", 10)
	cfg.ProviderTimeout = secondsFromEnv("PROVIDER_TIMEOUT_SECONDS", 30*time.Second)

	// Sync engine tuning
	cfg.SyncInterval = secondsFromEnv("SYNC_INTERVAL_SECONDS", 5*time.Minute)
	cfg.MinSyncInterval = secondsFromEnv("MIN_SYNC_INTERVAL_SECONDS", 30*time.Second)
	cfg.MessagesPerFolder = intFromEnv("MESSAGES_PER_FOLDER", 50)
	cfg.SnapshotTTL = secondsFromEnv("SNAPSHOT_TTL_SECONDS", 5*time.Minute)
	cfg.DebounceWindow = millisFromEnv("NOTIFY_DEBOUNCE_MS", 100*time.Millisecond)

	// Contact propagation tuning
	cfg.ContactBatchSize = intFromEnv("CONTACT_BATCH_SIZE", 10)
	cfg.ContactBatchDelay = millisFromEnv("CONTACT_BATCH_DELAY_MS", time.Second)
	cfg.RetryBaseDelay = millisFromEnv("RETRY_BASE_DELAY_MS", 500*time.Millisecond)
	cfg.RetryMaxAttempts = intFromEnv("RETRY_MAX_ATTEMPTS", 3)

	// Contact exclusion policy
	cfg.ExcludePrefixes = splitCSV(os.Getenv("EXCLUDE_PREFIXES"))
	cfg.ExcludeDomains = splitCSV(os.Getenv("EXCLUDE_DOMAINS"))
	cfg.IncludePrefixes = splitCSV(os.Getenv("INCLUDE_PREFIXES"))

	// AI enrichment (optional; empty endpoint disables it)
	cfg.AIEndpoint = os.Getenv("AI_ENDPOINT")
	cfg.AIAPIKey = os.Getenv("AI_API_KEY")
	cfg.AIModel = os.Getenv("AI_MODEL")
	cfg.AIEnrichLimit = intFromEnv("AI_ENRICH_LIMIT", 10)

	// LOG_LEVEL (default: info)
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Security configuration
	cfg.APIKey = os.Getenv("API_KEY")
	cfg.AllowedOrigins = os.Getenv("ALLOWED_ORIGINS")
	cfg.AppEnv = os.Getenv("APP_ENV")
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}

	// Rate limiting configuration
	cfg.RateLimitRequests = floatFromEnv("RATE_LIMIT_REQUESTS", 10.0)
	cfg.RateLimitBurst = intFromEnv("RATE_LIMIT_BURST", 20)

	return cfg, nil
}

// LoadWithValidation loads and validates configuration, failing fast on errors
func LoadWithValidation() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Production-specific validation
	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProduction(); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DatabaseURL cannot be empty")
	}
	if c.OwnerID == "" {
		return fmt.Errorf("OwnerID cannot be empty")
	}
	if c.ProviderBaseURL == "" {
		return fmt.Errorf("ProviderBaseURL cannot be empty")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("APIPort must be between 1 and 65535")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("PageSize must be positive")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("MaxPages must be positive")
	}
	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("SnapshotTTL must be positive")
	}
	if c.ContactBatchSize <= 0 {
		return fmt.Errorf("ContactBatchSize must be positive")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("RetryMaxAttempts must be at least 1")
	}
	return nil
}

// ValidateProduction performs additional validation for production environment
func (c *Config) ValidateProduction() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY is required in production")
	}

	if c.ProviderToken == "" {
		return fmt.Errorf("PROVIDER_TOKEN is required in production")
	}

	if c.AllowedOrigins == "" {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}

	// Check for wildcard in production
	if strings.Contains(c.AllowedOrigins, "*") {
		return fmt.Errorf("wildcard (*) origins are not allowed in production")
	}

	// Check for sslmode=disable in database URL
	if strings.Contains(c.DatabaseURL, "sslmode=disable") {
		return fmt.Errorf("sslmode=disable is not allowed in production")
	}

	return nil
}

// Origins returns the allowed CORS/websocket origins as a slice. Wildcards
// are stripped in production; an empty result falls back to localhost
// development.
func (c *Config) Origins() []string {
	origins := make([]string, 0, 4)
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if c.AppEnv == "production" && origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

// LogConfig logs configuration values (excluding secrets)
func (c *Config) LogConfig(logger *slog.Logger) {
	logger.Info("configuration loaded",
		slog.Int("api_port", c.APIPort),
		slog.String("owner_id", c.OwnerID),
		slog.String("provider_base_url", c.ProviderBaseURL),
		slog.Bool("provider_token_set", c.ProviderToken != ""),
		slog.Float64("provider_qps", c.ProviderQPS),
		slog.Int("page_size", c.PageSize),
		slog.Int("max_pages", c.MaxPages),
		slog.Duration("sync_interval", c.SyncInterval),
		slog.Duration("min_sync_interval", c.MinSyncInterval),
		slog.Int("messages_per_folder", c.MessagesPerFolder),
		slog.Duration("snapshot_ttl", c.SnapshotTTL),
		slog.Int("contact_batch_size", c.ContactBatchSize),
		slog.Duration("contact_batch_delay", c.ContactBatchDelay),
		slog.Bool("ai_enrichment_enabled", c.AIEndpoint != ""),
		slog.String("log_level", c.LogLevel),
		slog.String("app_env", c.AppEnv),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Bool("allowed_origins_set", c.AllowedOrigins != ""),
		slog.Float64("rate_limit_rps", c.RateLimitRequests),
		slog.Int("rate_limit_burst", c.RateLimitBurst),
	)
}

// intFromEnv reads an integer env var, falling back to def when unset or invalid
func intFromEnv(key string, def int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

// floatFromEnv reads a float env var, falling back to def when unset or invalid
func floatFromEnv(key string, def float64) float64 {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return def
}

// secondsFromEnv reads an integer-seconds env var as a duration
func secondsFromEnv(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return time.Duration(v) * time.Second
		}
	}
	return def
}

// millisFromEnv reads an integer-milliseconds env var as a duration
func millisFromEnv(key string, def time.Duration) time.Duration {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return time.Duration(v) * time.Millisecond
		}
	}
	return def
}

// splitCSV splits a comma-separated env value into trimmed, lowercased,
// non-empty entries
func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
