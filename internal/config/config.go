package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	LogFormat string
	LogLevel  string

	BackendBaseURL      string
	BackendTimeout      time.Duration
	BackendReadRetries  int
	BackendPageSize     int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	DraftTTL          time.Duration
	DraftLockTTL      time.Duration
	CatalogCacheTTL   time.Duration
	DashboardCacheTTL time.Duration
	DashboardTimezone string
	IdempotencyTTL    time.Duration

	RateLimit string

	KafkaBrokers      []string
	EventsTopicPrefix string
	WorkerConcurrency int

	OTLPEndpoint string
	ServiceName  string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),

		BackendBaseURL:      strings.TrimRight(strings.TrimSpace(k.String("BACKEND_BASE_URL")), "/"),
		BackendTimeout:      parseDuration(k.String("BACKEND_TIMEOUT"), "5s"),
		BackendReadRetries:  parseInt(k.String("BACKEND_READ_RETRIES"), 2),
		BackendPageSize:     parseInt(k.String("BACKEND_PAGE_SIZE"), 10),
		BreakerFailureRatio: parseFloat(k.String("BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:      parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),

		DraftTTL:          parseDuration(k.String("DRAFT_TTL"), "12h"),
		DraftLockTTL:      parseDuration(k.String("DRAFT_LOCK_TTL"), "5s"),
		CatalogCacheTTL:   parseDuration(k.String("CATALOG_CACHE_TTL"), "30s"),
		DashboardCacheTTL: parseDuration(k.String("DASHBOARD_CACHE_TTL"), "60s"),
		DashboardTimezone: valueOrDefault(k.String("DASHBOARD_TIMEZONE"), "America/Argentina/Buenos_Aires"),
		IdempotencyTTL:    parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		RateLimit: valueOrDefault(k.String("RATE_LIMIT"), "120-M"),

		KafkaBrokers:      splitAndTrim(k.String("KAFKA_BROKERS")),
		EventsTopicPrefix: valueOrDefault(k.String("EVENTS_TOPIC_PREFIX"), "pos"),
		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 4),

		OTLPEndpoint: strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		ServiceName:  valueOrDefault(k.String("OTEL_SERVICE_NAME"), "pos-admin"),
	}

	if cfg.BackendBaseURL == "" {
		return nil, errors.New("BACKEND_BASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if _, err := time.LoadLocation(cfg.DashboardTimezone); err != nil {
		return nil, fmt.Errorf("DASHBOARD_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// Location resolves the dashboard timezone. Load already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DashboardTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
