package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "shogun.yaml"

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "SHOGUN_PORT")
	setString(&cfg.Server.CORSOrigin, "SHOGUN_CORS_ORIGIN")
	setString(&cfg.Server.APIKey, "SHOGUN_API_KEY")
	setFloat64(&cfg.Server.RateLimitRPS, "SHOGUN_RATE_LIMIT_RPS")
	setInt(&cfg.Server.RateLimitBurst, "SHOGUN_RATE_LIMIT_BURST")
	setDuration(&cfg.Server.RequestTimeout, "SHOGUN_REQUEST_TIMEOUT")
	setString(&cfg.Store.Backend, "SHOGUN_STORE")

	// Postgres
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "SHOGUN_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "SHOGUN_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "SHOGUN_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "SHOGUN_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "SHOGUN_PG_HEALTH_CHECK")
	setBool(&cfg.Postgres.AutoMigrate, "SHOGUN_PG_AUTO_MIGRATE")

	// NATS
	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "SHOGUN_NATS_ENABLED")
	setInt(&cfg.NATS.BreakerMaxFailures, "SHOGUN_NATS_BREAKER_MAX_FAILURES")
	setDuration(&cfg.NATS.BreakerTimeout, "SHOGUN_NATS_BREAKER_TIMEOUT")

	setString(&cfg.Logging.Level, "SHOGUN_LOG_LEVEL")
	setString(&cfg.Logging.Service, "SHOGUN_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "SHOGUN_LOG_ASYNC")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "SHOGUN_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "SHOGUN_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "SHOGUN_CACHE_L2_TTL")
	setDuration(&cfg.Cache.TenantTTL, "SHOGUN_CACHE_TENANT_TTL")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "SHOGUN_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "SHOGUN_IDEMPOTENCY_TTL")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "SHOGUN_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "SHOGUN_OTEL_INSECURE")
	setFloat64(&cfg.OTEL.SampleRate, "SHOGUN_OTEL_SAMPLE_RATE")

	setString(&cfg.Tenancy.DomainSuffix, "SHOGUN_DOMAIN_SUFFIX")
	setString(&cfg.Tenancy.BaseCurrency, "SHOGUN_BASE_CURRENCY")
	setInt(&cfg.Tenancy.MaxConcurrentPromotions, "SHOGUN_MAX_CONCURRENT_PROMOTIONS")
	setString(&cfg.Accounting.Method, "SHOGUN_ACCOUNTING_METHOD")
	setInt(&cfg.Accounting.FYStartMonth, "SHOGUN_FY_START_MONTH")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	switch cfg.Store.Backend {
	case BackendPostgres:
		if cfg.Postgres.DSN == "" {
			return errors.New("postgres.dsn is required")
		}
		if cfg.Postgres.MaxConns < 1 {
			return errors.New("postgres.max_conns must be >= 1")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendPostgres, BackendMemory, cfg.Store.Backend)
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if cfg.Server.RateLimitRPS < 0 {
		return errors.New("server.rate_limit_rps must be >= 0")
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst < 1 {
		return errors.New("server.rate_limit_burst must be >= 1 when rate limiting is enabled")
	}
	if cfg.Tenancy.MaxConcurrentPromotions < 1 {
		return errors.New("tenancy.max_concurrent_promotions must be >= 1")
	}
	if cfg.NATS.BreakerMaxFailures < 1 {
		return errors.New("nats.breaker_max_failures must be >= 1")
	}
	if cfg.Cache.L1MaxSizeMB < 1 {
		return errors.New("cache.l1_max_size_mb must be >= 1")
	}
	if cfg.OTEL.SampleRate < 0 || cfg.OTEL.SampleRate > 1 {
		return errors.New("otel.sample_rate must be between 0 and 1")
	}
	if !isCurrencyCode(cfg.Tenancy.BaseCurrency) {
		return fmt.Errorf("tenancy.base_currency must be a 3-letter ISO 4217 code, got %q", cfg.Tenancy.BaseCurrency)
	}
	if cfg.Accounting.Method != "cash" && cfg.Accounting.Method != "accrual" {
		return fmt.Errorf("accounting.method must be cash or accrual, got %q", cfg.Accounting.Method)
	}
	if cfg.Accounting.FYStartMonth < 1 || cfg.Accounting.FYStartMonth > 12 {
		return errors.New("accounting.fy_start_month must be between 1 and 12")
	}
	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
