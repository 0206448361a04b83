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
const DefaultConfigFile = "brandloom.yaml"

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
	setString(&cfg.Server.Port, "BRANDLOOM_PORT")
	setString(&cfg.Server.CORSOrigin, "BRANDLOOM_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "BRANDLOOM_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "BRANDLOOM_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "BRANDLOOM_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "BRANDLOOM_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "BRANDLOOM_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "BRANDLOOM_LOG_LEVEL")
	setString(&cfg.Logging.Service, "BRANDLOOM_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "BRANDLOOM_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "BRANDLOOM_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "BRANDLOOM_BREAKER_TIMEOUT")
	setFloat64(&cfg.Rate.RequestsPerSecond, "BRANDLOOM_RATE_RPS")
	setInt(&cfg.Rate.Burst, "BRANDLOOM_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "BRANDLOOM_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "BRANDLOOM_RATE_MAX_IDLE_TIME")

	// Review pipeline
	setFloat64(&cfg.Review.PassThreshold, "BRANDLOOM_REVIEW_PASS_THRESHOLD")
	setDuration(&cfg.Review.SnapshotTTL, "BRANDLOOM_REVIEW_SNAPSHOT_TTL")
	setInt(&cfg.Review.MaxConcurrentFetches, "BRANDLOOM_REVIEW_MAX_FETCHES")
	setDuration(&cfg.Review.FetchTimeout, "BRANDLOOM_REVIEW_FETCH_TIMEOUT")

	// Idempotency
	setString(&cfg.Idempotency.Bucket, "BRANDLOOM_IDEMPOTENCY_BUCKET")
	setDuration(&cfg.Idempotency.TTL, "BRANDLOOM_IDEMPOTENCY_TTL")

	// Cache
	setInt64(&cfg.Cache.L1MaxSizeMB, "BRANDLOOM_CACHE_L1_SIZE_MB")
	setString(&cfg.Cache.L2Bucket, "BRANDLOOM_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "BRANDLOOM_CACHE_L2_TTL")

	// Webhook
	setString(&cfg.Webhook.GeneratorSecret, "BRANDLOOM_WEBHOOK_GENERATOR_SECRET")

	// Telemetry
	setString(&cfg.Telemetry.Endpoint, "BRANDLOOM_OTLP_ENDPOINT")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Review.PassThreshold <= 0 || cfg.Review.PassThreshold > 1 {
		return errors.New("review.pass_threshold must be in (0, 1]")
	}
	if cfg.Review.MaxConcurrentFetches < 1 {
		return errors.New("review.max_concurrent_fetches must be >= 1")
	}
	return nil
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
