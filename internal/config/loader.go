package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "menuforge.yaml"

// DefaultEnvFile is the optional dotenv file loaded before the environment overlay.
const DefaultEnvFile = ".env"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	if err := loadDotEnv(DefaultEnvFile); err != nil {
		return nil, fmt.Errorf("config dotenv: %w", err)
	}
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

// loadDotEnv populates the process environment from a dotenv file without
// overriding variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
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
	setString(&cfg.Server.Port, "MENUFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "MENUFORGE_CORS_ORIGIN")
	setFloat(&cfg.Server.PublicRate, "MENUFORGE_PUBLIC_RATE")
	setInt(&cfg.Server.PublicBurst, "MENUFORGE_PUBLIC_BURST")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "MENUFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "MENUFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "MENUFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "MENUFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "MENUFORGE_PG_HEALTH_CHECK")
	setBool(&cfg.NATS.Enabled, "MENUFORGE_NATS_ENABLED")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.NATS.Stream, "MENUFORGE_NATS_STREAM")
	setString(&cfg.Logging.Level, "MENUFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "MENUFORGE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "MENUFORGE_LOG_ASYNC")
	setInt(&cfg.Breaker.MaxFailures, "MENUFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "MENUFORGE_BREAKER_TIMEOUT")

	// Auth
	setInt(&cfg.Auth.BcryptCost, "MENUFORGE_BCRYPT_COST")
	setInt(&cfg.Auth.MinPasswordLength, "MENUFORGE_MIN_PASSWORD_LENGTH")
	setString(&cfg.Auth.AdminEmail, "MENUFORGE_ADMIN_EMAIL")
	setString(&cfg.Auth.AdminPassword, "MENUFORGE_ADMIN_PASSWORD")

	// Public URLs and QR rendering
	setString(&cfg.Public.BaseURL, "MENUFORGE_PUBLIC_BASE_URL")
	setInt(&cfg.QR.Size, "MENUFORGE_QR_SIZE")
	setInt(&cfg.QR.Margin, "MENUFORGE_QR_MARGIN")
	setString(&cfg.QR.Foreground, "MENUFORGE_QR_FOREGROUND")
	setString(&cfg.QR.Background, "MENUFORGE_QR_BACKGROUND")
	setString(&cfg.QR.Recovery, "MENUFORGE_QR_RECOVERY")

	// Geo
	setString(&cfg.Geo.TrustedHeader, "MENUFORGE_GEO_HEADER")
	setString(&cfg.Geo.LookupURL, "MENUFORGE_GEO_LOOKUP_URL")
	setDuration(&cfg.Geo.Timeout, "MENUFORGE_GEO_TIMEOUT")

	// Cache
	setBool(&cfg.Cache.Enabled, "MENUFORGE_CACHE_ENABLED")
	setInt64(&cfg.Cache.L1MaxSizeMB, "MENUFORGE_CACHE_L1_SIZE_MB")
	setDuration(&cfg.Cache.L1TTL, "MENUFORGE_CACHE_L1_TTL")
	setString(&cfg.Cache.L2Bucket, "MENUFORGE_CACHE_L2_BUCKET")
	setDuration(&cfg.Cache.L2TTL, "MENUFORGE_CACHE_L2_TTL")

	// OpenTelemetry
	setBool(&cfg.OTEL.Enabled, "MENUFORGE_OTEL_ENABLED")
	setString(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setString(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME")
	setBool(&cfg.OTEL.Insecure, "MENUFORGE_OTEL_INSECURE")

	// Tenant defaults
	setString(&cfg.TenantDefaults.Plan, "MENUFORGE_TENANT_PLAN")
	setString(&cfg.TenantDefaults.Timezone, "MENUFORGE_TENANT_TIMEZONE")
	setString(&cfg.TenantDefaults.Currency, "MENUFORGE_TENANT_CURRENCY")
	setString(&cfg.TenantDefaults.Language, "MENUFORGE_TENANT_LANGUAGE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Server.PublicRate <= 0 || cfg.Server.PublicBurst < 1 {
		return errors.New("server.public_rate and server.public_burst must be positive")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.NATS.Enabled && cfg.NATS.URL == "" {
		return errors.New("nats.url is required when nats is enabled")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.Auth.MinPasswordLength < 8 {
		return errors.New("auth.min_password_length must be >= 8")
	}
	if cfg.Public.BaseURL == "" {
		return errors.New("public.base_url is required")
	}
	if cfg.QR.Size < 64 {
		return errors.New("qr.size must be >= 64")
	}
	if cfg.Geo.Timeout <= 0 || cfg.Geo.Timeout > 10*time.Second {
		return errors.New("geo.timeout must be between 0 and 10s")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
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
