package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// MinJWTSecretBytes is the shortest signing secret the service accepts.
const MinJWTSecretBytes = 32

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Commission CommissionConfig
	Referral   ReferralConfig
	RateLimit  RateLimitConfig
	Cache      CacheConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret       string
	SessionTTLHours int
	BcryptCost      int
	CookieName      string
}

// CommissionConfig holds the ledger policy.
type CommissionConfig struct {
	RatePercent decimal.Decimal
}

// ReferralConfig shapes generated referral codes.
type ReferralConfig struct {
	Prefix      string
	Length      int
	Alphabet    string
	MaxAttempts int
}

// RateLimitConfig bounds unauthenticated auth endpoints per client IP.
type RateLimitConfig struct {
	AuthPerMinute int
}

// CacheConfig controls the public directory cache.
type CacheConfig struct {
	DirectoryTTLSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rate, err := decimal.NewFromString(getEnv("COMMISSION_RATE_PERCENT", "1.00"))
	if err != nil {
		return nil, fmt.Errorf("invalid COMMISSION_RATE_PERCENT: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "referral-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       os.Getenv("AUTH_JWT_SECRET"),
			SessionTTLHours: getEnvAsInt("AUTH_SESSION_TTL_HOURS", 7*24),
			BcryptCost:      getEnvAsInt("AUTH_BCRYPT_COST", 12),
			CookieName:      getEnv("AUTH_COOKIE_NAME", "fg_token"),
		},
		Commission: CommissionConfig{
			RatePercent: rate,
		},
		Referral: ReferralConfig{
			Prefix:      getEnv("REFERRAL_PREFIX", "FG-"),
			Length:      getEnvAsInt("REFERRAL_LENGTH", 6),
			Alphabet:    getEnv("REFERRAL_ALPHABET", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"),
			MaxAttempts: getEnvAsInt("REFERRAL_MAX_ATTEMPTS", 10),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
		},
		Cache: CacheConfig{
			DirectoryTTLSeconds: getEnvAsInt("CACHE_DIRECTORY_TTL_SECONDS", 60),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service must not start with.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < MinJWTSecretBytes {
		errs = append(errs, fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes", MinJWTSecretBytes))
	}
	if c.Auth.SessionTTLHours <= 0 {
		errs = append(errs, errors.New("AUTH_SESSION_TTL_HOURS must be positive"))
	}
	if strings.TrimSpace(c.Auth.CookieName) == "" {
		errs = append(errs, errors.New("AUTH_COOKIE_NAME must not be empty"))
	}
	if !c.Commission.RatePercent.IsPositive() {
		errs = append(errs, errors.New("COMMISSION_RATE_PERCENT must be positive"))
	}
	if c.Referral.Length <= 0 || c.Referral.MaxAttempts <= 0 {
		errs = append(errs, errors.New("REFERRAL_LENGTH and REFERRAL_MAX_ATTEMPTS must be positive"))
	}
	if len(c.Referral.Alphabet) < 2 {
		errs = append(errs, errors.New("REFERRAL_ALPHABET needs at least two symbols"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production hardening.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SessionTTL returns the lifetime of issued session tokens.
func (a AuthConfig) SessionTTL() time.Duration {
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// DirectoryTTL returns how long the public listing may be served from cache.
func (c CacheConfig) DirectoryTTL() time.Duration {
	return time.Duration(c.DirectoryTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
