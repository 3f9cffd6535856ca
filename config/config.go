package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration, read from the environment.
type Config struct {
	App       AppConfig
	Postgres  PostgresConfig
	Mongo     MongoConfig
	JWT       JWTConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
	Lifecycle LifecycleConfig
	Seed      SeedConfig
}

// AppConfig holds process-level settings (environment, listen port).
type AppConfig struct {
	Env            string
	Port           string
	AllowedOrigins []string
}

// PostgresConfig describes the PostgreSQL connection that stores users.
type PostgresConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	TimeZone string
}

// DSN renders the libpq keyword/value connection string used by gorm.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		p.Host, p.User, p.Password, p.Name, p.Port, p.SSLMode, p.TimeZone)
}

// MongoConfig points at the MongoDB database holding complaints.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// JWTConfig signs and expires access tokens.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// RedisConfig is optional; an empty Addr keeps revocation and rate limits in memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RabbitMQConfig enables event publishing when URL is set.
type RabbitMQConfig struct {
	URL    string
	Queue  string
	Buffer int // events held while the broker is slow or down
}

// StorageConfig selects where complaint photos are written
// and how large uploads may be.
type StorageConfig struct {
	Driver          string // local | gcs
	UploadDir       string
	GCSBucket       string
	GCSCredentials  string
	MaxUploadBytes  int64
	MaxFilesPerForm int
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// LifecycleConfig controls complaint status transition enforcement.
// StrictTransitions=false restores the permissive "any status from any
// status" behaviour.
type LifecycleConfig struct {
	StrictTransitions bool
}

// SeedConfig carries the bootstrap admin account.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	cfg := &Config{
		App: AppConfig{
			Env:            envStr("APP_ENV", "development"),
			Port:           envStr("APP_PORT", "8080"),
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Postgres: PostgresConfig{
			Host:     envStr("DB_HOST", "localhost"),
			User:     envStr("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     envStr("DB_NAME", "fixitnow"),
			Port:     envStr("DB_PORT", "5432"),
			SSLMode:  envStr("DB_SSLMODE", "disable"),
			TimeZone: envStr("DB_TIMEZONE", "UTC"),
		},
		Mongo: MongoConfig{
			URI:            envStr("MONGO_URI", "mongodb://localhost:27017"),
			Database:       envStr("MONGO_DB_NAME", "fixitnow"),
			ConnectTimeout: envDur("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			TTL:    envDur("JWT_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			URL:    os.Getenv("RABBITMQ_URL"),
			Queue:  envStr("RABBITMQ_QUEUE", "complaint.events"),
			Buffer: envInt("RABBITMQ_BUFFER", 256),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(envStr("STORAGE_DRIVER", "local")),
			UploadDir:       envStr("UPLOAD_DIR", "uploads"),
			GCSBucket:       os.Getenv("GCS_BUCKET"),
			GCSCredentials:  os.Getenv("GCS_CREDENTIALS_FILE"),
			MaxUploadBytes:  int64(envInt("MAX_UPLOAD_MB", 5)) << 20,
			MaxFilesPerForm: 5,
		},
		RateLimit: RateLimitConfig{
			Enabled:        envBool("RATE_LIMIT_ENABLED", true),
			Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
			RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
			RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
			TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
			Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		},
		Logging: LoggingConfig{
			Level:  envStr("LOG_LEVEL", "info"),
			Format: envStr("LOG_FORMAT", "json"),
		},
		Lifecycle: LifecycleConfig{
			StrictTransitions: envBool("STRICT_TRANSITIONS", true),
		},
		Seed: SeedConfig{
			AdminEmail:    os.Getenv("ADMIN_EMAIL"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
			AdminName:     envStr("ADMIN_NAME", "Admin User"),
		},
	}

	if cfg.RateLimit.Capacity < 1 {
		cfg.RateLimit.Capacity = 1
	}
	if cfg.RateLimit.RefillTokens < 1 {
		cfg.RateLimit.RefillTokens = 1
	}
	if cfg.RateLimit.RefillInterval <= 0 {
		cfg.RateLimit.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RateLimit.RefillInterval; cfg.RateLimit.TTL < minTTL {
		cfg.RateLimit.TTL = minTTL
	}
	return cfg
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Validate reports settings that make the server unable to start safely.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		} else {
			c.JWT.Secret = "dev-secret-key"
		}
	}
	if c.Mongo.URI == "" {
		errs = append(errs, errors.New("MONGO_URI must be set"))
	}
	switch c.Storage.Driver {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET must be set when STORAGE_DRIVER=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

// envDur accepts Go durations ("30m") or a bare number of seconds.
func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return d
}

func envList(k, d string) []string {
	out := []string{}
	for _, p := range strings.Split(envStr(k, d), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
