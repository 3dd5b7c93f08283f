// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Database
	DatabaseURL   string
	DBMaxConns    int
	DBMinConns    int
	DBLogQueries  bool
	AutoMigrate   bool
	RedisURL      string
	PublicBaseURL string // this API, used in emailed verification links
	FrontendURL   string // tracking, reset and verification landing pages

	// Security
	JWTSecret             string
	JWTAccessTTL          time.Duration
	VerificationTokenTTL  time.Duration
	RegistrationSecretKey string
	PasswordHasher        string // "bcrypt" | "argon2id"
	AllowedOrigins        []string
	RateLimitRPS          float64
	RateLimitBurst        int

	Mail    MailConfig
	Notify  NotifyConfig
	Storage StorageConfig

	LedgerRebuildInterval time.Duration
}

// MailConfig holds SMTP credentials
type MailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	From         string
}

// Enabled reports whether an SMTP relay is configured
func (m MailConfig) Enabled() bool {
	return m.SMTPHost != "" && m.From != ""
}

// NotifyConfig selects the outbound notification queue
type NotifyConfig struct {
	AMQPURL  string // empty means in-process channel
	Exchange string
	Queue    string
	Buffer   int
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PublicURL string
}

// Enabled reports whether object storage is configured
func (s StorageConfig) Enabled() bool {
	return s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBMaxConns:    getEnvInt("DB_MAX_CONNS", 25),
		DBMinConns:    getEnvInt("DB_MIN_CONNS", 5),
		DBLogQueries:  getEnvBool("DB_LOG_QUERIES", false),
		AutoMigrate:   getEnvBool("AUTO_MIGRATE", false),
		RedisURL:      getEnv("REDIS_URL", ""),
		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		FrontendURL:   strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		JWTSecret:             getEnv("JWT_SECRET", devJWTSecret),
		RegistrationSecretKey: getEnv("REGISTRATION_SECRET_KEY", ""),
		PasswordHasher:        strings.ToLower(getEnv("PASSWORD_HASHER", "bcrypt")),
		AllowedOrigins:        splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		RateLimitRPS:          getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:        getEnvInt("RATE_LIMIT_BURST", 20),

		Mail: MailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			From:         getEnv("MAIL_FROM", ""),
		},
		Notify: NotifyConfig{
			AMQPURL:  getEnv("NOTIFY_AMQP_URL", ""),
			Exchange: getEnv("NOTIFY_EXCHANGE", "notifications"),
			Queue:    getEnv("NOTIFY_QUEUE", "notifications.email"),
			Buffer:   getEnvInt("NOTIFY_BUFFER", 256),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			AccessKey: getEnv("S3_ACCESS_KEY", ""),
			SecretKey: getEnv("S3_SECRET_KEY", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
	}

	var err error
	if cfg.JWTAccessTTL, err = getEnvDuration("JWT_ACCESS_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.VerificationTokenTTL, err = getEnvDuration("VERIFICATION_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.LedgerRebuildInterval, err = getEnvDuration("LEDGER_REBUILD_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the process runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) validate() error {
	if c.PasswordHasher != "bcrypt" && c.PasswordHasher != "argon2id" {
		return fmt.Errorf("PASSWORD_HASHER must be bcrypt or argon2id, got %q", c.PasswordHasher)
	}
	if c.Notify.Buffer <= 0 {
		return fmt.Errorf("NOTIFY_BUFFER must be positive")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d)", c.DBMaxConns)
	}

	// Validate required fields in production
	if c.IsProduction() {
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required in production")
		}
		if c.JWTSecret == devJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.RegistrationSecretKey == "" {
			return fmt.Errorf("REGISTRATION_SECRET_KEY is required in production")
		}
		if !c.Mail.Enabled() {
			return fmt.Errorf("SMTP_HOST and MAIL_FROM are required in production")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, val)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
