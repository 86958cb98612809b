package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Auth           AuthConfig
	Email          EmailConfig
	Storage        StorageConfig
	RateLimit      RateLimitConfig
	AdminBootstrap AdminBootstrapConfig
	Logging        LoggingConfig
	Environment    string
}

type ServerConfig struct {
	Host    string
	Port    int
	BaseURL string
}

type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MaxIdle        int
}

type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
	Issuer    string
}

type EmailConfig struct {
	Enabled      bool
	From         string
	ResendAPIKey string
}

// StorageConfig configures the S3-compatible blob store used for uploads.
type StorageConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	KeyID     string
	Secret    string
	PublicURL string
}

type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

type AdminBootstrapConfig struct {
	Username string
	Password string
	Email    string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:    getEnvInt("SERVER_PORT", 8080),
			BaseURL: getEnv("SERVER_BASE_URL", "http://localhost:8080"),
		},
		Database: DatabaseConfig{
			URL:            getEnv("DATABASE_URL", ""),
			MaxConnections: getEnvInt("DATABASE_MAX_CONNECTIONS", 25),
			MaxIdle:        getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 24)) * time.Hour,
			Issuer:    getEnv("JWT_ISSUER", "gemeenteweb"),
		},
		Email: EmailConfig{
			Enabled:      getEnvBool("EMAIL_ENABLED", false),
			From:         getEnv("EMAIL_FROM", ""),
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_ENDPOINT", ""),
			Region:    getEnv("S3_REGION", "eu-central-1"),
			Bucket:    getEnv("S3_BUCKET", ""),
			KeyID:     getEnv("S3_KEY_ID", ""),
			Secret:    getEnv("S3_SECRET", ""),
			PublicURL: getEnv("S3_PUBLIC_URL", ""),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
			Burst:     getEnvInt("RATE_LIMIT_BURST", 30),
		},
		AdminBootstrap: AdminBootstrapConfig{
			Username: getEnv("ADMIN_USERNAME", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
			Email:    getEnv("ADMIN_EMAIL", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Email.Enabled && cfg.Email.ResendAPIKey == "" {
		return Config{}, fmt.Errorf("RESEND_API_KEY is required when EMAIL_ENABLED is true")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
