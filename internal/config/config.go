package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Port        string
	Host        string

	DataDir      string
	StoreBackend string // json or sqlite
	SnapshotKey  string

	OracleBaseURL   string
	OracleUserAgent string
	OracleTimeout   time.Duration
	RefreshInterval time.Duration

	PushAPIURL string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	CORSOrigins string
}

func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("HOST", "0.0.0.0"),
		DataDir:         getEnv("DATA_DIR", "./data"),
		StoreBackend:    getEnv("STORE_BACKEND", "json"),
		SnapshotKey:     getEnv("SNAPSHOT_KEY", "tracker"),
		OracleBaseURL:   getEnv("ORACLE_BASE_URL", "http://localhost:9090"),
		OracleUserAgent: getEnv("ORACLE_USER_AGENT", "pricetrack/1.0"),
		PushAPIURL:      getEnv("PUSH_API_URL", ""),
		SMTPHost:        getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPUser:        getEnv("SMTP_USER", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:        getEnv("SMTP_FROM", "PriceTrack <noreply@example.com>"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000"),
	}

	if cfg.StoreBackend != "json" && cfg.StoreBackend != "sqlite" {
		return nil, fmt.Errorf("invalid STORE_BACKEND: %s", cfg.StoreBackend)
	}

	// Parse integer values
	if port := getEnv("SMTP_PORT", "587"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = p
	}

	// Parse durations
	if interval := getEnv("REFRESH_INTERVAL", "5m"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
		}
		cfg.RefreshInterval = d
	}
	if timeout := getEnv("ORACLE_TIMEOUT", "30s"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid ORACLE_TIMEOUT: %w", err)
		}
		cfg.OracleTimeout = d
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
