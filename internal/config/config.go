// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir   string // Base directory for the databases (always absolute)
	Port      int
	LogLevel  string
	DevMode   bool
	JWTSecret string

	// QuoteTTL controls how long cached quotes are considered fresh.
	QuoteTTL time.Duration

	// Cron schedules for background jobs.
	QuoteRefreshSchedule string
	CacheCleanupSchedule string
	BackupSchedule       string

	Backup BackupConfig
}

// BackupConfig holds settings for database backups to S3-compatible storage.
// Backups are disabled when Bucket is empty.
type BackupConfig struct {
	Bucket    string
	Endpoint  string // Optional custom endpoint (e.g. MinIO, R2)
	Region    string
	AccessKey string
	SecretKey string
	Retention int // Days to keep old archives; 0 keeps everything
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FOLIO_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".folio")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory to absolute path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	port, err := strconv.Atoi(getEnv("FOLIO_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLIO_PORT: %w", err)
	}

	quoteTTL, err := time.ParseDuration(getEnv("FOLIO_QUOTE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLIO_QUOTE_TTL: %w", err)
	}

	jwtSecret := getEnv("FOLIO_JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("FOLIO_JWT_SECRET must be set")
	}

	retention, err := strconv.Atoi(getEnv("FOLIO_BACKUP_RETENTION", "7"))
	if err != nil {
		return nil, fmt.Errorf("invalid FOLIO_BACKUP_RETENTION: %w", err)
	}

	return &Config{
		DataDir:   absDataDir,
		Port:      port,
		LogLevel:  getEnv("FOLIO_LOG_LEVEL", "info"),
		DevMode:   getEnv("FOLIO_DEV_MODE", "false") == "true",
		JWTSecret: jwtSecret,
		QuoteTTL:  quoteTTL,

		QuoteRefreshSchedule: getEnv("FOLIO_QUOTE_REFRESH_SCHEDULE", "*/10 * * * *"),
		CacheCleanupSchedule: getEnv("FOLIO_CACHE_CLEANUP_SCHEDULE", "0 * * * *"),
		BackupSchedule:       getEnv("FOLIO_BACKUP_SCHEDULE", "30 2 * * *"),

		Backup: BackupConfig{
			Bucket:    getEnv("FOLIO_BACKUP_BUCKET", ""),
			Endpoint:  getEnv("FOLIO_BACKUP_ENDPOINT", ""),
			Region:    getEnv("FOLIO_BACKUP_REGION", "auto"),
			AccessKey: getEnv("FOLIO_BACKUP_ACCESS_KEY", ""),
			SecretKey: getEnv("FOLIO_BACKUP_SECRET_KEY", ""),
			Retention: retention,
		},
	}, nil
}

// getEnv retrieves an environment variable value with a fallback default
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
