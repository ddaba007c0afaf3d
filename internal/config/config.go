package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string
	SiteDomain     string

	DatabaseURL string
	RedisURL    string

	JWTSecret     string
	JWTTTLMinutes int

	SecretKey     string
	ResetTokenTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	UploadDir    string
	StoreBackend string

	AlbumQuota int
	PhotoQuota int

	ResetRateLimit  int
	ResetRateWindow time.Duration

	// SuspendNotifications silences all outbound email without altering any
	// other behavior. Threaded into the notifier instead of living as
	// process-wide mutable state so tests can run concurrently.
	SuspendNotifications bool
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		SiteDomain:     getEnv("SITE_DOMAIN", "http://localhost:8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),
		SecretKey: getEnv("SECRET_KEY", "change-me"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getEnv("EMAIL_FROM", "noreply@photoalbum.local"),

		UploadDir:    getEnv("UPLOAD_DIR", "uploads"),
		StoreBackend: getEnv("STORAGE_BACKEND", "disk"),

		SuspendNotifications: getEnv("SUSPEND_NOTIFICATIONS", "false") == "true",
	}

	var err error
	if cfg.JWTTTLMinutes, err = getEnvInt("JWT_TTL_MINUTES", 60); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %w", err)
	}
	if cfg.SMTPPort, err = getEnvInt("SMTP_PORT", 587); err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	if cfg.AlbumQuota, err = getEnvInt("ALBUM_QUOTA", 3); err != nil {
		return nil, fmt.Errorf("invalid ALBUM_QUOTA: %w", err)
	}
	if cfg.PhotoQuota, err = getEnvInt("PHOTO_QUOTA", 10); err != nil {
		return nil, fmt.Errorf("invalid PHOTO_QUOTA: %w", err)
	}
	if cfg.ResetRateLimit, err = getEnvInt("RESET_RATE_LIMIT", 5); err != nil {
		return nil, fmt.Errorf("invalid RESET_RATE_LIMIT: %w", err)
	}

	cfg.ResetTokenTTL, err = time.ParseDuration(getEnv("RESET_TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_TOKEN_TTL: %w", err)
	}
	cfg.ResetRateWindow, err = time.ParseDuration(getEnv("RESET_RATE_WINDOW", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESET_RATE_WINDOW: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
