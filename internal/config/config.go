package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	Environment  string // "development" or "production"
	CORSOrigin   string

	// Local directory where multipart uploads are staged before they are
	// pushed to the media store.
	UploadTempDir string

	Tokens TokenConfig
	Media  MediaConfig

	// Cron expression controlling how often stale refresh tokens are
	// cleared from the users table.
	SessionReaperSchedule string
}

// TokenConfig carries the signing material for both token kinds. It is
// handed to the token manager at construction; nothing reads these from
// the environment after startup.
type TokenConfig struct {
	AccessSecret  string
	AccessExpiry  time.Duration
	RefreshSecret string
	RefreshExpiry time.Duration
}

// MediaConfig configures the S3-compatible media store.
type MediaConfig struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	// PublicBaseURL is prepended to object keys to form the URLs handed
	// back to clients, e.g. a CDN domain in front of the bucket.
	PublicBaseURL string
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}

	accessExpiry, err := getDuration("ACCESS_TOKEN_EXPIRY", "1h")
	if err != nil {
		return nil, err
	}
	refreshExpiry, err := getDuration("REFRESH_TOKEN_EXPIRY", "240h")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:    port,
		DatabasePath:  getEnv("DATABASE_PATH", "./videotube.db"),
		Environment:   getEnv("APP_ENV", "development"),
		CORSOrigin:    getEnv("CORS_ORIGIN", "http://localhost:3000"),
		UploadTempDir: getEnv("UPLOAD_TEMP_DIR", "./public/temp"),
		Tokens: TokenConfig{
			AccessSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
			AccessExpiry:  accessExpiry,
			RefreshSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
			RefreshExpiry: refreshExpiry,
		},
		Media: MediaConfig{
			Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
			Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
			Bucket:          getEnv("MEDIA_S3_BUCKET", "videotube-media"),
			AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY", ""),
			SecretAccessKey: getEnv("MEDIA_S3_SECRET_KEY", ""),
			PublicBaseURL:   getEnv("MEDIA_PUBLIC_BASE_URL", ""),
		},
		SessionReaperSchedule: getEnv("SESSION_REAPER_SCHEDULE", "*/30 * * * *"),
	}

	if cfg.Tokens.AccessSecret == "" || cfg.Tokens.RefreshSecret == "" {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings
// (secure cookies in particular).
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key, fallback string) (time.Duration, error) {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
