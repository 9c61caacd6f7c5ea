// Package config provides configuration loading for the site service.
// It handles environment variable parsing and provides default values for all settings.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads environment variables from .env files during package initialization.
// godotenv.Load() does not override already-set variables, so OS env > .env.local > .env.
func init() {
	// Load .env.local first so its values win over the shared .env
	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}
}

// Config captures environment-driven settings for the site service.
type Config struct {
	Env  string // Deployment environment (dev, staging, prod)
	Port string // HTTP server port

	APIURL    string // Backend REST API base URL
	MediaURL  string // Base URL used to resolve relative media paths
	SocketURL string // Backend real-time channel endpoint

	HTTPTimeout time.Duration // Per-request timeout for backend calls

	DatabaseDSN string // PostgreSQL DSN for booking inquiries (memory store when empty)
	NATSURL     string // NATS server URL (no-op publisher when empty)

	S3Endpoint  string        // S3-compatible storage endpoint
	S3Region    string        // S3 region
	S3Bucket    string        // Bucket holding media assets; enables presigned media URLs
	S3AccessKey string        // S3 access key
	S3SecretKey string        // S3 secret key
	S3URLTTL    time.Duration // Lifetime of presigned media URLs

	AdminJWTSecret string // HS256 secret for admin tokens (presence-only check when empty)
	AdminJWTIssuer string // Expected issuer of admin tokens

	FallbackPath string // Optional YAML file replacing the bundled fallback dataset

	NotificationLimit  int           // Maximum notifications kept in memory
	RealtimeMaxBackoff time.Duration // Cap for real-time reconnect backoff

	CORSAllowedOrigins []string // Allowed origins for CORS (empty means deny all)
}

// Default configuration values used when environment variables are not set
const (
	defaultEnv               = "dev"
	defaultPort              = "8080"
	defaultAPIURL            = "http://localhost:5000/api"
	defaultMediaURL          = "http://localhost:5000/uploads"
	defaultSocketURL         = "http://localhost:5000"
	defaultS3Region          = "us-east-1"
	defaultHTTPTimeout       = 5 * time.Second
	defaultS3URLTTL          = time.Hour
	defaultNotificationLimit = 200
	defaultRealtimeBackoff   = 30 * time.Second
)

// Load reads environment variables and produces a Config suitable for wiring the service.
// Every setting has a default; malformed values are reported as errors.
func Load() (Config, error) {
	cfg := Config{
		Env:            getEnv(defaultEnv, "SITE_ENV"),
		Port:           getEnv(defaultPort, "SITE_PORT"),
		APIURL:         strings.TrimRight(getEnv(defaultAPIURL, "SITE_API_URL", "NEXT_PUBLIC_API_URL"), "/"),
		MediaURL:       strings.TrimRight(getEnv(defaultMediaURL, "SITE_MEDIA_URL", "NEXT_PUBLIC_MEDIA_DOWNLOAD"), "/"),
		SocketURL:      getEnv(defaultSocketURL, "SITE_SOCKET_URL", "NEXT_PUBLIC_SOCKET_URL"),
		DatabaseDSN:    getEnv("", "SITE_DB_DSN"),
		NATSURL:        getEnv("", "SITE_NATS_URL"),
		S3Endpoint:     getEnv("", "SITE_S3_ENDPOINT"),
		S3Region:       getEnv(defaultS3Region, "SITE_S3_REGION"),
		S3Bucket:       getEnv("", "SITE_S3_BUCKET"),
		S3AccessKey:    getEnv("", "SITE_S3_ACCESS_KEY"),
		S3SecretKey:    getEnv("", "SITE_S3_SECRET_KEY"),
		AdminJWTSecret: getEnv("", "SITE_ADMIN_JWT_SECRET"),
		AdminJWTIssuer: getEnv("", "SITE_ADMIN_JWT_ISSUER"),
		FallbackPath:   getEnv("", "SITE_FALLBACK_PATH"),
	}

	for _, u := range []struct{ key, value string }{
		{"SITE_API_URL", cfg.APIURL},
		{"SITE_MEDIA_URL", cfg.MediaURL},
		{"SITE_SOCKET_URL", cfg.SocketURL},
	} {
		if err := validateURL(u.value); err != nil {
			return cfg, fmt.Errorf("%s: %w", u.key, err)
		}
	}

	var err error
	if cfg.HTTPTimeout, err = getDuration("SITE_HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return cfg, err
	}
	if cfg.S3URLTTL, err = getDuration("SITE_S3_URL_TTL", defaultS3URLTTL); err != nil {
		return cfg, err
	}
	if cfg.RealtimeMaxBackoff, err = getDuration("SITE_REALTIME_BACKOFF_MAX", defaultRealtimeBackoff); err != nil {
		return cfg, err
	}

	cfg.NotificationLimit = defaultNotificationLimit
	if v, exists := os.LookupEnv("SITE_NOTIFICATION_LIMIT"); exists && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("SITE_NOTIFICATION_LIMIT must be a positive integer, got %q", v)
		}
		cfg.NotificationLimit = n
	}

	if corsOrigins, exists := os.LookupEnv("SITE_CORS_ALLOWED_ORIGINS"); exists && corsOrigins != "" {
		for _, origin := range strings.Split(corsOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	return cfg, nil
}

// getEnv returns the first non-empty value among keys, or fallback.
func getEnv(fallback string, keys ...string) string {
	for _, key := range keys {
		if v, exists := os.LookupEnv(key); exists && v != "" {
			return v
		}
	}
	return fallback
}

// getDuration parses a Go duration string from key, returning fallback when unset.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("absolute URL required, got %q", raw)
	}
	return nil
}
