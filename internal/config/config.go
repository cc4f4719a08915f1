package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	MediaDir     string
	FrontendDir  string
	JWTSecret    string

	// AdminEmailAlias is the one email address that may be typed into the
	// staff ID field at login and still resolve to its account.
	AdminEmailAlias string

	// NotifyURLs holds shoutrrr service URLs notified on case release/return.
	NotifyURLs []string

	// BaseURL is used when building account activation links.
	BaseURL string
}

// Load reads env vars and falls back to defaults so the server can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:     getEnv("LEGALTRACK_ENV", "development"),
		HTTPPort:        getEnv("LEGALTRACK_HTTP_PORT", "8080"),
		DatabasePath:    getEnv("LEGALTRACK_DB_PATH", filepath.Join("data", "legaltrack.db")),
		MediaDir:        getEnv("LEGALTRACK_MEDIA_DIR", filepath.Join("data", "media")),
		FrontendDir:     getEnv("LEGALTRACK_FRONTEND_DIR", filepath.Clean(filepath.Join("..", "frontend", "dist"))),
		JWTSecret:       getEnv("LEGALTRACK_JWT_SECRET", ""),
		AdminEmailAlias: getEnv("LEGALTRACK_ADMIN_EMAIL", "admin@gmail.com"),
		BaseURL:         getEnv("LEGALTRACK_BASE_URL", "http://localhost:8080"),
	}

	if urls := getEnv("LEGALTRACK_NOTIFY_URLS", ""); urls != "" {
		for _, u := range strings.Split(urls, ",") {
			if u = strings.TrimSpace(u); u != "" {
				cfg.NotifyURLs = append(cfg.NotifyURLs, u)
			}
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			return Config{}, fmt.Errorf("LEGALTRACK_JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-insecure-secret"
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure media directory: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the server runs with production hardening.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
