package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the catalog service reads from the environment.
type Config struct {
	Port        string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string

	MediaStoreURL string
	MediaStoreKey string

	IdentityURL string

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads the environment, with a .env file as a convenience for
// local runs. RedisAddr may be empty; the service then runs on the
// in-process cache.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:          envOrDefault("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		MediaStoreURL: os.Getenv("MEDIA_STORE_URL"),
		MediaStoreKey: os.Getenv("MEDIA_STORE_KEY"),
		IdentityURL:   os.Getenv("IDENTITY_URL"),
		LogLevel:      envOrDefault("LOG_LEVEL", "info"),
		LogFormat:     envOrDefault("LOG_FORMAT", "json"),
	}

	origins := envOrDefault("ALLOWED_ORIGINS", "*")
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.MediaStoreURL == "" {
		return nil, fmt.Errorf("MEDIA_STORE_URL is required")
	}
	if cfg.IdentityURL == "" {
		return nil, fmt.Errorf("IDENTITY_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
