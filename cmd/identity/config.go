package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the identity service's environment.
type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	JWTSecret string

	LogLevel  string
	LogFormat string
}

// LoadConfig reads the environment, with a .env file for local runs.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      envOrDefault("PORT", "8081"),
		MongoURI:  os.Getenv("MONGO_URI"),
		MongoDB:   envOrDefault("MONGO_DB", "soundstream"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGO_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
