// Package config reads server settings from the environment, after loading a
// .env file when one is present.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendNATS     = "nats"
)

var ErrMissingSecret = errors.New("JWT_SECRET is not set")

type Config struct {
	Port        string `validate:"required,numeric"`
	Backend     string `validate:"oneof=file postgres nats"`
	PresetFile  string `validate:"required_if=Backend file"`
	DatabaseURL string `validate:"required_if=Backend postgres"`
	NATSURL     string `validate:"required_if=Backend nats"`
	NATSBucket  string `validate:"required_if=Backend nats"`
	JWTSecret   string
}

var validate = validator.New()

// Load reads files (".env" when none are given) into the environment
// without overriding variables already set, then builds the Config.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		Port:        getenv("PORT", "8080"),
		Backend:     getenv("PRESET_BACKEND", BackendFile),
		PresetFile:  getenv("PRESET_FILE", "/data/presets.json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		NATSURL:     getenv("NATS_URL", "nats://127.0.0.1:4222"),
		NATSBucket:  getenv("NATS_BUCKET", "presets"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	if cfg.JWTSecret == "" {
		return Config{}, ErrMissingSecret
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
