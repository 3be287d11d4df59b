// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Service identifies the running process in logs and health output.
type Service struct {
	Name        string `env:"SERVICE_NAME" envDefault:"dash-approvals"`
	Version     string `env:"SERVICE_VERSION" envDefault:"dev"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Server holds HTTP server settings.
type Server struct {
	Port            int           `env:"PORT" envDefault:"8086"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// GRPC holds gRPC server settings.
type GRPC struct {
	Port int `env:"GRPC_PORT" envDefault:"9086"`
}

// Storage selects and configures the persistence backend.
// Backend is one of: memory, file, sqlite, postgres.
type Storage struct {
	Backend     string `env:"STORAGE_BACKEND" envDefault:"file"`
	Dir         string `env:"STORAGE_DIR" envDefault:"./data"`
	SQLitePath  string `env:"STORAGE_SQLITE_PATH" envDefault:"./data/dashboard.db"`
	PostgresDSN string `env:"STORAGE_POSTGRES_DSN"`
}

// NATS configures the optional notification event fan-out.
// Fan-out is disabled when URL is empty.
type NATS struct {
	URL string `env:"NATS_URL"`
}

// Auth points at the static credential directory.
type Auth struct {
	CredentialsFile string `env:"AUTH_CREDENTIALS_FILE"`
}

// Config is the full service configuration.
type Config struct {
	Service Service
	Server  Server
	GRPC    GRPC
	Storage Storage
	NATS    NATS
	Auth    Auth
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
