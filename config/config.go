// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreDisk   = "disk"
)

// Config holds everything the process needs to start.
type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string
	// LogLevel is a logrus level name.
	LogLevel string

	// EventStore selects the event store backend, StoreMemory or StoreDisk.
	EventStore string
	// EventStoreDir is the data directory for the disk backend.
	EventStoreDir string

	// AMQPURL, when set, enables relaying committed events to RabbitMQ.
	AMQPURL string

	// Saga step bounds.
	SagaMaxAttempts int
	SagaRetryDelay  time.Duration
	SagaStepTimeout time.Duration
}

// Load reads the configuration. A .env file in the working directory is
// merged in when present, but real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:        envStr("HTTP_ADDR", ":8080"),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		EventStore:      envStr("EVENT_STORE", StoreMemory),
		EventStoreDir:   envStr("EVENT_STORE_DIR", "data/events"),
		AMQPURL:         os.Getenv("AMQP_URL"),
		SagaMaxAttempts: envInt("SAGA_MAX_ATTEMPTS", 3),
		SagaRetryDelay:  envDuration("SAGA_RETRY_DELAY", time.Second),
		SagaStepTimeout: envDuration("SAGA_STEP_TIMEOUT", 3*time.Second),
	}

	switch cfg.EventStore {
	case StoreMemory, StoreDisk:
	default:
		return Config{}, fmt.Errorf("EVENT_STORE must be %q or %q, got %q", StoreMemory, StoreDisk, cfg.EventStore)
	}
	if cfg.EventStore == StoreDisk && cfg.EventStoreDir == "" {
		return Config{}, fmt.Errorf("EVENT_STORE_DIR is required with EVENT_STORE=%s", StoreDisk)
	}
	if cfg.SagaMaxAttempts <= 0 {
		return Config{}, fmt.Errorf("SAGA_MAX_ATTEMPTS must be positive, got %d", cfg.SagaMaxAttempts)
	}

	return cfg, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
