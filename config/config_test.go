package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.EventStore != StoreMemory {
		t.Errorf("EventStore = %q, want memory", cfg.EventStore)
	}
	if cfg.SagaMaxAttempts != 3 || cfg.SagaRetryDelay != time.Second || cfg.SagaStepTimeout != 3*time.Second {
		t.Errorf("saga bounds = %d/%s/%s", cfg.SagaMaxAttempts, cfg.SagaRetryDelay, cfg.SagaStepTimeout)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("EVENT_STORE", "disk")
	t.Setenv("EVENT_STORE_DIR", "/tmp/events")
	t.Setenv("SAGA_RETRY_DELAY", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.EventStore != StoreDisk || cfg.EventStoreDir != "/tmp/events" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.SagaRetryDelay != 250*time.Millisecond {
		t.Errorf("SagaRetryDelay = %s, want 250ms", cfg.SagaRetryDelay)
	}
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("EVENT_STORE", "cassandra")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an unknown store backend")
	}
}

func TestLoadRejectsNonPositiveAttempts(t *testing.T) {
	t.Setenv("SAGA_MAX_ATTEMPTS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for zero attempts")
	}
}
