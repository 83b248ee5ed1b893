package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/roomtimer/go/internal/storage"
	"github.com/rs/zerolog"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "LOG_LEVEL", "STORE_BACKEND", "NATS_URL", "UNDO_WINDOW", "POLL_INTERVAL", "OPENAI_API_KEY", "ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Addr() != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.Addr())
	}
	if cfg.LogLevel != zerolog.InfoLevel {
		t.Fatalf("expected info level, got %s", cfg.LogLevel)
	}
	if cfg.Store.Backend != storage.BackendSQLite {
		t.Fatalf("expected sqlite backend, got %s", cfg.Store.Backend)
	}
	if cfg.Room.UndoWindow != 15*time.Second || cfg.Room.PollInterval != 100*time.Millisecond {
		t.Fatalf("unexpected room config: %+v", cfg.Room)
	}
	if cfg.NATSEnabled {
		t.Fatal("expected NATS to be disabled without NATS_URL")
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", cfg.OpenAI.Model)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("UNDO_WINDOW", "30s")
	t.Setenv("POLL_INTERVAL", "not-a-duration")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if cfg.Addr() != ":9090" || cfg.LogLevel != zerolog.DebugLevel {
		t.Fatalf("unexpected port or level: %s %s", cfg.Addr(), cfg.LogLevel)
	}
	if cfg.Store.Backend != storage.BackendRedis || cfg.Store.RedisURL != "redis://cache:6379/1" {
		t.Fatalf("unexpected store config: %+v", cfg.Store)
	}
	if cfg.Room.UndoWindow != 30*time.Second {
		t.Fatalf("expected 30s undo window, got %s", cfg.Room.UndoWindow)
	}
	if cfg.Room.PollInterval != 100*time.Millisecond {
		t.Fatalf("expected invalid poll interval to fall back, got %s", cfg.Room.PollInterval)
	}
	if !cfg.NATSEnabled || cfg.JetStream.URL != "nats://bus:4222" {
		t.Fatalf("unexpected jetstream config: %+v", cfg.JetStream)
	}
	if diff := cmp.Diff([]string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins); diff != "" {
		t.Fatalf("origins (-want +got):\n%s", diff)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Fatal("expected API key to be read")
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string][2]string{
		"backend":     {"STORE_BACKEND", "mongo"},
		"log level":   {"LOG_LEVEL", "chatty"},
		"undo window": {"UNDO_WINDOW", "-1s"},
		"port":        {"PORT", "http"},
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env[0], env[1])
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", env[0], env[1])
			}
		})
	}
}
