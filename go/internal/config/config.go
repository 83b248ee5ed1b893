// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/roomtimer/go/internal/dbconfig"
	"github.com/mcdev12/roomtimer/go/internal/events"
	"github.com/mcdev12/roomtimer/go/internal/genai"
	"github.com/mcdev12/roomtimer/go/internal/room"
	"github.com/mcdev12/roomtimer/go/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port           string
	LogLevel       zerolog.Level
	LogJSON        bool
	AllowedOrigins []string
	TemplatesFile  string
	ShutdownGrace  time.Duration

	Store     storage.Config
	OpenAI    genai.Config
	Room      room.Config
	Events    events.Config
	JetStream events.JetStreamConfig
	// NATSEnabled is set when NATS_URL is present.
	NATSEnabled bool
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables alone.
func FromEnv() (Config, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(getEnv("LOG_LEVEL", "info")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		LogLevel:       level,
		LogJSON:        getEnv("LOG_FORMAT", "console") == "json",
		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		TemplatesFile:  os.Getenv("TEMPLATES_FILE"),
		ShutdownGrace:  getEnvAsDuration("SHUTDOWN_GRACE", 10*time.Second),
		Store: storage.Config{
			Backend:    getEnv("STORE_BACKEND", storage.BackendSQLite),
			SQLitePath: getEnv("SQLITE_PATH", "roomtimer.db"),
			RedisURL:   getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Postgres:   dbconfig.NewConfigFromEnv(),
		},
		OpenAI: genai.DefaultConfig(),
		Room: room.Config{
			UndoWindow:   getEnvAsDuration("UNDO_WINDOW", room.DefaultUndoWindow),
			PollInterval: getEnvAsDuration("POLL_INTERVAL", room.DefaultConfig().PollInterval),
		},
		Events:    events.DefaultConfig(),
		JetStream: events.DefaultJetStreamConfig(),
	}

	cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.OpenAI.Model = getEnv("OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", cfg.OpenAI.Timeout)

	cfg.Events.QueueSize = getEnvAsInt("EVENT_QUEUE_SIZE", cfg.Events.QueueSize)
	cfg.Events.MaxRetries = getEnvAsInt("EVENT_MAX_RETRIES", cfg.Events.MaxRetries)
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATSEnabled = true
		cfg.JetStream.URL = url
	}
	cfg.JetStream.StreamName = getEnv("NATS_STREAM", cfg.JetStream.StreamName)
	cfg.JetStream.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", cfg.JetStream.SubjectPrefix)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case storage.BackendMemory, storage.BackendSQLite, storage.BackendRedis, storage.BackendPostgres:
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q", c.Store.Backend)
	}
	if c.Room.UndoWindow <= 0 {
		return fmt.Errorf("UNDO_WINDOW must be positive, got %s", c.Room.UndoWindow)
	}
	if c.Room.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.Room.PollInterval)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q: %w", c.Port, err)
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer setting")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring invalid duration")
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
