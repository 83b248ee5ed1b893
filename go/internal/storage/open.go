package storage

import (
	"context"
	"fmt"

	"github.com/mcdev12/roomtimer/go/internal/dbconfig"
	"github.com/rs/zerolog/log"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Backend    string
	SQLitePath string
	RedisURL   string
	Postgres   dbconfig.Config
}

// Open builds the configured record store.
func Open(ctx context.Context, cfg Config) (KV, error) {
	var (
		kv  KV
		err error
	)
	switch cfg.Backend {
	case BackendMemory:
		kv = NewMemoryKV()
	case BackendSQLite, "":
		kv, err = OpenSQLite(ctx, cfg.SQLitePath)
	case BackendRedis:
		kv, err = OpenRedis(ctx, cfg.RedisURL)
	case BackendPostgres:
		kv, err = OpenPostgres(ctx, cfg.Postgres)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("backend", cfg.Backend).Msg("record store ready")
	return kv, nil
}
