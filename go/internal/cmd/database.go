package main

import (
	"context"
	"fmt"

	"github.com/mcdev12/roomtimer/go/internal/config"
	"github.com/mcdev12/roomtimer/go/internal/storage"
	"github.com/rs/zerolog/log"
)

func setupStore(ctx context.Context, cfg config.Config) (storage.KV, error) {
	kv, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
	}

	event := log.Info().Str("backend", cfg.Store.Backend)
	switch cfg.Store.Backend {
	case storage.BackendPostgres:
		event = event.Str("database", cfg.Store.Postgres.Redacted())
	case storage.BackendSQLite:
		event = event.Str("path", cfg.Store.SQLitePath)
	}
	event.Msg("connected to record store")
	return kv, nil
}
