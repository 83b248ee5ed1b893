package storage

import (
	"context"

	"github.com/mcdev12/roomtimer/go/internal/dbconfig"
)

// OpenPostgres connects with cfg and migrates the records table.
func OpenPostgres(ctx context.Context, cfg dbconfig.Config) (*SQLKV, error) {
	db, err := cfg.Open(ctx)
	if err != nil {
		return nil, err
	}
	kv := NewSQLKV(db, DialectPostgres)
	if err := kv.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}
