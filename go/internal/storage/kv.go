// Package storage provides the key-value record stores that back room
// persistence.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has no record.
var ErrNotFound = errors.New("record not found")

// KV is a minimal durable key-value record store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
