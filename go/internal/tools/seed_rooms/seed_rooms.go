package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mcdev12/roomtimer/go/internal/dbconfig"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/room"
	"github.com/mcdev12/roomtimer/go/internal/templates"
)

// Seeds the Postgres saved-room list with one room per template. Rooms whose
// name is already saved are skipped.
func main() {
	// 1) Load the template catalog
	catalog, err := templates.Load(os.Getenv("TEMPLATES_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load templates: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := cfg.NewPool(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv_records (
		record_key TEXT PRIMARY KEY,
		value JSONB NOT NULL,
		updated_at BIGINT NOT NULL
	)`); err != nil {
		fmt.Fprintf(os.Stderr, "migrate kv_records: %v\n", err)
		os.Exit(1)
	}

	// 3) Merge and count
	var (
		total    = len(catalog.List())
		inserted int
		skipped  int
	)
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx,
			`SELECT value FROM kv_records WHERE record_key = $1 FOR UPDATE`, room.SavedRoomsKey,
		).Scan(&raw)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("read saved rooms: %w", err)
		}

		var saved []models.Room
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &saved); err != nil {
				return fmt.Errorf("decode saved rooms: %w", err)
			}
		}
		names := make(map[string]bool, len(saved))
		for _, r := range saved {
			names[r.RoomName] = true
		}

		now := time.Now().UnixMilli()
		for _, t := range catalog.List() {
			if names[t.Name] {
				skipped++
				continue
			}
			saved = append(saved, models.Room{
				RoomID:    uuid.New(),
				RoomName:  t.Name,
				Timers:    t.Instantiate(),
				Timestamp: now,
			})
			names[t.Name] = true
			inserted++
		}

		data, err := json.Marshal(saved)
		if err != nil {
			return fmt.Errorf("encode saved rooms: %w", err)
		}
		_, err = tx.Exec(ctx, `
            INSERT INTO kv_records (record_key, value, updated_at)
            VALUES ($1, $2, $3)
            ON CONFLICT (record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
        `, room.SavedRoomsKey, data, now)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed rooms: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"Rooms seed complete: %d templates, %d inserted, %d skipped\n",
		total, inserted, skipped,
	)
}
