package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/storage"
)

// Record keys.
const (
	CurrentRoomKey = "timerRoom"
	SavedRoomsKey  = "savedRooms"
)

// Repository defines what the manager needs from the record store
type Repository interface {
	LoadCurrent(ctx context.Context) (*models.Room, error)
	SaveCurrent(ctx context.Context, room models.Room) error
	DeleteCurrent(ctx context.Context) error
	LoadSaved(ctx context.Context) ([]models.Room, error)
	SaveSaved(ctx context.Context, rooms []models.Room) error
}

// KVRepository keeps rooms as JSON documents in a storage.KV.
type KVRepository struct {
	kv storage.KV
}

// NewKVRepository creates a repository over kv.
func NewKVRepository(kv storage.KV) *KVRepository {
	return &KVRepository{kv: kv}
}

// LoadCurrent returns the last open room, or nil if none was stored.
func (r *KVRepository) LoadCurrent(ctx context.Context) (*models.Room, error) {
	var room models.Room
	found, err := r.get(ctx, CurrentRoomKey, &room)
	if err != nil || !found {
		return nil, err
	}
	return &room, nil
}

func (r *KVRepository) SaveCurrent(ctx context.Context, room models.Room) error {
	return r.put(ctx, CurrentRoomKey, room)
}

func (r *KVRepository) DeleteCurrent(ctx context.Context) error {
	if err := r.kv.Delete(ctx, CurrentRoomKey); err != nil {
		return fmt.Errorf("failed to delete %s: %w", CurrentRoomKey, err)
	}
	return nil
}

// LoadSaved returns the saved room list, empty if none was stored.
func (r *KVRepository) LoadSaved(ctx context.Context) ([]models.Room, error) {
	rooms := []models.Room{}
	if _, err := r.get(ctx, SavedRoomsKey, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *KVRepository) SaveSaved(ctx context.Context, rooms []models.Room) error {
	return r.put(ctx, SavedRoomsKey, rooms)
}

func (r *KVRepository) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (r *KVRepository) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.kv.Put(ctx, key, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
