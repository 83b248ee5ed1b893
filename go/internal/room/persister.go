package room

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

// persister writes room snapshots in the background. Snapshots of the same
// room coalesce to the latest one. Rooms are written in the order they were
// last scheduled, so the open room is always written last.
type persister struct {
	repo Repository

	mu      sync.Mutex
	pending map[uuid.UUID]models.Room
	order   []uuid.UUID
	wakeCh  chan struct{}

	// writeMu serializes read-modify-write cycles on the saved list.
	writeMu sync.Mutex
}

func newPersister(repo Repository) *persister {
	return &persister{
		repo:    repo,
		pending: make(map[uuid.UUID]models.Room),
		wakeCh:  make(chan struct{}, 1),
	}
}

// schedule queues room for writing. It never blocks.
func (p *persister) schedule(room models.Room) {
	p.mu.Lock()
	if _, ok := p.pending[room.RoomID]; ok {
		p.dequeue(room.RoomID)
	}
	p.order = append(p.order, room.RoomID)
	p.pending[room.RoomID] = room
	p.mu.Unlock()

	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// forget drops a queued snapshot. Caller must hold writeMu.
func (p *persister) forget(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[id]; !ok {
		return
	}
	delete(p.pending, id)
	p.dequeue(id)
}

// dequeue removes id from the write order. Caller must hold mu.
func (p *persister) dequeue(id uuid.UUID) {
	for i, queued := range p.order {
		if queued == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			return
		}
	}
}

func (p *persister) take() []models.Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	rooms := make([]models.Room, 0, len(p.order))
	for _, id := range p.order {
		rooms = append(rooms, p.pending[id])
	}
	p.pending = make(map[uuid.UUID]models.Room)
	p.order = nil
	return rooms
}

// Flush writes every queued snapshot and returns the first error.
func (p *persister) Flush(ctx context.Context) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	var firstErr error
	for _, room := range p.take() {
		if err := p.write(ctx, room); err != nil {
			log.Error().
				Err(err).
				Str("room_id", room.RoomID.String()).
				Str("room_name", room.RoomName).
				Msg("failed to persist room")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// write applies one snapshot: a room with timers is upserted into the saved
// list and becomes the current record; an empty room is removed from the
// saved list and the current record is deleted.
func (p *persister) write(ctx context.Context, room models.Room) error {
	saved, err := p.repo.LoadSaved(ctx)
	if err != nil {
		return err
	}

	if len(room.Timers) == 0 {
		if err := p.repo.SaveSaved(ctx, removeRoom(saved, room.RoomID)); err != nil {
			return err
		}
		return p.repo.DeleteCurrent(ctx)
	}

	if err := p.repo.SaveCurrent(ctx, room); err != nil {
		return err
	}
	return p.repo.SaveSaved(ctx, upsertRoom(saved, room))
}

// Run flushes queued snapshots until ctx is cancelled, then flushes once more
// with a fresh context.
func (p *persister) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if err := p.Flush(context.WithoutCancel(ctx)); err != nil {
				return fmt.Errorf("final flush: %w", err)
			}
			return nil
		case <-p.wakeCh:
			_ = p.Flush(ctx)
		}
	}
}

func upsertRoom(rooms []models.Room, room models.Room) []models.Room {
	out := make([]models.Room, 0, len(rooms)+1)
	replaced := false
	for _, r := range rooms {
		if r.RoomID == room.RoomID {
			out = append(out, room)
			replaced = true
			continue
		}
		out = append(out, r)
	}
	if !replaced {
		out = append(out, room)
	}
	return out
}

func removeRoom(rooms []models.Room, id uuid.UUID) []models.Room {
	out := make([]models.Room, 0, len(rooms))
	for _, r := range rooms {
		if r.RoomID != id {
			out = append(out, r)
		}
	}
	return out
}
