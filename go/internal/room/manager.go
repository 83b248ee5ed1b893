// Package room manages the open timer room: its identity, the saved room
// list, persistence, templates, AI generation and undo.
package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomtimer/go/internal/events"
	"github.com/mcdev12/roomtimer/go/internal/genai"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/templates"
	"github.com/mcdev12/roomtimer/go/internal/timer/sampler"
	"github.com/mcdev12/roomtimer/go/internal/timer/sequencer"
	"github.com/mcdev12/roomtimer/go/internal/timer/store"
	"github.com/rs/zerolog/log"
)

// DefaultUndoWindow is how long an AI replacement can be undone.
const DefaultUndoWindow = 15 * time.Second

// Generator defines what the manager needs from the text generation service
type Generator interface {
	GenerateRoom(ctx context.Context, prompt string) (genai.RoomDraft, error)
	EditRoom(ctx context.Context, prompt string, current models.Room) (genai.RoomDraft, error)
	GenerateTimer(ctx context.Context, prompt string) (genai.TimerDraft, error)
}

// Emitter accepts lifecycle events for delivery.
type Emitter interface {
	Emit(event events.Event) bool
}

type Config struct {
	UndoWindow   time.Duration
	PollInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		UndoWindow:   DefaultUndoWindow,
		PollInterval: sampler.DefaultInterval,
	}
}

// State is what clients render: the open room and its display state.
type State struct {
	Room          models.Room       `json:"room"`
	Display       sequencer.Display `json:"display"`
	UndoAvailable bool              `json:"undoAvailable"`
}

type undoState struct {
	snapshot models.Room
	expires  time.Time
}

// Manager owns the open room.
type Manager struct {
	clock     clockwork.Clock
	config    Config
	store     *store.Store
	seq       *sequencer.Sequencer
	repo      Repository
	persister *persister
	catalog   *templates.Catalog
	generator Generator
	emitter   Emitter

	// opMu serializes room-level operations. Lock order is opMu, then the
	// store lock, then identMu, undoMu and subsMu.
	opMu sync.Mutex

	identMu  sync.RWMutex
	roomID   uuid.UUID
	roomName string

	undoMu sync.Mutex
	undo   *undoState

	subsMu sync.Mutex
	subs   []func(State)
}

// NewManager creates a manager with an empty default room. Call Restore to
// reopen the last persisted room.
func NewManager(repo Repository, catalog *templates.Catalog, generator Generator, emitter Emitter, clock clockwork.Clock, cfg Config) *Manager {
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = DefaultUndoWindow
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = sampler.DefaultInterval
	}
	if catalog == nil {
		catalog = templates.Builtin()
	}
	if emitter == nil {
		emitter = discardEmitter{}
	}

	m := &Manager{
		clock:     clock,
		config:    cfg,
		store:     store.New(nil),
		repo:      repo,
		persister: newPersister(repo),
		catalog:   catalog,
		generator: generator,
		emitter:   emitter,
		roomID:    uuid.New(),
		roomName:  models.DefaultRoomName,
	}
	m.seq = sequencer.New(m.store, clock, cfg.PollInterval, lifecycleEvents{m: m})
	m.store.OnChange(m.onChange)
	return m
}

// Run drives the countdown and background persistence until ctx is
// cancelled. Pending snapshots are flushed before it returns.
func (m *Manager) Run(ctx context.Context) error {
	var (
		wg     sync.WaitGroup
		seqErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		seqErr = m.seq.Run(ctx)
	}()

	err := m.persister.Run(ctx)
	wg.Wait()
	if seqErr != nil {
		return seqErr
	}
	return err
}

// Persist writes pending room snapshots now.
func (m *Manager) Persist(ctx context.Context) error {
	return m.persister.Flush(ctx)
}

// Subscribe registers fn to receive the state after every change. fn runs
// inside the commit and must not block or call back into the manager.
func (m *Manager) Subscribe(fn func(State)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

// Restore reopens the last persisted room. Timers come back paused. A
// storage failure leaves the default empty room in place.
func (m *Manager) Restore(ctx context.Context) {
	room, err := m.repo.LoadCurrent(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to restore room, starting empty")
		return
	}
	if room == nil {
		return
	}

	name := room.RoomName
	if name == "" {
		name = models.DefaultRoomName
	}
	id := room.RoomID
	if id == uuid.Nil {
		id = uuid.New()
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.replace(id, name, paused(room.Timers))

	log.Info().
		Str("room_id", id.String()).
		Str("room_name", name).
		Int("timers", len(room.Timers)).
		Msg("restored room")
}

// Snapshot returns the open room.
func (m *Manager) Snapshot() models.Room {
	timers := m.store.List()
	id, name := m.identity()
	return models.Room{
		RoomID:    id,
		RoomName:  name,
		Timers:    timers,
		Timestamp: m.clock.Now().UnixMilli(),
	}
}

// State returns the open room with its display state.
func (m *Manager) State() State {
	return m.stateFor(m.Snapshot())
}

func (m *Manager) stateFor(room models.Room) State {
	return State{
		Room:          room,
		Display:       sequencer.DisplayFor(room.Timers),
		UndoAvailable: m.UndoAvailable(),
	}
}

// NewRoom opens an empty room under a new name.
func (m *Manager) NewRoom(ctx context.Context, name string) (models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Room{}, invalid("roomName", "cannot be empty")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.nameTaken(ctx, name, uuid.Nil) {
		return models.Room{}, invalid("roomName", "a room with this name already exists")
	}
	m.replace(uuid.New(), name, nil)
	return m.Snapshot(), nil
}

// RenameRoom renames the open room. Names must be unique among saved rooms
// other than this one.
func (m *Manager) RenameRoom(ctx context.Context, name string) (models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Room{}, invalid("roomName", "cannot be empty")
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	id, _ := m.identity()
	if m.nameTaken(ctx, name, id) {
		return models.Room{}, invalid("roomName", "a room with this name already exists")
	}
	m.store.Transact(func(tx *store.Tx) bool {
		m.setIdentity(id, name)
		return true
	})
	return m.Snapshot(), nil
}

// ListSavedRooms summarizes the saved rooms in save order.
func (m *Manager) ListSavedRooms(ctx context.Context) []models.RoomSummary {
	rooms := m.savedRooms(ctx)
	out := make([]models.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	return out
}

// LoadSavedRoom opens a saved room. Its timers come back paused.
func (m *Manager) LoadSavedRoom(ctx context.Context, id uuid.UUID) (models.Room, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	for _, r := range m.savedRooms(ctx) {
		if r.RoomID != id {
			continue
		}
		roomID := r.RoomID
		if roomID == uuid.Nil {
			roomID = uuid.New()
		}
		m.replace(roomID, r.RoomName, paused(r.Timers))
		return m.Snapshot(), nil
	}
	return models.Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, id)
}

// DeleteSavedRoom removes a room from the saved list. Deleting the open room
// resets to an empty default room.
func (m *Manager) DeleteSavedRoom(ctx context.Context, id uuid.UUID) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	current, _ := m.identity()
	isCurrent := id == current
	if isCurrent {
		m.replace(uuid.New(), models.DefaultRoomName, nil)
	}

	_ = m.persister.Flush(ctx)
	m.persister.writeMu.Lock()
	defer m.persister.writeMu.Unlock()
	m.persister.forget(id)

	saved, err := m.repo.LoadSaved(ctx)
	if err != nil {
		log.Error().Err(err).Str("room_id", id.String()).Msg("failed to load saved rooms")
		return fmt.Errorf("failed to delete saved room: %w", err)
	}
	remaining := removeRoom(saved, id)
	if len(remaining) == len(saved) && !isCurrent {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, id)
	}
	if err := m.repo.SaveSaved(ctx, remaining); err != nil {
		log.Error().Err(err).Str("room_id", id.String()).Msg("failed to save room list")
		return fmt.Errorf("failed to delete saved room: %w", err)
	}
	if isCurrent {
		if err := m.repo.DeleteCurrent(ctx); err != nil {
			log.Error().Err(err).Msg("failed to clear current room")
		}
	}

	log.Info().Str("room_id", id.String()).Bool("was_open", isCurrent).Msg("deleted saved room")
	return nil
}

// Templates lists the template catalog.
func (m *Manager) Templates() []templates.Template {
	return m.catalog.List()
}

// LoadTemplate replaces the open room with a template under a new room ID.
func (m *Manager) LoadTemplate(key string) (models.Room, error) {
	t, ok := m.catalog.Get(key)
	if !ok {
		return models.Room{}, fmt.Errorf("%w: template %q", ErrRoomNotFound, key)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.replace(uuid.New(), t.Name, t.Instantiate())
	return m.Snapshot(), nil
}

// AddTimer appends a new idle timer.
func (m *Manager) AddTimer(title, message string, seconds int, alerts []models.AlertRule) (models.Timer, error) {
	if err := validateTimer(seconds, alerts); err != nil {
		return models.Timer{}, err
	}
	t := models.NewTimer(strings.TrimSpace(title), message, seconds, alerts)
	m.store.Add(t)
	return t, nil
}

// EditTimer replaces a timer's settings and resets its countdown.
func (m *Manager) EditTimer(id uuid.UUID, title, message string, seconds int, alerts []models.AlertRule) (models.Timer, error) {
	if err := validateTimer(seconds, alerts); err != nil {
		return models.Timer{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = models.DefaultTimerTitle
	}
	if !m.store.Edit(id, store.Fields{Title: title, Message: message, TotalSeconds: seconds, Alerts: alerts}) {
		return models.Timer{}, fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}
	t, _ := m.store.Get(id)
	return t, nil
}

// SetNotifications toggles finish notifications for a timer.
func (m *Manager) SetNotifications(id uuid.UUID, enabled bool) error {
	if !m.store.Update(id, store.Patch{NotificationsEnabled: &enabled}) {
		return fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}
	return nil
}

// DeleteTimer removes a timer.
func (m *Manager) DeleteTimer(id uuid.UUID) error {
	if !m.store.Delete(id) {
		return fmt.Errorf("%w: %s", ErrTimerNotFound, id)
	}
	return nil
}

// ReorderTimers applies a drag from one index to another. Invalid indexes
// are ignored.
func (m *Manager) ReorderTimers(from, to int) bool {
	return m.store.Reorder(from, to)
}

// Playback controls.

func (m *Manager) Start(id uuid.UUID) bool { return m.seq.Start(id) }
func (m *Manager) Pause(id uuid.UUID) bool { return m.seq.Pause(id) }
func (m *Manager) Reset(id uuid.UUID) bool { return m.seq.Reset(id) }
func (m *Manager) TogglePlayPause() bool   { return m.seq.TogglePlayPause() }
func (m *Manager) GoToNext() bool          { return m.seq.GoToNext() }
func (m *Manager) GoToPrevious() bool      { return m.seq.GoToPrevious() }
func (m *Manager) Add30Seconds() bool      { return m.seq.Add30Seconds() }
func (m *Manager) Subtract30Seconds() bool { return m.seq.Subtract30Seconds() }

// GenerateRoom replaces the open room with a generated one. On failure the
// room is untouched.
func (m *Manager) GenerateRoom(ctx context.Context, prompt string) (models.Room, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.Room{}, invalid("prompt", "cannot be empty")
	}
	if m.generator == nil {
		return models.Room{}, fmt.Errorf("%w: %w", ErrGeneration, genai.ErrNotConfigured)
	}

	draft, err := m.generator.GenerateRoom(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("room generation failed")
		return models.Room{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.replaceWithUndo(uuid.New(), draft.RoomName, fromDrafts(draft.Timers), "generate")
	return m.Snapshot(), nil
}

// EditRoomWithAI replaces the open room's timers with an edited list,
// keeping the room's name and ID. On failure the room is untouched.
func (m *Manager) EditRoomWithAI(ctx context.Context, prompt string) (models.Room, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.Room{}, invalid("prompt", "cannot be empty")
	}
	if m.generator == nil {
		return models.Room{}, fmt.Errorf("%w: %w", ErrGeneration, genai.ErrNotConfigured)
	}

	draft, err := m.generator.EditRoom(ctx, prompt, m.Snapshot())
	if err != nil {
		log.Error().Err(err).Msg("room edit failed")
		return models.Room{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	id, name := m.identity()
	m.replaceWithUndo(id, name, fromDrafts(draft.Timers), "edit")
	return m.Snapshot(), nil
}

// GenerateTimer appends one generated timer.
func (m *Manager) GenerateTimer(ctx context.Context, prompt string) (models.Timer, error) {
	if strings.TrimSpace(prompt) == "" {
		return models.Timer{}, invalid("prompt", "cannot be empty")
	}
	if m.generator == nil {
		return models.Timer{}, fmt.Errorf("%w: %w", ErrGeneration, genai.ErrNotConfigured)
	}

	draft, err := m.generator.GenerateTimer(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Msg("timer generation failed")
		return models.Timer{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	return m.AddTimer(draft.Title, draft.Message, draft.Seconds, nil)
}

// UndoAvailable reports whether an AI replacement can still be undone.
func (m *Manager) UndoAvailable() bool {
	m.undoMu.Lock()
	defer m.undoMu.Unlock()
	return m.undo != nil && m.clock.Now().Before(m.undo.expires)
}

// Undo restores the room as it was before the last AI replacement.
func (m *Manager) Undo() (models.Room, error) {
	m.undoMu.Lock()
	u := m.undo
	m.undo = nil
	m.undoMu.Unlock()

	if u == nil || !m.clock.Now().Before(u.expires) {
		return models.Room{}, ErrNothingToUndo
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.replace(u.snapshot.RoomID, u.snapshot.RoomName, u.snapshot.Timers)
	m.emitRoom(events.TypeRoomUndone, u.snapshot.RoomName, "undo", len(u.snapshot.Timers))

	log.Info().Str("room_id", u.snapshot.RoomID.String()).Msg("undid AI changes")
	return m.Snapshot(), nil
}

// KeepChanges discards the undo snapshot.
func (m *Manager) KeepChanges() {
	m.undoMu.Lock()
	had := m.undo != nil
	m.undo = nil
	m.undoMu.Unlock()

	if had {
		m.store.Transact(func(*store.Tx) bool { return true })
	}
}

// replace installs a new identity and timer list in one commit. Caller must
// hold opMu.
func (m *Manager) replace(id uuid.UUID, name string, timers []models.Timer) {
	m.store.Transact(func(tx *store.Tx) bool {
		m.setIdentity(id, name)
		tx.Replace(timers)
		return true
	})
}

// replaceWithUndo is replace for AI results: the room as it was at the
// moment of replacement becomes the undo snapshot. Caller must hold opMu.
func (m *Manager) replaceWithUndo(id uuid.UUID, name string, timers []models.Timer, source string) {
	var snapshot models.Room
	m.store.Transact(func(tx *store.Tx) bool {
		prevID, prevName := m.identity()
		snapshot = models.Room{RoomID: prevID, RoomName: prevName, Timers: tx.Timers()}
		m.setIdentity(id, name)
		tx.Replace(timers)
		return true
	})

	m.undoMu.Lock()
	m.undo = &undoState{snapshot: snapshot, expires: m.clock.Now().Add(m.config.UndoWindow)}
	m.undoMu.Unlock()

	m.emitRoom(events.TypeRoomReplaced, name, source, len(timers))
	log.Info().
		Str("room_id", id.String()).
		Str("room_name", name).
		Str("source", source).
		Int("timers", len(timers)).
		Msg("replaced room with AI result")
}

func (m *Manager) identity() (uuid.UUID, string) {
	m.identMu.RLock()
	defer m.identMu.RUnlock()
	return m.roomID, m.roomName
}

func (m *Manager) setIdentity(id uuid.UUID, name string) {
	m.identMu.Lock()
	defer m.identMu.Unlock()
	m.roomID, m.roomName = id, name
}

// onChange runs inside every store commit.
func (m *Manager) onChange(timers []models.Timer) {
	id, name := m.identity()
	room := models.Room{
		RoomID:    id,
		RoomName:  name,
		Timers:    timers,
		Timestamp: m.clock.Now().UnixMilli(),
	}
	m.persister.schedule(room)

	m.subsMu.Lock()
	subs := m.subs
	m.subsMu.Unlock()
	if len(subs) == 0 {
		return
	}
	state := m.stateFor(room)
	for _, fn := range subs {
		fn(state)
	}
}

// savedRooms flushes pending writes and returns the saved list. Storage
// failures are logged and yield an empty list.
func (m *Manager) savedRooms(ctx context.Context) []models.Room {
	_ = m.persister.Flush(ctx)

	m.persister.writeMu.Lock()
	defer m.persister.writeMu.Unlock()
	rooms, err := m.repo.LoadSaved(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to load saved rooms")
		return nil
	}
	return rooms
}

func (m *Manager) nameTaken(ctx context.Context, name string, except uuid.UUID) bool {
	for _, r := range m.savedRooms(ctx) {
		if r.RoomName == name && (except == uuid.Nil || r.RoomID != except) {
			return true
		}
	}
	return false
}

func validateTimer(seconds int, alerts []models.AlertRule) error {
	fieldErrors := make(map[string]string)
	if seconds <= 0 {
		fieldErrors["totalSeconds"] = "must be greater than zero"
	}
	for i, a := range alerts {
		if !a.Type.Valid() {
			fieldErrors[fmt.Sprintf("alerts[%d].type", i)] = fmt.Sprintf("unknown alert type %q", a.Type)
		}
		if a.Percentage < 0 || a.Percentage > 100 {
			fieldErrors[fmt.Sprintf("alerts[%d].percentage", i)] = "must be between 0 and 100"
		}
	}
	if len(fieldErrors) > 0 {
		return &ValidationError{FieldErrors: fieldErrors}
	}
	return nil
}

func fromDrafts(drafts []genai.TimerDraft) []models.Timer {
	out := make([]models.Timer, 0, len(drafts))
	for _, d := range drafts {
		out = append(out, models.NewTimer(d.Title, d.Message, d.Seconds, nil))
	}
	return out
}

func paused(timers []models.Timer) []models.Timer {
	out := models.CloneTimers(timers)
	for i := range out {
		out[i].IsRunning = false
	}
	return out
}
