// Package store holds the ordered timer list of the open room.
//
// Every mutation builds a new list and commits it in one step under the
// store lock. The commit path is the only place that enforces the
// single-running rule: whenever a commit starts a timer, every other timer in
// the list is stopped in the same commit.
package store

import (
	"sync"

	"github.com/google/uuid"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ChangeHook observes every committed list, in commit order. Hooks run while
// the store lock is held, so they must not call back into the Store. The
// slice is shared between hooks and must be treated as read-only.
type ChangeHook func(timers []models.Timer)

// Fields are the user-editable attributes replaced by Edit.
type Fields struct {
	Title        string
	Message      string
	TotalSeconds int
	Alerts       []models.AlertRule
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title                *string
	Message              *string
	TotalSeconds         *int
	RemainingSeconds     *int
	IsRunning            *bool
	NotificationsEnabled *bool
	Alerts               []models.AlertRule
	TriggeredAlerts      []models.AlertType
}

// Store is the timer entity store.
type Store struct {
	mu     sync.Mutex
	timers []models.Timer
	hooks  []ChangeHook
}

// New creates a store seeded with timers.
func New(timers []models.Timer) *Store {
	s := &Store{}
	s.timers = normalize(models.CloneTimers(timers), uuid.Nil)
	return s
}

// OnChange registers a hook invoked after every commit.
func (s *Store) OnChange(hook ChangeHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// List returns a copy of the current timers.
func (s *Store) List() []models.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneTimers(s.timers)
}

// Len returns the number of timers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Get returns the timer with the given id.
func (s *Store) Get(id uuid.UUID) (models.Timer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.timers, id); i >= 0 {
		return s.timers[i].Clone(), true
	}
	return models.Timer{}, false
}

// Add appends a timer. The running state of the others is untouched unless
// the new timer is itself running.
func (s *Store) Add(t models.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(models.CloneTimers(s.timers), t.Clone())
	started := uuid.Nil
	if t.IsRunning {
		started = t.ID
	}
	s.commit(next, started)
}

// Edit replaces the user-editable fields of a timer, resets its remaining time
// to the new total and clears its triggered alerts. It reports whether the
// timer existed.
func (s *Store) Edit(id uuid.UUID, f Fields) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.timers, id)
	if i < 0 {
		return false
	}
	next := models.CloneTimers(s.timers)
	t := &next[i]
	t.Title = f.Title
	t.Message = f.Message
	t.TotalSeconds = f.TotalSeconds
	t.RemainingSeconds = f.TotalSeconds
	t.Alerts = append([]models.AlertRule{}, f.Alerts...)
	t.TriggeredAlerts = []models.AlertType{}
	s.commit(next, uuid.Nil)
	return true
}

// Delete removes a timer. It reports whether the timer existed.
func (s *Store) Delete(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.timers, id)
	if i < 0 {
		return false
	}
	next := make([]models.Timer, 0, len(s.timers)-1)
	next = append(next, models.CloneTimers(s.timers[:i])...)
	next = append(next, models.CloneTimers(s.timers[i+1:])...)
	s.commit(next, uuid.Nil)
	return true
}

// Reorder moves the timer at from to position to. Out-of-range indexes are a
// no-op.
func (s *Store) Reorder(from, to int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.timers)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return false
	}
	next := models.CloneTimers(s.timers)
	moved := next[from]
	next = append(next[:from], next[from+1:]...)
	next = append(next[:to], append([]models.Timer{moved}, next[to:]...)...)
	s.commit(next, uuid.Nil)
	return true
}

// Update applies a partial patch. Setting IsRunning to true stops every other
// timer in the same commit. It reports whether the timer existed.
func (s *Store) Update(id uuid.UUID, p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.timers, id)
	if i < 0 {
		return false
	}
	next := models.CloneTimers(s.timers)
	p.apply(&next[i])

	started := uuid.Nil
	if p.IsRunning != nil && *p.IsRunning {
		started = id
	}
	s.commit(next, started)
	return true
}

// Replace swaps the whole list in one commit.
func (s *Store) Replace(timers []models.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commit(models.CloneTimers(timers), uuid.Nil)
}

// Transact runs fn against a working copy of the list. If fn returns true the
// copy is committed as a single step; otherwise it is discarded.
func (s *Store) Transact(fn func(tx *Tx) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{timers: models.CloneTimers(s.timers)}
	if !fn(tx) {
		return false
	}
	s.commit(tx.timers, tx.started)
	return true
}

// commit installs next as the current list. Caller must hold s.mu.
func (s *Store) commit(next []models.Timer, started uuid.UUID) {
	s.timers = normalize(next, started)

	log.Debug().
		Int("timers", len(s.timers)).
		Str("started", startedString(started)).
		Msg("timer store committed")

	if len(s.hooks) == 0 {
		return
	}
	snapshot := models.CloneTimers(s.timers)
	for _, hook := range s.hooks {
		hook(snapshot)
	}
}

// normalize enforces at most one running timer. The timer named by started
// wins; otherwise the first running timer in list order is kept.
func normalize(timers []models.Timer, started uuid.UUID) []models.Timer {
	winner := -1
	if started != uuid.Nil {
		if i := indexOf(timers, started); i >= 0 && timers[i].IsRunning {
			winner = i
		}
	}
	if winner < 0 {
		for i, t := range timers {
			if t.IsRunning {
				winner = i
				break
			}
		}
	}
	for i := range timers {
		if i != winner {
			timers[i].IsRunning = false
		}
	}
	return timers
}

func indexOf(timers []models.Timer, id uuid.UUID) int {
	for i, t := range timers {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func startedString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}

func (p Patch) apply(t *models.Timer) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Message != nil {
		t.Message = *p.Message
	}
	if p.TotalSeconds != nil {
		t.TotalSeconds = *p.TotalSeconds
	}
	if p.RemainingSeconds != nil {
		t.RemainingSeconds = *p.RemainingSeconds
	}
	if p.IsRunning != nil {
		t.IsRunning = *p.IsRunning
	}
	if p.NotificationsEnabled != nil {
		t.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.Alerts != nil {
		t.Alerts = append([]models.AlertRule{}, p.Alerts...)
	}
	if p.TriggeredAlerts != nil {
		t.TriggeredAlerts = append([]models.AlertType{}, p.TriggeredAlerts...)
	}
}
