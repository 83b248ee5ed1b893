package store

import (
	"github.com/google/uuid"
	"github.com/mcdev12/roomtimer/go/internal/models"
)

// Tx is a working copy of the timer list used by Store.Transact.
type Tx struct {
	timers  []models.Timer
	started uuid.UUID
}

// Len returns the number of timers in the working copy.
func (tx *Tx) Len() int { return len(tx.timers) }

// Timer returns a copy of the timer at index i.
func (tx *Tx) Timer(i int) models.Timer { return tx.timers[i].Clone() }

// Timers returns a copy of the whole working list.
func (tx *Tx) Timers() []models.Timer { return models.CloneTimers(tx.timers) }

// Index returns the position of id, or -1.
func (tx *Tx) Index(id uuid.UUID) int { return indexOf(tx.timers, id) }

// Set writes t at index i. A timer that transitions to running becomes the
// one kept running when the transaction commits.
func (tx *Tx) Set(i int, t models.Timer) {
	if t.IsRunning && !tx.timers[i].IsRunning {
		tx.started = t.ID
	}
	tx.timers[i] = t.Clone()
}

// StopAll clears the running flag on every timer except keep.
func (tx *Tx) StopAll(keep uuid.UUID) {
	for i := range tx.timers {
		if tx.timers[i].ID != keep {
			tx.timers[i].IsRunning = false
		}
	}
}

// Replace swaps the whole working list.
func (tx *Tx) Replace(timers []models.Timer) {
	tx.timers = models.CloneTimers(timers)
	tx.started = uuid.Nil
}
