// Package sequencer drives a room's timers in order: it picks the active
// timer, starts and pauses it, navigates between timers and auto-advances when
// the running timer finishes.
package sequencer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/timer/alert"
	"github.com/mcdev12/roomtimer/go/internal/timer/sampler"
	"github.com/mcdev12/roomtimer/go/internal/timer/store"
	"github.com/rs/zerolog/log"
)

// AdjustStep is the amount added or removed by Add30Seconds and Subtract30Seconds.
const AdjustStep = 30

// Listener is notified after lifecycle transitions are committed.
type Listener interface {
	TimerStarted(t models.Timer)
	TimerPaused(t models.Timer)
	TimerFinished(t models.Timer)
	AlertRaised(t models.Timer, rule models.AlertRule)
}

// NopListener ignores every notification.
type NopListener struct{}

func (NopListener) TimerStarted(models.Timer)                   {}
func (NopListener) TimerPaused(models.Timer)                    {}
func (NopListener) TimerFinished(models.Timer)                  {}
func (NopListener) AlertRaised(models.Timer, models.AlertRule) {}

// Sequencer owns the sampler for a store.
type Sequencer struct {
	store    *store.Store
	sampler  *sampler.Sampler
	listener Listener
}

// New wires a sequencer and its sampler to st. A nil listener is replaced by
// NopListener.
func New(st *store.Store, clock clockwork.Clock, interval time.Duration, listener Listener) *Sequencer {
	if listener == nil {
		listener = NopListener{}
	}
	q := &Sequencer{store: st, listener: listener}
	q.sampler = sampler.New(clock, interval, q)
	st.OnChange(q.sampler.Sync)
	q.sampler.Sync(st.List())
	return q
}

// Run drives the sampler until ctx is cancelled.
func (q *Sequencer) Run(ctx context.Context) error {
	return q.sampler.Run(ctx)
}

// Poll samples the clock once outside of Run.
func (q *Sequencer) Poll() {
	q.sampler.Poll()
}

// ActiveIndex returns the running timer's index, else the first timer with
// time left, else -1.
func ActiveIndex(timers []models.Timer) int {
	for i, t := range timers {
		if t.IsRunning {
			return i
		}
	}
	for i, t := range timers {
		if t.RemainingSeconds > 0 {
			return i
		}
	}
	return -1
}

// Active returns the active timer and its index.
func (q *Sequencer) Active() (models.Timer, int, bool) {
	timers := q.store.List()
	i := ActiveIndex(timers)
	if i < 0 {
		return models.Timer{}, -1, false
	}
	return timers[i], i, true
}

// Start runs the timer with the given id, stopping any other. Timers without
// remaining time cannot start.
func (q *Sequencer) Start(id uuid.UUID) bool {
	var started models.Timer
	ok := q.store.Transact(func(tx *store.Tx) bool {
		i := tx.Index(id)
		if i < 0 {
			return false
		}
		t := tx.Timer(i)
		if t.IsRunning || t.RemainingSeconds <= 0 {
			return false
		}
		tx.StopAll(id)
		t.IsRunning = true
		tx.Set(i, t)
		started = t
		return true
	})
	if ok {
		q.listener.TimerStarted(started)
	}
	return ok
}

// Pause stops the timer with the given id, keeping its remaining time.
func (q *Sequencer) Pause(id uuid.UUID) bool {
	var paused models.Timer
	ok := q.store.Transact(func(tx *store.Tx) bool {
		i := tx.Index(id)
		if i < 0 {
			return false
		}
		t := tx.Timer(i)
		if !t.IsRunning {
			return false
		}
		t.IsRunning = false
		tx.Set(i, t)
		paused = t
		return true
	})
	if ok {
		q.listener.TimerPaused(paused)
	}
	return ok
}

// Reset stops the timer and restores its remaining time to the total.
func (q *Sequencer) Reset(id uuid.UUID) bool {
	return q.store.Transact(func(tx *store.Tx) bool {
		i := tx.Index(id)
		if i < 0 {
			return false
		}
		t := tx.Timer(i)
		t.IsRunning = false
		t.RemainingSeconds = t.TotalSeconds
		tx.Set(i, t)
		return true
	})
}

// TogglePlayPause stops every other timer and flips the active one.
func (q *Sequencer) TogglePlayPause() bool {
	var toggled models.Timer
	ok := q.store.Transact(func(tx *store.Tx) bool {
		a := ActiveIndex(tx.Timers())
		if a < 0 {
			return false
		}
		t := tx.Timer(a)
		tx.StopAll(t.ID)
		t.IsRunning = !t.IsRunning
		if t.IsRunning && t.RemainingSeconds <= 0 {
			return false
		}
		tx.Set(a, t)
		toggled = t
		return true
	})
	if !ok {
		return false
	}
	if toggled.IsRunning {
		q.listener.TimerStarted(toggled)
	} else {
		q.listener.TimerPaused(toggled)
	}
	return true
}

// GoToNext ends the active timer and moves to the following one, which starts
// only if the active timer was running. There is no wraparound.
func (q *Sequencer) GoToNext() bool {
	return q.navigate(func(n, active int) (int, bool) {
		if n < 2 || active < 0 || active >= n-1 {
			return 0, false
		}
		return active + 1, true
	})
}

// GoToPrevious ends the active timer and moves to the one before it, which
// starts only if the active timer was running.
func (q *Sequencer) GoToPrevious() bool {
	return q.navigate(func(n, active int) (int, bool) {
		if active <= 0 {
			return 0, false
		}
		return active - 1, true
	})
}

// navigate zeroes and stops the active timer in a single commit. When the
// active timer was running, target starts, getting its full time back if it
// had been zeroed.
func (q *Sequencer) navigate(pick func(n, active int) (int, bool)) bool {
	var started *models.Timer
	ok := q.store.Transact(func(tx *store.Tx) bool {
		a := ActiveIndex(tx.Timers())
		target, ok := pick(tx.Len(), a)
		if !ok {
			return false
		}

		cur := tx.Timer(a)
		wasRunning := cur.IsRunning
		cur.RemainingSeconds = 0
		cur.IsRunning = false
		tx.Set(a, cur)

		if !wasRunning {
			return true
		}
		next := tx.Timer(target)
		if next.RemainingSeconds <= 0 {
			next.RemainingSeconds = next.TotalSeconds
		}
		if next.RemainingSeconds > 0 {
			next.IsRunning = true
			started = &next
			tx.Set(target, next)
		}
		return true
	})
	if ok && started != nil {
		q.listener.TimerStarted(*started)
	}
	return ok
}

// Add30Seconds extends the active timer's remaining and total time.
func (q *Sequencer) Add30Seconds() bool {
	return q.adjustActive(AdjustStep)
}

// Subtract30Seconds shortens the active timer, clamping both values at zero.
func (q *Sequencer) Subtract30Seconds() bool {
	return q.adjustActive(-AdjustStep)
}

func (q *Sequencer) adjustActive(delta int) bool {
	return q.store.Transact(func(tx *store.Tx) bool {
		a := ActiveIndex(tx.Timers())
		if a < 0 {
			return false
		}
		t := tx.Timer(a)
		t.RemainingSeconds = max(0, t.RemainingSeconds+delta)
		t.TotalSeconds = max(0, t.TotalSeconds+delta)
		tx.Set(a, t)
		return true
	})
}

// ApplyRemaining commits a sampled remaining value for the running timer and
// records any newly reached alert level. Stale generations are dropped.
func (q *Sequencer) ApplyRemaining(id uuid.UUID, gen uint64, remaining int) {
	var (
		raised  bool
		rule    models.AlertRule
		updated models.Timer
	)
	q.store.Transact(func(tx *store.Tx) bool {
		if !q.sampler.Owns(id, gen) {
			log.Debug().Str("timer_id", id.String()).Uint64("generation", gen).Msg("dropping stale tick")
			return false
		}
		i := tx.Index(id)
		if i < 0 {
			return false
		}
		t := tx.Timer(i)
		if !t.IsRunning {
			return false
		}
		t.RemainingSeconds = remaining
		if r, ok := alert.ForTimer(t); ok && !triggered(t, r.Type) {
			t.TriggeredAlerts = append(t.TriggeredAlerts, r.Type)
			raised, rule = true, r
		}
		tx.Set(i, t)
		updated = t
		return true
	})
	if raised {
		q.listener.AlertRaised(updated, rule)
	}
}

// Finish auto-advances: the finished timer is reset to its full time and, if
// it was running, the next timer starts in the same commit.
func (q *Sequencer) Finish(id uuid.UUID, gen uint64) {
	var (
		finished models.Timer
		started  *models.Timer
	)
	ok := q.store.Transact(func(tx *store.Tx) bool {
		if !q.sampler.Owns(id, gen) {
			log.Debug().Str("timer_id", id.String()).Uint64("generation", gen).Msg("dropping stale finish")
			return false
		}
		i := tx.Index(id)
		if i < 0 {
			return false
		}
		t := tx.Timer(i)
		wasRunning := t.IsRunning

		tx.StopAll(uuid.Nil)
		t.IsRunning = false
		t.RemainingSeconds = t.TotalSeconds
		tx.Set(i, t)
		finished = t

		if wasRunning && i+1 < tx.Len() {
			next := tx.Timer(i + 1)
			if next.RemainingSeconds <= 0 {
				next.RemainingSeconds = next.TotalSeconds
			}
			if next.RemainingSeconds > 0 {
				next.IsRunning = true
				tx.Set(i+1, next)
				started = &next
			}
		}
		return true
	})
	if !ok {
		return
	}

	log.Info().
		Str("timer_id", finished.ID.String()).
		Str("title", finished.Title).
		Bool("advanced", started != nil).
		Msg("timer finished")

	q.listener.TimerFinished(finished)
	if started != nil {
		q.listener.TimerStarted(*started)
	}
}

func triggered(t models.Timer, typ models.AlertType) bool {
	for _, a := range t.TriggeredAlerts {
		if a == typ {
			return true
		}
	}
	return false
}
