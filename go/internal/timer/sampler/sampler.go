// Package sampler turns wall-clock time into remaining-seconds updates for the
// running timer.
//
// Remaining time is never decremented per tick. When a timer starts running
// the sampler records an anchor (wall-clock instant, remaining seconds) and
// every poll recomputes
//
//	remaining = max(0, anchorRemaining - floor((now - anchorTime) / 1s))
//
// so late or dropped ticks cannot accumulate drift.
package sampler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the polling cadence while a timer is running.
const DefaultInterval = 100 * time.Millisecond

// Sink receives sampler output. Both calls carry the generation of the anchor
// that produced them; receivers must drop calls whose generation is no longer
// current (see Sampler.Owns).
type Sink interface {
	ApplyRemaining(id uuid.UUID, gen uint64, remaining int)
	Finish(id uuid.UUID, gen uint64)
}

type anchor struct {
	id        uuid.UUID
	gen       uint64
	at        time.Time
	remaining int
	total     int
	last      int
	finished  bool
}

// Sampler tracks at most one anchored run at a time.
type Sampler struct {
	clock    clockwork.Clock
	interval time.Duration
	sink     Sink

	mu     sync.Mutex
	run    *anchor
	gen    uint64
	wakeCh chan struct{}
}

// New creates a sampler. A zero interval selects DefaultInterval.
func New(clock clockwork.Clock, interval time.Duration, sink Sink) *Sampler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sampler{
		clock:    clock,
		interval: interval,
		sink:     sink,
		wakeCh:   make(chan struct{}, 1),
	}
}

// Sync reconciles the anchor with a committed timer list. It re-anchors when
// the running timer changes, when its remaining or total differs from what the
// sampler last reported, and drops the anchor when nothing runs.
func (s *Sampler) Sync(timers []models.Timer) {
	var running *models.Timer
	for i := range timers {
		if timers[i].IsRunning {
			running = &timers[i]
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if running == nil {
		if s.run != nil {
			s.gen++
			log.Debug().Str("timer_id", s.run.id.String()).Msg("sampler anchor cleared")
			s.run = nil
		}
		return
	}

	cur := s.run
	if cur != nil && cur.id == running.ID &&
		cur.last == running.RemainingSeconds && cur.total == running.TotalSeconds {
		return
	}

	s.gen++
	s.run = &anchor{
		id:        running.ID,
		gen:       s.gen,
		at:        s.clock.Now(),
		remaining: running.RemainingSeconds,
		total:     running.TotalSeconds,
		last:      running.RemainingSeconds,
	}

	log.Debug().
		Str("timer_id", running.ID.String()).
		Uint64("generation", s.gen).
		Int("remaining", running.RemainingSeconds).
		Msg("sampler anchored")

	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Owns reports whether gen is the current anchor generation for id.
func (s *Sampler) Owns(id uuid.UUID, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil && s.run.id == id && s.run.gen == gen
}

// Poll samples the clock once. It emits an update only when the computed
// remaining value changed, and signals finish exactly once per anchored run.
func (s *Sampler) Poll() {
	s.mu.Lock()
	a := s.run
	if a == nil || a.finished {
		s.mu.Unlock()
		return
	}

	elapsed := int(s.clock.Since(a.at) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	next := a.remaining - elapsed
	if next < 0 {
		next = 0
	}

	changed := next != a.last
	a.last = next
	finished := next == 0
	if finished {
		a.finished = true
	}
	id, gen := a.id, a.gen
	s.mu.Unlock()

	if changed {
		s.sink.ApplyRemaining(id, gen, next)
	}
	if finished {
		log.Debug().Str("timer_id", id.String()).Uint64("generation", gen).Msg("sampler run finished")
		s.sink.Finish(id, gen)
	}
}

func (s *Sampler) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil && !s.run.finished
}

// Run polls while a run is anchored and idles on the wake channel otherwise.
// It returns when ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	log.Info().Dur("interval", s.interval).Msg("sampler started")

	for {
		if !s.active() {
			select {
			case <-ctx.Done():
				log.Info().Msg("sampler shutting down")
				return nil
			case <-s.wakeCh:
				continue
			}
		}

		ticker := s.clock.NewTicker(s.interval)
		s.tickUntilIdle(ctx, ticker)
		ticker.Stop()

		if ctx.Err() != nil {
			log.Info().Msg("sampler shutting down")
			return nil
		}
	}
}

func (s *Sampler) tickUntilIdle(ctx context.Context, ticker clockwork.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.Poll()
			if !s.active() {
				return
			}
		}
	}
}
