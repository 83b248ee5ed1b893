package sampler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomtimer/go/internal/models"
)

type update struct {
	ID        uuid.UUID
	Gen       uint64
	Remaining int
}

type recordingSink struct {
	mu       sync.Mutex
	updates  []update
	finishes []update
	notify   chan struct{}
}

func newRecordingSink() *recordingSink {
	return &recordingSink{notify: make(chan struct{}, 16)}
}

func (r *recordingSink) ApplyRemaining(id uuid.UUID, gen uint64, remaining int) {
	r.mu.Lock()
	r.updates = append(r.updates, update{ID: id, Gen: gen, Remaining: remaining})
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *recordingSink) Finish(id uuid.UUID, gen uint64) {
	r.mu.Lock()
	r.finishes = append(r.finishes, update{ID: id, Gen: gen})
	r.mu.Unlock()
}

func (r *recordingSink) remainings() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.updates))
	for i, u := range r.updates {
		out[i] = u.Remaining
	}
	return out
}

func (r *recordingSink) finishCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.finishes)
}

func runningTimer(seconds int) models.Timer {
	t := models.NewTimer("Talk", "", seconds, nil)
	t.IsRunning = true
	return t
}

func TestSampler_DriftCorrection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	s.Sync([]models.Timer{runningTimer(100)})
	clock.Advance(37 * time.Second)
	s.Poll()

	if diff := cmp.Diff([]int{63}, sink.remainings()); diff != "" {
		t.Fatalf("unexpected updates (-want +got):\n%s", diff)
	}
}

func TestSampler_EmitsOnlyOnChange(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	s.Sync([]models.Timer{runningTimer(10)})
	for i := 0; i < 9; i++ {
		clock.Advance(100 * time.Millisecond)
		s.Poll()
	}
	if got := sink.remainings(); len(got) != 0 {
		t.Fatalf("expected no updates within the first second, got %v", got)
	}

	clock.Advance(100 * time.Millisecond)
	s.Poll()
	s.Poll()
	if diff := cmp.Diff([]int{9}, sink.remainings()); diff != "" {
		t.Fatalf("unexpected updates (-want +got):\n%s", diff)
	}
}

func TestSampler_MonotonicAndFinishesOnce(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	s.Sync([]models.Timer{runningTimer(3)})
	for i := 0; i < 6; i++ {
		clock.Advance(time.Second)
		s.Poll()
	}

	if diff := cmp.Diff([]int{2, 1, 0}, sink.remainings()); diff != "" {
		t.Fatalf("unexpected updates (-want +got):\n%s", diff)
	}
	if n := sink.finishCount(); n != 1 {
		t.Fatalf("expected exactly one finish, got %d", n)
	}
}

func TestSampler_ReanchorsOnExternalChange(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	timer := runningTimer(100)
	s.Sync([]models.Timer{timer})
	clock.Advance(10 * time.Second)
	s.Poll()

	// +30s applied by the user while running.
	timer.RemainingSeconds = 120
	timer.TotalSeconds = 130
	s.Sync([]models.Timer{timer})

	clock.Advance(time.Second)
	s.Poll()

	if diff := cmp.Diff([]int{90, 119}, sink.remainings()); diff != "" {
		t.Fatalf("unexpected updates (-want +got):\n%s", diff)
	}
}

func TestSampler_EchoedUpdateDoesNotReanchor(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	timer := runningTimer(100)
	s.Sync([]models.Timer{timer})
	clock.Advance(1500 * time.Millisecond)
	s.Poll()

	// The store commits the emitted value and the hook feeds it back.
	timer.RemainingSeconds = 99
	s.Sync([]models.Timer{timer})

	clock.Advance(600 * time.Millisecond)
	s.Poll()

	if diff := cmp.Diff([]int{99, 98}, sink.remainings()); diff != "" {
		t.Fatalf("anchor should survive its own echo (-want +got):\n%s", diff)
	}
}

func TestSampler_StaleGenerationRejected(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	timer := runningTimer(10)
	s.Sync([]models.Timer{timer})
	clock.Advance(time.Second)
	s.Poll()

	sink.mu.Lock()
	first := sink.updates[0]
	sink.mu.Unlock()
	if !s.Owns(first.ID, first.Gen) {
		t.Fatal("expected the live generation to be owned")
	}

	// Pause, then resume: the first run's generation must be dead.
	timer.IsRunning = false
	s.Sync([]models.Timer{timer})
	if s.Owns(first.ID, first.Gen) {
		t.Fatal("expected paused run to lose ownership")
	}

	timer.IsRunning = true
	timer.RemainingSeconds = 9
	s.Sync([]models.Timer{timer})
	if s.Owns(first.ID, first.Gen) {
		t.Fatal("expected resumed run to carry a new generation")
	}
}

func TestSampler_SwitchingTimersReanchors(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 0, sink)

	a := runningTimer(10)
	b := models.NewTimer("B", "", 20, nil)
	s.Sync([]models.Timer{a, b})
	clock.Advance(5 * time.Second)

	a.IsRunning = false
	b.IsRunning = true
	s.Sync([]models.Timer{a, b})
	clock.Advance(time.Second)
	s.Poll()

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.updates) != 1 || sink.updates[0].ID != b.ID || sink.updates[0].Remaining != 19 {
		t.Fatalf("expected a single update for B at 19, got %+v", sink.updates)
	}
}

func TestSampler_RunPollsWhileAnchored(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sink := newRecordingSink()
	s := New(clock, 100*time.Millisecond, sink)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Sync([]models.Timer{runningTimer(10)})
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("ticker never created: %v", err)
	}
	clock.Advance(time.Second)

	select {
	case <-sink.notify:
	case <-ctx.Done():
		t.Fatal("timed out waiting for a sampled update")
	}
	if diff := cmp.Diff([]int{9}, sink.remainings()); diff != "" {
		t.Fatalf("unexpected updates (-want +got):\n%s", diff)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}
