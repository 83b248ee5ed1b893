package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	got      []Event
	done     chan struct{}
}

func newFakePublisher(failures, want int) *fakePublisher {
	return &fakePublisher{failures: failures, done: make(chan struct{}, want)}
}

func (p *fakePublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker unavailable")
	}
	p.got = append(p.got, event)
	p.done <- struct{}{}
	return nil
}

func waitFor(t *testing.T, ch <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-ch:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i+1)
		}
	}
}

func TestNew_MarshalsPayload(t *testing.T) {
	roomID := uuid.New()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	event, err := New(roomID, TypeTimerFinished, TimerPayload{TimerID: "t1", Title: "Intro", TotalSeconds: 60, At: at}, at)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if event.RoomID != roomID || event.EventType != TypeTimerFinished || event.ID == uuid.Nil {
		t.Fatalf("unexpected event: %+v", event)
	}

	var payload TimerPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Title != "Intro" || payload.TotalSeconds != 60 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestDispatcher_PublishesInOrder(t *testing.T) {
	pub := newFakePublisher(0, 3)
	d := NewDispatcher(pub, Config{QueueSize: 8, MaxRetries: 1, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	types := []string{TypeTimerStarted, TypeAlertRaised, TypeTimerFinished}
	for _, typ := range types {
		event, err := New(uuid.New(), typ, struct{}{}, time.Now())
		if err != nil {
			t.Fatal(err)
		}
		if !d.Emit(event) {
			t.Fatalf("expected %s to be queued", typ)
		}
	}
	waitFor(t, pub.done, 3)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	for i, typ := range types {
		if pub.got[i].EventType != typ {
			t.Fatalf("event %d: expected %s, got %s", i, typ, pub.got[i].EventType)
		}
	}
}

func TestDispatcher_RetriesFailedPublish(t *testing.T) {
	pub := newFakePublisher(2, 1)
	d := NewDispatcher(pub, Config{QueueSize: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	event, _ := New(uuid.New(), TypeRoomReplaced, RoomReplacedPayload{RoomName: "Standup"}, time.Now())
	d.Emit(event)
	waitFor(t, pub.done, 1)

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", pub.calls)
	}
}

func TestDispatcher_GivesUpAfterMaxRetries(t *testing.T) {
	pub := newFakePublisher(10, 1)
	d := NewDispatcher(pub, Config{QueueSize: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	event, _ := New(uuid.New(), TypeTimerPaused, struct{}{}, time.Now())
	err := d.publishWithRetry(context.Background(), event)
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if pub.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", pub.calls)
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	d := NewDispatcher(newFakePublisher(0, 2), Config{QueueSize: 1})

	first, _ := New(uuid.New(), TypeTimerStarted, struct{}{}, time.Now())
	second, _ := New(uuid.New(), TypeTimerPaused, struct{}{}, time.Now())
	if !d.Emit(first) {
		t.Fatal("expected first event to be queued")
	}
	if d.Emit(second) {
		t.Fatal("expected second event to be dropped")
	}
}

func TestLogPublisher(t *testing.T) {
	event, _ := New(uuid.New(), TypeRoomUndone, RoomReplacedPayload{RoomName: "X"}, time.Now())
	if err := NewLogPublisher().Publish(context.Background(), event); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestJetStreamConfig_Message(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	roomID := uuid.MustParse("7d1c2a8e-0000-4000-8000-000000000001")
	event, err := New(roomID, TypeTimerFinished, TimerPayload{Title: "Demo", TotalSeconds: 300}, time.Unix(100, 0).UTC())
	if err != nil {
		t.Fatal(err)
	}

	msg, err := cfg.Message(event)
	if err != nil {
		t.Fatalf("Message failed: %v", err)
	}
	if want := "room.events.7d1c2a8e-0000-4000-8000-000000000001.timer_finished"; msg.Subject != want {
		t.Fatalf("expected subject %s, got %s", want, msg.Subject)
	}

	headers := map[string]string{
		HeaderEventType: TypeTimerFinished,
		HeaderRoomID:    roomID.String(),
		HeaderEventID:   event.ID.String(),
	}
	for key, want := range headers {
		if got := msg.Header.Get(key); got != want {
			t.Errorf("header %s: expected %q, got %q", key, want, got)
		}
	}

	var decoded Event
	if err := json.Unmarshal(msg.Data, &decoded); err != nil {
		t.Fatalf("message body is not an event: %v", err)
	}
	if decoded.ID != event.ID || decoded.RoomID != roomID || decoded.EventType != TypeTimerFinished {
		t.Fatalf("unexpected decoded event: %+v", decoded)
	}
}

func TestJetStreamConfig_StreamConfig(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	cfg.SubjectPrefix = "office.rooms"

	sc := cfg.StreamConfig()
	if sc.Name != "ROOM_EVENTS" || len(sc.Subjects) != 1 || sc.Subjects[0] != "office.rooms.>" {
		t.Fatalf("unexpected stream config: %+v", sc)
	}
	if sc.MaxMsgsPerSubject != cfg.MaxMsgsPerRoom || sc.Duplicates != cfg.DuplicateWindow {
		t.Fatalf("expected per-room limits and dedupe window, got %+v", sc)
	}
}

func TestStreamDrifted(t *testing.T) {
	want := DefaultJetStreamConfig().StreamConfig()

	tests := map[string]struct {
		mutate func(c *JetStreamConfig)
		drift  bool
	}{
		"unchanged":      {mutate: func(*JetStreamConfig) {}, drift: false},
		"subject prefix": {mutate: func(c *JetStreamConfig) { c.SubjectPrefix = "other" }, drift: true},
		"max age":        {mutate: func(c *JetStreamConfig) { c.MaxAge = time.Hour }, drift: true},
		"per room cap":   {mutate: func(c *JetStreamConfig) { c.MaxMsgsPerRoom = 5 }, drift: true},
		"reconnect wait": {mutate: func(c *JetStreamConfig) { c.ReconnectWait = time.Minute }, drift: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultJetStreamConfig()
			tt.mutate(&cfg)
			if got := streamDrifted(cfg.StreamConfig(), want); got != tt.drift {
				t.Fatalf("expected drift=%v, got %v", tt.drift, got)
			}
		})
	}
}
