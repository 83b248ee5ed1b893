package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:  256,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// Dispatcher queues events and publishes them from a single worker so that
// slow or failing sinks never block timer transitions.
type Dispatcher struct {
	publisher Publisher
	config    Config
	queue     chan Event
}

func NewDispatcher(publisher Publisher, cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	return &Dispatcher{
		publisher: publisher,
		config:    cfg,
		queue:     make(chan Event, cfg.QueueSize),
	}
}

// Emit queues an event. Events are dropped when the queue is full.
func (d *Dispatcher) Emit(event Event) bool {
	select {
	case d.queue <- event:
		return true
	default:
		log.Warn().
			Str("event_id", event.ID.String()).
			Str("event_type", event.EventType).
			Msg("event queue full, dropping event")
		return false
	}
}

// Run publishes queued events until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Info().
		Int("queue_size", d.config.QueueSize).
		Int("max_retries", d.config.MaxRetries).
		Msg("event dispatcher started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("pending", len(d.queue)).Msg("event dispatcher stopped")
			return nil
		case event := <-d.queue:
			if err := d.publishWithRetry(ctx, event); err != nil {
				log.Error().
					Err(err).
					Str("event_id", event.ID.String()).
					Str("event_type", event.EventType).
					Msg("failed to publish event")
			}
		}
	}
}

func (d *Dispatcher) publishWithRetry(ctx context.Context, event Event) error {
	var lastErr error

	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.config.RetryDelay * time.Duration(attempt)):
			}
		}

		if err := d.publisher.Publish(ctx, event); err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}

		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", d.config.MaxRetries+1, lastErr)
}
