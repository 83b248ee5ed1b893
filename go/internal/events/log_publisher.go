package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the application log. It is used when no
// message broker is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Str("room_id", event.RoomID.String()).
		RawJSON("payload", event.Payload).
		Msg("room event")
	return nil
}
