package events

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// Message headers set on every published room event.
const (
	HeaderEventType = "Event-Type"
	HeaderRoomID    = "Room-ID"
	HeaderEventID   = "Event-ID"
)

// JetStreamConfig configures the NATS connection and the room events stream.
// Events land on <SubjectPrefix>.<room id>.<event type>, so consumers can
// follow one room with a wildcard on the event type.
type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration
	MaxMsgsPerRoom  int64
	DuplicateWindow time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "ROOM_EVENTS",
		SubjectPrefix:   "room.events",
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		MaxAge:          24 * time.Hour,
		MaxMsgsPerRoom:  1000,
		DuplicateWindow: 2 * time.Minute,
	}
}

// Subject is the subject event is published on.
func (c JetStreamConfig) Subject(event Event) string {
	return fmt.Sprintf("%s.%s.%s", c.SubjectPrefix, event.RoomID, event.EventType)
}

// StreamConfig describes the stream holding room events. Retention is capped
// per room subject so a busy room cannot evict another room's history.
func (c JetStreamConfig) StreamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:              c.StreamName,
		Description:       "Timer room lifecycle events",
		Subjects:          []string{c.SubjectPrefix + ".>"},
		Retention:         jetstream.LimitsPolicy,
		Storage:           jetstream.FileStorage,
		MaxAge:            c.MaxAge,
		MaxMsgsPerSubject: c.MaxMsgsPerRoom,
		Duplicates:        c.DuplicateWindow,
	}
}

// Message encodes event as a NATS message with routing headers.
func (c JetStreamConfig) Message(event Event) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := nats.NewMsg(c.Subject(event))
	msg.Data = data
	msg.Header.Set(HeaderEventType, event.EventType)
	msg.Header.Set(HeaderRoomID, event.RoomID.String())
	msg.Header.Set(HeaderEventID, event.ID.String())
	return msg, nil
}

// streamDrifted reports whether the stream on the server differs from want
// in the settings this publisher owns.
func streamDrifted(have, want jetstream.StreamConfig) bool {
	return !slices.Equal(have.Subjects, want.Subjects) ||
		have.MaxAge != want.MaxAge ||
		have.MaxMsgsPerSubject != want.MaxMsgsPerSubject ||
		have.Duplicates != want.Duplicates
}

// JetStreamPublisher publishes room events to a JetStream stream. Event IDs
// double as message IDs, so a retried publish is deduplicated by the server.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("roomtimer"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("room events: NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("room events: NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	want := p.config.StreamConfig()

	stream, err := p.js.Stream(ctx, want.Name)
	if err != nil {
		if _, err := p.js.CreateStream(ctx, want); err != nil {
			return fmt.Errorf("create stream %s: %w", want.Name, err)
		}
		log.Info().Str("stream", want.Name).Msg("created room events stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if streamDrifted(info.Config, want) {
		if _, err := p.js.UpdateStream(ctx, want); err != nil {
			return fmt.Errorf("update stream %s: %w", want.Name, err)
		}
		log.Info().Str("stream", want.Name).Msg("updated room events stream")
	}
	return nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := p.config.Message(event)
	if err != nil {
		return err
	}

	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(event.ID.String()),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType, err)
	}

	log.Debug().
		Str("subject", msg.Subject).
		Str("room_id", event.RoomID.String()).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("published room event")
	return nil
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}
