package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomtimer/go/internal/config"
	"github.com/mcdev12/roomtimer/go/internal/events"
	"github.com/mcdev12/roomtimer/go/internal/gateway"
	"github.com/mcdev12/roomtimer/go/internal/genai"
	"github.com/mcdev12/roomtimer/go/internal/room"
	"github.com/mcdev12/roomtimer/go/internal/storage"
	"github.com/mcdev12/roomtimer/go/internal/templates"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Rooms      *room.Manager
	Room       *room.Service
	Gateway    *gateway.ConnectionManager
	GenAI      *genai.Handler
	Dispatcher *events.Dispatcher

	closers []func() error
	wg      sync.WaitGroup
}

func setupServices(ctx context.Context, cfg config.Config, kv storage.KV) (*Services, error) {
	// Wire up dependency injection chain
	// Store → Repository → Manager → Service / Gateway

	catalog, err := templates.Load(cfg.TemplatesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s := &Services{}

	// Events
	var publisher events.Publisher = events.NewLogPublisher()
	if cfg.NATSEnabled {
		js, err := events.NewJetStreamPublisher(ctx, cfg.JetStream)
		if err != nil {
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		s.closers = append(s.closers, js.Close)
		publisher = js
	}
	s.Dispatcher = events.NewDispatcher(publisher, cfg.Events)

	// Generation
	aiClient := genai.NewClient(cfg.OpenAI)
	if !aiClient.Configured() {
		log.Warn().Msg("OPENAI_API_KEY not set, AI generation disabled")
	}
	s.GenAI = genai.NewHandler(aiClient)

	// Room
	repo := room.NewKVRepository(kv)
	s.Rooms = room.NewManager(repo, catalog, genai.NewGenerator(aiClient), s.Dispatcher, clockwork.NewRealClock(), cfg.Room)
	s.Room = room.NewService(s.Rooms)

	// Gateway
	s.Gateway = gateway.NewConnectionManager(s.Rooms, gateway.DefaultConnectionConfig())
	s.Rooms.Subscribe(s.Gateway.BroadcastState)

	s.Rooms.Restore(ctx)
	return s, nil
}

// Start runs the background workers until ctx is cancelled.
func (s *Services) Start(ctx context.Context) {
	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		if err := s.Dispatcher.Run(ctx); err != nil {
			log.Error().Err(err).Msg("event dispatcher stopped")
		}
	}()
	go func() {
		defer s.wg.Done()
		if err := s.Rooms.Run(ctx); err != nil {
			log.Error().Err(err).Msg("room manager stopped")
		}
	}()
	go func() {
		defer s.wg.Done()
		s.Gateway.Start(ctx)
	}()
}

// Wait blocks until the workers exit and then releases resources.
func (s *Services) Wait() {
	s.wg.Wait()
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			log.Error().Err(err).Msg("failed to close resource")
		}
	}
}
