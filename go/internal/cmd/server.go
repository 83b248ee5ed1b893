package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mcdev12/roomtimer/go/internal/config"
	"github.com/mcdev12/roomtimer/go/internal/gateway"
	"github.com/mcdev12/roomtimer/go/internal/room"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	router := mux.NewRouter()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	// Register RPC service
	registerServices(router, services)

	// WebSocket gateway
	gateway.NewWebSocketHandler(services.Gateway).RegisterRoutes(router)

	// REST endpoints
	router.Handle("/api/generate", services.GenAI)
	router.HandleFunc("/api/room", roomStateHandler(services.Rooms)).Methods(http.MethodGet)
	router.HandleFunc("/api/templates", templatesHandler(services.Rooms)).Methods(http.MethodGet)

	// Add health check endpoint
	setupHealthCheck(router)

	handler := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
	)(c.Handler(router))

	// Setup HTTP/2 server
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func registerServices(router *mux.Router, services *Services) {
	roomServicePath, roomServiceHandler := room.NewRoomServiceHandler(services.Room)
	router.PathPrefix(roomServicePath).Handler(roomServiceHandler)
}

func setupHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

func roomStateHandler(rooms *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, rooms.State())
	}
}

func templatesHandler(rooms *room.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, rooms.Templates())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// recoveryLogger routes panics caught by the recovery handler to zerolog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().Msg(fmt.Sprint(v...))
}
