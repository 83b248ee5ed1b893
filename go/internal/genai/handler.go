package genai

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/roomtimer/go/clients"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Prompt      string       `json:"prompt"`
	Type        Kind         `json:"type"`
	CurrentRoom *models.Room `json:"currentRoom,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler proxies generation requests for browser clients that cannot hold
// the API key.
type Handler struct {
	generator  *Generator
	configured func() bool
}

// NewHandler creates the proxy handler.
func NewHandler(client *Client) *Handler {
	return &Handler{generator: NewGenerator(client), configured: client.Configured}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}
	if !h.configured() {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: ErrNotConfigured.Error()})
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if req.Type == "" {
		req.Type = KindRoom
	}

	result, err := h.generator.Raw(r.Context(), req.Type, req.Prompt, req.CurrentRoom)
	if err != nil {
		status, message := errorStatus(err)
		log.Error().Err(err).Str("type", string(req.Type)).Int("status", status).Msg("generation failed")
		writeJSON(w, status, errorBody{Error: message})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// errorStatus forwards upstream status codes and messages when available.
func errorStatus(err error) (int, string) {
	if errors.Is(err, ErrUnknownKind) {
		return http.StatusBadRequest, err.Error()
	}
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		var upstream struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		message := "Failed to generate"
		if json.Unmarshal(apiErr.Body, &upstream) == nil && upstream.Error.Message != "" {
			message = upstream.Error.Message
		}
		return apiErr.StatusCode, message
	}
	return http.StatusInternalServerError, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}
