// Package genai talks to an OpenAI-compatible chat completions API to
// generate and edit timer rooms from natural-language descriptions.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/roomtimer/go/clients"
	"github.com/rs/zerolog/log"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// Config configures the completions client.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// DefaultConfig returns the stock model settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-4o-mini",
		Temperature: 0.7,
		Timeout:     30 * time.Second,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Client issues chat completion requests.
type Client struct {
	base   *clients.BaseClient
	config Config
}

// NewClient creates a completions client.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}

	base := clients.NewBaseClient(strings.TrimRight(cfg.BaseURL, "/"))
	base.SetTimeout(cfg.Timeout)
	base.SetHeader("Content-Type", "application/json")
	if cfg.APIKey != "" {
		base.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return &Client{base: base, config: cfg}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.config.APIKey != ""
}

// Complete sends one system+user exchange and returns the trimmed reply text.
func (c *Client) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: c.config.Temperature,
		MaxTokens:   maxTokens,
	}

	var resp chatResponse
	start := time.Now()
	if err := c.base.PostJSON(ctx, "/chat/completions", req, &resp); err != nil {
		log.Error().Err(err).Str("model", c.config.Model).Msg("chat completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: %w: no choices", ErrInvalidResponse)
	}

	log.Debug().
		Str("model", c.config.Model).
		Dur("took", time.Since(start)).
		Msg("chat completion succeeded")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
