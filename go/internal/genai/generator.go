package genai

import (
	"context"
	"fmt"

	"github.com/mcdev12/roomtimer/go/internal/models"
)

// Completer is what the generator needs from the completions client.
type Completer interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Generator turns prompts into validated drafts.
type Generator struct {
	completer Completer
}

// NewGenerator creates a generator over c.
func NewGenerator(c Completer) *Generator {
	return &Generator{completer: c}
}

// Raw runs a prompt of the given kind and returns the fence-stripped,
// validated JSON document, for proxying to browser clients.
func (g *Generator) Raw(ctx context.Context, kind Kind, prompt string, current *models.Room) (any, error) {
	switch kind {
	case KindRoom:
		return g.GenerateRoom(ctx, prompt)
	case KindEdit:
		var room models.Room
		if current != nil {
			room = *current
		}
		return g.EditRoom(ctx, prompt, room)
	case KindTimer:
		return g.GenerateTimer(ctx, prompt)
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
}

// GenerateRoom creates a named room from a description.
func (g *Generator) GenerateRoom(ctx context.Context, prompt string) (RoomDraft, error) {
	content, err := g.complete(ctx, KindRoom, prompt, nil)
	if err != nil {
		return RoomDraft{}, err
	}
	return ParseRoom(content)
}

// EditRoom returns the complete replacement timer list for current.
func (g *Generator) EditRoom(ctx context.Context, prompt string, current models.Room) (RoomDraft, error) {
	content, err := g.complete(ctx, KindEdit, prompt, &current)
	if err != nil {
		return RoomDraft{}, err
	}
	return ParseEdit(content)
}

// GenerateTimer creates a single timer from a description.
func (g *Generator) GenerateTimer(ctx context.Context, prompt string) (TimerDraft, error) {
	content, err := g.complete(ctx, KindTimer, prompt, nil)
	if err != nil {
		return TimerDraft{}, err
	}
	return ParseTimer(content)
}

func (g *Generator) complete(ctx context.Context, kind Kind, prompt string, current *models.Room) (string, error) {
	system, user, maxTokens, err := promptFor(kind, prompt, current)
	if err != nil {
		return "", err
	}
	return g.completer.Complete(ctx, system, user, maxTokens)
}
