package genai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/roomtimer/go/internal/models"
)

// Kind selects the generation prompt.
type Kind string

const (
	KindRoom  Kind = "room"
	KindEdit  Kind = "edit"
	KindTimer Kind = "timer"
)

// ErrUnknownKind is returned for an unsupported generation type.
var ErrUnknownKind = errors.New("unknown generation type")

// Token budgets per kind.
const (
	roomMaxTokens  = 1000
	editMaxTokens  = 1500
	timerMaxTokens = 200
)

const roomSystemPrompt = `You are a timer room generator. Given a user's description, create a structured timer sequence.

Return ONLY a valid JSON object with this exact structure:
{
  "roomName": "Name of the timer room",
  "timers": [
    {
      "title": "Timer name",
      "message": "Brief description",
      "seconds": 300
    }
  ]
}

Rules:
- roomName should be concise and descriptive
- Each timer needs title, message, and seconds (as a number)
- Seconds should be realistic (60-3600 typically)
- Create 3-8 timers depending on the activity
- Order timers logically

Examples:
- "sales pitch" → timers for intro, problem, solution, demo, pricing, Q&A, close
- "morning routine" → timers for exercise, shower, breakfast, planning
- "team meeting" → timers for check-in, updates, discussion, action items`

const editSystemPrompt = `You are a timer room editor. Given the current room state and a user's edit request, modify the timers accordingly.

Return ONLY a valid JSON object with this exact structure:
{
  "timers": [
    {
      "title": "Timer name",
      "message": "Brief description",
      "seconds": 300
    }
  ]
}

Rules:
- Understand edit requests like "add a 5 minute break", "make all timers 2 minutes longer", "remove the last timer", "change the first timer to 10 minutes"
- Keep existing timers unless specifically asked to modify or remove them
- Add new timers when requested
- Modify timer durations, titles, or messages as requested
- Return ALL timers (modified and unmodified) in the correct order
- Parse time expressions like "5 minutes", "1 hour", "30 seconds"`

const timerSystemPrompt = `You are a timer generator. Given a user's description, create a single timer.

Return ONLY a valid JSON object with this exact structure:
{
  "title": "Timer name",
  "message": "Brief description",
  "seconds": 300
}

Rules:
- title should be concise (2-4 words)
- message should be brief and helpful
- seconds should be realistic for the activity
- Parse time expressions like "5 minutes", "1 hour", "30 seconds"`

// promptFor returns the system prompt, user prompt and token budget for kind.
// Edit requests embed the current room so the model can return a full
// replacement list.
func promptFor(kind Kind, prompt string, current *models.Room) (string, string, int, error) {
	switch kind {
	case KindRoom:
		return roomSystemPrompt, prompt, roomMaxTokens, nil
	case KindTimer:
		return timerSystemPrompt, prompt, timerMaxTokens, nil
	case KindEdit:
		user := prompt
		if current != nil && current.Timers != nil {
			user = describeRoom(*current) + "\n\nEdit request: " + prompt
		}
		return editSystemPrompt, user, editMaxTokens, nil
	default:
		return "", "", 0, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
}

func describeRoom(room models.Room) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current room: %q\nCurrent timers:", room.RoomName)
	for i, t := range room.Timers {
		message := t.Message
		if message == "" {
			message = "no description"
		}
		fmt.Fprintf(&b, "\n%d. %q - %d:%02d (%s)", i+1, t.Title, t.TotalSeconds/60, t.TotalSeconds%60, message)
	}
	return b.String()
}
