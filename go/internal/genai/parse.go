package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidResponse marks model output that does not match the contract.
var ErrInvalidResponse = errors.New("invalid response format from AI")

// TimerDraft is one generated timer.
type TimerDraft struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Seconds int    `json:"seconds"`
}

// RoomDraft is a generated room or an edited timer list. RoomName is empty
// for edits.
type RoomDraft struct {
	RoomName string       `json:"roomName,omitempty"`
	Timers   []TimerDraft `json:"timers"`
}

type rawTimer struct {
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Seconds json.RawMessage `json:"seconds"`
}

type rawRoom struct {
	RoomName string      `json:"roomName"`
	Timers   *[]rawTimer `json:"timers"`
}

// StripFences removes markdown code fences that models wrap JSON in.
func StripFences(content string) string {
	content = strings.ReplaceAll(content, "```json", "")
	content = strings.ReplaceAll(content, "```", "")
	return strings.TrimSpace(content)
}

// ParseRoom validates a "room" reply: roomName and a timers array are required.
func ParseRoom(content string) (RoomDraft, error) {
	raw, err := decodeRoom(content)
	if err != nil {
		return RoomDraft{}, err
	}
	if strings.TrimSpace(raw.RoomName) == "" {
		return RoomDraft{}, fmt.Errorf("%w: missing roomName", ErrInvalidResponse)
	}
	timers, err := convertTimers(*raw.Timers)
	if err != nil {
		return RoomDraft{}, err
	}
	return RoomDraft{RoomName: raw.RoomName, Timers: timers}, nil
}

// ParseEdit validates an "edit" reply: a timers array is required.
func ParseEdit(content string) (RoomDraft, error) {
	raw, err := decodeRoom(content)
	if err != nil {
		return RoomDraft{}, err
	}
	timers, err := convertTimers(*raw.Timers)
	if err != nil {
		return RoomDraft{}, err
	}
	return RoomDraft{Timers: timers}, nil
}

// ParseTimer validates a "timer" reply.
func ParseTimer(content string) (TimerDraft, error) {
	var raw rawTimer
	if err := json.Unmarshal([]byte(StripFences(content)), &raw); err != nil {
		return TimerDraft{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return convertTimer(0, raw)
}

func decodeRoom(content string) (rawRoom, error) {
	var raw rawRoom
	if err := json.Unmarshal([]byte(StripFences(content)), &raw); err != nil {
		return rawRoom{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if raw.Timers == nil {
		return rawRoom{}, fmt.Errorf("%w: timers must be an array", ErrInvalidResponse)
	}
	return raw, nil
}

func convertTimers(raw []rawTimer) ([]TimerDraft, error) {
	out := make([]TimerDraft, 0, len(raw))
	for i, r := range raw {
		t, err := convertTimer(i+1, r)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// convertTimer accepts integral second counts only. position is 1-based for
// error messages; 0 means a standalone timer.
func convertTimer(position int, r rawTimer) (TimerDraft, error) {
	where := "timer"
	if position > 0 {
		where = fmt.Sprintf("timer %d", position)
	}

	var f float64
	if len(r.Seconds) == 0 || r.Seconds[0] == '"' || json.Unmarshal(r.Seconds, &f) != nil {
		return TimerDraft{}, fmt.Errorf("%w: %s seconds is not a number", ErrInvalidResponse, where)
	}
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return TimerDraft{}, fmt.Errorf("%w: %s seconds must be a positive whole number", ErrInvalidResponse, where)
	}
	return TimerDraft{Title: r.Title, Message: r.Message, Seconds: int(f)}, nil
}
