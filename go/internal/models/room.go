package models

import (
	"github.com/google/uuid"
)

// DefaultRoomName is the name given to a fresh empty room.
const DefaultRoomName = "My Timer Room"

// Room is a named, ordered sequence of timers.
type Room struct {
	RoomID    uuid.UUID `json:"roomId"`
	RoomName  string    `json:"roomName"`
	Timers    []Timer   `json:"timers"`
	Timestamp int64     `json:"timestamp"` // unix millis of the last save
}

// TotalSeconds sums the configured duration of every timer in the room.
func (r Room) TotalSeconds() int {
	total := 0
	for _, t := range r.Timers {
		total += t.TotalSeconds
	}
	return total
}

// RemainingSeconds sums the remaining time across the room.
func (r Room) RemainingSeconds() int {
	remaining := 0
	for _, t := range r.Timers {
		remaining += t.RemainingSeconds
	}
	return remaining
}

// Clone returns a deep copy of r.
func (r Room) Clone() Room {
	r.Timers = CloneTimers(r.Timers)
	return r
}

// RoomSummary is the listing view of a saved room.
type RoomSummary struct {
	RoomID       uuid.UUID `json:"roomId"`
	RoomName     string    `json:"roomName"`
	TimerCount   int       `json:"timerCount"`
	TotalSeconds int       `json:"totalSeconds"`
	Timestamp    int64     `json:"timestamp"`
}

// Summary builds the listing view of r.
func (r Room) Summary() RoomSummary {
	return RoomSummary{
		RoomID:       r.RoomID,
		RoomName:     r.RoomName,
		TimerCount:   len(r.Timers),
		TotalSeconds: r.TotalSeconds(),
		Timestamp:    r.Timestamp,
	}
}
