package events

import (
	"time"
)

// Event types published for room lifecycle transitions.
const (
	TypeTimerStarted  = "timer_started"
	TypeTimerPaused   = "timer_paused"
	TypeTimerFinished = "timer_finished"
	TypeAlertRaised   = "alert_raised"
	TypeRoomReplaced  = "room_replaced"
	TypeRoomUndone    = "room_undone"
)

// TimerPayload is the payload for TimerStarted, TimerPaused and TimerFinished events
type TimerPayload struct {
	TimerID          string    `json:"timer_id"`
	Title            string    `json:"title"`
	Message          string    `json:"message,omitempty"`
	TotalSeconds     int       `json:"total_seconds"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Notify           bool      `json:"notify"`
	At               time.Time `json:"at"`
}

// AlertRaisedPayload is the payload for an AlertRaised event
type AlertRaisedPayload struct {
	TimerID          string    `json:"timer_id"`
	Title            string    `json:"title"`
	AlertType        string    `json:"alert_type"`
	Percentage       int       `json:"percentage"`
	RemainingSeconds int       `json:"remaining_seconds"`
	At               time.Time `json:"at"`
}

// RoomReplacedPayload is the payload for RoomReplaced and RoomUndone events
type RoomReplacedPayload struct {
	RoomName   string    `json:"room_name"`
	Source     string    `json:"source"`
	TimerCount int       `json:"timer_count"`
	At         time.Time `json:"at"`
}
