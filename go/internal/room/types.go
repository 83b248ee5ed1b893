package room

import (
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/templates"
)

// Empty is the request of procedures without parameters.
type Empty struct{}

// StateResponse carries the room after an operation.
type StateResponse struct {
	State State `json:"state"`
}

type RoomNameRequest struct {
	RoomName string `json:"roomName"`
}

type RoomIDRequest struct {
	RoomID string `json:"roomId"`
}

type ListSavedRoomsResponse struct {
	Rooms []models.RoomSummary `json:"rooms"`
}

type ListTemplatesResponse struct {
	Templates []templates.Template `json:"templates"`
}

type LoadTemplateRequest struct {
	Key string `json:"key"`
}

// TimerRequest adds a timer, or edits one when TimerID is set.
type TimerRequest struct {
	TimerID      string             `json:"timerId,omitempty"`
	Title        string             `json:"title"`
	Message      string             `json:"message"`
	TotalSeconds int                `json:"totalSeconds"`
	Alerts       []models.AlertRule `json:"alerts,omitempty"`
}

type TimerResponse struct {
	Timer models.Timer `json:"timer"`
	State State        `json:"state"`
}

type TimerIDRequest struct {
	TimerID string `json:"timerId"`
}

type SetNotificationsRequest struct {
	TimerID string `json:"timerId"`
	Enabled bool   `json:"enabled"`
}

type ReorderRequest struct {
	FromIndex int `json:"fromIndex"`
	ToIndex   int `json:"toIndex"`
}

type ControlRequest struct {
	Command string `json:"command"`
	TimerID string `json:"timerId,omitempty"`
}

type ControlResponse struct {
	Applied bool  `json:"applied"`
	State   State `json:"state"`
}

type PromptRequest struct {
	Prompt string `json:"prompt"`
}
