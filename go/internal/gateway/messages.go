package gateway

import (
	"github.com/mcdev12/roomtimer/go/internal/room"
)

// MessageType identifies messages sent to clients.
type MessageType string

const (
	MessageTypeState MessageType = "state"
	MessageTypeAck   MessageType = "ack"
	MessageTypeError MessageType = "error"
)

// Message is the envelope for everything sent to a client.
type Message struct {
	Type    MessageType `json:"type"`
	State   *room.State `json:"state,omitempty"`
	Command string      `json:"command,omitempty"`
	Applied bool        `json:"applied,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ClientCommand is a playback command sent by a client. TimerID is required
// for start, pause and reset.
type ClientCommand struct {
	Type    string `json:"type"`
	TimerID string `json:"timerId,omitempty"`
}
