package room

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Playback commands accepted by Control.
const (
	CommandToggle     = "toggle"
	CommandNext       = "next"
	CommandPrevious   = "previous"
	CommandAdd30      = "add30"
	CommandSubtract30 = "subtract30"
	CommandStart      = "start"
	CommandPause      = "pause"
	CommandReset      = "reset"
)

// ErrUnknownCommand is returned by Control for unsupported commands.
var ErrUnknownCommand = errors.New("unknown command")

// Control applies a playback command and reports whether it changed the
// room. start, pause and reset need a timer ID.
func (m *Manager) Control(command string, timerID uuid.UUID) (bool, error) {
	switch command {
	case CommandToggle:
		return m.TogglePlayPause(), nil
	case CommandNext:
		return m.GoToNext(), nil
	case CommandPrevious:
		return m.GoToPrevious(), nil
	case CommandAdd30:
		return m.Add30Seconds(), nil
	case CommandSubtract30:
		return m.Subtract30Seconds(), nil
	case CommandStart, CommandPause, CommandReset:
	default:
		return false, fmt.Errorf("%w %q", ErrUnknownCommand, command)
	}

	if timerID == uuid.Nil {
		return false, invalid("timerId", "is required for "+command)
	}
	if _, ok := m.store.Get(timerID); !ok {
		return false, fmt.Errorf("%w: %s", ErrTimerNotFound, timerID)
	}
	switch command {
	case CommandStart:
		return m.Start(timerID), nil
	case CommandPause:
		return m.Pause(timerID), nil
	default:
		return m.Reset(timerID), nil
	}
}
