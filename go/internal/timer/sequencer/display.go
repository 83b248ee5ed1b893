package sequencer

import (
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/timer/alert"
)

// Display is the read model rendered by clients.
type Display struct {
	Active         *models.Timer     `json:"active,omitempty"`
	ActiveIndex    int               `json:"activeIndex"`
	State          models.TimerState `json:"state,omitempty"`
	Alert          *models.AlertRule `json:"alert,omitempty"`
	Progress       float64           `json:"progress"`
	HasRunning     bool              `json:"hasRunning"`
	CanGoPrevious  bool              `json:"canGoPrevious"`
	CanGoNext      bool              `json:"canGoNext"`
	TotalRemaining int               `json:"totalRemaining"`
}

// DisplayFor computes the display state of a timer list.
func DisplayFor(timers []models.Timer) Display {
	d := Display{ActiveIndex: ActiveIndex(timers)}
	for _, t := range timers {
		d.TotalRemaining += t.RemainingSeconds
	}
	if d.ActiveIndex < 0 {
		return d
	}

	active := timers[d.ActiveIndex].Clone()
	d.Active = &active
	d.State = active.State()
	d.HasRunning = active.IsRunning
	d.CanGoPrevious = d.ActiveIndex > 0
	d.CanGoNext = len(timers) >= 2 && d.ActiveIndex < len(timers)-1
	if active.TotalSeconds > 0 {
		d.Progress = float64(active.TotalSeconds-active.RemainingSeconds) / float64(active.TotalSeconds) * 100
	}
	if rule, ok := alert.ForTimer(active); ok {
		d.Alert = &rule
	}
	return d
}

// Display returns the current display state.
func (q *Sequencer) Display() Display {
	return DisplayFor(q.store.List())
}
