package models

import (
	"github.com/google/uuid"
)

// AlertType defines the severity of an alert rule.
type AlertType string

const (
	AlertTypeWarning  AlertType = "warning"
	AlertTypeUrgent   AlertType = "urgent"
	AlertTypeCritical AlertType = "critical"
)

// Valid reports whether t is a known alert type.
func (t AlertType) Valid() bool {
	switch t {
	case AlertTypeWarning, AlertTypeUrgent, AlertTypeCritical:
		return true
	}
	return false
}

// AlertRule fires while a timer is running and its remaining share of the
// total is at or below Percentage.
type AlertRule struct {
	Percentage int       `json:"percentage"`
	Type       AlertType `json:"type"`
	Enabled    bool      `json:"enabled"`
}

// DefaultAlertRules returns the stock rule set offered for new timers, all disabled.
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Percentage: 25, Type: AlertTypeWarning, Enabled: false},
		{Percentage: 10, Type: AlertTypeUrgent, Enabled: false},
		{Percentage: 5, Type: AlertTypeCritical, Enabled: false},
	}
}

// TimerState is the derived lifecycle state of a timer.
type TimerState string

const (
	TimerStateIdle     TimerState = "idle"
	TimerStateRunning  TimerState = "running"
	TimerStateFinished TimerState = "finished"
)

// DefaultTimerTitle is used when a timer is created without a title.
const DefaultTimerTitle = "Timer"

// Timer is one countdown in a room.
type Timer struct {
	ID                   uuid.UUID   `json:"id"`
	Title                string      `json:"title"`
	Message              string      `json:"message"`
	TotalSeconds         int         `json:"totalSeconds"`
	RemainingSeconds     int         `json:"remainingSeconds"`
	IsRunning            bool        `json:"isRunning"`
	NotificationsEnabled bool        `json:"notificationsEnabled"`
	Alerts               []AlertRule `json:"alerts"`
	TriggeredAlerts      []AlertType `json:"triggeredAlerts"`
}

// NewTimer builds an idle timer with a fresh ID and remaining equal to total.
func NewTimer(title, message string, seconds int, alerts []AlertRule) Timer {
	if title == "" {
		title = DefaultTimerTitle
	}
	return Timer{
		ID:                   uuid.New(),
		Title:                title,
		Message:              message,
		TotalSeconds:         seconds,
		RemainingSeconds:     seconds,
		NotificationsEnabled: true,
		Alerts:               cloneAlerts(alerts),
		TriggeredAlerts:      []AlertType{},
	}
}

// State derives the lifecycle state from the running flag and remaining time.
func (t Timer) State() TimerState {
	switch {
	case t.IsRunning:
		return TimerStateRunning
	case t.RemainingSeconds <= 0:
		return TimerStateFinished
	default:
		return TimerStateIdle
	}
}

// Clone returns a deep copy of t.
func (t Timer) Clone() Timer {
	t.Alerts = cloneAlerts(t.Alerts)
	if t.TriggeredAlerts != nil {
		t.TriggeredAlerts = append([]AlertType{}, t.TriggeredAlerts...)
	}
	return t
}

// CloneTimers deep-copies a timer list.
func CloneTimers(timers []Timer) []Timer {
	if timers == nil {
		return nil
	}
	out := make([]Timer, len(timers))
	for i, t := range timers {
		out[i] = t.Clone()
	}
	return out
}

func cloneAlerts(alerts []AlertRule) []AlertRule {
	if alerts == nil {
		return []AlertRule{}
	}
	return append([]AlertRule{}, alerts...)
}
