package room

import (
	"github.com/mcdev12/roomtimer/go/internal/events"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/rs/zerolog/log"
)

type discardEmitter struct{}

func (discardEmitter) Emit(events.Event) bool { return true }

// lifecycleEvents turns sequencer transitions into room events.
type lifecycleEvents struct {
	m *Manager
}

func (l lifecycleEvents) TimerStarted(t models.Timer) {
	l.m.emit(events.TypeTimerStarted, l.m.timerPayload(t))
}

func (l lifecycleEvents) TimerPaused(t models.Timer) {
	l.m.emit(events.TypeTimerPaused, l.m.timerPayload(t))
}

// TimerFinished is the finish notification; timers with notifications
// turned off finish silently.
func (l lifecycleEvents) TimerFinished(t models.Timer) {
	if !t.NotificationsEnabled {
		return
	}
	l.m.emit(events.TypeTimerFinished, l.m.timerPayload(t))
}

func (l lifecycleEvents) AlertRaised(t models.Timer, rule models.AlertRule) {
	l.m.emit(events.TypeAlertRaised, events.AlertRaisedPayload{
		TimerID:          t.ID.String(),
		Title:            t.Title,
		AlertType:        string(rule.Type),
		Percentage:       rule.Percentage,
		RemainingSeconds: t.RemainingSeconds,
		At:               l.m.clock.Now().UTC(),
	})
}

func (m *Manager) timerPayload(t models.Timer) events.TimerPayload {
	return events.TimerPayload{
		TimerID:          t.ID.String(),
		Title:            t.Title,
		Message:          t.Message,
		TotalSeconds:     t.TotalSeconds,
		RemainingSeconds: t.RemainingSeconds,
		Notify:           t.NotificationsEnabled,
		At:               m.clock.Now().UTC(),
	}
}

func (m *Manager) emitRoom(eventType, name, source string, timers int) {
	m.emit(eventType, events.RoomReplacedPayload{
		RoomName:   name,
		Source:     source,
		TimerCount: timers,
		At:         m.clock.Now().UTC(),
	})
}

func (m *Manager) emit(eventType string, payload any) {
	id, _ := m.identity()
	event, err := events.New(id, eventType, payload, m.clock.Now().UTC())
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to build event")
		return
	}
	m.emitter.Emit(event)
}
