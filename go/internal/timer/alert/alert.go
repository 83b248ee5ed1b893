// Package alert selects the alert level a running timer should display.
package alert

import (
	"github.com/mcdev12/roomtimer/go/internal/models"
)

// Evaluate returns the single active alert rule for the given countdown
// position. Among enabled rules whose percentage is at or above the share of
// time remaining, the one with the smallest percentage wins; on ties the
// first declared rule wins. Nothing fires for a stopped timer or a zero total.
//
// Evaluate keeps no state, so it reports the alert level for the current
// position on every call.
func Evaluate(running bool, remaining, total int, rules []models.AlertRule) (models.AlertRule, bool) {
	if total <= 0 || !running {
		return models.AlertRule{}, false
	}

	percent := float64(remaining) / float64(total) * 100

	var (
		best  models.AlertRule
		found bool
	)
	for _, rule := range rules {
		if !rule.Enabled || percent > float64(rule.Percentage) {
			continue
		}
		if !found || rule.Percentage < best.Percentage {
			best = rule
			found = true
		}
	}
	return best, found
}

// ForTimer evaluates t's own rules against its current position.
func ForTimer(t models.Timer) (models.AlertRule, bool) {
	return Evaluate(t.IsRunning, t.RemainingSeconds, t.TotalSeconds, t.Alerts)
}
