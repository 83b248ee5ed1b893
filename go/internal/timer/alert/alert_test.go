package alert

import (
	"testing"

	"github.com/mcdev12/roomtimer/go/internal/models"
)

func standardRules() []models.AlertRule {
	return []models.AlertRule{
		{Percentage: 25, Type: models.AlertTypeWarning, Enabled: true},
		{Percentage: 10, Type: models.AlertTypeUrgent, Enabled: true},
		{Percentage: 5, Type: models.AlertTypeCritical, Enabled: true},
	}
}

func TestEvaluate_Precedence(t *testing.T) {
	tests := []struct {
		name      string
		remaining int
		want      models.AlertType
		wantFound bool
	}{
		{name: "above every threshold", remaining: 30},
		{name: "warning band", remaining: 24, want: models.AlertTypeWarning, wantFound: true},
		{name: "exactly at warning", remaining: 25, want: models.AlertTypeWarning, wantFound: true},
		{name: "urgent band", remaining: 9, want: models.AlertTypeUrgent, wantFound: true},
		{name: "critical band", remaining: 4, want: models.AlertTypeCritical, wantFound: true},
		{name: "zero remaining", remaining: 0, want: models.AlertTypeCritical, wantFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Evaluate(true, tt.remaining, 100, standardRules())
			if found != tt.wantFound {
				t.Fatalf("expected found=%v, got %v (rule %+v)", tt.wantFound, found, got)
			}
			if found && got.Type != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.Type)
			}
		})
	}
}

func TestEvaluate_NoneWhenStoppedOrZeroTotal(t *testing.T) {
	if _, found := Evaluate(false, 4, 100, standardRules()); found {
		t.Fatal("expected no alert for a stopped timer")
	}
	if _, found := Evaluate(true, 0, 0, standardRules()); found {
		t.Fatal("expected no alert for a zero total")
	}
}

func TestEvaluate_SkipsDisabledRules(t *testing.T) {
	rules := standardRules()
	rules[2].Enabled = false

	got, found := Evaluate(true, 4, 100, rules)
	if !found || got.Type != models.AlertTypeUrgent {
		t.Fatalf("expected urgent with critical disabled, got %+v (found=%v)", got, found)
	}

	if _, found := Evaluate(true, 4, 100, models.DefaultAlertRules()); found {
		t.Fatal("expected default rules to be disabled")
	}
}

func TestEvaluate_TieKeepsFirstDeclared(t *testing.T) {
	rules := []models.AlertRule{
		{Percentage: 10, Type: models.AlertTypeUrgent, Enabled: true},
		{Percentage: 10, Type: models.AlertTypeCritical, Enabled: true},
	}
	got, _ := Evaluate(true, 5, 100, rules)
	if got.Type != models.AlertTypeUrgent {
		t.Fatalf("expected first declared rule, got %s", got.Type)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	rules := standardRules()
	first, _ := Evaluate(true, 8, 100, rules)
	for i := 0; i < 5; i++ {
		again, _ := Evaluate(true, 8, 100, rules)
		if again != first {
			t.Fatalf("evaluation %d changed: %+v vs %+v", i, again, first)
		}
	}
}

func TestForTimer(t *testing.T) {
	timer := models.NewTimer("Talk", "", 100, standardRules())
	timer.RemainingSeconds = 24
	if _, found := ForTimer(timer); found {
		t.Fatal("expected no alert while idle")
	}
	timer.IsRunning = true
	got, found := ForTimer(timer)
	if !found || got.Type != models.AlertTypeWarning {
		t.Fatalf("expected warning, got %+v", got)
	}
}
