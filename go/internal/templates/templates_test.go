package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mcdev12/roomtimer/go/internal/models"
)

func TestBuiltin(t *testing.T) {
	c := Builtin()
	if got := len(c.List()); got != 8 {
		t.Fatalf("expected 8 built-in templates, got %d", got)
	}

	pomodoro, ok := c.Get("pomodoro")
	if !ok {
		t.Fatal("expected pomodoro template")
	}
	timers := pomodoro.Instantiate()
	if len(timers) != 5 || timers[0].TotalSeconds != 1500 || timers[0].RemainingSeconds != 1500 {
		t.Fatalf("unexpected pomodoro timers: %+v", timers)
	}
	if timers[0].ID == timers[2].ID {
		t.Fatal("expected fresh IDs per timer")
	}
}

func TestBuiltin_TestingRoomHasEnabledAlerts(t *testing.T) {
	tpl, _ := Builtin().Get("testing")
	for _, timer := range tpl.Instantiate() {
		if len(timer.Alerts) != 3 || !timer.Alerts[2].Enabled || timer.Alerts[2].Type != models.AlertTypeCritical {
			t.Fatalf("unexpected alerts: %+v", timer.Alerts)
		}
	}
}

func TestLoad_OverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.yaml")
	content := `templates:
  retro:
    name: Sprint Retro
    icon: "🔁"
    timers:
      - title: What went well
        message: Silent writing
        seconds: 300
      - title: Discussion
        seconds: 900
        alerts:
          - percentage: 10
            type: urgent
            enabled: true
  tabata:
    name: Short Tabata
    timers:
      - title: Work
        seconds: 20
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	retro, ok := c.Get("retro")
	if !ok || retro.Name != "Sprint Retro" || len(retro.Timers) != 2 {
		t.Fatalf("unexpected retro template: %+v", retro)
	}
	if retro.Timers[1].Alerts[0].Type != models.AlertTypeUrgent {
		t.Fatalf("expected alert rule to parse, got %+v", retro.Timers[1].Alerts)
	}
	if tabata, _ := c.Get("tabata"); tabata.Name != "Short Tabata" {
		t.Fatalf("expected file to override built-in, got %q", tabata.Name)
	}
	if _, ok := c.Get("pomodoro"); !ok {
		t.Fatal("expected built-ins to remain")
	}
}

func TestLoad_RejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"zero seconds": "templates:\n  bad:\n    name: Bad\n    timers:\n      - title: X\n        seconds: 0\n",
		"no timers":    "templates:\n  bad:\n    name: Bad\n",
		"bad alert":    "templates:\n  bad:\n    name: Bad\n    timers:\n      - title: X\n        seconds: 5\n        alerts:\n          - percentage: 10\n            type: loud\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "templates.yaml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
