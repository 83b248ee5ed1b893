package templates

import "github.com/mcdev12/roomtimer/go/internal/models"

func testingAlerts() []models.AlertRule {
	return []models.AlertRule{
		{Percentage: 25, Type: models.AlertTypeWarning, Enabled: true},
		{Percentage: 10, Type: models.AlertTypeUrgent, Enabled: true},
		{Percentage: 5, Type: models.AlertTypeCritical, Enabled: true},
	}
}

// Builtin returns the stock catalog.
func Builtin() *Catalog {
	list := []Template{
		{
			Key: "pomodoro", Name: "Pomodoro", Icon: "🍅",
			Timers: []TimerSpec{
				{Title: "Focus Session", Message: "Deep work time", Seconds: 1500},
				{Title: "Short Break", Message: "Rest and recharge", Seconds: 300},
				{Title: "Focus Session", Message: "Deep work time", Seconds: 1500},
				{Title: "Short Break", Message: "Rest and recharge", Seconds: 300},
				{Title: "Long Break", Message: "Extended rest", Seconds: 900},
			},
		},
		{
			Key: "workout", Name: "Workout", Icon: "💪",
			Timers: []TimerSpec{
				{Title: "Warm Up", Message: "Light cardio", Seconds: 300},
				{Title: "Exercise Set", Message: "High intensity", Seconds: 600},
				{Title: "Rest", Message: "Recovery time", Seconds: 120},
				{Title: "Exercise Set", Message: "High intensity", Seconds: 600},
				{Title: "Cool Down", Message: "Stretching", Seconds: 300},
			},
		},
		{
			Key: "tabata", Name: "Tabata", Icon: "⚡",
			Timers: []TimerSpec{
				{Title: "Work", Message: "Max effort", Seconds: 20},
				{Title: "Rest", Message: "Recover", Seconds: 10},
				{Title: "Work", Message: "Max effort", Seconds: 20},
				{Title: "Rest", Message: "Recover", Seconds: 10},
				{Title: "Work", Message: "Max effort", Seconds: 20},
			},
		},
		{
			Key: "standup", Name: "Daily Standup", Icon: "☕",
			Timers: []TimerSpec{
				{Title: "Team Member 1", Message: "Updates", Seconds: 120},
				{Title: "Team Member 2", Message: "Updates", Seconds: 120},
				{Title: "Team Member 3", Message: "Updates", Seconds: 120},
				{Title: "Blockers Discussion", Message: "Address issues", Seconds: 300},
			},
		},
		{
			Key: "boardMeeting", Name: "Board Meeting", Icon: "📊",
			Timers: []TimerSpec{
				{Title: "Opening Remarks", Message: "Welcome and introductions", Seconds: 300},
				{Title: "Financial Review", Message: "Q3 financial report", Seconds: 900},
				{Title: "Strategy Discussion", Message: "2024 roadmap planning", Seconds: 1200},
				{Title: "Q&A Session", Message: "Open questions", Seconds: 600},
				{Title: "Closing", Message: "Action items and next steps", Seconds: 300},
			},
		},
		{
			Key: "presentation", Name: "Presentation", Icon: "🎤",
			Timers: []TimerSpec{
				{Title: "Introduction", Message: "Speaker intro", Seconds: 180},
				{Title: "Main Content", Message: "Core presentation", Seconds: 1200},
				{Title: "Demo", Message: "Live demonstration", Seconds: 600},
				{Title: "Q&A", Message: "Questions from audience", Seconds: 600},
			},
		},
		{
			Key: "workshop", Name: "Workshop", Icon: "🛠️",
			Timers: []TimerSpec{
				{Title: "Icebreaker", Message: "Team introductions", Seconds: 300},
				{Title: "Activity 1", Message: "Group exercise", Seconds: 900},
				{Title: "Break", Message: "Coffee break", Seconds: 600},
				{Title: "Activity 2", Message: "Hands-on practice", Seconds: 1200},
				{Title: "Wrap-up", Message: "Summary and feedback", Seconds: 300},
			},
		},
		{
			Key: "testing", Name: "Testing Room", Icon: "🧪",
			Timers: []TimerSpec{
				{Title: "Quick Test", Message: "10 second test", Seconds: 10, Alerts: testingAlerts()},
				{Title: "Medium Test", Message: "20 second test", Seconds: 20, Alerts: testingAlerts()},
				{Title: "Long Test", Message: "30 second test", Seconds: 30, Alerts: testingAlerts()},
			},
		},
	}

	c := &Catalog{templates: make(map[string]Template, len(list))}
	for _, t := range list {
		c.templates[t.Key] = t
	}
	return c
}
