package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/roomtimer/go/internal/models"
)

func TestParseRoom(t *testing.T) {
	content := "```json\n" + `{"roomName":"Standup","timers":[{"title":"Updates","message":"Round robin","seconds":300},{"title":"Blockers","seconds":120.0}]}` + "\n```"

	got, err := ParseRoom(content)
	if err != nil {
		t.Fatalf("ParseRoom failed: %v", err)
	}
	want := RoomDraft{
		RoomName: "Standup",
		Timers: []TimerDraft{
			{Title: "Updates", Message: "Round robin", Seconds: 300},
			{Title: "Blockers", Seconds: 120},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestParseRoom_Invalid(t *testing.T) {
	tests := map[string]string{
		"not json":         "sorry, I cannot help with that",
		"missing roomName": `{"timers":[{"title":"A","seconds":60}]}`,
		"missing timers":   `{"roomName":"X"}`,
		"timers not array": `{"roomName":"X","timers":{"title":"A"}}`,
		"text seconds":     `{"roomName":"X","timers":[{"title":"A","seconds":"five"}]}`,
		"quoted seconds":   `{"roomName":"X","timers":[{"title":"A","seconds":"120"}]}`,
		"null seconds":     `{"roomName":"X","timers":[{"title":"A","seconds":null}]}`,
		"zero seconds":     `{"roomName":"X","timers":[{"title":"A","seconds":0}]}`,
		"negative seconds": `{"roomName":"X","timers":[{"title":"A","seconds":-30}]}`,
		"fractional":       `{"roomName":"X","timers":[{"title":"A","seconds":1.5}]}`,
		"missing seconds":  `{"roomName":"X","timers":[{"title":"A"}]}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRoom(content); !errors.Is(err, ErrInvalidResponse) {
				t.Fatalf("expected ErrInvalidResponse, got %v", err)
			}
		})
	}
}

func TestParseEdit_AllowsMissingRoomName(t *testing.T) {
	got, err := ParseEdit(`{"timers":[{"title":"Break","message":"Coffee","seconds":300}]}`)
	if err != nil {
		t.Fatalf("ParseEdit failed: %v", err)
	}
	if len(got.Timers) != 1 || got.RoomName != "" {
		t.Fatalf("unexpected draft: %+v", got)
	}

	if _, err := ParseEdit(`{"roomName":"X"}`); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected missing timers to fail, got %v", err)
	}
}

func TestParseTimer(t *testing.T) {
	got, err := ParseTimer("```\n{\"title\":\"Tea\",\"message\":\"Steep\",\"seconds\":180}\n```")
	if err != nil {
		t.Fatalf("ParseTimer failed: %v", err)
	}
	if got != (TimerDraft{Title: "Tea", Message: "Steep", Seconds: 180}) {
		t.Fatalf("unexpected timer: %+v", got)
	}

	if _, err := ParseTimer(`{"title":"Tea","seconds":"180"}`); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected quoted seconds to fail, got %v", err)
	}
}

type stubCompleter struct {
	reply     string
	err       error
	system    string
	user      string
	maxTokens int
}

func (s *stubCompleter) Complete(_ context.Context, system, user string, maxTokens int) (string, error) {
	s.system, s.user, s.maxTokens = system, user, maxTokens
	return s.reply, s.err
}

func TestGenerator_EditEmbedsCurrentRoom(t *testing.T) {
	stub := &stubCompleter{reply: `{"timers":[]}`}
	g := NewGenerator(stub)

	room := models.Room{
		RoomName: "Retro",
		Timers: []models.Timer{
			models.NewTimer("Good", "", 330, nil),
			models.NewTimer("Bad", "Vent", 60, nil),
		},
	}
	if _, err := g.EditRoom(context.Background(), "add a break", room); err != nil {
		t.Fatalf("EditRoom failed: %v", err)
	}

	want := "Current room: \"Retro\"\nCurrent timers:\n1. \"Good\" - 5:30 (no description)\n2. \"Bad\" - 1:00 (Vent)\n\nEdit request: add a break"
	if diff := cmp.Diff(want, stub.user); diff != "" {
		t.Fatalf("user prompt (-want +got):\n%s", diff)
	}
	if stub.maxTokens != editMaxTokens || stub.system != editSystemPrompt {
		t.Fatalf("unexpected edit prompt settings: %d tokens", stub.maxTokens)
	}
}

func TestGenerator_PropagatesCompletionError(t *testing.T) {
	boom := errors.New("upstream down")
	g := NewGenerator(&stubCompleter{err: boom})
	if _, err := g.GenerateTimer(context.Background(), "tea"); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func fakeOpenAI(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 2 {
			t.Errorf("unexpected chat request: %+v", req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func completion(content string) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	data, _ := json.Marshal(resp)
	return string(data)
}

func postGenerate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_ProxiesRoomGeneration(t *testing.T) {
	upstream := fakeOpenAI(t, http.StatusOK, completion("```json\n{\"roomName\":\"Pitch\",\"timers\":[{\"title\":\"Intro\",\"message\":\"Hi\",\"seconds\":60}]}\n```"))
	defer upstream.Close()

	h := NewHandler(NewClient(Config{APIKey: "test-key", BaseURL: upstream.URL}))
	rec := postGenerate(t, h, `{"prompt":"sales pitch","type":"room"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got RoomDraft
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.RoomName != "Pitch" || len(got.Timers) != 1 || got.Timers[0].Seconds != 60 {
		t.Fatalf("unexpected draft: %+v", got)
	}
}

func TestHandler_ForwardsUpstreamError(t *testing.T) {
	upstream := fakeOpenAI(t, http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`)
	defer upstream.Close()

	h := NewHandler(NewClient(Config{APIKey: "test-key", BaseURL: upstream.URL}))
	rec := postGenerate(t, h, `{"prompt":"x","type":"timer"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Rate limit reached") {
		t.Fatalf("expected upstream message, got %s", rec.Body.String())
	}
}

func TestHandler_Errors(t *testing.T) {
	configured := NewHandler(NewClient(Config{APIKey: "test-key", BaseURL: "http://127.0.0.1:0"}))
	unconfigured := NewHandler(NewClient(Config{}))

	req := httptest.NewRequest(http.MethodGet, "/api/generate", nil)
	rec := httptest.NewRecorder()
	configured.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	if rec := postGenerate(t, unconfigured, `{"prompt":"x"}`); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without an API key, got %d", rec.Code)
	}

	if rec := postGenerate(t, configured, `{"prompt":"x","type":"poem"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown type, got %d", rec.Code)
	}
}
