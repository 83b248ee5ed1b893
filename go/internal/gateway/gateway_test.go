package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomtimer/go/internal/room"
	"github.com/mcdev12/roomtimer/go/internal/storage"
)

func newTestGateway(t *testing.T) (*room.Manager, *websocket.Conn) {
	t.Helper()
	m := room.NewManager(room.NewKVRepository(storage.NewMemoryKV()), nil, nil, nil, clockwork.NewFakeClock(), room.DefaultConfig())
	if _, err := m.AddTimer("Intro", "", 60, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddTimer("Demo", "", 120, nil); err != nil {
		t.Fatal(err)
	}

	cm := NewConnectionManager(m, DefaultConnectionConfig())
	m.Subscribe(cm.BroadcastState)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go cm.Start(ctx)

	r := mux.NewRouter()
	NewWebSocketHandler(cm).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/room", nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return m, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("bad message %s: %v", data, err)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, cmd ClientCommand) {
	t.Helper()
	if err := conn.WriteJSON(cmd); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func TestGateway_SendsStateOnConnect(t *testing.T) {
	_, conn := newTestGateway(t)

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeState || msg.State == nil {
		t.Fatalf("expected a state message, got %+v", msg)
	}
	if len(msg.State.Room.Timers) != 2 || msg.State.Display.ActiveIndex != 0 || msg.State.Display.HasRunning {
		t.Fatalf("unexpected initial state: %+v", msg.State)
	}
}

func TestGateway_ToggleCommandBroadcastsState(t *testing.T) {
	m, conn := newTestGateway(t)
	readMessage(t, conn)

	send(t, conn, ClientCommand{Type: room.CommandToggle})

	var acked, running bool
	for i := 0; i < 5 && !(acked && running); i++ {
		msg := readMessage(t, conn)
		switch msg.Type {
		case MessageTypeAck:
			if msg.Command != room.CommandToggle || !msg.Applied {
				t.Fatalf("unexpected ack: %+v", msg)
			}
			acked = true
		case MessageTypeState:
			running = running || msg.State.Display.HasRunning
		}
	}
	if !acked || !running {
		t.Fatalf("expected an ack and a running state, got ack=%v running=%v", acked, running)
	}
	if !m.State().Display.HasRunning {
		t.Fatal("expected the room to be running")
	}
}

func TestGateway_StartByTimerID(t *testing.T) {
	m, conn := newTestGateway(t)
	readMessage(t, conn)

	second := m.State().Room.Timers[1]
	send(t, conn, ClientCommand{Type: room.CommandStart, TimerID: second.ID.String()})

	for i := 0; i < 5; i++ {
		if msg := readMessage(t, conn); msg.Type == MessageTypeAck {
			break
		}
	}
	if got := m.State().Display.ActiveIndex; got != 1 {
		t.Fatalf("expected the second timer to be active, got %d", got)
	}
}

func TestGateway_RejectsBadCommands(t *testing.T) {
	_, conn := newTestGateway(t)
	readMessage(t, conn)

	tests := []struct {
		name  string
		cmd   ClientCommand
		error string
	}{
		{name: "unknown", cmd: ClientCommand{Type: "explode"}, error: `unknown command "explode"`},
		{name: "bad timer id", cmd: ClientCommand{Type: room.CommandPause, TimerID: "nope"}, error: "invalid timerId"},
		{name: "missing timer id", cmd: ClientCommand{Type: room.CommandReset}, error: "validation failed: timerId: is required for reset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.cmd)
			msg := readMessage(t, conn)
			if msg.Type != MessageTypeError || msg.Error != tt.error {
				t.Fatalf("expected error %q, got %+v", tt.error, msg)
			}
		})
	}
}
