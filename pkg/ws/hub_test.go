package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	hub.SetInitDataProvider(func() interface{} {
		return map[string]string{"vehicle_id": "truck-001"}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn)
		client.Register()
		go client.ReadPump()
		go client.WritePump()
	}))

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

func TestHubSendsInitThenUpdates(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	init := readMessage(t, conn)
	if init.Type != MsgTypeInit {
		t.Fatalf("first message type = %q, want %q", init.Type, MsgTypeInit)
	}

	hub.BroadcastDashboard(map[string]string{"vehicle_id": "truck-003"})

	update := readMessage(t, conn)
	if update.Type != MsgTypeDashboardUpdate {
		t.Fatalf("message type = %q, want %q", update.Type, MsgTypeDashboardUpdate)
	}
	data, ok := update.Data.(map[string]interface{})
	if !ok || data["vehicle_id"] != "truck-003" {
		t.Fatalf("data = %#v", update.Data)
	}
}

func TestHubClientCount(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	if n := hub.ClientCount(); n != 1 {
		t.Fatalf("ClientCount = %d, want 1", n)
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client not unregistered, count = %d", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubBroadcastError(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	readMessage(t, conn)

	hub.BroadcastError("truck-002", "permission denied")

	msg := readMessage(t, conn)
	if msg.Type != MsgTypeError {
		t.Fatalf("message type = %q, want %q", msg.Type, MsgTypeError)
	}
	data, ok := msg.Data.(map[string]interface{})
	if !ok || data["vehicle_id"] != "truck-002" || data["message"] != "permission denied" {
		t.Fatalf("data = %#v", msg.Data)
	}
}
