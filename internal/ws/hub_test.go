package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cyber_cricket/internal/orchestrator"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func readType(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(msg, &obj); err != nil {
		t.Fatalf("decode %s: %v", msg, err)
	}
	return obj
}

func TestHubBroadcastsEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	hub.Snapshot = func() any { return map[string]any{"in_progress": false} }

	r := gin.New()
	r.GET("/ws", HandleWS(hub, ""))
	ts := httptest.NewServer(r)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(ts.URL, "http", "ws", 1)+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if got := readType(t, conn)["type"]; got != MsgReady {
		t.Fatalf("first message type = %v", got)
	}
	if got := readType(t, conn)["type"]; got != MsgStatus {
		t.Fatalf("second message type = %v", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	hub.Publish(orchestrator.Event{Type: orchestrator.EventGameOver, Round: 3, WinnerID: "a"})
	obj := readType(t, conn)
	if obj["type"] != string(orchestrator.EventGameOver) || obj["winner_id"] != "a" {
		t.Fatalf("unexpected event %v", obj)
	}
}

func TestPublishWithoutWatchers(t *testing.T) {
	hub := NewHub()
	hub.Publish(orchestrator.Event{Type: orchestrator.EventNotice, Message: "nobody listening"})
	if hub.Count() != 0 {
		t.Fatal("expected no watchers")
	}
}
