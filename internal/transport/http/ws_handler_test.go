package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t)
	set := uploadSample(t, server)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the current snapshot first.
	_, payload := readNext(t, conn, "snapshot")
	if payload["phase"] != "not_started" {
		t.Fatalf("expected not_started, got %v", payload["phase"])
	}

	send(t, conn, "start", map[string]any{"questionSetId": set.ID})
	_, payload = readNext(t, conn, "snapshot")
	if payload["phase"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", payload["phase"])
	}

	send(t, conn, "select", map[string]any{"option": "4"})
	readNext(t, conn, "snapshot")

	send(t, conn, "submit", nil)
	_, payload = readNext(t, conn, "snapshot")
	feedback, _ := payload["feedback"].(map[string]any)
	if feedback == nil || feedback["isCorrect"] != true {
		t.Fatalf("expected correct feedback, got %v", payload["feedback"])
	}

	send(t, conn, "submit", nil)
	_, payload = readNext(t, conn, "error")
	if payload["code"] != ErrCodeInvalidTransition {
		t.Fatalf("expected invalid_transition, got %v", payload["code"])
	}

	send(t, conn, "advance", nil)
	_, payload = readNext(t, conn, "snapshot")
	if payload["phase"] != "completed" || payload["result"] == nil {
		t.Fatalf("expected completed snapshot with result, got %v", payload)
	}

	send(t, conn, "dance", nil)
	_, payload = readNext(t, conn, "error")
	if payload["code"] != ErrCodeUnknownMessageType {
		t.Fatalf("expected unknown_message_type, got %v", payload["code"])
	}
}

func TestWebSocketReceivesRESTTransitions(t *testing.T) {
	server := newTestServer(t)
	set := uploadSample(t, server)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readNext(t, conn, "snapshot")

	resp := do(t, http.MethodPost, server.URL+"/v1/question-sets/"+set.ID+"/quiz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start via REST: %d", resp.StatusCode)
	}
	_, payload := readNext(t, conn, "snapshot")
	if payload["questionSetId"] != set.ID {
		t.Fatalf("expected pushed snapshot for %s, got %v", set.ID, payload["questionSetId"])
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": json.RawMessage(raw)}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readNext(t *testing.T, conn *websocket.Conn, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
