package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestEventsWSSubscribeAndReceive(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.EventsWSHandler))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"X-Tenant-Id": []string{"acme"}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		t.Fatalf("init: %v", err)
	}
	var ack wsMessage
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if ack.Type != "connection_ack" {
		t.Fatalf("ack type: %s", ack.Type)
	}

	sub := wsMessage{Type: "subscribe", ID: "1", Payload: []byte(`{"events":["solve.completed"]}`)}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	// let the server register the subscription before publishing
	time.Sleep(50 * time.Millisecond)

	s.publish("acme", "solve.progress", map[string]any{"pass": 1})
	s.publish("acme", "solve.completed", map[string]any{"solveId": "s1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame wsMessage
	for {
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read frame: %v", err)
		}
		if frame.Type == "ping" {
			continue
		}
		break
	}
	if frame.Type != "event" || frame.ID != "1" {
		t.Fatalf("frame: %+v", frame)
	}
	var evt Event
	if err := json.Unmarshal(frame.Payload, &evt); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if evt.Type != "solve.completed" {
		t.Fatalf("got %s, want the filtered solve.completed", evt.Type)
	}
	if evt.Data["solveId"] != "s1" {
		t.Fatalf("data: %+v", evt.Data)
	}
}

func TestEventsWSPingPong(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(http.HandlerFunc(s.EventsWSHandler))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsMessage{Type: "ping"}); err != nil {
		t.Fatalf("ping: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var pong wsMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if pong.Type != "pong" {
		t.Fatalf("got %s, want pong", pong.Type)
	}
}
