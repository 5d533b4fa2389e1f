// Package main runs a demo WebSocket client for the event stream.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var solveBody = []byte(`{
  "costs": [[0,10,15,20],[10,0,35,25],[15,35,0,30],[20,25,30,0]],
  "vehicles": 1
}`)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	base := fmt.Sprintf("http://localhost:%s", port)

	// Run one solve up front so the server is warm
	req, _ := http.NewRequest(http.MethodPost, base+"/v1/solves", bytes.NewReader(solveBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_demo")
	req.Header.Set("X-Role", "admin")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	var solveResp struct {
		ID        string  `json:"id"`
		TotalCost float64 `json:"totalCost"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&solveResp); err != nil {
		log.Fatal(err)
	}
	log.Printf("Solve ID: %s cost=%.1f", solveResp.ID, solveResp.TotalCost)

	// Connect WS
	u := url.URL{Scheme: "ws", Host: "localhost:" + port, Path: "/v1/events/ws"}
	hdr := http.Header{}
	hdr.Set("X-Tenant-Id", "t_demo")
	hdr.Set("X-Role", "admin")
	c, _, err := websocket.DefaultDialer.Dial(u.String(), hdr)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer func() { _ = c.Close() }()

	// connection_init
	if err := c.WriteJSON(wsMessage{Type: "connection_init"}); err != nil {
		log.Fatal(err)
	}
	// subscribe to solve lifecycle events
	payload := map[string]any{
		"events": []string{"solve.started", "solve.progress", "solve.completed", "solve.failed"},
	}
	pl, _ := json.Marshal(payload)
	if err := c.WriteJSON(wsMessage{Type: "subscribe", ID: "1", Payload: pl}); err != nil {
		log.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var m wsMessage
			if err := c.ReadJSON(&m); err != nil {
				log.Printf("read: %v", err)
				return
			}
			log.Printf("WS <- %s: %s", m.Type, string(m.Payload))
		}
	}()

	// Trigger events with a second solve
	time.Sleep(500 * time.Millisecond)
	trig, _ := http.NewRequest(http.MethodPost, base+"/v1/solves", bytes.NewReader(solveBody))
	trig.Header.Set("Content-Type", "application/json")
	trig.Header.Set("X-Tenant-Id", "t_demo")
	trig.Header.Set("X-Role", "admin")
	_, _ = http.DefaultClient.Do(trig)

	// Wait briefly to receive a few messages
	select {
	case <-time.After(2 * time.Second):
	case <-done:
	}
}
