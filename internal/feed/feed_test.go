package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"aitrade-engine/internal/trade"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubPublishReachesClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)

	sent := Event{
		Type:      "tick",
		SessionID: "sess-1",
		Phase:     trade.PhaseRunning,
		Profit:    &trade.Point{At: 1000, Value: decimal.NewFromFloat(12.34)},
		Remaining: 20,
		At:        1000,
	}
	// The handler registers the connection before the dial returns, but
	// give the server goroutine a moment on slow machines.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.Publish(sent)
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, payload, err := conn.ReadMessage()
		if err == nil {
			var got Event
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("unmarshal event: %v", err)
			}
			if got.Type != "tick" || got.SessionID != "sess-1" || got.Remaining != 20 {
				t.Fatalf("unexpected event %+v", got)
			}
			if got.Profit == nil || !got.Profit.Value.Equal(decimal.NewFromFloat(12.34)) {
				t.Fatalf("profit point lost: %+v", got.Profit)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("no event received: %v", err)
		}
	}
}

func TestHubDropsDeadClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	conn := dialHub(t, hub)
	conn.Close()

	// Publishing to a closed connection must not panic or block; the hub
	// prunes it on write failure.
	for i := 0; i < 3; i++ {
		hub.Publish(Event{Type: "phase", Phase: trade.PhaseIdle, At: int64(i + 1)})
		time.Sleep(10 * time.Millisecond)
	}

	hub.mu.Lock()
	remaining := len(hub.conns)
	hub.mu.Unlock()
	if remaining != 0 {
		t.Fatalf("dead client should be pruned, %d still registered", remaining)
	}
}

func TestNilHubPublish(t *testing.T) {
	var hub *Hub
	hub.Publish(Event{Type: "phase"}) // must be a no-op
}
