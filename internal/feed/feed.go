// Package feed streams live session events to chart clients over
// websocket. Delivery is best-effort: a slow or dead client is dropped,
// and the engine never blocks on the feed.
package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"aitrade-engine/internal/trade"
)

const writeWait = 2 * time.Second

// Event is one feed message. Type is "phase", "caption", or "tick".
type Event struct {
	Type      string       `json:"type"`
	SessionID string       `json:"session_id,omitempty"`
	Phase     trade.Phase  `json:"phase,omitempty"`
	Caption   string       `json:"caption,omitempty"`
	Point     *trade.Point `json:"point,omitempty"`
	Profit    *trade.Point `json:"profit,omitempty"`
	Remaining int          `json:"remaining_sec,omitempty"`
	At        int64        `json:"at"`
}

// Hub fans events out to connected websocket clients.
type Hub struct {
	upgrader websocket.Upgrader
	logger   zerolog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub constructs an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger.With().Str("component", "feed").Logger(),
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Handler upgrades incoming chart clients.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		h.mu.Lock()
		h.conns[conn] = struct{}{}
		total := len(h.conns)
		h.mu.Unlock()
		h.logger.Debug().Int("clients", total).Msg("chart client connected")

		// Reader drains control frames and detects disconnect.
		go func() {
			defer h.drop(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Publish sends an event to every connected client, dropping the ones that
// cannot keep up.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At == 0 {
		ev.At = trade.TimeMS(time.Now())
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error().Err(err).Msg("marshal feed event")
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.drop(conn)
		}
	}
}

// Serve exposes the feed endpoint on addr until ctx is cancelled.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	if h == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", h.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.conns[conn]
	delete(h.conns, conn)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
}
