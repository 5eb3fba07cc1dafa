// Package pubsub implements the receiver's optional PUB channel: every
// RAW/IDA/ACARS line the output layer emits can also be broadcast to
// WebSocket subscribers. The Hub is modeled on dmr-nexus's WebSocketHub
// (register/unregister/broadcast channels, client map guarded
// internally) but broadcasts opaque text lines instead of typed events,
// matching this receiver's line-oriented output formats. A nil *Hub is
// valid and Publish on it is a no-op, so the pipeline runs unchanged with
// no subscribers attached.
package pubsub

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const clientBuffer = 256

type client struct {
	id       string
	messages chan string
}

// Hub manages WebSocket subscribers and broadcasts text lines to them.
type Hub struct {
	log *slog.Logger

	clients    map[*client]bool
	broadcast  chan string
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex
}

// NewHub returns a Hub; call Run to start its event loop.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:        log,
		clients:    make(map[*client]bool),
		broadcast:  make(chan string, clientBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run drives the hub's event loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.log.Debug("pubsub client registered", "client_id", c.id)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.messages)
			}
			h.mu.Unlock()
			h.log.Debug("pubsub client unregistered", "client_id", c.id)

		case line := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.messages <- line:
				default:
					h.log.Warn("pubsub client buffer full, dropping line", "client_id", c.id)
				}
			}
			h.mu.RUnlock()

		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.messages)
			}
			h.clients = make(map[*client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Publish broadcasts line to every connected subscriber. Safe to call on
// a nil *Hub (no-op), so output formatting never needs a nil check of
// its own.
func (h *Hub) Publish(line string) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- line:
	default:
		h.log.Warn("pubsub broadcast channel full, dropping line")
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler returns an HTTP handler that upgrades to a WebSocket and
// streams broadcast lines to the caller as text frames.
func (h *Hub) Handler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		c := &client{id: r.RemoteAddr, messages: make(chan string, clientBuffer)}
		h.register <- c

		go func() {
			defer func() {
				h.unregister <- c
				_ = conn.Close()
			}()
			conn.SetReadLimit(1024)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		go func() {
			for line := range c.messages {
				if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
					return
				}
			}
		}()
	})
}
