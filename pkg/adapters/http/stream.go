package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/gorilla/websocket"
)

// MessageType tags messages on the state stream.
type MessageType string

const (
	MessageSnapshot    MessageType = "snapshot"
	MessageStateChange MessageType = "state_change"
)

// StreamMessage is sent to WebSocket clients. A client first receives a
// snapshot, then one state_change per published reducer pass.
type StreamMessage struct {
	Type     MessageType                      `json:"type"`
	Location string                           `json:"location"`
	State    map[string]domain.RouterSnapshot `json:"state,omitempty"`
	Diff     *domain.StateDiff                `json:"diff,omitempty"`
}

const clientBuffer = 16

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// StreamManager fans state messages out to WebSocket clients. Each client
// has its own writer goroutine; slow clients lose messages instead of
// blocking the broadcaster.
type StreamManager struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeWS upgrades the request and streams messages until the client goes
// away. first produces the initial snapshot.
func (sm *StreamManager) ServeWS(first func(context.Context) (StreamMessage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg, err := first(r.Context())
		if err != nil {
			http.Error(w, "Failed to read state", http.StatusInternalServerError)
			slog.Error("WS: snapshot failed", "error", err)
			return
		}
		data, err := json.Marshal(msg)
		if err != nil {
			http.Error(w, "Failed to encode state", http.StatusInternalServerError)
			return
		}

		conn, err := sm.upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("WS: upgrade failed", "error", err)
			return
		}

		c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
		// The snapshot is queued before registration so it always comes first.
		c.send <- data
		sm.mu.Lock()
		sm.clients[c] = struct{}{}
		sm.mu.Unlock()
		slog.Info("WS: client connected", "clients", sm.ClientCount())

		go sm.writeLoop(c)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		sm.remove(c)
		slog.Info("WS: client disconnected")
	}
}

func (sm *StreamManager) writeLoop(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			sm.remove(c)
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

func (sm *StreamManager) remove(c *client) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, ok := sm.clients[c]; !ok {
		return
	}
	delete(sm.clients, c)
	close(c.send)
}

// Broadcast queues msg for every connected client.
func (sm *StreamManager) Broadcast(msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("WS: encode failed", "error", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for c := range sm.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("WS: client buffer full, dropping message", "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients.
func (sm *StreamManager) ClientCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.clients)
}

// Close disconnects every client.
func (sm *StreamManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for c := range sm.clients {
		delete(sm.clients, c)
		close(c.send)
	}
}
