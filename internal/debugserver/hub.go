package debugserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one attached inspector connection, mirroring the
// teacher's WebSocketConn: a mutex-guarded *websocket.Conn plus a
// closed flag so a broadcast never writes to a socket mid-close.
type client struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
	closed bool
}

// Hub accepts inspector connections and broadcasts Snapshots to all
// of them, the debug-feed analog of the teacher's WebSocketServer.
type Hub struct {
	upgrader websocket.Upgrader
	server   *http.Server

	mu      sync.RWMutex
	clients map[string]*client
}

// NewHub builds a Hub with an origin-permissive upgrader, matching
// the teacher's WebSocketListen (a local debugger attaches from
// wherever the developer's tooling runs, not a browser origin worth
// restricting).
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades a request to a WebSocket and registers the
// resulting connection as an inspector client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		id:   fmt.Sprintf("inspector_%d", time.Now().UnixNano()),
		conn: conn,
	}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go h.drain(c)
}

// drain discards whatever an inspector sends back (the feed is
// one-directional) until the connection closes, the same
// read-until-error loop the teacher's readMessages runs.
func (h *Hub) drain(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.conn.Close()
}

// Broadcast marshals snap to JSON and sends it to every attached
// inspector, dropping (and unregistering) any connection that errors.
func (h *Hub) Broadcast(snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	var lastErr error
	for _, c := range clients {
		c.mu.Lock()
		closed := c.closed
		if !closed {
			if werr := c.conn.WriteMessage(websocket.TextMessage, data); werr != nil {
				lastErr = werr
				closed = true
			}
		}
		c.mu.Unlock()
		if closed {
			h.remove(c)
		}
	}
	return lastErr
}

// ListenAndServe starts an HTTP server on addr whose only route is
// the inspector WebSocket upgrade, running in the background the way
// the teacher's WebSocketListen backgrounds its http.Server.
func (h *Hub) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/debug", h)
	h.server = &http.Server{Addr: addr, Handler: mux}
	go h.server.ListenAndServe()
	return nil
}

// Close stops accepting new inspectors and closes every open
// connection.
func (h *Hub) Close() error {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		c.mu.Lock()
		c.closed = true
		c.conn.Close()
		c.mu.Unlock()
	}

	if h.server != nil {
		return h.server.Close()
	}
	return nil
}
