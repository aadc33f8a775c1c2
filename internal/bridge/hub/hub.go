// Package hub fans catalog-change notifications out to connected websocket
// clients (spec.md §9 supplemented feature), so a remote dashboard sees
// list() changes pushed instead of polled. One Hub serves every connection
// for a single am3 host.
package hub

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Every origin is accepted here; access to /api/ws is gated by the
	// bridge's session/Bearer authentication, not by an origin check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks connected websocket clients and broadcasts messages to all of
// them.
type Hub struct {
	log     *zap.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New builds an empty Hub.
func New(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{log: log.Named("bridge_hub"), clients: make(map[*websocket.Conn]struct{})}
}

// ServeWS upgrades the request to a websocket connection and registers it
// for broadcasts until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go h.drain(conn)
	return nil
}

// drain reads (and discards) frames from conn until it errors or closes,
// which is what deregisters it — clients are not expected to send anything,
// but the read loop is what surfaces a closed connection to the server side
// of a gorilla/websocket.Conn.
func (h *Hub) drain(conn *websocket.Conn) {
	defer h.remove(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends payload to every connected client, dropping (and
// deregistering) any connection whose write fails.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("broadcast write failed; dropping client", zap.Error(err))
			h.remove(c)
		}
	}
}
