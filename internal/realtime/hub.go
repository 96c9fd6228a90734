// Package realtime pushes server events to connected users over websockets.
package realtime

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Pusher is what services depend on to reach online users.
type Pusher interface {
	Push(userID, event string, payload any)
}

// Hub holds at most one connection per user; a newer connection replaces
// the older one.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*wsConn
	upgrader websocket.Upgrader
}

// NewHub accepts upgrades from browser origins allowOrigin approves. Requests
// without an Origin header come from non-browser clients and are accepted.
// A nil allowOrigin keeps gorilla's same-host check.
func NewHub(allowOrigin func(origin string) bool) *Hub {
	h := &Hub{conns: make(map[string]*wsConn)}
	if allowOrigin != nil {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowOrigin(origin)
		}
	}
	return h
}

// wsConn wraps a websocket connection with a write mutex to serialize writes.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func (h *Hub) register(userID string, conn *websocket.Conn) *wsConn {
	wc := &wsConn{conn: conn}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.conns[userID]; ok {
		old.conn.Close()
	}
	h.conns[userID] = wc
	return wc
}

// unregister drops wc unless it has already been replaced.
func (h *Hub) unregister(userID string, wc *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.conns[userID]; ok && cur == wc {
		delete(h.conns, userID)
	}
	wc.conn.Close()
}

// Online reports whether userID has a live connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[userID]
	return ok
}

// Push sends {event, data} to the user if connected. Offline users miss the
// frame; persisted notifications cover them.
func (h *Hub) Push(userID, event string, payload any) {
	h.mu.RLock()
	wc, ok := h.conns[userID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	_ = wc.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := wc.conn.WriteJSON(frame{Event: event, Data: payload}); err != nil {
		log.Printf("[ws] write to %s failed for event %s: %v", userID, event, err)
	}
}

const pongWait = 60 * time.Second

// Serve upgrades the request and keeps the connection registered for userID
// until the client goes away. Inbound frames are ignored.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wc := h.register(userID, conn)
	defer h.unregister(userID, wc)

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })

	done := make(chan struct{})
	defer close(done)
	go h.ping(wc, done)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) ping(wc *wsConn, done <-chan struct{}) {
	t := time.NewTicker(pongWait * 9 / 10)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			wc.mu.Lock()
			err := wc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			wc.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
