package server

import (
	"io"
	"sync"

	"github.com/google/uuid"
)

// Hub caps and tracks the server's long-lived connections, both control
// and spectator
type Hub struct {
	maxPerIP int
	maxTotal int

	mu      sync.Mutex
	ipConns map[string]int
	conns   map[uuid.UUID]hubConn
}

type hubConn struct {
	ip     string
	closer io.Closer
}

func NewHub(maxPerIP, maxTotal int) *Hub {
	return &Hub{
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
		ipConns:  make(map[string]int),
		conns:    make(map[uuid.UUID]hubConn),
	}
}

// Admit registers a connection from ip unless a cap is reached. The
// returned id is used for logging and for Release.
func (h *Hub) Admit(ip string, c io.Closer) (uuid.UUID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxTotal > 0 && len(h.conns) >= h.maxTotal {
		return uuid.Nil, false
	}
	if h.maxPerIP > 0 && h.ipConns[ip] >= h.maxPerIP {
		return uuid.Nil, false
	}
	id := uuid.New()
	h.ipConns[ip]++
	h.conns[id] = hubConn{ip: ip, closer: c}
	return id, true
}

// Bind sets the closer of a connection admitted before it existed, such
// as a websocket admitted ahead of the upgrade
func (h *Hub) Bind(id uuid.UUID, c io.Closer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hc, ok := h.conns[id]; ok {
		hc.closer = c
		h.conns[id] = hc
	}
}

// Release forgets a connection. Releasing twice is a no-op.
func (h *Hub) Release(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	h.ipConns[c.ip]--
	if h.ipConns[c.ip] <= 0 {
		delete(h.ipConns, c.ip)
	}
}

// Count returns the number of tracked connections
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// CloseAll closes every tracked connection. Their handlers release them.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	closers := make([]io.Closer, 0, len(h.conns))
	for _, c := range h.conns {
		if c.closer != nil {
			closers = append(closers, c.closer)
		}
	}
	h.mu.Unlock()
	for _, c := range closers {
		c.Close()
	}
}
