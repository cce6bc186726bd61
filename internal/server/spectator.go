package server

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufSize    = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// Routes returns the spectator HTTP handler
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rooms", s.handleRooms)
	mux.HandleFunc("/ws", s.handleSpectate)
	return mux
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	if err := json.NewEncoder(w).Encode(s.rooms.List()); err != nil {
		log.Printf("rooms: encode: %v", err)
	}
}

func (s *Server) handleSpectate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("room"))
	if err != nil {
		http.Error(w, "room id required", http.StatusBadRequest)
		return
	}
	room, err := s.rooms.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	ip := extractIP(r.RemoteAddr)
	connID, ok := s.hub.Admit(ip, nil)
	if !ok {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.Release(connID)
		log.Printf("upgrade error: %v", err)
		return
	}
	s.hub.Bind(connID, conn)

	sp := &spectator{
		id:   connID,
		conn: conn,
		room: room,
		send: make(chan []byte, sendBufSize),
		done: make(chan struct{}),
	}
	cancel := room.Subscribe(sp)
	go func() {
		sp.WritePump()
		cancel()
		s.hub.Release(connID)
	}()
	go sp.ReadPump()
}

// spectator streams one room's frames to a websocket as binary msgpack
// FrameData messages
type spectator struct {
	id      uuid.UUID
	conn    *websocket.Conn
	room    *Room
	send    chan []byte
	done    chan struct{}
	dropped atomic.Int64
}

// OnFrame never blocks the room; a full queue drops the frame
func (sp *spectator) OnFrame(frame int, events []game.Event) {
	body, err := protocol.EncodeFrameData(protocol.FrameData{Frame: frame, Events: events})
	if err != nil {
		log.Printf("spectator %s: encode: %v", sp.id, err)
		return
	}
	select {
	case sp.send <- body:
	default:
		sp.dropped.Add(1)
	}
}

// ReadPump discards whatever the viewer sends and keeps the pong deadline
// fresh. It closes done when the connection goes away.
func (sp *spectator) ReadPump() {
	defer func() {
		close(sp.done)
		sp.conn.Close()
	}()

	sp.conn.SetReadLimit(maxMessageSize)
	sp.conn.SetReadDeadline(time.Now().Add(pongWait))
	sp.conn.SetPongHandler(func(string) error {
		sp.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := sp.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("spectator %s: ws error: %v", sp.id, err)
			}
			return
		}
	}
}

// WritePump forwards queued frames until the viewer leaves or the room's
// game ends
func (sp *spectator) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sp.conn.Close()
	}()

	for {
		select {
		case msg := <-sp.send:
			if err := sp.write(websocket.BinaryMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := sp.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-sp.done:
			return
		case <-sp.room.Done():
			// the game-over batch is already queued
			for len(sp.send) > 0 {
				if err := sp.write(websocket.BinaryMessage, <-sp.send); err != nil {
					return
				}
			}
			sp.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over"))
			return
		}
	}
}

func (sp *spectator) write(kind int, data []byte) error {
	sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return sp.conn.WriteMessage(kind, data)
}
