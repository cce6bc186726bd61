package server

import (
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

// Broadcaster sends a room's frame batches over the shared UDP socket,
// tagged with the room id, to every known target
type Broadcaster struct {
	conn   net.PacketConn
	roomID uint32

	mu      sync.Mutex
	targets []net.Addr
	known   map[string]bool

	sent    atomic.Int64
	dropped atomic.Int64
}

func NewBroadcaster(conn net.PacketConn, roomID int, targets []net.Addr) *Broadcaster {
	b := &Broadcaster{conn: conn, roomID: uint32(roomID), known: make(map[string]bool)}
	for _, t := range targets {
		b.AddTarget(t)
	}
	return b
}

// AddTarget starts sending to addr. Reports false if addr was known already.
func (b *Broadcaster) AddTarget(addr net.Addr) bool {
	key := addr.String()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.known[key] {
		return false
	}
	b.known[key] = true
	b.targets = append(b.targets, addr)
	return true
}

// Targets returns a copy of the target list
func (b *Broadcaster) Targets() []net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]net.Addr(nil), b.targets...)
}

func (b *Broadcaster) OnFrame(frame int, events []game.Event) {
	body, err := protocol.EncodeFrameData(protocol.FrameData{Frame: frame, Events: events})
	if err != nil {
		log.Printf("broadcast: room %d frame %d: %v", b.roomID, frame, err)
		return
	}
	pkt, err := protocol.EncodeDatagram(protocol.KindFrameData, b.roomID, body)
	if err != nil {
		b.dropped.Add(1)
		log.Printf("broadcast: room %d frame %d: %v", b.roomID, frame, err)
		return
	}
	for _, t := range b.Targets() {
		if _, err := b.conn.WriteTo(pkt, t); err != nil {
			// logged once per broadcaster
			if b.dropped.Add(1) == 1 {
				log.Printf("broadcast: room %d to %v: %v", b.roomID, t, err)
			}
			continue
		}
		b.sent.Add(1)
	}
}

// Stats returns packets sent and packets dropped so far
func (b *Broadcaster) Stats() (sent, dropped int64) {
	return b.sent.Load(), b.dropped.Load()
}
