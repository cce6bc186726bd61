package client

import (
	"context"
	"errors"
	"log"
	"net"

	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

// FrameReceiver delivers one room's broadcast frames to a listener
type FrameReceiver struct {
	r      *protocol.UDPReceiver
	roomID uint32
	next   game.Listener
	last   int
}

func NewFrameReceiver(conn net.PacketConn, roomID int, next game.Listener) *FrameReceiver {
	return &FrameReceiver{
		r:      protocol.NewUDPReceiver(conn),
		roomID: uint32(roomID),
		next:   next,
		last:   -1,
	}
}

// Run delivers frames until the game-over batch arrives or ctx is done.
// Frames of other rooms and frames older than the newest one seen are
// dropped.
func (f *FrameReceiver) Run(ctx context.Context) error {
	for {
		d, _, err := f.r.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if d.Kind != protocol.KindFrameData || d.RoomID != f.roomID {
			continue
		}
		fd, err := protocol.DecodeFrameData(d.Body)
		if err != nil {
			log.Printf("frames: room %d: %v", f.roomID, err)
			continue
		}
		if fd.Frame <= f.last {
			continue
		}
		f.last = fd.Frame
		f.next.OnFrame(fd.Frame, fd.Events)

		for _, e := range fd.Events {
			if e.Kind() == game.KindGameOver {
				return nil
			}
		}
	}
}
