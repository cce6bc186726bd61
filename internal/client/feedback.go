package client

import (
	"net"
	"sync/atomic"

	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

const (
	DefaultValidFrames   = 10
	DefaultRefreshFrames = 5
)

// FeedbackSender reads a controller on every OnFrame call and tells the
// server about it. With a read-once controller such as AsyncController,
// attach it through AsyncController.Sample so each wake-up is read once.
// An unchanged state is only resent every refresh frames, so a lost
// packet cannot stall the player for long.
type FeedbackSender struct {
	conn        net.PacketConn
	server      net.Addr
	handle      protocol.PlayerHandle
	ctrl        game.Controller
	validFrames int
	refresh     int

	last     protocol.UpdateControllerState
	lastSent int
	sentAny  bool
	sent     atomic.Int64
}

func NewFeedbackSender(conn net.PacketConn, server net.Addr, handle protocol.PlayerHandle, ctrl game.Controller) *FeedbackSender {
	return &FeedbackSender{
		conn:        conn,
		server:      server,
		handle:      handle,
		ctrl:        ctrl,
		validFrames: DefaultValidFrames,
		refresh:     DefaultRefreshFrames,
	}
}

// SetValidity changes how many frames one update is honoured and how often
// an unchanged state is repeated. refresh <= 0 disables repeats.
func (f *FeedbackSender) SetValidity(validFrames, refresh int) {
	f.validFrames = validFrames
	f.refresh = refresh
}

func (f *FeedbackSender) OnFrame(frame int, _ []game.Event) {
	dir, moving := f.ctrl.Direction()
	u := protocol.NewControllerState(f.handle.RoomID, f.handle.PlayerID, dir, moving, f.ctrl.DropsBomb(), f.validFrames)
	if f.sentAny && u == f.last && (f.refresh <= 0 || frame-f.lastSent < f.refresh) {
		return
	}
	if err := f.Send(u); err != nil {
		return
	}
	f.last = u
	f.lastSent = frame
	f.sentAny = true
}

// Send writes one update immediately
func (f *FeedbackSender) Send(u protocol.UpdateControllerState) error {
	body, err := u.Marshal()
	if err != nil {
		return err
	}
	if err := protocol.SendDatagram(f.conn, f.server, protocol.KindControllerState, uint32(u.RoomID), body); err != nil {
		return err
	}
	f.sent.Add(1)
	return nil
}

// Sent returns the number of updates written so far
func (f *FeedbackSender) Sent() int64 { return f.sent.Load() }
