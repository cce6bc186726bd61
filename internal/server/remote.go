package server

import (
	"sync/atomic"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

type remoteState struct {
	dir        board.Direction
	moving     bool
	drop       bool
	validUntil int
}

// RemoteController is the server side of a networked player. The feedback
// loop writes it and the room goroutine reads it; neither ever blocks the
// other.
type RemoteController struct {
	frame func() int
	state atomic.Pointer[remoteState]
}

// NewRemoteController reads the current room frame through frame
func NewRemoteController(frame func() int) *RemoteController {
	return &RemoteController{frame: frame}
}

// Update replaces the state. The newest packet wins; it is honoured for
// ValidFrames frames counted from the room's current frame.
func (c *RemoteController) Update(u protocol.UpdateControllerState) {
	dir, moving := u.Dir()
	c.state.Store(&remoteState{
		dir:        dir,
		moving:     moving,
		drop:       u.DropsBomb,
		validUntil: c.frame() + u.ValidFrames,
	})
}

func (c *RemoteController) current() *remoteState {
	st := c.state.Load()
	if st == nil || c.frame() >= st.validUntil {
		return nil
	}
	return st
}

func (c *RemoteController) Direction() (board.Direction, bool) {
	if st := c.current(); st != nil && st.moving {
		return st.dir, true
	}
	return 0, false
}

func (c *RemoteController) DropsBomb() bool {
	st := c.current()
	return st != nil && st.drop
}
