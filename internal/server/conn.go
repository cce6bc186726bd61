package server

import (
	"errors"
	"io"
	"log"
	"net"

	"github.com/dweiss/jdyna-sub000/internal/protocol"
	"github.com/google/uuid"
)

const defaultPlayerName = "Player"

// controlConn serves one TCP control connection until the peer leaves or
// sends something the protocol does not allow
type controlConn struct {
	id   uuid.UUID
	conn net.Conn
	srv  *Server
}

func (c *controlConn) serve() {
	for {
		msg, err := protocol.Receive(c.conn)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				log.Printf("control %s: read error: %v", c.id, err)
			}
			return
		}

		var reply protocol.Message
		switch m := msg.(type) {
		case protocol.CreateRoomRequest:
			reply = c.handleCreate(m)
		case protocol.JoinRoomRequest:
			reply = c.handleJoin(m)
		case protocol.ListRoomsRequest:
			reply = protocol.ListRoomsResponse{Rooms: c.srv.rooms.List()}
		default:
			log.Printf("control %s: unexpected %v, closing", c.id, msg.Type())
			return
		}

		if err := protocol.Send(c.conn, reply); err != nil {
			log.Printf("control %s: write error: %v", c.id, err)
			return
		}
	}
}

func (c *controlConn) handleCreate(m protocol.CreateRoomRequest) protocol.Message {
	room, err := c.srv.rooms.Create(m.RoomName, m.BoardName)
	if err != nil {
		return protocol.FailureResponse{Message: err.Error()}
	}
	return protocol.CreateRoomResponse{Handle: room.Handle()}
}

func (c *controlConn) handleJoin(m protocol.JoinRoomRequest) protocol.Message {
	name := truncateName(m.PlayerName)
	if name == "" {
		name = defaultPlayerName
	}
	room, err := c.srv.rooms.Get(m.RoomID)
	if err != nil {
		return protocol.FailureResponse{Message: err.Error()}
	}
	handle, err := room.Join(name)
	if err != nil {
		return protocol.FailureResponse{Message: err.Error()}
	}
	log.Printf("control %s: %s joined room %d as player %d", c.id, name, room.ID, handle.PlayerID)
	return protocol.JoinRoomResponse{Handle: handle}
}
