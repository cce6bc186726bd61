package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/dweiss/jdyna-sub000/internal/protocol"
)

// ErrRefused wraps the message of a FailureResponse
var ErrRefused = errors.New("server refused request")

// Conn is a control connection to a server
type Conn struct {
	mu   sync.Mutex
	conn net.Conn
}

// Dial opens a control connection to addr
func Dial(ctx context.Context, addr string) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Conn{conn: conn}, nil
}

// LocalAddr returns the local end of the control connection
func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

func (c *Conn) request(msg protocol.Message) (protocol.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply, err := protocol.Request(c.conn, msg)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", msg.Type(), err)
	}
	if f, ok := reply.(protocol.FailureResponse); ok {
		return nil, fmt.Errorf("%w: %s", ErrRefused, f.Message)
	}
	return reply, nil
}

// CreateRoom asks the server to start a new room on the named board
func (c *Conn) CreateRoom(roomName, boardName string) (protocol.GameHandle, error) {
	reply, err := c.request(protocol.CreateRoomRequest{RoomName: roomName, BoardName: boardName})
	if err != nil {
		return protocol.GameHandle{}, err
	}
	r, ok := reply.(protocol.CreateRoomResponse)
	if !ok {
		return protocol.GameHandle{}, fmt.Errorf("create room: unexpected reply %v", reply.Type())
	}
	return r.Handle, nil
}

// JoinRoom adds a player to a running room
func (c *Conn) JoinRoom(roomID int, playerName string) (protocol.PlayerHandle, error) {
	reply, err := c.request(protocol.JoinRoomRequest{RoomID: roomID, PlayerName: playerName})
	if err != nil {
		return protocol.PlayerHandle{}, err
	}
	r, ok := reply.(protocol.JoinRoomResponse)
	if !ok {
		return protocol.PlayerHandle{}, fmt.Errorf("join room: unexpected reply %v", reply.Type())
	}
	return r.Handle, nil
}

func (c *Conn) ListRooms() ([]protocol.RoomInfo, error) {
	reply, err := c.request(protocol.ListRoomsRequest{})
	if err != nil {
		return nil, err
	}
	r, ok := reply.(protocol.ListRoomsResponse)
	if !ok {
		return nil, fmt.Errorf("list rooms: unexpected reply %v", reply.Type())
	}
	return r.Rooms, nil
}

// Close says goodbye and closes the connection
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	protocol.WriteEOS(c.conn)
	return c.conn.Close()
}
