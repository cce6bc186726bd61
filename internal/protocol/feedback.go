package protocol

import (
	"fmt"
	"net"
	"strconv"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/vmihailenco/msgpack/v5"
)

// NoDirection marks a controller state without movement
const NoDirection int8 = -1

// UpdateControllerState carries one player's input from client to server
type UpdateControllerState struct {
	RoomID      int  `msgpack:"r"`
	PlayerID    int  `msgpack:"p"`
	Direction   int8 `msgpack:"d"`
	DropsBomb   bool `msgpack:"b"`
	ValidFrames int  `msgpack:"v"`
}

// NewControllerState builds an update from a controller reading
func NewControllerState(roomID, playerID int, dir board.Direction, moving, drop bool, validFrames int) UpdateControllerState {
	u := UpdateControllerState{
		RoomID:      roomID,
		PlayerID:    playerID,
		Direction:   NoDirection,
		DropsBomb:   drop,
		ValidFrames: validFrames,
	}
	if moving {
		u.Direction = int8(dir)
	}
	return u
}

// Dir returns the direction, if any. Out-of-range values read as none.
func (u UpdateControllerState) Dir() (board.Direction, bool) {
	d := board.Direction(u.Direction)
	if u.Direction == NoDirection || !d.Valid() {
		return 0, false
	}
	return d, true
}

func (u UpdateControllerState) Marshal() ([]byte, error) {
	return msgpack.Marshal(u)
}

func UnmarshalControllerState(b []byte) (UpdateControllerState, error) {
	var u UpdateControllerState
	if err := msgpack.Unmarshal(b, &u); err != nil {
		return u, fmt.Errorf("decode controller state: %w", err)
	}
	return u, nil
}

// ServerDescriptor is what a server announces in reply to a discovery probe
type ServerDescriptor struct {
	Name          string `msgpack:"n" json:"name"`
	Address       string `msgpack:"a" json:"address"`
	ControlPort   int    `msgpack:"cp" json:"controlPort"`
	FeedbackPort  int    `msgpack:"fp" json:"feedbackPort"`
	BroadcastPort int    `msgpack:"bp" json:"broadcastPort"`
	SpectatorPort int    `msgpack:"sp,omitempty" json:"spectatorPort,omitempty"`
}

// ControlAddr returns host:port of the TCP control endpoint
func (s ServerDescriptor) ControlAddr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.ControlPort))
}

// FeedbackAddr returns host:port of the UDP feedback endpoint
func (s ServerDescriptor) FeedbackAddr() string {
	return net.JoinHostPort(s.Address, strconv.Itoa(s.FeedbackPort))
}

func (s ServerDescriptor) Marshal() ([]byte, error) {
	return msgpack.Marshal(s)
}

func UnmarshalServerDescriptor(b []byte) (ServerDescriptor, error) {
	var s ServerDescriptor
	if err := msgpack.Unmarshal(b, &s); err != nil {
		return s, fmt.Errorf("decode server descriptor: %w", err)
	}
	return s, nil
}
