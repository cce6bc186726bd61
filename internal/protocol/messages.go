package protocol

import (
	"fmt"
	"io"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/vmihailenco/msgpack/v5"
)

// MessageType tags control messages exchanged over TCP
type MessageType uint8

// Client -> Server message types
const (
	MsgCreateRoom MessageType = iota + 1
	MsgJoinRoom
	MsgListRooms
)

// Server -> Client message types
const (
	MsgRoomCreated MessageType = iota + 16
	MsgRoomJoined
	MsgRoomList
	MsgFailure
)

func (t MessageType) String() string {
	switch t {
	case MsgCreateRoom:
		return "create-room"
	case MsgJoinRoom:
		return "join-room"
	case MsgListRooms:
		return "list-rooms"
	case MsgRoomCreated:
		return "room-created"
	case MsgRoomJoined:
		return "room-joined"
	case MsgRoomList:
		return "room-list"
	case MsgFailure:
		return "failure"
	}
	return fmt.Sprintf("message(%d)", uint8(t))
}

// Message is any control protocol request or response
type Message interface {
	Type() MessageType
}

// Envelope wraps every control message with its type
type Envelope struct {
	T MessageType        `msgpack:"t"`
	D msgpack.RawMessage `msgpack:"d,omitempty"`
}

// GameHandle identifies a room and describes its board
type GameHandle struct {
	RoomID    int             `msgpack:"id"`
	RoomName  string          `msgpack:"n"`
	BoardName string          `msgpack:"b"`
	BoardInfo board.BoardInfo `msgpack:"bi"`
	Mode      string          `msgpack:"m"`
}

// PlayerHandle identifies a player inside a room
type PlayerHandle struct {
	RoomID     int    `msgpack:"r"`
	PlayerID   int    `msgpack:"p"`
	PlayerName string `msgpack:"n"`
}

// RoomInfo is one row of a room listing
type RoomInfo struct {
	ID        int    `msgpack:"id" json:"id"`
	Name      string `msgpack:"n" json:"name"`
	BoardName string `msgpack:"b" json:"board"`
	Players   int    `msgpack:"p" json:"players"`
	Frame     int    `msgpack:"f" json:"frame"`
}

type CreateRoomRequest struct {
	RoomName  string `msgpack:"n"`
	BoardName string `msgpack:"b"`
}

type CreateRoomResponse struct {
	Handle GameHandle `msgpack:"h"`
}

type JoinRoomRequest struct {
	RoomID     int    `msgpack:"r"`
	PlayerName string `msgpack:"n"`
}

type JoinRoomResponse struct {
	Handle PlayerHandle `msgpack:"h"`
}

type ListRoomsRequest struct{}

type ListRoomsResponse struct {
	Rooms []RoomInfo `msgpack:"r"`
}

// FailureResponse reports a request the server refused
type FailureResponse struct {
	Message string `msgpack:"m"`
}

func (f FailureResponse) Error() string { return f.Message }

func (CreateRoomRequest) Type() MessageType  { return MsgCreateRoom }
func (JoinRoomRequest) Type() MessageType    { return MsgJoinRoom }
func (ListRoomsRequest) Type() MessageType   { return MsgListRooms }
func (CreateRoomResponse) Type() MessageType { return MsgRoomCreated }
func (JoinRoomResponse) Type() MessageType   { return MsgRoomJoined }
func (ListRoomsResponse) Type() MessageType  { return MsgRoomList }
func (FailureResponse) Type() MessageType    { return MsgFailure }

// Marshal encodes msg into an envelope body
func Marshal(msg Message) ([]byte, error) {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %v: %w", msg.Type(), err)
	}
	return msgpack.Marshal(Envelope{T: msg.Type(), D: data})
}

// Unmarshal decodes an envelope body into the concrete message type
func Unmarshal(body []byte) (Message, error) {
	var env Envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	var err error
	switch env.T {
	case MsgCreateRoom:
		var m CreateRoomRequest
		err = decodeInto(env, &m)
		return m, err
	case MsgJoinRoom:
		var m JoinRoomRequest
		err = decodeInto(env, &m)
		return m, err
	case MsgListRooms:
		return ListRoomsRequest{}, nil
	case MsgRoomCreated:
		var m CreateRoomResponse
		err = decodeInto(env, &m)
		return m, err
	case MsgRoomJoined:
		var m JoinRoomResponse
		err = decodeInto(env, &m)
		return m, err
	case MsgRoomList:
		var m ListRoomsResponse
		err = decodeInto(env, &m)
		return m, err
	case MsgFailure:
		var m FailureResponse
		err = decodeInto(env, &m)
		return m, err
	}
	return nil, fmt.Errorf("decode envelope: unknown message type %v", env.T)
}

func decodeInto(env Envelope, v any) error {
	if err := msgpack.Unmarshal(env.D, v); err != nil {
		return fmt.Errorf("decode %v: %w", env.T, err)
	}
	return nil
}

// Send frames and writes one message
func Send(w io.Writer, msg Message) error {
	body, err := Marshal(msg)
	if err != nil {
		return err
	}
	return WriteFrame(w, body)
}

// Receive blocks for the next message. It returns io.EOF once the peer
// has closed the stream.
func Receive(r io.Reader) (Message, error) {
	body, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(body)
}

// Request sends msg and waits for the reply
func Request(rw io.ReadWriter, msg Message) (Message, error) {
	if err := Send(rw, msg); err != nil {
		return nil, err
	}
	reply, err := Receive(rw)
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	return reply, err
}
