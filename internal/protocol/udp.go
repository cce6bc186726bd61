package protocol

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"
)

// Kind tags what a UDP datagram carries
type Kind uint8

const (
	KindFrameData Kind = iota + 1
	KindControllerState
	KindDiscoveryProbe
	KindDiscoveryReply
)

func (k Kind) String() string {
	switch k {
	case KindFrameData:
		return "frame-data"
	case KindControllerState:
		return "controller-state"
	case KindDiscoveryProbe:
		return "discovery-probe"
	case KindDiscoveryReply:
		return "discovery-reply"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// UDPHeaderSize is the envelope plus the kind and room tags
const UDPHeaderSize = HeaderSize + 1 + 4

// maxDatagram is large enough for any datagram EncodeDatagram produces
const maxDatagram = UDPHeaderSize + MaxBodySize

// Datagram is one decoded UDP packet
type Datagram struct {
	Kind   Kind
	RoomID uint32
	Body   []byte
}

// EncodeDatagram lays out [magic][length][kind][room][body]
func EncodeDatagram(kind Kind, roomID uint32, body []byte) ([]byte, error) {
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(body))
	}
	buf := make([]byte, UDPHeaderSize+len(body))
	putHeader(buf, uint32(len(body)))
	buf[HeaderSize] = byte(kind)
	binary.BigEndian.PutUint32(buf[HeaderSize+1:UDPHeaderSize], roomID)
	copy(buf[UDPHeaderSize:], body)
	return buf, nil
}

// DecodeDatagram parses one packet. The returned body does not alias b.
func DecodeDatagram(b []byte) (Datagram, error) {
	if len(b) < HeaderSize {
		return Datagram{}, ErrTruncated
	}
	if binary.BigEndian.Uint32(b[0:4]) != Magic {
		return Datagram{}, ErrBadMagic
	}
	n := binary.BigEndian.Uint32(b[4:8])
	if n == EndOfStream {
		return Datagram{}, io.EOF
	}
	if n > MaxBodySize {
		return Datagram{}, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	if len(b) < UDPHeaderSize+int(n) {
		return Datagram{}, ErrTruncated
	}
	d := Datagram{
		Kind:   Kind(b[HeaderSize]),
		RoomID: binary.BigEndian.Uint32(b[HeaderSize+1 : UDPHeaderSize]),
		Body:   make([]byte, n),
	}
	copy(d.Body, b[UDPHeaderSize:UDPHeaderSize+int(n)])
	return d, nil
}

// SendDatagram encodes and writes one packet to addr
func SendDatagram(conn net.PacketConn, addr net.Addr, kind Kind, roomID uint32, body []byte) error {
	buf, err := EncodeDatagram(kind, roomID, body)
	if err != nil {
		return err
	}
	_, err = conn.WriteTo(buf, addr)
	return err
}

// UDPReceiver reads datagrams off a packet socket, dropping anything that
// does not parse
type UDPReceiver struct {
	conn    net.PacketConn
	buf     []byte
	skipped atomic.Int64
}

func NewUDPReceiver(conn net.PacketConn) *UDPReceiver {
	return &UDPReceiver{conn: conn, buf: make([]byte, maxDatagram)}
}

// Skipped returns how many malformed datagrams were dropped so far
func (r *UDPReceiver) Skipped() int64 { return r.skipped.Load() }

// Next blocks until a well-formed datagram arrives, ctx is done or the
// socket fails. Not safe for concurrent use.
func (r *UDPReceiver) Next(ctx context.Context) (Datagram, net.Addr, error) {
	if err := r.conn.SetReadDeadline(time.Time{}); err != nil {
		return Datagram{}, nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		r.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		n, addr, err := r.conn.ReadFrom(r.buf)
		if err != nil {
			if ctx.Err() != nil {
				return Datagram{}, nil, ctx.Err()
			}
			return Datagram{}, nil, err
		}
		d, err := DecodeDatagram(r.buf[:n])
		if err != nil {
			if !errors.Is(err, io.EOF) {
				r.skipped.Add(1)
			}
			continue
		}
		return d, addr, nil
	}
}
