package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Envelope layout: [magic uint32][length uint32][body]. Big endian.
const (
	Magic       uint32 = 0x44594E41 // "DYNA"
	EndOfStream uint32 = 0xFFFFFFFF
	HeaderSize         = 8

	// MaxBodySize keeps a whole UDP datagram, tags included, under the
	// 65507-byte IPv4 payload limit.
	MaxBodySize = 65000
)

var (
	ErrBadMagic      = errors.New("protocol: bad magic")
	ErrFrameTooLarge = errors.New("protocol: frame too large")
	ErrTruncated     = errors.New("protocol: truncated frame")
)

func putHeader(buf []byte, length uint32) {
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], length)
}

// WriteFrame writes body as one framed message in a single Write call
func WriteFrame(w io.Writer, body []byte) error {
	if len(body) > MaxBodySize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(body))
	}
	buf := make([]byte, HeaderSize+len(body))
	putHeader(buf, uint32(len(body)))
	copy(buf[HeaderSize:], body)
	_, err := w.Write(buf)
	return err
}

// WriteEOS tells the peer that no more frames follow
func WriteEOS(w io.Writer) error {
	var buf [HeaderSize]byte
	putHeader(buf[:], EndOfStream)
	_, err := w.Write(buf[:])
	return err
}

// ReadFrame blocks for the next frame body. It returns io.EOF when the
// stream ended cleanly, either at a frame boundary or with an
// end-of-stream marker.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	if binary.BigEndian.Uint32(hdr[0:4]) != Magic {
		return nil, ErrBadMagic
	}
	n := binary.BigEndian.Uint32(hdr[4:8])
	if n == EndOfStream {
		return nil, io.EOF
	}
	if n > MaxBodySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return body, nil
}
