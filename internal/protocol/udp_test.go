package protocol

import (
	"bytes"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"pgregory.net/rapid"
)

func TestControllerStateDatagramRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		moving := rapid.Bool().Draw(t, "moving")
		dir := board.Directions[rapid.IntRange(0, len(board.Directions)-1).Draw(t, "dir")]
		want := NewControllerState(
			rapid.IntRange(0, 1<<16).Draw(t, "room"),
			rapid.IntRange(0, 64).Draw(t, "player"),
			dir, moving,
			rapid.Bool().Draw(t, "drop"),
			rapid.IntRange(0, 100).Draw(t, "valid"),
		)

		body, err := want.Marshal()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		pkt, err := EncodeDatagram(KindControllerState, uint32(want.RoomID), body)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		d, err := DecodeDatagram(pkt)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if d.Kind != KindControllerState || d.RoomID != uint32(want.RoomID) {
			t.Fatalf("expected tags %v/%d, got %v/%d", KindControllerState, want.RoomID, d.Kind, d.RoomID)
		}
		got, err := UnmarshalControllerState(d.Body)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got != want {
			t.Fatalf("expected %+v, got %+v", want, got)
		}
		gd, gm := got.Dir()
		if gm != moving || (moving && gd != dir) {
			t.Fatalf("expected direction %v/%v, got %v/%v", dir, moving, gd, gm)
		}
	})
}

func TestDecodeDatagramRejectsMalformed(t *testing.T) {
	good, err := EncodeDatagram(KindFrameData, 1, []byte("abc"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	bad := bytes.Clone(good)
	bad[0] ^= 0xFF

	if _, err := DecodeDatagram(bad); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
	if _, err := DecodeDatagram(good[:len(good)-1]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if _, err := DecodeDatagram(good[:3]); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated for a stub, got %v", err)
	}
}

func TestDirOutOfRangeReadsAsNone(t *testing.T) {
	u := UpdateControllerState{Direction: 42}
	if _, ok := u.Dir(); ok {
		t.Error("unknown direction value should read as no movement")
	}
}

func listenLoopback(t *testing.T) net.PacketConn {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestReceiverSkipsCorruptedMagic(t *testing.T) {
	server := listenLoopback(t)
	sender := listenLoopback(t)

	valid, err := EncodeDatagram(KindFrameData, 9, []byte("payload"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	corrupted := bytes.Clone(valid)
	corrupted[1] = 'X'

	if _, err := sender.WriteTo(corrupted, server.LocalAddr()); err != nil {
		t.Fatalf("write corrupted: %v", err)
	}
	if _, err := sender.WriteTo(valid, server.LocalAddr()); err != nil {
		t.Fatalf("write valid: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	r := NewUDPReceiver(server)
	d, from, err := r.Next(ctx)
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if d.Kind != KindFrameData || d.RoomID != 9 || string(d.Body) != "payload" {
		t.Errorf("expected the valid datagram unmodified, got %+v", d)
	}
	if from.String() != sender.LocalAddr().String() {
		t.Errorf("expected sender %v, got %v", sender.LocalAddr(), from)
	}
	if r.Skipped() != 1 {
		t.Errorf("expected 1 skipped datagram, got %d", r.Skipped())
	}
}

func TestReceiverStopsOnContext(t *testing.T) {
	r := NewUDPReceiver(listenLoopback(t))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, _, err := r.Next(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
