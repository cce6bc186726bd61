package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
	"github.com/gorilla/websocket"
)

// startTestServer runs a server on loopback ports and returns it together
// with a UDP socket registered as its broadcast target
func startTestServer(t *testing.T) (*Server, net.PacketConn) {
	t.Helper()
	frames := udpSocket(t)

	cfg := DefaultConfig()
	cfg.ControlAddr = "127.0.0.1:0"
	cfg.FeedbackAddr = "127.0.0.1:0"
	cfg.BroadcastAddr = "127.0.0.1:0"
	cfg.BroadcastTargets = []string{frames.LocalAddr().String()}
	cfg.DiscoveryAddr = "127.0.0.1:0"
	cfg.SpectatorAddr = ""
	cfg.AdvertiseHost = "127.0.0.1"
	cfg.Game = testGameConfig(game.Deathmatch)

	srv := New(cfg)
	if err := srv.Listen(); err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("run: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})
	return srv, frames
}

func dialControl(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.ControlAddr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	t.Cleanup(func() { conn.Close() })
	return conn
}

func request(t *testing.T, conn net.Conn, msg protocol.Message) protocol.Message {
	t.Helper()
	reply, err := protocol.Request(conn, msg)
	if err != nil {
		t.Fatalf("request %v: %v", msg.Type(), err)
	}
	return reply
}

func TestJoinUnknownRoomKeepsConnectionOpen(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dialControl(t, srv)

	reply := request(t, conn, protocol.JoinRoomRequest{RoomID: 99, PlayerName: "ann"})
	f, ok := reply.(protocol.FailureResponse)
	if !ok {
		t.Fatalf("expected FailureResponse, got %T", reply)
	}
	if !strings.Contains(f.Message, "unknown room") {
		t.Errorf("unexpected failure message %q", f.Message)
	}

	reply = request(t, conn, protocol.CreateRoomRequest{RoomName: "alpha", BoardName: "duel"})
	created, ok := reply.(protocol.CreateRoomResponse)
	if !ok {
		t.Fatalf("expected CreateRoomResponse on the same connection, got %T", reply)
	}
	if created.Handle.RoomName != "alpha" || created.Handle.BoardInfo.Width != 9 {
		t.Errorf("unexpected handle %+v", created.Handle)
	}
}

func TestCreateJoinAndList(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dialControl(t, srv)

	created := request(t, conn, protocol.CreateRoomRequest{RoomName: "alpha", BoardName: "classic"}).(protocol.CreateRoomResponse)
	if _, ok := request(t, conn, protocol.CreateRoomRequest{RoomName: "alpha", BoardName: "classic"}).(protocol.FailureResponse); !ok {
		t.Error("expected failure for a duplicate room name")
	}
	if _, ok := request(t, conn, protocol.CreateRoomRequest{RoomName: "beta", BoardName: "missing"}).(protocol.FailureResponse); !ok {
		t.Error("expected failure for an unknown board")
	}

	other := dialControl(t, srv)
	joined := request(t, other, protocol.JoinRoomRequest{RoomID: created.Handle.RoomID}).(protocol.JoinRoomResponse)
	if joined.Handle.PlayerName != defaultPlayerName || joined.Handle.RoomID != created.Handle.RoomID {
		t.Errorf("unexpected player handle %+v", joined.Handle)
	}

	list := request(t, conn, protocol.ListRoomsRequest{}).(protocol.ListRoomsResponse)
	if len(list.Rooms) != 1 || list.Rooms[0].Players != 1 {
		t.Errorf("expected one room with one player, got %+v", list.Rooms)
	}
}

func TestUnexpectedMessageClosesConnection(t *testing.T) {
	srv, _ := startTestServer(t)
	conn := dialControl(t, srv)

	if err := protocol.Send(conn, protocol.FailureResponse{Message: "not a request"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := protocol.Receive(conn); err != io.EOF {
		t.Errorf("expected the server to close the connection, got %v", err)
	}
}

func TestFramesBroadcastWithRoomTag(t *testing.T) {
	srv, frames := startTestServer(t)
	room, err := srv.Rooms().Create("alpha", "duel")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, _, err := protocol.NewUDPReceiver(frames).Next(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if d.Kind != protocol.KindFrameData || d.RoomID != uint32(room.ID) {
		t.Fatalf("expected frame data for room %d, got %v/%d", room.ID, d.Kind, d.RoomID)
	}
	fd, err := protocol.DecodeFrameData(d.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fd.Frame != 0 || fd.Events[0].Kind() != game.KindGameStart {
		t.Errorf("expected the first datagram to start the game, got frame %d %v", fd.Frame, fd.Events[0].Kind())
	}
}

func TestFeedbackUpdatesRemoteController(t *testing.T) {
	srv, _ := startTestServer(t)
	room, _ := srv.Rooms().Create("alpha", "open")
	h, err := room.Join("ann")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	ctrl, _ := room.Controller(h.PlayerID)

	player := udpSocket(t)
	send := func(u protocol.UpdateControllerState, roomTag uint32) {
		body, _ := u.Marshal()
		if err := protocol.SendDatagram(player, srv.FeedbackAddr(), protocol.KindControllerState, roomTag, body); err != nil {
			t.Fatalf("send feedback: %v", err)
		}
	}

	// stray packets first: unknown room, unknown player
	send(protocol.NewControllerState(99, 0, board.Up, true, false, 1000), 99)
	send(protocol.NewControllerState(room.ID, 5, board.Up, true, false, 1000), uint32(room.ID))
	send(protocol.NewControllerState(room.ID, h.PlayerID, board.Right, true, false, 1000), uint32(room.ID))

	deadline := time.Now().Add(2 * time.Second)
	for {
		if d, ok := ctrl.Direction(); ok && d == board.Right {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("feedback never reached the remote controller")
		}
		time.Sleep(5 * time.Millisecond)
	}

	learned := false
	for _, a := range room.broadcaster.Targets() {
		if a.String() == player.LocalAddr().String() {
			learned = true
		}
	}
	if !learned {
		t.Error("feedback sender should become a broadcast target of its room")
	}
}

func TestDiscoveryReply(t *testing.T) {
	srv, _ := startTestServer(t)
	probe := udpSocket(t)
	if err := protocol.SendDatagram(probe, srv.DiscoveryAddr(), protocol.KindDiscoveryProbe, 0, nil); err != nil {
		t.Fatalf("probe: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, _, err := protocol.NewUDPReceiver(probe).Next(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if d.Kind != protocol.KindDiscoveryReply {
		t.Fatalf("expected discovery reply, got %v", d.Kind)
	}
	desc, err := protocol.UnmarshalServerDescriptor(d.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if desc.ControlAddr() != srv.ControlAddr().String() {
		t.Errorf("expected control address %v, got %v", srv.ControlAddr(), desc.ControlAddr())
	}
	if desc.FeedbackPort != portOf(srv.FeedbackAddr()) || desc.BroadcastPort == 0 {
		t.Errorf("unexpected descriptor %+v", desc)
	}
}

func TestSpectatorStream(t *testing.T) {
	srv := New(Config{Game: testGameConfig(game.Deathmatch), MaxConnsPerIP: 5, MaxTotalConns: 10})
	t.Cleanup(srv.Close)
	room, err := srv.Rooms().Create("alpha", "duel")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatalf("get rooms: %v", err)
	}
	var rooms []protocol.RoomInfo
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	resp.Body.Close()
	if len(rooms) != 1 || rooms[0].Name != "alpha" {
		t.Errorf("unexpected room list %+v", rooms)
	}

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	if _, resp, err := websocket.DefaultDialer.Dial(wsURL+"?room=99", nil); err == nil {
		t.Error("expected unknown room to be refused")
	} else if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown room, got %v", resp)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?room=1", nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws: %v", err)
	}
	if kind != websocket.BinaryMessage {
		t.Errorf("expected binary message, got %d", kind)
	}
	fd, err := protocol.DecodeFrameData(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fd.Events) == 0 {
		t.Error("expected a non-empty frame")
	}

	room.Stop()
	sawGameOver := false
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				t.Errorf("expected a normal close after game over, got %v", err)
			}
			break
		}
		fd, err := protocol.DecodeFrameData(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		for _, e := range fd.Events {
			if e.Kind() == game.KindGameOver {
				sawGameOver = true
			}
		}
	}
	if !sawGameOver {
		t.Error("expected the game-over batch before the close")
	}
}
