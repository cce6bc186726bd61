package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/client"
	"github.com/dweiss/jdyna-sub000/internal/config"
	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
	"golang.org/x/term"
)

func main() {
	serverAddr := flag.String("server", config.GetEnv("DYNA_SERVER", ""), "Control address host:port (empty discovers a server)")
	feedbackPort := flag.Int("feedback-port", config.GetEnvInt("DYNA_FEEDBACK_PORT", 5101), "Server feedback port when -server is given")
	probe := flag.String("discover", config.GetEnv("DYNA_DISCOVER", "255.255.255.255:5103"), "Discovery probe address")
	timeout := flag.Duration("timeout", config.GetEnvDuration("DYNA_DISCOVER_TIMEOUT", 2*time.Second), "Discovery timeout")
	listenAddr := flag.String("listen", config.GetEnv("DYNA_LISTEN", ":5102"), "Local UDP address frames arrive on")
	roomName := flag.String("create", "", "Create a room with this name")
	boardName := flag.String("board", "classic", "Board for a created room")
	roomID := flag.Int("join", 0, "Join the room with this id")
	playerName := flag.String("name", config.GetEnv("USER", "player"), "Player name")
	list := flag.Bool("list", false, "List rooms and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	desc, err := locate(ctx, *serverAddr, *feedbackPort, *probe, *timeout)
	if err != nil {
		log.Fatalf("locate server: %v", err)
	}
	conn, err := client.Dial(ctx, desc.ControlAddr())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer conn.Close()

	if *list {
		rooms, err := conn.ListRooms()
		if err != nil {
			log.Fatalf("list rooms: %v", err)
		}
		for _, r := range rooms {
			fmt.Printf("%4d  %-24s %-10s players=%d frame=%d\n", r.ID, r.Name, r.BoardName, r.Players, r.Frame)
		}
		return
	}

	id := *roomID
	if *roomName != "" {
		g, err := conn.CreateRoom(*roomName, *boardName)
		if err != nil {
			log.Fatalf("create room: %v", err)
		}
		log.Printf("created room %d (%s) on %s", g.RoomID, g.RoomName, g.BoardName)
		id = g.RoomID
	}
	handle, err := conn.JoinRoom(id, *playerName)
	if err != nil {
		log.Fatalf("join room: %v", err)
	}
	log.Printf("joined room %d as player %d", handle.RoomID, handle.PlayerID)

	if err := play(ctx, desc, handle, *listenAddr); err != nil {
		log.Fatalf("%v", err)
	}
}

func locate(ctx context.Context, addr string, feedbackPort int, probe string, timeout time.Duration) (protocol.ServerDescriptor, error) {
	if addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return protocol.ServerDescriptor{}, err
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return protocol.ServerDescriptor{}, err
		}
		return protocol.ServerDescriptor{Address: host, ControlPort: p, FeedbackPort: feedbackPort}, nil
	}
	found, err := client.Discover(ctx, probe, timeout, 1)
	if err != nil {
		return protocol.ServerDescriptor{}, err
	}
	if len(found) == 0 {
		return protocol.ServerDescriptor{}, fmt.Errorf("no server answered %s within %v", probe, timeout)
	}
	log.Printf("found server %s at %s", found[0].Name, found[0].ControlAddr())
	return found[0], nil
}

func play(ctx context.Context, desc protocol.ServerDescriptor, handle protocol.PlayerHandle, listenAddr string) error {
	sock, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listenAddr, err)
	}
	defer sock.Close()
	feedbackAddr, err := net.ResolveUDPAddr("udp", desc.FeedbackAddr())
	if err != nil {
		return err
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		old, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("raw terminal: %w", err)
		}
		defer term.Restore(fd, old)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	keys := client.NewKeyboard(client.DefaultKeyHold)
	go keys.Run(ctx, os.Stdin)
	go func() {
		select {
		case <-keys.Quit():
			cancel()
		case <-ctx.Done():
		}
	}()

	var bus game.Bus
	async := client.NewAsyncController(keys, game.ListenerFunc(bus.Dispatch))
	feedback := client.NewFeedbackSender(sock, feedbackAddr, handle, async)
	view := newStatusView(os.Stdout, handle.PlayerID)
	bus.Subscribe(view)
	async.Sample(feedback)

	if err := feedback.Send(protocol.NewControllerState(handle.RoomID, handle.PlayerID, 0, false, false, 0)); err != nil {
		return fmt.Errorf("feedback: %w", err)
	}
	go async.Run(ctx)

	err = client.NewFrameReceiver(sock, handle.RoomID, async).Run(ctx)
	if ctx.Err() == nil {
		select {
		case <-view.Over():
		case <-time.After(time.Second):
		}
	}
	st := async.Stats()
	log.Printf("left room %d: %d coalesced wake-ups, %d skipped batches\r", handle.RoomID, st.Coalesced, st.SkippedBatches)
	return err
}
