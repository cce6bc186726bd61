package client

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/board"
	"github.com/dweiss/jdyna-sub000/internal/game"
	"github.com/dweiss/jdyna-sub000/internal/game/mocks"
	"github.com/dweiss/jdyna-sub000/internal/protocol"
	"go.uber.org/mock/gomock"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(prev) })
	return &buf
}

func runAsync(t *testing.T, a *AsyncController) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestAsyncCoalescesQueuedBatches(t *testing.T) {
	logs := captureLog(t)
	ctrl := gomock.NewController(t)
	pad := mocks.NewMockController(ctrl)
	view := mocks.NewMockListener(ctrl)

	over := game.GameOverEvent{Result: game.GameResult{Frames: 3}}
	// the controller is read only after the view saw the newest frame
	gomock.InOrder(
		view.EXPECT().OnFrame(3, []game.Event{over}),
		pad.EXPECT().Direction().Return(board.Down, true),
		pad.EXPECT().DropsBomb().Return(true),
	)

	a := NewAsyncController(pad, view)
	sampled := make(chan int, 1)
	a.Sample(game.ListenerFunc(func(frame int, _ []game.Event) { sampled <- frame }))
	a.OnFrame(1, []game.Event{game.GameStateEvent{Width: 1}, game.SoundEffectEvent{Effect: game.SoundBomb, Count: 1}})
	a.OnFrame(2, []game.Event{game.GameStateEvent{Width: 2}})
	a.OnFrame(3, []game.Event{over})
	runAsync(t, a)

	select {
	case frame := <-sampled:
		if frame != 3 {
			t.Errorf("expected the sampler to see frame 3, got %d", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("wake-up never finished")
	}

	st := a.Stats()
	if st.Coalesced != 1 || st.SkippedBatches != 2 || st.DroppedEvents != 3 {
		t.Errorf("expected 1 coalesced wake-up, 2 skipped batches, 3 dropped events, got %+v", st)
	}
	if !strings.Contains(logs.String(), "skipped 2 batches") {
		t.Errorf("expected a coalescing diagnostic, got %q", logs.String())
	}

	snap, ok := a.Poll()
	if !ok || snap != (ControllerState{Direction: board.Down, Moving: true, DropsBomb: true}) {
		t.Errorf("unexpected snapshot %+v %v", snap, ok)
	}
	if _, ok := a.Poll(); ok {
		t.Error("snapshot should be read once")
	}
}

func TestAsyncKeepsEdgeEventsOfSkippedBatches(t *testing.T) {
	ctrl := gomock.NewController(t)
	view := mocks.NewMockListener(ctrl)

	start := game.GameStartEvent{BoardName: "duel"}
	state := game.GameStateEvent{Width: 9}
	done := make(chan struct{})
	gomock.InOrder(
		view.EXPECT().OnFrame(0, []game.Event{start}),
		view.EXPECT().OnFrame(1, []game.Event{state}).Do(func(int, []game.Event) { close(done) }),
	)

	a := NewAsyncController(nil, view)
	a.OnFrame(0, []game.Event{start, state})
	a.OnFrame(1, []game.Event{state})
	runAsync(t, a)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batches were never forwarded")
	}
	if _, ok := a.Poll(); ok {
		t.Error("no wrapped controller means no snapshot")
	}
}

func TestAsyncSingleBatchPassesThrough(t *testing.T) {
	got := make(chan []game.Event, 1)
	a := NewAsyncController(nil, game.ListenerFunc(func(_ int, events []game.Event) { got <- events }))
	runAsync(t, a)

	a.OnFrame(5, []game.Event{game.GameStateEvent{}, game.SoundEffectEvent{}})
	select {
	case events := <-got:
		if len(events) != 2 {
			t.Errorf("expected both events of a lone batch, got %d", len(events))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("batch was never forwarded")
	}
	if st := a.Stats(); st.Coalesced != 0 || st.SkippedBatches != 0 {
		t.Errorf("expected no coalescing, got %+v", st)
	}
}

func TestAsyncControllerInterface(t *testing.T) {
	a := NewAsyncController(nil, nil)
	a.snapshot.Store(&ControllerState{Direction: board.Left, Moving: true, DropsBomb: true})

	var c game.Controller = a
	if d, ok := c.Direction(); !ok || d != board.Left {
		t.Errorf("expected Left, got %v %v", d, ok)
	}
	if !c.DropsBomb() {
		t.Error("expected drop from the consumed snapshot")
	}
	if _, ok := c.Direction(); ok {
		t.Error("consumed snapshot should not be returned again")
	}
	if c.DropsBomb() {
		t.Error("drop flag should follow the latest Direction call")
	}
}

func TestAsyncFeedbackKeepsHeldInputAcrossBatches(t *testing.T) {
	server := udpSocket(t)
	pad := &stubController{dir: board.Right, moving: true, drop: true}

	var bus game.Bus
	views := make(chan int, 2)
	bus.Subscribe(game.ListenerFunc(func(frame int, _ []game.Event) { views <- frame }))

	a := NewAsyncController(pad, game.ListenerFunc(bus.Dispatch))
	feedback := NewFeedbackSender(udpSocket(t), server.LocalAddr(), protocol.PlayerHandle{RoomID: 2, PlayerID: 1}, a)
	sampled := make(chan struct{})
	a.Sample(game.ListenerFunc(func(frame int, events []game.Event) {
		feedback.OnFrame(frame, events)
		close(sampled)
	}))

	status := game.GameStatusEvent{Players: []game.PlayerStatus{{ID: 1, Name: "ann", Lives: 3}}}
	a.OnFrame(7, []game.Event{status})
	a.OnFrame(8, []game.Event{status})
	runAsync(t, a)

	select {
	case <-sampled:
	case <-time.After(2 * time.Second):
		t.Fatal("wake-up never finished")
	}
	if len(views) != 2 {
		t.Errorf("expected both status batches on the bus, got %d", len(views))
	}
	if feedback.Sent() != 1 {
		t.Fatalf("expected one update per wake-up, got %d", feedback.Sent())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	d, _, err := protocol.NewUDPReceiver(server).Next(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	got, err := protocol.UnmarshalControllerState(d.Body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := protocol.NewControllerState(2, 1, board.Right, true, true, DefaultValidFrames)
	if got != want {
		t.Errorf("expected held input %+v, got %+v", want, got)
	}
}
