package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dweiss/jdyna-sub000/internal/game"
)

func TestStatusViewLines(t *testing.T) {
	var buf bytes.Buffer
	v := newStatusView(&buf, 1)
	players := []game.PlayerStatus{
		{ID: 0, Name: "ann", Lives: 0, StoneDead: true},
		{ID: 1, Name: "bob", Lives: 2, Kills: 1, Bombs: 1, Range: 3, Effects: []string{"speed-up"}},
	}
	v.OnFrame(25, []game.Event{game.GameStatusEvent{Players: players}})
	v.OnFrame(30, []game.Event{game.GameOverEvent{Result: game.GameResult{Players: players, Frames: 30}}})

	out := buf.String()
	if !strings.Contains(out, "ann out") || !strings.Contains(out, "*bob lives 2 k1 d0 b1 r3 [speed-up]") {
		t.Errorf("unexpected status line %q", out)
	}
	if !strings.Contains(out, "bob wins") {
		t.Errorf("expected the winner, got %q", out)
	}
	select {
	case <-v.Over():
	default:
		t.Error("expected Over to be closed after game over")
	}
}
