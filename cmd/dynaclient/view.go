package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/dweiss/jdyna-sub000/internal/game"
)

// statusView prints player status lines. Raw terminals need explicit
// carriage returns.
type statusView struct {
	w    io.Writer
	self int

	overOnce sync.Once
	over     chan struct{}
}

func newStatusView(w io.Writer, self int) *statusView {
	return &statusView{w: w, self: self, over: make(chan struct{})}
}

// Over is closed once the game-over batch was printed
func (v *statusView) Over() <-chan struct{} { return v.over }

func (v *statusView) OnFrame(frame int, events []game.Event) {
	for _, e := range events {
		switch e := e.(type) {
		case game.GameStartEvent:
			fmt.Fprintf(v.w, "board %s %dx%d, arrows/WASD move, space drops, q quits\r\n",
				e.BoardName, e.BoardInfo.Width, e.BoardInfo.Height)
		case game.GameStatusEvent:
			fmt.Fprintf(v.w, "frame %6d | %s\r\n", frame, v.line(e.Players))
		case game.GameOverEvent:
			if w, ok := e.Result.Winner(); ok {
				fmt.Fprintf(v.w, "game over after %d frames, %s wins\r\n", e.Result.Frames, w.Name)
			} else {
				fmt.Fprintf(v.w, "game over after %d frames\r\n", e.Result.Frames)
			}
			v.overOnce.Do(func() { close(v.over) })
		}
	}
}

func (v *statusView) line(players []game.PlayerStatus) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		mark := ""
		if p.ID == v.self {
			mark = "*"
		}
		state := fmt.Sprintf("lives %d", p.Lives)
		if p.StoneDead {
			state = "out"
		} else if p.Dead {
			state = "dead"
		}
		s := fmt.Sprintf("%s%s %s k%d d%d b%d r%d", mark, p.Name, state, p.Kills, p.Deaths, p.Bombs, p.Range)
		if len(p.Effects) > 0 {
			s += " [" + strings.Join(p.Effects, ",") + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " | ")
}
