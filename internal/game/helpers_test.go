package game

import (
	"testing"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

// stubController returns fixed input every frame
type stubController struct {
	dir    board.Direction
	moving bool
	drop   bool
}

func (s *stubController) Direction() (board.Direction, bool) { return s.dir, s.moving }
func (s *stubController) DropsBomb() bool                    { return s.drop }

// recorder keeps every batch it receives
type recorder struct {
	frames  []int
	batches [][]Event
}

func (r *recorder) OnFrame(frame int, events []Event) {
	r.frames = append(r.frames, frame)
	r.batches = append(r.batches, events)
}

func (r *recorder) kinds(i int) []EventKind {
	var out []EventKind
	for _, e := range r.batches[i] {
		out = append(out, e.Kind())
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig(LastManStanding)
	cfg.FrameRate = 0
	cfg.BonusPeriod = 0
	cfg.CratePeriod = 0
	cfg.Seed = 1
	return cfg
}

// newTestGame builds a game on the given rows and joins one player per
// name, processing the joins right away.
func newTestGame(t *testing.T, cfg Config, rows []string, names ...string) (*Game, []*Player) {
	t.Helper()
	b, err := board.Parse("test", rows)
	if err != nil {
		t.Fatalf("parse board: %v", err)
	}
	g := New(b, cfg)
	for _, name := range names {
		if _, err := g.AddPlayer(name, "", &stubController{}); err != nil {
			t.Fatalf("add player %s: %v", name, err)
		}
	}
	g.drainJoins()
	return g, g.players
}

// placeAt moves p to the center of grid cell q
func placeAt(g *Game, p *Player, q board.Point) {
	p.Location = g.info.GridToPixel(q)
}

func hasKind(events []Event, k EventKind) bool {
	for _, e := range events {
		if e.Kind() == k {
			return true
		}
	}
	return false
}
