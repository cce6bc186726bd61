package game

import (
	"context"
	"testing"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

var arena = []string{
	"#######",
	"#P...P#",
	"#.#.#.#",
	"#P...P#",
	"#######",
}

func TestFirstFrameBatch(t *testing.T) {
	g, _ := newTestGame(t, testConfig(), arena, "a", "b")
	rec := &recorder{}
	g.Subscribe(rec)

	g.Step()

	if len(rec.batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(rec.batches))
	}
	kinds := rec.kinds(0)
	want := []EventKind{KindGameStart, KindGameStatus, KindGameState}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event %d: expected %v, got %v", i, want[i], kinds[i])
		}
	}
	st := rec.batches[0][2].(GameStateEvent)
	if len(st.Players) != 2 || st.Width != 7 || st.Height != 5 {
		t.Errorf("unexpected snapshot %dx%d with %d players", st.Width, st.Height, len(st.Players))
	}
	if g.Frame() != 1 {
		t.Errorf("expected frame 1, got %d", g.Frame())
	}
}

func TestPlayersUseSpawnPoints(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b", "c")
	want := []board.Point{board.Pt(1, 1), board.Pt(5, 1), board.Pt(1, 3)}
	for i, p := range ps {
		if got := g.info.PixelToGrid(p.Location); got != want[i] {
			t.Errorf("player %d: expected spawn %v, got %v", i, want[i], got)
		}
	}
}

func TestMaxPlayers(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPlayers = 1
	g, _ := newTestGame(t, cfg, arena, "a")
	if _, err := g.AddPlayer("b", "", nil); err != ErrGameFull {
		t.Errorf("expected ErrGameFull, got %v", err)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("expected 1 player, got %d", g.PlayerCount())
	}
}

func TestBombDropDelay(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	p := ps[0]
	p.Bombs = 3
	p.controller = &stubController{drop: true}

	g.Step()
	g.Step()

	bombs := 0
	g.board.Each(func(_ board.Point, c *board.Cell) {
		if c.Type == board.Bomb {
			bombs++
		}
	})
	if bombs != 1 {
		t.Errorf("expected exactly one bomb, got %d", bombs)
	}
	if p.Bombs != 2 {
		t.Errorf("expected 2 bombs left, got %d", p.Bombs)
	}

	// clear the cell and retry inside and after the delay window
	at := g.info.PixelToGrid(p.Location)
	g.board.Set(at, board.NewCell(board.Empty))
	g.frame = p.LastBombFrame + g.cfg.BombDropDelay - 1
	if g.dropBomb(p) {
		t.Error("expected drop refused inside the delay window")
	}
	g.frame = p.LastBombFrame + g.cfg.BombDropDelay
	if !g.dropBomb(p) {
		t.Error("expected drop allowed once the delay elapsed")
	}
}

func TestNoBombsEffect(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	p := ps[0]
	p.Timers.NoBombs = 10
	if g.dropBomb(p) {
		t.Error("expected no-bombs effect to prevent dropping")
	}
}

func TestExplosionKillCredits(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	a, b := ps[0], ps[1]
	placeAt(g, a, board.Pt(3, 1))
	placeAt(g, b, board.Pt(4, 1))
	g.board.Set(board.Pt(3, 1), board.NewBombCell(1, 2, a.ID))

	g.Step()

	if !a.IsDead() || !b.IsDead() {
		t.Fatal("expected both players caught in the blast")
	}
	if a.Kills != 1 {
		t.Errorf("expected a credited with 1 kill (not itself), got %d", a.Kills)
	}
	if b.Kills != 0 {
		t.Errorf("expected b without kills, got %d", b.Kills)
	}
}

func TestImmortalPlayerSurvivesFlames(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	a := ps[0]
	a.Timers.Immortality = 100
	g.board.Set(board.Pt(1, 1), board.NewExplosionCell(board.BoomX, ps[1].ID))

	g.Step()
	if a.IsDead() {
		t.Error("immortal player should survive")
	}
}

func TestStoneDeadNeverResurrects(t *testing.T) {
	cfg := testConfig()
	cfg.Lives = 1
	g, ps := newTestGame(t, cfg, arena, "a", "b", "c")
	victim := ps[0]
	g.board.Set(board.Pt(1, 1), board.NewExplosionCell(board.BoomX, ps[1].ID))

	for i := 0; i < cfg.DyingFrames+cfg.ResurrectionFrames+10; i++ {
		g.Step()
	}
	if !victim.IsStoneDead() {
		t.Fatal("expected victim stone dead")
	}
	if victim.State != Dead {
		t.Errorf("expected terminal dead state, got %v", victim.State)
	}
}

func TestResurrectionWithLivesLeft(t *testing.T) {
	cfg := testConfig()
	cfg.Lives = 2
	g, ps := newTestGame(t, cfg, arena, "a", "b")
	victim := ps[0]
	g.board.Set(board.Pt(1, 1), board.NewExplosionCell(board.BoomX, ps[1].ID))

	g.Step()
	if !victim.IsDead() {
		t.Fatal("expected victim dead")
	}
	for i := 0; i < cfg.ResurrectionFrames; i++ {
		g.Step()
	}
	if victim.IsDead() {
		t.Fatal("expected victim resurrected")
	}
	if !victim.IsImmortal(g.frame) {
		t.Error("expected immortality after resurrection")
	}
	found := false
	at := g.info.PixelToGrid(victim.Location)
	for _, sp := range g.board.SpawnPoints {
		if sp == at {
			found = true
		}
	}
	if !found {
		t.Errorf("expected resurrection at a spawn point, got %v", at)
	}
}

func TestBonusPickup(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	p := ps[0]
	bombs := p.Bombs
	g.board.Set(board.Pt(1, 1), board.NewCell(board.BonusBomb))

	events := g.Step()

	if p.Bombs != bombs+1 {
		t.Errorf("expected %d bombs, got %d", bombs+1, p.Bombs)
	}
	if g.board.Type(board.Pt(1, 1)) != board.Empty {
		t.Error("expected bonus cell cleared")
	}
	found := false
	for _, e := range events {
		if s, ok := e.(SoundEffectEvent); ok && s.Effect == SoundBonus {
			found = true
		}
	}
	if !found {
		t.Error("expected bonus sound")
	}
	if !hasKind(events, KindGameStatus) {
		t.Error("expected status event after pickup")
	}
}

func TestDiarrheaForcesDrop(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	ps[0].Timers.Diarrhea = 50

	g.Step()
	if g.board.Type(board.Pt(1, 1)) != board.Bomb {
		t.Error("expected forced bomb drop")
	}
}

func TestControllerReverse(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	p := ps[0]
	placeAt(g, p, board.Pt(3, 1))
	p.controller = &stubController{dir: board.Right, moving: true}
	p.Timers.Reverse = 50
	x := p.Location.X

	g.Step()
	if p.Location.X >= x {
		t.Errorf("expected reversed movement to the left, x went %d -> %d", x, p.Location.X)
	}
	if p.Facing != board.Left {
		t.Errorf("expected facing left, got %v", p.Facing)
	}
}

func TestExpiringCrateWalkingKills(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	p := ps[0]
	g.board.Set(board.Pt(1, 1), board.NewCell(board.Crate))
	p.Timers.CrateWalking = 1

	g.Step()
	if p.IsDead() {
		t.Fatal("player should survive while crate walking is active")
	}
	g.Step()
	if !p.IsDead() {
		t.Error("expected player inside a crate to die when crate walking expires")
	}
}

func TestUnknownDirectionPanics(t *testing.T) {
	g, ps := newTestGame(t, testConfig(), arena, "a", "b")
	ps[0].controller = &stubController{dir: board.Direction(9), moving: true}

	defer func() {
		if recover() == nil {
			t.Error("expected panic for unknown direction")
		}
	}()
	g.Step()
}

func TestGameOverAfterLinger(t *testing.T) {
	cfg := testConfig()
	cfg.LingerFrames = 3
	g, _ := newTestGame(t, cfg, arena, "solo")
	rec := &recorder{}
	g.Subscribe(rec)

	res := g.Run(context.Background())

	if res.Interrupted {
		t.Error("expected a regular game over")
	}
	if res.Frames != 4 {
		t.Errorf("expected 4 frames (detection + 3 linger), got %d", res.Frames)
	}
	last := rec.batches[len(rec.batches)-1]
	if len(last) != 1 || last[0].Kind() != KindGameOver {
		t.Errorf("expected final batch to be a single game over, got %v", rec.kinds(len(rec.batches)-1))
	}
	if again := g.Finish(true); again.Interrupted {
		t.Error("result must be produced exactly once")
	}
	if len(rec.batches) != 5 {
		t.Errorf("expected no extra dispatch, got %d batches", len(rec.batches))
	}
}

func TestRunInterrupted(t *testing.T) {
	cfg := testConfig()
	cfg.FrameRate = 200
	g, _ := newTestGame(t, cfg, arena, "a", "b")
	rec := &recorder{}
	g.Subscribe(rec)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := g.Run(ctx)

	if !res.Interrupted {
		t.Error("expected interrupted result")
	}
	if len(res.Players) != 2 {
		t.Errorf("expected 2 player statuses, got %d", len(res.Players))
	}
	last := rec.batches[len(rec.batches)-1]
	if last[0].Kind() != KindGameOver {
		t.Error("expected a game over batch even when interrupted")
	}
}

func TestDeathmatchNeverEnds(t *testing.T) {
	cfg := DefaultConfig(Deathmatch)
	cfg.FrameRate = 0
	cfg.Seed = 7
	g, _ := newTestGame(t, cfg, arena, "solo")
	for i := 0; i < 200; i++ {
		g.Step()
	}
	if g.Over() {
		t.Error("deathmatch should not end on its own")
	}
}

func TestLateJoinEntersNextFrame(t *testing.T) {
	cfg := DefaultConfig(Deathmatch)
	cfg.FrameRate = 0
	g, _ := newTestGame(t, cfg, arena, "a")
	g.Step()

	id, err := g.AddPlayer("late", "", nil)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	events := g.Step()
	if g.player(id) == nil {
		t.Fatal("late joiner missing")
	}
	if !hasKind(events, KindGameStatus) {
		t.Error("expected status event announcing the join")
	}
}

func TestListenerPanicIsolated(t *testing.T) {
	g, _ := newTestGame(t, testConfig(), arena, "a", "b")
	g.Subscribe(ListenerFunc(func(int, []Event) { panic("broken view") }))
	rec := &recorder{}
	g.Subscribe(rec)

	g.Step()
	if len(rec.batches) != 1 {
		t.Error("healthy listener should still receive the batch")
	}
}

func TestPeriodicBonusPlacement(t *testing.T) {
	cfg := testConfig()
	cfg.BonusPeriod = 2
	cfg.Bonuses = BonusTable{{board.BonusRange, 1}}
	g, _ := newTestGame(t, cfg, arena, "a", "b")

	for i := 0; i < 3; i++ {
		g.Step()
	}
	bonuses := 0
	g.board.Each(func(_ board.Point, c *board.Cell) {
		if c.Type == board.BonusRange {
			bonuses++
		}
	})
	if bonuses != 1 {
		t.Errorf("expected one bonus after frame 2, got %d", bonuses)
	}
}
