package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

// ErrGameFull is returned when a game already holds MaxPlayers players
var ErrGameFull = errors.New("game full")

// Game holds the state for one match. Everything except joining,
// subscribing and reading the frame counter must happen on the goroutine
// that calls Step or Run.
type Game struct {
	cfg      Config
	board    *board.Board
	info     board.BoardInfo
	bus      Bus
	rng      *rand.Rand
	maxRange int

	players []*Player
	byID    map[int]*Player

	pendingMu sync.Mutex
	pending   []*Player
	joined    atomic.Int32

	frame     int
	published atomic.Int64

	started       bool
	statusChanged bool
	sounds        map[SoundEffect]int
	overAt        int // frame game-over was detected, -1 before that
	linger        int
	result        *GameResult
}

// New creates a game on b. The game takes ownership of b.
func New(b *board.Board, cfg Config) *Game {
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	g := &Game{
		cfg:      cfg,
		board:    b,
		info:     board.NewBoardInfo(b, cfg.CellSize),
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		maxRange: max(b.Width, b.Height),
		byID:     make(map[int]*Player),
		sounds:   make(map[SoundEffect]int),
		overAt:   -1,
	}
	return g
}

// Info returns the board geometry
func (g *Game) Info() board.BoardInfo { return g.info }

// Config returns the game configuration
func (g *Game) Config() Config { return g.cfg }

// BoardName returns the name of the board the game runs on
func (g *Game) BoardName() string { return g.board.Name }

// Frame returns the number of completed frames. Safe to call from any
// goroutine.
func (g *Game) Frame() int { return int(g.published.Load()) }

// PlayerCount returns the number of players, including ones whose join
// has not been processed yet. Safe to call from any goroutine.
func (g *Game) PlayerCount() int { return int(g.joined.Load()) }

// Subscribe registers a listener for frame batches. Safe to call from any
// goroutine, also while the game is running.
func (g *Game) Subscribe(l Listener) (cancel func()) {
	return g.bus.Subscribe(l)
}

// AddPlayer queues a new player; it enters the board at the start of the
// next frame. Safe to call from any goroutine.
func (g *Game) AddPlayer(name, team string, ctrl Controller) (int, error) {
	n := int(g.joined.Add(1))
	if g.cfg.MaxPlayers > 0 && n > g.cfg.MaxPlayers {
		g.joined.Add(-1)
		return 0, ErrGameFull
	}
	id := n - 1
	p := NewPlayer(id, name, team, g.info.GridToPixel(g.spawnPoint(id)), g.cfg, ctrl)

	g.pendingMu.Lock()
	g.pending = append(g.pending, p)
	g.pendingMu.Unlock()
	return id, nil
}

func (g *Game) spawnPoint(id int) board.Point {
	sp := g.board.SpawnPoints
	if len(sp) == 0 {
		return board.Pt(1, 1)
	}
	return sp[id%len(sp)]
}

func (g *Game) drainJoins() {
	g.pendingMu.Lock()
	joins := g.pending
	g.pending = nil
	g.pendingMu.Unlock()

	for _, p := range joins {
		g.players = append(g.players, p)
		g.byID[p.ID] = p
		g.statusChanged = true
	}
}

func (g *Game) player(id int) *Player {
	return g.byID[id]
}

// Over reports whether the game has ended, linger frames included
func (g *Game) Over() bool {
	return g.overAt >= 0 && g.linger <= 0
}

// Step advances the simulation by one frame, dispatches the resulting batch
// and returns it.
func (g *Game) Step() []Event {
	if g.result != nil {
		return nil
	}
	g.drainJoins()

	var events []Event
	if !g.started {
		g.started = true
		events = append(events, GameStartEvent{
			BoardName: g.board.Name,
			BoardInfo: g.info,
			Players:   g.statuses(),
		})
	}

	g.animateCells()
	if blasts := g.detonate(); len(blasts) > 0 {
		events = append(events, ExplosionEvent{Blasts: blasts})
	}
	g.updatePlayers()
	g.resurrect()
	g.placeItems()

	events = g.appendSounds(events)
	if g.statusChanged || (g.cfg.StatusPeriod > 0 && g.frame%g.cfg.StatusPeriod == 0) {
		events = append(events, GameStatusEvent{Players: g.statuses()})
		g.statusChanged = false
	}
	events = append(events, g.snapshot())

	g.bus.Dispatch(g.frame, events)

	g.evaluateGameOver()
	g.frame++
	g.published.Store(int64(g.frame))
	return events
}

// Run steps the game at the configured frame rate until it is over or ctx
// is cancelled. Either way a final GameOverEvent is dispatched and the
// result returned; cancellation only sets Interrupted.
func (g *Game) Run(ctx context.Context) GameResult {
	var tick <-chan time.Time
	if g.cfg.FrameRate > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(g.cfg.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	interrupted := false
loop:
	for {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		g.Step()
		if g.Over() {
			break
		}
		if tick == nil {
			continue
		}
		select {
		case <-tick:
		case <-ctx.Done():
			interrupted = true
			break loop
		}
	}
	return g.Finish(interrupted)
}

// Finish ends the game, dispatches the GameOverEvent and returns the
// result. Later calls return the same result without dispatching again.
func (g *Game) Finish(interrupted bool) GameResult {
	if g.result != nil {
		return *g.result
	}
	res := GameResult{Players: g.statuses(), Interrupted: interrupted, Frames: g.frame}
	g.result = &res
	g.bus.Dispatch(g.frame, []Event{GameOverEvent{Result: res}})
	return res
}

// animateCells advances animation counters and bomb fuses and clears
// cells whose animation has run out
func (g *Game) animateCells() {
	g.board.Each(func(_ board.Point, c *board.Cell) {
		c.Counter++
		if c.Type == board.Bomb {
			if c.Bomb.Fuse > 0 {
				c.Bomb.Fuse--
			}
			return
		}
		if limit := c.Type.RemovalThreshold(); limit > 0 && c.Counter >= limit {
			*c = board.NewCell(board.Empty)
		}
	})
}

// detonate explodes every bomb whose fuse ran out, then removes the crates
// that were hit and hands the bombs back to their owners
func (g *Game) detonate() []Blast {
	var due []board.Point
	g.board.Each(func(q board.Point, c *board.Cell) {
		if c.Type == board.Bomb && c.Bomb.Fuse <= 0 {
			due = append(due, q)
		}
	})
	if len(due) == 0 {
		return nil
	}

	var out Detonations
	for _, q := range due {
		Explode(g.board, q, g.cfg.Explosions, g.cfg.FuseFloor, &out)
	}
	for _, q := range out.Crates {
		g.board.Set(q, board.NewCell(board.CrateDying))
	}
	g.refundBombs(out.Bombs)
	g.sounds[SoundBomb] += len(out.Bombs)
	g.statusChanged = true
	return out.Bombs
}

func (g *Game) direction(p *Player) (board.Direction, bool) {
	if p.controller == nil {
		return 0, false
	}
	d, ok := p.controller.Direction()
	if !ok {
		return 0, false
	}
	if !d.Valid() {
		panic(fmt.Sprintf("game: player %d controller returned direction %d", p.ID, d))
	}
	if g.frame < p.Timers.Reverse {
		d = d.Opposite()
	}
	return d, true
}

func (g *Game) updatePlayers() {
	for _, p := range g.players {
		if p.IsDead() {
			p.animate(0, false, g.cfg)
			continue
		}

		dir, moving := g.direction(p)
		p.animate(dir, moving, g.cfg)
		if moving {
			Move(g.board, g.info, p, dir, g.frame, g.cfg.EasingMargin)
		}
		if p.controller != nil && p.controller.DropsBomb() {
			g.dropBomb(p)
		}

		g.collide(p)
		if p.IsDead() {
			continue
		}

		if g.frame < p.Timers.Diarrhea {
			g.dropBomb(p)
		}
		if expires(p.Timers.CrateWalking, g.frame) || expires(p.Timers.BombWalking, g.frame) {
			under := g.board.Type(g.info.PixelToGrid(p.Location))
			if !p.CanWalkOn(under, g.frame) && !p.IsImmortal(g.frame) {
				g.killPlayer(p, nil)
			}
		}
	}
}

// expires reports whether a granted effect ends exactly at frame
func expires(until, frame int) bool {
	return until > 0 && until == frame
}

// dropBomb plants a bomb under p if the cell is empty, p has a bomb left,
// the drop delay has passed and no no-bombs effect is active
func (g *Game) dropBomb(p *Player) bool {
	at := g.info.PixelToGrid(p.Location)
	switch {
	case g.board.Type(at) != board.Empty:
		return false
	case p.Bombs <= 0:
		return false
	case g.frame-p.LastBombFrame < g.cfg.BombDropDelay:
		return false
	case g.frame < p.Timers.NoBombs:
		return false
	}
	g.board.Set(at, board.NewBombCell(g.cfg.FuseFrames, p.BombRange(g.frame, g.maxRange), p.ID))
	p.Bombs--
	p.LastBombFrame = g.frame
	return true
}

func (g *Game) collide(p *Player) {
	c := g.board.Cell(g.info.PixelToGrid(p.Location))
	switch {
	case c.Type.IsLethal():
		if !p.IsImmortal(g.frame) {
			g.killPlayer(p, c.Flame.OwnerIDs())
		}
	case c.Type.IsBonus():
		p.ApplyBonus(g.resolveSurprise(c.Type), g.frame, g.cfg)
		*c = board.NewCell(board.Empty)
		g.sounds[SoundBonus]++
		g.statusChanged = true
	}
}

func (g *Game) resurrect() {
	for _, p := range g.players {
		if p.State != Dead || p.IsStoneDead() {
			continue
		}
		if g.frame-p.DeathFrame < g.cfg.ResurrectionFrames {
			continue
		}
		at := g.spawnPoint(p.ID)
		if sp := g.board.SpawnPoints; len(sp) > 0 {
			at = sp[g.rng.IntN(len(sp))]
		}
		p.Resurrect(g.info.GridToPixel(at), g.frame, g.cfg)
		g.statusChanged = true
	}
}

func (g *Game) evaluateGameOver() {
	if g.overAt >= 0 {
		if g.linger > 0 {
			g.linger--
		}
		return
	}
	if g.cfg.endless() {
		return
	}
	alive := 0
	for _, p := range g.players {
		if !p.IsStoneDead() {
			alive++
		}
	}
	if alive < 2 {
		g.overAt = g.frame
		g.linger = g.cfg.LingerFrames
	}
}

func (g *Game) appendSounds(events []Event) []Event {
	for s := SoundBomb; s <= SoundDying; s++ {
		if n := g.sounds[s]; n > 0 {
			events = append(events, SoundEffectEvent{Effect: s, Count: n})
		}
	}
	clear(g.sounds)
	return events
}

func (g *Game) statuses() []PlayerStatus {
	out := make([]PlayerStatus, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, p.Status(g.frame))
	}
	return out
}

func (g *Game) snapshot() GameStateEvent {
	sprites := make([]PlayerSprite, 0, len(g.players))
	for _, p := range g.players {
		sprites = append(sprites, p.Sprite(g.frame))
	}
	return GameStateEvent{
		Width:   g.board.Width,
		Height:  g.board.Height,
		Cells:   g.board.Types(),
		Players: sprites,
	}
}
