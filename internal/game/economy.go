package game

import (
	"math/rand/v2"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

// BonusWeight is one entry of a weighted bonus table
type BonusWeight struct {
	Type   board.CellType
	Weight int
}

// BonusTable is a weighted list of bonus types to draw from
type BonusTable []BonusWeight

// ClassicBonuses enables every bonus, nasty ones included
var ClassicBonuses = BonusTable{
	{board.BonusBomb, 10},
	{board.BonusRange, 10},
	{board.BonusMaxRange, 2},
	{board.BonusImmortality, 2},
	{board.BonusSpeedUp, 4},
	{board.BonusSlowDown, 3},
	{board.BonusCrateWalking, 3},
	{board.BonusBombWalking, 3},
	{board.BonusDiarrhea, 2},
	{board.BonusNoBombs, 2},
	{board.BonusControllerReverse, 2},
	{board.BonusSurprise, 2},
}

// FriendlyBonuses leaves out every bonus that harms its collector
var FriendlyBonuses = BonusTable{
	{board.BonusBomb, 10},
	{board.BonusRange, 10},
	{board.BonusMaxRange, 2},
	{board.BonusImmortality, 2},
	{board.BonusSpeedUp, 4},
	{board.BonusCrateWalking, 3},
	{board.BonusBombWalking, 3},
}

// NoBonuses disables bonus placement
var NoBonuses = BonusTable{}

// BonusPreset resolves a bonus table by name
func BonusPreset(name string) (BonusTable, bool) {
	switch name {
	case "classic", "":
		return ClassicBonuses, true
	case "friendly":
		return FriendlyBonuses, true
	case "none":
		return NoBonuses, true
	}
	return nil, false
}

// Pick draws a bonus type proportionally to its weight
func (t BonusTable) Pick(rng *rand.Rand) (board.CellType, bool) {
	total := 0
	for _, w := range t {
		if w.Weight > 0 {
			total += w.Weight
		}
	}
	if total == 0 {
		return board.Empty, false
	}
	n := rng.IntN(total)
	for _, w := range t {
		if w.Weight <= 0 {
			continue
		}
		if n < w.Weight {
			return w.Type, true
		}
		n -= w.Weight
	}
	return board.Empty, false
}

// without returns a copy of t with every entry of type x removed
func (t BonusTable) without(x board.CellType) BonusTable {
	out := make(BonusTable, 0, len(t))
	for _, w := range t {
		if w.Type != x {
			out = append(out, w)
		}
	}
	return out
}

// pickEmptyCell chooses uniformly among empty cells not occupied by a live
// player. Crates additionally skip cells that would wall someone in.
func (g *Game) pickEmptyCell(forCrate bool) (board.Point, bool) {
	occupied := make(map[board.Point]bool, len(g.players))
	for _, p := range g.players {
		if !p.IsDead() {
			occupied[g.info.PixelToGrid(p.Location)] = true
		}
	}

	var candidates []board.Point
	g.board.Each(func(q board.Point, c *board.Cell) {
		if c.Type != board.Empty || occupied[q] {
			return
		}
		if forCrate && !g.safeForCrate(q) {
			return
		}
		candidates = append(candidates, q)
	})
	if len(candidates) == 0 {
		return board.Point{}, false
	}
	return candidates[g.rng.IntN(len(candidates))], true
}

// safeForCrate reports whether a crate at q leaves every live player and
// every spawn point a way out.
func (g *Game) safeForCrate(q board.Point) bool {
	for _, p := range g.players {
		if p.IsDead() {
			continue
		}
		if !escapable(g.board, g.info.PixelToGrid(p.Location), q) {
			return false
		}
	}
	for _, sp := range g.board.SpawnPoints {
		if !escapable(g.board, sp, q) {
			return false
		}
	}
	return true
}

// escapable reports whether someone at s could still leave its corridor if
// blocked became impassable. Along each axis at least one direction must
// reach a perpendicular exit before running into something impassable.
func escapable(b *board.Board, s, blocked board.Point) bool {
	if s == blocked {
		return false
	}
	passable := func(q board.Point) bool {
		return q != blocked && b.Type(q).IsWalkable()
	}
	open := func(d board.Direction) bool {
		a, c := d.Perpendicular()
		for k := 0; ; k++ {
			q := s.Step(d, k)
			if k > 0 && !passable(q) {
				return false
			}
			if passable(q.Step(a, 1)) || passable(q.Step(c, 1)) {
				return true
			}
		}
	}
	if !open(board.Left) && !open(board.Right) {
		return false
	}
	if !open(board.Up) && !open(board.Down) {
		return false
	}
	return true
}

// placeItems runs the periodic bonus and crate schedule
func (g *Game) placeItems() {
	if g.frame == 0 {
		return
	}
	if g.cfg.BonusPeriod > 0 && g.frame%g.cfg.BonusPeriod == 0 {
		if t, ok := g.cfg.Bonuses.Pick(g.rng); ok {
			if q, ok := g.pickEmptyCell(false); ok {
				g.board.Set(q, board.NewCell(t))
			}
		}
	}
	if g.cfg.CratePeriod > 0 && g.frame%g.cfg.CratePeriod == 0 {
		if q, ok := g.pickEmptyCell(true); ok {
			g.board.Set(q, board.NewCell(board.Crate))
		}
	}
}

// resolveSurprise turns a surprise bonus into a concrete one
func (g *Game) resolveSurprise(t board.CellType) board.CellType {
	if t != board.BonusSurprise {
		return t
	}
	if r, ok := ClassicBonuses.without(board.BonusSurprise).Pick(g.rng); ok {
		return r
	}
	return board.BonusBomb
}
