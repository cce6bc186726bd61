package game

import (
	"fmt"

	"github.com/dweiss/jdyna-sub000/internal/board"
)

// overlap is indexed by (type - BoomX) and must stay symmetric
var overlap = [7][7]board.CellType{
	//            X            LR            TB            LX            RX            TX            BX
	/* X  */ {board.BoomX, board.BoomX, board.BoomX, board.BoomX, board.BoomX, board.BoomX, board.BoomX},
	/* LR */ {board.BoomX, board.BoomLR, board.BoomX, board.BoomLR, board.BoomLR, board.BoomX, board.BoomX},
	/* TB */ {board.BoomX, board.BoomX, board.BoomTB, board.BoomX, board.BoomX, board.BoomTB, board.BoomTB},
	/* LX */ {board.BoomX, board.BoomLR, board.BoomX, board.BoomLX, board.BoomLR, board.BoomX, board.BoomX},
	/* RX */ {board.BoomX, board.BoomLR, board.BoomX, board.BoomLR, board.BoomRX, board.BoomX, board.BoomX},
	/* TX */ {board.BoomX, board.BoomX, board.BoomTB, board.BoomX, board.BoomX, board.BoomTX, board.BoomTB},
	/* BX */ {board.BoomX, board.BoomX, board.BoomTB, board.BoomX, board.BoomX, board.BoomTB, board.BoomBX},
}

// MergeExplosion returns the flame type shown where flames a and b overlap
func MergeExplosion(a, b board.CellType) board.CellType {
	if !a.IsExplosion() || !b.IsExplosion() {
		panic(fmt.Sprintf("game: merge of non-explosion types %v and %v", a, b))
	}
	return overlap[a-board.BoomX][b-board.BoomX]
}

// flameType returns the flame written at distance i of a blast with range r
func flameType(d board.Direction, i, r int) board.CellType {
	end := i == r
	switch d {
	case board.Left:
		if end {
			return board.BoomLX
		}
		return board.BoomLR
	case board.Right:
		if end {
			return board.BoomRX
		}
		return board.BoomLR
	case board.Up:
		if end {
			return board.BoomTX
		}
		return board.BoomTB
	case board.Down:
		if end {
			return board.BoomBX
		}
		return board.BoomTB
	}
	panic(fmt.Sprintf("game: unknown direction %d", d))
}

// Detonations collects the outcome of one or more Explode calls
type Detonations struct {
	// Bombs lists every detonated bomb, chained ones included, in
	// detonation order.
	Bombs []Blast
	// Crates hit by a flame. Their removal is deferred until the whole sweep
	// is done so every blast sees the same crates.
	Crates []board.Point
}

func (d *Detonations) addCrate(p board.Point) {
	for _, c := range d.Crates {
		if c == p {
			return
		}
	}
	d.Crates = append(d.Crates, p)
}

// Explode detonates the bomb at p, writing flames onto b and appending to
// out. It is a no-op if p does not hold a bomb.
func Explode(b *board.Board, p board.Point, policy ExplosionPolicy, fuseFloor int, out *Detonations) {
	cell := b.At(p)
	if cell.Type != board.Bomb {
		return
	}
	bomb := *cell.Bomb
	out.Bombs = append(out.Bombs, Blast{Epicenter: p, Range: bomb.Range, Owner: bomb.Owner})

	b.Set(p, board.NewExplosionCell(board.BoomX, bomb.Owner))

	for _, d := range board.Directions {
	walk:
		for i := 1; i <= bomb.Range; i++ {
			q := p.Step(d, i)
			c := b.Cell(q)
			if c == nil {
				break
			}
			switch c.Type {
			case board.Wall:
				break walk
			case board.Crate:
				out.addCrate(q)
				break walk
			case board.CrateDying:
				break walk
			case board.Bomb:
				if policy == DelayedExplosions {
					if c.Bomb.Fuse > fuseFloor {
						c.Bomb.Fuse = fuseFloor
					}
					continue
				}
				Explode(b, q, policy, fuseFloor, out)
			}
			writeFlame(b, q, flameType(d, i, bomb.Range), bomb.Owner)
		}
	}
}

// writeFlame puts a flame of type t on q, merging with any flame already
// there. A flame that is already animating, or has the same type, keeps its
// type and only gains the owner.
func writeFlame(b *board.Board, q board.Point, t board.CellType, owner int) {
	c := b.Cell(q)
	if !c.Type.IsExplosion() {
		*c = board.NewExplosionCell(t, owner)
		return
	}
	c.Flame.Owners[owner] = struct{}{}
	if c.Counter > 0 || c.Type == t {
		return
	}
	c.Type = MergeExplosion(c.Type, t)
}
