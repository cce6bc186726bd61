package board

import "slices"

// CellType identifies what occupies a grid cell
type CellType uint8

const (
	Empty CellType = iota
	Wall
	Crate
	CrateDying
	Bomb

	// Explosion types form the overlap lattice, see MergeExplosion
	BoomX  // both axes
	BoomLR // horizontal, passing through
	BoomTB // vertical, passing through
	BoomLX // left end
	BoomRX // right end
	BoomTX // top end
	BoomBX // bottom end

	BonusBomb
	BonusRange
	BonusMaxRange
	BonusImmortality
	BonusSpeedUp
	BonusSlowDown
	BonusCrateWalking
	BonusBombWalking
	BonusDiarrhea
	BonusNoBombs
	BonusControllerReverse
	BonusSurprise

	cellTypeCount
)

const (
	ExplosionFrames  = 10 // flame lifetime before the cell clears
	CrateDyingFrames = 10
)

var cellTypeNames = [...]string{
	Empty:                  "empty",
	Wall:                   "wall",
	Crate:                  "crate",
	CrateDying:             "crate-dying",
	Bomb:                   "bomb",
	BoomX:                  "boom-x",
	BoomLR:                 "boom-lr",
	BoomTB:                 "boom-tb",
	BoomLX:                 "boom-lx",
	BoomRX:                 "boom-rx",
	BoomTX:                 "boom-tx",
	BoomBX:                 "boom-bx",
	BonusBomb:              "bonus-bomb",
	BonusRange:             "bonus-range",
	BonusMaxRange:          "bonus-max-range",
	BonusImmortality:       "bonus-immortality",
	BonusSpeedUp:           "bonus-speed-up",
	BonusSlowDown:          "bonus-slow-down",
	BonusCrateWalking:      "bonus-crate-walking",
	BonusBombWalking:       "bonus-bomb-walking",
	BonusDiarrhea:          "bonus-diarrhea",
	BonusNoBombs:           "bonus-no-bombs",
	BonusControllerReverse: "bonus-controller-reverse",
	BonusSurprise:          "bonus-surprise",
}

func (t CellType) String() string {
	if int(t) < len(cellTypeNames) {
		return cellTypeNames[t]
	}
	return "unknown"
}

// Valid reports whether t is a known cell type
func (t CellType) Valid() bool { return t < cellTypeCount }

// IsExplosion reports whether t is one of the flame types
func (t CellType) IsExplosion() bool { return t >= BoomX && t <= BoomBX }

// IsBonus reports whether t is a collectible bonus
func (t CellType) IsBonus() bool { return t >= BonusBomb && t <= BonusSurprise }

// IsLethal reports whether standing on t kills a mortal player
func (t CellType) IsLethal() bool { return t.IsExplosion() }

// IsWalkable reports base walkability, without any player effects
func (t CellType) IsWalkable() bool {
	return t == Empty || t.IsExplosion() || t.IsBonus()
}

// RemovalThreshold is the animation counter value at which the cell is
// replaced with an empty one. Zero means the cell never expires.
func (t CellType) RemovalThreshold() int {
	switch {
	case t.IsExplosion():
		return ExplosionFrames
	case t == CrateDying:
		return CrateDyingFrames
	}
	return 0
}

// BombData is the payload of a Bomb cell
type BombData struct {
	Fuse  int
	Range int
	Owner int
}

// FlameData is the payload of an explosion cell. Owners holds the ids of
// every player whose bomb reached this cell.
type FlameData struct {
	Owners map[int]struct{}
}

// Merge adds every owner of other to f
func (f *FlameData) Merge(other *FlameData) {
	for id := range other.Owners {
		f.Owners[id] = struct{}{}
	}
}

// OwnerIDs returns attributed owners in ascending order
func (f *FlameData) OwnerIDs() []int {
	ids := make([]int, 0, len(f.Owners))
	for id := range f.Owners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Cell is a tagged variant: Type selects which payload, if any, is set.
type Cell struct {
	Type    CellType
	Counter int // animation counter, advanced once per frame

	Bomb  *BombData  // Type == Bomb
	Flame *FlameData // Type.IsExplosion()
}

// NewCell returns a payload-free cell of type t
func NewCell(t CellType) Cell {
	if t == Bomb || t.IsExplosion() {
		panic("board: NewCell called with payload type " + t.String())
	}
	return Cell{Type: t}
}

// NewBombCell returns a freshly planted bomb
func NewBombCell(fuse, rng, owner int) Cell {
	return Cell{Type: Bomb, Bomb: &BombData{Fuse: fuse, Range: rng, Owner: owner}}
}

// NewExplosionCell returns a flame of type t attributed to owners
func NewExplosionCell(t CellType, owners ...int) Cell {
	if !t.IsExplosion() {
		panic("board: NewExplosionCell called with " + t.String())
	}
	f := &FlameData{Owners: make(map[int]struct{}, len(owners))}
	for _, id := range owners {
		f.Owners[id] = struct{}{}
	}
	return Cell{Type: t, Flame: f}
}

// clone deep-copies payloads so that board snapshots are independent
func (c Cell) clone() Cell {
	switch {
	case c.Bomb != nil:
		b := *c.Bomb
		c.Bomb = &b
	case c.Flame != nil:
		f := &FlameData{Owners: make(map[int]struct{}, len(c.Flame.Owners))}
		f.Merge(c.Flame)
		c.Flame = f
	}
	return c
}
