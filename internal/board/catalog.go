package board

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Loader resolves a board name to a fresh, mutable Board
type Loader interface {
	Lookup(name string) (*Board, bool)
}

// Catalog is an in-memory Loader. Lookups return clones so that every
// room mutates its own grid.
type Catalog struct {
	mu     sync.RWMutex
	boards map[string]*Board
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{boards: make(map[string]*Board)}
}

// DefaultCatalog returns a catalog holding the built-in boards
func DefaultCatalog() *Catalog {
	c := NewCatalog()
	for name, rows := range presets {
		b, err := Parse(name, rows)
		if err != nil {
			panic(err)
		}
		c.Add(b)
	}
	return c
}

// Add registers b under its name, replacing any previous board
func (c *Catalog) Add(b *Board) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boards[b.Name] = b.Clone()
}

// Lookup returns a copy of the named board
func (c *Catalog) Lookup(name string) (*Board, bool) {
	c.mu.RLock()
	b, ok := c.boards[name]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// Names returns the registered board names, sorted
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.boards))
	for name := range c.boards {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Parse builds a board from ASCII rows:
//
//	#  wall
//	+  crate
//	.  empty (space works too)
//	P  empty cell that is also a default spawn point
func Parse(name string, rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("board %q: no rows", name)
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("board %q: empty first row", name)
	}
	b := New(name, width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("board %q: row %d has width %d, expected %d", name, y, len(row), width)
		}
		for x := 0; x < width; x++ {
			switch row[x] {
			case '#':
				b.cells[y][x] = Cell{Type: Wall}
			case '+':
				b.cells[y][x] = Cell{Type: Crate}
			case '.', ' ':
			case 'P':
				b.SpawnPoints = append(b.SpawnPoints, Point{x, y})
			default:
				return nil, fmt.Errorf("board %q: unexpected %q at (%d,%d)", name, row[x], x, y)
			}
		}
	}
	return b, nil
}

// MustParse is like Parse but panics on malformed input
func MustParse(name string, rows ...string) *Board {
	b, err := Parse(name, rows)
	if err != nil {
		panic(err)
	}
	return b
}

func glyph(t CellType) byte {
	switch {
	case t == Wall:
		return '#'
	case t == Crate:
		return '+'
	case t == CrateDying:
		return 'x'
	case t == Bomb:
		return 'o'
	case t.IsExplosion():
		return '*'
	case t.IsBonus():
		return 'b'
	}
	return '.'
}

var presets = map[string][]string{
	"classic": strings.Split(strings.TrimSpace(`
#################
#P.+++++++++++.P#
#.#+#+#+#+#+#+#.#
#+++++++++++++++#
#+#+#+#+#+#+#+#+#
#+++++++++++++++#
#+#+#+#+#+#+#+#+#
#+++++++++++++++#
#+#+#+#+#+#+#+#+#
#+++++++++++++++#
#.#+#+#+#+#+#+#.#
#P.+++++++++++.P#
#################`), "\n"),

	"open": strings.Split(strings.TrimSpace(`
###############
#P...........P#
#.#.#.#.#.#.#.#
#.............#
#.#.#.#.#.#.#.#
#.............#
#.#.#.#.#.#.#.#
#.............#
#.#.#.#.#.#.#.#
#P...........P#
###############`), "\n"),

	"duel": strings.Split(strings.TrimSpace(`
#########
#P.....P#
#.#+#+#.#
#..+++..#
#.#+#+#.#
#P.....P#
#########`), "\n"),
}
