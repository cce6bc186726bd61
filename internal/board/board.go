package board

import "fmt"

// Board is a fixed-size grid of cells. Width and Height never change after
// construction; cells are mutated only by the owning simulation.
type Board struct {
	Name   string
	Width  int
	Height int

	// SpawnPoints are the default player positions, in grid coordinates
	SpawnPoints []Point

	cells [][]Cell // [y][x]
}

// New creates an empty board
func New(name string, width, height int) *Board {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("board: invalid size %dx%d", width, height))
	}
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
	}
	return &Board{Name: name, Width: width, Height: height, cells: cells}
}

// InBounds reports whether p lies on the grid
func (b *Board) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.Width && p.Y < b.Height
}

// At returns the cell at p. Off-grid coordinates read as walls.
func (b *Board) At(p Point) Cell {
	if !b.InBounds(p) {
		return Cell{Type: Wall}
	}
	return b.cells[p.Y][p.X]
}

// Type is shorthand for At(p).Type
func (b *Board) Type(p Point) CellType {
	return b.At(p).Type
}

// Set replaces the cell at p. Off-grid writes are ignored.
func (b *Board) Set(p Point, c Cell) {
	if !b.InBounds(p) {
		return
	}
	b.cells[p.Y][p.X] = c
}

// Cell returns a pointer to the cell at p for in-place updates, or nil
// when p is off the grid.
func (b *Board) Cell(p Point) *Cell {
	if !b.InBounds(p) {
		return nil
	}
	return &b.cells[p.Y][p.X]
}

// Each calls fn for every coordinate in row-major order
func (b *Board) Each(fn func(p Point, c *Cell)) {
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			fn(Point{x, y}, &b.cells[y][x])
		}
	}
}

// Types returns a row-major copy of all cell types
func (b *Board) Types() []CellType {
	out := make([]CellType, 0, b.Width*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			out = append(out, b.cells[y][x].Type)
		}
	}
	return out
}

// Clone returns a deep copy
func (b *Board) Clone() *Board {
	c := New(b.Name, b.Width, b.Height)
	c.SpawnPoints = append([]Point(nil), b.SpawnPoints...)
	for y := range b.cells {
		for x := range b.cells[y] {
			c.cells[y][x] = b.cells[y][x].clone()
		}
	}
	return c
}

// String renders the board in the same ASCII format Parse accepts
func (b *Board) String() string {
	buf := make([]byte, 0, (b.Width+1)*b.Height)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			buf = append(buf, glyph(b.cells[y][x].Type))
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}
