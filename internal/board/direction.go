package board

import "fmt"

// Direction is one of the four axis-aligned movement directions
type Direction int8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists all four directions in a fixed order
var Directions = [4]Direction{Up, Down, Left, Right}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("direction(%d)", int8(d))
}

// Valid reports whether d is one of the four known directions
func (d Direction) Valid() bool { return d >= Up && d <= Right }

// Delta returns the unit grid offset of d. Unknown values panic: they can
// only come from a corrupted state machine.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	panic(fmt.Sprintf("board: unknown direction %d", int8(d)))
}

// Opposite returns the reversed direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	}
	panic(fmt.Sprintf("board: unknown direction %d", int8(d)))
}

// IsHorizontal reports whether d moves along the X axis
func (d Direction) IsHorizontal() bool { return d == Left || d == Right }

// Perpendicular returns the two directions orthogonal to d, lower
// coordinate first (Up before Down, Left before Right).
func (d Direction) Perpendicular() (Direction, Direction) {
	if d.IsHorizontal() {
		return Up, Down
	}
	return Left, Right
}

// Point is a pair of integer coordinates, either grid or pixel space
// depending on context.
type Point struct {
	X, Y int
}

// Pt is shorthand for Point{x, y}
func Pt(x, y int) Point { return Point{X: x, Y: y} }

// Add returns p translated by q
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Step returns p moved n cells in direction d
func (p Point) Step(d Direction, n int) Point {
	dx, dy := d.Delta()
	return Point{p.X + dx*n, p.Y + dy*n}
}

func (p Point) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }
