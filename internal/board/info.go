package board

// DefaultCellSize is the pixel size of a single grid cell
const DefaultCellSize = 16

// BoardInfo holds grid dimensions and the pixel size of a cell. It is fixed
// for the lifetime of a room.
type BoardInfo struct {
	Width    int `msgpack:"w" json:"w"`
	Height   int `msgpack:"h" json:"h"`
	CellSize int `msgpack:"cs" json:"cs"`
}

// NewBoardInfo describes b with the given cell size
func NewBoardInfo(b *Board, cellSize int) BoardInfo {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return BoardInfo{Width: b.Width, Height: b.Height, CellSize: cellSize}
}

// PixelToGrid maps a pixel position to the cell containing it, clamped to
// the grid.
func (bi BoardInfo) PixelToGrid(px Point) Point {
	cx := floorDiv(px.X, bi.CellSize)
	cy := floorDiv(px.Y, bi.CellSize)
	if cx < 0 {
		cx = 0
	} else if cx >= bi.Width {
		cx = bi.Width - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= bi.Height {
		cy = bi.Height - 1
	}
	return Point{cx, cy}
}

// GridToPixel returns the pixel center of a grid cell
func (bi BoardInfo) GridToPixel(p Point) Point {
	half := bi.CellSize / 2
	return Point{p.X*bi.CellSize + half, p.Y*bi.CellSize + half}
}

// PixelSize returns the board extent in pixels
func (bi BoardInfo) PixelSize() Point {
	return Point{bi.Width * bi.CellSize, bi.Height * bi.CellSize}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
