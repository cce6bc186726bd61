package game

import "github.com/dweiss/jdyna-sub000/internal/board"

// Move steps p one frame toward dir. It returns false when the player
// could not move at all.
//
// A player may always approach the center of the cell it stands in. Moving
// past that center requires the next cell to be walkable; when it is not,
// a player close to one of the perpendicular cell edges slides toward that
// edge instead, provided both cells on that side are open, so players can
// cut corners at intersections.
func Move(b *board.Board, bi board.BoardInfo, p *Player, dir board.Direction, frame, margin int) bool {
	return move(b, bi, p, dir, frame, margin, true)
}

func move(b *board.Board, bi board.BoardInfo, p *Player, dir board.Direction, frame, margin int, ease bool) bool {
	speed := p.CurrentSpeed(frame)
	cell := bi.PixelToGrid(p.Location)
	target := cell.Step(dir, 1)
	goal := bi.GridToPixel(target)

	if !p.CanWalkOn(b.Type(target), frame) {
		center := bi.GridToPixel(cell)
		dx, dy := dir.Delta()
		ahead := (p.Location.X-center.X)*dx + (p.Location.Y-center.Y)*dy
		if ahead >= 0 {
			if !ease {
				return false
			}
			return easeAround(b, bi, p, dir, cell, target, frame, margin)
		}
		goal = center
	}

	step := board.Pt(clamp(goal.X-p.Location.X, -speed, speed), clamp(goal.Y-p.Location.Y, -speed, speed))
	if step == (board.Point{}) {
		return false
	}
	p.Location = p.Location.Add(step)
	return true
}

func easeAround(b *board.Board, bi board.BoardInfo, p *Player, dir board.Direction, cell, target board.Point, frame, margin int) bool {
	var offset int
	if dir.IsHorizontal() {
		offset = p.Location.Y - cell.Y*bi.CellSize
	} else {
		offset = p.Location.X - cell.X*bi.CellSize
	}

	low, high := dir.Perpendicular()
	var side board.Direction
	switch {
	case offset < margin:
		side = low
	case offset >= bi.CellSize-margin:
		side = high
	default:
		return false
	}

	if !p.CanWalkOn(b.Type(cell.Step(side, 1)), frame) || !p.CanWalkOn(b.Type(target.Step(side, 1)), frame) {
		return false
	}
	return move(b, bi, p, side, frame, margin, false)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
