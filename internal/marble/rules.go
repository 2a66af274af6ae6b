package marble

import (
	"fmt"

	"github.com/rocketscienceinc/marble-board/internal/apperror"
	"github.com/rocketscienceinc/marble-board/internal/entity"
)

const jumpDistance = 2

// Directions are the four axis-aligned jumps: up, down, left, right.
var Directions = [4]entity.Position{
	{Row: -jumpDistance, Col: 0},
	{Row: jumpDistance, Col: 0},
	{Row: 0, Col: -jumpDistance},
	{Row: 0, Col: jumpDistance},
}

// IsValidMove reports whether a marble at src may jump to dest.
func IsValidMove(board entity.Board, src, dest entity.Position) bool {
	if board.At(src) != entity.CellMarble {
		return false
	}

	dRow, dCol := dest.Row-src.Row, dest.Col-src.Col

	switch {
	case dRow == 0 && abs(dCol) == jumpDistance:
	case dCol == 0 && abs(dRow) == jumpDistance:
	default:
		return false
	}

	return board.At(midpoint(src, dest)) == entity.CellMarble && board.At(dest) == entity.CellEmpty
}

// ApplyMove returns a new board with the jump performed. It does not validate; the input is left untouched.
func ApplyMove(board entity.Board, src, dest entity.Position) entity.Board {
	next := board.Clone()

	next.Set(dest, entity.CellMarble)
	next.Set(src, entity.CellEmpty)
	next.Set(midpoint(src, dest), entity.CellEmpty)

	return next
}

// MakeMove validates and applies a jump.
func MakeMove(board entity.Board, src, dest entity.Position) (entity.Board, error) {
	if !IsValidMove(board, src, dest) {
		return nil, fmt.Errorf("%w: %s -> %s", apperror.ErrInvalidMove, src, dest)
	}

	return ApplyMove(board, src, dest), nil
}

// LegalDestinations lists where the marble at pos can land.
func LegalDestinations(board entity.Board, pos entity.Position) []entity.Position {
	var destinations []entity.Position

	for _, dir := range Directions {
		dest := pos.Offset(dir.Row, dir.Col)
		if IsValidMove(board, pos, dest) {
			destinations = append(destinations, dest)
		}
	}

	return destinations
}

// HasAnyLegalMove reports whether the marble at pos has at least one jump.
func HasAnyLegalMove(board entity.Board, pos entity.Position) bool {
	if board.At(pos) != entity.CellMarble {
		return false
	}

	for _, dir := range Directions {
		if IsValidMove(board, pos, pos.Offset(dir.Row, dir.Col)) {
			return true
		}
	}

	return false
}

// IsBlocked reports whether no marble on the board can move.
func IsBlocked(board entity.Board) bool {
	for r, row := range board {
		for c, cell := range row {
			if cell == entity.CellMarble && HasAnyLegalMove(board, entity.Position{Row: r, Col: c}) {
				return false
			}
		}
	}

	return true
}

// IsWon reports whether a single marble is left and it sits on win.
func IsWon(board entity.Board, win entity.Position) bool {
	return board.MarbleCount() == 1 && board.At(win) == entity.CellMarble
}

// Evaluate derives the game status; a won board is also blocked but reports won.
func Evaluate(board entity.Board, win entity.Position) entity.Status {
	switch {
	case IsWon(board, win):
		return entity.StatusWon
	case IsBlocked(board):
		return entity.StatusBlocked
	default:
		return entity.StatusOngoing
	}
}

func midpoint(src, dest entity.Position) entity.Position {
	return entity.Position{Row: (src.Row + dest.Row) / 2, Col: (src.Col + dest.Col) / 2}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
