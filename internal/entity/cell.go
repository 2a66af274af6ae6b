package entity

import (
	"errors"
	"fmt"
)

// Cell is the state of a single board square.
type Cell int8

const (
	CellInvalid Cell = iota // outside the playable shape
	CellEmpty               // playable hole
	CellMarble
)

var ErrUnknownCell = errors.New("unknown cell value")

func (that Cell) String() string {
	switch that {
	case CellEmpty:
		return "empty"
	case CellMarble:
		return "marble"
	default:
		return "invalid"
	}
}

// MarshalJSON writes the compact snapshot form: null, 0 or 1.
func (that Cell) MarshalJSON() ([]byte, error) {
	switch that {
	case CellEmpty:
		return []byte("0"), nil
	case CellMarble:
		return []byte("1"), nil
	default:
		return []byte("null"), nil
	}
}

func (that *Cell) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*that = CellInvalid
	case "0":
		*that = CellEmpty
	case "1":
		*that = CellMarble
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCell, data)
	}

	return nil
}

// Position addresses a cell by row and column.
type Position struct {
	Row int `json:"row" yaml:"row"`
	Col int `json:"col" yaml:"col"`
}

func (that Position) String() string {
	return fmt.Sprintf("(%d,%d)", that.Row, that.Col)
}

// Offset returns the position shifted by the given deltas.
func (that Position) Offset(dRow, dCol int) Position {
	return Position{Row: that.Row + dRow, Col: that.Col + dCol}
}
