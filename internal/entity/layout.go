package entity

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	layoutInvalid = '.'
	layoutMarble  = 'o'
	layoutHole    = '_'
)

var ErrInvalidLayout = errors.New("invalid layout")

// Layout describes a board shape, its starting marbles and the cell the last marble must finish on.
//
// Each row is a string with one rune per column:
//
//	.  outside the board
//	o  playable, starts with a marble
//	_  playable, starts empty
type Layout struct {
	Name string   `json:"name" yaml:"name"`
	Rows []string `json:"rows" yaml:"rows"`
	Win  Position `json:"win" yaml:"win"`
}

// StandardLayout is the 33-hole English cross with the centre open.
func StandardLayout() *Layout {
	return &Layout{
		Name: "english",
		Rows: []string{
			"..ooo..",
			"..ooo..",
			"ooooooo",
			"ooo_ooo",
			"ooooooo",
			"..ooo..",
			"..ooo..",
		},
		Win: Position{Row: 3, Col: 3},
	}
}

// ParseLayout decodes a YAML layout descriptor and validates it.
func ParseLayout(data []byte) (*Layout, error) {
	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}

	return &layout, nil
}

// LoadLayout reads a layout file; an empty path yields the standard layout.
func LoadLayout(path string) (*Layout, error) {
	if path == "" {
		return StandardLayout(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file: %w", err)
	}

	return ParseLayout(data)
}

func (that *Layout) Validate() error {
	if len(that.Rows) == 0 {
		return fmt.Errorf("%w: no rows", ErrInvalidLayout)
	}

	width := len(that.Rows[0])
	marbles, holes := 0, 0

	for r, row := range that.Rows {
		if len(row) != width || width == 0 {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidLayout, r, len(row), width)
		}

		for c, ch := range row {
			switch ch {
			case layoutMarble:
				marbles++
			case layoutHole:
				holes++
			case layoutInvalid:
			default:
				return fmt.Errorf("%w: unknown symbol %q at (%d,%d)", ErrInvalidLayout, ch, r, c)
			}
		}
	}

	if marbles == 0 || holes == 0 {
		return fmt.Errorf("%w: need at least one marble and one hole", ErrInvalidLayout)
	}

	if that.NewBoard().At(that.Win) == CellInvalid {
		return fmt.Errorf("%w: win cell %s is not playable", ErrInvalidLayout, that.Win)
	}

	return nil
}

// NewBoard builds the starting board described by the layout.
func (that *Layout) NewBoard() Board {
	board := make(Board, len(that.Rows))
	for r, row := range that.Rows {
		board[r] = make([]Cell, len(row))
		for c, ch := range row {
			switch ch {
			case layoutMarble:
				board[r][c] = CellMarble
			case layoutHole:
				board[r][c] = CellEmpty
			default:
				board[r][c] = CellInvalid
			}
		}
	}

	return board
}
