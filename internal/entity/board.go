package entity

// Board is a rectangular grid of cells, indexed [row][col].
// Boards are shared between history snapshots, so callers change a Clone, never the original.
type Board [][]Cell

func (that Board) Rows() int {
	return len(that)
}

func (that Board) Cols() int {
	if len(that) == 0 {
		return 0
	}
	return len(that[0])
}

// Contains reports whether pos lies inside the grid.
func (that Board) Contains(pos Position) bool {
	return pos.Row >= 0 && pos.Row < len(that) && pos.Col >= 0 && pos.Col < len(that[pos.Row])
}

// At returns the cell at pos; positions off the grid read as CellInvalid.
func (that Board) At(pos Position) Cell {
	if !that.Contains(pos) {
		return CellInvalid
	}
	return that[pos.Row][pos.Col]
}

// Set writes a cell in place. Only use it on a board you own.
func (that Board) Set(pos Position, cell Cell) {
	that[pos.Row][pos.Col] = cell
}

func (that Board) Clone() Board {
	if that == nil {
		return nil
	}

	clone := make(Board, len(that))
	for r, row := range that {
		clone[r] = make([]Cell, len(row))
		copy(clone[r], row)
	}

	return clone
}

func (that Board) MarbleCount() int {
	return that.count(func(cell Cell) bool { return cell == CellMarble })
}

// PlayableCount counts every cell that is not CellInvalid.
func (that Board) PlayableCount() int {
	return that.count(func(cell Cell) bool { return cell != CellInvalid })
}

// Positions lists every cell position in row-major order.
func (that Board) Positions() []Position {
	positions := make([]Position, 0, that.Rows()*that.Cols())
	for r, row := range that {
		for c := range row {
			positions = append(positions, Position{Row: r, Col: c})
		}
	}

	return positions
}

// SameShape reports whether both boards have identical dimensions and the same invalid cells.
func (that Board) SameShape(other Board) bool {
	if len(that) != len(other) {
		return false
	}

	for r := range that {
		if len(that[r]) != len(other[r]) {
			return false
		}
		for c := range that[r] {
			if (that[r][c] == CellInvalid) != (other[r][c] == CellInvalid) {
				return false
			}
		}
	}

	return true
}

func (that Board) Equal(other Board) bool {
	if !that.SameShape(other) {
		return false
	}

	for r := range that {
		for c := range that[r] {
			if that[r][c] != other[r][c] {
				return false
			}
		}
	}

	return true
}

func (that Board) count(match func(Cell) bool) int {
	total := 0
	for _, row := range that {
		for _, cell := range row {
			if match(cell) {
				total++
			}
		}
	}

	return total
}
