package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadCoords = errors.New("coordinates must look like row:col with values 0-8")

// A Cell identifies one of the 81 playable squares by its sub-board and its
// position inside that sub-board. Cells are plain values; range checking is
// left to the position that receives them.
type Cell struct {
	BoardIndex int
	CellIndex  int
}

func NewCell(boardIndex, cellIndex int) Cell {
	return Cell{BoardIndex: boardIndex, CellIndex: cellIndex}
}

// Index is the dense index of the cell, 0-80.
func (c Cell) Index() int {
	return NumCells*c.BoardIndex + c.CellIndex
}

// Valid returns true if both indices are in range.
func (c Cell) Valid() bool {
	return c.BoardIndex >= 0 && c.BoardIndex < NumBoards &&
		c.CellIndex >= 0 && c.CellIndex < NumCells
}

func (c Cell) String() string {
	return fmt.Sprintf("[B#%d-C#%d]", c.BoardIndex, c.CellIndex)
}

// targetBoards maps a local cell position to the sub-board the opponent is
// sent to. Both happen to use the same 0-8 numbering on a 3x3 grid, but
// they are different things.
var targetBoards = [NumCells]int{0, 1, 2, 3, 4, 5, 6, 7, 8}

// TargetBoard returns the sub-board that a move on the given local cell
// sends the opponent to.
func TargetBoard(cellIndex int) int {
	return targetBoards[cellIndex]
}

// TargetBoard returns the sub-board the next move is forced into after
// this cell is played.
func (c Cell) TargetBoard() int {
	return TargetBoard(c.CellIndex)
}

// CellFromGrid converts a row and column on the full 9x9 grid into a Cell.
func CellFromGrid(row, col int) Cell {
	return Cell{
		BoardIndex: GridDim*(row/GridDim) + col/GridDim,
		CellIndex:  GridDim*(row%GridDim) + col%GridDim,
	}
}

// Grid returns the row and column of the cell on the full 9x9 grid.
func (c Cell) Grid() (int, int) {
	row := GridDim*(c.BoardIndex/GridDim) + c.CellIndex/GridDim
	col := GridDim*(c.BoardIndex%GridDim) + c.CellIndex%GridDim
	return row, col
}

// ParseGridCoords parses user input of the form "row:col", both on the full
// 9x9 grid.
func ParseGridCoords(s string) (Cell, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadCoords, s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadCoords, s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadCoords, s)
	}
	if row < 0 || row >= NumBoards || col < 0 || col >= NumBoards {
		return Cell{}, fmt.Errorf("%w: %q", ErrBadCoords, s)
	}
	return CellFromGrid(row, col), nil
}

// GridString formats the cell as row:col on the full grid.
func (c Cell) GridString() string {
	row, col := c.Grid()
	return fmt.Sprintf("%d:%d", row, col)
}
