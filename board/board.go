// Package board contains the value types of nested tic-tac-toe: marks,
// cells, and the 3x3 grid shared by every sub-board and the meta board.
package board

import "fmt"

const (
	// GridDim is the side length of one 3x3 grid.
	GridDim = 3
	// NumBoards is the number of sub-boards in the meta board.
	NumBoards = GridDim * GridDim
	// NumCells is the number of cells in one sub-board.
	NumCells = GridDim * GridDim
	// NumSquares is the number of playable squares overall.
	NumSquares = NumBoards * NumCells
)

// A Mark is the content of a single cell, or the resolved owner of a
// sub-board on the meta board.
type Mark uint8

const (
	Empty Mark = iota
	First
	Second
)

func (m Mark) String() string {
	switch m {
	case First:
		return "X"
	case Second:
		return "O"
	}
	return "."
}

// Opponent returns the other player's mark. It panics on Empty, since
// an empty mark has no opponent.
func (m Mark) Opponent() Mark {
	switch m {
	case First:
		return Second
	case Second:
		return First
	}
	panic(fmt.Sprintf("mark %d has no opponent", m))
}

// Lines are the 8 winning lines of a 3x3 grid: rows, columns, diagonals.
var Lines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// LocalBoard is a 3x3 grid of marks. It is used for the sub-boards as well
// as for the meta board of resolved outcomes.
type LocalBoard [NumCells]Mark

// HasLine returns the mark that owns a completed line, if any.
func (b *LocalBoard) HasLine() (Mark, bool) {
	for _, line := range Lines {
		m := b[line[0]]
		if m == Empty {
			continue
		}
		if m == b[line[1]] && m == b[line[2]] {
			return m, true
		}
	}
	return Empty, false
}

// HasEmpty returns true if at least one slot is empty.
func (b *LocalBoard) HasEmpty() bool {
	for _, m := range b {
		if m == Empty {
			return true
		}
	}
	return false
}

// EmptyCells returns the indices of the empty slots in ascending order.
func (b *LocalBoard) EmptyCells() []int {
	cells := make([]int, 0, NumCells)
	for i, m := range b {
		if m == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// Count returns how many slots hold the given mark.
func (b *LocalBoard) Count(m Mark) int {
	n := 0
	for _, c := range b {
		if c == m {
			n++
		}
	}
	return n
}
