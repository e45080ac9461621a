package game

import (
	"fmt"
	"strings"

	"github.com/domino14/ultimate/board"
)

const (
	separatorLine = "  -------+-------+-------"
	headerLine    = "   0 1 2 | 3 4 5 | 6 7 8"
)

// ToDisplayText turns the position into a 9x9 grid. Resolved sub-boards are
// filled with their winner's mark and empty cells the player on turn may
// play are shown as '*'.
func (p *Position) ToDisplayText() string {
	legal := map[board.Cell]bool{}
	for _, c := range p.AllLegalMoves() {
		legal[c] = true
	}

	var sb strings.Builder
	sb.WriteString(headerLine)
	sb.WriteString("\n")
	for row := 0; row < board.NumBoards; row++ {
		if row == 3 || row == 6 {
			sb.WriteString(separatorLine)
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%d ", row)
		for col := 0; col < board.NumBoards; col++ {
			if col == 3 || col == 6 {
				sb.WriteString(" |")
			}
			c := board.CellFromGrid(row, col)
			sb.WriteString(" ")
			sb.WriteString(p.squareText(c, legal[c]))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(p.statusLine())
	sb.WriteString("\n")
	return sb.String()
}

func (p *Position) squareText(c board.Cell, legal bool) string {
	if m := p.meta[c.BoardIndex]; m != board.Empty {
		return m.String()
	}
	m := p.locals[c.BoardIndex][c.CellIndex]
	if m == board.Empty && legal {
		return "*"
	}
	return m.String()
}

func (p *Position) statusLine() string {
	switch {
	case p.HasWinner():
		return fmt.Sprintf("Game over, %v won after %d moves.", p.Winner(), len(p.history))
	case p.IsTerminal():
		return fmt.Sprintf("Game over, draw after %d moves.", len(p.history))
	}
	s := fmt.Sprintf("%v to move. Score: %d", p.onturn, p.score)
	if last, ok := p.LastMove(); ok {
		s += fmt.Sprintf(". Last move: %s", last.GridString())
	}
	return s
}
