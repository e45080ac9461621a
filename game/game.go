// Package game contains the position state machine of nested tic-tac-toe:
// nine local boards, the meta board of resolved outcomes, move history,
// and the cached evaluation and fingerprint kept up to date on every move.
package game

import (
	"errors"
	"fmt"

	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/equity"
	"github.com/domino14/ultimate/zobrist"
)

// HashTableSize is the number of zobrist codewords a position needs: one
// per (mark, cell) combination plus a few reserved slots.
const HashTableSize = 2*board.NumSquares + 4

var (
	ErrOutOfRange   = errors.New("cell is out of range")
	ErrGameOver     = errors.New("cannot play a move on a game that is over")
	ErrOccupied     = errors.New("target cell is not empty")
	ErrWrongBoard   = errors.New("move must be played in the forced board")
	ErrClosedBoard  = errors.New("target board is closed")
	ErrEmptyHistory = errors.New("cannot unplay a move from an empty board")
)

// Position is a nested tic-tac-toe position. It is mutated in place by
// PlayMove and UnplayLastMove, and it is not safe for concurrent use.
type Position struct {
	locals  [board.NumBoards]board.LocalBoard
	meta    board.LocalBoard
	history []board.Cell
	// quiet[i] is false if the i-th move resolved a sub-board.
	quiet  []bool
	onturn board.Mark
	winner bool

	hash    zobrist.Hash
	chances [board.NumBoards]equity.WinningChance
	score   int
}

// NewPosition creates an empty position that hashes with the given table.
// The table must have at least HashTableSize codewords.
func NewPosition(table *zobrist.Table) *Position {
	p := &Position{
		history: make([]board.Cell, 0, board.NumSquares),
		quiet:   make([]bool, 0, board.NumSquares),
		onturn:  board.First,
		hash:    zobrist.NewHash(table),
	}
	for i := range p.chances {
		p.chances[i] = equity.Chance(&p.locals[i], board.Empty)
	}
	p.score = equity.Score(&p.chances)
	return p
}

// NewPositionFromHistory replays the given moves onto an empty position.
func NewPositionFromHistory(table *zobrist.Table, history []board.Cell) (*Position, error) {
	p := NewPosition(table)
	for i, c := range history {
		if err := p.PlayMove(c); err != nil {
			return nil, fmt.Errorf("replaying move %d: %w", i+1, err)
		}
	}
	return p, nil
}

// Copy returns an independent position, built by replaying this position's
// history.
func (p *Position) Copy() *Position {
	cp, err := NewPositionFromHistory(p.hash.Table(), p.history)
	if err != nil {
		// The history was validated when it was played.
		panic(err)
	}
	return cp
}

// forcedBoard returns the sub-board the next move must go to, or -1 if the
// player may choose any open sub-board.
func (p *Position) forcedBoard() int {
	if len(p.history) == 0 {
		return -1
	}
	b := p.history[len(p.history)-1].TargetBoard()
	if p.meta[b] != board.Empty || !p.locals[b].HasEmpty() {
		return -1
	}
	return b
}

// ForcedBoard returns the sub-board the next move is forced into. ok is
// false when the player to move may choose freely.
func (p *Position) ForcedBoard() (int, bool) {
	b := p.forcedBoard()
	return b, b >= 0
}

func (p *Position) validate(c board.Cell) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %v", ErrOutOfRange, c)
	}
	if p.IsTerminal() {
		return ErrGameOver
	}
	if p.locals[c.BoardIndex][c.CellIndex] != board.Empty {
		return fmt.Errorf("%w: %v", ErrOccupied, c)
	}
	if f := p.forcedBoard(); f >= 0 && c.BoardIndex != f {
		return fmt.Errorf("%w: %v must be in board %d", ErrWrongBoard, c, f)
	}
	if p.meta[c.BoardIndex] != board.Empty {
		return fmt.Errorf("%w: %v", ErrClosedBoard, c)
	}
	return nil
}

// hashIndex returns the codeword index for mark m on cell c.
func hashIndex(m board.Mark, c board.Cell) int {
	if m == board.First {
		return c.Index()
	}
	return board.NumSquares + c.Index()
}

// PlayMove plays the cell for the player on turn. On error the position is
// left unchanged.
func (p *Position) PlayMove(c board.Cell) error {
	if err := p.validate(c); err != nil {
		return err
	}
	mark := p.onturn
	p.locals[c.BoardIndex][c.CellIndex] = mark
	p.history = append(p.history, c)

	quiet := true
	if m, ok := p.locals[c.BoardIndex].HasLine(); ok {
		p.meta[c.BoardIndex] = m
		quiet = false
	}
	p.quiet = append(p.quiet, quiet)
	_, p.winner = p.meta.HasLine()

	p.onturn = mark.Opponent()
	p.hash.Modify(hashIndex(mark, c))
	p.chances[c.BoardIndex] = equity.Chance(&p.locals[c.BoardIndex], p.meta[c.BoardIndex])
	p.score = equity.Score(&p.chances)
	return nil
}

// UnplayLastMove takes back the last move.
func (p *Position) UnplayLastMove() error {
	if len(p.history) == 0 {
		return ErrEmptyHistory
	}
	last := p.history[len(p.history)-1]
	mark := p.locals[last.BoardIndex][last.CellIndex]
	if mark == board.Empty {
		panic(fmt.Sprintf("cannot unplay %v, the cell is already empty", last))
	}
	p.locals[last.BoardIndex][last.CellIndex] = board.Empty
	// Only the move that completed a line can have resolved this board, and
	// no move is ever played into a resolved board.
	p.meta[last.BoardIndex] = board.Empty
	p.history = p.history[:len(p.history)-1]
	p.quiet = p.quiet[:len(p.quiet)-1]
	_, p.winner = p.meta.HasLine()

	p.onturn = mark
	p.hash.Modify(hashIndex(mark, last))
	p.chances[last.BoardIndex] = equity.Chance(&p.locals[last.BoardIndex], board.Empty)
	p.score = equity.Score(&p.chances)
	return nil
}

// LegalMoves returns the moves a search should consider. On an empty
// position it returns a short list of opening moves in the center board
// (center, edge, corner); the rest are symmetric to these.
func (p *Position) LegalMoves() []board.Cell {
	if len(p.history) == 0 {
		return []board.Cell{
			board.NewCell(4, 4),
			board.NewCell(4, 3),
			board.NewCell(4, 0),
		}
	}
	return p.AllLegalMoves()
}

// AllLegalMoves returns every legal move, including all 81 cells on an
// empty position.
func (p *Position) AllLegalMoves() []board.Cell {
	if p.IsTerminal() {
		return nil
	}
	if f := p.forcedBoard(); f >= 0 {
		return p.emptyCellsIn(f, nil)
	}
	var moves []board.Cell
	for b := 0; b < board.NumBoards; b++ {
		if p.meta[b] != board.Empty {
			continue
		}
		moves = p.emptyCellsIn(b, moves)
	}
	return moves
}

func (p *Position) emptyCellsIn(b int, moves []board.Cell) []board.Cell {
	for _, c := range p.locals[b].EmptyCells() {
		moves = append(moves, board.NewCell(b, c))
	}
	return moves
}

// IsTerminal returns true if the meta board has a line or no sub-board is
// open any more.
func (p *Position) IsTerminal() bool {
	return p.winner || p.allClosed()
}

func (p *Position) allClosed() bool {
	for b := 0; b < board.NumBoards; b++ {
		if p.meta[b] == board.Empty && p.locals[b].HasEmpty() {
			return false
		}
	}
	return true
}

// HasWinner returns true if the meta board has a line.
func (p *Position) HasWinner() bool {
	return p.winner
}

// Winner returns the mark that won the game, or Empty.
func (p *Position) Winner() board.Mark {
	if !p.winner {
		return board.Empty
	}
	m, _ := p.meta.HasLine()
	return m
}

// IsQuiet returns false if the last move resolved a sub-board.
func (p *Position) IsQuiet() bool {
	if len(p.quiet) == 0 {
		return true
	}
	return p.quiet[len(p.quiet)-1]
}

// Score is the cached static evaluation, from the first player's point of
// view.
func (p *Position) Score() int {
	return p.score
}

// Chance returns the cached winning chance of sub-board b.
func (p *Position) Chance(b int) equity.WinningChance {
	return p.chances[b]
}

// Fingerprint returns a cheap position key for transposition tables. It is
// the zobrist hash plus the cell index of the last move, which tells apart
// positions with equal marks but different forced boards most of the time.
func (p *Position) Fingerprint() uint64 {
	if len(p.history) == 0 {
		return p.hash.Value()
	}
	return p.hash.Value() + uint64(p.history[len(p.history)-1].CellIndex)
}

// OnTurn returns the mark of the player to move.
func (p *Position) OnTurn() board.Mark {
	return p.onturn
}

func (p *Position) MarkAt(boardIndex, cellIndex int) board.Mark {
	return p.locals[boardIndex][cellIndex]
}

// MetaBoard returns a copy of the resolved outcomes of the sub-boards.
func (p *Position) MetaBoard() board.LocalBoard {
	return p.meta
}

// History returns a copy of the moves played so far.
func (p *Position) History() []board.Cell {
	h := make([]board.Cell, len(p.history))
	copy(h, p.history)
	return h
}

// LastMove returns the last move played, if any.
func (p *Position) LastMove() (board.Cell, bool) {
	if len(p.history) == 0 {
		return board.Cell{}, false
	}
	return p.history[len(p.history)-1], true
}

func (p *Position) MoveCount() int {
	return len(p.history)
}
