// Package rules is the glue between nested tic-tac-toe positions and an
// adversarial search engine.
package rules

import (
	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/game"
	"github.com/domino14/ultimate/zobrist"
)

// Logics exposes the operations a search engine needs. All positions it
// creates share one zobrist table.
type Logics struct {
	// Inverted negates the static evaluation, i.e. evaluates from the
	// second player's point of view.
	Inverted bool

	table *zobrist.Table
}

// NewLogics creates a Logics with a random zobrist table.
func NewLogics() (*Logics, error) {
	t, err := zobrist.NewTable(game.HashTableSize)
	if err != nil {
		return nil, err
	}
	return &Logics{table: t}, nil
}

// NewSeededLogics creates a Logics whose fingerprints are reproducible.
func NewSeededLogics(seed uint64) (*Logics, error) {
	t, err := zobrist.NewSeededTable(game.HashTableSize, seed)
	if err != nil {
		return nil, err
	}
	return &Logics{table: t}, nil
}

// NewLogicsFromSeed creates a seeded Logics, or a random one for seed 0.
func NewLogicsFromSeed(seed uint64) (*Logics, error) {
	if seed == 0 {
		return NewLogics()
	}
	return NewSeededLogics(seed)
}

func (l *Logics) CreateEmptyPosition() *game.Position {
	return game.NewPosition(l.table)
}

// PositionFromHistory replays a move sequence into a fresh position.
func (l *Logics) PositionFromHistory(history []board.Cell) (*game.Position, error) {
	return game.NewPositionFromHistory(l.table, history)
}

func (l *Logics) LegalMoves(p *game.Position) []board.Cell {
	return p.LegalMoves()
}

func (l *Logics) StaticEvaluate(p *game.Position) int {
	if l.Inverted {
		return -p.Score()
	}
	return p.Score()
}

// Perspective is the player StaticEvaluate scores for.
func (l *Logics) Perspective() board.Mark {
	if l.Inverted {
		return board.Second
	}
	return board.First
}

// Table returns the shared zobrist table.
func (l *Logics) Table() *zobrist.Table {
	return l.table
}
