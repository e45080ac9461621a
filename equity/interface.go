// Package equity holds the static evaluation of nested tic-tac-toe
// positions. Every sub-board gets a pair of winning chances, and the
// aggregate score rewards progress along the lines of the meta board.
package equity

const (
	// ChanceScale is the denominator of a WinningChance share. Shares are
	// kept as integers so that swapping the two marks negates the score
	// exactly.
	ChanceScale = 2500

	emptyLineValue = 1
	pairValue      = 400
	singleValue    = 50

	// ScoreScale multiplies the summed line products.
	ScoreScale = 10000
)

// WinningChance is the estimated share of a sub-board held by the first
// and by the second player.
type WinningChance struct {
	own int
	opp int
}

var (
	// FirstWon is the chance of a sub-board resolved for the first player.
	FirstWon = WinningChance{own: ChanceScale}
	// SecondWon is the chance of a sub-board resolved for the second player.
	SecondWon = WinningChance{opp: ChanceScale}
)

// Own is the first player's share, in [0, 1].
func (w WinningChance) Own() float64 {
	return float64(w.own) / ChanceScale
}

// Opp is the second player's share, in [0, 1].
func (w WinningChance) Opp() float64 {
	return float64(w.opp) / ChanceScale
}

// Swapped returns the chance seen with the marks exchanged.
func (w WinningChance) Swapped() WinningChance {
	return WinningChance{own: w.opp, opp: w.own}
}
