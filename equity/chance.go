package equity

import (
	"fmt"

	"github.com/domino14/ultimate/board"
)

func (w WinningChance) String() string {
	return fmt.Sprintf("P[%.3f#%.3f]", w.Own(), w.Opp())
}

// Chance computes the winning chance of a single sub-board. resolved is the
// sub-board's slot on the meta board.
func Chance(local *board.LocalBoard, resolved board.Mark) WinningChance {
	switch resolved {
	case board.First:
		return FirstWon
	case board.Second:
		return SecondWon
	}

	ownScore, oppScore := 0, 0
	for _, line := range board.Lines {
		own, opp := 0, 0
		for _, idx := range line {
			switch local[idx] {
			case board.First:
				own++
			case board.Second:
				opp++
			}
		}
		switch {
		case own == 0 && opp == 0:
			ownScore += emptyLineValue
			oppScore += emptyLineValue
		case own > 0 && opp > 0:
			// blocked line
		case own == 2:
			ownScore += pairValue
		case opp == 2:
			oppScore += pairValue
		case own == 1:
			ownScore += singleValue
		case opp == 1:
			oppScore += singleValue
		}
	}
	if ownScore == 0 && oppScore == 0 {
		return WinningChance{}
	}

	// own share is 0.5 + (ownScore-oppScore)/2500, clamped to [0, 1].
	own := ChanceScale/2 + ownScore - oppScore
	own = max(0, min(ChanceScale, own))
	return WinningChance{own: own, opp: ChanceScale - own}
}

// Score sums, over every line of the meta board, the product of the
// first player's shares minus the product of the second player's shares,
// scaled by ScoreScale. A positive score favors the first player.
func Score(chances *[board.NumBoards]WinningChance) int {
	var own, opp int64
	for _, line := range board.Lines {
		a, b, c := chances[line[0]], chances[line[1]], chances[line[2]]
		own += int64(a.own) * int64(b.own) * int64(c.own)
		opp += int64(a.opp) * int64(b.opp) * int64(c.opp)
	}
	const denom = int64(ChanceScale) * ChanceScale * ChanceScale
	return int(ScoreScale * (own - opp) / denom)
}
