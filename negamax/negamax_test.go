package negamax

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/config"
	"github.com/domino14/ultimate/game"
	"github.com/domino14/ultimate/rules"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func setUpSolver(t *testing.T, depth int) (*Solver, *rules.Logics) {
	t.Helper()
	l, err := rules.NewSeededLogics(42)
	if err != nil {
		t.Fatal(err)
	}
	return solverFor(l, depth, 0), l
}

func solverFor(l *rules.Logics, depth, quiescence int) *Solver {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSearchDepthLimit, depth)
	cfg.Set(config.ConfigQuiescenceExtensionLimit, quiescence)
	cfg.Set(config.ConfigTimeLimitPerMove, "30s")
	cfg.Set(config.ConfigTTableSizeExponent, 14)
	return NewSolver(l, cfg)
}

func cells(pairs ...int) []board.Cell {
	cs := make([]board.Cell, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		cs = append(cs, board.NewCell(pairs[i], pairs[i+1]))
	}
	return cs
}

// X to move, and (0,2) wins sub-board 0.
var subBoardThreat = cells(
	4, 4, 4, 0, 0, 0, 0, 4, 4, 1, 1, 0,
	0, 1, 1, 3, 3, 2, 2, 0,
)

// findWinInOne plays random games until the side to move can win the
// whole game with a single move.
func findWinInOne(t *testing.T, l *rules.Logics) []board.Cell {
	t.Helper()
	for seed := byte(1); seed < 200; seed++ {
		s := make([]byte, 32)
		s[0] = seed
		rng := frand.NewCustom(s, 1024, 12)
		pos := l.CreateEmptyPosition()
		for !pos.IsTerminal() {
			moves := pos.AllLegalMoves()
			for _, m := range moves {
				if err := pos.PlayMove(m); err != nil {
					t.Fatal(err)
				}
				won := pos.HasWinner()
				pos.UnplayLastMove()
				if won {
					return pos.History()
				}
			}
			if err := pos.PlayMove(moves[rng.Intn(len(moves))]); err != nil {
				t.Fatal(err)
			}
		}
	}
	t.Fatal("no position with a win in one found")
	return nil
}

func TestSolveTakesSubBoard(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, 1)
	_, pv, err := s.Solve(context.Background(), subBoardThreat)
	is.NoErr(err)
	is.Equal(pv.Moves[0], board.NewCell(0, 2))
}

func TestSolveEmptyPosition(t *testing.T) {
	is := is.New(t)
	s, l := setUpSolver(t, 3)
	score, pv, err := s.Solve(context.Background(), nil)
	is.NoErr(err)
	is.True(len(pv.Moves) >= 1)
	is.Equal(pv.Score(), score)

	shortlist := l.LegalMoves(l.CreateEmptyPosition())
	found := false
	for _, m := range shortlist {
		if m == pv.Moves[0] {
			found = true
		}
	}
	is.True(found)

	// the principal variation is a playable line.
	_, err = l.PositionFromHistory(pv.Moves)
	is.NoErr(err)
	is.True(s.Nodes() > 0)
}

func TestSolveFindsWinInOne(t *testing.T) {
	is := is.New(t)
	s, l := setUpSolver(t, 4)
	history := findWinInOne(t, l)

	score, pv, err := s.Solve(context.Background(), history)
	is.NoErr(err)
	is.Equal(score, WinScore-1)

	pos, err := l.PositionFromHistory(history)
	is.NoErr(err)
	is.NoErr(pos.PlayMove(pv.Moves[0]))
	is.True(pos.HasWinner())
}

func TestSolveQuiescenceSeesReply(t *testing.T) {
	is := is.New(t)
	l, err := rules.NewSeededLogics(42)
	is.NoErr(err)

	flat := solverFor(l, 1, 0)
	flatScore, _, err := flat.Solve(context.Background(), subBoardThreat)
	is.NoErr(err)

	// Taking sub-board 0 at the horizon is not quiet, so the reply to it is
	// searched as well.
	extended := solverFor(l, 1, 1)
	extScore, _, err := extended.Solve(context.Background(), subBoardThreat)
	is.NoErr(err)

	is.True(extScore != flatScore)
	is.True(extended.Nodes() > flat.Nodes())

	// Without a capture at the horizon the extension changes nothing.
	quiet := cells(4, 4)
	flatScore, flatPV, err := flat.Solve(context.Background(), quiet)
	is.NoErr(err)
	extScore, extPV, err := extended.Solve(context.Background(), quiet)
	is.NoErr(err)
	is.Equal(extScore, flatScore)
	is.Equal(extPV.Moves, flatPV.Moves)
}

func TestSolveInvertedLogics(t *testing.T) {
	is := is.New(t)
	plain, err := rules.NewSeededLogics(42)
	is.NoErr(err)
	inverted, err := rules.NewSeededLogics(42)
	is.NoErr(err)
	inverted.Inverted = true

	for _, history := range [][]board.Cell{nil, cells(4, 4), subBoardThreat} {
		want, wantPV, err := solverFor(plain, 2, 1).Solve(context.Background(), history)
		is.NoErr(err)
		got, gotPV, err := solverFor(inverted, 2, 1).Solve(context.Background(), history)
		is.NoErr(err)
		// values are for the side to move either way.
		is.Equal(got, want)
		is.Equal(gotPV.Moves, wantPV.Moves)
	}
}

func TestSolveGameOver(t *testing.T) {
	is := is.New(t)
	s, l := setUpSolver(t, 2)
	history := findWinInOne(t, l)
	pos, err := l.PositionFromHistory(history)
	is.NoErr(err)
	for _, m := range pos.AllLegalMoves() {
		is.NoErr(pos.PlayMove(m))
		if pos.HasWinner() {
			break
		}
		pos.UnplayLastMove()
	}
	is.True(pos.HasWinner())

	_, _, err = s.Solve(context.Background(), pos.History())
	is.True(errors.Is(err, ErrGameOver))
}

func TestSolveBadHistory(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, 2)
	_, _, err := s.Solve(context.Background(), cells(4, 4, 4, 4))
	is.True(errors.Is(err, game.ErrOccupied))
}

func TestSolveCancelledStillMoves(t *testing.T) {
	is := is.New(t)
	s, l := setUpSolver(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, pv, err := s.Solve(ctx, subBoardThreat)
	is.NoErr(err)
	is.Equal(len(pv.Moves), 1)

	pos, err := l.PositionFromHistory(subBoardThreat)
	is.NoErr(err)
	is.NoErr(pos.PlayMove(pv.Moves[0]))
}

func TestSolveWithoutOptimizations(t *testing.T) {
	is := is.New(t)
	s, l := setUpSolver(t, 2)
	s.SetIterativeDeepening(false)
	s.SetTranspositionTableOptim(false)
	history := findWinInOne(t, l)
	score, _, err := s.Solve(context.Background(), history)
	is.NoErr(err)
	is.Equal(score, WinScore-1)
}

func TestSolveLogStream(t *testing.T) {
	is := is.New(t)
	s, _ := setUpSolver(t, 2)
	var sb strings.Builder
	s.SetLogStream(&sb)
	_, _, err := s.Solve(context.Background(), subBoardThreat)
	is.NoErr(err)
	is.True(strings.Contains(sb.String(), "- ply: 1"))
	is.True(strings.Contains(sb.String(), "- play: 0:2"))
}

func TestPVLineString(t *testing.T) {
	is := is.New(t)
	var pv PVLine
	pv.Update(board.NewCell(4, 4), PVLine{Moves: cells(4, 0)}, 37)
	is.Equal(pv.GetPVMove(), board.NewCell(4, 4))
	is.Equal(pv.NLBString(), "PV; val 37; 4:4 3:3")
	pv.Clear()
	is.Equal(len(pv.Moves), 0)
}
