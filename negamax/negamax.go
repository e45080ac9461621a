// Package negamax is an adversarial search engine for nested tic-tac-toe.
// It only talks to positions through the rules facade and the position's
// play/unplay, fingerprint and terminal methods.
package negamax

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/config"
	"github.com/domino14/ultimate/game"
	"github.com/domino14/ultimate/rules"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
**/

const HugeNumber = 1 << 30

// WinScore is the value of a won game. Wins found closer to the root score
// higher.
const WinScore = 1_000_000

// MaxVariantLength bounds the length of any line of play.
const MaxVariantLength = board.NumSquares

var (
	ErrGameOver = errors.New("the game is already over")
)

// Credit: MIT-licensed https://github.com/algerbrex/blunder/blob/main/engine/search.go
type PVLine struct {
	Moves []board.Cell
	score int
}

// Clear the principal variation line.
func (pvLine *PVLine) Clear() {
	pvLine.Moves = nil
}

// Update the principal variation line with a new best move,
// and a new line of best play after the best move.
func (pvLine *PVLine) Update(m board.Cell, newPVLine PVLine, score int) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, m)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

// Get the best move from the principal variation line.
func (pvLine *PVLine) GetPVMove() board.Cell {
	return pvLine.Moves[0]
}

func (pvLine PVLine) Score() int {
	return pvLine.score
}

// Convert the principal variation line to a string.
func (pvLine PVLine) String() string {
	var s string
	s = fmt.Sprintf("PV; val %d\n", pvLine.score)
	for i := 0; i < len(pvLine.Moves); i++ {
		s += fmt.Sprintf("%d: %s %v\n", i+1, pvLine.Moves[i].GridString(), pvLine.Moves[i])
	}
	return s
}

func (pvLine PVLine) NLBString() string {
	// no line breaks
	return fmt.Sprintf("PV; val %d; %s", pvLine.score,
		strings.Join(lo.Map(pvLine.Moves, func(c board.Cell, _ int) string {
			return c.GridString()
		}), " "))
}

type Solver struct {
	logics *rules.Logics
	ttable *TranspositionTable

	timeLimit       time.Duration
	depthLimit      int
	quiescenceLimit int

	iterativeDeepeningOptim bool
	transpositionTableOptim bool

	principalVariation PVLine
	bestPVValue        int
	currentIDDepth     int
	nodes              uint64

	logStream io.Writer
}

// NewSolver creates a solver with the search settings of cfg. The solver
// keeps its transposition table between calls to Solve.
func NewSolver(l *rules.Logics, cfg *config.Config) *Solver {
	s := &Solver{
		logics:                  l,
		ttable:                  &TranspositionTable{},
		timeLimit:               cfg.GetDuration(config.ConfigTimeLimitPerMove),
		depthLimit:              cfg.GetInt(config.ConfigSearchDepthLimit),
		quiescenceLimit:         cfg.GetInt(config.ConfigQuiescenceExtensionLimit),
		iterativeDeepeningOptim: true,
		transpositionTableOptim: true,
	}
	if s.depthLimit <= 0 {
		s.depthLimit = 1
	}
	s.ttable.Reset(cfg.GetInt(config.ConfigTTableSizeExponent),
		cfg.GetInt(config.ConfigTTableRetryLimit),
		cfg.GetFloat64(config.ConfigTTableMemoryFraction))
	return s
}

func (s *Solver) SetIterativeDeepening(i bool) {
	s.iterativeDeepeningOptim = i
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) SetDepthLimit(d int) {
	s.depthLimit = max(d, 1)
}

// SetTimeLimit sets the thinking time per Solve call; 0 means no limit.
func (s *Solver) SetTimeLimit(d time.Duration) {
	s.timeLimit = d
}

func (s *Solver) DepthLimit() int {
	return s.depthLimit
}

func (s *Solver) TimeLimit() time.Duration {
	return s.timeLimit
}

// SetLogStream makes the solver write a trace of the root search to w.
func (s *Solver) SetLogStream(w io.Writer) {
	s.logStream = w
}

func (s *Solver) Nodes() uint64 {
	return s.nodes
}

// evaluate returns the static evaluation from the point of view of the
// player to move.
func (s *Solver) evaluate(pos *game.Position) int {
	v := s.logics.StaticEvaluate(pos)
	if pos.OnTurn() != s.logics.Perspective() {
		return -v
	}
	return v
}

type playSorter struct {
	estimates []int
	moves     []board.Cell
}

func (p playSorter) Len() int { return len(p.moves) }
func (p playSorter) Swap(i, j int) {
	p.estimates[i], p.estimates[j] = p.estimates[j], p.estimates[i]
	p.moves[i], p.moves[j] = p.moves[j], p.moves[i]
}
func (p playSorter) Less(i, j int) bool {
	return p.estimates[j] < p.estimates[i]
}

// generateSTMPlays returns the legal moves of the side to move, best
// looking first. The hash move, if any, always goes first.
func (s *Solver) generateSTMPlays(pos *game.Position, hashMove board.Cell, hasHashMove bool) []board.Cell {
	moves := s.logics.LegalMoves(pos)
	estimates := make([]int, len(moves))
	for idx, m := range moves {
		if hasHashMove && m == hashMove {
			estimates[idx] = HugeNumber
			continue
		}
		if err := pos.PlayMove(m); err != nil {
			panic(err)
		}
		// the child is evaluated for the opponent.
		estimates[idx] = -s.evaluate(pos)
		if pos.HasWinner() {
			estimates[idx] = WinScore
		}
		pos.UnplayLastMove()
	}
	sort.Stable(playSorter{estimates: estimates, moves: moves})
	return moves
}

// Solve searches the position reached by history and returns its value for
// the player to move, along with the principal variation.
func (s *Solver) Solve(ctx context.Context, history []board.Cell) (int, PVLine, error) {
	pos, err := s.logics.PositionFromHistory(history)
	if err != nil {
		return 0, PVLine{}, err
	}
	if pos.IsTerminal() {
		return 0, PVLine{}, ErrGameOver
	}
	if s.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeLimit)
		defer cancel()
	}
	s.nodes = 0
	s.principalVariation = PVLine{}
	s.bestPVValue = -HugeNumber

	start := time.Now()
	err = s.iterativelyDeepen(ctx, pos)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return 0, PVLine{}, err
	}
	if len(s.principalVariation.Moves) == 0 {
		// Not even one ply was searched; fall back to the best looking move.
		moves := s.generateSTMPlays(pos, board.Cell{}, false)
		s.principalVariation = PVLine{Moves: moves[:1], score: s.evaluate(pos)}
		s.bestPVValue = s.principalVariation.score
	}
	created, lookups, hits, collisions := s.ttable.Stats()
	log.Debug().
		Uint64("nodes", s.nodes).
		Int("depth", s.currentIDDepth).
		Dur("elapsed", time.Since(start)).
		Uint64("tt-created", created).
		Uint64("tt-lookups", lookups).
		Uint64("tt-hits", hits).
		Uint64("tt-t2-collisions", collisions).
		Str("pv", s.principalVariation.NLBString()).
		Msg("solve-finished")
	return s.bestPVValue, s.principalVariation, nil
}

func (s *Solver) iterativelyDeepen(ctx context.Context, pos *game.Position) error {
	plays := s.generateSTMPlays(pos, board.Cell{}, false)
	maxPlies := min(s.depthLimit, MaxVariantLength-pos.MoveCount())
	start := 1
	if !s.iterativeDeepeningOptim {
		start = maxPlies
	}
	var err error
	for p := start; p <= maxPlies; p++ {
		log.Debug().Int("plies", p).Msg("deepening-iteratively")
		s.currentIDDepth = p
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "- ply: %d\n", p)
		}
		plays, err = s.searchMoves(ctx, pos, plays, p)
		if err != nil {
			return err
		}
		if s.bestPVValue >= WinScore-MaxVariantLength || s.bestPVValue <= -WinScore+MaxVariantLength {
			log.Debug().Int("value", s.bestPVValue).Msg("game-decided")
			return nil
		}
	}
	return nil
}

type solution struct {
	m     board.Cell
	score int
}

// searchMoves searches every root move to the given depth. It returns the
// root moves sorted best first, for use as the next iteration's ordering.
func (s *Solver) searchMoves(ctx context.Context, pos *game.Position, moves []board.Cell, plies int) ([]board.Cell, error) {
	α := -HugeNumber
	β := HugeNumber
	bestValue := -HugeNumber
	sols := make([]*solution, 0, len(moves))
	pv := PVLine{}
	childPV := PVLine{}
	if s.logStream != nil {
		fmt.Fprint(s.logStream, "  plays:\n")
	}
	for _, m := range moves {
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "  - play: %v\n", m.GridString())
		}
		if err := pos.PlayMove(m); err != nil {
			return nil, err
		}
		score, err := s.negamax(ctx, pos, plies-1, 1, s.quiescenceLimit, -β, -α, &childPV)
		pos.UnplayLastMove()
		if err != nil {
			return nil, err
		}
		sol := &solution{m: m, score: -score}
		if s.logStream != nil {
			fmt.Fprintf(s.logStream, "    value: %v\n", sol.score)
		}
		if sol.score > bestValue {
			bestValue = sol.score
			pv.Update(m, childPV, sol.score)
		}
		α = max(α, bestValue)
		childPV.Clear()
		sols = append(sols, sol)
	}
	// Only publish complete iterations.
	s.principalVariation = pv
	s.bestPVValue = bestValue
	log.Debug().Int("plies", plies).Uint64("nodes", s.nodes).
		Str("pv", pv.NLBString()).Msg("iteration-done")

	// biggest to smallest
	sort.SliceStable(sols, func(i, j int) bool {
		return sols[j].score < sols[i].score
	})
	return lo.Map(sols, func(item *solution, idx int) board.Cell {
		return item.m
	}), nil
}

// toTT converts a win score to be relative to the current node, so it can
// be reused at a different ply.
func toTT(score, ply int) int {
	switch {
	case score >= WinScore-MaxVariantLength:
		return score + ply
	case score <= -WinScore+MaxVariantLength:
		return score - ply
	}
	return score
}

func fromTT(score, ply int) int {
	switch {
	case score >= WinScore-MaxVariantLength:
		return score - ply
	case score <= -WinScore+MaxVariantLength:
		return score + ply
	}
	return score
}

func (s *Solver) negamax(ctx context.Context, pos *game.Position, depth, ply, quiescence int,
	α, β int, pv *PVLine) (int, error) {

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	s.nodes++

	if pos.IsTerminal() {
		if pos.HasWinner() {
			// The previous move won the game.
			return -(WinScore - ply), nil
		}
		return 0, nil
	}
	if depth <= 0 {
		if pos.IsQuiet() || quiescence <= 0 {
			return s.evaluate(pos), nil
		}
		// A sub-board was just won at the horizon; look one ply further.
		depth = 1
		quiescence--
	}

	// Note: if we return early as in here, the PV might not be complete.
	// The value should still be correct, though.
	alphaOrig := α
	key := pos.Fingerprint()
	var hashMove board.Cell
	var hasHashMove bool
	if s.transpositionTableOptim {
		ttEntry := s.ttable.lookup(key)
		if ttEntry.valid() {
			hashMove, hasHashMove = ttEntry.move()
			if int(ttEntry.depth()) >= depth {
				score := fromTT(int(ttEntry.score), ply)
				switch ttEntry.flag() {
				case TTExact:
					return score, nil
				case TTLower:
					α = max(α, score)
				case TTUpper:
					β = min(β, score)
				}
				if α >= β {
					return score, nil
				}
			}
		}
	}

	childPV := PVLine{}
	bestValue := -HugeNumber
	var bestMove board.Cell
	for _, m := range s.generateSTMPlays(pos, hashMove, hasHashMove) {
		if err := pos.PlayMove(m); err != nil {
			return 0, err
		}
		value, err := s.negamax(ctx, pos, depth-1, ply+1, quiescence, -β, -α, &childPV)
		pos.UnplayLastMove()
		if err != nil {
			return 0, err
		}
		if -value > bestValue {
			bestValue = -value
			bestMove = m
			pv.Update(m, childPV, bestValue)
		}
		α = max(α, bestValue)
		childPV.Clear()
		if α >= β {
			break // beta cut-off
		}
	}

	if s.transpositionTableOptim {
		var flag uint8
		switch {
		case bestValue <= alphaOrig:
			flag = TTUpper
		case bestValue >= β:
			flag = TTLower
		default:
			flag = TTExact
		}
		s.ttable.store(key, newEntry(toTT(bestValue, ply), flag, depth, bestMove, true))
	}
	return bestValue, nil
}
