// Package automatic plays complete games of nested tic-tac-toe between two
// engines, for testing the engine against itself.
package automatic

import (
	"context"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/config"
	"github.com/domino14/ultimate/game"
	"github.com/domino14/ultimate/negamax"
	"github.com/domino14/ultimate/rules"
)

// DefaultOpeningPlies is how many random moves start each game, so that
// repeated games between the same engines differ.
const DefaultOpeningPlies = 2

// LogGame is the log entry written for every finished game.
type LogGame struct {
	ID     int       `yaml:"game"`
	Winner string    `yaml:"winner"`
	Moves  []LogMove `yaml:"moves"`
}

type LogMove struct {
	Ply    int    `yaml:"ply"`
	Player string `yaml:"player"`
	Move   string `yaml:"move"`
	// engine value for the player
	Value  int  `yaml:"value,omitempty"`
	Random bool `yaml:"random,omitempty"`
}

// GameResult is the outcome of one finished game.
type GameResult struct {
	ID     int
	Winner board.Mark
	Moves  []board.Cell
}

func (r GameResult) Draw() bool {
	return r.Winner == board.Empty
}

// GameRunner is the master struct here for the automatic game logic. Each
// runner owns its own positions and solvers, so runners can play in
// parallel.
type GameRunner struct {
	logics  *rules.Logics
	solvers [2]*negamax.Solver
	pos     *game.Position
	rng     *frand.RNG

	config       *config.Config
	openingPlies int
	logchan      chan string
	curLog       []LogMove
}

// NewGameRunner creates a runner. If logchan is not nil, a YAML log of
// every finished game is sent to it.
func NewGameRunner(logchan chan string, cfg *config.Config) (*GameRunner, error) {
	logics, err := rules.NewLogicsFromSeed(cfg.GetUint64(config.ConfigZobristSeed))
	if err != nil {
		return nil, err
	}
	r := &GameRunner{
		logics:       logics,
		config:       cfg,
		openingPlies: DefaultOpeningPlies,
		logchan:      logchan,
		rng:          frand.New(),
	}
	for i := range r.solvers {
		r.solvers[i] = negamax.NewSolver(logics, cfg)
	}
	return r, nil
}

// SetOpeningPlies sets the number of random moves at the start of a game.
func (r *GameRunner) SetOpeningPlies(n int) {
	r.openingPlies = max(n, 0)
}

// SetRNG replaces the generator used for opening moves.
func (r *GameRunner) SetRNG(rng *frand.RNG) {
	r.rng = rng
}

func (r *GameRunner) StartGame() {
	r.pos = r.logics.CreateEmptyPosition()
	r.curLog = r.curLog[:0]
}

func (r *GameRunner) Position() *game.Position {
	return r.pos
}

func solverIdx(m board.Mark) int {
	if m == board.Second {
		return 1
	}
	return 0
}

// PlayBestTurn asks the engine of the player on turn for a move and plays
// it.
func (r *GameRunner) PlayBestTurn(ctx context.Context, gameID int) error {
	onturn := r.pos.OnTurn()
	var best board.Cell
	var score int
	random := r.pos.MoveCount() < r.openingPlies
	if random {
		moves := r.pos.AllLegalMoves()
		best = moves[r.rng.Intn(len(moves))]
	} else {
		var pv negamax.PVLine
		var err error
		score, pv, err = r.solvers[solverIdx(onturn)].Solve(ctx, r.pos.History())
		if err != nil {
			return err
		}
		best = pv.Moves[0]
	}
	if err := r.pos.PlayMove(best); err != nil {
		return err
	}
	if r.logchan != nil {
		r.curLog = append(r.curLog, LogMove{
			Ply:    r.pos.MoveCount(),
			Player: onturn.String(),
			Move:   best.GridString(),
			Value:  score,
			Random: random,
		})
	}
	return nil
}

// PlayGame plays a fresh game to the end.
func (r *GameRunner) PlayGame(ctx context.Context, gameID int) (GameResult, error) {
	r.StartGame()
	for !r.pos.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}
		if err := r.PlayBestTurn(ctx, gameID); err != nil {
			return GameResult{}, err
		}
	}
	res := GameResult{ID: gameID, Winner: r.pos.Winner(), Moves: r.pos.History()}
	if r.logchan != nil {
		winner := "draw"
		if !res.Draw() {
			winner = res.Winner.String()
		}
		out, err := yaml.Marshal([]LogGame{{ID: gameID, Winner: winner, Moves: r.curLog}})
		if err != nil {
			return GameResult{}, err
		}
		r.logchan <- string(out)
	}
	log.Debug().Int("game", gameID).Str("winner", res.Winner.String()).
		Int("moves", len(res.Moves)).Msg("game-over")
	return res, nil
}
