package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/ultimate/automatic"
	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/config"
)

type Response struct {
	message string
}

type CmdOptions map[string]string

func (c CmdOptions) String(key string) string {
	return c[key]
}

func (c CmdOptions) Int(key string) (int, error) {
	v, ok := c[key]
	if !ok {
		return 0, errors.New(key + " not found in options")
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v, ok := c[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

func (c CmdOptions) DurationDefault(key string, defaultD time.Duration) (time.Duration, error) {
	v, ok := c[key]
	if !ok {
		return defaultD, nil
	}
	return time.ParseDuration(v)
}

func msg(message string) *Response {
	return &Response{message: message}
}

// commentary describes a search value from the point of view of the side
// that was searched.
func commentary(value int) string {
	switch {
	case value > 11000:
		return "winning by force"
	case value > 7000:
		return "crushing"
	case value > 3000:
		return "clearly better"
	case value < -5000:
		return "in deep trouble"
	case value < -2000:
		return "worse"
	}
	return "roughly level"
}

func forecast(moves []board.Cell) string {
	return strings.Join(lo.Map(moves, func(c board.Cell, _ int) string {
		return c.GridString()
	}), " --> ")
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	if len(cmd.args) == 0 {
		usage(&sb, "standard")
	} else {
		usageTopic(&sb, cmd.args[0])
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	sc.pos = sc.logics.CreateEmptyPosition()
	var sb strings.Builder
	if sc.aiSide == board.First {
		line, err := sc.engineMove()
		if err != nil {
			return nil, err
		}
		sb.WriteString(line)
	}
	sb.WriteString(sc.pos.ToDisplayText())
	return msg(sb.String()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: play row:col")
	}
	c, err := board.ParseGridCoords(cmd.args[0])
	if err != nil {
		return nil, err
	}
	if err := sc.pos.PlayMove(c); err != nil {
		return nil, err
	}
	log.Debug().Str("cell", c.String()).Int("move", sc.pos.MoveCount()).Msg("played")
	var sb strings.Builder
	if !sc.pos.IsTerminal() && sc.pos.OnTurn() == sc.aiSide {
		line, err := sc.engineMove()
		if err != nil {
			return nil, err
		}
		sb.WriteString(line)
	}
	sb.WriteString(sc.pos.ToDisplayText())
	return msg(sb.String()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	n := 1
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	for i := 0; i < n; i++ {
		if err := sc.pos.UnplayLastMove(); err != nil {
			return nil, err
		}
	}
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) gen(cmd *shellcmd) (*Response, error) {
	moves := sc.pos.AllLegalMoves()
	if len(moves) == 0 {
		return msg("No legal moves; the game is over."), nil
	}
	s := fmt.Sprintf("%d legal moves: %s", len(moves),
		strings.Join(lo.Map(moves, func(c board.Cell, _ int) string {
			return c.GridString()
		}), " "))
	if b, ok := sc.pos.ForcedBoard(); ok {
		s += fmt.Sprintf("\nForced to play in board %d.", b)
	}
	return msg(s), nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Static evaluation (for %v): %d\n", board.First, sc.pos.Score())
	fmt.Fprintf(&sb, "Fingerprint: %016x\n", sc.pos.Fingerprint())
	meta := sc.pos.MetaBoard()
	for b := 0; b < board.NumBoards; b++ {
		if meta[b] != board.Empty {
			fmt.Fprintf(&sb, "  board %d: won by %v\n", b, meta[b])
			continue
		}
		fmt.Fprintf(&sb, "  board %d: %v\n", b, sc.pos.Chance(b))
	}
	return msg(strings.TrimRight(sb.String(), "\n")), nil
}

// solve searches the current position without playing a move.
func (sc *ShellController) solve(cmd *shellcmd) (*Response, error) {
	depth, err := cmd.options.IntDefault("depth", sc.solver.DepthLimit())
	if err != nil {
		return nil, err
	}
	tl, err := cmd.options.DurationDefault("time", sc.solver.TimeLimit())
	if err != nil {
		return nil, err
	}
	origDepth, origTime := sc.solver.DepthLimit(), sc.solver.TimeLimit()
	sc.solver.SetDepthLimit(depth)
	sc.solver.SetTimeLimit(tl)
	defer func() {
		sc.solver.SetDepthLimit(origDepth)
		sc.solver.SetTimeLimit(origTime)
	}()

	value, pv, err := sc.solver.Solve(context.Background(), sc.pos.History())
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("Value for %v: %d (%s)\nBest move: %s\nForecast: %s",
		sc.pos.OnTurn(), value, commentary(value), pv.Moves[0].GridString(),
		forecast(pv.Moves))), nil
}

// engineMove has the engine play for the side on turn, and describes the
// move.
func (sc *ShellController) engineMove() (string, error) {
	onturn := sc.pos.OnTurn()
	value, pv, err := sc.solver.Solve(context.Background(), sc.pos.History())
	if err != nil {
		return "", err
	}
	best := pv.Moves[0]
	if err := sc.pos.PlayMove(best); err != nil {
		return "", err
	}
	return fmt.Sprintf("Engine (%v) plays %s. Value: %d (%s)\nForecast: %s\n",
		onturn, best.GridString(), value, commentary(value), forecast(pv.Moves)), nil
}

func (sc *ShellController) aiplay(cmd *shellcmd) (*Response, error) {
	line, err := sc.engineMove()
	if err != nil {
		return nil, err
	}
	return msg(line + sc.pos.ToDisplayText()), nil
}

// ai sets the side the engine plays for after each human move.
func (sc *ShellController) ai(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: ai x|o|off")
	}
	switch strings.ToLower(cmd.args[0]) {
	case "x":
		sc.aiSide = board.First
	case "o":
		sc.aiSide = board.Second
	case "off":
		sc.aiSide = board.Empty
		return msg("Engine will not move on its own."), nil
	default:
		return nil, fmt.Errorf("unknown side %q", cmd.args[0])
	}
	s := fmt.Sprintf("Engine plays %v.", sc.aiSide)
	if !sc.pos.IsTerminal() && sc.pos.OnTurn() == sc.aiSide {
		line, err := sc.engineMove()
		if err != nil {
			return nil, err
		}
		s += "\n" + line + sc.pos.ToDisplayText()
	}
	return msg(s), nil
}

func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 1 && cmd.args[0] == "stop" {
		if !sc.autoplayRunning() {
			return nil, errors.New("autoplay is not running")
		}
		sc.stopAutoplay()
		return msg("Autoplay stopped."), nil
	}
	if sc.autoplayRunning() {
		return nil, errors.New("autoplay is already running; use autoplay stop first")
	}
	numGames := 100
	if len(cmd.args) == 1 {
		var err error
		numGames, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigAutoplayThreads))
	if err != nil {
		return nil, err
	}
	var outFile *os.File
	if path := cmd.options.String("file"); path != "" {
		outFile, err = os.Create(path)
		if err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	sc.autoplayCancel = cancel
	sc.autoplayDone = make(chan struct{})
	done := sc.autoplayDone
	go func() {
		defer close(done)
		var summary automatic.Summary
		var err error
		if outFile != nil {
			defer outFile.Close()
			summary, err = automatic.PlayGames(ctx, sc.config, numGames, threads, outFile)
		} else {
			summary, err = automatic.PlayGames(ctx, sc.config, numGames, threads, nil)
		}
		if err != nil {
			log.Err(err).Msg("autoplay-error")
			sc.showError(err)
			return
		}
		sc.showMessage(summaryText(summary))
	}()
	return msg(fmt.Sprintf("Started %d games on %d threads. Use autoplay stop to stop.",
		numGames, threads)), nil
}

// autoplayRunning reports whether a batch of games is still being played.
// A batch that finished on its own is cleared here.
func (sc *ShellController) autoplayRunning() bool {
	if sc.autoplayCancel == nil {
		return false
	}
	select {
	case <-sc.autoplayDone:
		sc.autoplayCancel()
		sc.autoplayCancel = nil
		return false
	default:
		return true
	}
}

func (sc *ShellController) stopAutoplay() {
	if sc.autoplayCancel == nil {
		return
	}
	sc.autoplayCancel()
	<-sc.autoplayDone
	sc.autoplayCancel = nil
}

func summaryText(s automatic.Summary) string {
	return fmt.Sprintf("Autoplay finished: %d games; %v won %d, %v won %d, %d drawn; "+
		"%d distinct games; average length %.1f moves.",
		s.Games, board.First, s.FirstWins, board.Second, s.SecondWins, s.Draws,
		s.DistinctGames, s.AverageLength)
}
