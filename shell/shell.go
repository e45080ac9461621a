package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/config"
	"github.com/domino14/ultimate/game"
	"github.com/domino14/ultimate/negamax"
	"github.com/domino14/ultimate/rules"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format for option")
	errQuit              = errors.New("sending quit signal")
)

type ShellController struct {
	l     *readline.Instance
	out   io.Writer
	outMu sync.Mutex

	config *config.Config
	logics *rules.Logics
	solver *negamax.Solver
	pos    *game.Position

	// engine replies automatically for this side; Empty means never.
	aiSide board.Mark

	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) (*ShellController, error) {
	sc, err := newController(cfg, nil)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31multimate>\033[0m ",
		HistoryFile:     "/tmp/ultimate-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc, nil
}

// newController creates a controller that writes to out, without a
// terminal attached.
func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	logics, err := rules.NewLogicsFromSeed(cfg.GetUint64(config.ConfigZobristSeed))
	if err != nil {
		return nil, err
	}
	sc := &ShellController{
		out:    out,
		config: cfg,
		logics: logics,
		solver: negamax.NewSolver(logics, cfg),
	}
	sc.pos = logics.CreateEmptyPosition()
	return sc, nil
}

// showMessage may be called from the autoplay goroutine.
func (sc *ShellController) showMessage(msg string) {
	sc.outMu.Lock()
	defer sc.outMu.Unlock()
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its arguments and its
// -options. Every option takes exactly one value.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := CmdOptions{}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		if sig != nil {
			sig <- syscall.SIGINT
		}
		return nil, errQuit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "gen", "moves":
		return sc.gen(cmd)
	case "eval":
		return sc.eval(cmd)
	case "solve":
		return sc.solve(cmd)
	case "aiplay":
		return sc.aiplay(cmd)
	case "ai":
		return sc.ai(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, fmt.Errorf("unknown command %q; type help for a list", cmd.cmd)
	}
}

// Execute runs a single command line.
func (sc *ShellController) Execute(sig chan os.Signal, line string) {
	resp, err := sc.standardModeSwitch(line, sig)
	if err != nil {
		if !errors.Is(err, errQuit) {
			sc.showError(err)
		}
		return
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()

	sc.showMessage(sc.pos.ToDisplayText())
	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.standardModeSwitch(line, sig)
		if errors.Is(err, errQuit) {
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

// Cleanup stops any background autoplay.
func (sc *ShellController) Cleanup() {
	log.Info().Msg("cleaning up shell")
	sc.stopAutoplay()
}
