package shell

import (
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/ultimate/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -file /path/to/log.txt",
			&shellcmd{"autoplay", nil, map[string]string{"file": "/path/to/log.txt"}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, map[string]string{}},
			nil},
		{"solve -depth 4 -time 2s ",
			&shellcmd{"solve", nil, map[string]string{"depth": "4", "time": "2s"}},
			nil,
		},
		{"autoplay 20 -threads 2 -file 'my log.txt'",
			&shellcmd{"autoplay", []string{"20"},
				map[string]string{"threads": "2", "file": "my log.txt"}},
			nil,
		},
		{"autoplay 20 -file",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func newTestController(t *testing.T) (*ShellController, *strings.Builder) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSearchDepthLimit, 1)
	cfg.Set(config.ConfigTimeLimitPerMove, "10s")
	cfg.Set(config.ConfigTTableSizeExponent, 10)
	cfg.Set(config.ConfigZobristSeed, 5)
	var out strings.Builder
	sc, err := newController(cfg, &out)
	if err != nil {
		t.Fatal(err)
	}
	return sc, &out
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)

	sc.Execute(nil, "play 4:4")
	is.Equal(sc.pos.MoveCount(), 1)
	is.True(strings.Contains(out.String(), "O to move"))

	out.Reset()
	sc.Execute(nil, "undo")
	is.Equal(sc.pos.MoveCount(), 0)
	is.True(!strings.Contains(out.String(), "Error"))

	out.Reset()
	sc.Execute(nil, "undo")
	is.True(strings.HasPrefix(out.String(), "Error: "))
}

func TestPlayErrors(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)

	sc.Execute(nil, "play 9:0")
	is.True(strings.HasPrefix(out.String(), "Error: "))

	out.Reset()
	sc.Execute(nil, "play")
	is.True(strings.Contains(out.String(), "usage: play row:col"))

	// 4:4 sends the reply to the center board.
	sc.Execute(nil, "play 4:4")
	out.Reset()
	sc.Execute(nil, "play 0:0")
	is.True(strings.HasPrefix(out.String(), "Error: "))
	is.Equal(sc.pos.MoveCount(), 1)

	out.Reset()
	sc.Execute(nil, "frobnicate")
	is.True(strings.Contains(out.String(), "unknown command"))
}

func TestEngineReplies(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)

	sc.Execute(nil, "ai o")
	sc.Execute(nil, "play 4:4")
	is.Equal(sc.pos.MoveCount(), 2)
	is.True(strings.Contains(out.String(), "Engine (O) plays"))

	sc.Execute(nil, "ai off")
	sc.Execute(nil, "aiplay")
	is.Equal(sc.pos.MoveCount(), 3)

	out.Reset()
	sc.Execute(nil, "new")
	is.Equal(sc.pos.MoveCount(), 0)

	// the engine opens when it plays the first side.
	sc.Execute(nil, "ai x")
	is.Equal(sc.pos.MoveCount(), 1)
	sc.Execute(nil, "new")
	is.Equal(sc.pos.MoveCount(), 1)
}

func TestSolveDoesNotPlay(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)
	sc.Execute(nil, "play 4:4")

	out.Reset()
	sc.Execute(nil, "solve -depth 2 -time 5s")
	is.Equal(sc.pos.MoveCount(), 1)
	is.True(strings.Contains(out.String(), "Best move: "))
	is.True(strings.Contains(out.String(), "Value for O"))
	// options do not stick
	is.Equal(sc.solver.DepthLimit(), 1)

	out.Reset()
	sc.Execute(nil, "solve -depth x")
	is.True(strings.HasPrefix(out.String(), "Error: "))
}

func TestGenAndEval(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)

	sc.Execute(nil, "gen")
	is.True(strings.HasPrefix(out.String(), "81 legal moves: "))

	sc.Execute(nil, "play 4:4")
	out.Reset()
	sc.Execute(nil, "gen")
	is.True(strings.HasPrefix(out.String(), "8 legal moves: "))
	is.True(strings.Contains(out.String(), "Forced to play in board 4."))

	out.Reset()
	sc.Execute(nil, "eval")
	is.True(strings.Contains(out.String(), "Static evaluation (for X): 1600"))
	is.True(strings.Contains(out.String(), "board 8: "))
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)
	sc.Execute(nil, "help")
	is.True(strings.HasPrefix(out.String(), "Commands:"))

	out.Reset()
	sc.Execute(nil, "help solve")
	is.True(strings.HasPrefix(out.String(), "solve [-depth n]"))

	out.Reset()
	sc.Execute(nil, "help nope")
	is.True(strings.HasPrefix(out.String(), "There is no help text for the topic nope"))
}

func TestExitSignals(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)
	sig := make(chan os.Signal, 1)
	sc.Execute(sig, "exit")
	is.Equal(<-sig, os.Signal(syscall.SIGINT))
	is.Equal(out.String(), "")
}

func TestAutoplayStartStop(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)

	sc.Execute(nil, "autoplay stop")
	is.True(strings.Contains(out.String(), "autoplay is not running"))

	out.Reset()
	sc.Execute(nil, "autoplay 10000 -threads 1")
	is.True(strings.HasPrefix(out.String(), "Started 10000 games on 1 threads."))

	out.Reset()
	sc.Execute(nil, "autoplay 2")
	is.True(strings.Contains(out.String(), "already running"))

	out.Reset()
	sc.Execute(nil, "autoplay stop")
	// the totals of the games played so far come first.
	is.True(strings.HasPrefix(out.String(), "Autoplay finished: "))
	is.True(strings.HasSuffix(out.String(), "Autoplay stopped.\n"))
	sc.Cleanup()
}

func TestAutoplayRunsAgainAfterFinishing(t *testing.T) {
	is := is.New(t)
	sc, out := newTestController(t)

	sc.Execute(nil, "autoplay 1 -threads 1")
	<-sc.autoplayDone
	is.True(strings.Contains(out.String(), "Autoplay finished: 1 games;"))
	is.True(strings.Contains(out.String(), "1 distinct games"))

	out.Reset()
	sc.Execute(nil, "autoplay 1 -threads 1")
	<-sc.autoplayDone
	is.True(!strings.Contains(out.String(), "Error"))
	is.True(strings.Contains(out.String(), "Started 1 games on 1 threads."))
	is.True(strings.Contains(out.String(), "Autoplay finished: 1 games;"))

	out.Reset()
	sc.Execute(nil, "autoplay stop")
	is.True(strings.Contains(out.String(), "autoplay is not running"))
	sc.Cleanup()
}

func TestCommentary(t *testing.T) {
	is := is.New(t)
	for _, tc := range []struct {
		value int
		exp   string
	}{
		{999999, "winning by force"},
		{8000, "crushing"},
		{3001, "clearly better"},
		{3000, "roughly level"},
		{0, "roughly level"},
		{-2001, "worse"},
		{-6000, "in deep trouble"},
	} {
		is.Equal(commentary(tc.value), tc.exp)
	}
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	sc, _ := newTestController(t)
	c := NewShellCompleter(sc)

	m, n := c.Do([]rune("sol"), 3)
	is.Equal(m, [][]rune{[]rune("ve")})
	is.Equal(n, 3)

	line := "ai "
	m, n = c.Do([]rune(line), len(line))
	is.Equal(len(m), 3)
	is.Equal(n, 0)

	line = "solve -d"
	m, _ = c.Do([]rune(line), len(line))
	is.Equal(m, [][]rune{[]rune("epth")})

	sc.Execute(nil, "play 4:4")
	line = "play 3:"
	m, _ = c.Do([]rune(line), len(line))
	// row 3 of the center board
	is.Equal(len(m), 3)
}
