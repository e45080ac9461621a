package automatic

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/matryer/is"
	"gopkg.in/yaml.v3"

	"github.com/domino14/ultimate/board"
)

func TestPlayGames(t *testing.T) {
	is := is.New(t)
	var sb strings.Builder
	summary, err := PlayGames(context.Background(), testConfig(), 4, 2, &sb)
	is.NoErr(err)
	is.Equal(summary.Games, 4)
	is.Equal(summary.FirstWins+summary.SecondWins+summary.Draws, 4)
	is.True(summary.DistinctGames >= 1 && summary.DistinctGames <= 4)
	is.Equal(CVCCounter.Value(), int64(4))
	is.Equal(IsPlaying.Value(), int64(0))

	var games []LogGame
	is.NoErr(yaml.Unmarshal([]byte(sb.String()), &games))
	is.Equal(len(games), 4)
	moves := 0
	ids := map[int]bool{}
	for _, g := range games {
		moves += len(g.Moves)
		ids[g.ID] = true
	}
	is.Equal(len(ids), 4)
	is.Equal(moves, int(math.Round(summary.AverageLength*4)))
}

func TestPlayGamesStopped(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := PlayGames(ctx, testConfig(), 10, 3, nil)
	is.NoErr(err)
	is.Equal(summary.Games, 0)
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	results := []GameResult{
		{Winner: board.First, Moves: make([]board.Cell, 20)},
		{Winner: board.Second, Moves: make([]board.Cell, 30)},
		{Winner: board.Empty, Moves: make([]board.Cell, 81)},
		{Winner: board.First, Moves: make([]board.Cell, 25)},
		{Winner: board.First, Moves: make([]board.Cell, 20)},
	}
	s := summarize(results)
	is.Equal(s, Summary{Games: 5, FirstWins: 3, SecondWins: 1, Draws: 1,
		DistinctGames: 4, AverageLength: 35.2})
	is.Equal(summarize(nil), Summary{})
}
