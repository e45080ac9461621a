package automatic

// Data collection for automatic games: computer vs computer, several games
// at a time.

import (
	"context"
	"errors"
	"expvar"
	"io"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/ultimate/board"
	"github.com/domino14/ultimate/config"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

// Summary totals the results of a batch of games.
type Summary struct {
	Games      int
	FirstWins  int
	SecondWins int
	Draws      int
	// games whose move sequences differ
	DistinctGames int
	// average game length in moves
	AverageLength float64
}

func summarize(results []GameResult) Summary {
	s := Summary{
		Games: len(results),
		FirstWins: lo.CountBy(results, func(r GameResult) bool {
			return r.Winner == board.First
		}),
		SecondWins: lo.CountBy(results, func(r GameResult) bool {
			return r.Winner == board.Second
		}),
		Draws: lo.CountBy(results, GameResult.Draw),
	}
	s.DistinctGames = len(lo.UniqBy(results, gameKey))
	if len(results) > 0 {
		s.AverageLength = float64(lo.SumBy(results, func(r GameResult) int {
			return len(r.Moves)
		})) / float64(len(results))
	}
	return s
}

func gameKey(r GameResult) uint64 {
	return xxhash.Sum64String(strings.Join(lo.Map(r.Moves, func(c board.Cell, _ int) string {
		return c.GridString()
	}), " "))
}

type Job struct {
	id int
}

// PlayGames plays numGames engine-vs-engine games on threads goroutines.
// The games are logged to out as one YAML list; out may be nil. It returns
// when all games are done or ctx is cancelled; games finished by then are
// counted.
func PlayGames(ctx context.Context, cfg *config.Config, numGames, threads int, out io.Writer) (Summary, error) {
	if IsPlaying.Value() > 0 {
		return Summary{}, ErrAlreadyPlaying
	}
	if threads <= 0 {
		threads = cfg.GetInt(config.ConfigAutoplayThreads)
	}
	threads = max(1, min(threads, numGames))
	log.Debug().Int("games", numGames).Int("threads", threads).Msg("starting-autoplay")

	CVCCounter.Set(0)
	var logChan chan string
	loggerDone := make(chan struct{})
	if out != nil {
		logChan = make(chan string, 100)
		go func() {
			defer close(loggerDone)
			for msg := range logChan {
				io.WriteString(out, msg)
			}
		}()
	} else {
		close(loggerDone)
	}

	jobs := make(chan Job, 100)
	results := make(chan GameResult, numGames)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 1; i <= numGames; i++ {
			select {
			case jobs <- Job{id: i}:
			case <-gctx.Done():
				log.Info().Msg("got stop signal, exiting soon...")
				return nil
			}
		}
		log.Debug().Msg("finished-queueing-jobs")
		return nil
	})

	for i := 0; i < threads; i++ {
		g.Go(func() error {
			r, err := NewGameRunner(logChan, cfg)
			if err != nil {
				return err
			}
			IsPlaying.Add(1)
			defer IsPlaying.Add(-1)
			for j := range jobs {
				res, err := r.PlayGame(gctx, j.id)
				if err != nil {
					if gctx.Err() != nil {
						// stopped mid-game; the game does not count.
						return nil
					}
					return err
				}
				results <- res
				CVCCounter.Add(1)
			}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	if logChan != nil {
		close(logChan)
	}
	<-loggerDone

	finished := make([]GameResult, 0, numGames)
	for res := range results {
		finished = append(finished, res)
	}
	summary := summarize(finished)
	log.Info().Int("games", summary.Games).Int("first-wins", summary.FirstWins).
		Int("second-wins", summary.SecondWins).Int("draws", summary.Draws).
		Int("distinct-games", summary.DistinctGames).
		Float64("average-length", summary.AverageLength).Msg("autoplay-done")
	return summary, err
}
