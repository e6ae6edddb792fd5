package simulator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
	"github.com/lox/clockpatience/internal/randutil"
	"github.com/lox/clockpatience/internal/statistics"
)

// Config holds configuration for running simulations
type Config struct {
	Games    int
	Shuffles int    // cut-and-shuffles applied before each deal
	Rules    string // rule variant name
	Seed     int64
	Workers  int    // defaults to GOMAXPROCS
	Prefix   string // game identifiers are "<prefix>-<index>"
	Logger   zerolog.Logger
}

// Simulator plays many automatic games and aggregates the results
type Simulator struct {
	config Config
	rules  game.RuleSet
}

// New creates a new simulator with the given configuration
func New(config Config) (*Simulator, error) {
	rules, err := game.RulesByName(config.Rules)
	if err != nil {
		return nil, err
	}
	if config.Games <= 0 {
		return nil, fmt.Errorf("games must be positive, got %d", config.Games)
	}
	if config.Shuffles <= 0 {
		config.Shuffles = 1
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	if config.Workers > config.Games {
		config.Workers = config.Games
	}
	if config.Prefix == "" {
		config.Prefix = "sim"
	}
	return &Simulator{config: config, rules: rules}, nil
}

// Rules returns the rule set being simulated
func (s *Simulator) Rules() game.RuleSet {
	return s.rules
}

// Run plays every game and returns the merged statistics. Game i always uses
// the same identifier and cut sequence, so results do not depend on the
// number of workers.
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, error) {
	logger := s.config.Logger.With().Str("component", "simulator").Str("rules", s.rules.Name()).Logger()
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	partials := make([]*statistics.Statistics, s.config.Workers)

	for w := 0; w < s.config.Workers; w++ {
		partials[w] = &statistics.Statistics{}
		g.Go(func() error {
			for i := w; i < s.config.Games; i += s.config.Workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				result, err := s.playIndex(i)
				if err != nil {
					return err
				}
				partials[w].Add(result)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats := &statistics.Statistics{}
	for _, p := range partials {
		stats.Merge(p)
	}
	if err := stats.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	logger.Info().
		Int("games", stats.Games).
		Int("wins", stats.Wins).
		Int("workers", s.config.Workers).
		Dur("elapsed", time.Since(start)).
		Msg("Simulation complete")
	return stats, nil
}

func (s *Simulator) playIndex(i int) (statistics.GameResult, error) {
	id := fmt.Sprintf("%s-%d", s.config.Prefix, i)
	cuts := randutil.Cuts(randutil.ForGame(s.config.Seed, i), s.config.Shuffles)
	result, err := PlayOne(id, s.rules, cuts)
	if err != nil {
		return result, fmt.Errorf("game %s: %w", id, err)
	}
	result.Index = i
	return result, nil
}

// PlayOne creates the game a server would create for id, applies cuts,
// deals and plays it to the end automatically.
func PlayOne(id string, rules game.RuleSet, cuts []int) (statistics.GameResult, error) {
	g := game.New(deck.NewDeck(deck.WithSeed(deck.SeedFromID(id))), game.WithID(id), game.WithRules(rules))
	for _, cut := range cuts {
		if _, err := g.Shuffle(cut); err != nil {
			return statistics.GameResult{}, err
		}
	}
	if _, err := g.Start(); err != nil {
		return statistics.GameResult{}, err
	}
	res, err := game.AutoPlay(g, 0)
	if err != nil {
		return statistics.GameResult{}, err
	}
	return statistics.GameResult{
		Cuts:   cuts,
		Won:    res.Status == game.StatusWon,
		Reason: string(res.Reason),
		Moves:  res.Moves,
		Kings:  g.State().KingsRevealed,
	}, nil
}
