package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/lox/clockpatience/cmd/clockpatience/shared"
	"github.com/lox/clockpatience/internal/simulator"
	"github.com/lox/clockpatience/internal/statistics"
)

// SimulateCmd plays many automatic games per rule variant
type SimulateCmd struct {
	Games    int      `kong:"default='10000',help='Games to simulate per rule variant'"`
	Shuffles int      `kong:"default='3',help='Cut-and-shuffles before each deal'"`
	Rules    []string `kong:"default='original,alternative',help='Rule variants to simulate'"`
	Seed     int64    `kong:"default='0',help='Seed for cut sequences (0 for random)'"`
	Workers  int      `kong:"default='0',help='Parallel workers (0 uses GOMAXPROCS)'"`
	Prefix   string   `kong:"default='sim',help='Game identifier prefix'"`
	Debug    bool     `kong:"help='Enable debug logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(shared.LevelFor(c.Debug))
	ctx := shared.SetupSignalHandler(logger)

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	fmt.Printf("Simulating %d games per variant (%d shuffles, seed %d)\n\n", c.Games, c.Shuffles, seed)

	for _, rules := range c.Rules {
		sim, err := simulator.New(simulator.Config{
			Games:    c.Games,
			Shuffles: c.Shuffles,
			Rules:    rules,
			Seed:     seed,
			Workers:  c.Workers,
			Prefix:   c.Prefix,
			Logger:   logger,
		})
		if err != nil {
			return err
		}

		start := time.Now()
		stats, err := sim.Run(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", rules, err)
		}
		printStats(sim.Rules().Name(), stats, time.Since(start))
	}
	return nil
}

func printStats(rules string, s *statistics.Statistics, elapsed time.Duration) {
	lo, hi := s.WinRateCI95()
	mlo, mhi := s.ConfidenceInterval95()

	fmt.Printf("=== %s rules ===\n", rules)
	fmt.Printf("Games:     %d in %s (%.0f games/sec)\n", s.Games, elapsed.Round(time.Millisecond), float64(s.Games)/elapsed.Seconds())
	fmt.Printf("Wins:      %d (%.2f%%, 95%% CI [%.2f%%, %.2f%%])\n", s.Wins, s.WinRate()*100, lo*100, hi*100)
	fmt.Printf("Moves:     mean %.2f ± %.2f SE, 95%% CI [%.2f, %.2f]\n", s.Mean(), s.StdError(), mlo, mhi)
	fmt.Printf("           median %.0f, p10 %.0f, p90 %.0f\n", s.Median(), s.Percentile(0.1), s.Percentile(0.9))

	reasons := make([]string, 0, len(s.Reasons))
	for reason := range s.Reasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		count := s.Reasons[reason]
		fmt.Printf("  %-12s %6d (%.2f%%)\n", reason, count, 100*float64(count)/float64(s.Games))
	}
	fmt.Println()
}
