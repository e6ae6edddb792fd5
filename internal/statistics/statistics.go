package statistics

import (
	"fmt"
	"math"
	"sort"
)

// GameResult is the outcome of one simulated game
type GameResult struct {
	Index  int    // position of the game within the run (for replay)
	Cuts   []int  // cut points applied before dealing
	Won    bool   // did the game end in a win?
	Reason string // trigger that ended the game
	Moves  int    // placements made
	Kings  int    // Kings placed face up
}

// Statistics accumulates simulation results
type Statistics struct {
	Games  int
	Wins   int
	Sum    float64   // sum of move counts
	SumSq  float64   // sum of squared move counts, for variance
	Values []float64 // every move count, for median/percentile

	Reasons   map[string]int // games ended per trigger
	WinMoves  float64        // moves spent in won games
	LossMoves float64        // moves spent in lost games
	MaxKings  int
}

// Add incorporates a new game result
func (s *Statistics) Add(r GameResult) {
	moves := float64(r.Moves)
	s.Games++
	s.Sum += moves
	s.SumSq += moves * moves
	s.Values = append(s.Values, moves)

	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	s.Reasons[r.Reason]++

	if r.Won {
		s.Wins++
		s.WinMoves += moves
	} else {
		s.LossMoves += moves
	}
	if r.Kings > s.MaxKings {
		s.MaxKings = r.Kings
	}
}

// Merge folds other into s
func (s *Statistics) Merge(other *Statistics) {
	s.Games += other.Games
	s.Wins += other.Wins
	s.Sum += other.Sum
	s.SumSq += other.SumSq
	s.Values = append(s.Values, other.Values...)
	s.WinMoves += other.WinMoves
	s.LossMoves += other.LossMoves
	if other.MaxKings > s.MaxKings {
		s.MaxKings = other.MaxKings
	}
	for reason, n := range other.Reasons {
		if s.Reasons == nil {
			s.Reasons = make(map[string]int)
		}
		s.Reasons[reason] += n
	}
}

// WinRate returns the fraction of games won
func (s *Statistics) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// WinRateCI95 returns the Wilson score 95% interval for the win rate, which
// stays inside [0,1] even for rates near the edges.
func (s *Statistics) WinRateCI95() (float64, float64) {
	if s.Games == 0 {
		return 0, 0
	}
	const z = 1.96
	n := float64(s.Games)
	p := s.WinRate()
	denom := 1 + z*z/n
	centre := (p + z*z/(2*n)) / denom
	margin := z * math.Sqrt(p*(1-p)/n+z*z/(4*n*n)) / denom
	return math.Max(0, centre-margin), math.Min(1, centre+margin)
}

// Mean returns the mean number of moves per game
func (s *Statistics) Mean() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.Sum / float64(s.Games)
}

// Variance returns the sample variance of move counts
func (s *Statistics) Variance() float64 {
	if s.Games < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumSq - float64(s.Games)*mean*mean) / float64(s.Games-1)
}

// StdDev returns the sample standard deviation of move counts
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean move count
func (s *Statistics) StdError() float64 {
	if s.Games == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Games))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Median returns the median move count
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the move count at p (0.0 to 1.0), interpolating
// between neighbours.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks the accumulated counters agree with each other
func (s *Statistics) Validate() error {
	if s.Games <= 0 {
		return fmt.Errorf("invalid games count: %d", s.Games)
	}
	if len(s.Values) != s.Games {
		return fmt.Errorf("values array length (%d) does not match games count (%d)", len(s.Values), s.Games)
	}
	if s.Wins > s.Games {
		return fmt.Errorf("wins (%d) exceed games (%d)", s.Wins, s.Games)
	}
	total := 0
	for _, n := range s.Reasons {
		total += n
	}
	if total != s.Games {
		return fmt.Errorf("reason total (%d) does not match games count (%d)", total, s.Games)
	}
	if math.Abs(s.Sum-s.WinMoves-s.LossMoves) > 1e-6 {
		return fmt.Errorf("move ledger mismatch: sum=%.0f won=%.0f lost=%.0f", s.Sum, s.WinMoves, s.LossMoves)
	}
	return nil
}
