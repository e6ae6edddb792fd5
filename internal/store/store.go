package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
)

// Config controls store lifecycle behaviour
type Config struct {
	// IdleTimeout evicts games untouched for this long. Zero disables eviction.
	IdleTimeout time.Duration
	// SweepInterval is how often the janitor looks for idle games
	SweepInterval time.Duration
	// DefaultRules is used when a game is created without a rule variant
	DefaultRules string
}

// DefaultConfig returns the store defaults
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   2 * time.Hour,
		SweepInterval: time.Minute,
		DefaultRules:  game.RulesOriginal,
	}
}

// Archiver receives every game once it reaches a terminal status
type Archiver interface {
	Archive(id string, g *game.Game) error
}

type entry struct {
	mu       sync.Mutex
	game     *game.Game
	lastUsed atomic.Int64
	removed  atomic.Bool
	archived bool
}

// Store maps game identifiers to games. Operations on one identifier are
// serialized; distinct identifiers never share state.
type Store struct {
	logger   zerolog.Logger
	clock    quartz.Clock
	bus      game.EventBus
	archiver Archiver
	cfg      Config
	rules    game.RuleSet

	mu      sync.RWMutex
	entries map[string]*entry
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the real clock, for tests
func WithClock(clock quartz.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithEventBus publishes store and game events to bus
func WithEventBus(bus game.EventBus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithArchiver hands every finished game to a once
func WithArchiver(a Archiver) Option {
	return func(s *Store) { s.archiver = a }
}

// New creates an empty store
func New(logger zerolog.Logger, cfg Config, opts ...Option) (*Store, error) {
	rules, err := game.RulesByName(cfg.DefaultRules)
	if err != nil {
		return nil, fmt.Errorf("default rules: %w", err)
	}
	s := &Store{
		logger:  logger.With().Str("component", "store").Logger(),
		clock:   quartz.NewReal(),
		cfg:     cfg,
		rules:   rules,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultRules returns the rule set used when none is requested
func (s *Store) DefaultRules() game.RuleSet {
	return s.rules
}

// Create discards any game stored under id and replaces it with a fresh one
// whose deck is seeded from id and left in canonical order.
func (s *Store) Create(id, rulesName string) (game.State, error) {
	rules := s.rules
	if rulesName != "" {
		var err error
		if rules, err = game.RulesByName(rulesName); err != nil {
			return game.State{}, err
		}
	}

	d := deck.NewDeck(deck.WithSeed(deck.SeedFromID(id)))
	state := s.put(id, d, rules)
	s.logger.Info().Str("game_id", id).Str("rules", rules.Name()).Msg("Game created")
	s.publish(game.NewGameCreatedEvent(id, rules.Name(), true))
	return state, nil
}

// Reset replaces the game under id with an unseeded one using the default
// rules. The identifier does not need to exist.
func (s *Store) Reset(id string) game.State {
	state := s.put(id, deck.NewDeck(), s.rules)
	s.logger.Info().Str("game_id", id).Msg("Game reset")
	s.publish(game.NewGameResetEvent(id))
	return state
}

func (s *Store) put(id string, d *deck.Deck, rules game.RuleSet) game.State {
	opts := []game.Option{game.WithID(id), game.WithRules(rules)}
	if s.bus != nil {
		opts = append(opts, game.WithEventBus(s.bus))
	}
	g := game.New(d, opts...)

	e := &entry{game: g}
	e.lastUsed.Store(s.clock.Now("store", "touch").UnixNano())

	s.mu.Lock()
	if old, ok := s.entries[id]; ok {
		old.removed.Store(true)
	}
	s.entries[id] = e
	s.mu.Unlock()

	return g.State()
}

// With runs fn against the game stored under id while holding that game's
// lock. It returns a GameNotFound error for unknown identifiers.
func (s *Store) With(id string, fn func(g *game.Game) error) error {
	for {
		s.mu.RLock()
		e, ok := s.entries[id]
		s.mu.RUnlock()
		if !ok {
			return game.NewError(game.KindGameNotFound, "game %q not found", id)
		}

		e.mu.Lock()
		if e.removed.Load() {
			// replaced or evicted while we waited
			e.mu.Unlock()
			continue
		}
		err := fn(e.game)
		e.lastUsed.Store(s.clock.Now("store", "touch").UnixNano())
		s.archive(id, e)
		e.mu.Unlock()
		return err
	}
}

func (s *Store) archive(id string, e *entry) {
	if s.archiver == nil || e.archived || !e.game.Status().Terminal() {
		return
	}
	e.archived = true
	if err := s.archiver.Archive(id, e.game); err != nil {
		s.logger.Error().Err(err).Str("game_id", id).Msg("Failed to archive game")
	}
}

// Delete removes the game stored under id
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.removed.Store(true)
	delete(s.entries, id)
	return true
}

// Len returns the number of stored games
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IDs returns the stored identifiers in sorted order
func (s *Store) IDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Sweep evicts games idle for at least the configured timeout and returns
// how many were removed. Games in use are skipped.
func (s *Store) Sweep() int {
	if s.cfg.IdleTimeout <= 0 {
		return 0
	}
	now := s.clock.Now("store", "sweep")

	type evicted struct {
		id   string
		idle time.Duration
	}
	var removed []evicted

	s.mu.Lock()
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		idle := now.Sub(time.Unix(0, e.lastUsed.Load()))
		if idle >= s.cfg.IdleTimeout {
			e.removed.Store(true)
			delete(s.entries, id)
			removed = append(removed, evicted{id: id, idle: idle})
		}
		e.mu.Unlock()
	}
	s.mu.Unlock()

	for _, ev := range removed {
		s.logger.Info().Str("game_id", ev.id).Dur("idle", ev.idle).Msg("Evicted idle game")
		s.publish(game.NewGameEvictedEvent(ev.id, ev.idle))
	}
	return len(removed)
}

// StartJanitor sweeps idle games every SweepInterval until ctx is done. It
// returns nil when eviction is disabled.
func (s *Store) StartJanitor(ctx context.Context) quartz.Waiter {
	if s.cfg.IdleTimeout <= 0 || s.cfg.SweepInterval <= 0 {
		s.logger.Debug().Msg("Idle eviction disabled")
		return nil
	}
	s.logger.Debug().
		Dur("idle_timeout", s.cfg.IdleTimeout).
		Dur("sweep_interval", s.cfg.SweepInterval).
		Msg("Starting janitor")
	return s.clock.TickerFunc(ctx, s.cfg.SweepInterval, func() error {
		s.Sweep()
		return nil
	}, "store", "janitor")
}

func (s *Store) publish(event game.GameEvent) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}
