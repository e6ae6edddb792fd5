package game

import (
	"github.com/lox/clockpatience/internal/deck"
)

// Game is one clock patience game bound to a single deck. It has no internal
// locking; callers serialize access per game.
type Game struct {
	id     string
	deck   *deck.Deck
	rules  RuleSet
	bus    EventBus
	board  Board
	status Status
	reason Reason

	current   *deck.Card
	source    deck.Rank
	hasSource bool

	moves []Move
}

// Option configures a Game
type Option func(*Game)

// WithRules selects the rule set used to resolve placements
func WithRules(rules RuleSet) Option {
	return func(g *Game) {
		if rules != nil {
			g.rules = rules
		}
	}
}

// WithEventBus publishes game events to bus
func WithEventBus(bus EventBus) Option {
	return func(g *Game) {
		g.bus = bus
	}
}

// WithID tags published events with the game identifier
func WithID(id string) Option {
	return func(g *Game) {
		g.id = id
	}
}

// New creates a game in the waiting state. The deck is not dealt until Start.
func New(d *deck.Deck, opts ...Option) *Game {
	g := &Game{
		deck:   d,
		rules:  OriginalRules{},
		status: StatusWaiting,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ID returns the identifier the game was created with
func (g *Game) ID() string { return g.id }

// Rules returns the active rule set
func (g *Game) Rules() RuleSet { return g.rules }

// Status returns the lifecycle state
func (g *Game) Status() Status { return g.status }

// Reason returns the trigger that ended the game, if it has ended
func (g *Game) Reason() Reason { return g.reason }

// Deck returns the underlying deck
func (g *Game) Deck() *deck.Deck { return g.deck }

// Shuffle cuts and shuffles the deck. Only allowed before the game starts.
func (g *Game) Shuffle(cutPoint int) ([]deck.Card, error) {
	if cutPoint < 1 || cutPoint > deck.DeckSize-1 {
		return nil, NewError(KindInvalidCutPoint, "cut point must be between 1 and %d, got %d", deck.DeckSize-1, cutPoint)
	}
	if err := g.requireWaiting("shuffle"); err != nil {
		return nil, err
	}

	cards := g.deck.CutAndShuffle(cutPoint)
	g.publish(NewShufflePerformedEvent(g.id, cutPoint, g.deck.ShuffleCount()))
	return cards, nil
}

// Start deals four cards to every pile in rank order A..K and begins play.
// Dealing stops early if the deck runs out.
func (g *Game) Start() (State, error) {
	if err := g.requireWaiting("start"); err != nil {
		return State{}, err
	}
	if g.deck.ShuffleCount() == 0 {
		return State{}, NewError(KindNotShuffled, "shuffle the deck at least once before starting")
	}

	for _, rank := range deck.AllRanks() {
		for range PileSize {
			card, ok := g.deck.Deal()
			if !ok {
				break
			}
			i := rank.Index()
			g.board.faceDown[i] = append(g.board.faceDown[i], card)
		}
	}
	g.status = StatusPlaying
	g.publish(NewGameStartedEvent(g.id, g.rules.Name()))
	return g.State(), nil
}

func (g *Game) requireWaiting(op string) error {
	switch {
	case g.status.Terminal():
		return NewError(KindGameAlreadyTerminal, "cannot %s: game is %s", op, g.status)
	case g.status != StatusWaiting:
		return NewError(KindAlreadyStarted, "cannot %s: game already started", op)
	}
	return nil
}

// Flip reveals the front card of a pile's face-down stack
func (g *Game) Flip(pile deck.Rank) (deck.Card, error) {
	if err := g.requirePlaying("flip"); err != nil {
		return deck.Card{}, err
	}
	if g.current != nil {
		return deck.Card{}, NewError(KindCardPending, "place %s before flipping again", g.current)
	}
	if !pile.Valid() {
		return deck.Card{}, NewError(KindInvalidPile, "unknown pile %d", int(pile))
	}
	stack := g.board.faceDown[pile.Index()]
	if len(stack) == 0 {
		return deck.Card{}, NewError(KindEmptyPile, "pile %s has no face-down cards", pile)
	}

	card := stack[0]
	g.board.faceDown[pile.Index()] = stack[1:]
	g.current = &card
	g.source = pile
	g.hasSource = true

	g.publish(NewCardFlippedEvent(g.id, card, pile))
	return card, nil
}

// Place puts the current card on target and resolves the outcome through the
// configured rule set.
func (g *Game) Place(target deck.Rank) (PlaceResult, error) {
	if err := g.requirePlaying("place"); err != nil {
		return PlaceResult{}, err
	}
	if g.current == nil {
		return PlaceResult{}, NewError(KindNoCurrentCard, "flip a card before placing")
	}
	card := *g.current
	if card.Rank != target {
		return PlaceResult{}, NewError(KindRankMismatch, "%s must go on pile %s, not %s", card, card.Rank, target)
	}

	out := g.rules.Apply(&g.board, Placement{Card: card, Source: g.source, Target: target})
	g.moves = append(g.moves, Move{Card: card, Pile: target})
	g.current = nil
	g.source = target
	g.status = out.Status
	g.reason = out.Reason

	result := PlaceResult{
		Card:          card,
		Pile:          target,
		Status:        out.Status,
		Reason:        out.Reason,
		Message:       out.message(target),
		GameOver:      out.Status.Terminal(),
		Won:           out.Status == StatusWon,
		KingsRevealed: g.board.kings,
		NextFlipPile:  g.nextFlipPtr(),
	}

	g.publish(NewCardPlacedEvent(g.id, card, target, g.board.kings, len(g.moves)))
	if result.GameOver {
		g.publish(NewGameOverEvent(g.id, result.Won, out.Reason, len(g.moves)))
	}
	return result, nil
}

func (g *Game) requirePlaying(op string) error {
	switch g.status {
	case StatusPlaying:
		return nil
	case StatusWon, StatusLost:
		return NewError(KindGameAlreadyTerminal, "cannot %s: game is %s", op, g.status)
	}
	return NewError(KindNotPlaying, "cannot %s: game has not started", op)
}

// NextFlipPile suggests the pile to flip from next. It prefers the pile the
// last card was placed on, then scans K down to A.
func (g *Game) NextFlipPile() (deck.Rank, bool) {
	if g.current != nil {
		return 0, false
	}
	if g.hasSource && g.board.FaceDownLen(g.source) > 0 {
		return g.source, true
	}
	for _, rank := range deck.FlipPriority() {
		if g.board.FaceDownLen(rank) > 0 {
			return rank, true
		}
	}
	return 0, false
}

func (g *Game) nextFlipPtr() *deck.Rank {
	if r, ok := g.NextFlipPile(); ok {
		return &r
	}
	return nil
}

// CurrentCard returns the revealed card awaiting placement, if any
func (g *Game) CurrentCard() (deck.Card, bool) {
	if g.current == nil {
		return deck.Card{}, false
	}
	return *g.current, true
}

// Moves returns a copy of the placement log
func (g *Game) Moves() []Move {
	out := make([]Move, len(g.moves))
	copy(out, g.moves)
	return out
}

// State returns a snapshot of the visible game state
func (g *Game) State() State {
	s := State{
		Status:         g.status,
		Piles:          make(map[deck.Rank][]deck.Card, deck.NumRanks),
		FaceDownCards:  make(map[deck.Rank]int, deck.NumRanks),
		KingsRevealed:  g.board.kings,
		CardsRemaining: g.deck.CardsRemaining(),
		MovesCount:     len(g.moves),
		ShuffleCount:   g.deck.ShuffleCount(),
		NextFlipPile:   g.nextFlipPtr(),
		GameRules:      g.rules.Name(),
	}
	if g.current != nil {
		card := *g.current
		s.CurrentCard = &card
	}
	if g.hasSource {
		source := g.source
		s.CurrentCardSource = &source
	}
	for _, rank := range deck.AllRanks() {
		pile := make([]deck.Card, len(g.board.piles[rank.Index()]))
		copy(pile, g.board.piles[rank.Index()])
		s.Piles[rank] = pile
		s.FaceDownCards[rank] = g.board.FaceDownLen(rank)
	}
	return s
}

// Debug returns internal counters for diagnostics
func (g *Game) Debug() DebugInfo {
	info := DebugInfo{
		ID:             g.id,
		Status:         g.status,
		KingsRevealed:  g.board.kings,
		ShuffleCount:   g.deck.ShuffleCount(),
		CardsRemaining: g.deck.CardsRemaining(),
		MovesCount:     len(g.moves),
		FaceDownCards:  make(map[deck.Rank]int, deck.NumRanks),
		FaceUpCards:    make(map[deck.Rank]int, deck.NumRanks),
	}
	if g.current != nil {
		card := *g.current
		info.CurrentCard = &card
	}
	info.Seed, info.Seeded = g.deck.Seed()
	for _, rank := range deck.AllRanks() {
		info.FaceDownCards[rank] = g.board.FaceDownLen(rank)
		info.FaceUpCards[rank] = g.board.PileLen(rank)
	}
	return info
}

func (g *Game) publish(event GameEvent) {
	if g.bus != nil {
		g.bus.Publish(event)
	}
}
