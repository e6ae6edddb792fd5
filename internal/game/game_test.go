package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/clockpatience/internal/deck"
)

// recorder collects published events
type recorder struct {
	events []GameEvent
}

func (r *recorder) OnEvent(e GameEvent) { r.events = append(r.events, e) }

func (r *recorder) types() []EventType {
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType()
	}
	return out
}

func startedGame(t *testing.T, id string, rules RuleSet, cuts ...int) *Game {
	t.Helper()
	g := New(deck.NewDeck(deck.WithSeed(deck.SeedFromID(id))), WithID(id), WithRules(rules))
	for _, cut := range cuts {
		_, err := g.Shuffle(cut)
		require.NoError(t, err)
	}
	_, err := g.Start()
	require.NoError(t, err)
	return g
}

// scenarioGame returns a playing game with an empty deck and empty board, for
// tests that lay out piles by hand.
func scenarioGame(rules RuleSet) *Game {
	g := New(deck.NewDeck(), WithRules(rules))
	g.deck.DealN(deck.DeckSize)
	g.status = StatusPlaying
	return g
}

func fill(g *Game, rank deck.Rank, faceUp, faceDown int) {
	i := rank.Index()
	g.board.piles[i] = nil
	g.board.faceDown[i] = nil
	for n := 0; n < faceUp; n++ {
		g.board.piles[i] = append(g.board.piles[i], deck.NewCard(rank, deck.Suit(n)))
	}
	for n := faceUp; n < faceUp+faceDown; n++ {
		g.board.faceDown[i] = append(g.board.faceDown[i], deck.NewCard(rank, deck.Suit(n)))
	}
}

func fillAll(g *Game) {
	for _, rank := range deck.AllRanks() {
		fill(g, rank, PileSize, 0)
	}
}

func hold(g *Game, card deck.Card, source deck.Rank) {
	g.current = &card
	g.source = source
	g.hasSource = true
}

func allCards(g *Game) []deck.Card {
	cards := g.deck.Cards()
	for i := range g.board.faceDown {
		cards = append(cards, g.board.faceDown[i]...)
	}
	for i := range g.board.piles {
		cards = append(cards, g.board.piles[i]...)
	}
	if g.current != nil {
		cards = append(cards, *g.current)
	}
	return cards
}

func requireConserved(t *testing.T, g *Game) {
	t.Helper()
	cards := allCards(g)
	require.Len(t, cards, deck.DeckSize)
	seen := make(map[deck.Card]bool, deck.DeckSize)
	for _, c := range cards {
		require.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
	}
}

var ruleSets = []RuleSet{OriginalRules{}, AlternativeRules{}}

func TestNewGameIsWaiting(t *testing.T) {
	g := New(deck.NewDeck())
	assert.Equal(t, StatusWaiting, g.Status())
	assert.Equal(t, RulesOriginal, g.Rules().Name())

	s := g.State()
	assert.Nil(t, s.CurrentCard)
	assert.Nil(t, s.CurrentCardSource)
	assert.Nil(t, s.NextFlipPile)
	assert.Equal(t, deck.DeckSize, s.CardsRemaining)
	assert.Len(t, s.Piles, deck.NumRanks)
	assert.Len(t, s.FaceDownCards, deck.NumRanks)
}

func TestStartDealsFourPerPile(t *testing.T) {
	g := startedGame(t, "default", OriginalRules{}, 26)

	assert.Equal(t, StatusPlaying, g.Status())
	assert.True(t, g.deck.IsEmpty())
	for _, rank := range deck.AllRanks() {
		assert.Equal(t, PileSize, g.board.FaceDownLen(rank), "pile %s", rank)
		assert.Zero(t, g.board.PileLen(rank))
	}
	requireConserved(t, g)

	s := g.State()
	assert.Zero(t, s.CardsRemaining)
	assert.Equal(t, 1, s.ShuffleCount)
	require.NotNil(t, s.NextFlipPile)
	assert.Equal(t, deck.King, *s.NextFlipPile)
}

func TestStartDealsInRankOrder(t *testing.T) {
	d := deck.NewDeck()
	d.CutAndShuffle(26)
	order := d.Cards()

	g := New(d)
	_, err := g.Start()
	require.NoError(t, err)
	for i, rank := range deck.AllRanks() {
		assert.Equal(t, order[i*PileSize:(i+1)*PileSize], g.board.faceDown[rank.Index()])
	}
}

func TestStartRequiresShuffle(t *testing.T) {
	g := New(deck.NewDeck())
	_, err := g.Start()
	require.ErrorIs(t, err, ErrNotShuffled)
	assert.Equal(t, StatusWaiting, g.Status())
	assert.Equal(t, deck.DeckSize, g.deck.CardsRemaining())
}

func TestStartTwice(t *testing.T) {
	g := startedGame(t, "twice", OriginalRules{}, 10)
	_, err := g.Start()
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestShuffleGuards(t *testing.T) {
	g := New(deck.NewDeck())
	for _, cut := range []int{0, -1, 52} {
		_, err := g.Shuffle(cut)
		assert.ErrorIs(t, err, ErrInvalidCutPoint, "cut %d", cut)
	}
	assert.Zero(t, g.deck.ShuffleCount())

	cards, err := g.Shuffle(51)
	require.NoError(t, err)
	assert.Len(t, cards, deck.DeckSize)

	_, err = g.Start()
	require.NoError(t, err)
	_, err = g.Shuffle(10)
	assert.ErrorIs(t, err, ErrAlreadyStarted)
}

func TestFlipGuards(t *testing.T) {
	waiting := New(deck.NewDeck())
	_, err := waiting.Flip(deck.King)
	assert.ErrorIs(t, err, ErrNotPlaying)

	g := startedGame(t, "flip", OriginalRules{}, 20)
	_, err = g.Flip(deck.Rank(0))
	assert.ErrorIs(t, err, ErrInvalidPile)

	card, err := g.Flip(deck.King)
	require.NoError(t, err)
	assert.Equal(t, 3, g.board.FaceDownLen(deck.King))

	_, err = g.Flip(deck.Queen)
	assert.ErrorIs(t, err, ErrCardPending)
	assert.Equal(t, PileSize, g.board.FaceDownLen(deck.Queen))

	current, ok := g.CurrentCard()
	require.True(t, ok)
	assert.Equal(t, card, current)
}

func TestFlipEmptyPile(t *testing.T) {
	g := scenarioGame(OriginalRules{})
	fill(g, deck.Five, 0, 0)
	_, err := g.Flip(deck.Five)
	assert.ErrorIs(t, err, ErrEmptyPile)
	assert.Equal(t, KindEmptyPile, KindOf(err))
}

func TestPlaceWithoutFlip(t *testing.T) {
	g := startedGame(t, "noflip", OriginalRules{}, 20)
	_, err := g.Place(deck.King)
	assert.ErrorIs(t, err, ErrNoCurrentCard)
}

func TestPlaceRankMismatch(t *testing.T) {
	for _, rules := range ruleSets {
		t.Run(rules.Name(), func(t *testing.T) {
			g := scenarioGame(rules)
			fill(g, deck.Five, 1, 2)
			fill(g, deck.Six, 2, 1)
			hold(g, deck.NewCard(deck.Five, deck.Clubs), deck.Eight)
			before := g.State()

			_, err := g.Place(deck.Six)
			require.ErrorIs(t, err, ErrRankMismatch)
			assert.Equal(t, before, g.State())
			assert.Empty(t, g.Moves())
		})
	}
}

func TestOwnPileCompletion(t *testing.T) {
	tests := []struct {
		name       string
		pile       deck.Rank
		faceDownAt deck.Rank // zero: nothing left face down
		wantWon    bool
	}{
		{name: "non-final move loses", pile: deck.Three, faceDownAt: deck.Nine, wantWon: false},
		{name: "final move wins", pile: deck.Two, wantWon: true},
		{name: "completing every pile wins even from pile three", pile: deck.Three, wantWon: true},
	}

	for _, rules := range ruleSets {
		for _, tt := range tests {
			t.Run(rules.Name()+"/"+tt.name, func(t *testing.T) {
				g := scenarioGame(rules)
				fillAll(g)
				fill(g, tt.pile, 3, 1)
				if tt.faceDownAt != 0 {
					fill(g, tt.faceDownAt, 3, 1)
				}

				card, err := g.Flip(tt.pile)
				require.NoError(t, err)
				res, err := g.Place(card.Rank)
				require.NoError(t, err)

				assert.True(t, res.GameOver)
				assert.Equal(t, tt.wantWon, res.Won)
				if tt.wantWon {
					assert.Equal(t, ReasonFinalMove, res.Reason)
					assert.Equal(t, StatusWon, g.Status())
				} else {
					assert.Equal(t, ReasonOwnPile, res.Reason)
					assert.Equal(t, StatusLost, g.Status())
				}
				assert.Equal(t, PileSize, g.board.PileLen(tt.pile))
				assert.Nil(t, g.current)
			})
		}
	}
}

func TestOwnPileWithFaceDownLeftContinuesUnderOriginal(t *testing.T) {
	// The pile reaches four from its own stack while that stack still holds a card.
	g := scenarioGame(OriginalRules{})
	fill(g, deck.Seven, 3, 2)
	card, err := g.Flip(deck.Seven)
	require.NoError(t, err)

	res, err := g.Place(card.Rank)
	require.NoError(t, err)
	assert.False(t, res.GameOver)
	assert.Equal(t, StatusPlaying, g.Status())

	alt := scenarioGame(AlternativeRules{})
	fill(alt, deck.Seven, 3, 2)
	card, err = alt.Flip(deck.Seven)
	require.NoError(t, err)

	res, err = alt.Place(card.Rank)
	require.NoError(t, err)
	assert.True(t, res.GameOver)
	assert.False(t, res.Won)
	assert.Equal(t, ReasonOwnPile, res.Reason)
}

func TestFourthKing(t *testing.T) {
	for _, rules := range ruleSets {
		t.Run(rules.Name()+"/face-down cards remain", func(t *testing.T) {
			g := scenarioGame(rules)
			fillAll(g)
			fill(g, deck.King, 3, 1)
			g.board.kings = 3
			hold(g, deck.NewCard(deck.King, deck.Clubs), deck.Jack)

			res, err := g.Place(deck.King)
			require.NoError(t, err)
			assert.True(t, res.GameOver)
			assert.False(t, res.Won)
			assert.Equal(t, ReasonFourKings, res.Reason)
			assert.Equal(t, 4, res.KingsRevealed)
		})

		t.Run(rules.Name()+"/last card", func(t *testing.T) {
			g := scenarioGame(rules)
			fillAll(g)
			fill(g, deck.King, 3, 0)
			g.board.kings = 3
			hold(g, deck.NewCard(deck.King, deck.Spades), deck.Jack)

			res, err := g.Place(deck.King)
			require.NoError(t, err)
			assert.True(t, res.Won)
			assert.Equal(t, ReasonLastKing, res.Reason)
		})
	}
}

func TestOwnPileTriggerPreemptsKingCount(t *testing.T) {
	g := scenarioGame(OriginalRules{})
	fillAll(g)
	fill(g, deck.King, 3, 1)
	fill(g, deck.Four, 2, 1)
	g.board.kings = 3

	card, err := g.Flip(deck.King)
	require.NoError(t, err)
	res, err := g.Place(card.Rank)
	require.NoError(t, err)

	assert.Equal(t, ReasonOwnPile, res.Reason)
	assert.Equal(t, 3, res.KingsRevealed)
}

func TestGlobalCompletion(t *testing.T) {
	for _, rules := range ruleSets {
		t.Run(rules.Name(), func(t *testing.T) {
			g := scenarioGame(rules)
			fillAll(g)
			fill(g, deck.Queen, 3, 0)
			hold(g, deck.NewCard(deck.Queen, deck.Spades), deck.Ace)

			res, err := g.Place(deck.Queen)
			require.NoError(t, err)
			assert.True(t, res.Won)
			assert.Equal(t, ReasonComplete, res.Reason)
		})
	}
}

func TestTerminalImmutability(t *testing.T) {
	for _, rules := range ruleSets {
		t.Run(rules.Name(), func(t *testing.T) {
			g := startedGame(t, "default", rules, 10, 30)
			_, err := AutoPlay(g, 0)
			require.NoError(t, err)
			require.True(t, g.Status().Terminal())

			before := g.State()
			moves := len(g.Moves())
			for _, rank := range deck.AllRanks() {
				_, err := g.Flip(rank)
				assert.ErrorIs(t, err, ErrGameAlreadyTerminal)
				_, err = g.Place(rank)
				assert.ErrorIs(t, err, ErrGameAlreadyTerminal)
			}
			_, err = g.Shuffle(10)
			assert.ErrorIs(t, err, ErrGameAlreadyTerminal)
			_, err = g.Start()
			assert.ErrorIs(t, err, ErrGameAlreadyTerminal)

			assert.Equal(t, before, g.State())
			assert.Len(t, g.Moves(), moves)
		})
	}
}

func TestCardConservationThroughPlay(t *testing.T) {
	g := New(deck.NewDeck(deck.WithSeed(deck.SeedFromID("conserve"))))
	requireConserved(t, g)
	for _, cut := range []int{5, 47, 26} {
		_, err := g.Shuffle(cut)
		require.NoError(t, err)
		requireConserved(t, g)
	}
	_, err := g.Start()
	require.NoError(t, err)
	requireConserved(t, g)

	for !g.Status().Terminal() {
		pile, ok := g.NextFlipPile()
		require.True(t, ok)
		card, err := g.Flip(pile)
		require.NoError(t, err)
		requireConserved(t, g)
		_, err = g.Place(card.Rank)
		require.NoError(t, err)
		requireConserved(t, g)
		for _, rank := range deck.AllRanks() {
			require.LessOrEqual(t, g.board.PileLen(rank), PileSize)
		}
	}
}

func TestNextFlipPile(t *testing.T) {
	g := scenarioGame(OriginalRules{})
	fill(g, deck.Ace, 0, 2)
	fill(g, deck.Five, 0, 1)
	fill(g, deck.Jack, 0, 1)

	pile, ok := g.NextFlipPile()
	require.True(t, ok)
	assert.Equal(t, deck.Jack, pile)

	// the Jack pile has nothing left face down after this flip
	card, err := g.Flip(deck.Jack)
	require.NoError(t, err)
	_, ok = g.NextFlipPile()
	assert.False(t, ok, "no suggestion while a card is pending")

	_, err = g.Place(card.Rank)
	require.NoError(t, err)
	pile, ok = g.NextFlipPile()
	require.True(t, ok)
	assert.Equal(t, deck.Five, pile)

	// a placement onto a pile with face-down cards is followed from that pile
	hold(g, deck.NewCard(deck.Ace, deck.Spades), deck.Five)
	_, err = g.Place(deck.Ace)
	require.NoError(t, err)
	pile, ok = g.NextFlipPile()
	require.True(t, ok)
	assert.Equal(t, deck.Ace, pile)

	fill(g, deck.Ace, 1, 0)
	fill(g, deck.Five, 0, 0)
	_, ok = g.NextFlipPile()
	assert.False(t, ok)
}

func TestSourcePersistsAfterPlace(t *testing.T) {
	g := scenarioGame(OriginalRules{})
	fill(g, deck.King, 0, 1)
	fill(g, deck.Two, 0, 1)
	g.board.faceDown[deck.King.Index()] = []deck.Card{deck.NewCard(deck.Two, deck.Hearts)}

	_, err := g.Flip(deck.King)
	require.NoError(t, err)
	s := g.State()
	require.NotNil(t, s.CurrentCardSource)
	assert.Equal(t, deck.King, *s.CurrentCardSource)

	res, err := g.Place(deck.Two)
	require.NoError(t, err)
	require.NotNil(t, res.NextFlipPile)
	assert.Equal(t, deck.Two, *res.NextFlipPile)

	s = g.State()
	assert.Nil(t, s.CurrentCard)
	require.NotNil(t, s.CurrentCardSource)
	assert.Equal(t, deck.Two, *s.CurrentCardSource)
	assert.Equal(t, 1, s.MovesCount)
	assert.Equal(t, []Move{{Card: deck.NewCard(deck.Two, deck.Hearts), Pile: deck.Two}}, g.Moves())
}

func TestEventsPublished(t *testing.T) {
	bus := NewEventBus()
	rec := &recorder{}
	bus.Subscribe(rec)

	g := New(deck.NewDeck(deck.WithSeed(deck.SeedFromID("win-39"))), WithID("win-39"), WithEventBus(bus))
	_, err := g.Shuffle(26)
	require.NoError(t, err)
	_, err = g.Start()
	require.NoError(t, err)
	card, err := g.Flip(deck.King)
	require.NoError(t, err)
	_, err = g.Place(card.Rank)
	require.NoError(t, err)

	assert.Equal(t, []EventType{
		EventTypeShufflePerformed,
		EventTypeGameStarted,
		EventTypeCardFlipped,
		EventTypeCardPlaced,
	}, rec.types())
	for _, e := range rec.events {
		assert.Equal(t, "win-39", e.Game())
		assert.False(t, e.Timestamp().IsZero())
	}

	bus.Unsubscribe(rec)
	assert.Zero(t, bus.Len())
}

func TestGameOverEvent(t *testing.T) {
	bus := NewEventBus()
	rec := &recorder{}
	bus.Subscribe(rec)

	g := scenarioGame(OriginalRules{})
	g.bus = bus
	fillAll(g)
	fill(g, deck.Two, 3, 1)
	card, err := g.Flip(deck.Two)
	require.NoError(t, err)
	_, err = g.Place(card.Rank)
	require.NoError(t, err)

	require.Len(t, rec.events, 3)
	over, ok := rec.events[2].(GameOverEvent)
	require.True(t, ok)
	assert.True(t, over.Won)
	assert.Equal(t, ReasonFinalMove, over.Reason)
	assert.Equal(t, 1, over.MovesCount)
}

func TestRulesByName(t *testing.T) {
	for name, want := range map[string]string{
		"":              RulesOriginal,
		"original":      RulesOriginal,
		" Alternative ": RulesAlternative,
	} {
		rules, err := RulesByName(name)
		require.NoError(t, err)
		assert.Equal(t, want, rules.Name())
	}

	_, err := RulesByName("vegas")
	assert.ErrorIs(t, err, ErrUnknownRules)
}

func TestDebugInfo(t *testing.T) {
	g := startedGame(t, "debug", AlternativeRules{}, 13)
	_, err := g.Flip(deck.King)
	require.NoError(t, err)

	info := g.Debug()
	assert.Equal(t, "debug", info.ID)
	assert.True(t, info.Seeded)
	assert.Equal(t, deck.SeedFromID("debug"), info.Seed)
	assert.NotNil(t, info.CurrentCard)
	assert.Equal(t, 3, info.FaceDownCards[deck.King])
	assert.Zero(t, info.FaceUpCards[deck.King])
}
