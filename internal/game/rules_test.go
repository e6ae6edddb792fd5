package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/clockpatience/internal/deck"
)

// layout builds a board with faceUp cards on every pile and faceDown cards
// under each one.
func layout(faceUp, faceDown int) *Board {
	b := &Board{}
	for _, rank := range deck.AllRanks() {
		setPile(b, rank, faceUp, faceDown)
	}
	return b
}

func setPile(b *Board, rank deck.Rank, faceUp, faceDown int) {
	i := rank.Index()
	b.piles[i] = nil
	b.faceDown[i] = nil
	for n := 0; n < faceUp; n++ {
		b.piles[i] = append(b.piles[i], deck.NewCard(rank, deck.Suit(n)))
	}
	for n := faceUp; n < faceUp+faceDown; n++ {
		b.faceDown[i] = append(b.faceDown[i], deck.NewCard(rank, deck.Suit(n)))
	}
}

func TestBoardPredicates(t *testing.T) {
	b := layout(PileSize, 0)
	assert.True(t, b.AllPilesFull())
	assert.False(t, b.HasFaceDown())
	assert.True(t, b.Complete())

	setPile(b, deck.Five, 3, 1)
	assert.False(t, b.AllPilesFull())
	assert.True(t, b.HasFaceDown())
	assert.False(t, b.Complete())
	assert.Equal(t, 3, b.PileLen(deck.Five))
	assert.Equal(t, 1, b.FaceDownLen(deck.Five))

	setPile(b, deck.Five, 3, 0)
	assert.True(t, b.completeWith(deck.Five))
	assert.False(t, b.completeWith(deck.Six))
}

func TestRulesOwnPile(t *testing.T) {
	tests := []struct {
		name     string
		rules    RuleSet
		board    func() *Board
		place    Placement
		expected Outcome
	}{
		{
			name:  "original final move wins",
			rules: OriginalRules{},
			board: func() *Board {
				b := layout(PileSize, 0)
				setPile(b, deck.Two, 3, 0)
				return b
			},
			place:    Placement{Card: deck.NewCard(deck.Two, deck.Spades), Source: deck.Two, Target: deck.Two},
			expected: won(ReasonFinalMove),
		},
		{
			name:  "original own pile with work left loses",
			rules: OriginalRules{},
			board: func() *Board {
				b := layout(3, 1)
				setPile(b, deck.Two, 3, 0)
				return b
			},
			place:    Placement{Card: deck.NewCard(deck.Two, deck.Spades), Source: deck.Two, Target: deck.Two},
			expected: lost(ReasonOwnPile),
		},
		{
			name:  "original ignores own pile while its stack has cards",
			rules: OriginalRules{},
			board: func() *Board {
				b := layout(2, 2)
				setPile(b, deck.Two, 3, 1)
				return b
			},
			place:    Placement{Card: deck.NewCard(deck.Two, deck.Spades), Source: deck.Two, Target: deck.Two},
			expected: continuing(),
		},
		{
			name:  "alternative loses while its stack has cards",
			rules: AlternativeRules{},
			board: func() *Board {
				b := layout(2, 2)
				setPile(b, deck.Two, 3, 1)
				return b
			},
			place:    Placement{Card: deck.NewCard(deck.Two, deck.Spades), Source: deck.Two, Target: deck.Two},
			expected: lost(ReasonOwnPile),
		},
		{
			name:  "alternative final move wins",
			rules: AlternativeRules{},
			board: func() *Board {
				b := layout(PileSize, 0)
				setPile(b, deck.Jack, 3, 0)
				return b
			},
			place:    Placement{Card: deck.NewCard(deck.Jack, deck.Spades), Source: deck.Jack, Target: deck.Jack},
			expected: won(ReasonFinalMove),
		},
		{
			name:  "fourth card from another pile continues",
			rules: AlternativeRules{},
			board: func() *Board {
				b := layout(2, 2)
				setPile(b, deck.Two, 3, 0)
				return b
			},
			place:    Placement{Card: deck.NewCard(deck.Two, deck.Spades), Source: deck.Nine, Target: deck.Two},
			expected: continuing(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.board()
			before := b.PileLen(tt.place.Target)
			got := tt.rules.Apply(b, tt.place)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, before+1, b.PileLen(tt.place.Target), "card must land exactly once")
		})
	}
}

func TestRulesKings(t *testing.T) {
	for _, rules := range ruleSets {
		t.Run(rules.Name(), func(t *testing.T) {
			b := layout(2, 2)
			setPile(b, deck.King, 3, 0)
			b.kings = 3
			got := rules.Apply(b, Placement{Card: deck.NewCard(deck.King, deck.Spades), Source: deck.Queen, Target: deck.King})
			assert.Equal(t, lost(ReasonFourKings), got)
			assert.Equal(t, 4, b.Kings())

			b = layout(PileSize, 0)
			setPile(b, deck.King, 3, 0)
			b.kings = 3
			got = rules.Apply(b, Placement{Card: deck.NewCard(deck.King, deck.Spades), Source: deck.Queen, Target: deck.King})
			assert.Equal(t, won(ReasonLastKing), got)

			b = layout(2, 2)
			got = rules.Apply(b, Placement{Card: deck.NewCard(deck.King, deck.Hearts), Source: deck.Ace, Target: deck.King})
			assert.Equal(t, continuing(), got)
			assert.Equal(t, 1, b.Kings())
		})
	}
}

func TestRulesGlobalCompletion(t *testing.T) {
	for _, rules := range ruleSets {
		b := layout(PileSize, 0)
		setPile(b, deck.Seven, 3, 0)
		got := rules.Apply(b, Placement{Card: deck.NewCard(deck.Seven, deck.Spades), Source: deck.Eight, Target: deck.Seven})
		assert.Equal(t, won(ReasonComplete), got, rules.Name())
	}
}

func TestOutcomeMessage(t *testing.T) {
	assert.Contains(t, lost(ReasonOwnPile).message(deck.Ten), "Pile 10")
	assert.Contains(t, lost(ReasonFourKings).message(deck.King), "fourth King")
	assert.Contains(t, won(ReasonComplete).message(deck.Ace), "You won")
	assert.Equal(t, "Card placed on Q", continuing().message(deck.Queen))
}
