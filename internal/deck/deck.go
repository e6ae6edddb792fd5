package deck

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// DeckSize is the number of cards in a full deck
const DeckSize = 52

// DefaultCutPoint is used when CutAndShuffle receives a cut outside [1,51]
const DefaultCutPoint = 26

// Deck is an ordered sequence of undealt cards. It never uses a random
// source: every permutation is a pure function of the configured seed, the
// cut points supplied so far and the shuffle counter.
type Deck struct {
	cards        []Card
	seed         uint64
	seeded       bool
	shuffleCount int
}

// Option configures a Deck
type Option func(*Deck, *deckOptions)

type deckOptions struct {
	initialShuffle bool
}

// WithSeed configures the seed mixed into every shuffle decision
func WithSeed(seed uint64) Option {
	return func(d *Deck, _ *deckOptions) {
		d.seed = seed
		d.seeded = true
	}
}

// WithInitialShuffle applies one pre-shuffle derived from the seed. It has
// no effect unless a seed is configured.
func WithInitialShuffle() Option {
	return func(_ *Deck, o *deckOptions) {
		o.initialShuffle = true
	}
}

// NewDeck creates a standard 52-card deck in canonical order: suits H, D, C,
// S, each running A through K.
func NewDeck(opts ...Option) *Deck {
	d := &Deck{cards: orderedCards()}
	var o deckOptions
	for _, opt := range opts {
		opt(d, &o)
	}
	if d.seeded && o.initialShuffle {
		d.initialShuffle()
	}
	return d
}

func orderedCards() []Card {
	cards := make([]Card, 0, DeckSize)
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// SeedFromID derives a deck seed from an arbitrary identifier: the first
// eight hex digits of the MD5 digest of its bytes, read as a base-16 number.
func SeedFromID(id string) uint64 {
	sum := md5.Sum([]byte(id))
	digest := hex.EncodeToString(sum[:])
	seed, _ := strconv.ParseUint(digest[:8], 16, 64) // always valid hex
	return seed
}

// Seed returns the configured seed, if any
func (d *Deck) Seed() (uint64, bool) {
	return d.seed, d.seeded
}

// ShuffleCount returns how many times CutAndShuffle has been applied
func (d *Deck) ShuffleCount() int {
	return d.shuffleCount
}

// Cards returns a copy of the remaining cards in order
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// initialShuffle performs the one-time seed-derived merge. The cut always
// falls in [1,50].
func (d *Deck) initialShuffle() {
	cut := d.seed%50 + 1
	d.cards = merge(d.cards, int(cut), func(pos, leftSize, rightSize, leftUsed, rightUsed int) bool {
		left := progress(leftUsed, leftSize)
		right := progress(rightUsed, rightSize)
		if diff(left, right) < 0.1 {
			value := uint64(pos)*7 + cut*13 + d.seed*31
			return float64(value%100)/100.0 < 0.5
		}
		return left < right
	})
}

// CutAndShuffle cuts the deck at cutPoint and deterministically interleaves
// both halves. Cut points outside [1,51] are replaced by DefaultCutPoint.
// The shuffle counter is incremented after the merge and a snapshot of the
// new order is returned.
func (d *Deck) CutAndShuffle(cutPoint int) []Card {
	if cutPoint < 1 || cutPoint > 51 {
		cutPoint = DefaultCutPoint
	}
	count := d.shuffleCount
	d.cards = merge(d.cards, cutPoint, func(pos, leftSize, rightSize, leftUsed, rightUsed int) bool {
		return d.takeFromLeft(pos, leftSize, rightSize, leftUsed, rightUsed, cutPoint, count)
	})
	d.shuffleCount++
	return d.Cards()
}

// takeFromLeft decides which half supplies the card at position. It is a
// pure function of its arguments and the deck seed.
func (d *Deck) takeFromLeft(position, leftSize, rightSize, leftUsed, rightUsed, cutPoint, shuffleCount int) bool {
	if leftUsed >= leftSize {
		return false
	}
	if rightUsed >= rightSize {
		return true
	}

	left := progress(leftUsed, leftSize)
	right := progress(rightUsed, rightSize)

	base := uint64(position)*7 + uint64(cutPoint)*13 + uint64(shuffleCount)*31
	if d.seeded {
		base += d.seed * 97
		base += (d.seed % 1000) * uint64(position)
	}
	determinism := float64(base%1000) / 1000.0

	gap := diff(left, right)
	if gap < 0.2 {
		return determinism < 0.5
	}

	preferLeft := left < right
	changeThreshold := 0.15 + determinism*0.2
	if gap < changeThreshold {
		if determinism < 0.5 {
			return !preferLeft
		}
		return preferLeft
	}

	nudge := (determinism - 0.5) * 0.3
	return left+nudge < right-nudge
}

// merge splits cards at cut and rebuilds the sequence one card at a time,
// asking choose whether the next card comes from the top half. Exhausted
// halves are skipped regardless of the answer.
func merge(cards []Card, cut int, choose func(pos, leftSize, rightSize, leftUsed, rightUsed int) bool) []Card {
	if cut > len(cards) {
		cut = len(cards)
	}
	top := cards[:cut]
	bottom := cards[cut:]

	out := make([]Card, 0, len(cards))
	l, r := 0, 0
	for l < len(top) || r < len(bottom) {
		fromLeft := choose(len(out), len(top), len(bottom), l, r)
		switch {
		case fromLeft && l < len(top):
			out = append(out, top[l])
			l++
		case r < len(bottom):
			out = append(out, bottom[r])
			r++
		default:
			out = append(out, top[l])
			l++
		}
	}
	return out
}

func progress(used, size int) float64 {
	if size == 0 {
		return 1.0
	}
	return float64(used) / float64(size)
}

func diff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

// Deal removes and returns the top card from the deck
func (d *Deck) Deal() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}

	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DealN deals up to n cards from the top of the deck
func (d *Deck) DealN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}

	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		if card, ok := d.Deal(); ok {
			cards = append(cards, card)
		}
	}

	return cards
}

// CardsRemaining returns the number of cards left in the deck
func (d *Deck) CardsRemaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// Peek returns the top card without removing it from the deck
func (d *Deck) Peek() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	return d.cards[0], true
}
