package game

import (
	"fmt"
	"strings"

	"github.com/lox/clockpatience/internal/deck"
)

// PileSize is the number of cards a complete pile holds
const PileSize = 4

// Board holds the card layout shared by every rule set: the face-down
// stacks, the face-up piles and the number of Kings placed face up.
type Board struct {
	faceDown [deck.NumRanks][]deck.Card
	piles    [deck.NumRanks][]deck.Card
	kings    int
}

// PileLen returns the number of face-up cards on a pile
func (b *Board) PileLen(r deck.Rank) int {
	return len(b.piles[r.Index()])
}

// FaceDownLen returns the number of face-down cards left under a pile
func (b *Board) FaceDownLen(r deck.Rank) int {
	return len(b.faceDown[r.Index()])
}

// HasFaceDown reports whether any pile still has face-down cards
func (b *Board) HasFaceDown() bool {
	for i := range b.faceDown {
		if len(b.faceDown[i]) > 0 {
			return true
		}
	}
	return false
}

// AllPilesFull reports whether every face-up pile holds PileSize cards
func (b *Board) AllPilesFull() bool {
	for i := range b.piles {
		if len(b.piles[i]) != PileSize {
			return false
		}
	}
	return true
}

// Complete reports whether the whole game is complete: every pile full and
// nothing left face down.
func (b *Board) Complete() bool {
	return b.AllPilesFull() && !b.HasFaceDown()
}

// completeWith is Complete evaluated as if one more card sat on target.
func (b *Board) completeWith(target deck.Rank) bool {
	for i := range b.piles {
		n := len(b.piles[i])
		if i == target.Index() {
			n++
		}
		if n != PileSize {
			return false
		}
	}
	return !b.HasFaceDown()
}

// Append places a card face up on its pile
func (b *Board) Append(target deck.Rank, c deck.Card) {
	b.piles[target.Index()] = append(b.piles[target.Index()], c)
}

// Kings returns the number of Kings placed face up
func (b *Board) Kings() int {
	return b.kings
}

// Placement describes the card being placed and where it came from
type Placement struct {
	Card   deck.Card
	Source deck.Rank
	Target deck.Rank
}

// Reason explains how a placement resolved
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonFinalMove Reason = "final_move"
	ReasonOwnPile   Reason = "own_pile"
	ReasonFourKings Reason = "four_kings"
	ReasonLastKing  Reason = "last_king"
	ReasonComplete  Reason = "complete"
)

// Outcome is the status a placement leaves the game in
type Outcome struct {
	Status Status
	Reason Reason
}

func continuing() Outcome { return Outcome{Status: StatusPlaying} }
func won(r Reason) Outcome { return Outcome{Status: StatusWon, Reason: r} }
func lost(r Reason) Outcome { return Outcome{Status: StatusLost, Reason: r} }

// RuleSet decides the result of placing a card. Implementations append the
// card to the board exactly once.
type RuleSet interface {
	Name() string
	Apply(b *Board, p Placement) Outcome
}

const (
	RulesOriginal    = "original"
	RulesAlternative = "alternative"
)

// OriginalRules checks for own-pile completion after the card lands: a pile
// reaching four cards from its own stack with that stack now empty ends the
// game, as a win only if it was the last move of the game.
type OriginalRules struct{}

func (OriginalRules) Name() string { return RulesOriginal }

func (OriginalRules) Apply(b *Board, p Placement) Outcome {
	b.Append(p.Target, p.Card)
	if ownPileCompleted(b, p) {
		if b.Complete() {
			return won(ReasonFinalMove)
		}
		return lost(ReasonOwnPile)
	}
	return afterPlacement(b, p)
}

// AlternativeRules checks for own-pile completion before the card lands,
// looking ahead to decide whether the completing card also finishes the
// game.
type AlternativeRules struct{}

func (AlternativeRules) Name() string { return RulesAlternative }

func (AlternativeRules) Apply(b *Board, p Placement) Outcome {
	if ownPileCompleting(b, p) {
		wouldComplete := b.completeWith(p.Target)
		b.Append(p.Target, p.Card)
		if wouldComplete {
			return won(ReasonFinalMove)
		}
		return lost(ReasonOwnPile)
	}
	b.Append(p.Target, p.Card)
	return afterPlacement(b, p)
}

// ownPileCompleted: the card just completed its own pile and that pile has
// nothing left face down.
func ownPileCompleted(b *Board, p Placement) bool {
	return b.PileLen(p.Target) == PileSize &&
		p.Source == p.Target &&
		b.FaceDownLen(p.Target) == 0
}

// ownPileCompleting: the card is about to become the fourth on the pile it
// was flipped from.
func ownPileCompleting(b *Board, p Placement) bool {
	return b.PileLen(p.Target) == PileSize-1 && p.Source == p.Target
}

// kingsExhausted counts a placed King and reports the outcome once the
// fourth one is face up.
func kingsExhausted(b *Board, p Placement) (Outcome, bool) {
	if !p.Card.IsKing() {
		return Outcome{}, false
	}
	b.kings++
	if b.kings < deck.NumSuits {
		return Outcome{}, false
	}
	if b.HasFaceDown() {
		return lost(ReasonFourKings), true
	}
	return won(ReasonLastKing), true
}

// afterPlacement runs the triggers shared by both rule sets, in order.
func afterPlacement(b *Board, p Placement) Outcome {
	if out, done := kingsExhausted(b, p); done {
		return out
	}
	if b.Complete() {
		return won(ReasonComplete)
	}
	return continuing()
}

// RulesByName returns the rule set registered under name. An empty name
// selects the original rules.
func RulesByName(name string) (RuleSet, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", RulesOriginal:
		return OriginalRules{}, nil
	case RulesAlternative:
		return AlternativeRules{}, nil
	}
	return nil, NewError(KindUnknownRules, "unknown rule set %q (want %s or %s)", name, RulesOriginal, RulesAlternative)
}

// message renders a human-readable summary of a terminal outcome
func (o Outcome) message(target deck.Rank) string {
	switch o.Reason {
	case ReasonOwnPile:
		return fmt.Sprintf("You lost! Pile %s was completed from its own stack", target)
	case ReasonFourKings:
		return "You lost! The fourth King came out before every pile was complete"
	case ReasonFinalMove, ReasonLastKing, ReasonComplete:
		return "You won! Every pile is complete"
	}
	return fmt.Sprintf("Card placed on %s", target)
}
