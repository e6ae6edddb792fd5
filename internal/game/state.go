package game

import (
	"github.com/lox/clockpatience/internal/deck"
)

// Status is the lifecycle state of a game
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Terminal reports whether no further moves are allowed
func (s Status) Terminal() bool {
	return s == StatusWon || s == StatusLost
}

func (s Status) String() string {
	return string(s)
}

// Move is one entry of the placement log
type Move struct {
	Card deck.Card `json:"card"`
	Pile deck.Rank `json:"pile"`
}

// State is a read-only snapshot of a game. Face-down cards are reported as
// counts only.
type State struct {
	Status            Status                    `json:"status"`
	CurrentCard       *deck.Card                `json:"current_card"`
	CurrentCardSource *deck.Rank                `json:"current_card_source"`
	Piles             map[deck.Rank][]deck.Card `json:"piles"`
	FaceDownCards     map[deck.Rank]int         `json:"face_down_cards"`
	KingsRevealed     int                       `json:"kings_revealed"`
	CardsRemaining    int                       `json:"cards_remaining"`
	MovesCount        int                       `json:"moves_count"`
	ShuffleCount      int                       `json:"shuffle_count"`
	NextFlipPile      *deck.Rank                `json:"next_flip_pile"`
	GameRules         string                    `json:"game_rules"`
}

// PlaceResult describes a successful placement
type PlaceResult struct {
	Card          deck.Card  `json:"card"`
	Pile          deck.Rank  `json:"pile"`
	Status        Status     `json:"status"`
	Reason        Reason     `json:"reason,omitempty"`
	Message       string     `json:"message"`
	GameOver      bool       `json:"game_over"`
	Won           bool       `json:"won"`
	KingsRevealed int        `json:"kings_revealed"`
	NextFlipPile  *deck.Rank `json:"next_flip_pile"`
}

// DebugInfo exposes internal counters for diagnostics
type DebugInfo struct {
	ID             string            `json:"game_id"`
	Status         Status            `json:"status"`
	CurrentCard    *deck.Card        `json:"current_card"`
	KingsRevealed  int               `json:"kings_revealed"`
	ShuffleCount   int               `json:"shuffle_count"`
	CardsRemaining int               `json:"cards_remaining"`
	MovesCount     int               `json:"moves_count"`
	FaceDownCards  map[deck.Rank]int `json:"face_down_cards"`
	FaceUpCards    map[deck.Rank]int `json:"face_up_cards"`
	Seeded         bool              `json:"seeded"`
	Seed           uint64            `json:"seed,omitempty"`
}
