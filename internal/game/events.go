package game

import (
	"sync"
	"time"

	"github.com/lox/clockpatience/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeGameCreated      EventType = "game_created"
	EventTypeShufflePerformed EventType = "shuffle_performed"
	EventTypeGameStarted      EventType = "game_started"
	EventTypeCardFlipped      EventType = "card_flipped"
	EventTypeCardPlaced       EventType = "card_placed"
	EventTypeGameOver         EventType = "game_over"
	EventTypeGameReset        EventType = "game_reset"
	EventTypeGameEvicted      EventType = "game_evicted"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents anything that happens to a game
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
	Game() string
}

// GameCreatedEvent is published when a game is created or replaced
type GameCreatedEvent struct {
	GameID    string `json:"game_id"`
	Rules     string `json:"game_rules"`
	Seeded    bool   `json:"seeded"`
	timestamp time.Time
}

func (e GameCreatedEvent) EventType() EventType { return EventTypeGameCreated }
func (e GameCreatedEvent) Timestamp() time.Time { return e.timestamp }
func (e GameCreatedEvent) Game() string         { return e.GameID }

// NewGameCreatedEvent creates a new game created event
func NewGameCreatedEvent(gameID, rules string, seeded bool) GameCreatedEvent {
	return GameCreatedEvent{GameID: gameID, Rules: rules, Seeded: seeded, timestamp: time.Now()}
}

// ShufflePerformedEvent is published after every cut and shuffle
type ShufflePerformedEvent struct {
	GameID       string `json:"game_id"`
	CutPoint     int    `json:"cut_point"`
	ShuffleCount int    `json:"shuffle_count"`
	timestamp    time.Time
}

func (e ShufflePerformedEvent) EventType() EventType { return EventTypeShufflePerformed }
func (e ShufflePerformedEvent) Timestamp() time.Time { return e.timestamp }
func (e ShufflePerformedEvent) Game() string         { return e.GameID }

// NewShufflePerformedEvent creates a new shuffle event
func NewShufflePerformedEvent(gameID string, cutPoint, shuffleCount int) ShufflePerformedEvent {
	return ShufflePerformedEvent{
		GameID:       gameID,
		CutPoint:     cutPoint,
		ShuffleCount: shuffleCount,
		timestamp:    time.Now(),
	}
}

// GameStartedEvent is published once the deck has been dealt
type GameStartedEvent struct {
	GameID    string `json:"game_id"`
	Rules     string `json:"game_rules"`
	timestamp time.Time
}

func (e GameStartedEvent) EventType() EventType { return EventTypeGameStarted }
func (e GameStartedEvent) Timestamp() time.Time { return e.timestamp }
func (e GameStartedEvent) Game() string         { return e.GameID }

// NewGameStartedEvent creates a new game started event
func NewGameStartedEvent(gameID, rules string) GameStartedEvent {
	return GameStartedEvent{GameID: gameID, Rules: rules, timestamp: time.Now()}
}

// CardFlippedEvent is published when a face-down card is revealed
type CardFlippedEvent struct {
	GameID    string    `json:"game_id"`
	Card      deck.Card `json:"card"`
	Pile      deck.Rank `json:"pile"`
	timestamp time.Time
}

func (e CardFlippedEvent) EventType() EventType { return EventTypeCardFlipped }
func (e CardFlippedEvent) Timestamp() time.Time { return e.timestamp }
func (e CardFlippedEvent) Game() string         { return e.GameID }

// NewCardFlippedEvent creates a new card flipped event
func NewCardFlippedEvent(gameID string, card deck.Card, pile deck.Rank) CardFlippedEvent {
	return CardFlippedEvent{GameID: gameID, Card: card, Pile: pile, timestamp: time.Now()}
}

// CardPlacedEvent is published after every accepted placement
type CardPlacedEvent struct {
	GameID        string    `json:"game_id"`
	Card          deck.Card `json:"card"`
	Pile          deck.Rank `json:"pile"`
	KingsRevealed int       `json:"kings_revealed"`
	MovesCount    int       `json:"moves_count"`
	timestamp     time.Time
}

func (e CardPlacedEvent) EventType() EventType { return EventTypeCardPlaced }
func (e CardPlacedEvent) Timestamp() time.Time { return e.timestamp }
func (e CardPlacedEvent) Game() string         { return e.GameID }

// NewCardPlacedEvent creates a new card placed event
func NewCardPlacedEvent(gameID string, card deck.Card, pile deck.Rank, kings, moves int) CardPlacedEvent {
	return CardPlacedEvent{
		GameID:        gameID,
		Card:          card,
		Pile:          pile,
		KingsRevealed: kings,
		MovesCount:    moves,
		timestamp:     time.Now(),
	}
}

// GameOverEvent is published when a placement ends the game
type GameOverEvent struct {
	GameID     string `json:"game_id"`
	Won        bool   `json:"won"`
	Reason     Reason `json:"reason"`
	MovesCount int    `json:"moves_count"`
	timestamp  time.Time
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }
func (e GameOverEvent) Timestamp() time.Time { return e.timestamp }
func (e GameOverEvent) Game() string         { return e.GameID }

// NewGameOverEvent creates a new game over event
func NewGameOverEvent(gameID string, won bool, reason Reason, moves int) GameOverEvent {
	return GameOverEvent{GameID: gameID, Won: won, Reason: reason, MovesCount: moves, timestamp: time.Now()}
}

// GameResetEvent is published when a game is discarded and recreated unseeded
type GameResetEvent struct {
	GameID    string `json:"game_id"`
	timestamp time.Time
}

func (e GameResetEvent) EventType() EventType { return EventTypeGameReset }
func (e GameResetEvent) Timestamp() time.Time { return e.timestamp }
func (e GameResetEvent) Game() string         { return e.GameID }

// NewGameResetEvent creates a new game reset event
func NewGameResetEvent(gameID string) GameResetEvent {
	return GameResetEvent{GameID: gameID, timestamp: time.Now()}
}

// GameEvictedEvent is published when an idle game is dropped from the store
type GameEvictedEvent struct {
	GameID    string        `json:"game_id"`
	IdleFor   time.Duration `json:"idle_for_ns"`
	timestamp time.Time
}

func (e GameEvictedEvent) EventType() EventType { return EventTypeGameEvicted }
func (e GameEvictedEvent) Timestamp() time.Time { return e.timestamp }
func (e GameEvictedEvent) Game() string         { return e.GameID }

// NewGameEvictedEvent creates a new eviction event
func NewGameEvictedEvent(gameID string, idleFor time.Duration) GameEvictedEvent {
	return GameEvictedEvent{GameID: gameID, IdleFor: idleFor, timestamp: time.Now()}
}

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is an in-memory event bus. Delivery is synchronous and in
// subscription order; subscribers must not block.
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events. Subscribers must be
// comparable, so use pointer receivers.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	subs := bus.subscribers
	bus.mu.RUnlock()
	for _, subscriber := range subs {
		subscriber.OnEvent(event)
	}
}

// Len returns the number of subscribers
func (bus *SimpleEventBus) Len() int {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	return len(bus.subscribers)
}
