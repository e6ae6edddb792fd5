package game

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/clockpatience/internal/deck"
)

type orderedSubscriber struct {
	name string
	log  *[]string
}

func (s *orderedSubscriber) OnEvent(GameEvent) { *s.log = append(*s.log, s.name) }

func TestEventBusOrderAndUnsubscribe(t *testing.T) {
	var calls []string
	a := &orderedSubscriber{name: "a", log: &calls}
	b := &orderedSubscriber{name: "b", log: &calls}
	c := &orderedSubscriber{name: "c", log: &calls}

	bus := NewEventBus()
	bus.Subscribe(a)
	bus.Subscribe(b)
	bus.Subscribe(c)
	assert.Equal(t, 3, bus.Len())

	bus.Publish(NewGameResetEvent("g"))
	assert.Equal(t, []string{"a", "b", "c"}, calls)

	bus.Unsubscribe(b)
	bus.Unsubscribe(b)
	calls = nil
	bus.Publish(NewGameResetEvent("g"))
	assert.Equal(t, []string{"a", "c"}, calls)
	assert.Equal(t, 2, bus.Len())
}

func TestEventJSON(t *testing.T) {
	e := NewCardPlacedEvent("g1", deck.NewCard(deck.Ten, deck.Hearts), deck.Ten, 1, 7)
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"game_id":"g1","card":"10H","pile":"10","kings_revealed":1,"moves_count":7}`, string(data))

	over := NewGameOverEvent("g1", false, ReasonOwnPile, 12)
	data, err = json.Marshal(over)
	require.NoError(t, err)
	assert.JSONEq(t, `{"game_id":"g1","won":false,"reason":"own_pile","moves_count":12}`, string(data))
}

func TestEventTypes(t *testing.T) {
	events := []GameEvent{
		NewGameCreatedEvent("g", RulesOriginal, true),
		NewShufflePerformedEvent("g", 10, 1),
		NewGameStartedEvent("g", RulesOriginal),
		NewCardFlippedEvent("g", deck.NewCard(deck.Ace, deck.Clubs), deck.King),
		NewCardPlacedEvent("g", deck.NewCard(deck.Ace, deck.Clubs), deck.Ace, 0, 1),
		NewGameOverEvent("g", true, ReasonComplete, 52),
		NewGameResetEvent("g"),
		NewGameEvictedEvent("g", time.Minute),
	}
	want := []EventType{
		EventTypeGameCreated,
		EventTypeShufflePerformed,
		EventTypeGameStarted,
		EventTypeCardFlipped,
		EventTypeCardPlaced,
		EventTypeGameOver,
		EventTypeGameReset,
		EventTypeGameEvicted,
	}
	for i, e := range events {
		assert.Equal(t, want[i], e.EventType())
		assert.Equal(t, "g", e.Game())
		assert.WithinDuration(t, time.Now(), e.Timestamp(), time.Minute)
	}
}

func TestLogSubscriber(t *testing.T) {
	var buf bytes.Buffer
	sub := NewLogSubscriber(zerolog.New(&buf).Level(zerolog.DebugLevel))

	sub.OnEvent(NewGameOverEvent("g7", false, ReasonFourKings, 43))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "events", line["component"])
	assert.Equal(t, "g7", line["game_id"])
	assert.Equal(t, "game_over", line["event"])
	assert.Equal(t, "four_kings", line["reason"])
	assert.Equal(t, float64(43), line["moves"])

	buf.Reset()
	sub.OnEvent(NewCardFlippedEvent("g7", deck.NewCard(deck.Queen, deck.Spades), deck.Three))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "QS", line["card"])
	assert.Equal(t, "3", line["pile"])
}
