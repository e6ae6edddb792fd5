package game

import (
	"github.com/rs/zerolog"
)

// LogSubscriber writes every game event as a structured log line
type LogSubscriber struct {
	logger zerolog.Logger
}

// NewLogSubscriber creates a subscriber logging through logger
func NewLogSubscriber(logger zerolog.Logger) *LogSubscriber {
	return &LogSubscriber{logger: logger.With().Str("component", "events").Logger()}
}

func (s *LogSubscriber) OnEvent(event GameEvent) {
	ev := s.logger.Debug()
	switch e := event.(type) {
	case GameCreatedEvent:
		ev = s.logger.Info().Str("rules", e.Rules).Bool("seeded", e.Seeded)
	case ShufflePerformedEvent:
		ev = ev.Int("cut_point", e.CutPoint).Int("shuffle_count", e.ShuffleCount)
	case GameStartedEvent:
		ev = s.logger.Info().Str("rules", e.Rules)
	case CardFlippedEvent:
		ev = ev.Stringer("card", e.Card).Stringer("pile", e.Pile)
	case CardPlacedEvent:
		ev = ev.Stringer("card", e.Card).Stringer("pile", e.Pile).
			Int("kings", e.KingsRevealed).Int("moves", e.MovesCount)
	case GameOverEvent:
		ev = s.logger.Info().Bool("won", e.Won).Str("reason", string(e.Reason)).Int("moves", e.MovesCount)
	case GameEvictedEvent:
		ev = s.logger.Info().Dur("idle_for", e.IdleFor)
	case GameResetEvent:
		ev = s.logger.Info()
	}
	ev.Str("game_id", event.Game()).Str("event", event.EventType().String()).Msg("game event")
}
