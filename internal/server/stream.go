package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/clockpatience/internal/game"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512

	streamBufferSize = 256
)

// EventMessage is the envelope written to event stream clients
type EventMessage struct {
	Type      game.EventType `json:"type"`
	GameID    string         `json:"game_id"`
	Timestamp time.Time      `json:"timestamp"`
	Data      game.GameEvent `json:"data"`
}

// eventStream forwards bus events to one WebSocket client. OnEvent runs on
// the publishing goroutine, usually while a game lock is held, so it never
// blocks: a client that falls behind is disconnected.
type eventStream struct {
	conn   *websocket.Conn
	gameID string
	logger zerolog.Logger

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newEventStream(conn *websocket.Conn, gameID string, logger zerolog.Logger) *eventStream {
	return &eventStream{
		conn:   conn,
		gameID: gameID,
		logger: logger.With().Str("component", "stream").Str("game_id", gameID).Logger(),
		send:   make(chan []byte, streamBufferSize),
		done:   make(chan struct{}),
	}
}

// OnEvent implements game.EventSubscriber
func (s *eventStream) OnEvent(event game.GameEvent) {
	if s.gameID != "" && event.Game() != s.gameID {
		return
	}

	data, err := json.Marshal(EventMessage{
		Type:      event.EventType(),
		GameID:    event.Game(),
		Timestamp: event.Timestamp(),
		Data:      event,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("type", string(event.EventType())).Msg("Failed to encode event")
		return
	}

	select {
	case <-s.done:
	case s.send <- data:
	default:
		s.logger.Warn().Msg("Event stream buffer full, closing connection")
		s.Close()
	}
}

// Close stops both pumps. Safe to call more than once.
func (s *eventStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Done is closed once the stream has stopped
func (s *eventStream) Done() <-chan struct{} {
	return s.done
}

// readPump discards client frames and notices disconnects
func (s *eventStream) readPump() {
	defer s.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug().Err(err).Msg("Event stream read error")
			}
			return
		}
	}
}

// writePump delivers queued events and keeps the connection alive
func (s *eventStream) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case data := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Debug().Err(err).Msg("Failed to write event")
				s.Close()
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
