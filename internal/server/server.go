package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/clockpatience/internal/game"
	"github.com/lox/clockpatience/internal/store"
)

// Server exposes the game store over HTTP and streams game events over
// WebSocket.
type Server struct {
	logger    zerolog.Logger
	games     *store.Store
	bus       game.EventBus
	validator *Validator
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	handler   http.Handler

	corsOrigins []string
	version     string

	mu            sync.Mutex
	httpServer    *http.Server
	janitorCancel context.CancelFunc
	streams       map[*eventStream]struct{}
}

// Option configures a Server
type Option func(*Server)

// WithCORSOrigins sets the origins allowed on /api routes and the event
// stream. "*" allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithVersion reports version on the index route
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// NewServer creates a server backed by games. bus should be the bus the store
// publishes to; without one the event stream is unavailable.
func NewServer(logger zerolog.Logger, games *store.Store, bus game.EventBus, opts ...Option) (*Server, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	s := &Server{
		logger:      logger.With().Str("component", "server").Logger(),
		games:       games,
		bus:         bus,
		validator:   validator,
		mux:         http.NewServeMux(),
		corsOrigins: []string{"*"},
		streams:     make(map[*eventStream]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		CheckOrigin:     s.checkOrigin,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	s.routes()
	s.handler = s.logRequests(s.recoverPanics(s.cors(s.mux)))
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/game/new", s.handleNew)
	s.mux.HandleFunc("POST /api/game/shuffle", s.handleShuffle)
	s.mux.HandleFunc("POST /api/game/start", s.handleStart)
	s.mux.HandleFunc("POST /api/game/flip-card", s.handleFlip)
	s.mux.HandleFunc("POST /api/game/place-card", s.handlePlace)
	s.mux.HandleFunc("GET /api/game/state", s.handleState)
	s.mux.HandleFunc("POST /api/game/reset", s.handleReset)
	s.mux.HandleFunc("GET /api/game/debug", s.handleDebug)
	s.mux.HandleFunc("POST /api/game/autoplay", s.handleAutoPlay)
	s.mux.HandleFunc("GET /api/game/events", s.handleEvents)
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the idle janitor and serves HTTP on addr until Shutdown
func (s *Server) Start(addr string) error {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.janitorCancel = cancel
	httpServer := s.httpServer
	s.mu.Unlock()

	s.games.StartJanitor(ctx)

	s.logger.Info().Str("addr", addr).Msg("Listening")
	return httpServer.ListenAndServe()
}

// Shutdown stops the janitor, closes event streams and drains HTTP requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	httpServer := s.httpServer
	if s.janitorCancel != nil {
		s.janitorCancel()
	}
	streams := make([]*eventStream, 0, len(s.streams))
	for stream := range s.streams {
		streams = append(streams, stream)
	}
	s.mu.Unlock()

	for _, stream := range streams {
		stream.Close()
	}

	if httpServer == nil {
		return nil
	}
	if err := httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "" || s.originAllowed(origin)
}

func (s *Server) originAllowed(origin string) bool {
	return slices.Contains(s.corsOrigins, "*") || slices.Contains(s.corsOrigins, origin)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.bus == nil {
		s.writeError(w, http.StatusServiceUnavailable, kindUnavailable, "event stream is not enabled")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	stream := newEventStream(conn, r.URL.Query().Get("game_id"), s.logger)
	s.mu.Lock()
	s.streams[stream] = struct{}{}
	s.mu.Unlock()
	s.bus.Subscribe(stream)

	s.logger.Debug().Str("remote_addr", r.RemoteAddr).Str("game_id", stream.gameID).Msg("Event stream opened")

	go stream.writePump()
	go stream.readPump()
	go func() {
		<-stream.Done()
		s.bus.Unsubscribe(stream)
		s.mu.Lock()
		delete(s.streams, stream)
		s.mu.Unlock()
		s.logger.Debug().Str("game_id", stream.gameID).Msg("Event stream closed")
	}()
}

// StreamCount returns the number of open event streams
func (s *Server) StreamCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.streams)
}
