package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
)

// Error kinds produced by the transport itself. Engine rejections use the
// game.ErrorKind values.
const (
	kindInvalidRequest = "InvalidRequest"
	kindInternal       = "InternalError"
	kindUnavailable    = "Unavailable"
)

const maxBodySize = 64 << 10

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, IndexResponse{
		Message: "Clock patience API",
		Status:  "running",
		Version: s.version,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	if !s.decode(w, r, "new", &req) {
		return
	}
	id := gameIDOrDefault(req.GameID)

	state, err := s.games.Create(id, req.GameRules)
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, NewGameResponse{
		Success:   true,
		GameID:    id,
		Message:   "Game created",
		GameState: state,
	})
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	var req ShuffleRequest
	if !s.decode(w, r, "shuffle", &req) {
		return
	}

	resp := ShuffleResponse{Success: true, CutPoint: req.CutPoint}
	err := s.games.With(gameIDOrDefault(req.GameID), func(g *game.Game) error {
		before := g.Deck().Cards()
		after, err := g.Shuffle(req.CutPoint)
		if err != nil {
			return err
		}
		resp.DeckBefore = before
		resp.DeckAfter = after
		resp.ShuffleCount = g.Deck().ShuffleCount()
		return nil
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	resp.Message = fmt.Sprintf("Deck shuffled at position %d", req.CutPoint)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if !s.decode(w, r, "game", &req) {
		return
	}

	var state game.State
	err := s.games.With(gameIDOrDefault(req.GameID), func(g *game.Game) error {
		var err error
		state, err = g.Start()
		return err
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{Success: true, Message: "Game started", GameState: state})
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	var req PileRequest
	if !s.decode(w, r, "pile", &req) {
		return
	}

	var resp FlipResponse
	err := s.games.With(gameIDOrDefault(req.GameID), func(g *game.Game) error {
		pile, err := parsePile(req.Pile)
		if err != nil {
			return err
		}
		card, err := g.Flip(pile)
		if err != nil {
			return err
		}
		resp = FlipResponse{Success: true, Card: card, Pile: pile, GameState: g.State()}
		return nil
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	var req PileRequest
	if !s.decode(w, r, "pile", &req) {
		return
	}

	var resp PlaceResponse
	err := s.games.With(gameIDOrDefault(req.GameID), func(g *game.Game) error {
		pile, err := parsePile(req.Pile)
		if err != nil {
			return err
		}
		result, err := g.Place(pile)
		if err != nil {
			return err
		}
		resp = PlaceResponse{Success: true, PlaceResult: result, GameState: g.State()}
		return nil
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var state game.State
	err := s.games.With(gameIDOrDefault(r.URL.Query().Get("game_id")), func(g *game.Game) error {
		state = g.State()
		return nil
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, StateResponse{Success: true, GameState: state})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req GameRequest
	if !s.decode(w, r, "game", &req) {
		return
	}
	id := gameIDOrDefault(req.GameID)

	s.games.Reset(id)
	s.writeJSON(w, http.StatusOK, ResetResponse{Success: true, GameID: id, Message: "Game reset"})
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	id := gameIDOrDefault(r.URL.Query().Get("game_id"))

	var info game.DebugInfo
	err := s.games.With(id, func(g *game.Game) error {
		info = g.Debug()
		return nil
	})
	if game.KindOf(err) == game.KindGameNotFound {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:       string(game.KindGameNotFound),
			Message:     fmt.Sprintf("game %q not found", id),
			ActiveGames: s.games.IDs(),
		})
		return
	}
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DebugResponse{DebugInfo: info, TotalGamesActive: s.games.Len()})
}

func (s *Server) handleAutoPlay(w http.ResponseWriter, r *http.Request) {
	var req AutoPlayRequest
	if !s.decode(w, r, "autoplay", &req) {
		return
	}

	var resp AutoPlayResponse
	err := s.games.With(gameIDOrDefault(req.GameID), func(g *game.Game) error {
		result, err := game.AutoPlay(g, req.MaxMoves)
		if err != nil {
			return err
		}
		resp = AutoPlayResponse{Success: true, AutoPlayResult: result, GameState: g.State()}
		return nil
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func parsePile(text string) (deck.Rank, error) {
	rank, err := deck.ParseRank(text)
	if err != nil {
		return 0, game.NewError(game.KindInvalidPile, "unknown pile %q", text)
	}
	return rank, nil
}

// decode reads the body, validates it against schema and unmarshals it into
// dst. An empty body is treated as {}. It writes the error response itself
// and reports whether the handler should continue.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, kindInvalidRequest, "failed to read request body")
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}

	if err := s.validator.Validate(schema, body); err != nil {
		s.writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		s.writeError(w, http.StatusBadRequest, kindInvalidRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	var gameErr *game.Error
	if !errors.As(err, &gameErr) {
		s.logger.Error().Err(err).Msg("Unexpected error")
		s.writeError(w, http.StatusInternalServerError, kindInternal, err.Error())
		return
	}

	status := http.StatusBadRequest
	if gameErr.Kind == game.KindGameNotFound {
		status = http.StatusNotFound
	}
	s.writeError(w, status, string(gameErr.Kind), gameErr.Message)
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: kind, Message: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}
