package server

import (
	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
)

// DefaultGameID is used when a request omits game_id
const DefaultGameID = "default"

// Request bodies

type GameRequest struct {
	GameID string `json:"game_id"`
}

type NewGameRequest struct {
	GameID    string `json:"game_id"`
	GameRules string `json:"game_rules"`
}

type ShuffleRequest struct {
	GameID   string `json:"game_id"`
	CutPoint int    `json:"cut_point"`
}

type PileRequest struct {
	GameID string `json:"game_id"`
	Pile   string `json:"pile"`
}

type AutoPlayRequest struct {
	GameID   string `json:"game_id"`
	MaxMoves int    `json:"max_moves"`
}

// Responses

// ErrorResponse is the body of every rejected request
type ErrorResponse struct {
	Success     bool     `json:"success"`
	Error       string   `json:"error"`
	Message     string   `json:"message"`
	ActiveGames []string `json:"active_games,omitempty"`
}

type NewGameResponse struct {
	Success   bool       `json:"success"`
	GameID    string     `json:"game_id"`
	Message   string     `json:"message"`
	GameState game.State `json:"game_state"`
}

type ShuffleResponse struct {
	Success      bool        `json:"success"`
	ShuffleCount int         `json:"shuffle_count"`
	Message      string      `json:"message"`
	DeckBefore   []deck.Card `json:"deck_before"`
	DeckAfter    []deck.Card `json:"deck_after"`
	CutPoint     int         `json:"cut_point"`
}

type StateResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	GameState game.State `json:"game_state"`
}

type FlipResponse struct {
	Success   bool       `json:"success"`
	Card      deck.Card  `json:"card"`
	Pile      deck.Rank  `json:"pile"`
	GameState game.State `json:"game_state"`
}

// PlaceResponse flattens the placement result next to the new state
type PlaceResponse struct {
	Success bool `json:"success"`
	game.PlaceResult
	GameState game.State `json:"game_state"`
}

type ResetResponse struct {
	Success bool   `json:"success"`
	GameID  string `json:"game_id"`
	Message string `json:"message"`
}

type DebugResponse struct {
	game.DebugInfo
	TotalGamesActive int `json:"total_games_active"`
}

type AutoPlayResponse struct {
	Success bool `json:"success"`
	game.AutoPlayResult
	GameState game.State `json:"game_state"`
}

type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func gameIDOrDefault(id string) string {
	if id == "" {
		return DefaultGameID
	}
	return id
}
