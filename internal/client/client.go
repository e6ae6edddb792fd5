package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
	"github.com/lox/clockpatience/internal/server" // Reuse message types
)

// APIError is returned for any non-2xx response
type APIError struct {
	Status      int
	Kind        string
	Message     string
	ActiveGames []string
}

func (e *APIError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// Is lets errors.Is match engine sentinels such as game.ErrRankMismatch
func (e *APIError) Is(target error) bool {
	var gameErr *game.Error
	if errors.As(target, &gameErr) {
		return string(gameErr.Kind) == e.Kind
	}
	return false
}

// Event is one message from the event stream. Data holds the event body,
// whose shape depends on Type.
type Event struct {
	Type      game.EventType  `json:"type"`
	GameID    string          `json:"game_id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Client talks to a clock patience server over its HTTP API. A Client is
// bound to one game identifier.
type Client struct {
	baseURL *url.URL
	gameID  string
	http    *http.Client
	logger  *log.Logger
}

// NewClient creates a client for the server at serverURL
func NewClient(serverURL, gameID string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", serverURL)
	}
	if gameID == "" {
		gameID = server.DefaultGameID
	}
	return &Client{
		baseURL: u,
		gameID:  gameID,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger.WithPrefix("client"),
	}, nil
}

// GameID returns the game this client operates on
func (c *Client) GameID() string {
	return c.gameID
}

// SetGameID switches the client to another game
func (c *Client) SetGameID(id string) {
	c.gameID = id
}

// NewGame creates or replaces the game. An empty rules name uses the server
// default.
func (c *Client) NewGame(ctx context.Context, rules string) (*server.NewGameResponse, error) {
	var resp server.NewGameResponse
	req := server.NewGameRequest{GameID: c.gameID, GameRules: rules}
	if err := c.post(ctx, "new", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shuffle cuts and shuffles the deck
func (c *Client) Shuffle(ctx context.Context, cutPoint int) (*server.ShuffleResponse, error) {
	var resp server.ShuffleResponse
	req := server.ShuffleRequest{GameID: c.gameID, CutPoint: cutPoint}
	if err := c.post(ctx, "shuffle", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Start deals the piles
func (c *Client) Start(ctx context.Context) (*server.StateResponse, error) {
	var resp server.StateResponse
	if err := c.post(ctx, "start", server.GameRequest{GameID: c.gameID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Flip reveals the next face-down card of pile
func (c *Client) Flip(ctx context.Context, pile deck.Rank) (*server.FlipResponse, error) {
	var resp server.FlipResponse
	req := server.PileRequest{GameID: c.gameID, Pile: pile.String()}
	if err := c.post(ctx, "flip-card", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Place puts the current card on pile
func (c *Client) Place(ctx context.Context, pile deck.Rank) (*server.PlaceResponse, error) {
	var resp server.PlaceResponse
	req := server.PileRequest{GameID: c.gameID, Pile: pile.String()}
	if err := c.post(ctx, "place-card", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AutoPlay lets the server play up to maxMoves placements (0 plays to the end)
func (c *Client) AutoPlay(ctx context.Context, maxMoves int) (*server.AutoPlayResponse, error) {
	var resp server.AutoPlayResponse
	req := server.AutoPlayRequest{GameID: c.gameID, MaxMoves: maxMoves}
	if err := c.post(ctx, "autoplay", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reset replaces the game with an unseeded one
func (c *Client) Reset(ctx context.Context) (*server.ResetResponse, error) {
	var resp server.ResetResponse
	if err := c.post(ctx, "reset", server.GameRequest{GameID: c.gameID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// State fetches the current snapshot
func (c *Client) State(ctx context.Context) (*game.State, error) {
	var resp server.StateResponse
	if err := c.get(ctx, "state", &resp); err != nil {
		return nil, err
	}
	return &resp.GameState, nil
}

// Debug fetches diagnostic counters
func (c *Client) Debug(ctx context.Context) (*server.DebugResponse, error) {
	var resp server.DebugResponse
	if err := c.get(ctx, "debug", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WatchEvents streams events for this game to fn until ctx is cancelled or
// the server closes the stream.
func (c *Client) WatchEvents(ctx context.Context, fn func(Event)) error {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/game/events"
	u.RawQuery = url.Values{"game_id": {c.gameID}}.Encode()

	c.logger.Debug("Connecting to event stream", "url", u.String())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to event stream: %w", err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var event Event
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		fn(event)
	}
}

func (c *Client) endpoint(name string) string {
	u := *c.baseURL
	u.Path += "/api/game/" + name
	return u.String()
}

func (c *Client) post(ctx context.Context, name string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(name), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, name string, out any) error {
	target := c.endpoint(name) + "?" + url.Values{"game_id": {c.gameID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	c.logger.Debug("Request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var body server.ErrorResponse
		if json.Unmarshal(data, &body) == nil && body.Error != "" {
			apiErr.Kind = body.Error
			apiErr.Message = body.Message
			apiErr.ActiveGames = body.ActiveGames
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	return nil
}
