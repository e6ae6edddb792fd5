package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
)

// ErrQuit is returned by Execute when the user asks to leave
var ErrQuit = errors.New("quit")

// Command is one interactive command
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Help    string
	run     func(ctx context.Context, s *Session, args []string) error
}

// Session runs interactive commands against a server and renders results
type Session struct {
	client   *Client
	out      io.Writer
	rules    string
	last     *game.State
	styles   Styles
	commands []*Command
	byName   map[string]*Command
}

// NewSession creates a session writing its output to out. rules is used by
// "new" when no variant is given.
func NewSession(c *Client, out io.Writer, rules string) *Session {
	s := &Session{client: c, out: out, rules: rules, styles: NewStyles(out), byName: make(map[string]*Command)}
	for _, cmd := range builtinCommands() {
		s.commands = append(s.commands, cmd)
		s.byName[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			s.byName[alias] = cmd
		}
	}
	return s
}

// Styles returns the styles used for rendering
func (s *Session) Styles() Styles {
	return s.styles
}

// Commands lists the available command names, for completion
func (s *Session) Commands() []string {
	names := make([]string, 0, len(s.commands))
	for _, cmd := range s.commands {
		names = append(names, cmd.Name)
	}
	return names
}

// Execute parses and runs one input line. Blank lines are ignored.
func (s *Session) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := s.byName[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", fields[0])
	}
	return cmd.run(ctx, s, fields[1:])
}

func builtinCommands() []*Command {
	return []*Command{
		{Name: "help", Aliases: []string{"?", "h"}, Help: "Show commands", run: runHelp},
		{Name: "new", Usage: "[original|alternative]", Help: "Create the game with an ordered deck", run: runNew},
		{Name: "shuffle", Aliases: []string{"s"}, Usage: "<cut> [cut...]", Help: "Cut and shuffle the deck (cut 1-51)", run: runShuffle},
		{Name: "start", Help: "Deal four cards to every pile", run: runStart},
		{Name: "flip", Aliases: []string{"f"}, Usage: "[pile]", Help: "Flip a face-down card (defaults to the suggested pile)", run: runFlip},
		{Name: "place", Aliases: []string{"p"}, Usage: "[pile]", Help: "Place the current card (defaults to its own rank)", run: runPlace},
		{Name: "auto", Aliases: []string{"a"}, Usage: "[moves]", Help: "Let the server play (to the end by default)", run: runAuto},
		{Name: "state", Aliases: []string{"board"}, Help: "Show the board", run: runState},
		{Name: "debug", Help: "Show server counters", run: runDebug},
		{Name: "reset", Help: "Replace the game with an unseeded one", run: runReset},
		{Name: "game", Usage: "<id>", Help: "Switch to another game identifier", run: runGame},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Leave", run: func(context.Context, *Session, []string) error { return ErrQuit }},
	}
}

func runHelp(_ context.Context, s *Session, _ []string) error {
	for _, cmd := range s.commands {
		usage := cmd.Name
		if cmd.Usage != "" {
			usage += " " + cmd.Usage
		}
		fmt.Fprintf(s.out, "  %-28s %s\n", usage, cmd.Help)
	}
	return nil
}

func runNew(ctx context.Context, s *Session, args []string) error {
	rules := s.rules
	if len(args) > 0 {
		rules = args[0]
	}
	resp, err := s.client.NewGame(ctx, rules)
	if err != nil {
		return err
	}
	s.last = &resp.GameState
	fmt.Fprintln(s.out, s.styles.Success.Render(fmt.Sprintf("Created game %s (%s rules)", resp.GameID, resp.GameState.GameRules)))
	return nil
}

func runShuffle(ctx context.Context, s *Session, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: shuffle <cut> [cut...]")
	}
	for _, arg := range args {
		cut, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid cut point %q", arg)
		}
		resp, err := s.client.Shuffle(ctx, cut)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Shuffle #%d at %d: top %s\n", resp.ShuffleCount, resp.CutPoint, s.formatCards(resp.DeckAfter, 10))
	}
	return nil
}

func runStart(ctx context.Context, s *Session, _ []string) error {
	resp, err := s.client.Start(ctx)
	if err != nil {
		return err
	}
	s.last = &resp.GameState
	s.renderState(&resp.GameState)
	return nil
}

func runFlip(ctx context.Context, s *Session, args []string) error {
	pile, err := s.pileArg(ctx, args, func(st *game.State) (deck.Rank, bool) {
		if st.NextFlipPile == nil {
			return 0, false
		}
		return *st.NextFlipPile, true
	})
	if err != nil {
		return err
	}
	resp, err := s.client.Flip(ctx, pile)
	if err != nil {
		return err
	}
	s.last = &resp.GameState
	fmt.Fprintf(s.out, "Flipped %s from pile %s\n", s.styles.Card(resp.Card), resp.Pile)
	return nil
}

func runPlace(ctx context.Context, s *Session, args []string) error {
	pile, err := s.pileArg(ctx, args, func(st *game.State) (deck.Rank, bool) {
		if st.CurrentCard == nil {
			return 0, false
		}
		return st.CurrentCard.Rank, true
	})
	if err != nil {
		return err
	}
	resp, err := s.client.Place(ctx, pile)
	if err != nil {
		return err
	}
	s.last = &resp.GameState
	fmt.Fprintf(s.out, "%s on %s: %s\n", s.styles.Card(resp.Card), resp.Pile, resp.Message)
	if resp.GameOver {
		s.renderState(&resp.GameState)
	}
	return nil
}

func runAuto(ctx context.Context, s *Session, args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid move count %q", args[0])
		}
		limit = n
	}
	resp, err := s.client.AutoPlay(ctx, limit)
	if err != nil {
		return err
	}
	s.last = &resp.GameState
	fmt.Fprintf(s.out, "Played %d moves\n", resp.Moves)
	s.renderState(&resp.GameState)
	return nil
}

func runState(ctx context.Context, s *Session, _ []string) error {
	state, err := s.client.State(ctx)
	if err != nil {
		return err
	}
	s.last = state
	s.renderState(state)
	return nil
}

func runDebug(ctx context.Context, s *Session, _ []string) error {
	info, err := s.client.Debug(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "game=%s status=%s shuffles=%d moves=%d kings=%d active_games=%d\n",
		info.ID, info.Status, info.ShuffleCount, info.MovesCount, info.KingsRevealed, info.TotalGamesActive)
	return nil
}

func runReset(ctx context.Context, s *Session, _ []string) error {
	resp, err := s.client.Reset(ctx)
	if err != nil {
		return err
	}
	s.last = nil
	fmt.Fprintln(s.out, s.styles.Warning.Render(fmt.Sprintf("Game %s reset", resp.GameID)))
	return nil
}

func runGame(_ context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: game <id>")
	}
	s.client.SetGameID(args[0])
	s.last = nil
	fmt.Fprintf(s.out, "Switched to game %s\n", args[0])
	return nil
}

// pileArg parses an explicit pile or falls back to one derived from the
// latest state.
func (s *Session) pileArg(ctx context.Context, args []string, fallback func(*game.State) (deck.Rank, bool)) (deck.Rank, error) {
	if len(args) > 0 {
		return deck.ParseRank(args[0])
	}
	state, err := s.client.State(ctx)
	if err != nil {
		return 0, err
	}
	s.last = state
	pile, ok := fallback(state)
	if !ok {
		return 0, fmt.Errorf("no pile to choose; pass one explicitly")
	}
	return pile, nil
}

func (s *Session) renderState(st *game.State) {
	fmt.Fprintf(s.out, "Status: %s  rules: %s  moves: %d  kings: %d\n", s.styles.Status(st.Status), st.GameRules, st.MovesCount, st.KingsRevealed)
	if st.CurrentCard != nil {
		fmt.Fprintf(s.out, "Current card: %s\n", s.styles.Card(*st.CurrentCard))
	}
	for _, rank := range deck.AllRanks() {
		marker := " "
		if st.NextFlipPile != nil && *st.NextFlipPile == rank {
			marker = s.styles.Marker.Render(">")
		}
		fmt.Fprintf(s.out, "%s %2s | %d down | %s\n", marker, rank, st.FaceDownCards[rank], s.formatCards(st.Piles[rank], 0))
	}
}

func (s *Session) formatCards(cards []deck.Card, limit int) string {
	if limit > 0 && len(cards) > limit {
		cards = cards[:limit]
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = s.styles.Card(c)
	}
	return strings.Join(parts, " ")
}
