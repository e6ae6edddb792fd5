// Package archive writes finished games to disk as TOML records, one file
// per game under a directory named after the game identifier.
package archive

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/coder/quartz"
	"github.com/rs/zerolog"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/fileutil"
	"github.com/lox/clockpatience/internal/game"
	"github.com/lox/clockpatience/internal/gameid"
)

// Record is the archived form of a finished game
type Record struct {
	ID            string    `toml:"id"`
	GameID        string    `toml:"game_id"`
	Rules         string    `toml:"rules"`
	Status        string    `toml:"status"`
	Reason        string    `toml:"reason,omitempty"`
	Seeded        bool      `toml:"seeded"`
	Seed          int64     `toml:"seed,omitempty"`
	ShuffleCount  int       `toml:"shuffle_count"`
	KingsRevealed int       `toml:"kings_revealed"`
	FinishedAt    time.Time `toml:"finished_at"`
	Moves         []Move    `toml:"moves"`
}

// Move is one archived placement
type Move struct {
	Card deck.Card `toml:"card"`
	Pile deck.Rank `toml:"pile"`
}

// Won reports whether the archived game was won
func (r Record) Won() bool {
	return r.Status == string(game.StatusWon)
}

// NewRecord captures a game's final state
func NewRecord(id string, g *game.Game, finishedAt time.Time) Record {
	moves := g.Moves()
	rec := Record{
		ID:            gameid.Generate(),
		GameID:        id,
		Rules:         g.Rules().Name(),
		Status:        g.Status().String(),
		Reason:        string(g.Reason()),
		ShuffleCount:  g.Deck().ShuffleCount(),
		KingsRevealed: g.State().KingsRevealed,
		FinishedAt:    finishedAt.UTC(),
		Moves:         make([]Move, len(moves)),
	}
	if seed, ok := g.Deck().Seed(); ok {
		rec.Seeded = true
		rec.Seed = int64(seed) // seeds are 32-bit
	}
	for i, m := range moves {
		rec.Moves[i] = Move{Card: m.Card, Pile: m.Pile}
	}
	return rec
}

// Encode renders a record as TOML
func Encode(rec Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = "\t"
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads a record written by Writer
func Load(path string) (Record, error) {
	var rec Record
	if _, err := toml.DecodeFile(path, &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return rec, nil
}

// Writer archives finished games below a root directory
type Writer struct {
	dir    string
	clock  quartz.Clock
	logger zerolog.Logger
}

// NewWriter creates a writer rooted at dir
func NewWriter(dir string, logger zerolog.Logger, clock quartz.Clock) *Writer {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Writer{
		dir:    dir,
		clock:  clock,
		logger: logger.With().Str("component", "archive").Logger(),
	}
}

// Archive writes the game's record to <dir>/<game id>/<record id>.toml
func (w *Writer) Archive(id string, g *game.Game) error {
	rec := NewRecord(id, g, w.clock.Now("archive"))
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	path := filepath.Join(w.dir, safeName(id), rec.ID+".toml")
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive record: %w", err)
	}
	w.logger.Info().
		Str("game_id", id).
		Str("status", rec.Status).
		Int("moves", len(rec.Moves)).
		Str("path", path).
		Msg("Archived game")
	return nil
}

// List returns the record files for a game identifier, oldest first
func (w *Writer) List(id string) ([]string, error) {
	dir := filepath.Join(w.dir, safeName(id))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// safeName maps an arbitrary game identifier onto a single path element
func safeName(id string) string {
	if id == "" || id == "." || id == ".." {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, id)
}
