package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/lox/clockpatience/internal/client"
)

// PlayCmd drives a server from an interactive prompt
type PlayCmd struct {
	Server string `kong:"help='Server URL (default $CLOCKPATIENCE_SERVER or http://localhost:5000)'"`
	Game   string `kong:"help='Game identifier (default $CLOCKPATIENCE_GAME or default)'"`
	Rules  string `kong:"help='Rule variant for new games (original or alternative)'"`
	Watch  bool   `kong:"help='Print server events as they happen'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *PlayCmd) Run() error {
	cfg, err := client.FromEnv(client.Config{
		ServerURL: c.Server,
		GameID:    c.Game,
		Rules:     c.Rules,
		Watch:     c.Watch,
	})
	if err != nil {
		return err
	}

	level := log.InfoLevel
	if c.Debug {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "play", Level: level})

	api, err := client.NewClient(cfg.ServerURL, cfg.GameID, logger)
	if err != nil {
		return err
	}
	session := client.NewSession(api, os.Stdout, cfg.Rules)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Watch {
		go func() {
			err := api.WatchEvents(ctx, func(e client.Event) {
				logger.Info("event", "type", e.Type, "game", e.GameID)
			})
			if err != nil {
				logger.Warn("Event stream stopped", "error", err)
			}
		}()
	}

	completer := readline.NewPrefixCompleter()
	for _, name := range session.Commands() {
		completer.Children = append(completer.Children, readline.PcItem(name))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          session.Styles().Prompt.Render("clock> "),
		HistoryFile:     filepath.Join(os.TempDir(), "clockpatience_history"),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("failed to start prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	logger.Info("Connected", "server", cfg.ServerURL, "game", api.GameID())
	fmt.Println(session.Styles().Info.Render("Type 'help' for commands, 'new' to begin."))

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Println(session.Styles().Info.Render("Use 'quit' to exit"))
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = session.Execute(ctx, line)
		if errors.Is(err, client.ErrQuit) {
			return nil
		}
		if err != nil {
			logger.Error(err)
		}
	}
}
