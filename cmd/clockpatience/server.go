package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lox/clockpatience/cmd/clockpatience/shared"
	"github.com/lox/clockpatience/internal/archive"
	"github.com/lox/clockpatience/internal/game"
	"github.com/lox/clockpatience/internal/server"
	"github.com/lox/clockpatience/internal/store"
)

// ServerCmd runs the HTTP API
type ServerCmd struct {
	Config     string `kong:"short='c',default='clockpatience.hcl',help='Path to HCL configuration file (defaults apply when missing)'"`
	Addr       string `kong:"help='Listen address, overrides the config file'"`
	Debug      bool   `kong:"help='Enable debug logging'"`
	JSONLogs   bool   `kong:"name='json-logs',help='Emit structured JSON logs'"`
	ArchiveDir string `kong:"name='archive-dir',help='Archive finished games to this directory'"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if c.ArchiveDir != "" {
		cfg.Archive.Enabled = true
		cfg.Archive.Dir = c.ArchiveDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}
	if c.Debug {
		level = shared.LevelFor(true)
	}
	logger := shared.SetupLogger(level)
	if c.JSONLogs {
		logger = shared.SetupStructuredLogger(level)
	}

	storeCfg, err := cfg.StoreConfig()
	if err != nil {
		return err
	}

	bus := game.NewEventBus()
	bus.Subscribe(game.NewLogSubscriber(logger))

	opts := []store.Option{store.WithEventBus(bus)}
	if cfg.Archive.Enabled {
		opts = append(opts, store.WithArchiver(archive.NewWriter(cfg.Archive.Dir, logger, nil)))
	}
	games, err := store.New(logger, storeCfg, opts...)
	if err != nil {
		return err
	}

	s, err := server.NewServer(logger, games, bus,
		server.WithCORSOrigins(cfg.Server.CORSOrigins...),
		server.WithVersion(version),
	)
	if err != nil {
		return err
	}

	addr := cfg.GetServerAddress()
	if c.Addr != "" {
		addr = c.Addr
	}

	logger.Info().
		Str("address", addr).
		Str("default_rules", storeCfg.DefaultRules).
		Dur("idle_timeout", storeCfg.IdleTimeout).
		Bool("archive", cfg.Archive.Enabled).
		Str("version", version).
		Msg("Starting clock patience server")

	ctx := shared.SetupSignalHandler(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
