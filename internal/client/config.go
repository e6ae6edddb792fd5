package client

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables read by the play client
const (
	// EnvServer is the base URL of the clock patience server
	EnvServer = "CLOCKPATIENCE_SERVER"

	// EnvGame selects the game identifier (defaults to "default")
	EnvGame = "CLOCKPATIENCE_GAME"

	// EnvRules selects the rule variant for new games
	EnvRules = "CLOCKPATIENCE_RULES"

	// EnvWatch streams server events while playing when set to a true value
	EnvWatch = "CLOCKPATIENCE_WATCH"
)

// DefaultServerURL is used when neither a flag nor EnvServer is set
const DefaultServerURL = "http://localhost:5000"

// Config holds play client settings
type Config struct {
	ServerURL string
	GameID    string
	Rules     string
	Watch     bool
}

// FromEnv fills any empty field of base from the environment. Explicit values
// in base win over the environment.
func FromEnv(base Config) (Config, error) {
	cfg := base

	if cfg.ServerURL == "" {
		cfg.ServerURL = os.Getenv(EnvServer)
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	if cfg.GameID == "" {
		cfg.GameID = os.Getenv(EnvGame)
	}
	if cfg.GameID == "" {
		cfg.GameID = "default"
	}

	if cfg.Rules == "" {
		cfg.Rules = os.Getenv(EnvRules)
	}

	if !cfg.Watch {
		if watch := os.Getenv(EnvWatch); watch != "" {
			v, err := strconv.ParseBool(watch)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s value: %w", EnvWatch, err)
			}
			cfg.Watch = v
		}
	}

	return cfg, nil
}
