package server

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/lox/clockpatience/internal/game"
	"github.com/lox/clockpatience/internal/store"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server  ServerSettings   `hcl:"server,block"`
	Store   *StoreSettings   `hcl:"store,block"`
	Archive *ArchiveSettings `hcl:"archive,block"`
}

// ServerSettings contains listener and logging configuration
type ServerSettings struct {
	Address     string   `hcl:"address,optional"`
	Port        int      `hcl:"port,optional"`
	LogLevel    string   `hcl:"log_level,optional"`
	CORSOrigins []string `hcl:"cors_origins,optional"`
}

// StoreSettings controls the game registry. Durations use Go syntax ("90m").
type StoreSettings struct {
	IdleTimeout   string `hcl:"idle_timeout,optional"`
	SweepInterval string `hcl:"sweep_interval,optional"`
	DefaultRules  string `hcl:"default_rules,optional"`
}

// ArchiveSettings controls writing finished games to disk
type ArchiveSettings struct {
	Enabled bool   `hcl:"enabled,optional"`
	Dir     string `hcl:"dir,optional"`
}

const (
	defaultAddress    = "0.0.0.0"
	defaultPort       = 5000
	defaultLogLevel   = "info"
	defaultArchiveDir = "archive"
)

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	defaults := store.DefaultConfig()
	return &ServerConfig{
		Server: ServerSettings{
			Address:     defaultAddress,
			Port:        defaultPort,
			LogLevel:    defaultLogLevel,
			CORSOrigins: []string{"*"},
		},
		Store: &StoreSettings{
			IdleTimeout:   defaults.IdleTimeout.String(),
			SweepInterval: defaults.SweepInterval.String(),
			DefaultRules:  defaults.DefaultRules,
		},
		Archive: &ArchiveSettings{
			Dir: defaultArchiveDir,
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *ServerConfig) applyDefaults() {
	defaults := DefaultServerConfig()

	if c.Server.Address == "" {
		c.Server.Address = defaults.Server.Address
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = defaults.Server.LogLevel
	}
	if c.Server.CORSOrigins == nil {
		c.Server.CORSOrigins = defaults.Server.CORSOrigins
	}

	if c.Store == nil {
		c.Store = defaults.Store
	} else {
		if c.Store.IdleTimeout == "" {
			c.Store.IdleTimeout = defaults.Store.IdleTimeout
		}
		if c.Store.SweepInterval == "" {
			c.Store.SweepInterval = defaults.Store.SweepInterval
		}
		if c.Store.DefaultRules == "" {
			c.Store.DefaultRules = defaults.Store.DefaultRules
		}
	}

	if c.Archive == nil {
		c.Archive = defaults.Archive
	} else if c.Archive.Dir == "" {
		c.Archive.Dir = defaults.Archive.Dir
	}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := c.StoreConfig(); err != nil {
		return err
	}
	if c.Archive != nil && c.Archive.Enabled && c.Archive.Dir == "" {
		return fmt.Errorf("archive: dir is required when enabled")
	}
	return nil
}

// Level returns the configured zerolog level
func (c *ServerConfig) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.Server.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", c.Server.LogLevel, err)
	}
	return level, nil
}

// StoreConfig converts the store block into a store.Config
func (c *ServerConfig) StoreConfig() (store.Config, error) {
	cfg := store.DefaultConfig()
	if c.Store == nil {
		return cfg, nil
	}

	var err error
	if c.Store.IdleTimeout != "" {
		if cfg.IdleTimeout, err = parseDuration("idle_timeout", c.Store.IdleTimeout); err != nil {
			return store.Config{}, err
		}
	}
	if c.Store.SweepInterval != "" {
		if cfg.SweepInterval, err = parseDuration("sweep_interval", c.Store.SweepInterval); err != nil {
			return store.Config{}, err
		}
	}
	if c.Store.DefaultRules != "" {
		if _, err := game.RulesByName(c.Store.DefaultRules); err != nil {
			return store.Config{}, fmt.Errorf("store: %w", err)
		}
		cfg.DefaultRules = c.Store.DefaultRules
	}
	if cfg.IdleTimeout > 0 && cfg.SweepInterval <= 0 {
		return store.Config{}, fmt.Errorf("store: sweep_interval must be positive when idle_timeout is set")
	}
	return cfg, nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("store: invalid %s %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("store: %s must not be negative", field)
	}
	return d, nil
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
