package config

import (
	"path/filepath"
	"time"
)

// Config holds runtime settings for the portal CLI.
type Config struct {
	// ServerURL is the base URL of the portal server, e.g. http://127.0.0.1:8080.
	ServerURL string
	// StateFile is the SQLite file holding tokens and session flags.
	StateFile      string
	RequestTimeout time.Duration
	// WaitTimeout bounds how long navigation waits for the session or the
	// profile to resolve.
	WaitTimeout time.Duration
	LogLevel    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.StateFile = filepath.Join(".studioportal", "state.db")
	c.RequestTimeout = 10 * time.Second
	c.WaitTimeout = 15 * time.Second
	c.LogLevel = "warn"
}

// LoadConfig builds a Config from defaults, the JSON file named by
// -c/-config in args, PORTAL_* environment variables and flags in args.
// Later sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
