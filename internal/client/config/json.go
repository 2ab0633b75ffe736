package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/studioportal/internal/flagx"
	"github.com/dmitrijs2005/studioportal/internal/timex"
)

// JsonConfig is the on-disk form of Config. Zero values leave the current
// setting untouched.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	StateFile      string         `json:"state_file"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	WaitTimeout    timex.Duration `json:"wait_timeout"`
	LogLevel       string         `json:"log_level"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.StateFile != "" {
		cfg.StateFile = jc.StateFile
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.WaitTimeout.Duration > 0 {
		cfg.WaitTimeout = jc.WaitTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
