package config

import (
	"fmt"
	"os"
	"time"
)

func parseEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("PORTAL_SERVER_URL"); ok {
		cfg.ServerURL = v
	}
	if v, ok := os.LookupEnv("PORTAL_STATE_FILE"); ok {
		cfg.StateFile = v
	}
	if v, ok := os.LookupEnv("PORTAL_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}

	durations := map[string]*time.Duration{
		"PORTAL_REQUEST_TIMEOUT": &cfg.RequestTimeout,
		"PORTAL_WAIT_TIMEOUT":    &cfg.WaitTimeout,
	}
	for name, dst := range durations {
		v, ok := os.LookupEnv(name)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = d
	}
	return nil
}
