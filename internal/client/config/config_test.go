package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.ServerURL)
	assert.Equal(t, filepath.Join(".studioportal", "state.db"), c.StateFile)
	assert.Equal(t, 10*time.Second, c.RequestTimeout)
	assert.Equal(t, 15*time.Second, c.WaitTimeout)
}

func TestLoadConfig_Layering(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"server_url":      "https://json.example.com",
		"state_file":      "/tmp/json.db",
		"request_timeout": "3s",
		"wait_timeout":    "1m",
	})
	t.Setenv("PORTAL_STATE_FILE", "/tmp/env.db")

	cfg, err := LoadConfig([]string{"-config", path, "-t", "7", "whoami"})
	require.NoError(t, err)

	want := &Config{
		ServerURL:      "https://json.example.com",
		StateFile:      "/tmp/env.db",
		RequestTimeout: 7 * time.Second,
		WaitTimeout:    time.Minute,
		LogLevel:       "warn",
	}
	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	t.Setenv("PORTAL_SERVER_URL", "https://env.example.com")

	cfg, err := LoadConfig([]string{"-a", "https://flag.example.com", "-l", "debug"})
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.ServerURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Run("missing json", func(t *testing.T) {
		_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
	})

	t.Run("bad json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ not json`), 0o600))
		_, err := LoadConfig([]string{"-c", bad})
		require.Error(t, err)
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Setenv("PORTAL_WAIT_TIMEOUT", "soon")
		_, err := LoadConfig(nil)
		require.ErrorContains(t, err, "PORTAL_WAIT_TIMEOUT")
	})

	t.Run("bad timeout flag", func(t *testing.T) {
		_, err := LoadConfig([]string{"-t", "abc"})
		require.Error(t, err)
	})
}
