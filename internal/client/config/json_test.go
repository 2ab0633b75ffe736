package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseJson(t *testing.T) {
	t.Run("no config flag leaves values", func(t *testing.T) {
		cfg := &Config{ServerURL: "http://defaults:1234", RequestTimeout: 42 * time.Second}
		require.NoError(t, parseJson(cfg, []string{"-a", "x"}))
		assert.Equal(t, "http://defaults:1234", cfg.ServerURL)
		assert.Equal(t, 42*time.Second, cfg.RequestTimeout)
	})

	t.Run("zero values are skipped", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{"server_url": "https://x.example"})
		cfg := &Config{StateFile: "keep.db", RequestTimeout: time.Second}
		require.NoError(t, parseJson(cfg, []string{"-c", path}))
		assert.Equal(t, "https://x.example", cfg.ServerURL)
		assert.Equal(t, "keep.db", cfg.StateFile)
		assert.Equal(t, time.Second, cfg.RequestTimeout)
	})
}
