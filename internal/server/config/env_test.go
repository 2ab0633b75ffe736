package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("PORTAL_HTTP_ADDR", ":7000")
	t.Setenv("PORTAL_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("PORTAL_MAX_UPLOAD_BYTES", "2048")
	t.Setenv("PORTAL_AUTH_RATE_LIMIT", "0.5")
	t.Setenv("PORTAL_AUTH_RATE_BURST", "3")
	t.Setenv("PORTAL_CORS_ORIGINS", " https://a.example , ,https://b.example")

	cfg := &Config{}
	cfg.LoadDefaults()
	require.NoError(t, parseEnv(cfg, ""))

	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, int64(2048), cfg.MaxUploadBytes)
	assert.Equal(t, 0.5, cfg.AuthRateLimit)
	assert.Equal(t, 3, cfg.AuthRateBurst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func Test_parseEnv_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORTAL_S3_BUCKET=dotenv-bucket\nPORTAL_LOG_LEVEL=debug\n"), 0o600))

	// process environment wins over the file
	t.Setenv("PORTAL_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("PORTAL_S3_BUCKET") })

	cfg := &Config{}
	require.NoError(t, parseEnv(cfg, path))
	assert.Equal(t, "dotenv-bucket", cfg.S3Bucket)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func Test_parseEnv_MissingDotEnvIsFine(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, parseEnv(cfg, filepath.Join(t.TempDir(), ".env")))
}

func Test_parseEnv_Errors(t *testing.T) {
	for name, value := range map[string]string{
		"PORTAL_REFRESH_TOKEN_TTL": "forever",
		"PORTAL_MAX_UPLOAD_BYTES":  "lots",
		"PORTAL_AUTH_RATE_LIMIT":   "fast",
		"PORTAL_AUTH_RATE_BURST":   "1.5",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			assert.Error(t, parseEnv(&Config{}, ""))
		})
	}
}
