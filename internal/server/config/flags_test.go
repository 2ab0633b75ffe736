package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		start    Config
		expected Config
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-grpc", ":6000", "-d", "db", "-s", "secret",
				"-t", "1", "-r", "3", "-u", "user", "-p", "password", "-b", "bucket",
				"-region", "us-west-1", "-e", "http://endpoint", "-public-url", "https://cdn",
				"-admin", "root@example.com", "-l", "debug",
			},
			expected: Config{
				HTTPAddr:        "127.0.0.1:9090",
				GRPCAddr:        ":6000",
				DatabaseDSN:     "db",
				SecretKey:       "secret",
				AccessTokenTTL:  1 * time.Minute,
				RefreshTokenTTL: 3 * time.Minute,
				S3AccessKey:     "user",
				S3SecretKey:     "password",
				S3Bucket:        "bucket",
				S3Region:        "us-west-1",
				S3BaseEndpoint:  "http://endpoint",
				PublicBaseURL:   "https://cdn",
				AdminEmail:      "root@example.com",
				LogLevel:        "debug",
			},
		},
		{
			name:     "unknown flags are ignored and durations kept",
			args:     []string{"-c", "cfg.json", "-x", "-a=:1"},
			start:    Config{AccessTokenTTL: 90 * time.Second},
			expected: Config{HTTPAddr: ":1", AccessTokenTTL: 90 * time.Second},
		},
		{
			name:    "bad duration",
			args:    []string{"-t", "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.start
			err := parseFlags(&cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
