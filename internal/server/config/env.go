package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "PORTAL_"

// parseEnv loads dotenv (variables already set in the process win) and
// overlays every PORTAL_* variable that is set. A missing dotenv file is not
// an error.
func parseEnv(config *Config, dotenv string) error {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	strs := map[string]*string{
		"HTTP_ADDR":        &config.HTTPAddr,
		"GRPC_ADDR":        &config.GRPCAddr,
		"DATABASE_DSN":     &config.DatabaseDSN,
		"SECRET_KEY":       &config.SecretKey,
		"S3_ACCESS_KEY":    &config.S3AccessKey,
		"S3_SECRET_KEY":    &config.S3SecretKey,
		"S3_BUCKET":        &config.S3Bucket,
		"S3_REGION":        &config.S3Region,
		"S3_BASE_ENDPOINT": &config.S3BaseEndpoint,
		"PUBLIC_BASE_URL":  &config.PublicBaseURL,
		"ADMIN_EMAIL":      &config.AdminEmail,
		"ADMIN_PASSWORD":   &config.AdminPassword,
		"LOG_LEVEL":        &config.LogLevel,
		"LOG_FORMAT":       &config.LogFormat,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TOKEN_TTL":  &config.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": &config.RefreshTokenTTL,
	}
	for name, dst := range durations {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "MAX_UPLOAD_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sMAX_UPLOAD_BYTES: %w", envPrefix, err)
		}
		config.MaxUploadBytes = n
	}
	if v, ok := os.LookupEnv(envPrefix + "AUTH_RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sAUTH_RATE_LIMIT: %w", envPrefix, err)
		}
		config.AuthRateLimit = f
	}
	if v, ok := os.LookupEnv(envPrefix + "AUTH_RATE_BURST"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sAUTH_RATE_BURST: %w", envPrefix, err)
		}
		config.AuthRateBurst = n
	}
	if v, ok := os.LookupEnv(envPrefix + "CORS_ORIGINS"); ok {
		config.CORSOrigins = splitList(v)
	}
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
