package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/flagx"
)

var knownFlags = []string{
	"-a", "-grpc", "-d", "-s", "-t", "-r",
	"-u", "-p", "-b", "-region", "-e", "-public-url", "-admin", "-l",
}

// parseFlags overlays command-line flags. Token lifetimes are given in
// minutes.
//
//	-a          HTTP bind address
//	-grpc       gRPC health bind address
//	-d          PostgreSQL DSN
//	-s          JWT secret
//	-t / -r     access / refresh token lifetime, minutes
//	-u / -p     S3 access key / secret key
//	-b          S3 bucket
//	-region     S3 region
//	-e          S3 endpoint
//	-public-url base for public object URLs
//	-admin      bootstrap super-admin email
//	-l          log level
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address")
	fs.StringVar(&config.GRPCAddr, "grpc", config.GRPCAddr, "gRPC health address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	access := fs.Int("t", int(config.AccessTokenTTL.Minutes()), "access token lifetime (minutes)")
	refresh := fs.Int("r", int(config.RefreshTokenTTL.Minutes()), "refresh token lifetime (minutes)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 endpoint")
	fs.StringVar(&config.PublicBaseURL, "public-url", config.PublicBaseURL, "public object base URL")
	fs.StringVar(&config.AdminEmail, "admin", config.AdminEmail, "bootstrap super-admin email")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenTTL = time.Duration(*access) * time.Minute
		case "r":
			config.RefreshTokenTTL = time.Duration(*refresh) * time.Minute
		}
	})
	return nil
}
