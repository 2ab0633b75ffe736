package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/flagx"
)

// parseFlags overlays -a, -f, -t and -l. Other arguments are ignored so the
// command layer can own the rest of the command line.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-f", "-t", "-l"})

	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "portal server URL")
	fs.StringVar(&cfg.StateFile, "f", cfg.StateFile, "local state file")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
