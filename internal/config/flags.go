package config

import (
	"flag"
	"os"
	"time"

	"github.com/rutero-app/fieldsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, so manual verbs ("sync", "pending", ...) and the
// config-file flags parsed elsewhere don't interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-d", "-s", "-driver", "-i", "-r", "-b"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the remote API")
	fs.StringVar(&cfg.APIToken, "t", cfg.APIToken, "bearer token for the remote API")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database file")
	fs.StringVar(&cfg.SpoolDir, "s", cfg.SpoolDir, "attachment spool directory")
	fs.StringVar(&cfg.DriverID, "driver", cfg.DriverID, "driver id whose roadmap is pulled")
	probeInterval := fs.Int("i", int(cfg.ProbeInterval.Seconds()), "connectivity probe interval (in seconds)")
	fs.IntVar(&cfg.RetryAttempts, "r", cfg.RetryAttempts, "retry attempts per replayed remote call")
	retryBaseDelay := fs.Int("b", int(cfg.RetryBaseDelay.Milliseconds()), "retry base delay (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ProbeInterval = time.Duration(*probeInterval) * time.Second
	cfg.RetryBaseDelay = time.Duration(*retryBaseDelay) * time.Millisecond
}
