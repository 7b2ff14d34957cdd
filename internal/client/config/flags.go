package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/voxkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Interval flags are whole seconds and only replace the current value when
// given explicitly, so a sub-second value from JSON survives.
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-i", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "account service base URL")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "session database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	seconds := map[string]*time.Duration{
		"t": &cfg.ProfileFetchTimeout,
		"i": &cfg.RefreshInterval,
		"m": &cfg.BalanceMaxAge,
	}
	values := make(map[string]*int, len(seconds))
	values["t"] = fs.Int("t", int(cfg.ProfileFetchTimeout.Seconds()), "profile fetch timeout (in seconds)")
	values["i"] = fs.Int("i", int(cfg.RefreshInterval.Seconds()), "background refresh interval (in seconds)")
	values["m"] = fs.Int("m", int(cfg.BalanceMaxAge.Seconds()), "cached balance max age (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if dst, ok := seconds[f.Name]; ok {
			*dst = time.Duration(*values[f.Name]) * time.Second
		}
	})
}
