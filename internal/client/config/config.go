package config

import "time"

// Config holds runtime settings for the voxkeeper CLI.
//
// Units: every interval is a time.Duration.
type Config struct {
	ServerURL               string
	DatabasePath            string
	ProfileFetchTimeout     time.Duration
	RefreshInterval         time.Duration
	BalanceMaxAge           time.Duration
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
	LogLevel                string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "voxkeeper.db"
	c.ProfileFetchTimeout = 10 * time.Second
	c.RefreshInterval = 30 * time.Second
	c.BalanceMaxAge = 0
	c.BreakerFailureThreshold = 5
	c.BreakerOpenTimeout = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
