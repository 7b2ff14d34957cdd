// Package config handles configuration for the mock account service,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the mock account service.
//
// Fields:
//   - EndpointAddr: bind address for the HTTP API.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: token lifetime.
//   - InitialCredits: balance granted on signup.
//   - PasswordHashCost: bcrypt cost for stored passwords.
//   - LogLevel: debug, info, warn or error.
//   - DatabaseDSN: PostgreSQL connection string; empty keeps accounts in memory.
type Config struct {
	EndpointAddr                string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	InitialCredits              int64
	PasswordHashCost            int
	LogLevel                    string
	DatabaseDSN                 string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.InitialCredits = 10
	c.PasswordHashCost = bcrypt.DefaultCost
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
