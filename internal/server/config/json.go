package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/voxkeeper/internal/flagx"
	"github.com/dmitrijs2005/voxkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations use timex.Duration so
// both "1h" and integer nanoseconds are accepted. Pointer fields distinguish
// "absent" from zero.
type JsonConfig struct {
	EndpointAddr                string          `json:"endpoint_addr"`
	SecretKey                   string          `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	InitialCredits              *int64          `json:"initial_credits"`
	PasswordHashCost            *int            `json:"password_hash_cost"`
	LogLevel                    string          `json:"log_level"`
	DatabaseDSN                 string          `json:"database_dsn"`
}

// parseJson overlays values from the JSON file named by -c/-config. Fields
// missing from the file keep their current value. An unreadable or invalid
// file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.InitialCredits != nil {
		config.InitialCredits = *c.InitialCredits
	}
	if c.PasswordHashCost != nil {
		config.PasswordHashCost = *c.PasswordHashCost
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
}
