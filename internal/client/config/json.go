package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/voxkeeper/internal/flagx"
	"github.com/dmitrijs2005/voxkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell an absent key from an explicit zero.
type JsonConfig struct {
	ServerURL               string          `json:"server_url"`
	DatabasePath            string          `json:"database_path"`
	ProfileFetchTimeout     *timex.Duration `json:"profile_fetch_timeout"`
	RefreshInterval         *timex.Duration `json:"refresh_interval"`
	BalanceMaxAge           *timex.Duration `json:"balance_max_age"`
	BreakerFailureThreshold *uint32         `json:"breaker_failure_threshold"`
	BreakerOpenTimeout      *timex.Duration `json:"breaker_open_timeout"`
	LogLevel                string          `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c/-config. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.ProfileFetchTimeout != nil {
		cfg.ProfileFetchTimeout = jc.ProfileFetchTimeout.Duration
	}
	if jc.RefreshInterval != nil {
		cfg.RefreshInterval = jc.RefreshInterval.Duration
	}
	if jc.BalanceMaxAge != nil {
		cfg.BalanceMaxAge = jc.BalanceMaxAge.Duration
	}
	if jc.BreakerFailureThreshold != nil {
		cfg.BreakerFailureThreshold = *jc.BreakerFailureThreshold
	}
	if jc.BreakerOpenTimeout != nil {
		cfg.BreakerOpenTimeout = jc.BreakerOpenTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
