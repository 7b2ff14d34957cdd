// Package config loads runtime configuration for the voxkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the account service
//	-d string   path of the local SQLite session database
//	-t int      profile fetch timeout (seconds)
//	-i int      background refresh interval (seconds, 0 disables)
//	-m int      how long a cached balance may gate actions without a refetch (seconds, 0 = always)
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds. Keys absent from the file keep their default:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "voxkeeper.db",
//	  "profile_fetch_timeout": "10s",
//	  "refresh_interval": "30s",
//	  "balance_max_age": "0s",
//	  "breaker_failure_threshold": 5,
//	  "breaker_open_timeout": "30s",
//	  "log_level": "info"
//	}
//
// Note: This package does not read environment variables directly; use the
// JSON file or flags to configure values.
package config
