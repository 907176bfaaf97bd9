// Package config loads runtime configuration for the fieldsync binary.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the remote field-operations API
//	-t string   bearer token for the remote API
//	-d string   path to the local SQLite database file
//	-s string   directory for temporary attachment materializations
//	-driver string  driver id whose roadmap is pulled
//	-i int      connectivity probe interval (seconds)
//	-r int      retry attempts per replayed remote call
//	-b int      retry base delay (milliseconds)
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://api.rutero.example.com",
//	  "api_token": "...",
//	  "database_path": "fieldsync.db",
//	  "spool_dir": "spool",
//	  "driver_id": "driver7",
//	  "probe_interval": "10s",
//	  "retry_attempts": 3,
//	  "retry_base_delay": "500ms"
//	}
package config
