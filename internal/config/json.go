package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rutero-app/fieldsync/internal/flagx"
	"github.com/rutero-app/fieldsync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "3s"
// or as integer nanoseconds. After parsing, set values are copied into the
// runtime Config.
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	APIToken       string         `json:"api_token"`
	DatabasePath   string         `json:"database_path"`
	SpoolDir       string         `json:"spool_dir"`
	DriverID       string         `json:"driver_id"`
	ProbeInterval  timex.Duration `json:"probe_interval"`
	RetryAttempts  int            `json:"retry_attempts"`
	RetryBaseDelay timex.Duration `json:"retry_base_delay"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c or -config flags; with neither present nothing is
// loaded. Fields absent from the JSON keep their current value. Panics on
// read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
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

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.APIToken != "" {
		cfg.APIToken = jc.APIToken
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SpoolDir != "" {
		cfg.SpoolDir = jc.SpoolDir
	}
	if jc.DriverID != "" {
		cfg.DriverID = jc.DriverID
	}
	if jc.ProbeInterval.Duration != 0 {
		cfg.ProbeInterval = time.Duration(jc.ProbeInterval.Duration)
	}
	if jc.RetryAttempts != 0 {
		cfg.RetryAttempts = jc.RetryAttempts
	}
	if jc.RetryBaseDelay.Duration != 0 {
		cfg.RetryBaseDelay = time.Duration(jc.RetryBaseDelay.Duration)
	}
}
