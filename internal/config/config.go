package config

import "time"

// Config holds runtime settings for the fieldsync binary.
type Config struct {
	// APIBaseURL is the base URL of the remote field-operations API.
	APIBaseURL string
	// APIToken is the bearer token sent with every remote call.
	APIToken string
	// DatabasePath is the SQLite file backing the local mirror store.
	DatabasePath string
	// SpoolDir receives temporary attachment materializations during replay.
	SpoolDir string
	// DriverID selects whose roadmap is pulled.
	DriverID string
	// ProbeInterval is how often the orchestrator probes remote health.
	ProbeInterval time.Duration
	// RetryAttempts bounds the retries around each replayed remote call.
	RetryAttempts int
	// RetryBaseDelay is multiplied by the attempt number for the backoff.
	RetryBaseDelay time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "fieldsync.db"
	c.SpoolDir = "spool"
	c.ProbeInterval = 10 * time.Second
	c.RetryAttempts = 3
	c.RetryBaseDelay = 500 * time.Millisecond
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
