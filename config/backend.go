package config

import "time"

// BackendConfig contains backend API configuration.
type BackendConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
	Timeout time.Duration `env:"TIMEOUT"  envDefault:"30s"`
}

// Sanitize applies guardrails to backend configuration.
func (c *BackendConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
}

// SessionConfig contains session lifecycle tuning.
type SessionConfig struct {
	// RestoreTimeout bounds the cold-start wait for a provider identity.
	RestoreTimeout time.Duration `env:"RESTORE_TIMEOUT" envDefault:"5s"`
	// RestoreBackoff is the fixed wait before the single restore retry.
	RestoreBackoff time.Duration `env:"RESTORE_BACKOFF" envDefault:"500ms"`
}

// Sanitize applies guardrails to session configuration.
func (c *SessionConfig) Sanitize() {
	if c.RestoreTimeout <= 0 {
		c.RestoreTimeout = 5 * time.Second
	}
	if c.RestoreBackoff <= 0 {
		c.RestoreBackoff = 500 * time.Millisecond
	}
}
