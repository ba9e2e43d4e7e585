package config

import "time"

// DefaultConfig returns the watchtower's default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),

		PollInterval:       30 * time.Second,
		MaxAttempts:        5,
		BaseRetryDelayMs:   1000,
		MaxRetryDelayMs:    60000,
		RetryJitterMs:      500,
		ProofRegenAttempts: 3,

		BitcoinConcurrencyLimit: 4,

		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
