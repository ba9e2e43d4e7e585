// Package config handles the fork watchtower's operator-facing
// configuration: the watchtower loop's tunables (poll interval, retry
// backoff, proof-regeneration budget) and the node settings needed to
// reach its collaborators (EVM RPC URL, RiftExchange address, the local
// Badger-backed MMR reference store's data directory).
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds the fork watchtower's runtime configuration.
type Config struct {
	// Core
	DataDir string `conf:"datadir"`

	// Watchtower loop tunables (spec defaults: see DefaultConfig).
	PollInterval       time.Duration `conf:"poll_interval"`
	MaxAttempts        int           `conf:"max_attempts"`
	BaseRetryDelayMs   uint64        `conf:"base_retry_delay_ms"`
	MaxRetryDelayMs    uint64        `conf:"max_retry_delay_ms"`
	RetryJitterMs      uint64        `conf:"retry_jitter_ms"`
	ProofRegenAttempts int           `conf:"proof_regen_attempts"`

	// Collaborators
	RiftExchangeAddress     string `conf:"rift_exchange_address"`
	EVMRPCURL               string `conf:"evm_rpc_url"`
	BitcoinConcurrencyLimit int    `conf:"bitcoin_concurrency_limit"`

	// Logging
	Log LogConfig
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.forkwatchtower
//	macOS:   ~/Library/Application Support/ForkWatchtower
//	Windows: %APPDATA%\ForkWatchtower
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".forkwatchtower"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "ForkWatchtower")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "ForkWatchtower")
		}
		return filepath.Join(home, "AppData", "Roaming", "ForkWatchtower")
	default:
		return filepath.Join(home, ".forkwatchtower")
	}
}

// MMRStoreDir returns the directory the badgermmr reference implementation
// persists leaves to.
func (c *Config) MMRStoreDir() string {
	return filepath.Join(c.DataDir, "mmr")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "forkwatchtower.conf")
}
