package config

import (
	"fmt"
	"strings"
)

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if cfg.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if cfg.ProofRegenAttempts <= 0 {
		return fmt.Errorf("proof_regen_attempts must be positive")
	}
	if cfg.BaseRetryDelayMs == 0 {
		return fmt.Errorf("base_retry_delay_ms must be positive")
	}
	if cfg.MaxRetryDelayMs < cfg.BaseRetryDelayMs {
		return fmt.Errorf("max_retry_delay_ms must be >= base_retry_delay_ms")
	}
	if strings.TrimSpace(cfg.RiftExchangeAddress) == "" {
		return fmt.Errorf("rift_exchange_address must be set")
	}
	if strings.TrimSpace(cfg.EVMRPCURL) == "" {
		return fmt.Errorf("evm_rpc_url must be set")
	}
	if cfg.BitcoinConcurrencyLimit <= 0 {
		return fmt.Errorf("bitcoin_concurrency_limit must be positive")
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}
