package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value

	case "poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.PollInterval = d
	case "max_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.MaxAttempts = n
	case "base_retry_delay_ms":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.BaseRetryDelayMs = n
	case "max_retry_delay_ms":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.MaxRetryDelayMs = n
	case "retry_jitter_ms":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.RetryJitterMs = n
	case "proof_regen_attempts":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.ProofRegenAttempts = n

	case "rift_exchange_address":
		cfg.RiftExchangeAddress = value
	case "evm_rpc_url":
		cfg.EVMRPCURL = value
	case "bitcoin_concurrency_limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.BitcoinConcurrencyLimit = n

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# Fork Watchtower Configuration
#
# Watches a light client's on-chain Bitcoin header commitment (the CDE) for
# divergence from the locally-tracked canonical chain (the BDE), and drives
# the light client back into sync.

# Data directory (default: ~/.forkwatchtower)
# datadir = ~/.forkwatchtower

# ============================================================================
# Watchtower loop
# ============================================================================

poll_interval = 30s
max_attempts = 5
base_retry_delay_ms = 1000
max_retry_delay_ms = 60000
retry_jitter_ms = 500
proof_regen_attempts = 3

# ============================================================================
# Collaborators
# ============================================================================

# rift_exchange_address = 0x0000000000000000000000000000000000000000
# evm_rpc_url = https://rpc.example.org
bitcoin_concurrency_limit = 4

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
