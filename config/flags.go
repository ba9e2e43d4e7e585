package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	DataDir string
	Config  string

	PollInterval       string
	MaxAttempts        int
	BaseRetryDelayMs   uint64
	MaxRetryDelayMs    uint64
	RetryJitterMs      uint64
	ProofRegenAttempts int

	RiftExchangeAddress     string
	EVMRPCURL               string
	BitcoinConcurrencyLimit int

	LogLevel string
	LogFile  string
	LogJSON  bool

	Args []string

	SetLogJSON bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("forkwatchtowerd", flag.ContinueOnError)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.StringVar(&f.PollInterval, "poll-interval", "", "Interval between fork-detection passes (e.g. 30s)")
	fs.IntVar(&f.MaxAttempts, "max-attempts", 0, "Maximum submission attempts per detected fork")
	fs.Uint64Var(&f.BaseRetryDelayMs, "base-retry-delay-ms", 0, "Base retry backoff delay, in milliseconds")
	fs.Uint64Var(&f.MaxRetryDelayMs, "max-retry-delay-ms", 0, "Maximum retry backoff delay, in milliseconds")
	fs.Uint64Var(&f.RetryJitterMs, "retry-jitter-ms", 0, "Maximum retry jitter, in milliseconds")
	fs.IntVar(&f.ProofRegenAttempts, "proof-regen-attempts", 0, "Maximum proof regenerations per detected fork")

	fs.StringVar(&f.RiftExchangeAddress, "rift-exchange-address", "", "RiftExchange contract address")
	fs.StringVar(&f.EVMRPCURL, "evm-rpc-url", "", "EVM JSON-RPC endpoint")
	fs.IntVar(&f.BitcoinConcurrencyLimit, "bitcoin-concurrency-limit", 0, "Max concurrent Bitcoin RPC requests")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) error {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.PollInterval != "" {
		d, err := time.ParseDuration(f.PollInterval)
		if err != nil {
			return fmt.Errorf("--poll-interval: %w", err)
		}
		cfg.PollInterval = d
	}
	if f.MaxAttempts != 0 {
		cfg.MaxAttempts = f.MaxAttempts
	}
	if f.BaseRetryDelayMs != 0 {
		cfg.BaseRetryDelayMs = f.BaseRetryDelayMs
	}
	if f.MaxRetryDelayMs != 0 {
		cfg.MaxRetryDelayMs = f.MaxRetryDelayMs
	}
	if f.RetryJitterMs != 0 {
		cfg.RetryJitterMs = f.RetryJitterMs
	}
	if f.ProofRegenAttempts != 0 {
		cfg.ProofRegenAttempts = f.ProofRegenAttempts
	}

	if f.RiftExchangeAddress != "" {
		cfg.RiftExchangeAddress = f.RiftExchangeAddress
	}
	if f.EVMRPCURL != "" {
		cfg.EVMRPCURL = f.EVMRPCURL
	}
	if f.BitcoinConcurrencyLimit != 0 {
		cfg.BitcoinConcurrencyLimit = f.BitcoinConcurrencyLimit
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
	return nil
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `Fork Watchtower - cross-chain Bitcoin light-client fork monitor

Usage:
  forkwatchtowerd [options]
  forkwatchtowerd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --datadir       Data directory (default: ~/.forkwatchtower)
  --config, -c    Config file path (default: <datadir>/forkwatchtower.conf)

Watchtower Options:
  --poll-interval             Interval between fork-detection passes (default: 30s)
  --max-attempts              Maximum submission attempts per detected fork (default: 5)
  --base-retry-delay-ms       Base retry backoff delay, ms (default: 1000)
  --max-retry-delay-ms        Maximum retry backoff delay, ms (default: 60000)
  --retry-jitter-ms           Maximum retry jitter, ms (default: 500)
  --proof-regen-attempts      Maximum proof regenerations per detected fork (default: 3)

Collaborator Options:
  --rift-exchange-address     RiftExchange contract address
  --evm-rpc-url                EVM JSON-RPC endpoint
  --bitcoin-concurrency-limit  Max concurrent Bitcoin RPC requests (default: 4)

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path, written alongside stdout (default: <datadir>/logs/forkwatchtower.log)
  --log-json      Output logs as JSON

Examples:
  # Start with defaults, overriding only the required collaborator addresses
  forkwatchtowerd --rift-exchange-address=0x... --evm-rpc-url=https://rpc.example.org

  # Start with a custom data directory
  forkwatchtowerd --datadir=/path/to/data
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("forkwatchtowerd version 0.1.0")
		os.Exit(0)
	}

	cfg := DefaultConfig()

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	if err := ApplyFlags(cfg, flags); err != nil {
		return nil, nil, fmt.Errorf("applying flags: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Idempotent — safe to call on every
// startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.MMRStoreDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}
