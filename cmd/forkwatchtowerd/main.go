// Fork Watchtower daemon.
//
// Usage:
//
//	forkwatchtowerd --rift-exchange-address=0x... --evm-rpc-url=https://...
//	forkwatchtowerd --help
package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/riftlabs/fork-watchtower/config"
	"github.com/riftlabs/fork-watchtower/internal/broadcaster"
	"github.com/riftlabs/fork-watchtower/internal/evmchain"
	fwlog "github.com/riftlabs/fork-watchtower/internal/log"
	"github.com/riftlabs/fork-watchtower/internal/mmr"
	"github.com/riftlabs/fork-watchtower/internal/proof"
	"github.com/riftlabs/fork-watchtower/internal/prover"
	"github.com/riftlabs/fork-watchtower/internal/submission"
	"github.com/riftlabs/fork-watchtower/internal/transition"
	"github.com/riftlabs/fork-watchtower/internal/watchtower"
)

func main() {
	// ── 1. Load config (defaults → file → flags) ────────────────────
	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// ── 2. Init logger ────────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		if mkErr := os.MkdirAll(cfg.LogsDir(), 0755); mkErr != nil {
			fmt.Fprintf(os.Stderr, "Error creating logs dir: %v\n", mkErr)
			os.Exit(1)
		}
		logFile = cfg.LogsDir() + "/forkwatchtower.log"
	}
	if err := fwlog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	logger := fwlog.WithComponent("watchtower")

	logger.Info().
		Str("rift_exchange_address", cfg.RiftExchangeAddress).
		Str("evm_rpc_url", cfg.EVMRPCURL).
		Dur("poll_interval", cfg.PollInterval).
		Msg("Starting Fork Watchtower")

	// ── 3. Dial the EVM node ─────────────────────────────────────────
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := ethclient.DialContext(ctx, cfg.EVMRPCURL)
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.EVMRPCURL).Msg("Failed to dial EVM RPC endpoint")
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to fetch chain id")
	}

	// ── 4. Build the local MMR reference stores ──────────────────────
	// These are NOT the real BDE/CDE — those are external indexers this
	// core only reads from. BadgerMMR exists so this CLI example has
	// something concrete to point at; swap in real BDE/CDE clients that
	// satisfy mmr.IndexedMMR/mmr.CheckpointedMMR for production use.
	bde, err := mmr.NewBadgerMMR(cfg.MMRStoreDir() + "/bde")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open BDE reference store")
	}
	cde, err := mmr.NewBadgerMMR(cfg.MMRStoreDir() + "/cde")
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open CDE reference store")
	}

	// ── 5. Build the contract binding and broadcaster ────────────────
	rx, err := evmchain.NewRiftExchange()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build RiftExchange binding")
	}

	signer, fromAddr, err := newExampleSigner(chainID)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build transaction signer")
	}

	bc := broadcaster.NewEthBroadcaster(client, signer, fromAddr)

	// ── 6. Wire the submission loop's dependencies ───────────────────
	deps := submission.Dependencies{
		BDE:             bde,
		CDE:             cde,
		Builder:         transition.NewDefaultBuilder(),
		Orchestrator:    proof.NewOrchestrator(prover.NewMock()),
		Broadcaster:     bc,
		Contract:        rx,
		ContractAddress: common.HexToAddress(cfg.RiftExchangeAddress),
	}

	submitCfg := submission.Config{
		MaxAttempts:        cfg.MaxAttempts,
		ProofRegenAttempts: cfg.ProofRegenAttempts,
		BaseRetryDelayMs:   cfg.BaseRetryDelayMs,
		MaxRetryDelayMs:    cfg.MaxRetryDelayMs,
		RetryJitterMs:      cfg.RetryJitterMs,
	}

	// ── 7. Run until a shutdown signal arrives ────────────────────────
	sup := watchtower.New(cfg.PollInterval, submitCfg, deps, logger)
	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("Watchtower stopped with an error")
	}

	logger.Info().Msg("Goodbye!")
}

// exampleSigner is a minimal broadcaster.TxSigner backed by a local
// private key, for this CLI example only. Real deployments own their
// signing key material out of process (the EVMProvider's wallet
// responsibility, per the core's external-collaborator boundary) and
// should substitute their own TxSigner implementation.
type exampleSigner struct {
	key     *ecdsa.PrivateKey
	chainID *big.Int
	gasTip  *big.Int
	gasFee  *big.Int
	gasCap  uint64
}

func newExampleSigner(chainID *big.Int) (*exampleSigner, common.Address, error) {
	hexKey := os.Getenv("FORKWATCHTOWER_PRIVATE_KEY")
	if hexKey == "" {
		return nil, common.Address{}, fmt.Errorf("FORKWATCHTOWER_PRIVATE_KEY is not set")
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("parsing FORKWATCHTOWER_PRIVATE_KEY: %w", err)
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	return &exampleSigner{
		key:     key,
		chainID: chainID,
		gasTip:  big.NewInt(1_500_000_000),
		gasFee:  big.NewInt(30_000_000_000),
		gasCap:  2_000_000,
	}, from, nil
}

// SignTx implements broadcaster.TxSigner.
func (s *exampleSigner) SignTx(req broadcaster.Request, nonce uint64) (*types.Transaction, error) {
	txdata := &types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: s.gasTip,
		GasFeeCap: s.gasFee,
		Gas:       s.gasCap,
		To:        &req.To,
		Data:      req.Calldata,
	}
	return types.SignNewTx(s.key, types.LatestSignerForChainID(s.chainID), txdata)
}
