// Package submission drives a single fork's retry loop: build the witness
// bundle, prove it, pack the on-chain call, broadcast it, and react to
// whatever the chain says — regenerating the proof, backing off, or giving
// up — per the revert-subcase table in component F.
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/riftlabs/fork-watchtower/internal/broadcaster"
	"github.com/riftlabs/fork-watchtower/internal/classify"
	"github.com/riftlabs/fork-watchtower/internal/evmchain"
	"github.com/riftlabs/fork-watchtower/internal/mmr"
	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
	"github.com/riftlabs/fork-watchtower/internal/proof"
	"github.com/riftlabs/fork-watchtower/internal/transition"
)

// Config holds the submission loop's tunables. A watchtower config loads
// these from its own file/flags and passes them straight through.
type Config struct {
	MaxAttempts        int
	ProofRegenAttempts int
	BaseRetryDelayMs   uint64
	MaxRetryDelayMs    uint64
	RetryJitterMs      uint64
}

// Context is the explicit retry-loop record threaded through Run: every
// field a subcase decision might need to read or mutate lives here, rather
// than as loop-local variables, so the state driving each attempt is
// inspectable as a single value.
type Context struct {
	Attempt            int
	ProofRegenerations int

	ChainTransition  *transition.ChainTransition
	BlockProofParams *evmchain.BlockProofParams
	ProofBytes       []byte
	PublicValues     *proof.PublicValues

	LastError     error
	LastErrorKind *classify.ErrorKind
}

// Dependencies are the collaborators Run needs: the two external MMR
// mirrors, a transition builder, a proof orchestrator, a broadcaster, and
// the contract binding used to pack calldata and decode reverts.
type Dependencies struct {
	BDE             mmr.IndexedMMR
	CDE             mmr.CheckpointedMMR
	Builder         transition.Builder
	Orchestrator    *proof.Orchestrator
	Broadcaster     broadcaster.Broadcaster
	Contract        *evmchain.RiftExchange
	ContractAddress common.Address
}

type stepOutcome int

const (
	stepContinue stepOutcome = iota
	stepTerminal
)

// Run drives the retry loop for a single detected fork until it submits
// successfully, hits a terminal revert, or exhausts cfg.MaxAttempts. A
// non-nil error means the fork was not resolved this pass; the caller (the
// watchtower supervisor) is expected to re-detect and retry from scratch on
// its next tick rather than treat this as fatal.
func Run(ctx context.Context, cfg Config, deps Dependencies, logger zerolog.Logger) error {
	rc := &Context{}

	t, err := deps.Builder.Build(ctx, deps.BDE, deps.CDE)
	if err != nil {
		return fmt.Errorf("submission: build chain transition: %w", err)
	}
	rc.ChainTransition = t

	for rc.Attempt = 1; rc.Attempt <= cfg.MaxAttempts; rc.Attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("submission: cancelled: %w", err)
		}

		if needsProve(rc) {
			if rc.ProofRegenerations >= cfg.ProofRegenAttempts {
				return fmt.Errorf("submission: proof regeneration budget (%d) exhausted: %w", cfg.ProofRegenAttempts, rc.LastError)
			}
			if err := reprove(ctx, rc, deps); err != nil {
				return err
			}
		}

		calldata, err := deps.Contract.PackUpdateLightClient(*rc.BlockProofParams, rc.ProofBytes)
		if err != nil {
			return fmt.Errorf("submission: pack calldata: %w", err)
		}

		res, err := deps.Broadcaster.Broadcast(ctx, broadcaster.Request{
			To:       deps.ContractAddress,
			Calldata: calldata,
		})
		if err != nil {
			return fmt.Errorf("submission: broadcast: %w", err)
		}

		switch res.Outcome {
		case broadcaster.Success:
			logger.Info().Int("attempt", rc.Attempt).Msg("updateLightClient submitted successfully")
			return awaitCDECatchUp(ctx, deps.CDE, rc.PublicValues.NewMmrRoot, logger)

		case broadcaster.InvalidRequest:
			return fmt.Errorf("submission: invalid request, not retrying: %w", res.Err)

		case broadcaster.UnknownError:
			rc.LastError = res.Err
			delay := BackoffDelay(cfg.BaseRetryDelayMs*2, rc.Attempt, 2.5, cfg.MaxRetryDelayMs*2, cfg.RetryJitterMs)
			logger.Warn().Err(res.Err).Int("attempt", rc.Attempt).Dur("delay", delay).Msg("broadcast failed with an unclassified error, backing off")
			if err := Sleep(ctx, delay); err != nil {
				return fmt.Errorf("submission: cancelled during backoff: %w", err)
			}
			continue

		case broadcaster.Revert:
			outcome, delay := handleRevert(rc, cfg, deps.Contract, res, logger)
			if outcome == stepTerminal {
				return fmt.Errorf("submission: terminal revert: %w", rc.LastError)
			}
			if err := Sleep(ctx, delay); err != nil {
				return fmt.Errorf("submission: cancelled during backoff: %w", err)
			}
			continue
		}
	}

	return fmt.Errorf("submission: exhausted %d attempts: %w", cfg.MaxAttempts, rc.LastError)
}

// needsProve reports whether rc requires a (re)generated proof before the
// next broadcast attempt: either none has been generated yet, or the last
// revert was classified as a proof-verification failure.
func needsProve(rc *Context) bool {
	if rc.ProofRegenerations == 0 {
		return true
	}
	return rc.LastErrorKind != nil && *rc.LastErrorKind == classify.ProofVerificationFailure
}

// reprove rebuilds the chain transition (for every regeneration past the
// first, against fresh BDE/CDE state) and invokes the prover, updating rc in
// place.
func reprove(ctx context.Context, rc *Context, deps Dependencies) error {
	if rc.ProofRegenerations > 0 {
		fresh, err := deps.Builder.Build(ctx, deps.BDE, deps.CDE)
		if err != nil {
			return fmt.Errorf("submission: rebuild chain transition: %w", err)
		}
		rc.ChainTransition = fresh
	}

	result, err := deps.Orchestrator.Prove(ctx, *rc.ChainTransition)
	rc.ProofRegenerations++
	if err != nil {
		return fmt.Errorf("submission: prove: %w", err)
	}

	rc.BlockProofParams = &result.BlockProofParams
	rc.ProofBytes = result.ProofBytes
	rc.PublicValues = &result.PublicValues
	return nil
}

// handleRevert decodes and classifies a revert, updates rc's last-error
// state, and dispatches the §4.F subcase table, returning whether the loop
// should give up or sleep and continue.
func handleRevert(rc *Context, cfg Config, rx *evmchain.RiftExchange, res *broadcaster.Result, logger zerolog.Logger) (stepOutcome, time.Duration) {
	typedName, _, _ := rx.UnpackRevert(res.RevertData)
	message := ""
	if res.Err != nil {
		message = res.Err.Error()
	}

	verdict := classify.ClassifyRevert(typedName, message)
	rc.LastError = &verdict
	kind := verdict.Kind
	rc.LastErrorKind = &kind

	logger.Warn().
		Int("attempt", rc.Attempt).
		Str("revert_kind", verdict.Kind.String()).
		Str("typed_name", typedName).
		Msg("updateLightClient reverted")

	switch verdict.Kind {
	case classify.ProofVerificationFailure:
		if rc.ProofRegenerations < cfg.ProofRegenAttempts {
			return stepContinue, BackoffDelay(cfg.BaseRetryDelayMs/2, rc.Attempt, 1.5, cfg.MaxRetryDelayMs, cfg.RetryJitterMs)
		}
		return stepTerminal, 0

	case classify.NonceError:
		return stepContinue, BackoffDelay(500, rc.Attempt, 1.2, cfg.MaxRetryDelayMs, cfg.RetryJitterMs)

	case classify.GasError:
		return stepContinue, BackoffDelay(cfg.BaseRetryDelayMs, rc.Attempt, 1.5, cfg.MaxRetryDelayMs, cfg.RetryJitterMs)

	case classify.InvariantViolation:
		return stepTerminal, 0

	case classify.FrontrunningProtection, classify.SlippageError:
		// Forces the next iteration to rebuild and re-prove against
		// fresher chain state rather than resubmit the same calldata.
		forced := classify.ProofVerificationFailure
		rc.LastErrorKind = &forced
		return stepContinue, BackoffDelay(cfg.BaseRetryDelayMs, rc.Attempt, 2.0, cfg.MaxRetryDelayMs, cfg.RetryJitterMs)

	default:
		return stepContinue, BackoffDelay(cfg.BaseRetryDelayMs, rc.Attempt, 2.0, cfg.MaxRetryDelayMs, cfg.RetryJitterMs)
	}
}

// awaitCDECatchUp polls the CDE's on-chain MMR root up to 15 times at
// 2-second intervals for it to catch up to wantRoot. The submission has
// already landed on chain by the time this runs; if the CDE's indexer
// hasn't caught up within the bound, that's logged and treated as success
// anyway — the on-chain state is correct regardless of how quickly the
// off-chain mirror observes it.
func awaitCDECatchUp(ctx context.Context, cde mmr.CheckpointedMMR, wantRoot mmrtypes.Hash32, logger zerolog.Logger) error {
	const maxPolls = 15
	const pollInterval = 2 * time.Second

	for i := 0; i < maxPolls; i++ {
		root, err := cde.MMRRoot(ctx)
		if err == nil && root == wantRoot {
			return nil
		}
		if i == maxPolls-1 {
			break
		}
		if err := Sleep(ctx, pollInterval); err != nil {
			return nil
		}
	}

	logger.Warn().Msg("cde has not caught up to the submitted mmr root after 15 polls; on-chain state is correct, continuing")
	return nil
}
