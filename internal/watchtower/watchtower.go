// Package watchtower supervises the fork-detection-and-submission cycle: a
// root-watch task polls the on-chain light client's MMR root and publishes
// changes on a "latest value wins" channel; the main loop wakes on either a
// published root change or a poll_interval tick, and drives a single
// detect-then-submit pass, gated so only one pass runs at a time.
package watchtower

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/riftlabs/fork-watchtower/internal/fork"
	"github.com/riftlabs/fork-watchtower/internal/mmr"
	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
	"github.com/riftlabs/fork-watchtower/internal/submission"
)

// rootWatchInterval is how often the root-watch task polls the CDE for its
// current MMR root.
const rootWatchInterval = 10 * time.Second

// Supervisor owns the two background tasks described above and the
// single-flight guard serializing detect-then-submit passes.
type Supervisor struct {
	bde mmr.IndexedMMR
	cde mmr.CheckpointedMMR

	pollInterval time.Duration
	submitCfg    submission.Config
	deps         submission.Dependencies

	logger zerolog.Logger

	rootCh chan mmrtypes.Hash32

	runningMu sync.Mutex
	running   bool

	wg sync.WaitGroup
}

// New constructs a Supervisor. deps.BDE and deps.CDE are also used directly
// by the root-watch task and fork.Detect; deps is otherwise passed straight
// through to submission.Run on every pass.
func New(pollInterval time.Duration, submitCfg submission.Config, deps submission.Dependencies, logger zerolog.Logger) *Supervisor {
	return &Supervisor{
		bde:          deps.BDE,
		cde:          deps.CDE,
		pollInterval: pollInterval,
		submitCfg:    submitCfg,
		deps:         deps,
		logger:       logger,
		rootCh:       make(chan mmrtypes.Hash32, 1),
	}
}

// Run starts both background tasks and blocks until ctx is cancelled, then
// waits for both to exit before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.watchRoot(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.mainLoop(ctx)
	}()

	<-ctx.Done()
	s.wg.Wait()
	return ctx.Err()
}

// watchRoot seeds rootCh with the CDE's current MMR root, then polls the
// root every rootWatchInterval and publishes it whenever it differs from
// the last one observed, with drain-then-send semantics: if a prior value
// hasn't been consumed yet, it is discarded in favor of the newer one, so
// the channel never holds more than the latest root.
func (s *Supervisor) watchRoot(ctx context.Context) {
	ticker := time.NewTicker(rootWatchInterval)
	defer ticker.Stop()

	last, err := s.cde.MMRRoot(ctx)
	seen := err == nil
	if seen {
		s.publishRoot(last)
	} else {
		s.logger.Warn().Err(err).Msg("root-watch: failed to read cde mmr root")
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			root, err := s.cde.MMRRoot(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("root-watch: failed to read cde mmr root")
				continue
			}
			if seen && root == last {
				continue
			}
			last, seen = root, true
			s.publishRoot(root)
		}
	}
}

func (s *Supervisor) publishRoot(root mmrtypes.Hash32) {
	select {
	case s.rootCh <- root:
		return
	default:
	}
	select {
	case <-s.rootCh:
	default:
	}
	select {
	case s.rootCh <- root:
	default:
	}
}

// mainLoop wakes on either a published root change or a poll_interval
// tick, whichever comes first, and runs a single detect-then-submit pass
// per wake-up, skipping the pass entirely if one is already in flight.
func (s *Supervisor) mainLoop(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.rootCh:
			s.runPass(ctx)
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

// runPass attempts to acquire the single-flight guard and, if successful,
// runs one detect-then-submit pass. If a pass is already running, runPass
// returns immediately without blocking.
func (s *Supervisor) runPass(ctx context.Context) {
	s.runningMu.Lock()
	if s.running {
		s.runningMu.Unlock()
		return
	}
	s.running = true
	s.runningMu.Unlock()

	defer func() {
		s.runningMu.Lock()
		s.running = false
		s.runningMu.Unlock()
	}()

	result, err := fork.Detect(ctx, s.bde, s.cde, s.logger)
	if err != nil {
		s.logger.Error().Err(err).Msg("fork detection failed")
		return
	}
	if result.Kind == fork.None {
		return
	}

	s.logger.Info().
		Str("kind", result.Kind.String()).
		Uint32("lc_tip_height", result.LCTipHeight).
		Uint32("bde_tip_height", result.BDETipHeight).
		Msg("fork detected, starting submission")

	if err := submission.Run(ctx, s.submitCfg, s.deps, s.logger); err != nil {
		s.logger.Error().Err(err).Msg("submission loop failed")
	}
}
