package watchtower

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"

	"github.com/riftlabs/fork-watchtower/internal/broadcaster"
	"github.com/riftlabs/fork-watchtower/internal/evmchain"
	"github.com/riftlabs/fork-watchtower/internal/mmr"
	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
	"github.com/riftlabs/fork-watchtower/internal/proof"
	"github.com/riftlabs/fork-watchtower/internal/prover"
	"github.com/riftlabs/fork-watchtower/internal/submission"
	"github.com/riftlabs/fork-watchtower/internal/transition"
)

func leafAt(idx byte, height uint32, work uint64) mmrtypes.Leaf {
	var bh mmrtypes.Hash32
	bh[0] = idx
	return mmrtypes.Leaf{BlockHash: bh, Height: height, CumulativeWork: *uint256.NewInt(work)}
}

// alwaysSucceedsBroadcaster reports every broadcast as successful and
// counts how many times it was invoked, so tests can assert a submission
// pass actually ran.
type alwaysSucceedsBroadcaster struct {
	mu    sync.Mutex
	calls int
}

func (b *alwaysSucceedsBroadcaster) Broadcast(ctx context.Context, req broadcaster.Request) (*broadcaster.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	return &broadcaster.Result{Outcome: broadcaster.Success}, nil
}

func (b *alwaysSucceedsBroadcaster) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func testDeps(t *testing.T, bc broadcaster.Broadcaster) (submission.Dependencies, *mmr.MemMMR, *mmr.MemMMR) {
	t.Helper()

	rx, err := evmchain.NewRiftExchange()
	if err != nil {
		t.Fatalf("NewRiftExchange: %v", err)
	}

	deps := submission.Dependencies{
		Builder:         transition.NewDefaultBuilder(),
		Orchestrator:    proof.NewOrchestrator(prover.NewMock()),
		Broadcaster:     bc,
		Contract:        rx,
		ContractAddress: common.HexToAddress("0x1111111111111111111111111111111111111111"),
	}
	bde := mmr.NewMemMMR()
	cde := mmr.NewMemMMR()
	deps.BDE = bde
	deps.CDE = cde
	return deps, bde, cde
}

// fixedBuilder returns the same precomputed transition on every Build, so a
// CDE root seeded from that transition is exactly the root a pass submits.
type fixedBuilder struct{ ct *transition.ChainTransition }

func (f fixedBuilder) Build(ctx context.Context, bde mmr.IndexedMMR, cde mmr.CheckpointedMMR) (*transition.ChainTransition, error) {
	return f.ct, nil
}

func fastSubmitConfig() submission.Config {
	return submission.Config{
		MaxAttempts:        3,
		ProofRegenAttempts: 2,
		BaseRetryDelayMs:   1,
		MaxRetryDelayMs:    5,
		RetryJitterMs:      0,
	}
}

func TestRunPassSkipsWhenNoFork(t *testing.T) {
	bc := &alwaysSucceedsBroadcaster{}
	deps, bde, cde := testDeps(t, bc)

	g := leafAt(0, 0, 100)
	h1 := leafAt(1, 1, 200)
	bde.Append(g)
	bde.Append(h1)
	cde.Append(g)
	cde.Append(h1)

	s := New(time.Hour, fastSubmitConfig(), deps, zerolog.Nop())
	s.runPass(context.Background())

	if bc.callCount() != 0 {
		t.Fatalf("expected no submission when chains agree, got %d broadcast calls", bc.callCount())
	}
}

func TestRunPassSubmitsOnMissingBlocks(t *testing.T) {
	bc := &alwaysSucceedsBroadcaster{}
	deps, bde, cde := testDeps(t, bc)

	g := leafAt(0, 0, 100)
	h1 := leafAt(1, 1, 200)
	h2 := leafAt(2, 2, 300)
	bde.Append(g)
	bde.Append(h1)
	bde.Append(h2)
	cde.Append(g)
	cde.Append(h1)

	// Seed the CDE's reported root to the root the pass will submit, so
	// awaitCDECatchUp's first poll matches immediately instead of running
	// out its full 15*2s bound. The pass is given the precomputed
	// transition: rebuilding after SetRoot would read the seeded root as
	// the prior root and derive a different new root.
	want, err := deps.Builder.Build(context.Background(), bde, cde)
	if err != nil {
		t.Fatalf("precompute transition: %v", err)
	}
	cde.SetRoot(want.NewRoot)
	deps.Builder = fixedBuilder{ct: want}

	s := New(time.Hour, fastSubmitConfig(), deps, zerolog.Nop())
	s.runPass(context.Background())

	if bc.callCount() == 0 {
		t.Fatalf("expected a submission pass for a missing-blocks fork")
	}
}

func TestRunPassSingleFlightSkipsConcurrentPass(t *testing.T) {
	bc := &alwaysSucceedsBroadcaster{}
	deps, bde, cde := testDeps(t, bc)
	g := leafAt(0, 0, 100)
	bde.Append(g)
	cde.Append(g)

	s := New(time.Hour, fastSubmitConfig(), deps, zerolog.Nop())

	s.runningMu.Lock()
	s.running = true
	s.runningMu.Unlock()

	s.runPass(context.Background())

	if bc.callCount() != 0 {
		t.Fatalf("expected runPass to no-op while a pass is already in flight")
	}
}

func TestPublishRootLatestValueWins(t *testing.T) {
	deps, _, _ := testDeps(t, &alwaysSucceedsBroadcaster{})
	s := New(time.Hour, fastSubmitConfig(), deps, zerolog.Nop())

	s.publishRoot(mmrtypes.Hash32{0x01})
	s.publishRoot(mmrtypes.Hash32{0x02})
	s.publishRoot(mmrtypes.Hash32{0x03})

	select {
	case got := <-s.rootCh:
		if got != (mmrtypes.Hash32{0x03}) {
			t.Fatalf("expected the latest published root, got %x", got)
		}
	default:
		t.Fatalf("expected a root on the channel")
	}

	select {
	case extra := <-s.rootCh:
		t.Fatalf("expected only one buffered root, got an extra one: %x", extra)
	default:
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	deps, bde, cde := testDeps(t, &alwaysSucceedsBroadcaster{})
	g := leafAt(0, 0, 100)
	bde.Append(g)
	cde.Append(g)

	s := New(10*time.Millisecond, fastSubmitConfig(), deps, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected Run to return ctx.Err() on cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after context cancellation")
	}
}
