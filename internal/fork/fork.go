// Package fork compares the on-chain light client's mirrored tip (the CDE)
// against the locally-tracked Bitcoin tip (the BDE) and classifies any
// divergence between them.
package fork

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/riftlabs/fork-watchtower/internal/mmr"
)

// Kind distinguishes the outcome of Detect.
type Kind int

const (
	// None means the LC and BDE tips agree, or the LC is at or ahead of
	// BDE's cumulative work — no action is required.
	None Kind = iota
	// MissingBlocks means the LC tip hash is present in BDE, but at an
	// earlier leaf index: BDE simply has blocks the LC hasn't seen yet.
	MissingBlocks
	// Reorganization means the LC tip hash is entirely absent from BDE:
	// Bitcoin's canonical chain has reorganized away from what the LC
	// last committed to.
	Reorganization
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case MissingBlocks:
		return "missing_blocks"
	case Reorganization:
		return "reorganization"
	default:
		return "unknown"
	}
}

// Type is the outcome of a fork detection pass. Kind is None unless a fork
// was found, in which case the height/chainwork fields describe it.
// Reorganization additionally populates the chainwork fields; MissingBlocks
// does not need them since the LC tip is already known to be a (stale)
// member of BDE's chain.
type Type struct {
	Kind Kind

	LCTipHeight  uint32
	BDETipHeight uint32

	LCTipChainwork  *big.Int
	BDETipChainwork *big.Int
}

// ErrLCTipMissing is returned when the LC-mirror reports a non-zero leaf
// count but its tip leaf cannot be fetched — an indexer consistency bug
// upstream, not a condition Detect can resolve.
var ErrLCTipMissing = errors.New("fork: lc tip leaf missing despite non-zero leaf count")

// ErrBDETipMissing is the BDE-side analogue of ErrLCTipMissing.
var ErrBDETipMissing = errors.New("fork: bde tip leaf missing despite non-zero leaf count")

// Detect inspects cde (the LC-mirror) and bde (the Bitcoin mirror) and
// returns the divergence between their tips, following the procedure in
// component B: equal or LC-ahead work resolves to None (the former to
// avoid oscillating on a transient equal-work competitor, the latter
// because BDE is simply behind); LC-behind resolves to MissingBlocks when
// the LC tip is still a known BDE leaf, otherwise Reorganization. logger
// receives advisory warnings for the "no fork, but notable" cases; it may
// be zerolog.Nop().
func Detect(ctx context.Context, bde mmr.IndexedMMR, cde mmr.CheckpointedMMR, logger zerolog.Logger) (Type, error) {
	lcN, err := cde.LeafCount(ctx)
	if err != nil {
		return Type{}, fmt.Errorf("fork: cde leaf count: %w", err)
	}
	if lcN == 0 {
		return Type{Kind: None}, nil
	}
	lcHeight := lcN - 1
	if lcHeight == 0 {
		return Type{Kind: None}, nil
	}

	lcTip, err := cde.LeafByIndex(ctx, lcHeight)
	if err != nil {
		return Type{}, fmt.Errorf("%w: %v", ErrLCTipMissing, err)
	}

	bdeN, err := bde.LeafCount(ctx)
	if err != nil {
		return Type{}, fmt.Errorf("fork: bde leaf count: %w", err)
	}
	if bdeN == 0 {
		return Type{Kind: None}, nil
	}
	bdeHeight := bdeN - 1

	bdeTip, err := bde.LeafByIndex(ctx, bdeHeight)
	if err != nil {
		return Type{}, fmt.Errorf("%w: %v", ErrBDETipMissing, err)
	}

	if lcTip.Hash() == bdeTip.Hash() {
		return Type{Kind: None}, nil
	}

	lcWork := lcTip.CumulativeWork.ToBig()
	bdeWork := bdeTip.CumulativeWork.ToBig()

	switch lcWork.Cmp(bdeWork) {
	case 0:
		logger.Warn().
			Uint32("lc_tip_height", uint32(lcHeight)).
			Uint32("bde_tip_height", uint32(bdeHeight)).
			Msg("equal cumulative work at divergent tips, favoring existing chain")
		return Type{Kind: None}, nil
	case 1:
		logger.Warn().
			Uint32("lc_tip_height", uint32(lcHeight)).
			Uint32("bde_tip_height", uint32(bdeHeight)).
			Msg("local light-client tip has more work than bde tip, waiting for bde to catch up")
		return Type{Kind: None}, nil
	}

	_, err = bde.LeafByHash(ctx, lcTip.Hash())
	switch {
	case err == nil:
		return Type{
			Kind:         MissingBlocks,
			LCTipHeight:  uint32(lcHeight),
			BDETipHeight: uint32(bdeHeight),
		}, nil
	case errors.Is(err, mmr.ErrLeafNotFound):
		return Type{
			Kind:            Reorganization,
			LCTipHeight:     uint32(lcHeight),
			BDETipHeight:    uint32(bdeHeight),
			LCTipChainwork:  lcWork,
			BDETipChainwork: bdeWork,
		}, nil
	default:
		return Type{}, fmt.Errorf("fork: bde leaf by hash: %w", err)
	}
}
