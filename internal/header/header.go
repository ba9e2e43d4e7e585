// Package header implements the header-chain primitive: validating a linked
// window of Bitcoin headers (connection, PoW, retarget) and computing
// cumulative chainwork. Both operations are pure and treat any failure as
// fatal and non-recoverable — they are only ever called against input that
// should already satisfy these invariants, so a failure indicates a broken
// precondition upstream, not a condition this package should recover from.
package header

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/riftlabs/fork-watchtower/internal/btcheader"
)

// Reason distinguishes the category of a FatalError without requiring
// callers (or tests) to string-match the error text.
type Reason int

const (
	ReasonDisconnected Reason = iota
	ReasonBadRetarget
	ReasonBadPoW
	ReasonWorkOverflow
	ReasonEmptyChain
)

func (r Reason) String() string {
	switch r {
	case ReasonDisconnected:
		return "header chain link is not connected"
	case ReasonBadRetarget:
		return "failed to validate work requirement"
	case ReasonBadPoW:
		return "header fails PoW check"
	case ReasonWorkOverflow:
		return "chainwork addition overflow"
	case ReasonEmptyChain:
		return "header chain must not be empty"
	default:
		return "unknown header chain failure"
	}
}

// FatalError wraps a non-recoverable header-chain validation failure.
type FatalError struct {
	Reason Reason
	Height uint32
	Detail string
}

func (e *FatalError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at height %d: %s", e.Reason, e.Height, e.Detail)
	}
	return fmt.Sprintf("%s at height %d", e.Reason, e.Height)
}

// ValidateHeaderChain checks a linked window of headers starting from
// parentHeader at parentHeight. For each consecutive (prev, cur) pair,
// starting with (parentHeader, chain[0]):
//
//  1. cur connects to prev (cur.PrevBlock == hash(prev));
//  2. cur.Bits matches the expected retarget output, advancing the retarget
//     anchor whenever a 2016-block boundary is crossed;
//  3. cur satisfies its own proof-of-work.
//
// chain must be non-empty. Any failure is fatal.
func ValidateHeaderChain(parentHeight uint32, parentHeader, parentRetargetHeader btcheader.RawHeader, chain []btcheader.RawHeader) error {
	if len(chain) == 0 {
		return &FatalError{Reason: ReasonEmptyChain, Height: parentHeight}
	}

	retarget := parentRetargetHeader
	previous := parentHeader

	for i, current := range chain {
		height := parentHeight + uint32(i) + 1

		if !btcheader.CheckHeaderConnection(current, previous) {
			return &FatalError{Reason: ReasonDisconnected, Height: height}
		}

		nextRetarget, ok := btcheader.ValidateNextWorkRequired(retarget, previous, current, height)
		if !ok {
			return &FatalError{
				Reason: ReasonBadRetarget,
				Height: height,
				Detail: fmt.Sprintf("bits=%08x expected=%08x", current.Bits(), btcheader.ExpectedNextBits(height, retarget, previous)),
			}
		}
		retarget = nextRetarget

		if !btcheader.CheckProofOfWork(current) {
			return &FatalError{Reason: ReasonBadPoW, Height: height}
		}

		previous = current
	}

	return nil
}

// CalculateCumulativeWork returns the cumulative chainwork at each header in
// chain (inclusive of parentWork as the first element) and the final
// cumulative work. Overflow on addition is fatal.
func CalculateCumulativeWork(parentWork uint256.Int, chain []btcheader.RawHeader) (works []uint256.Int, finalWork uint256.Int, err error) {
	works = make([]uint256.Int, 0, len(chain)+1)
	acc := parentWork
	works = append(works, acc)

	for i, h := range chain {
		proof := btcheader.BlockProof(h)
		proofU256, overflow := uint256.FromBig(proof)
		if overflow {
			return nil, uint256.Int{}, &FatalError{Reason: ReasonWorkOverflow, Height: uint32(i)}
		}

		var next uint256.Int
		if next.AddOverflow(&acc, proofU256) {
			return nil, uint256.Int{}, &FatalError{Reason: ReasonWorkOverflow, Height: uint32(i)}
		}
		acc = next
		works = append(works, acc)
	}

	finalWork = works[len(works)-1]
	return works, finalWork, nil
}
