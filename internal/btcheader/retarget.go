package btcheader

import (
	"math/big"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Params is the subset of chaincfg.Params the retarget/PoW helpers need.
// Defaulting to chaincfg.MainNetParams keeps this module's PoW checks
// aligned with Bitcoin's actual mainnet consensus rules, which is what a
// light-client bridge tracking mainnet must enforce.
var Params = &chaincfg.MainNetParams

// blocksPerRetarget is the number of blocks between difficulty adjustments
// (2016 on mainnet).
func blocksPerRetarget() uint32 {
	return uint32(Params.TargetTimespan / Params.TargetTimePerBlock)
}

// ExpectedNextBits computes the nBits value that currentHeight (the height
// of the header following previous) must carry, given the retarget anchor
// header for the current 2016-block window and the immediately preceding
// header.
//
// currentHeight is the height of the header being validated, i.e.
// previousHeight+1. When currentHeight does not cross a retarget boundary,
// the expected bits equal previous's bits unchanged.
func ExpectedNextBits(currentHeight uint32, retarget, previous RawHeader) uint32 {
	interval := blocksPerRetarget()
	if currentHeight%interval != 0 {
		return previous.Bits()
	}

	actualTimespan := int64(previous.Time()) - int64(retarget.Time())

	targetTimespanSecs := int64(Params.TargetTimespan.Seconds())
	minTimespanSecs := targetTimespanSecs / Params.RetargetAdjustmentFactor
	maxTimespanSecs := targetTimespanSecs * Params.RetargetAdjustmentFactor

	if actualTimespan < minTimespanSecs {
		actualTimespan = minTimespanSecs
	}
	if actualTimespan > maxTimespanSecs {
		actualTimespan = maxTimespanSecs
	}

	oldTarget := blockchain.CompactToBig(previous.Bits())
	newTarget := new(big.Int).Mul(oldTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespanSecs))

	if newTarget.Cmp(Params.PowLimit) > 0 {
		newTarget = Params.PowLimit
	}

	return blockchain.BigToCompact(newTarget)
}

// ValidateNextWorkRequired checks that current's Bits field matches the
// expected retarget output, and returns the retarget anchor that should be
// used for the next step: current itself when a retarget boundary was just
// crossed, otherwise the unchanged retarget anchor.
func ValidateNextWorkRequired(retarget, previous, current RawHeader, currentHeight uint32) (nextRetarget RawHeader, ok bool) {
	expected := ExpectedNextBits(currentHeight, retarget, previous)
	if current.Bits() != expected {
		return retarget, false
	}
	if currentHeight%blocksPerRetarget() == 0 {
		return current, true
	}
	return retarget, true
}

// CheckProofOfWork reports whether h's block hash satisfies the difficulty
// target encoded in its Bits field.
func CheckProofOfWork(h RawHeader) bool {
	target := blockchain.CompactToBig(h.Bits())
	if target.Sign() <= 0 || target.Cmp(Params.PowLimit) > 0 {
		return false
	}
	hash := h.BlockHash()
	hashNum := blockchain.HashToBig(&hash)
	return hashNum.Cmp(target) <= 0
}

// CheckHeaderConnection reports whether current's PrevBlock field matches
// previous's block hash.
func CheckHeaderConnection(current, previous RawHeader) bool {
	return current.PrevBlock() == previous.BlockHash()
}

// BlockProof returns the proof-of-work contribution of a single header:
// 2^256 / (target+1), Bitcoin's per-block chainwork formula.
func BlockProof(h RawHeader) *big.Int {
	return blockchain.CalcWork(h.Bits())
}
