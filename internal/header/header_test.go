package header

import (
	"encoding/binary"
	"math/big"
	"testing"
	"time"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/holiman/uint256"

	"github.com/riftlabs/fork-watchtower/internal/btcheader"
)

// useTrivialDifficulty swaps btcheader.Params for a synthetic set of
// consensus parameters whose PoW limit is the maximum possible 256-bit
// target, so any nonce satisfies proof-of-work and tests stay deterministic
// without mining real headers. The real mainnet retarget cadence (2016
// blocks / 2 weeks) is preserved so retarget-boundary tests stay meaningful.
func useTrivialDifficulty(t *testing.T) uint32 {
	t.Helper()
	orig := btcheader.Params
	maxTarget := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	bits := blockchain.BigToCompact(maxTarget)
	btcheader.Params = &chaincfg.Params{
		PowLimit:                 maxTarget,
		PowLimitBits:             bits,
		TargetTimespan:           14 * 24 * time.Hour,
		TargetTimePerBlock:       10 * time.Minute,
		RetargetAdjustmentFactor: 4,
	}
	t.Cleanup(func() { btcheader.Params = orig })
	return bits
}

func buildHeader(prev btcheader.RawHeader, bits uint32, t uint32, nonce uint32) btcheader.RawHeader {
	var h btcheader.RawHeader
	binary.LittleEndian.PutUint32(h[0:4], 1)
	prevHash := prev.BlockHash()
	copy(h[4:36], prevHash[:])
	// Merkle root content is irrelevant to this package's checks.
	binary.LittleEndian.PutUint32(h[68:72], t)
	binary.LittleEndian.PutUint32(h[72:76], bits)
	binary.LittleEndian.PutUint32(h[76:80], nonce)
	return h
}

func genesisHeader(bits uint32, t uint32) btcheader.RawHeader {
	var h btcheader.RawHeader
	binary.LittleEndian.PutUint32(h[0:4], 1)
	binary.LittleEndian.PutUint32(h[68:72], t)
	binary.LittleEndian.PutUint32(h[72:76], bits)
	return h
}

func TestValidateHeaderChainConnected(t *testing.T) {
	bits := useTrivialDifficulty(t)

	genesis := genesisHeader(bits, 1_600_000_000)
	h1 := buildHeader(genesis, bits, 1_600_000_600, 0)
	h2 := buildHeader(h1, bits, 1_600_001_200, 0)
	h3 := buildHeader(h2, bits, 1_600_001_800, 0)

	chain := []btcheader.RawHeader{h1, h2, h3}
	if err := ValidateHeaderChain(0, genesis, genesis, chain); err != nil {
		t.Fatalf("expected valid chain, got: %v", err)
	}
}

func TestValidateHeaderChainEmpty(t *testing.T) {
	useTrivialDifficulty(t)
	genesis := genesisHeader(0x207fffff, 0)
	err := ValidateHeaderChain(0, genesis, genesis, nil)
	var fe *FatalError
	if err == nil {
		t.Fatalf("expected error for empty chain")
	}
	if !asFatal(err, &fe) || fe.Reason != ReasonEmptyChain {
		t.Fatalf("expected ReasonEmptyChain, got %v", err)
	}
}

func TestValidateHeaderChainDisconnected(t *testing.T) {
	bits := useTrivialDifficulty(t)

	genesis := genesisHeader(bits, 1_600_000_000)
	h1 := buildHeader(genesis, bits, 1_600_000_600, 0)
	// Tamper the PrevBlock field (bytes 4..=35) to break the link.
	h1[4] ^= 0xff

	err := ValidateHeaderChain(0, genesis, genesis, []btcheader.RawHeader{h1})
	var fe *FatalError
	if !asFatal(err, &fe) || fe.Reason != ReasonDisconnected {
		t.Fatalf("expected ReasonDisconnected, got %v", err)
	}
}

func TestValidateHeaderChainBadRetarget(t *testing.T) {
	bits := useTrivialDifficulty(t)

	genesis := genesisHeader(bits, 1_600_000_000)
	h1 := buildHeader(genesis, bits, 1_600_000_600, 0)
	// Tamper the bits field (bytes 72..=75): no retarget boundary is
	// crossed at height 1, so any bits other than the parent's are wrong.
	binary.LittleEndian.PutUint32(h1[72:76], 0x1d00ffff)

	err := ValidateHeaderChain(0, genesis, genesis, []btcheader.RawHeader{h1})
	var fe *FatalError
	if !asFatal(err, &fe) || fe.Reason != ReasonBadRetarget {
		t.Fatalf("expected ReasonBadRetarget, got %v", err)
	}
}

func TestValidateHeaderChainBadPoW(t *testing.T) {
	useTrivialDifficulty(t)

	// An impossibly hard target (compact form of 1): essentially no nonce
	// satisfies it, simulating a tampered nonce (bytes 76..=79) that fails
	// the PoW check.
	genesis := genesisHeader(0x03000001, 1_600_000_000)
	h1 := buildHeader(genesis, 0x03000001, 1_600_000_600, 0)

	err := ValidateHeaderChain(0, genesis, genesis, []btcheader.RawHeader{h1})
	var fe *FatalError
	if !asFatal(err, &fe) || fe.Reason != ReasonBadPoW {
		t.Fatalf("expected ReasonBadPoW, got %v", err)
	}
}

func TestValidateHeaderChainWithGap(t *testing.T) {
	bits := useTrivialDifficulty(t)

	genesis := genesisHeader(bits, 1_600_000_000)
	h1 := buildHeader(genesis, bits, 1_600_000_600, 0)
	h2 := buildHeader(h1, bits, 1_600_001_200, 0)
	// h3 skips connecting to h2 and instead claims genesis as its parent.
	h3 := buildHeader(genesis, bits, 1_600_001_800, 0)

	err := ValidateHeaderChain(0, genesis, genesis, []btcheader.RawHeader{h1, h2, h3})
	var fe *FatalError
	if !asFatal(err, &fe) || fe.Reason != ReasonDisconnected {
		t.Fatalf("expected ReasonDisconnected for the gap, got %v", err)
	}
}

func TestCalculateCumulativeWorkRoundTrip(t *testing.T) {
	bits := useTrivialDifficulty(t)

	genesis := genesisHeader(bits, 1_600_000_000)
	h1 := buildHeader(genesis, bits, 1_600_000_600, 0)
	h2 := buildHeader(h1, bits, 1_600_001_200, 0)

	chain := []btcheader.RawHeader{h1, h2}
	parentWork := *uint256.NewInt(0)

	works, final, err := CalculateCumulativeWork(parentWork, chain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(works) != len(chain)+1 {
		t.Fatalf("expected %d works, got %d", len(chain)+1, len(works))
	}
	if works[0].Cmp(&parentWork) != 0 {
		t.Fatalf("first work must equal parent work")
	}
	if works[len(works)-1].Cmp(&final) != 0 {
		t.Fatalf("last work must equal returned final work")
	}
	for i := 1; i < len(works); i++ {
		if works[i].Cmp(&works[i-1]) < 0 {
			t.Fatalf("work must be monotonically non-decreasing at index %d", i)
		}
	}
}

func TestCalculateCumulativeWorkOverflow(t *testing.T) {
	useTrivialDifficulty(t)

	genesis := genesisHeader(0x1d00ffff, 1_600_000_000)
	h1 := buildHeader(genesis, 0x1d00ffff, 1_600_000_600, 0)

	maxWork := uint256.MustFromDecimal("115792089237316195423570985008687907853269984665640564039457584007913129639935") // 2^256-1
	_, _, err := CalculateCumulativeWork(*maxWork, []btcheader.RawHeader{h1})
	var fe *FatalError
	if !asFatal(err, &fe) || fe.Reason != ReasonWorkOverflow {
		t.Fatalf("expected ReasonWorkOverflow, got %v", err)
	}
}

func asFatal(err error, target **FatalError) bool {
	fe, ok := err.(*FatalError)
	if !ok {
		return false
	}
	*target = fe
	return true
}
