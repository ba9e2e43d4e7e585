// Package proof orchestrates turning a ChainTransition into a proved
// on-chain call: building the prover's program input, invoking the prover,
// and packaging the result as BlockProofParams plus proof bytes.
package proof

import (
	"context"
	"fmt"

	"github.com/riftlabs/fork-watchtower/internal/evmchain"
	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
	"github.com/riftlabs/fork-watchtower/internal/prover"
	"github.com/riftlabs/fork-watchtower/internal/transition"
)

// ProofType distinguishes which program the prover should run. Only
// LightClientOnly is exercised by this core; other variants (e.g. combined
// swap+light-client proofs) belong to the companion swap watchtower, out
// of scope here.
type ProofType int

const (
	LightClientOnly ProofType = iota
)

// PublicValues are the values the on-chain verifier checks the proof
// against: the prior and new MMR roots and the new tip leaf. They are
// handed to the prover as prior root (32) || new root (32) || the tip
// leaf's canonical encoding (mmrtypes.EncodedLeafLen bytes), not ABI-encoded.
type PublicValues struct {
	PriorMmrRoot mmrtypes.Hash32
	NewMmrRoot   mmrtypes.Hash32
	TipLeaf      mmrtypes.Leaf
}

// AuxiliaryData carries everything the prover needs beyond PublicValues:
// the compressed auxiliary leaves required to walk the MMR inclusion
// path.
type AuxiliaryData struct {
	CompressedLeaves []mmrtypes.Leaf
}

// Result is what Orchestrator.Prove returns: the on-chain call payload and
// the opaque proof bytes (empty in mock/noop mode).
type Result struct {
	BlockProofParams evmchain.BlockProofParams
	ProofBytes       []byte
	PublicValues     PublicValues
}

// Orchestrator drives a single prover backend.
type Orchestrator struct {
	prover prover.Prover
}

// NewOrchestrator wraps p as the backend Prove calls.
func NewOrchestrator(p prover.Prover) *Orchestrator {
	return &Orchestrator{prover: p}
}

// Prove builds program input from t, invokes the prover, and packages the
// outcome. Failure of input construction or proof generation is returned
// as-is; the submission loop is responsible for bumping
// RetryContext.ProofRegenerations, not this package.
func (o *Orchestrator) Prove(ctx context.Context, t transition.ChainTransition) (*Result, error) {
	pub := PublicValues{
		PriorMmrRoot: t.PriorRoot,
		NewMmrRoot:   t.NewRoot,
		TipLeaf:      t.TipLeaf,
	}
	aux := AuxiliaryData{CompressedLeaves: t.CompressedLeaves}

	input := prover.ProgramInput{
		PublicValues:  encodePublicValues(pub),
		AuxiliaryData: encodeAuxiliaryData(aux),
	}

	result, err := o.prover.Prove(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("proof: prove: %w", err)
	}

	return &Result{
		BlockProofParams: toBlockProofParams(t),
		ProofBytes:       result.ProofBytes,
		PublicValues:     pub,
	}, nil
}

func encodePublicValues(pub PublicValues) []byte {
	buf := make([]byte, 0, 32+32+mmrtypes.EncodedLeafLen)
	buf = append(buf, pub.PriorMmrRoot.Bytes()...)
	buf = append(buf, pub.NewMmrRoot.Bytes()...)
	buf = append(buf, pub.TipLeaf.Encode()...)
	return buf
}

func encodeAuxiliaryData(aux AuxiliaryData) []byte {
	buf := make([]byte, 0, len(aux.CompressedLeaves)*mmrtypes.EncodedLeafLen)
	for _, leaf := range aux.CompressedLeaves {
		buf = append(buf, leaf.Encode()...)
	}
	return buf
}

func toCompressedLeaf(leaf mmrtypes.Leaf) evmchain.CompressedLeaf {
	var bh [32]byte
	copy(bh[:], leaf.BlockHash.Bytes())
	return evmchain.CompressedLeaf{
		BlockHash:      bh,
		Height:         leaf.Height,
		CumulativeWork: leaf.CumulativeWork.ToBig(),
	}
}

func toBlockProofParams(t transition.ChainTransition) evmchain.BlockProofParams {
	var prior, next [32]byte
	copy(prior[:], t.PriorRoot.Bytes())
	copy(next[:], t.NewRoot.Bytes())

	aux := make([]evmchain.CompressedLeaf, len(t.CompressedLeaves))
	for i, leaf := range t.CompressedLeaves {
		aux[i] = toCompressedLeaf(leaf)
	}

	return evmchain.BlockProofParams{
		PriorMmrRoot:          prior,
		NewMmrRoot:            next,
		TipBlockLeaf:          toCompressedLeaf(t.TipLeaf),
		CompressedBlockLeaves: aux,
	}
}
