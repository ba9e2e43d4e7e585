// Package prover defines the contract the proof orchestrator drives: an
// opaque ZK prover that accepts program input and returns a proof. The
// real prover is out of scope for this repo; Mock stands in for local
// examples and tests.
package prover

import "context"

// ProgramInput is the opaque witness handed to the prover. Its concrete
// shape (public values, auxiliary data) is owned by internal/proof; this
// package only needs to pass it through.
type ProgramInput struct {
	PublicValues  []byte
	AuxiliaryData []byte
}

// Result is what a prover call returns. ProofBytes is empty in mock/noop
// mode, which is itself a valid outcome per the proof orchestrator's
// contract — the call still proceeds rather than erroring.
type Result struct {
	ProofBytes []byte
}

// Prover generates a succinct proof that a ProgramInput's claimed
// transition is valid. Prove may take minutes against a real backend.
type Prover interface {
	Prove(ctx context.Context, input ProgramInput) (*Result, error)
}

// Mock is a no-op Prover: it validates nothing and always returns an empty
// proof. It exists so the submission loop and CLI example can run without
// a real proving backend wired in.
type Mock struct{}

// NewMock returns a Mock prover.
func NewMock() *Mock {
	return &Mock{}
}

// Prove implements Prover by returning an empty proof unconditionally.
func (m *Mock) Prove(ctx context.Context, input ProgramInput) (*Result, error) {
	return &Result{}, nil
}

var _ Prover = (*Mock)(nil)
