package classify

import "testing"

func TestClassifyRevertTypedPriority(t *testing.T) {
	tests := []struct {
		name      string
		typed     string
		message   string
		wantKind  ErrorKind
		wantRetry bool
		wantRegen bool
		wantDelay uint64
		wantMult  float64
		wantMax   uint32
	}{
		{"InvalidBlockInclusionProof", "InvalidBlockInclusionProof", "reverted", ProofVerificationFailure, true, true, 1000, 1.5, 3},
		{"InvalidSwapBlockInclusionProof", "InvalidSwapBlockInclusionProof", "reverted", ProofVerificationFailure, true, true, 1000, 1.5, 3},
		{"ChainworkTooLow", "ChainworkTooLow", "reverted", InvariantViolation, false, false, 0, 0, 0},
		{"NotEnoughConfirmationBlocks", "NotEnoughConfirmationBlocks", "reverted", InvariantViolation, false, false, 0, 0, 0},
		{"NotEnoughConfirmations", "NotEnoughConfirmations", "reverted", InvariantViolation, false, false, 0, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := ClassifyRevert(tc.typed, tc.message)
			if v.Kind != tc.wantKind {
				t.Fatalf("kind: got %v want %v", v.Kind, tc.wantKind)
			}
			if v.Strategy.ShouldRetry != tc.wantRetry {
				t.Fatalf("should retry: got %v want %v", v.Strategy.ShouldRetry, tc.wantRetry)
			}
			if v.Strategy.ShouldRegenerateProof != tc.wantRegen {
				t.Fatalf("should regen: got %v want %v", v.Strategy.ShouldRegenerateProof, tc.wantRegen)
			}
			if tc.wantRetry {
				if v.Strategy.DelayMs != tc.wantDelay || v.Strategy.BackoffMultiplier != tc.wantMult || v.Strategy.MaxAttempts != tc.wantMax {
					t.Fatalf("strategy mismatch: %+v", v.Strategy)
				}
			}
		})
	}
}

func TestClassifyRevertTypedBeatsMessage(t *testing.T) {
	// Message text alone would classify as NonceError, but the typed name
	// must win.
	v := ClassifyRevert("ChainworkTooLow", "nonce too low")
	if v.Kind != InvariantViolation {
		t.Fatalf("expected typed decode to take priority, got %v", v.Kind)
	}
}

func TestClassifyRevertMessageFallback(t *testing.T) {
	tests := []struct {
		message   string
		wantKind  ErrorKind
		wantRetry bool
		wantRegen bool
		wantDelay uint64
		wantMult  float64
		wantMax   uint32
	}{
		{"execution reverted: invalid proof", ProofVerificationFailure, true, true, 1000, 1.5, 3},
		{"execution reverted: verification failed", ProofVerificationFailure, true, true, 1000, 1.5, 3},
		{"execution reverted: inclusion proof mismatch", ProofVerificationFailure, true, true, 1000, 1.5, 3},
		{"nonce too low", NonceError, true, false, 500, 1.2, 5},
		{"out of gas", GasError, true, false, 1000, 1.5, 4},
		{"slippage exceeded", SlippageError, true, true, 2000, 2.0, 3},
		{"invariant violated", InvariantViolation, false, false, 0, 0, 0},
		{"assertion failed", InvariantViolation, false, false, 0, 0, 0},
		{"execution reverted", UnknownRevert, true, false, 2000, 2.0, 3},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			v := ClassifyRevert("", tc.message)
			if v.Kind != tc.wantKind {
				t.Fatalf("kind: got %v want %v", v.Kind, tc.wantKind)
			}
			if v.Strategy.ShouldRetry != tc.wantRetry {
				t.Fatalf("should retry: got %v want %v", v.Strategy.ShouldRetry, tc.wantRetry)
			}
			if v.Strategy.ShouldRegenerateProof != tc.wantRegen {
				t.Fatalf("should regen: got %v want %v", v.Strategy.ShouldRegenerateProof, tc.wantRegen)
			}
			if tc.wantRetry {
				if v.Strategy.DelayMs != tc.wantDelay || v.Strategy.BackoffMultiplier != tc.wantMult || v.Strategy.MaxAttempts != tc.wantMax {
					t.Fatalf("strategy mismatch: %+v", v.Strategy)
				}
			}
		})
	}
}

func TestClassifyRevertCaseInsensitive(t *testing.T) {
	v := ClassifyRevert("", "NONCE TOO LOW")
	if v.Kind != NonceError {
		t.Fatalf("expected case-insensitive match to NonceError, got %v", v.Kind)
	}
}

func TestVerdictImplementsError(t *testing.T) {
	v := ClassifyRevert("ChainworkTooLow", "not enough work")
	var err error = &v
	if err.Error() != "not enough work" {
		t.Fatalf("unexpected error string: %q", err.Error())
	}
}
