// Package classify maps an on-chain revert — typed-decoded or plain text —
// to an ErrorKind and the RetryStrategy the submission loop should follow.
// Typed decoding is tried first; a substring match against the lower-cased
// revert message is the fallback for reverts the ABI doesn't yet cover.
package classify

import "strings"

// ErrorKind categorizes a revert for the submission loop's retry logic.
type ErrorKind int

const (
	ProofVerificationFailure ErrorKind = iota
	SimulationFailure
	NonceError
	GasError
	SlippageError
	FrontrunningProtection
	InvariantViolation
	UnknownRevert
	NetworkError
	TransientError
)

func (k ErrorKind) String() string {
	switch k {
	case ProofVerificationFailure:
		return "proof_verification_failure"
	case SimulationFailure:
		return "simulation_failure"
	case NonceError:
		return "nonce_error"
	case GasError:
		return "gas_error"
	case SlippageError:
		return "slippage_error"
	case FrontrunningProtection:
		return "frontrunning_protection"
	case InvariantViolation:
		return "invariant_violation"
	case UnknownRevert:
		return "unknown_revert"
	case NetworkError:
		return "network_error"
	case TransientError:
		return "transient_error"
	default:
		return "unknown"
	}
}

// RetryStrategy is what the submission loop follows once a revert has
// been classified.
type RetryStrategy struct {
	ShouldRetry           bool
	ShouldRegenerateProof bool
	DelayMs               uint64
	BackoffMultiplier     float64
	MaxAttempts           uint32
	ErrorMessage          string
}

// Verdict bundles a classification with the strategy that follows from it.
// *Verdict implements error so callers that want to bubble a terminal
// classification up through a normal Go error chain can recover it with
// `var v *classify.Verdict; errors.As(err, &v)`.
type Verdict struct {
	Kind     ErrorKind
	Strategy RetryStrategy
}

// Error implements the error interface.
func (v *Verdict) Error() string {
	if v.Strategy.ErrorMessage != "" {
		return v.Strategy.ErrorMessage
	}
	return v.Kind.String()
}

// Known RiftExchange custom error names, matching internal/evmchain's ABI
// fragment. Kept as string constants rather than importing evmchain, to
// avoid a classify -> evmchain dependency for what is fundamentally a
// string-keyed lookup table.
const (
	errInvalidBlockInclusionProof     = "InvalidBlockInclusionProof"
	errInvalidSwapBlockInclusionProof = "InvalidSwapBlockInclusionProof"
	errChainworkTooLow                = "ChainworkTooLow"
	errNotEnoughConfirmationBlocks    = "NotEnoughConfirmationBlocks"
	errNotEnoughConfirmations         = "NotEnoughConfirmations"
)

// ClassifyRevert maps a revert to a Verdict. typedName is the decoded
// custom error name if the payload matched RiftExchange's ABI, or "" if it
// did not (or decoding wasn't attempted). message is the revert's textual
// reason, used as a fallback and always lower-cased before matching.
//
// Typed decoding takes strict priority over the substring fallback: a
// payload that both decodes and happens to contain a matched substring
// is classified by its typed name.
func ClassifyRevert(typedName string, message string) Verdict {
	if v, ok := classifyTyped(typedName, message); ok {
		return v
	}
	return classifyMessage(message)
}

func classifyTyped(typedName string, message string) (Verdict, bool) {
	switch typedName {
	case errInvalidBlockInclusionProof, errInvalidSwapBlockInclusionProof:
		return Verdict{
			Kind: ProofVerificationFailure,
			Strategy: RetryStrategy{
				ShouldRetry:           true,
				ShouldRegenerateProof: true,
				DelayMs:               1000,
				BackoffMultiplier:     1.5,
				MaxAttempts:           3,
				ErrorMessage:          message,
			},
		}, true
	case errChainworkTooLow, errNotEnoughConfirmationBlocks, errNotEnoughConfirmations:
		return Verdict{
			Kind: InvariantViolation,
			Strategy: RetryStrategy{
				ShouldRetry:  false,
				ErrorMessage: message,
			},
		}, true
	default:
		return Verdict{}, false
	}
}

func classifyMessage(message string) Verdict {
	lower := strings.ToLower(message)

	switch {
	case strings.Contains(lower, "invalid proof"),
		strings.Contains(lower, "verification failed"),
		strings.Contains(lower, "inclusion proof"):
		return Verdict{
			Kind: ProofVerificationFailure,
			Strategy: RetryStrategy{
				ShouldRetry:           true,
				ShouldRegenerateProof: true,
				DelayMs:               1000,
				BackoffMultiplier:     1.5,
				MaxAttempts:           3,
				ErrorMessage:          message,
			},
		}
	case strings.Contains(lower, "nonce"):
		return Verdict{
			Kind: NonceError,
			Strategy: RetryStrategy{
				ShouldRetry:       true,
				DelayMs:           500,
				BackoffMultiplier: 1.2,
				MaxAttempts:       5,
				ErrorMessage:      message,
			},
		}
	case strings.Contains(lower, "gas"):
		return Verdict{
			Kind: GasError,
			Strategy: RetryStrategy{
				ShouldRetry:       true,
				DelayMs:           1000,
				BackoffMultiplier: 1.5,
				MaxAttempts:       4,
				ErrorMessage:      message,
			},
		}
	case strings.Contains(lower, "slippage"):
		return Verdict{
			Kind: SlippageError,
			Strategy: RetryStrategy{
				ShouldRetry:           true,
				ShouldRegenerateProof: true,
				DelayMs:               2000,
				BackoffMultiplier:     2.0,
				MaxAttempts:           3,
				ErrorMessage:          message,
			},
		}
	case strings.Contains(lower, "invariant"), strings.Contains(lower, "assertion"):
		return Verdict{
			Kind: InvariantViolation,
			Strategy: RetryStrategy{
				ShouldRetry:  false,
				ErrorMessage: message,
			},
		}
	default:
		return Verdict{
			Kind: UnknownRevert,
			Strategy: RetryStrategy{
				ShouldRetry:       true,
				DelayMs:           2000,
				BackoffMultiplier: 2.0,
				MaxAttempts:       3,
				ErrorMessage:      message,
			},
		}
	}
}
