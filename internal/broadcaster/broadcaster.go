// Package broadcaster sends the updateLightClient transaction with an
// eth_call preflight simulation ahead of eth_sendRawTransaction, so a
// revert is observed (and classified) before a transaction ever lands on
// chain and burns gas.
package broadcaster

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Outcome categorizes what happened when broadcasting a transaction.
type Outcome int

const (
	// Success means the preflight simulation passed and the transaction
	// was submitted.
	Success Outcome = iota
	// Revert means the preflight eth_call reverted; RevertData carries the
	// raw revert payload for the classifier.
	Revert
	// InvalidRequest means the transaction itself was malformed (bad
	// calldata, signing failure) — terminal, never retried.
	InvalidRequest
	// UnknownError means an error occurred that was neither a clean
	// success nor a decodable revert (e.g. a transport error) — treated
	// as NetworkError by the submission loop.
	UnknownError
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Revert:
		return "revert"
	case InvalidRequest:
		return "invalid_request"
	case UnknownError:
		return "unknown_error"
	default:
		return "unknown"
	}
}

// Result is what Broadcast returns.
type Result struct {
	Outcome    Outcome
	TxHash     common.Hash
	RevertData []byte
	Err        error
}

// Request is the transaction the caller wants broadcast: a call to
// contract `To` with `Calldata`, signed and sent by the configured
// sender.
type Request struct {
	To       common.Address
	Calldata []byte
}

// Broadcaster sends a transaction, simulating it first. Simulate is always
// applied — the core never skips the preflight check.
type Broadcaster interface {
	Broadcast(ctx context.Context, req Request) (*Result, error)
}

// EthBroadcaster is a go-ethereum-backed Broadcaster: it simulates with
// CallContract before sending with SendTransaction.
type EthBroadcaster struct {
	client TransactionSender
	signer TxSigner
	from   common.Address
}

// TransactionSender is the subset of *ethclient.Client this package needs,
// narrowed so tests can substitute a fake.
type TransactionSender interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// TxSigner signs a transaction request into a submittable transaction.
// It is the EVMProvider's wallet responsibility, passed through to this
// package rather than implemented by it.
type TxSigner interface {
	SignTx(req Request, nonce uint64) (*types.Transaction, error)
}

// NewEthBroadcaster builds an EthBroadcaster sending from `from`.
func NewEthBroadcaster(client TransactionSender, signer TxSigner, from common.Address) *EthBroadcaster {
	return &EthBroadcaster{client: client, signer: signer, from: from}
}

// Broadcast simulates req with eth_call; a revert there is returned as
// Outcome Revert with the raw revert payload, before any transaction is
// ever signed or sent. Only once the simulation succeeds does Broadcast
// sign and submit the real transaction.
func (b *EthBroadcaster) Broadcast(ctx context.Context, req Request) (*Result, error) {
	callMsg := ethereum.CallMsg{
		From: b.from,
		To:   &req.To,
		Data: req.Calldata,
	}

	if _, err := b.client.CallContract(ctx, callMsg, nil); err != nil {
		if revertData, ok := extractRevertData(err); ok {
			return &Result{Outcome: Revert, RevertData: revertData, Err: err}, nil
		}
		return &Result{Outcome: UnknownError, Err: err}, nil
	}

	nonce, err := b.client.PendingNonceAt(ctx, b.from)
	if err != nil {
		return &Result{Outcome: UnknownError, Err: fmt.Errorf("broadcaster: fetch nonce: %w", err)}, nil
	}

	tx, err := b.signer.SignTx(req, nonce)
	if err != nil {
		return &Result{Outcome: InvalidRequest, Err: fmt.Errorf("broadcaster: sign tx: %w", err)}, nil
	}

	if err := b.client.SendTransaction(ctx, tx); err != nil {
		if revertData, ok := extractRevertData(err); ok {
			return &Result{Outcome: Revert, RevertData: revertData, Err: err}, nil
		}
		return &Result{Outcome: UnknownError, Err: err}, nil
	}

	return &Result{Outcome: Success, TxHash: tx.Hash()}, nil
}

// revertDataProvider matches go-ethereum's rpc.DataError, returned by
// ethclient when a JSON-RPC call reverts with ABI-encoded error data.
type revertDataProvider interface {
	ErrorData() interface{}
}

// extractRevertData pulls raw revert bytes out of err, if err carries ABI
// revert data the way go-ethereum's JSON-RPC transport surfaces it.
func extractRevertData(err error) ([]byte, bool) {
	var dataErr revertDataProvider
	if !errors.As(err, &dataErr) {
		return nil, false
	}
	switch data := dataErr.ErrorData().(type) {
	case []byte:
		return data, true
	case string:
		return []byte(data), true
	default:
		return nil, false
	}
}
