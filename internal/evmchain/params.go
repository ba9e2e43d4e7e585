// Package evmchain holds the on-chain call payload and the RiftExchange
// ABI binding the submission loop drives: packing updateLightClient
// calldata and decoding the contract's custom revert errors.
package evmchain

import "math/big"

// CompressedLeaf is the ABI-encodable form of mmrtypes.Leaf: a block hash,
// height, and cumulative chainwork, laid out the way the on-chain verifier
// expects a leaf tuple.
type CompressedLeaf struct {
	BlockHash      [32]byte
	Height         uint32
	CumulativeWork *big.Int
}

// BlockProofParams is the updateLightClient call payload: the MMR root
// before and after the transition, the new tip leaf, and the auxiliary
// compressed leaves needed for on-chain inclusion checks.
type BlockProofParams struct {
	PriorMmrRoot          [32]byte
	NewMmrRoot            [32]byte
	TipBlockLeaf          CompressedLeaf
	CompressedBlockLeaves []CompressedLeaf
}

// EVMProvider is an opaque handle to the EVM RPC/wallet stack this core
// consumes but does not implement. No component in this module takes one:
// the broadcaster is built over TransactionSender and TxSigner, and the
// chain-transition builder reads only the BDE and CDE.
type EVMProvider interface {
	// ChainID returns the EVM chain ID the provider is connected to.
	ChainID() *big.Int
}
