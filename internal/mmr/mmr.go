// Package mmr defines the read contracts the fork watchtower consumes from
// the two external Merkle mountain range indexers — the Bitcoin Data Engine
// (BDE), mirroring the local Bitcoin node's canonical chain, and the
// Contract Data Engine (CDE), mirroring the on-chain light client's
// commitment. It also ships memmr and badgermmr, in-process and on-disk
// reference implementations used only by tests and local examples; neither
// is a production indexer.
package mmr

import (
	"context"
	"errors"

	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
)

// ErrLeafNotFound is returned by LeafByIndex/LeafByHash when no leaf exists
// at the requested position.
var ErrLeafNotFound = errors.New("mmr: leaf not found")

// IndexedMMR is the read contract the Bitcoin Data Engine exposes: an
// append-only MMR over Leaf, indexed by leaf-index and by leaf-hash.
type IndexedMMR interface {
	// LeafCount returns the number of leaves committed so far.
	LeafCount(ctx context.Context) (uint64, error)
	// LeafByIndex returns the leaf at i. i must be < LeafCount.
	LeafByIndex(ctx context.Context, i uint64) (mmrtypes.Leaf, error)
	// LeafByHash looks up a leaf by its derived hash. Returns
	// ErrLeafNotFound if absent.
	LeafByHash(ctx context.Context, h mmrtypes.Hash32) (mmrtypes.Leaf, error)
}

// CheckpointedMMR is the read contract the Contract Data Engine exposes: an
// IndexedMMR that additionally tracks the on-chain light client's current
// MMR root.
type CheckpointedMMR interface {
	IndexedMMR
	// MMRRoot returns the current on-chain MMR root.
	MMRRoot(ctx context.Context) (mmrtypes.Hash32, error)
}
