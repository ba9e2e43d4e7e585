package mmr

import (
	"context"
	"sync"

	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
)

// MemMMR is an in-process reference implementation of IndexedMMR and
// CheckpointedMMR, used by tests and local examples. It is not a
// production indexer: the real BDE/CDE own durable storage and their own
// write paths. MemMMR's write methods (Append, SetRoot) exist purely so
// tests can script indexer state.
//
// Reads take the guard for only as long as it takes to copy out leaves,
// matching the read-then-release discipline the fork watchtower core
// requires of its MMR handles.
type MemMMR struct {
	mu     sync.RWMutex
	leaves []mmrtypes.Leaf
	byHash map[mmrtypes.Hash32]int
	root   mmrtypes.Hash32
}

// NewMemMMR creates an empty in-process MMR.
func NewMemMMR() *MemMMR {
	return &MemMMR{byHash: make(map[mmrtypes.Hash32]int)}
}

// Append adds a new leaf to the end of the MMR.
func (m *MemMMR) Append(leaf mmrtypes.Leaf) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byHash[leaf.Hash()] = len(m.leaves)
	m.leaves = append(m.leaves, leaf)
}

// SetRoot sets the value MMRRoot will return (CDE role only).
func (m *MemMMR) SetRoot(root mmrtypes.Hash32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = root
}

// LeafCount implements IndexedMMR.
func (m *MemMMR) LeafCount(ctx context.Context) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.leaves)), nil
}

// LeafByIndex implements IndexedMMR.
func (m *MemMMR) LeafByIndex(ctx context.Context, i uint64) (mmrtypes.Leaf, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i >= uint64(len(m.leaves)) {
		return mmrtypes.Leaf{}, ErrLeafNotFound
	}
	return m.leaves[i], nil
}

// LeafByHash implements IndexedMMR.
func (m *MemMMR) LeafByHash(ctx context.Context, h mmrtypes.Hash32) (mmrtypes.Leaf, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.byHash[h]
	if !ok {
		return mmrtypes.Leaf{}, ErrLeafNotFound
	}
	return m.leaves[idx], nil
}

// MMRRoot implements CheckpointedMMR.
func (m *MemMMR) MMRRoot(ctx context.Context) (mmrtypes.Hash32, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root, nil
}

var (
	_ IndexedMMR      = (*MemMMR)(nil)
	_ CheckpointedMMR = (*MemMMR)(nil)
)
