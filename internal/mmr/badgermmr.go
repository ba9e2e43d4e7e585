package mmr

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/riftlabs/fork-watchtower/internal/mmrtypes"
)

// BadgerMMR is an on-disk reference implementation of IndexedMMR and
// CheckpointedMMR, backed by leafDB. Like MemMMR it exists for tests and
// local examples, not as a production indexer — the real BDE/CDE own
// their own durable storage.
//
// Leaves are keyed by index under the "i/" namespace and by hash under
// the "h/" namespace (storing only the index, to avoid keeping two copies
// of the encoded leaf). The leaf count and MMR root live under "m/" as
// small fixed-size values. A mutex serializes writers and keeps the
// in-memory leaf count cache consistent with storage; LeafCount reads that
// cache under the mutex, while leaf and root lookups take no lock beyond
// what leafDB itself provides.
type BadgerMMR struct {
	mu    sync.Mutex
	db    leafDB
	count uint64
}

const (
	keyPrefixIndex = "i/"
	keyPrefixHash  = "h/"
	metaKeyCount   = "m/count"
	metaKeyRoot    = "m/root"
)

// NewBadgerMMR opens (or creates) an on-disk MMR at path.
func NewBadgerMMR(path string) (*BadgerMMR, error) {
	db, err := openBadgerLeafDB(path)
	if err != nil {
		return nil, fmt.Errorf("badgermmr: open %s: %w", path, err)
	}
	return newBadgerMMR(db)
}

func newBadgerMMR(db leafDB) (*BadgerMMR, error) {
	m := &BadgerMMR{db: db}

	has, err := m.db.has([]byte(metaKeyCount))
	if err != nil {
		return nil, fmt.Errorf("badgermmr: read count: %w", err)
	}
	if has {
		raw, err := m.db.get([]byte(metaKeyCount))
		if err != nil {
			return nil, fmt.Errorf("badgermmr: read count: %w", err)
		}
		if len(raw) != 8 {
			return nil, fmt.Errorf("badgermmr: corrupt count record (%d bytes)", len(raw))
		}
		m.count = binary.BigEndian.Uint64(raw)
	}
	return m, nil
}

func indexKey(i uint64) []byte {
	key := make([]byte, len(keyPrefixIndex)+8)
	copy(key, keyPrefixIndex)
	binary.BigEndian.PutUint64(key[len(keyPrefixIndex):], i)
	return key
}

func hashKey(h mmrtypes.Hash32) []byte {
	key := make([]byte, 0, len(keyPrefixHash)+len(h))
	key = append(key, keyPrefixHash...)
	key = append(key, h.Bytes()...)
	return key
}

// Append adds a new leaf to the end of the MMR, persisting it durably
// before returning.
func (m *BadgerMMR) Append(leaf mmrtypes.Leaf) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.count
	if err := m.db.put(indexKey(idx), leaf.Encode()); err != nil {
		return fmt.Errorf("badgermmr: append leaf %d: %w", idx, err)
	}

	var idxBuf [8]byte
	binary.BigEndian.PutUint64(idxBuf[:], idx)
	if err := m.db.put(hashKey(leaf.Hash()), idxBuf[:]); err != nil {
		return fmt.Errorf("badgermmr: index leaf %d by hash: %w", idx, err)
	}

	next := idx + 1
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], next)
	if err := m.db.put([]byte(metaKeyCount), countBuf[:]); err != nil {
		return fmt.Errorf("badgermmr: persist count: %w", err)
	}
	m.count = next
	return nil
}

// SetRoot sets the value MMRRoot will return (CDE role only).
func (m *BadgerMMR) SetRoot(root mmrtypes.Hash32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.db.put([]byte(metaKeyRoot), root.Bytes()); err != nil {
		return fmt.Errorf("badgermmr: set root: %w", err)
	}
	return nil
}

// LeafCount implements IndexedMMR.
func (m *BadgerMMR) LeafCount(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count, nil
}

// LeafByIndex implements IndexedMMR.
func (m *BadgerMMR) LeafByIndex(ctx context.Context, i uint64) (mmrtypes.Leaf, error) {
	has, err := m.db.has(indexKey(i))
	if err != nil {
		return mmrtypes.Leaf{}, fmt.Errorf("badgermmr: leaf %d: %w", i, err)
	}
	if !has {
		return mmrtypes.Leaf{}, ErrLeafNotFound
	}
	raw, err := m.db.get(indexKey(i))
	if err != nil {
		return mmrtypes.Leaf{}, fmt.Errorf("badgermmr: leaf %d: %w", i, err)
	}
	return mmrtypes.DecodeLeaf(raw)
}

// LeafByHash implements IndexedMMR.
func (m *BadgerMMR) LeafByHash(ctx context.Context, h mmrtypes.Hash32) (mmrtypes.Leaf, error) {
	key := hashKey(h)
	has, err := m.db.has(key)
	if err != nil {
		return mmrtypes.Leaf{}, fmt.Errorf("badgermmr: leaf by hash %s: %w", h, err)
	}
	if !has {
		return mmrtypes.Leaf{}, ErrLeafNotFound
	}
	idxRaw, err := m.db.get(key)
	if err != nil {
		return mmrtypes.Leaf{}, fmt.Errorf("badgermmr: leaf by hash %s: %w", h, err)
	}
	return m.LeafByIndex(ctx, binary.BigEndian.Uint64(idxRaw))
}

// MMRRoot implements CheckpointedMMR.
func (m *BadgerMMR) MMRRoot(ctx context.Context) (mmrtypes.Hash32, error) {
	has, err := m.db.has([]byte(metaKeyRoot))
	if err != nil {
		return mmrtypes.Hash32{}, fmt.Errorf("badgermmr: root: %w", err)
	}
	if !has {
		return mmrtypes.Hash32{}, nil
	}
	raw, err := m.db.get([]byte(metaKeyRoot))
	if err != nil {
		return mmrtypes.Hash32{}, fmt.Errorf("badgermmr: root: %w", err)
	}
	root, ok := mmrtypes.Hash32FromBytes(raw)
	if !ok {
		return mmrtypes.Hash32{}, fmt.Errorf("badgermmr: corrupt root record (%d bytes)", len(raw))
	}
	return root, nil
}

// Close releases the underlying leaf store handle.
func (m *BadgerMMR) Close() error {
	return m.db.close()
}

var (
	_ IndexedMMR      = (*BadgerMMR)(nil)
	_ CheckpointedMMR = (*BadgerMMR)(nil)
)
