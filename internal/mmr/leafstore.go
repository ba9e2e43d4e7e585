package mmr

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// errLeafKeyNotFound is returned by leafDB.get for a key with no stored
// value. BadgerMMR always guards a get with a has check first, so callers
// only see this on a storage-layer race, never as routine control flow.
var errLeafKeyNotFound = errors.New("mmr: leaf store key not found")

// leafDB is the narrow on-disk contract BadgerMMR needs from its backing
// store: get/put/has on an already-namespaced key, plus close. There is no
// range scan or bulk delete because BadgerMMR never needs one — it keeps
// its own leaf count in memory and looks up leaves one key at a time.
type leafDB interface {
	get(key []byte) ([]byte, error)
	put(key, value []byte) error
	has(key []byte) (bool, error)
	close() error
}

// memLeafDB is an in-process leafDB, used by tests.
type memLeafDB struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func newMemLeafDB() *memLeafDB {
	return &memLeafDB{data: make(map[string][]byte)}
}

func (m *memLeafDB) get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, errLeafKeyNotFound
	}
	return v, nil
}

func (m *memLeafDB) put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memLeafDB) has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *memLeafDB) close() error { return nil }

// badgerLeafDB is an on-disk leafDB backed by dgraph-io/badger — the
// engine BadgerMMR persists leaves with for the shipped CLI example. It is
// not a production indexer; the real BDE/CDE own their own durable
// storage entirely outside this repo.
type badgerLeafDB struct {
	db *badger.DB
}

func openBadgerLeafDB(path string) (*badgerLeafDB, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "Cannot acquire directory lock") ||
			strings.Contains(msg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("mmr: leaf store at %s is locked by another process (is another forkwatchtowerd instance running?): %w", path, err)
		}
		return nil, fmt.Errorf("mmr: open leaf store at %s: %w", path, err)
	}
	return &badgerLeafDB{db: db}, nil
}

func (b *badgerLeafDB) get(key []byte) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, errLeafKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mmr: leaf store get: %w", err)
	}
	return val, nil
}

func (b *badgerLeafDB) put(key, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		return fmt.Errorf("mmr: leaf store put: %w", err)
	}
	return nil
}

func (b *badgerLeafDB) has(key []byte) (bool, error) {
	var exists bool
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("mmr: leaf store has: %w", err)
	}
	return exists, nil
}

func (b *badgerLeafDB) close() error {
	return b.db.Close()
}
