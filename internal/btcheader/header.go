// Package btcheader adapts the 80-byte Bitcoin block header to
// btcsuite/btcd's wire and chainhash types so the header-chain primitive in
// internal/header can reuse btcd's difficulty/PoW helpers instead of
// reimplementing big-integer target math.
package btcheader

import (
	"encoding/binary"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// RawHeader is the bit-exact 80-byte Bitcoin block header:
// version(4) || prev(32) || merkle(32) || time(4) || bits(4) || nonce(4).
// All integer fields are little-endian, matching Bitcoin's wire format.
type RawHeader [80]byte

// RawHeaderFromBytes copies b into a RawHeader. b must be exactly 80 bytes.
func RawHeaderFromBytes(b []byte) (RawHeader, bool) {
	var h RawHeader
	if len(b) != len(h) {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// Version returns the header's version field.
func (h RawHeader) Version() int32 {
	return int32(binary.LittleEndian.Uint32(h[0:4]))
}

// PrevBlock returns the 32-byte hash of the parent block, in the same
// internal byte order used by chainhash.Hash (not the reversed display
// order).
func (h RawHeader) PrevBlock() chainhash.Hash {
	var out chainhash.Hash
	copy(out[:], h[4:36])
	return out
}

// MerkleRoot returns the header's merkle root.
func (h RawHeader) MerkleRoot() chainhash.Hash {
	var out chainhash.Hash
	copy(out[:], h[36:68])
	return out
}

// Time returns the header's timestamp field as Unix seconds.
func (h RawHeader) Time() uint32 {
	return binary.LittleEndian.Uint32(h[68:72])
}

// Bits returns the header's compact difficulty target.
func (h RawHeader) Bits() uint32 {
	return binary.LittleEndian.Uint32(h[72:76])
}

// Nonce returns the header's nonce field.
func (h RawHeader) Nonce() uint32 {
	return binary.LittleEndian.Uint32(h[76:80])
}

// ToWire converts the raw header into btcd's wire.BlockHeader, which exposes
// BlockHash() (double-SHA256) and is the type btcd's blockchain/difficulty
// helpers understand.
func (h RawHeader) ToWire() *wire.BlockHeader {
	return &wire.BlockHeader{
		Version:    h.Version(),
		PrevBlock:  h.PrevBlock(),
		MerkleRoot: h.MerkleRoot(),
		Timestamp:  time.Unix(int64(h.Time()), 0),
		Bits:       h.Bits(),
		Nonce:      h.Nonce(),
	}
}

// BlockHash returns the header's block hash (double-SHA256 of the 80-byte
// serialization), in chainhash's internal byte order.
func (h RawHeader) BlockHash() chainhash.Hash {
	return h.ToWire().BlockHash()
}
