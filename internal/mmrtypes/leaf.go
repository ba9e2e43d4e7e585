package mmrtypes

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// EncodedLeafLen is the byte length of a leaf's canonical encoding, as
// produced by Encode and consumed by DecodeLeaf.
const EncodedLeafLen = 32 + 4 + 32

// Leaf is the canonical representation of a block within an MMR: its hash,
// height, and cumulative chainwork up to and including this block.
type Leaf struct {
	BlockHash      Hash32
	Height         uint32
	CumulativeWork uint256.Int
}

// Equal reports whether two leaves have the same hash under Keccak256Hasher.
// Per spec, two leaves are equal iff their derived hashes are equal.
func (l Leaf) Equal(other Leaf) bool {
	return l.Hash() == other.Hash()
}

// encode produces the byte representation hashed to derive the leaf's
// identity: block_hash(32) || height(4, BE) || cumulative_work(32, BE).
func (l Leaf) encode() []byte {
	buf := make([]byte, 32+4+32)
	copy(buf[0:32], l.BlockHash[:])
	binary.BigEndian.PutUint32(buf[32:36], l.Height)
	work := l.CumulativeWork.Bytes32()
	copy(buf[36:68], work[:])
	return buf
}

// Hash returns the Keccak-256 hash of the leaf's canonical encoding.
func (l Leaf) Hash() Hash32 {
	return Keccak256Hasher(l.encode())
}

// Encode is the exported form of the leaf's canonical byte representation,
// used by on-disk MMR reference implementations to persist leaves. It is
// the same layout Hash derives identity from.
func (l Leaf) Encode() []byte {
	return l.encode()
}

// DecodeLeaf parses a leaf from its canonical byte representation, as
// produced by Encode. It returns an error if buf is not exactly
// EncodedLeafLen bytes long.
func DecodeLeaf(buf []byte) (Leaf, error) {
	if len(buf) != EncodedLeafLen {
		return Leaf{}, fmt.Errorf("mmrtypes: decode leaf: expected %d bytes, got %d", EncodedLeafLen, len(buf))
	}
	var l Leaf
	copy(l.BlockHash[:], buf[0:32])
	l.Height = binary.BigEndian.Uint32(buf[32:36])
	l.CumulativeWork.SetBytes(buf[36:68])
	return l, nil
}

// Keccak256Hasher hashes data with Keccak-256, the hasher named by the MMR
// leaf-hashing contract. go-ethereum's crypto.Keccak256 wraps the exact same
// golang.org/x/crypto/sha3 primitive; it is reimplemented here directly so
// this package has no dependency on go-ethereum's crypto package for a
// single hash call.
func Keccak256Hasher(data ...[]byte) Hash32 {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Hash32
	h.Sum(out[:0])
	return out
}
