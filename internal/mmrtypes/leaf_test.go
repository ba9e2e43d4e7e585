package mmrtypes

import (
	"testing"

	"github.com/holiman/uint256"
)

func TestLeafEqual(t *testing.T) {
	a := Leaf{BlockHash: Hash32{1}, Height: 10, CumulativeWork: *uint256.NewInt(100)}
	b := Leaf{BlockHash: Hash32{1}, Height: 10, CumulativeWork: *uint256.NewInt(100)}
	if !a.Equal(b) {
		t.Fatalf("expected equal leaves to compare equal")
	}

	c := Leaf{BlockHash: Hash32{2}, Height: 10, CumulativeWork: *uint256.NewInt(100)}
	if a.Equal(c) {
		t.Fatalf("expected different block hashes to produce different leaf hashes")
	}

	d := Leaf{BlockHash: Hash32{1}, Height: 11, CumulativeWork: *uint256.NewInt(100)}
	if a.Equal(d) {
		t.Fatalf("expected different heights to produce different leaf hashes")
	}
}

func TestKeccak256HasherDeterministic(t *testing.T) {
	h1 := Keccak256Hasher([]byte("abc"))
	h2 := Keccak256Hasher([]byte("abc"))
	if h1 != h2 {
		t.Fatalf("hasher is not deterministic")
	}

	h3 := Keccak256Hasher([]byte("abd"))
	if h1 == h3 {
		t.Fatalf("expected different inputs to hash differently")
	}
}
