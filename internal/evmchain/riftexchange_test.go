package evmchain

import (
	"math/big"
	"testing"
)

func sampleParams() BlockProofParams {
	return BlockProofParams{
		PriorMmrRoot: [32]byte{1},
		NewMmrRoot:   [32]byte{2},
		TipBlockLeaf: CompressedLeaf{
			BlockHash:      [32]byte{3},
			Height:         100,
			CumulativeWork: big.NewInt(12345),
		},
		CompressedBlockLeaves: []CompressedLeaf{
			{BlockHash: [32]byte{4}, Height: 99, CumulativeWork: big.NewInt(12000)},
		},
	}
}

func TestPackUpdateLightClient(t *testing.T) {
	rx, err := NewRiftExchange()
	if err != nil {
		t.Fatalf("NewRiftExchange: %v", err)
	}

	data, err := rx.PackUpdateLightClient(sampleParams(), []byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if len(data) < 4 {
		t.Fatalf("expected packed calldata with at least a 4-byte selector, got %d bytes", len(data))
	}

	method, ok := rx.abi.Methods["updateLightClient"]
	if !ok {
		t.Fatalf("updateLightClient method missing from parsed abi")
	}
	if string(data[:4]) != string(method.ID) {
		t.Fatalf("packed calldata selector does not match method ID")
	}
}

func TestUnpackRevertTypedErrors(t *testing.T) {
	rx, err := NewRiftExchange()
	if err != nil {
		t.Fatalf("NewRiftExchange: %v", err)
	}

	tests := []struct {
		name string
		args []interface{}
	}{
		{"InvalidBlockInclusionProof", nil},
		{"InvalidSwapBlockInclusionProof", nil},
		{"ChainworkTooLow", []interface{}{big.NewInt(100), big.NewInt(200)}},
		{"NotEnoughConfirmationBlocks", []interface{}{uint32(1), uint32(6)}},
		{"NotEnoughConfirmations", []interface{}{uint32(1), uint32(6)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			abiErr, ok := rx.abi.Errors[tc.name]
			if !ok {
				t.Fatalf("error %s missing from parsed abi", tc.name)
			}
			payload, err := abiErr.Pack(tc.args...)
			if err != nil {
				t.Fatalf("pack revert payload: %v", err)
			}

			gotName, _, err := rx.UnpackRevert(payload)
			if err != nil {
				t.Fatalf("UnpackRevert: %v", err)
			}
			if gotName != tc.name {
				t.Fatalf("expected %s, got %s", tc.name, gotName)
			}
		})
	}
}

func TestUnpackRevertUnknownSelector(t *testing.T) {
	rx, err := NewRiftExchange()
	if err != nil {
		t.Fatalf("NewRiftExchange: %v", err)
	}
	if _, _, err := rx.UnpackRevert([]byte{0x01, 0x02, 0x03, 0x04}); err != ErrUnknownRevertSelector {
		t.Fatalf("expected ErrUnknownRevertSelector, got %v", err)
	}
}

func TestUnpackRevertTooShort(t *testing.T) {
	rx, err := NewRiftExchange()
	if err != nil {
		t.Fatalf("NewRiftExchange: %v", err)
	}
	if _, _, err := rx.UnpackRevert([]byte{0x01, 0x02}); err != ErrRevertPayloadTooShort {
		t.Fatalf("expected ErrRevertPayloadTooShort, got %v", err)
	}
}
