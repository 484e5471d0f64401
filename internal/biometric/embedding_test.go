package biometric

import (
	"encoding/binary"
	"testing"
)

func TestEmbeddingEncodeDecode(t *testing.T) {
	e := make(Embedding, EmbeddingDim)
	for i := range e {
		e[i] = float64(i) * 0.017
	}

	blob := e.Encode()
	if len(blob) != 4+8*EmbeddingDim {
		t.Fatalf("unexpected blob size %d", len(blob))
	}
	if n := binary.LittleEndian.Uint32(blob); n != EmbeddingDim {
		t.Fatalf("expected length prefix %d, got %d", EmbeddingDim, n)
	}

	decoded, err := DecodeEmbedding(blob)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(decoded) != len(e) {
		t.Fatalf("expected %d values, got %d", len(e), len(decoded))
	}
	for i := range e {
		if decoded[i] != e[i] {
			t.Fatalf("value %d mismatch: %v != %v", i, decoded[i], e[i])
		}
	}
}

func TestDecodeEmbedding_TooShort(t *testing.T) {
	if _, err := DecodeEmbedding([]byte{1, 2}); err == nil {
		t.Error("expected error for truncated blob")
	}
}

func TestDecodeEmbedding_LengthMismatch(t *testing.T) {
	blob := make([]byte, 4+8*3)
	binary.LittleEndian.PutUint32(blob, 5) // prefix claims 5 values, body has 3

	if _, err := DecodeEmbedding(blob); err == nil {
		t.Error("expected error for length mismatch")
	}
}
