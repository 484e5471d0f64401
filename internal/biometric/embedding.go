package biometric

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EmbeddingDim is the fixed dimension of a face embedding (dlib 128-d encoding).
const EmbeddingDim = 128

// Embedding is a fixed-dimension numeric vector summarizing a detected face.
type Embedding []float64

// Encode serializes the embedding into a portable binary layout:
// a uint32 little-endian length prefix followed by little-endian
// IEEE-754 float64 values.
func (e Embedding) Encode() []byte {
	buf := make([]byte, 4+8*len(e))
	binary.LittleEndian.PutUint32(buf, uint32(len(e)))
	for i, v := range e {
		binary.LittleEndian.PutUint64(buf[4+8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeEmbedding parses the binary layout produced by Encode.
func DecodeEmbedding(data []byte) (Embedding, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("embedding blob too short: %d bytes", len(data))
	}
	n := int(binary.LittleEndian.Uint32(data))
	if len(data) != 4+8*n {
		return nil, fmt.Errorf("embedding blob length mismatch: prefix says %d values, got %d bytes", n, len(data))
	}
	e := make(Embedding, n)
	for i := range e {
		e[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[4+8*i:]))
	}
	return e, nil
}

// Distance computes the Euclidean distance between two embeddings.
// Mismatched or empty vectors yield +Inf so they can never match.
func Distance(a, b Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
