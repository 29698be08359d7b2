package storage

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SerializeEmbedding converts a float32 slice to bytes using
// little-endian encoding, four bytes per float (IEEE 754 bit pattern).
func SerializeEmbedding(emb []float32) []byte {
	out := make([]byte, len(emb)*4)
	for i, f := range emb {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// DeserializeEmbedding reverses SerializeEmbedding. An empty slice is
// valid; a length not divisible by 4 indicates corrupted data.
func DeserializeEmbedding(raw []byte) ([]float32, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("storage: invalid embedding data: length %d not divisible by 4", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, nil
}
