package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// Marshal serializes a face encoding as base64 over little-endian float32
// values. This is the storage format for encodings in Firestore and SQL.
func Marshal(vec []float32) string {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return base64.StdEncoding.EncodeToString(buf)
}

// Unmarshal decodes a base64 little-endian float32 encoding.
func Unmarshal(s string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("encoding length %d is not a multiple of 4", len(raw))
	}

	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec, nil
}
