package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashCanonical computes a content-addressed identifier for v.
// Format: hex(SHA256(domain + 0x00 + canonicalJSON(v)))
//
// The null byte separator prevents domain/data boundary ambiguity. The
// domain should carry a version suffix (e.g. "tripir/ir/v1") so the
// algorithm can migrate without colliding with old IDs.
func HashCanonical(domain string, v any) (string, error) {
	data, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}

	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
