package image

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// ResolveSeed decides the seed forwarded to a seed-capable backend. An
// explicit seed wins; randomize leaves the choice to the backend; otherwise
// the seed is derived from the request identity so retries reproduce the
// same image. Adapters for backends without seed support never call this.
func ResolveSeed(req GenerateRequest) *int64 {
	if req.RandomizeSeed {
		return nil
	}
	if req.Seed != nil {
		return req.Seed
	}
	if strings.TrimSpace(req.RequestID) == "" {
		return nil
	}
	seed := deterministicSeed(req.RequestID, req.UserID, req.Prompt)
	return &seed
}

func deterministicSeed(values ...string) int64 {
	sum := sha256.Sum256([]byte(strings.Join(values, "|")))
	n := binary.BigEndian.Uint32(sum[:4])
	value := int64(n % 2147483647)
	if value <= 0 {
		fallback := binary.BigEndian.Uint32(sum[4:8]) % 2147483647
		if fallback == 0 {
			fallback = 1
		}
		value = int64(fallback)
	}
	return value
}
