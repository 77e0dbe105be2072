// Package cache short-circuits the risk classifier for text it has already
// scored.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"fraudshield/internal/domain"
)

// Cache returns the stored verdict for fingerprint or computes and stores
// it. Implementations never fail: a broken backend degrades to compute.
type Cache interface {
	GetOrCompute(ctx context.Context, fingerprint string, compute func() domain.Verdict) domain.Verdict
}

// Fingerprint is the full SHA-256 of the exact message text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
