// Package utils provides small helpers shared across the engine:
// content fingerprinting for logs and inspection output, and vault
// identifier generation.
package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// fingerprintPool holds reusable SHA-256 instances so that repeated
// fingerprinting of vault files does not allocate a fresh hasher each time.
var fingerprintPool = sync.Pool{
	New: func() any {
		return sha256.New()
	},
}

// Fingerprint computes a SHA-256 digest over the given byte slice
// using a hasher pulled from the package-level pool.
//
// The digest identifies file content for logging and inspection. It is
// not a secret and carries no key; keyed hashing of usernames lives
// with the key-slot code that owns the per-slot salts.
//
// Behavior:
//   - Retrieves a hash.Hash instance from sync.Pool
//   - Resets it, writes the data, computes the sum
//   - Resets again and returns it to the pool
//
// Parameters:
//
//	data - arbitrary byte slice to be fingerprinted
//
// Returns:
//
//	[]byte - SHA-256 digest
//
// Example usage:
//
//	digest := utils.Fingerprint(raw)
func Fingerprint(data []byte) []byte {
	h := fingerprintPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	fingerprintPool.Put(h)

	return sum
}

// FingerprintString computes a SHA-256 digest over the given byte slice
// and returns it hex-encoded, ready for log fields and inspection output.
//
// Example usage:
//
//	logger.Debug("vault written", "sha256", utils.FingerprintString(raw))
func FingerprintString(data []byte) string {
	return hex.EncodeToString(Fingerprint(data))
}
