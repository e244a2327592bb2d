package crypto

import "errors"

// Sentinel errors returned by key-material operations. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrCryptoFailure is returned when key generation, derivation or
	// wrapping fails for an internal reason (bad key sizes, RNG failure).
	ErrCryptoFailure = errors.New("crypto: key operation failed")

	// ErrAuthenticationFailed is returned when an AEAD open rejects its
	// tag. For DEK unwrapping this almost always means a wrong password.
	ErrAuthenticationFailed = errors.New("crypto: authentication failed")

	// ErrUnknownKDF is returned when a key slot records a hardening
	// function this build does not implement.
	ErrUnknownKDF = errors.New("crypto: unknown key-derivation function")
)
