package fec

import "errors"

// Sentinel errors returned by the codec. Callers should use [errors.Is] to
// match against these values.
var (
	// ErrInvalidRedundancy is returned when the redundancy percent is outside
	// the valid 1-100 range. Zero never reaches the codec: the envelope layer
	// treats it as "FEC disabled".
	ErrInvalidRedundancy = errors.New("fec: redundancy percent must be between 1 and 100")

	// ErrEmptyPayload is returned when there is nothing to encode. The
	// erasure code needs at least one byte to derive a block geometry.
	ErrEmptyPayload = errors.New("fec: empty payload")

	// ErrPayloadTooLarge is returned before any allocation when the claimed
	// original size exceeds the codec's decode limit. This is the guard
	// against decompression-bomb style inputs.
	ErrPayloadTooLarge = errors.New("fec: original size exceeds decode limit")

	// ErrDecodingFailed is returned when reconstruction is impossible: more
	// blocks are damaged than the parity budget can repair, or the repaired
	// blocks fail verification. It is never a silent wrong-data result.
	ErrDecodingFailed = errors.New("fec: decoding failed, corruption exceeds redundancy budget")
)
