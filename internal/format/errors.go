package format

import "errors"

// Sentinel errors returned by envelope and container operations. Callers
// should use [errors.Is] to match against these values.
var (
	// ErrCorruptedFile is returned when an envelope is undersized or its
	// structure is malformed beyond what graceful degradation covers.
	ErrCorruptedFile = errors.New("format: corrupted vault file")

	// ErrUnsupportedVersion is returned when a container declares a format
	// version this build does not implement.
	ErrUnsupportedVersion = errors.New("format: unsupported container version")

	// ErrInvalidBuildInput is returned when a builder is handed fields that
	// cannot produce a well-formed envelope (wrong salt or IV size,
	// oversized serial, redundancy out of range).
	ErrInvalidBuildInput = errors.New("format: invalid envelope build input")
)
