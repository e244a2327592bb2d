package store

import "errors"

// Sentinel errors returned by vault store methods. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrFileNotFound is returned when the vault file at the given path
	// does not exist.
	ErrFileNotFound = errors.New("vault file not found")

	// ErrFileTooLarge is returned when a vault file exceeds the store's
	// size bound. The bound exists so a corrupted or hostile file cannot
	// drive memory use during load.
	ErrFileTooLarge = errors.New("vault file too large")

	// ErrReadFailed is returned (wrapped) when reading a vault file fails
	// for any reason other than absence.
	ErrReadFailed = errors.New("vault file read failed")

	// ErrWriteFailed is returned (wrapped) when any phase of the atomic
	// write fails. The destination file is left untouched: either the old
	// content survives in full or the new content replaced it in full.
	ErrWriteFailed = errors.New("vault file write failed")

	// ErrPathNotWritable is returned when the target directory does not
	// exist, is not a directory, or refuses a write probe.
	ErrPathNotWritable = errors.New("vault path not writable")
)
