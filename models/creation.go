// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package models

import "time"

// FormatVersion selects the on-disk container layout of a vault file.
type FormatVersion int32

const (
	// FormatV1 is the single-user envelope: the payload key is derived
	// directly from the password and the file-level salt.
	FormatV1 FormatVersion = 1

	// FormatV2 is the multi-user container: an FEC-protected header of key
	// slots wraps a shared DEK, LUKS-style.
	FormatV2 FormatVersion = 2
)

// Credentials are one user's authentication inputs for a single engine call.
// The engine never retains them past the call.
type Credentials struct {
	// Username identifies the key slot. 3-64 bytes.
	Username string

	// Password is the cleartext master password.
	Password string

	// TokenPIN unlocks the hardware token when the vault (or slot) requires
	// one. Empty otherwise.
	TokenPIN string
}

// CreationParams is the transient input of one vault-creation invocation.
type CreationParams struct {
	// Path is the destination vault file. Its directory must exist and be
	// writable; the file itself is replaced atomically.
	Path string

	// Admin is the first (administrator) key slot's credentials.
	Admin Credentials

	// Format selects the container layout. FormatV2 unless the caller needs
	// a legacy single-user file.
	Format FormatVersion

	// Policy is the security policy for the new vault, normally taken
	// verbatim from the settings service.
	Policy SecurityPolicy
}

// StepProgress is emitted after each completed pipeline step.
type StepProgress struct {
	// Step is the 1-based index of the completed step.
	Step uint8

	// Total is the pipeline length (always 8 for creation).
	Total uint8

	// Description is a short human-readable label for the completed step.
	Description string
}

// CreationResult is returned by a successful vault creation. The DEK inside
// is exclusively owned by the caller from that point on and must be securely
// erased once it is no longer needed.
type CreationResult struct {
	// Path is the final vault file location.
	Path string

	// Format is the layout that was written.
	Format FormatVersion

	// Header is the written V2 header. Nil for FormatV1.
	Header *VaultHeaderV2

	// DEK is the generated 32-byte data-encryption key.
	DEK []byte

	// DEKLocked reports whether the DEK pages could be locked in memory
	// during creation. A false value is informational, not an error.
	DEKLocked bool

	// CreatedAt is the creation timestamp recorded in the header.
	CreatedAt time.Time
}

// OpenResult is returned by a successful vault open. The DEK is caller-owned,
// exactly as in CreationResult.
type OpenResult struct {
	// Format is the layout the file was parsed as.
	Format FormatVersion

	// Header is the parsed V2 header. Nil for V1 files.
	Header *VaultHeaderV2

	// SlotIndex is the header index of the slot that authenticated the
	// caller. -1 for V1 files.
	SlotIndex int

	// Data is the decrypted, migrated record graph.
	Data *VaultData

	// Modified reports that schema migration changed the record and the
	// caller should persist it (every open of a current-version vault is an
	// access-tracking write).
	Modified bool

	// DEK is the unwrapped 32-byte data-encryption key.
	DEK []byte

	// Metadata is the envelope metadata of the file that was opened.
	Metadata VaultFileMetadata
}
