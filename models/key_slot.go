// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package models

import "time"

// SlotRole describes the privilege level a key slot grants. The role is
// advisory metadata for the calling application; the engine itself only
// distinguishes admin slots when refusing to tombstone the last one.
type SlotRole int32

const (
	// RoleUser is a regular vault member: may read and write the payload.
	RoleUser SlotRole = 1

	// RoleAdmin may additionally add and deactivate key slots.
	RoleAdmin SlotRole = 2
)

// KDFKind selects the password-hardening function recorded in a key slot.
type KDFKind int32

const (
	// KDFArgon2id is the default hardening function for new slots.
	KDFArgon2id KDFKind = 1

	// KDFPBKDF2 (HMAC-SHA-256) is kept for files created by older releases
	// and for deployments that mandate it.
	KDFPBKDF2 KDFKind = 2
)

// KDFParams records the per-slot cost parameters of the hardening function,
// so every user's slot can carry an independent cost.
type KDFParams struct {
	// Kind selects the hardening function the remaining fields apply to.
	Kind KDFKind

	// Time is the Argon2id time cost (passes). Unused for PBKDF2.
	Time uint32

	// MemoryKiB is the Argon2id memory cost in KiB. Unused for PBKDF2.
	MemoryKiB uint32

	// Threads is the Argon2id parallelism. Unused for PBKDF2.
	Threads uint8

	// Iterations is the PBKDF2 iteration count. Unused for Argon2id.
	Iterations uint32
}

// PasswordHistoryEntry is one retired password verifier. The verifier is a
// one-way auth hash of the KEK the password derived to, never the password
// itself, so history entries cannot be reversed into credentials.
type PasswordHistoryEntry struct {
	// ChangedAt is when the password stopped being current.
	ChangedAt time.Time

	// Verifier is SHA-256 over the retired KEK plus a domain-separation
	// label. Compared on password change to refuse reuse.
	Verifier []byte
}

// KeySlot lets one user's credentials independently unwrap the vault's shared
// data-encryption key. Slots are append-only for the lifetime of a vault:
// removing a user tombstones the slot (Active=false, sensitive fields zeroed)
// so that surviving slot indices stay stable in the header.
//
// WrappedDEK is an AES-256-GCM blob (nonce ‖ ciphertext ‖ tag) around the
// 32-byte DEK. The authenticated construction is what lets unwrap distinguish
// a wrong password from a corrupted slot.
type KeySlot struct {
	// Active is false for tombstoned slots. Inactive slots keep their index
	// but can never unwrap again and are never repurposed for another user.
	Active bool

	// Username is the cleartext username. Populated only in memory while the
	// engine works with the slot; it is never serialized into the header.
	Username string

	// UsernameHash is a keyed hash of the username (HMAC-SHA-256 keyed by
	// Salt, truncated to UsernameHashSize). Used for slot lookup so the
	// header never stores raw usernames.
	UsernameHash []byte

	// UsernameHashSize is the stored hash length in bytes (1-32).
	UsernameHashSize uint8

	// WrappedDEK holds the slot's encrypted copy of the shared DEK.
	WrappedDEK []byte

	// Salt is the 32-byte per-slot KDF salt.
	Salt []byte

	// KDF records the hardening parameters used to derive this slot's KEK.
	KDF KDFParams

	// TokenEnrolled marks the slot's KEK as hybrid: the password-derived key
	// was XORed with a hardware-token response before wrapping.
	TokenEnrolled bool

	// PasswordHistory lists retired password verifiers, oldest first.
	PasswordHistory []PasswordHistoryEntry

	// CreatedAt is when the slot was added to the header.
	CreatedAt time.Time

	// Role is the privilege level this slot grants.
	Role SlotRole
}

// IsAdmin reports whether the slot grants administrative privileges.
func (s *KeySlot) IsAdmin() bool {
	return s.Role == RoleAdmin
}
