// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package models

import "time"

// SecurityPolicy is the per-vault security configuration captured at creation
// time and enforced on every later mutation. Values originate from the
// settings service; the engine never writes them back.
type SecurityPolicy struct {
	// KDFIterations is the PBKDF2 iteration count for slots using KDFPBKDF2.
	// Also recorded in the V2 file prologue as a compatibility hint.
	KDFIterations uint32

	// Argon2Time, Argon2MemoryKiB and Argon2Threads are the Argon2id costs
	// applied to new slots using KDFArgon2id.
	Argon2Time      uint32
	Argon2MemoryKiB uint32
	Argon2Threads   uint8

	// DataRedundancy is the configured FEC parity percentage for the payload
	// section. Zero disables payload FEC; the V2 header section is always
	// FEC-protected at no less than the floor redundancy regardless.
	DataRedundancy uint8

	// RequireHWToken forces every new slot to enroll a hardware token.
	RequireHWToken bool

	// PasswordHistoryDepth caps how many retired verifiers each slot keeps.
	PasswordHistoryDepth int
}

// VaultHeaderV2 is the authentication header of a V2 (multi-user) vault file:
// the security policy, the ordered key-slot collection, and creation
// metadata. There is exactly one header per file and it is mutated only
// through the orchestrator's key-slot operations.
type VaultHeaderV2 struct {
	// VaultID uniquely identifies the vault across renames and copies.
	VaultID string

	// Policy is the security policy the vault was created under.
	Policy SecurityPolicy

	// Slots is the append-only key-slot collection. Indices are stable:
	// deactivated slots stay in place as tombstones.
	Slots []KeySlot

	// CreatedAt is the vault creation timestamp.
	CreatedAt time.Time

	// CreatorVersion is the application version string that created the
	// vault, kept for forensics and migration decisions.
	CreatorVersion string
}

// ActiveSlots returns the indices of all active slots.
func (h *VaultHeaderV2) ActiveSlots() []int {
	var idx []int
	for i := range h.Slots {
		if h.Slots[i].Active {
			idx = append(idx, i)
		}
	}
	return idx
}

// ActiveAdminCount counts active slots with the admin role.
func (h *VaultHeaderV2) ActiveAdminCount() int {
	n := 0
	for i := range h.Slots {
		if h.Slots[i].Active && h.Slots[i].IsAdmin() {
			n++
		}
	}
	return n
}
