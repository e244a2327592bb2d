// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package models

// Byte-layout constants shared by the envelope, key-slot and crypto layers.
// These are wire-format facts: changing any of them breaks compatibility with
// existing vault files.
const (
	// SaltLen is the size of the KDF salt at the head of every envelope.
	SaltLen = 32

	// IVLen is the AES-GCM initialisation vector size.
	IVLen = 12

	// DEKLen is the size of the data-encryption key (256 bits).
	DEKLen = 32

	// KEKLen is the size of a derived key-encryption key (256 bits).
	KEKLen = 32

	// WrappedDEKLen is the size of a DEK wrapped under a KEK with
	// AES-256-GCM: 12-byte nonce, 32-byte ciphertext, 16-byte tag.
	WrappedDEKLen = IVLen + DEKLen + 16

	// ChallengeLen is the fixed hardware-token challenge size.
	ChallengeLen = 64

	// MaxSerialLen bounds the hardware-token serial stored in an envelope.
	MaxSerialLen = 255

	// MaxVaultSize is the upper bound on a decoded vault payload (1 GiB).
	// FEC headers claiming a larger original size are treated as stale.
	MaxVaultSize = 1 << 30
)
