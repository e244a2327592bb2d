// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package models

// VaultFileMetadata carries everything the envelope parser learned about a
// vault file besides the ciphertext itself. All fields are read from the
// cleartext portion of the file and are therefore untrusted until the payload
// has been authenticated. The struct is immutable once returned by the parser.
type VaultFileMetadata struct {
	// Salt is the 32-byte KDF salt stored at the head of the envelope.
	// In V2 files it is retained for layout compatibility only; the
	// authoritative salts live inside the key slots.
	Salt []byte

	// IV is the 12-byte AEAD initialisation vector for the payload.
	IV []byte

	// HasFEC reports whether the payload section was Reed-Solomon encoded.
	HasFEC bool

	// FECRedundancy is the parity percentage (1-100) recorded in the FEC
	// header. Zero when HasFEC is false.
	FECRedundancy uint8

	// RequiresHWToken reports whether a hardware token must participate in
	// key derivation for this file.
	RequiresHWToken bool

	// TokenSerial identifies the enrolled hardware token. At most 255 bytes;
	// empty when RequiresHWToken is false.
	TokenSerial []byte

	// TokenChallenge is the fixed 64-byte challenge sent to the token during
	// unlock. Empty when RequiresHWToken is false.
	TokenChallenge []byte
}

// ParsedVaultData is the result of parsing a vault file envelope. Ciphertext
// is still encrypted: decryption belongs to the crypto layer and happens only
// after a key slot has been unwrapped.
type ParsedVaultData struct {
	// Ciphertext is the AEAD-sealed payload, FEC-decoded when the envelope
	// carried an FEC section.
	Ciphertext []byte

	// Metadata describes the envelope the ciphertext was extracted from.
	Metadata VaultFileMetadata

	// RepairedBlocks is how many payload blocks were rebuilt from parity
	// during FEC decoding. Zero for intact or FEC-less envelopes.
	RepairedBlocks int
}
