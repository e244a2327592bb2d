// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package vault orchestrates whole-file vault operations on top of the
// format, crypto, key-slot, record and store layers: creating vaults through
// the fixed eight-step pipeline, opening and saving them, and administering
// the key-slot collection of multi-user files.
//
// The orchestrator owns the collection-level invariants the lower layers
// leave to their caller: slots are append-only with stable indices, the last
// active admin slot can never be tombstoned, and nothing touches disk during
// creation before the final write step. All collaborators arrive through the
// constructor, so every operation is testable with doubles and reentrant.
package vault

import (
	"context"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// Service is the engine's top-level vault API.
type Service interface {
	// Create runs the eight-step creation pipeline synchronously on the
	// caller's goroutine and blocks until the vault file exists or a step
	// failed. The pipeline performs no disk writes before the final step,
	// so a failure never leaves a partial file behind.
	Create(ctx context.Context, params models.CreationParams) (*models.CreationResult, error)

	// CreateAsync runs the same pipeline on a background worker and
	// returns immediately. Step progress and completion are delivered
	// through the returned task's channels, in order.
	CreateAsync(ctx context.Context, params models.CreationParams) *CreationTask

	// Open authenticates creds against the vault file at path, decrypts
	// the payload and migrates the record to the current schema. The
	// returned DEK belongs to the caller, who must erase it after use.
	Open(ctx context.Context, path string, creds models.Credentials) (*models.OpenResult, error)

	// Save re-encrypts data under dek with a fresh IV and atomically
	// replaces the vault file at path, preserving its header and envelope
	// settings. dek must be the key returned by Open or Create for the
	// same vault; Save proves that against the existing payload before it
	// overwrites anything.
	Save(ctx context.Context, path string, dek []byte, data *models.VaultData) error

	// AddKeySlot appends a key slot for newUser to a multi-user vault,
	// authorised by an active admin slot. Indices of existing slots are
	// never disturbed.
	AddKeySlot(ctx context.Context, path string, admin, newUser models.Credentials, role models.SlotRole) error

	// DeactivateKeySlot tombstones the slot of username, authorised by an
	// active admin slot. The last active admin slot is refused.
	DeactivateKeySlot(ctx context.Context, path string, admin models.Credentials, username string) error

	// ChangePassword re-wraps the caller's key material under a KEK
	// derived from newPassword. Multi-user slots refuse passwords found
	// in the slot's history.
	ChangePassword(ctx context.Context, path string, creds models.Credentials, newPassword string) error
}
