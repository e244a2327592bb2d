// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package store persists vault files.
//
// The vault is a single binary blob, so the store's whole job is four
// guarantees around one file: writes are atomic (a crash never leaves a
// half-written vault), synced (rename happens only after the data hit the
// platter), private (0600 before the file becomes visible under its final
// name), and loads are size-bounded.
package store

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mock/vault_store_mock.go -package=mock

// VaultStore reads and writes vault files.
type VaultStore interface {
	// Save atomically replaces the file at path with data. The data is
	// written to a temporary file in the same directory, restricted to
	// owner-only permissions, synced, and renamed over the target.
	Save(ctx context.Context, path string, data []byte) error

	// Load reads the whole vault file at path. Files above the store's
	// size bound are refused before any allocation proportional to their
	// length.
	Load(ctx context.Context, path string) ([]byte, error)

	// CheckWritable probes whether dir can receive a vault file. It is
	// the pre-flight for vault creation: failing here aborts before any
	// key material is generated.
	CheckWritable(dir string) error
}
