// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	s := NewFileStore(nil)
	path := filepath.Join(t.TempDir(), "test.vault")
	data := []byte("not really a vault, but the store does not care")

	require.NoError(t, s.Save(context.Background(), path, data))

	got, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_SaveOverwrites(t *testing.T) {
	s := NewFileStore(nil)
	path := filepath.Join(t.TempDir(), "test.vault")

	require.NoError(t, s.Save(context.Background(), path, []byte("first")))
	require.NoError(t, s.Save(context.Background(), path, []byte("second")))

	got, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := NewFileStore(nil)
	dir := t.TempDir()

	require.NoError(t, s.Save(context.Background(), filepath.Join(dir, "test.vault"), []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "test.vault", entries[0].Name())
}

func TestFileStore_SaveIntoMissingDirFails(t *testing.T) {
	s := NewFileStore(nil)
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "test.vault")

	err := s.Save(context.Background(), path, []byte("data"))
	require.ErrorIs(t, err, ErrWriteFailed)
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(nil)

	_, err := s.Load(context.Background(), filepath.Join(t.TempDir(), "absent.vault"))
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestFileStore_LoadRefusesOversizedFile(t *testing.T) {
	s := NewFileStore(nil, WithMaxFileSize(16))
	path := filepath.Join(t.TempDir(), "fat.vault")
	require.NoError(t, os.WriteFile(path, make([]byte, 32), 0o600))

	_, err := s.Load(context.Background(), path)
	require.ErrorIs(t, err, ErrFileTooLarge)
}

func TestFileStore_CheckWritable(t *testing.T) {
	s := NewFileStore(nil)
	dir := t.TempDir()

	require.NoError(t, s.CheckWritable(dir))

	// The probe must not leave residue.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.ErrorIs(t, s.CheckWritable(filepath.Join(dir, "missing")), ErrPathNotWritable)

	file := filepath.Join(dir, "plain-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	require.ErrorIs(t, s.CheckWritable(file), ErrPathNotWritable)
}

func TestFileStore_ContextCancellation(t *testing.T) {
	s := NewFileStore(nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "test.vault")
	require.NoError(t, s.Save(context.Background(), path, []byte("data")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, s.Save(ctx, path, []byte("update")), ErrWriteFailed)
	_, err := s.Load(ctx, path)
	require.ErrorIs(t, err, ErrReadFailed)

	// The cancelled save must not have touched the file.
	got, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)
}
