// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

const (
	// vaultFileMode keeps vault files owner-only. The blob is encrypted,
	// but salts, token serials and slot metadata are cleartext.
	vaultFileMode = 0o600

	// DefaultMaxFileSize bounds Load. A payload at the vault size limit
	// grows at most ~2x under 100% FEC plus envelope and header overhead,
	// so three times the limit is unreachable by any well-formed file.
	DefaultMaxFileSize = 3 * models.MaxVaultSize
)

// fileStore is the local-filesystem implementation of [VaultStore].
type fileStore struct {
	log         *logger.Logger
	maxFileSize int64
}

// FileStoreOption configures a file store.
type FileStoreOption func(*fileStore)

// WithMaxFileSize overrides the load size bound.
func WithMaxFileSize(limit int64) FileStoreOption {
	return func(s *fileStore) { s.maxFileSize = limit }
}

// NewFileStore constructs a local-filesystem [VaultStore]. A nil log
// disables logging.
func NewFileStore(log *logger.Logger, opts ...FileStoreOption) VaultStore {
	if log == nil {
		log = logger.Nop()
	}
	s := &fileStore{log: log, maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save implements [VaultStore]. The write sequence is: temp file in the
// target directory, chmod 0600, write, fsync, rename over the target, fsync
// the directory. The rename is the commit point; everything before it is
// invisible to readers of path.
func (s *fileStore) Save(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: creating temp file: %v", ErrWriteFailed, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			if rmErr := os.Remove(tmpName); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
				s.log.Warn().Str("file", tmpName).Err(rmErr).Msg("leaving temp file behind")
			}
		}
	}()

	// Restrict permissions before the file carries any vault bytes.
	if err := tmp.Chmod(vaultFileMode); err != nil {
		return fmt.Errorf("%w: setting permissions: %v", ErrWriteFailed, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: writing: %v", ErrWriteFailed, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: syncing: %v", ErrWriteFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp file: %v", ErrWriteFailed, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: renaming into place: %v", ErrWriteFailed, err)
	}
	committed = true

	// Persist the rename itself. Not every filesystem supports directory
	// fsync, so failure here is logged rather than returned: the data is
	// already durable, only the directory entry might not be.
	s.syncDir(dir)

	s.log.Debug().Str("file", path).Int("bytes", len(data)).Msg("vault file saved")
	return nil
}

func (s *fileStore) syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		s.log.Warn().Str("dir", dir).Err(err).Msg("cannot open directory for sync")
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		s.log.Warn().Str("dir", dir).Err(err).Msg("directory sync failed")
	}
}

// Load implements [VaultStore].
func (s *fileStore) Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat: %v", ErrReadFailed, err)
	}
	if info.Size() > s.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d-byte limit",
			ErrFileTooLarge, info.Size(), s.maxFileSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	return data, nil
}

// CheckWritable implements [VaultStore]. Permission bits alone cannot answer
// writability (ACLs, read-only mounts, quotas), so the check is an actual
// write probe that is removed immediately.
func (s *fileStore) CheckWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathNotWritable, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrPathNotWritable, dir)
	}

	probe, err := os.CreateTemp(dir, ".keeptower-probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPathNotWritable, dir, err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		s.log.Warn().Str("file", name).Err(err).Msg("cannot remove write probe")
	}
	return nil
}
