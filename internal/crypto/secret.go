// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package crypto

import "github.com/awnumar/memguard"

// SecretBuffer holds key material in memory that is page-locked and
// guard-paged when the platform allows it. Locking is best-effort: when the
// mlock limit is exhausted the buffer degrades to ordinary heap memory and
// Locked reports false, so callers can record the fact without failing.
type SecretBuffer struct {
	buf    *memguard.LockedBuffer
	plain  []byte
	locked bool
}

// NewSecretBuffer takes ownership of key. On return the caller must not touch
// key again: either it was wiped after being copied into locked pages, or it
// became the buffer's backing store directly.
func NewSecretBuffer(key []byte) *SecretBuffer {
	tmp := make([]byte, len(key))
	copy(tmp, key)

	if buf, ok := lockBytes(tmp); ok {
		Zero(key)
		return &SecretBuffer{buf: buf, locked: true}
	}
	return &SecretBuffer{plain: key}
}

// lockBytes moves b into a memguard buffer. memguard panics when it cannot
// allocate or mlock, so the failure path is a recover.
func lockBytes(b []byte) (buf *memguard.LockedBuffer, ok bool) {
	defer func() {
		if recover() != nil {
			buf, ok = nil, false
		}
	}()
	return memguard.NewBufferFromBytes(b), true
}

// Bytes returns the secret. The slice aliases the buffer's storage: it stays
// valid until Destroy and must not be retained past it.
func (s *SecretBuffer) Bytes() []byte {
	if s.locked {
		return s.buf.Bytes()
	}
	return s.plain
}

// Locked reports whether the secret lives in page-locked memory.
func (s *SecretBuffer) Locked() bool {
	return s.locked
}

// Destroy wipes the secret and releases its storage. Safe to call more than
// once.
func (s *SecretBuffer) Destroy() {
	if s.locked {
		s.buf.Destroy()
		return
	}
	Zero(s.plain)
	s.plain = nil
}

// Zero wipes b in place.
func Zero(b []byte) {
	memguard.WipeBytes(b)
}
