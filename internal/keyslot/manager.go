// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package keyslot implements the per-user key slots that let several users
// independently unwrap a vault's shared data-encryption key. The layout
// follows the LUKS model: slots are appended for the lifetime of the vault
// and removing a user tombstones the slot rather than shifting indices.
package keyslot

import (
	"crypto/hmac"
	"crypto/sha256"
	"time"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// DefaultUsernameHashSize is the stored username-hash length for new slots,
// the full HMAC-SHA-256 output. Recorded per-slot so old files with shorter
// hashes keep working.
const DefaultUsernameHashSize = 32

// historyLabel domain-separates password-history verifiers from any other
// hash derived from a KEK.
const historyLabel = "keeptower.password-history.v1"

// manager is the private implementation of [Manager].
type manager struct {
	keys crypto.KeyService
}

// NewManager constructs a [Manager] on top of the given key service.
func NewManager(keys crypto.KeyService) Manager {
	return &manager{keys: keys}
}

// Build implements [Manager]. It is DeriveSlotKEK followed by Seal, with the
// token response folded in between when one is supplied.
func (m *manager) Build(dek []byte, username, password string, tokenResponse []byte, role models.SlotRole, kdf models.KDFParams) (*models.KeySlot, error) {
	kek, salt, err := m.DeriveSlotKEK(password, kdf)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(kek)

	wrapKEK := kek
	enrolled := false
	if tokenResponse != nil {
		hybrid, err := m.keys.CombineTokenResponse(kek, tokenResponse)
		if err != nil {
			return nil, err
		}
		defer crypto.Zero(hybrid)
		wrapKEK = hybrid
		enrolled = true
	}

	return m.Seal(dek, wrapKEK, salt, username, enrolled, role, kdf)
}

// DeriveSlotKEK implements [Manager].
func (m *manager) DeriveSlotKEK(password string, kdf models.KDFParams) ([]byte, []byte, error) {
	salt, err := m.keys.GenerateSalt()
	if err != nil {
		return nil, nil, err
	}

	kek, err := m.keys.DeriveKEK(password, salt, kdf)
	if err != nil {
		return nil, nil, err
	}
	return kek, salt, nil
}

// Seal implements [Manager].
func (m *manager) Seal(dek, kek, salt []byte, username string, tokenEnrolled bool, role models.SlotRole, kdf models.KDFParams) (*models.KeySlot, error) {
	wrapped, err := m.keys.WrapDEK(dek, kek)
	if err != nil {
		return nil, err
	}

	return &models.KeySlot{
		Active:           true,
		Username:         username,
		UsernameHash:     usernameHash(salt, username, DefaultUsernameHashSize),
		UsernameHashSize: DefaultUsernameHashSize,
		WrappedDEK:       wrapped,
		Salt:             salt,
		KDF:              kdf,
		TokenEnrolled:    tokenEnrolled,
		CreatedAt:        time.Now().UTC(),
		Role:             role,
	}, nil
}

// Locate implements [Manager]. The username never appears in the returned
// error so lookup failures are safe to log.
func (m *manager) Locate(slots []models.KeySlot, username string) (int, error) {
	for i := range slots {
		s := &slots[i]
		if !s.Active || len(s.Salt) == 0 || s.UsernameHashSize == 0 {
			continue
		}
		if hmac.Equal(usernameHash(s.Salt, username, s.UsernameHashSize), s.UsernameHash) {
			return i, nil
		}
	}
	return -1, ErrSlotNotFound
}

// Unwrap implements [Manager].
func (m *manager) Unwrap(slot *models.KeySlot, password string, tokenResponse []byte) ([]byte, error) {
	if !slot.Active {
		return nil, ErrSlotInactive
	}
	if slot.TokenEnrolled && tokenResponse == nil {
		return nil, ErrTokenResponseRequired
	}

	kek, err := m.keys.DeriveKEK(password, slot.Salt, slot.KDF)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(kek)

	unwrapKEK := kek
	if slot.TokenEnrolled {
		hybrid, err := m.keys.CombineTokenResponse(kek, tokenResponse)
		if err != nil {
			return nil, err
		}
		defer crypto.Zero(hybrid)
		unwrapKEK = hybrid
	}

	return m.keys.UnwrapDEK(slot.WrappedDEK, unwrapKEK)
}

// ChangePassword implements [Manager]. The slot salt stays fixed across
// changes; that is what keeps old history verifiers comparable against
// candidate passwords.
func (m *manager) ChangePassword(slot *models.KeySlot, oldPassword, newPassword string, tokenResponse []byte, historyDepth int) error {
	if !slot.Active {
		return ErrSlotInactive
	}
	if slot.TokenEnrolled && tokenResponse == nil {
		return ErrTokenResponseRequired
	}

	oldKEK, err := m.keys.DeriveKEK(oldPassword, slot.Salt, slot.KDF)
	if err != nil {
		return err
	}
	defer crypto.Zero(oldKEK)

	oldWrapKEK := oldKEK
	if slot.TokenEnrolled {
		hybrid, err := m.keys.CombineTokenResponse(oldKEK, tokenResponse)
		if err != nil {
			return err
		}
		defer crypto.Zero(hybrid)
		oldWrapKEK = hybrid
	}

	// Proves the old password before anything is modified.
	dek, err := m.keys.UnwrapDEK(slot.WrappedDEK, oldWrapKEK)
	if err != nil {
		return err
	}
	defer crypto.Zero(dek)

	newKEK, err := m.keys.DeriveKEK(newPassword, slot.Salt, slot.KDF)
	if err != nil {
		return err
	}
	defer crypto.Zero(newKEK)

	oldVerifier := m.keys.VerifierHash(oldKEK, historyLabel)
	newVerifier := m.keys.VerifierHash(newKEK, historyLabel)
	if hmac.Equal(newVerifier, oldVerifier) {
		return ErrPasswordReused
	}
	for _, entry := range slot.PasswordHistory {
		if hmac.Equal(newVerifier, entry.Verifier) {
			return ErrPasswordReused
		}
	}

	newWrapKEK := newKEK
	if slot.TokenEnrolled {
		hybrid, err := m.keys.CombineTokenResponse(newKEK, tokenResponse)
		if err != nil {
			return err
		}
		defer crypto.Zero(hybrid)
		newWrapKEK = hybrid
	}

	wrapped, err := m.keys.WrapDEK(dek, newWrapKEK)
	if err != nil {
		return err
	}

	slot.WrappedDEK = wrapped
	if historyDepth > 0 {
		slot.PasswordHistory = append(slot.PasswordHistory, models.PasswordHistoryEntry{
			ChangedAt: time.Now().UTC(),
			Verifier:  oldVerifier,
		})
		if excess := len(slot.PasswordHistory) - historyDepth; excess > 0 {
			slot.PasswordHistory = slot.PasswordHistory[excess:]
		}
	}
	return nil
}

// Deactivate implements [Manager]. Role and creation time survive as audit
// metadata; everything that could unwrap or identify survives only as zeros.
func (m *manager) Deactivate(slot *models.KeySlot) {
	slot.Active = false

	crypto.Zero(slot.WrappedDEK)
	crypto.Zero(slot.Salt)
	crypto.Zero(slot.UsernameHash)
	for i := range slot.PasswordHistory {
		crypto.Zero(slot.PasswordHistory[i].Verifier)
	}

	slot.WrappedDEK = nil
	slot.Salt = nil
	slot.UsernameHash = nil
	slot.UsernameHashSize = 0
	slot.PasswordHistory = nil
	slot.Username = ""
	slot.TokenEnrolled = false
}

// usernameHash computes HMAC-SHA-256 keyed by the slot salt over the
// username, truncated to size. Keying by the salt makes the stored hash
// useless for cross-vault correlation.
func usernameHash(salt []byte, username string, size uint8) []byte {
	mac := hmac.New(sha256.New, salt)
	mac.Write([]byte(username))
	sum := mac.Sum(nil)
	if int(size) < len(sum) {
		sum = sum[:size]
	}
	return sum
}
