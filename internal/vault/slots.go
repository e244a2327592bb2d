// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"context"
	"fmt"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/validators"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// loadContainer reads a vault file that must be a V2 container. Slot
// operations have no meaning for single-user V1 files.
func (v *vaultService) loadContainer(ctx context.Context, path string) (*format.ContainerInfo, error) {
	raw, err := v.files.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if !v.formats.IsContainer(raw) {
		return nil, ErrLegacyFormat
	}
	return v.formats.ParseContainer(raw)
}

// rewriteContainer writes info back to disk. The data envelope is rebuilt
// verbatim from the parsed ciphertext and metadata; only the header bytes
// change across slot operations, so the payload needs no re-encryption.
func (v *vaultService) rewriteContainer(ctx context.Context, path string, info *format.ContainerInfo) error {
	meta := info.Data.Metadata
	envelope, err := v.formats.BuildEnvelope(info.Data.Ciphertext, format.EnvelopeOptions{
		Salt:           meta.Salt,
		IV:             meta.IV,
		FECRedundancy:  info.Header.Policy.DataRedundancy,
		TokenSerial:    meta.TokenSerial,
		TokenChallenge: meta.TokenChallenge,
	})
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	out, err := v.formats.BuildContainer(info.Header, info.Header.Policy.KDFIterations, envelope, info.Header.Policy.DataRedundancy)
	if err != nil {
		return fmt.Errorf("build container: %w", err)
	}
	return v.files.Save(ctx, path, out)
}

// AddKeySlot implements [Service]. The admin proves their credentials by
// unwrapping the DEK, which is then wrapped again for the new user. Slots are
// append-only: the new slot always lands at the end of the collection.
func (v *vaultService) AddKeySlot(ctx context.Context, path string, admin, newUser models.Credentials, role models.SlotRole) error {
	if err := v.validate.Validate(ctx, newUser,
		validators.FieldUsername, validators.FieldPassword, validators.FieldPasswordStrength, validators.FieldTokenPIN); err != nil {
		return err
	}
	info, err := v.loadContainer(ctx, path)
	if err != nil {
		return err
	}
	header := info.Header
	challenge := info.Data.Metadata.TokenChallenge

	adminIdx, err := v.slots.Locate(header.Slots, admin.Username)
	if err != nil {
		return err
	}
	adminSlot := &header.Slots[adminIdx]
	if !adminSlot.IsAdmin() {
		return ErrAdminRequired
	}
	response, err := v.tokenResponse(ctx, adminSlot.TokenEnrolled, challenge)
	if err != nil {
		return err
	}
	dek, err := v.slots.Unwrap(adminSlot, admin.Password, response)
	if err != nil {
		return err
	}
	defer crypto.Zero(dek)

	if _, err := v.slots.Locate(header.Slots, newUser.Username); err == nil {
		return ErrSlotExists
	}

	// All slots of a token-requiring vault are hybrid, sharing the one
	// file-level challenge. The response is reused when the admin round
	// already produced it.
	var buildResponse []byte
	if header.Policy.RequireHWToken {
		if response == nil {
			response, err = v.tokenResponse(ctx, true, challenge)
			if err != nil {
				return err
			}
		}
		buildResponse = response
	}
	slot, err := v.slots.Build(dek, newUser.Username, newUser.Password, buildResponse, role, kdfFromPolicy(header.Policy))
	if err != nil {
		return fmt.Errorf("build key slot: %w", err)
	}
	header.Slots = append(header.Slots, *slot)

	if err := v.rewriteContainer(ctx, path, info); err != nil {
		return err
	}
	v.logger.Info().
		Str("vault_id", header.VaultID).
		Int("slot", len(header.Slots)-1).
		Msg("key slot added")
	return nil
}

// DeactivateKeySlot implements [Service]. The target slot is tombstoned in
// place so the remaining indices stay stable. The last active admin slot can
// never be deactivated, not even by its own admin.
func (v *vaultService) DeactivateKeySlot(ctx context.Context, path string, admin models.Credentials, username string) error {
	info, err := v.loadContainer(ctx, path)
	if err != nil {
		return err
	}
	header := info.Header

	adminIdx, err := v.slots.Locate(header.Slots, admin.Username)
	if err != nil {
		return err
	}
	adminSlot := &header.Slots[adminIdx]
	if !adminSlot.IsAdmin() {
		return ErrAdminRequired
	}
	response, err := v.tokenResponse(ctx, adminSlot.TokenEnrolled, info.Data.Metadata.TokenChallenge)
	if err != nil {
		return err
	}
	// Unwrap proves the admin password; the key itself is not needed.
	dek, err := v.slots.Unwrap(adminSlot, admin.Password, response)
	if err != nil {
		return err
	}
	crypto.Zero(dek)

	targetIdx, err := v.slots.Locate(header.Slots, username)
	if err != nil {
		return err
	}
	target := &header.Slots[targetIdx]
	if target.IsAdmin() && header.ActiveAdminCount() <= 1 {
		return ErrLastAdminSlot
	}
	v.slots.Deactivate(target)

	if err := v.rewriteContainer(ctx, path, info); err != nil {
		return err
	}
	v.logger.Info().
		Str("vault_id", header.VaultID).
		Int("slot", targetIdx).
		Msg("key slot deactivated")
	return nil
}

// ChangePassword implements [Service]. For a V2 vault the slot is re-wrapped
// in place; for a V1 file the payload is decrypted and sealed again under a
// key derived from the new password and a fresh salt.
func (v *vaultService) ChangePassword(ctx context.Context, path string, creds models.Credentials, newPassword string) error {
	next := models.Credentials{Username: creds.Username, Password: newPassword}
	if err := v.validate.Validate(ctx, next, validators.FieldPassword, validators.FieldPasswordStrength); err != nil {
		return err
	}
	raw, err := v.files.Load(ctx, path)
	if err != nil {
		return err
	}
	if v.formats.IsContainer(raw) {
		return v.changeSlotPassword(ctx, path, raw, creds, newPassword)
	}
	return v.changeEnvelopePassword(ctx, path, raw, creds, newPassword)
}

func (v *vaultService) changeSlotPassword(ctx context.Context, path string, raw []byte, creds models.Credentials, newPassword string) error {
	info, err := v.formats.ParseContainer(raw)
	if err != nil {
		return err
	}
	header := info.Header
	idx, err := v.slots.Locate(header.Slots, creds.Username)
	if err != nil {
		return err
	}
	slot := &header.Slots[idx]
	response, err := v.tokenResponse(ctx, slot.TokenEnrolled, info.Data.Metadata.TokenChallenge)
	if err != nil {
		return err
	}
	if err := v.slots.ChangePassword(slot, creds.Password, newPassword, response, header.Policy.PasswordHistoryDepth); err != nil {
		return err
	}
	return v.rewriteContainer(ctx, path, info)
}

// changeEnvelopePassword rewrites a V1 file under the new password. The token
// and FEC sections carry over; there is no slot, so no password history is
// kept for V1 files.
func (v *vaultService) changeEnvelopePassword(ctx context.Context, path string, raw []byte, creds models.Credentials, newPassword string) error {
	parsed, err := v.formats.ParseEnvelope(raw)
	if err != nil {
		return err
	}
	meta := parsed.Metadata

	var oldKey, newKey, plain []byte
	defer func() {
		crypto.Zero(oldKey)
		crypto.Zero(newKey)
		crypto.Zero(plain)
	}()

	oldKey, err = v.keys.DeriveKEK(creds.Password, meta.Salt, v.legacyKDF())
	if err != nil {
		return fmt.Errorf("derive key-encryption key: %w", err)
	}
	var response []byte
	if meta.RequiresHWToken {
		response, err = v.tokenResponse(ctx, true, meta.TokenChallenge)
		if err != nil {
			return err
		}
		combined, err := v.keys.CombineTokenResponse(oldKey, response)
		if err != nil {
			return fmt.Errorf("combine token response: %w", err)
		}
		crypto.Zero(oldKey)
		oldKey = combined
	}
	plain, err = v.keys.DecryptPayload(parsed.Ciphertext, oldKey, meta.IV)
	if err != nil {
		return err
	}

	newSalt, err := v.keys.GenerateSalt()
	if err != nil {
		return fmt.Errorf("generate file salt: %w", err)
	}
	newKey, err = v.keys.DeriveKEK(newPassword, newSalt, v.legacyKDF())
	if err != nil {
		return fmt.Errorf("derive key-encryption key: %w", err)
	}
	if meta.RequiresHWToken {
		combined, err := v.keys.CombineTokenResponse(newKey, response)
		if err != nil {
			return fmt.Errorf("combine token response: %w", err)
		}
		crypto.Zero(newKey)
		newKey = combined
	}
	iv, err := v.keys.GenerateIV()
	if err != nil {
		return fmt.Errorf("generate payload iv: %w", err)
	}
	ciphertext, err := v.keys.EncryptPayload(plain, newKey, iv)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}

	opts := format.EnvelopeOptions{
		Salt:           newSalt,
		IV:             iv,
		TokenSerial:    meta.TokenSerial,
		TokenChallenge: meta.TokenChallenge,
	}
	if meta.HasFEC {
		opts.FECRedundancy = meta.FECRedundancy
	}
	envelope, err := v.formats.BuildEnvelope(ciphertext, opts)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	return v.files.Save(ctx, path, envelope)
}
