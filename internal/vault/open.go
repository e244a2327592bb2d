// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/migrations"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// Open implements [Service]. The file's own bytes decide the format: a V2
// container is unlocked through its key slots, anything else is treated as a
// single-user V1 envelope.
func (v *vaultService) Open(ctx context.Context, path string, creds models.Credentials) (*models.OpenResult, error) {
	raw, err := v.files.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	if v.formats.IsContainer(raw) {
		return v.openContainer(ctx, raw, creds)
	}
	return v.openEnvelope(ctx, raw, creds)
}

func (v *vaultService) openContainer(ctx context.Context, raw []byte, creds models.Credentials) (*models.OpenResult, error) {
	info, err := v.formats.ParseContainer(raw)
	if err != nil {
		return nil, err
	}
	header := info.Header
	idx, err := v.slots.Locate(header.Slots, creds.Username)
	if err != nil {
		return nil, err
	}
	slot := &header.Slots[idx]
	response, err := v.tokenResponse(ctx, slot.TokenEnrolled, info.Data.Metadata.TokenChallenge)
	if err != nil {
		return nil, err
	}
	dek, err := v.slots.Unwrap(slot, creds.Password, response)
	if err != nil {
		return nil, err
	}
	res, err := v.decryptAndMigrate(info.Data, dek)
	if err != nil {
		crypto.Zero(dek)
		return nil, err
	}
	res.Format = models.FormatV2
	res.Header = header
	res.SlotIndex = idx

	v.logger.Debug().
		Str("vault_id", header.VaultID).
		Int("slot", idx).
		Bool("modified", res.Modified).
		Msg("vault opened")
	return res, nil
}

// openEnvelope unlocks a V1 file. The file records no KDF parameters, so the
// service's configured legacy cost must match the cost the file was written
// with; a mismatch surfaces as an authentication failure.
func (v *vaultService) openEnvelope(ctx context.Context, raw []byte, creds models.Credentials) (*models.OpenResult, error) {
	parsed, err := v.formats.ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	meta := parsed.Metadata
	kek, err := v.keys.DeriveKEK(creds.Password, meta.Salt, v.legacyKDF())
	if err != nil {
		return nil, fmt.Errorf("derive key-encryption key: %w", err)
	}
	dek := kek
	if meta.RequiresHWToken {
		response, err := v.tokenResponse(ctx, true, meta.TokenChallenge)
		if err != nil {
			crypto.Zero(kek)
			return nil, err
		}
		dek, err = v.keys.CombineTokenResponse(kek, response)
		crypto.Zero(kek)
		if err != nil {
			return nil, fmt.Errorf("combine token response: %w", err)
		}
	}
	res, err := v.decryptAndMigrate(parsed, dek)
	if err != nil {
		crypto.Zero(dek)
		return nil, err
	}
	res.Format = models.FormatV1
	return res, nil
}

// decryptAndMigrate opens the sealed payload and brings the record up to the
// current schema version. On success the returned result owns dek; on failure
// the caller still owns it.
func (v *vaultService) decryptAndMigrate(parsed *models.ParsedVaultData, dek []byte) (*models.OpenResult, error) {
	plain, err := v.keys.DecryptPayload(parsed.Ciphertext, dek, parsed.Metadata.IV)
	if err != nil {
		return nil, err
	}
	defer crypto.Zero(plain)

	data, err := v.records.Unmarshal(plain)
	if err != nil {
		return nil, err
	}
	modified, err := migrations.Migrate(data)
	if err != nil {
		return nil, err
	}
	return &models.OpenResult{
		SlotIndex: -1,
		Data:      data,
		Modified:  modified,
		DEK:       dek,
		Metadata:  parsed.Metadata,
	}, nil
}

// tokenResponse runs the hardware-token challenge round when required. It
// returns nil without touching the token otherwise.
func (v *vaultService) tokenResponse(ctx context.Context, required bool, challenge []byte) ([]byte, error) {
	if !required {
		return nil, nil
	}
	if v.tokens == nil {
		return nil, ErrTokenUnavailable
	}
	response, err := v.tokens.ChallengeResponse(ctx, challenge)
	if err != nil {
		return nil, fmt.Errorf("hardware token response: %w", err)
	}
	return response, nil
}

// Save implements [Service]. It re-seals data with the caller's DEK and
// rebuilds the file around the existing header and envelope settings. Before
// anything is written the DEK is checked against the current payload, so a
// stale or foreign key cannot replace a vault's contents with bytes it would
// no longer open.
func (v *vaultService) Save(ctx context.Context, path string, dek []byte, data *models.VaultData) error {
	raw, err := v.files.Load(ctx, path)
	if err != nil {
		return err
	}
	var (
		info   *format.ContainerInfo
		parsed *models.ParsedVaultData
	)
	if v.formats.IsContainer(raw) {
		info, err = v.formats.ParseContainer(raw)
		if err != nil {
			return err
		}
		parsed = info.Data
	} else {
		parsed, err = v.formats.ParseEnvelope(raw)
		if err != nil {
			return err
		}
	}

	probe, err := v.keys.DecryptPayload(parsed.Ciphertext, dek, parsed.Metadata.IV)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeyMismatch, err)
	}
	crypto.Zero(probe)

	data.Metadata.LastModified = time.Now().Unix()
	plain, err := v.records.Marshal(data)
	if err != nil {
		return err
	}
	iv, err := v.keys.GenerateIV()
	if err != nil {
		crypto.Zero(plain)
		return fmt.Errorf("generate payload iv: %w", err)
	}
	ciphertext, err := v.keys.EncryptPayload(plain, dek, iv)
	crypto.Zero(plain)
	if err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}

	meta := parsed.Metadata
	opts := format.EnvelopeOptions{
		Salt:           meta.Salt,
		IV:             iv,
		TokenSerial:    meta.TokenSerial,
		TokenChallenge: meta.TokenChallenge,
	}
	if info != nil {
		opts.FECRedundancy = info.Header.Policy.DataRedundancy
	} else if meta.HasFEC {
		opts.FECRedundancy = meta.FECRedundancy
	}
	envelope, err := v.formats.BuildEnvelope(ciphertext, opts)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	out := envelope
	if info != nil {
		out, err = v.formats.BuildContainer(info.Header, info.Header.Policy.KDFIterations, envelope, info.Header.Policy.DataRedundancy)
		if err != nil {
			return fmt.Errorf("build container: %w", err)
		}
	}
	return v.files.Save(ctx, path, out)
}
