// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/utils"
	"github.com/tjdeveng/KeepTower-sub013/internal/validators"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// totalCreationSteps is the fixed length of the creation pipeline. Every run
// emits exactly this many progress events or fails partway.
const totalCreationSteps = 8

// stepDescriptions labels the pipeline steps, 1-based.
var stepDescriptions = [totalCreationSteps]string{
	"validating creation parameters",
	"generating key material",
	"deriving key-encryption key",
	"enrolling hardware token",
	"creating admin key slot",
	"assembling vault header",
	"encrypting vault payload",
	"writing vault file",
}

// cancelled reports the context error before a step runs. Cancellation is
// honoured between steps only: a hardware-token touch in flight is never
// interrupted from here.
func cancelled(ctx context.Context, step uint8) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("creation cancelled before step %d: %w", step, err)
	}
	return nil
}

// Create implements [Service].
func (v *vaultService) Create(ctx context.Context, params models.CreationParams) (*models.CreationResult, error) {
	return v.runCreation(ctx, params, v.onStep)
}

// runCreation is the step engine shared by Create and CreateAsync. Steps
// 1-7 work purely in memory; only step 8 touches disk, so a failure anywhere
// never leaves a partial vault file.
func (v *vaultService) runCreation(ctx context.Context, params models.CreationParams, report ProgressFunc) (*models.CreationResult, error) {
	step := func(n uint8) {
		if report != nil {
			report(models.StepProgress{Step: n, Total: totalCreationSteps, Description: stepDescriptions[n-1]})
		}
	}

	// Step 1: validate everything before any key material exists.
	if err := cancelled(ctx, 1); err != nil {
		return nil, err
	}
	if err := v.validate.Validate(ctx, params); err != nil {
		return nil, err
	}
	if err := v.files.CheckWritable(filepath.Dir(params.Path)); err != nil {
		return nil, fmt.Errorf("%w: %w", validators.ErrInvalidPath, err)
	}
	if params.Policy.RequireHWToken && v.tokens == nil {
		return nil, ErrTokenUnavailable
	}
	step(1)

	// Sensitive intermediates are erased on every exit path. The DEK
	// buffer is destroyed after the result copy is taken, leaving the
	// caller's copy as the only live one.
	var (
		dekBuf *crypto.SecretBuffer
		kek    []byte
		hybrid []byte
	)
	defer func() {
		crypto.Zero(kek)
		crypto.Zero(hybrid)
		if dekBuf != nil {
			dekBuf.Destroy()
		}
	}()

	// Step 2: fresh key material from the CSPRNG.
	if err := cancelled(ctx, 2); err != nil {
		return nil, err
	}
	fileSalt, err := v.keys.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("generate file salt: %w", err)
	}
	if params.Format == models.FormatV2 {
		dek, err := v.keys.GenerateDEK()
		if err != nil {
			return nil, fmt.Errorf("generate data encryption key: %w", err)
		}
		dekBuf = crypto.NewSecretBuffer(dek)
	}
	step(2)

	// Step 3: harden the admin password. A V1 file derives its payload
	// key straight from the password and the file salt; a V2 slot gets a
	// fresh per-slot salt via the slot manager.
	if err := cancelled(ctx, 3); err != nil {
		return nil, err
	}
	var slotSalt []byte
	if params.Format == models.FormatV2 {
		kek, slotSalt, err = v.slots.DeriveSlotKEK(params.Admin.Password, kdfFromPolicy(params.Policy))
	} else {
		kek, err = v.keys.DeriveKEK(params.Admin.Password, fileSalt, v.legacyKDF())
	}
	if err != nil {
		return nil, fmt.Errorf("derive key-encryption key: %w", err)
	}
	step(3)

	// Step 4: hardware-token enrollment, two user interactions. A failure
	// here aborts the whole pipeline; nothing has been persisted.
	if err := cancelled(ctx, 4); err != nil {
		return nil, err
	}
	var tokenSerial, tokenChallenge []byte
	wrapKEK := kek
	if params.Policy.RequireHWToken {
		cred, err := v.tokens.CreateCredential(ctx, params.Admin.TokenPIN)
		if err != nil {
			return nil, fmt.Errorf("hardware token enrollment: %w", err)
		}
		tokenChallenge, err = v.keys.GenerateChallenge()
		if err != nil {
			return nil, fmt.Errorf("generate token challenge: %w", err)
		}
		response, err := v.tokens.ChallengeResponse(ctx, tokenChallenge)
		if err != nil {
			return nil, fmt.Errorf("hardware token response: %w", err)
		}
		hybrid, err = v.keys.CombineTokenResponse(kek, response)
		if err != nil {
			return nil, fmt.Errorf("combine token response: %w", err)
		}
		wrapKEK = hybrid
		tokenSerial = cred.Serial
	}
	step(4)

	// Step 5: the admin key slot. V1 has no slot collection; its derived
	// key becomes the payload key directly.
	if err := cancelled(ctx, 5); err != nil {
		return nil, err
	}
	var adminSlot *models.KeySlot
	if params.Format == models.FormatV2 {
		adminSlot, err = v.slots.Seal(dekBuf.Bytes(), wrapKEK, slotSalt, params.Admin.Username, tokenSerial != nil, models.RoleAdmin, kdfFromPolicy(params.Policy))
		if err != nil {
			return nil, fmt.Errorf("create admin key slot: %w", err)
		}
	} else {
		dekBuf = crypto.NewSecretBuffer(append([]byte(nil), wrapKEK...))
	}
	step(5)

	// Step 6: header assembly.
	if err := cancelled(ctx, 6); err != nil {
		return nil, err
	}
	createdAt := time.Now().UTC().Truncate(time.Second)
	var header *models.VaultHeaderV2
	if params.Format == models.FormatV2 {
		header = &models.VaultHeaderV2{
			VaultID:        v.uuids.Generate(),
			Policy:         params.Policy,
			Slots:          []models.KeySlot{*adminSlot},
			CreatedAt:      createdAt,
			CreatorVersion: v.creatorVersion,
		}
	}
	step(6)

	// Step 7: serialize and seal the initial record graph. The record is
	// written empty; the migration layer stamps its metadata on first
	// open.
	if err := cancelled(ctx, 7); err != nil {
		return nil, err
	}
	plain, err := v.records.Marshal(&models.VaultData{})
	if err != nil {
		return nil, fmt.Errorf("serialize initial record: %w", err)
	}
	iv, err := v.keys.GenerateIV()
	if err != nil {
		return nil, fmt.Errorf("generate payload iv: %w", err)
	}
	ciphertext, err := v.keys.EncryptPayload(plain, dekBuf.Bytes(), iv)
	crypto.Zero(plain)
	if err != nil {
		return nil, fmt.Errorf("encrypt payload: %w", err)
	}
	step(7)

	// Step 8: assemble the on-disk bytes and write them atomically. The
	// only step with side effects outside this process.
	if err := cancelled(ctx, 8); err != nil {
		return nil, err
	}
	envelope, err := v.formats.BuildEnvelope(ciphertext, format.EnvelopeOptions{
		Salt:           fileSalt,
		IV:             iv,
		FECRedundancy:  params.Policy.DataRedundancy,
		TokenSerial:    tokenSerial,
		TokenChallenge: tokenChallenge,
	})
	if err != nil {
		return nil, fmt.Errorf("build envelope: %w", err)
	}
	out := envelope
	if params.Format == models.FormatV2 {
		out, err = v.formats.BuildContainer(header, params.Policy.KDFIterations, envelope, params.Policy.DataRedundancy)
		if err != nil {
			return nil, fmt.Errorf("build container: %w", err)
		}
	}
	if err := v.files.Save(ctx, params.Path, out); err != nil {
		return nil, err
	}
	step(8)

	v.logger.Info().
		Str("path", params.Path).
		Int32("format", int32(params.Format)).
		Bool("dek_locked", dekBuf.Locked()).
		Str("sha256", utils.FingerprintString(out)).
		Msg("vault created")

	return &models.CreationResult{
		Path:      params.Path,
		Format:    params.Format,
		Header:    header,
		DEK:       append([]byte(nil), dekBuf.Bytes()...),
		DEKLocked: dekBuf.Locked(),
		CreatedAt: createdAt,
	}, nil
}
