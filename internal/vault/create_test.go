// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/keyslot"
	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/internal/mock"
	"github.com/tjdeveng/KeepTower-sub013/internal/record"
	"github.com/tjdeveng/KeepTower-sub013/internal/store"
	"github.com/tjdeveng/KeepTower-sub013/internal/token"
	"github.com/tjdeveng/KeepTower-sub013/internal/validators"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

const (
	adminPassword = "glacier-PANDA-91x"
	userPassword  = "orbit-Tiger-33z!"
)

// newTestEngine builds a Service over real collaborators: actual crypto, a
// real slot manager, the byte-exact format layer and an on-disk store. Legacy
// KDF cost is minimal so V1 paths stay fast.
func newTestEngine(t *testing.T, opts ...ServiceOption) Service {
	t.Helper()
	log := logger.Nop()
	keys := crypto.NewKeyService()
	opts = append([]ServiceOption{WithLegacyKDFIterations(32)}, opts...)
	return NewService(keys, keyslot.NewManager(keys), format.New(nil, log), record.NewSerializer(), store.NewFileStore(log), log, opts...)
}

// testPolicy keeps Argon2id costs at the floor so the suite stays fast.
// Production costs come from settings, not from here.
func testPolicy() models.SecurityPolicy {
	return models.SecurityPolicy{
		KDFIterations:        64,
		Argon2Time:           1,
		Argon2MemoryKiB:      8,
		Argon2Threads:        1,
		DataRedundancy:       10,
		PasswordHistoryDepth: 2,
	}
}

func testParams(t *testing.T, version models.FormatVersion) models.CreationParams {
	t.Helper()
	return models.CreationParams{
		Path:   filepath.Join(t.TempDir(), "vault.ktv"),
		Admin:  models.Credentials{Username: "alice", Password: adminPassword},
		Format: version,
		Policy: testPolicy(),
	}
}

func requireNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "no file must exist at %s after a failed creation", path)
}

// ── Round trips over real collaborators ──────────────────────────────────────

func TestService_Create_V2RoundTrip(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV2)

	res, err := svc.Create(ctx, params)
	require.NoError(t, err)

	assert.Equal(t, params.Path, res.Path)
	assert.Equal(t, models.FormatV2, res.Format)
	assert.Len(t, res.DEK, models.DEKLen)
	assert.False(t, res.CreatedAt.IsZero())
	require.NotNil(t, res.Header)
	assert.NotEmpty(t, res.Header.VaultID)
	assert.True(t, res.CreatedAt.Equal(res.Header.CreatedAt))
	require.Len(t, res.Header.Slots, 1)
	assert.True(t, res.Header.Slots[0].Active)
	assert.True(t, res.Header.Slots[0].IsAdmin())

	_, err = os.Stat(params.Path)
	require.NoError(t, err)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	assert.Equal(t, models.FormatV2, opened.Format)
	assert.Equal(t, 0, opened.SlotIndex)
	assert.Equal(t, res.DEK, opened.DEK)
	require.NotNil(t, opened.Header)
	assert.Equal(t, res.Header.VaultID, opened.Header.VaultID)
	assert.True(t, res.Header.CreatedAt.Equal(opened.Header.CreatedAt))
	assert.Empty(t, opened.Data.Accounts)
	assert.Equal(t, models.CurrentSchemaVersion, opened.Data.Metadata.SchemaVersion)
	// A brand-new vault must not demand a rewrite on its first open.
	assert.False(t, opened.Modified)
}

func TestService_Create_V1RoundTrip(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV1)

	res, err := svc.Create(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, models.FormatV1, res.Format)
	assert.Nil(t, res.Header)
	assert.Len(t, res.DEK, models.DEKLen)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	assert.Equal(t, models.FormatV1, opened.Format)
	assert.Equal(t, -1, opened.SlotIndex)
	assert.Nil(t, opened.Header)
	assert.Equal(t, res.DEK, opened.DEK)
	assert.True(t, opened.Metadata.HasFEC)
	assert.Equal(t, uint8(10), opened.Metadata.FECRedundancy)
}

func TestService_Create_TokenEnrolledRoundTrip(t *testing.T) {
	serial := []byte("YK-5C-0001")
	fake := token.NewFake(serial, []byte("device-secret-0123456789abcdef"), "1234")
	svc := newTestEngine(t, WithTokenService(fake))
	ctx := context.Background()

	params := testParams(t, models.FormatV2)
	params.Policy.RequireHWToken = true
	params.Admin.TokenPIN = "1234"

	res, err := svc.Create(ctx, params)
	require.NoError(t, err)
	require.Len(t, res.Header.Slots, 1)
	assert.True(t, res.Header.Slots[0].TokenEnrolled)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	assert.Equal(t, res.DEK, opened.DEK)
	assert.True(t, opened.Metadata.RequiresHWToken)
	assert.Equal(t, serial, opened.Metadata.TokenSerial)
	assert.Len(t, opened.Metadata.TokenChallenge, models.ChallengeLen)
	assert.True(t, opened.Header.Slots[0].TokenEnrolled)
}

func TestService_Create_WrongTokenPIN(t *testing.T) {
	fake := token.NewFake([]byte("YK-5C-0001"), []byte("device-secret"), "1234")
	svc := newTestEngine(t, WithTokenService(fake))

	params := testParams(t, models.FormatV2)
	params.Policy.RequireHWToken = true
	params.Admin.TokenPIN = "9999"

	_, err := svc.Create(context.Background(), params)
	require.ErrorIs(t, err, token.ErrTokenRejected)
	requireNoFile(t, params.Path)
}

func TestService_Create_ProgressEvents(t *testing.T) {
	var events []models.StepProgress
	svc := newTestEngine(t, WithProgress(func(p models.StepProgress) {
		events = append(events, p)
	}))

	_, err := svc.Create(context.Background(), testParams(t, models.FormatV2))
	require.NoError(t, err)

	require.Len(t, events, totalCreationSteps)
	for i, ev := range events {
		assert.Equal(t, uint8(i+1), ev.Step)
		assert.Equal(t, uint8(totalCreationSteps), ev.Total)
		assert.NotEmpty(t, ev.Description)
	}
}

// ── Failures leave no file behind ────────────────────────────────────────────

func TestService_Create_WeakPassword(t *testing.T) {
	svc := newTestEngine(t)
	params := testParams(t, models.FormatV2)
	params.Admin.Password = "password"

	_, err := svc.Create(context.Background(), params)
	require.ErrorIs(t, err, validators.ErrWeakPassword)
	requireNoFile(t, params.Path)
}

func TestService_Create_TokenRequiredButNoService(t *testing.T) {
	svc := newTestEngine(t)
	params := testParams(t, models.FormatV2)
	params.Policy.RequireHWToken = true

	_, err := svc.Create(context.Background(), params)
	require.ErrorIs(t, err, ErrTokenUnavailable)
	requireNoFile(t, params.Path)
}

func TestService_Create_CancelledContext(t *testing.T) {
	svc := newTestEngine(t)
	params := testParams(t, models.FormatV2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Create(ctx, params)
	require.ErrorIs(t, err, context.Canceled)
	requireNoFile(t, params.Path)
}

// ── Step boundaries, verified with doubles ───────────────────────────────────

func TestService_Create_ValidationFailureRunsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	keys := mock.NewMockKeyService(ctrl)
	slots := mock.NewMockManager(ctrl)
	formats := mock.NewMockFormatService(ctrl)
	records := mock.NewMockSerializer(ctrl)
	files := mock.NewMockVaultStore(ctrl)
	validate := mock.NewMockValidator(ctrl)
	svc := NewService(keys, slots, formats, records, files, logger.Nop(), WithValidator(validate))

	validate.EXPECT().Validate(gomock.Any(), gomock.Any()).Return(validators.ErrInvalidUsername)

	// No other collaborator carries an expectation: a validation failure
	// must abort before any key material is generated.
	_, err := svc.Create(context.Background(), testParams(t, models.FormatV2))
	require.ErrorIs(t, err, validators.ErrInvalidUsername)
}

func TestService_Create_UnwritableDirectory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	keys := mock.NewMockKeyService(ctrl)
	files := mock.NewMockVaultStore(ctrl)
	svc := NewService(keys, mock.NewMockManager(ctrl), mock.NewMockFormatService(ctrl), mock.NewMockSerializer(ctrl), files, logger.Nop())

	params := testParams(t, models.FormatV2)
	files.EXPECT().CheckWritable(filepath.Dir(params.Path)).Return(errors.New("read-only filesystem"))

	_, err := svc.Create(context.Background(), params)
	require.ErrorIs(t, err, validators.ErrInvalidPath)
	assert.Contains(t, err.Error(), "read-only filesystem")
}

func TestService_Create_StepOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	keys := mock.NewMockKeyService(ctrl)
	slots := mock.NewMockManager(ctrl)
	formats := mock.NewMockFormatService(ctrl)
	records := mock.NewMockSerializer(ctrl)
	files := mock.NewMockVaultStore(ctrl)
	validate := mock.NewMockValidator(ctrl)
	svc := NewService(keys, slots, formats, records, files, logger.Nop(), WithValidator(validate))

	params := testParams(t, models.FormatV2)
	kdf := models.KDFParams{Kind: models.KDFArgon2id, Time: 1, MemoryKiB: 8, Threads: 1}

	salt := bytes.Repeat([]byte{0x5A}, models.SaltLen)
	dek := bytes.Repeat([]byte{0xD0}, models.DEKLen)
	kek := bytes.Repeat([]byte{0xE0}, models.KEKLen)
	slotSalt := bytes.Repeat([]byte{0x51}, models.SaltLen)
	iv := bytes.Repeat([]byte{0x1F}, models.IVLen)
	plain := []byte("serialized-record")
	ciphertext := []byte("sealed-record")
	envelope := []byte("data-envelope")
	out := []byte("container-bytes")
	adminSlot := &models.KeySlot{Active: true, Username: "alice", Role: models.RoleAdmin}

	gomock.InOrder(
		validate.EXPECT().Validate(gomock.Any(), params).Return(nil),
		files.EXPECT().CheckWritable(filepath.Dir(params.Path)).Return(nil),
		keys.EXPECT().GenerateSalt().Return(append([]byte(nil), salt...), nil),
		// The DEK is wiped the moment it enters the secret buffer, so the
		// mock hands out a copy and the original stays comparable.
		keys.EXPECT().GenerateDEK().Return(append([]byte(nil), dek...), nil),
		slots.EXPECT().DeriveSlotKEK(adminPassword, kdf).Return(append([]byte(nil), kek...), append([]byte(nil), slotSalt...), nil),
		slots.EXPECT().Seal(dek, kek, slotSalt, "alice", false, models.RoleAdmin, kdf).Return(adminSlot, nil),
		records.EXPECT().Marshal(gomock.Any()).Return(append([]byte(nil), plain...), nil),
		keys.EXPECT().GenerateIV().Return(append([]byte(nil), iv...), nil),
		keys.EXPECT().EncryptPayload(plain, dek, iv).Return(ciphertext, nil),
		formats.EXPECT().BuildEnvelope(ciphertext, format.EnvelopeOptions{
			Salt:          salt,
			IV:            iv,
			FECRedundancy: params.Policy.DataRedundancy,
		}).Return(envelope, nil),
		formats.EXPECT().BuildContainer(gomock.Any(), params.Policy.KDFIterations, envelope, params.Policy.DataRedundancy).Return(out, nil),
		files.EXPECT().Save(gomock.Any(), params.Path, out).Return(nil),
	)

	res, err := svc.Create(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, dek, res.DEK)
	require.NotNil(t, res.Header)
	require.Len(t, res.Header.Slots, 1)
	assert.Equal(t, "alice", res.Header.Slots[0].Username)
}

func TestService_Create_TokenEnrollmentFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokens := mock.NewMockTokenService(ctrl)
	tokens.EXPECT().CreateCredential(gomock.Any(), "1234").Return(nil, errors.New("token removed"))

	svc := newTestEngine(t, WithTokenService(tokens))
	params := testParams(t, models.FormatV2)
	params.Policy.RequireHWToken = true
	params.Admin.TokenPIN = "1234"

	_, err := svc.Create(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hardware token enrollment")
	requireNoFile(t, params.Path)
}

func TestService_Create_TokenResponseFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	tokens := mock.NewMockTokenService(ctrl)
	gomock.InOrder(
		tokens.EXPECT().CreateCredential(gomock.Any(), "1234").Return(&token.Credential{Serial: []byte("YK-5C-0001")}, nil),
		tokens.EXPECT().ChallengeResponse(gomock.Any(), gomock.Len(models.ChallengeLen)).Return(nil, errors.New("touch timeout")),
	)

	svc := newTestEngine(t, WithTokenService(tokens))
	params := testParams(t, models.FormatV2)
	params.Policy.RequireHWToken = true
	params.Admin.TokenPIN = "1234"

	_, err := svc.Create(context.Background(), params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hardware token response")
	requireNoFile(t, params.Path)
}

func TestService_Create_SerializeFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	records := mock.NewMockSerializer(ctrl)
	records.EXPECT().Marshal(gomock.Any()).Return(nil, record.ErrSerializationFailed)

	log := logger.Nop()
	keys := crypto.NewKeyService()
	svc := NewService(keys, keyslot.NewManager(keys), format.New(nil, log), records, store.NewFileStore(log), log)

	params := testParams(t, models.FormatV2)
	_, err := svc.Create(context.Background(), params)
	require.ErrorIs(t, err, record.ErrSerializationFailed)
	assert.Contains(t, err.Error(), "serialize initial record")
	requireNoFile(t, params.Path)
}

func TestService_Create_WriteFailureSurfaces(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	files := mock.NewMockVaultStore(ctrl)
	files.EXPECT().CheckWritable(gomock.Any()).Return(nil)
	files.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	log := logger.Nop()
	keys := crypto.NewKeyService()
	svc := NewService(keys, keyslot.NewManager(keys), format.New(nil, log), record.NewSerializer(), files, log)

	_, err := svc.Create(context.Background(), testParams(t, models.FormatV2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
