// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"context"
	"crypto/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/keyslot"
	"github.com/tjdeveng/KeepTower-sub013/internal/store"
	"github.com/tjdeveng/KeepTower-sub013/internal/token"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

func testAccount(name string) models.Account {
	return models.Account{
		Name:     name,
		Username: "login@" + name,
		Password: "entry-password",
		URL:      "https://" + name + ".example",
	}
}

// ── Open failure modes ───────────────────────────────────────────────────────

func TestService_Open_WrongPassword(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV2)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	_, err = svc.Open(ctx, params.Path, models.Credentials{Username: "alice", Password: "not-the-password1"})
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
}

func TestService_Open_UnknownUsername(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV2)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	_, err = svc.Open(ctx, params.Path, models.Credentials{Username: "mallory", Password: adminPassword})
	require.ErrorIs(t, err, keyslot.ErrSlotNotFound)
}

func TestService_Open_V1WrongPassword(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV1)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	_, err = svc.Open(ctx, params.Path, models.Credentials{Username: "alice", Password: "not-the-password1"})
	require.ErrorIs(t, err, crypto.ErrAuthenticationFailed)
}

func TestService_Open_MissingFile(t *testing.T) {
	svc := newTestEngine(t)

	_, err := svc.Open(context.Background(), testParams(t, models.FormatV2).Path, models.Credentials{Username: "alice", Password: adminPassword})
	require.ErrorIs(t, err, store.ErrFileNotFound)
}

func TestService_Open_TruncatedContainer(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV2)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	raw, err := os.ReadFile(params.Path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(params.Path, raw[:40], 0o600))

	_, err = svc.Open(ctx, params.Path, params.Admin)
	require.ErrorIs(t, err, format.ErrCorruptedFile)
}

func TestService_Open_TokenVaultWithoutTokenService(t *testing.T) {
	fake := token.NewFake([]byte("YK-5C-0001"), []byte("device-secret"), "")
	withToken := newTestEngine(t, WithTokenService(fake))
	ctx := context.Background()

	params := testParams(t, models.FormatV2)
	params.Policy.RequireHWToken = true

	_, err := withToken.Create(ctx, params)
	require.NoError(t, err)

	// Same file, engine with no token collaborator configured.
	withoutToken := newTestEngine(t)
	_, err = withoutToken.Open(ctx, params.Path, params.Admin)
	require.ErrorIs(t, err, ErrTokenUnavailable)
}

func TestService_Open_V1TokenRoundTrip(t *testing.T) {
	fake := token.NewFake([]byte("YK-5C-0001"), []byte("device-secret"), "")
	svc := newTestEngine(t, WithTokenService(fake))
	ctx := context.Background()

	params := testParams(t, models.FormatV1)
	params.Policy.RequireHWToken = true

	res, err := svc.Create(ctx, params)
	require.NoError(t, err)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	assert.Equal(t, res.DEK, opened.DEK)
	assert.True(t, opened.Metadata.RequiresHWToken)
	assert.Len(t, opened.Metadata.TokenChallenge, models.ChallengeLen)
}

// ── Save and reopen ──────────────────────────────────────────────────────────

func TestService_SaveOpen_RoundTrip(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV2)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)

	opened.Data.Accounts = append(opened.Data.Accounts, testAccount("mail"))
	require.NoError(t, svc.Save(ctx, params.Path, opened.DEK, opened.Data))

	reopened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	require.Len(t, reopened.Data.Accounts, 1)
	assert.Equal(t, "mail", reopened.Data.Accounts[0].Name)
	assert.Equal(t, opened.DEK, reopened.DEK)
	// Every open of a current-version record is an access-tracking write.
	assert.True(t, reopened.Modified)
	assert.Equal(t, opened.Data.Metadata.AccessCount+1, reopened.Data.Metadata.AccessCount)
	assert.NotZero(t, reopened.Data.Metadata.LastModified)
}

func TestService_Save_V1Envelope(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV1)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)

	opened.Data.Accounts = append(opened.Data.Accounts, testAccount("bank"))
	require.NoError(t, svc.Save(ctx, params.Path, opened.DEK, opened.Data))

	reopened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	require.Len(t, reopened.Data.Accounts, 1)
	assert.Equal(t, "bank", reopened.Data.Accounts[0].Name)
	// The rewritten envelope keeps the file's own FEC settings.
	assert.True(t, reopened.Metadata.HasFEC)
	assert.Equal(t, uint8(10), reopened.Metadata.FECRedundancy)
}

func TestService_Save_KeyMismatch(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV2)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	foreign := make([]byte, models.DEKLen)
	_, err = rand.Read(foreign)
	require.NoError(t, err)

	err = svc.Save(ctx, params.Path, foreign, &models.VaultData{})
	require.ErrorIs(t, err, ErrKeyMismatch)

	// The rejected write must not have touched the file.
	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	assert.Empty(t, opened.Data.Accounts)
}

// ── Schema migration through the engine ──────────────────────────────────────

func TestService_Open_LegacyRecordMigration(t *testing.T) {
	svc := newTestEngine(t)
	ctx := context.Background()
	params := testParams(t, models.FormatV1)

	_, err := svc.Create(ctx, params)
	require.NoError(t, err)

	opened, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)

	// A record with accounts but schema version zero is what files written
	// before versioning look like.
	legacy := &models.VaultData{Accounts: []models.Account{testAccount("ftp")}}
	require.NoError(t, svc.Save(ctx, params.Path, opened.DEK, legacy))

	migrated, err := svc.Open(ctx, params.Path, params.Admin)
	require.NoError(t, err)
	assert.True(t, migrated.Modified)
	assert.Equal(t, models.CurrentSchemaVersion, migrated.Data.Metadata.SchemaVersion)
	assert.Equal(t, uint64(1), migrated.Data.Metadata.AccessCount)
	assert.NotZero(t, migrated.Data.Metadata.CreatedAt)
	require.Len(t, migrated.Data.Accounts, 1)
	assert.Equal(t, "ftp", migrated.Data.Accounts[0].Name)
}
