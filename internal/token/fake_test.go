package token

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

func newTestFake() *Fake {
	return NewFake([]byte("FAKE-001"), []byte("device secret"), "1234")
}

func TestFake_CreateCredential(t *testing.T) {
	f := newTestFake()

	cred, err := f.CreateCredential(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, []byte("FAKE-001"), cred.Serial)
}

func TestFake_CreateCredential_WrongPIN(t *testing.T) {
	f := newTestFake()

	_, err := f.CreateCredential(context.Background(), "0000")
	require.ErrorIs(t, err, ErrTokenRejected)
}

func TestFake_CreateCredential_EmptyPINDisablesCheck(t *testing.T) {
	f := NewFake([]byte("FAKE-002"), []byte("secret"), "")

	_, err := f.CreateCredential(context.Background(), "anything")
	require.NoError(t, err)
}

func TestFake_ChallengeResponse_Deterministic(t *testing.T) {
	f := newTestFake()
	challenge := bytes.Repeat([]byte{0x42}, models.ChallengeLen)

	first, err := f.ChallengeResponse(context.Background(), challenge)
	require.NoError(t, err)
	require.Len(t, first, ResponseLen)

	second, err := f.ChallengeResponse(context.Background(), challenge)
	require.NoError(t, err)
	assert.Equal(t, first, second, "same challenge must yield the same response")

	other, err := f.ChallengeResponse(context.Background(), bytes.Repeat([]byte{0x43}, models.ChallengeLen))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestFake_ChallengeResponse_RejectsBadChallengeLength(t *testing.T) {
	f := newTestFake()

	_, err := f.ChallengeResponse(context.Background(), make([]byte, 32))
	require.ErrorIs(t, err, ErrTokenFailure)
}

func TestFake_HonoursContextCancellation(t *testing.T) {
	f := newTestFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.CreateCredential(ctx, "1234")
	require.ErrorIs(t, err, ErrTokenFailure)

	_, err = f.ChallengeResponse(ctx, bytes.Repeat([]byte{1}, models.ChallengeLen))
	require.ErrorIs(t, err, ErrTokenFailure)
}
