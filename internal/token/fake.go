// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package token

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// Fake is a deterministic software token. It answers challenges with
// HMAC-SHA256 over a fixed device secret, which reproduces a real token's one
// property the engine depends on: the same challenge always yields the same
// response. Useful in tests and in demos without hardware; it offers no
// security, the secret lives in process memory.
type Fake struct {
	serial []byte
	secret []byte
	pin    string
}

var _ Service = (*Fake)(nil)

// NewFake builds a software token with the given serial and device secret.
// An empty pin disables PIN checking.
func NewFake(serial, secret []byte, pin string) *Fake {
	return &Fake{
		serial: append([]byte(nil), serial...),
		secret: append([]byte(nil), secret...),
		pin:    pin,
	}
}

// CreateCredential implements [Service]. The fake has exactly one credential,
// so enrollment only verifies the PIN and hands out the serial.
func (f *Fake) CreateCredential(ctx context.Context, pin string) (*Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenFailure, err)
	}
	if f.pin != "" && subtle.ConstantTimeCompare([]byte(f.pin), []byte(pin)) != 1 {
		return nil, fmt.Errorf("%w: wrong pin", ErrTokenRejected)
	}
	return &Credential{Serial: append([]byte(nil), f.serial...)}, nil
}

// ChallengeResponse implements [Service].
func (f *Fake) ChallengeResponse(ctx context.Context, challenge []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenFailure, err)
	}
	if len(challenge) != models.ChallengeLen {
		return nil, fmt.Errorf("%w: challenge is %d bytes, want %d",
			ErrTokenFailure, len(challenge), models.ChallengeLen)
	}
	mac := hmac.New(sha256.New, f.secret)
	mac.Write(challenge)
	return mac.Sum(nil), nil
}
