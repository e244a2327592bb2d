// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// keyService is the private implementation of [KeyService].
type keyService struct{}

// NewKeyService constructs the production [KeyService]. The service is
// stateless; per-slot KDF costs travel with each call in [models.KDFParams].
func NewKeyService() KeyService {
	return &keyService{}
}

// GenerateSalt implements [KeyService]. It reads 32 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (k *keyService) GenerateSalt() ([]byte, error) {
	return k.randomBytes(models.SaltLen, "salt")
}

// GenerateDEK implements [KeyService]. It reads 32 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (k *keyService) GenerateDEK() ([]byte, error) {
	return k.randomBytes(models.DEKLen, "dek")
}

// GenerateIV implements [KeyService]. It reads 12 random bytes from the OS
// CSPRNG. Returns an error if the random read fails.
func (k *keyService) GenerateIV() ([]byte, error) {
	return k.randomBytes(models.IVLen, "iv")
}

// GenerateChallenge implements [KeyService]. It reads 64 random bytes from
// the OS CSPRNG. Returns an error if the random read fails.
func (k *keyService) GenerateChallenge() ([]byte, error) {
	return k.randomBytes(models.ChallengeLen, "challenge")
}

func (k *keyService) randomBytes(n int, what string) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("%w: generate %s: %v", ErrCryptoFailure, what, err)
	}
	return b, nil
}

// DeriveKEK implements [KeyService]. It derives a 256-bit key-encryption key
// from password and salt using the function selected by params. Cost
// parameters are validated here because they arrive from untrusted vault
// headers: a zero Argon2id time cost or PBKDF2 iteration count would
// otherwise panic inside the KDF.
func (k *keyService) DeriveKEK(password string, salt []byte, params models.KDFParams) ([]byte, error) {
	if len(salt) != models.SaltLen {
		return nil, fmt.Errorf("%w: kdf salt is %d bytes, want %d", ErrCryptoFailure, len(salt), models.SaltLen)
	}

	switch params.Kind {
	case models.KDFArgon2id:
		if params.Time == 0 || params.Threads == 0 || params.MemoryKiB < 8*uint32(params.Threads) {
			return nil, fmt.Errorf("%w: invalid argon2id cost (time=%d memory=%dKiB threads=%d)",
				ErrCryptoFailure, params.Time, params.MemoryKiB, params.Threads)
		}
		return argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Threads, models.KEKLen), nil

	case models.KDFPBKDF2:
		if params.Iterations == 0 {
			return nil, fmt.Errorf("%w: pbkdf2 iteration count is zero", ErrCryptoFailure)
		}
		return pbkdf2.Key([]byte(password), salt, int(params.Iterations), models.KEKLen, sha256.New), nil

	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownKDF, params.Kind)
	}
}

// CombineTokenResponse implements [KeyService]. It XORs a 32-byte hardware
// token response into a password-derived KEK, producing the hybrid KEK. The
// inputs are not modified.
func (k *keyService) CombineTokenResponse(kek, response []byte) ([]byte, error) {
	if len(kek) != models.KEKLen || len(response) != models.KEKLen {
		return nil, fmt.Errorf("%w: hybrid kek needs %d-byte inputs (kek=%d response=%d)",
			ErrCryptoFailure, models.KEKLen, len(kek), len(response))
	}
	hybrid := make([]byte, models.KEKLen)
	for i := range hybrid {
		hybrid[i] = kek[i] ^ response[i]
	}
	return hybrid, nil
}

// WrapDEK implements [KeyService]. It seals DEK under KEK with AES-256-GCM.
// A random 12-byte nonce is prepended to the ciphertext so that the unwrap
// side can locate it: blob = nonce ‖ ciphertext ‖ tag.
func (k *keyService) WrapDEK(dek, kek []byte) ([]byte, error) {
	if len(dek) != models.DEKLen {
		return nil, fmt.Errorf("%w: dek is %d bytes, want %d", ErrCryptoFailure, len(dek), models.DEKLen)
	}

	gcm, err := k.aead(kek)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generate wrap nonce: %v", ErrCryptoFailure, err)
	}

	// Prepend the nonce so UnwrapDEK can split it out again.
	return append(nonce, gcm.Seal(nil, nonce, dek, nil)...), nil
}

// UnwrapDEK implements [KeyService]. It opens a blob produced by
// [keyService.WrapDEK]. The blob must be exactly WrappedDEKLen bytes. Returns
// ErrAuthenticationFailed when the tag check rejects, which for key slots
// means the supplied password derived the wrong KEK.
func (k *keyService) UnwrapDEK(wrapped, kek []byte) ([]byte, error) {
	if len(wrapped) != models.WrappedDEKLen {
		return nil, fmt.Errorf("%w: wrapped dek is %d bytes, want %d",
			ErrCryptoFailure, len(wrapped), models.WrappedDEKLen)
	}

	gcm, err := k.aead(kek)
	if err != nil {
		return nil, err
	}

	nonce, ciphertext := wrapped[:gcm.NonceSize()], wrapped[gcm.NonceSize():]
	dek, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap dek: %v", ErrAuthenticationFailed, err)
	}
	return dek, nil
}

// EncryptPayload implements [KeyService]. It seals plaintext under the DEK
// with AES-256-GCM. The IV comes from the caller because the envelope stores
// it in its own field rather than inside the ciphertext.
func (k *keyService) EncryptPayload(plaintext, dek, iv []byte) ([]byte, error) {
	gcm, err := k.aead(dek)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrCryptoFailure, len(iv), gcm.NonceSize())
	}
	return gcm.Seal(nil, iv, plaintext, nil), nil
}

// DecryptPayload implements [KeyService]. It opens ciphertext sealed by
// [keyService.EncryptPayload]. A tag rejection surfaces as
// ErrAuthenticationFailed; the caller decides whether that means a wrong key
// or a corrupted file.
func (k *keyService) DecryptPayload(ciphertext, dek, iv []byte) ([]byte, error) {
	gcm, err := k.aead(dek)
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrCryptoFailure, len(iv), gcm.NonceSize())
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: open payload: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// VerifierHash implements [KeyService]. It computes SHA-256(KEK ‖ label).
// The label domain-separates the verifier from the KEK itself, so the two
// values serve different purposes even though they share input material.
func (k *keyService) VerifierHash(kek []byte, label string) []byte {
	h := sha256.New()
	h.Write(kek)
	h.Write([]byte(label))
	return h.Sum(nil)
}

func (k *keyService) aead(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: create cipher: %v", ErrCryptoFailure, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: create gcm: %v", ErrCryptoFailure, err)
	}
	return gcm, nil
}
