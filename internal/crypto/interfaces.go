package crypto

import "github.com/tjdeveng/KeepTower-sub013/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/key_service_mock.go -package=mock

// KeyService owns every key-material operation in the engine. It knows
// nothing about files, envelopes or hardware tokens; its single job is to
// generate, derive, wrap and apply keys.
//
// The key lifecycle during vault creation:
//
//	Salt, DEK = GenerateSalt() + GenerateDEK()            (steps 2-3)
//	KEK       = DeriveKEK(password, salt, params)         (step 3)
//	KEK'      = CombineTokenResponse(KEK, response)       (step 4, optional)
//	blob      = WrapDEK(DEK, KEK')                        (step 5)
//	ct        = EncryptPayload(record, DEK, iv)           (step 7)
type KeyService interface {
	// GenerateSalt returns a fresh 32-byte KDF salt from the OS CSPRNG.
	// The salt is not a secret and is stored in cleartext.
	GenerateSalt() ([]byte, error)

	// GenerateDEK returns a fresh 32-byte data-encryption key from the OS
	// CSPRNG. The DEK encrypts the whole vault payload and never touches
	// disk in plaintext.
	GenerateDEK() ([]byte, error)

	// GenerateIV returns a fresh 12-byte AES-GCM initialisation vector.
	// A new IV is drawn for every payload encryption.
	GenerateIV() ([]byte, error)

	// GenerateChallenge returns a fresh 64-byte hardware-token challenge.
	// The challenge is fixed at enrollment and stored in cleartext in the
	// vault envelope.
	GenerateChallenge() ([]byte, error)

	// DeriveKEK hardens password into a 32-byte key-encryption key using
	// the function and cost recorded in params. The KEK exists only in
	// memory for the duration of a wrap or unwrap.
	DeriveKEK(password string, salt []byte, params models.KDFParams) ([]byte, error)

	// CombineTokenResponse folds a 32-byte hardware-token response into a
	// password-derived KEK by bitwise XOR, yielding the hybrid KEK that
	// requires both factors to reproduce.
	CombineTokenResponse(kek, response []byte) ([]byte, error)

	// WrapDEK seals the DEK under the KEK with AES-256-GCM. The blob is
	// nonce ‖ ciphertext ‖ tag and is safe to store in a vault header.
	WrapDEK(dek, kek []byte) ([]byte, error)

	// UnwrapDEK opens a blob produced by WrapDEK. An authentication
	// failure almost always means the wrong password (hence wrong KEK).
	UnwrapDEK(wrapped, kek []byte) ([]byte, error)

	// EncryptPayload seals plaintext under the DEK with AES-256-GCM using
	// the caller-supplied IV. The IV is stored in the envelope, not in the
	// ciphertext, so it is an explicit parameter here.
	EncryptPayload(plaintext, dek, iv []byte) ([]byte, error)

	// DecryptPayload opens ciphertext sealed by EncryptPayload.
	DecryptPayload(ciphertext, dek, iv []byte) ([]byte, error)

	// VerifierHash computes SHA-256(KEK ‖ label). The label domain-separates
	// the verifier from the KEK itself; the result is one-way and safe to
	// keep in a slot's password history.
	VerifierHash(kek []byte, label string) []byte
}
