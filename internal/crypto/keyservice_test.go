package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

func fastArgon() models.KDFParams {
	return models.KDFParams{Kind: models.KDFArgon2id, Time: 1, MemoryKiB: 8, Threads: 1}
}

func TestGenerateSalt_LengthAndRandomness(t *testing.T) {
	svc := NewKeyService()

	s1, err := svc.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}
	s2, err := svc.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt error: %v", err)
	}

	if len(s1) != models.SaltLen {
		t.Fatalf("salt length = %d, want %d", len(s1), models.SaltLen)
	}
	if bytes.Equal(s1, s2) {
		t.Fatalf("expected salts to differ, but they are equal")
	}
}

func TestGenerateDEK_LengthAndRandomness(t *testing.T) {
	svc := NewKeyService()

	d1, err := svc.GenerateDEK()
	if err != nil {
		t.Fatalf("GenerateDEK error: %v", err)
	}
	d2, err := svc.GenerateDEK()
	if err != nil {
		t.Fatalf("GenerateDEK error: %v", err)
	}

	if len(d1) != models.DEKLen {
		t.Fatalf("DEK length = %d, want %d", len(d1), models.DEKLen)
	}
	if bytes.Equal(d1, d2) {
		t.Fatalf("expected DEKs to differ, but they are equal")
	}
}

func TestGenerateIV_Length(t *testing.T) {
	svc := NewKeyService()

	iv, err := svc.GenerateIV()
	if err != nil {
		t.Fatalf("GenerateIV error: %v", err)
	}
	if len(iv) != models.IVLen {
		t.Fatalf("IV length = %d, want %d", len(iv), models.IVLen)
	}
}

func TestGenerateChallenge_LengthAndRandomness(t *testing.T) {
	svc := NewKeyService()

	c1, err := svc.GenerateChallenge()
	if err != nil {
		t.Fatalf("GenerateChallenge error: %v", err)
	}
	c2, err := svc.GenerateChallenge()
	if err != nil {
		t.Fatalf("GenerateChallenge error: %v", err)
	}

	if len(c1) != models.ChallengeLen {
		t.Fatalf("challenge length = %d, want %d", len(c1), models.ChallengeLen)
	}
	if bytes.Equal(c1, c2) {
		t.Fatalf("expected challenges to differ, but they are equal")
	}
}

func TestDeriveKEK_Argon2idDeterministic(t *testing.T) {
	svc := NewKeyService()

	password := "correct horse battery staple"
	salt := bytes.Repeat([]byte{0xAB}, models.SaltLen)

	k1, err := svc.DeriveKEK(password, salt, fastArgon())
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}
	k2, err := svc.DeriveKEK(password, salt, fastArgon())
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}

	if len(k1) != models.KEKLen {
		t.Fatalf("KEK length = %d, want %d", len(k1), models.KEKLen)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected KEKs to match for same password+salt")
	}
}

func TestDeriveKEK_DifferentSaltProducesDifferentKEK(t *testing.T) {
	svc := NewKeyService()

	salt1 := bytes.Repeat([]byte{0x01}, models.SaltLen)
	salt2 := bytes.Repeat([]byte{0x02}, models.SaltLen)

	k1, err := svc.DeriveKEK("same password", salt1, fastArgon())
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}
	k2, err := svc.DeriveKEK("same password", salt2, fastArgon())
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}

	if bytes.Equal(k1, k2) {
		t.Fatalf("expected different KEKs for different salts")
	}
}

func TestDeriveKEK_PBKDF2(t *testing.T) {
	svc := NewKeyService()

	salt := bytes.Repeat([]byte{0x55}, models.SaltLen)
	params := models.KDFParams{Kind: models.KDFPBKDF2, Iterations: 1000}

	k1, err := svc.DeriveKEK("password", salt, params)
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}
	k2, err := svc.DeriveKEK("password", salt, params)
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}

	if len(k1) != models.KEKLen {
		t.Fatalf("KEK length = %d, want %d", len(k1), models.KEKLen)
	}
	if !bytes.Equal(k1, k2) {
		t.Fatalf("expected PBKDF2 to be deterministic")
	}

	argonKEK, err := svc.DeriveKEK("password", salt, fastArgon())
	if err != nil {
		t.Fatalf("DeriveKEK error: %v", err)
	}
	if bytes.Equal(k1, argonKEK) {
		t.Fatalf("expected PBKDF2 and Argon2id to derive different keys")
	}
}

func TestDeriveKEK_RejectsBadParams(t *testing.T) {
	svc := NewKeyService()
	salt := bytes.Repeat([]byte{0x55}, models.SaltLen)

	if _, err := svc.DeriveKEK("pw", salt[:8], fastArgon()); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("short salt: got %v, want ErrCryptoFailure", err)
	}

	zeroTime := fastArgon()
	zeroTime.Time = 0
	if _, err := svc.DeriveKEK("pw", salt, zeroTime); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("zero time cost: got %v, want ErrCryptoFailure", err)
	}

	zeroIter := models.KDFParams{Kind: models.KDFPBKDF2}
	if _, err := svc.DeriveKEK("pw", salt, zeroIter); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("zero iterations: got %v, want ErrCryptoFailure", err)
	}

	unknown := models.KDFParams{Kind: 99}
	if _, err := svc.DeriveKEK("pw", salt, unknown); !errors.Is(err, ErrUnknownKDF) {
		t.Fatalf("unknown kind: got %v, want ErrUnknownKDF", err)
	}
}

func TestCombineTokenResponse_XORAndInvolution(t *testing.T) {
	svc := NewKeyService()

	kek := bytes.Repeat([]byte{0b1010_1010}, models.KEKLen)
	response := bytes.Repeat([]byte{0b0110_0110}, models.KEKLen)

	hybrid, err := svc.CombineTokenResponse(kek, response)
	if err != nil {
		t.Fatalf("CombineTokenResponse error: %v", err)
	}
	if hybrid[0] != 0b1100_1100 {
		t.Fatalf("hybrid[0] = %08b, want %08b", hybrid[0], 0b1100_1100)
	}

	// XOR is its own inverse: combining again restores the password KEK.
	restored, err := svc.CombineTokenResponse(hybrid, response)
	if err != nil {
		t.Fatalf("CombineTokenResponse error: %v", err)
	}
	if !bytes.Equal(restored, kek) {
		t.Fatalf("expected second combine to restore the original KEK")
	}

	if !bytes.Equal(kek, bytes.Repeat([]byte{0b1010_1010}, models.KEKLen)) {
		t.Fatalf("input KEK was modified")
	}
}

func TestCombineTokenResponse_RejectsBadLengths(t *testing.T) {
	svc := NewKeyService()
	good := make([]byte, models.KEKLen)

	if _, err := svc.CombineTokenResponse(good[:16], good); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("short kek: got %v, want ErrCryptoFailure", err)
	}
	if _, err := svc.CombineTokenResponse(good, good[:31]); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("short response: got %v, want ErrCryptoFailure", err)
	}
}

func TestWrapDEK_UnwrapRoundTrip(t *testing.T) {
	svc := NewKeyService()

	dek := bytes.Repeat([]byte{0xDD}, models.DEKLen)
	kek := bytes.Repeat([]byte{0x2A}, models.KEKLen)

	blob, err := svc.WrapDEK(dek, kek)
	if err != nil {
		t.Fatalf("WrapDEK error: %v", err)
	}
	if len(blob) != models.WrappedDEKLen {
		t.Fatalf("wrapped blob length = %d, want %d", len(blob), models.WrappedDEKLen)
	}

	got, err := svc.UnwrapDEK(blob, kek)
	if err != nil {
		t.Fatalf("UnwrapDEK error: %v", err)
	}
	if !bytes.Equal(got, dek) {
		t.Fatalf("unwrapped DEK mismatch")
	}
}

func TestWrapDEK_NonceRandomness(t *testing.T) {
	svc := NewKeyService()

	dek := bytes.Repeat([]byte{0xDD}, models.DEKLen)
	kek := bytes.Repeat([]byte{0x2A}, models.KEKLen)

	blob1, err := svc.WrapDEK(dek, kek)
	if err != nil {
		t.Fatalf("WrapDEK error: %v", err)
	}
	blob2, err := svc.WrapDEK(dek, kek)
	if err != nil {
		t.Fatalf("WrapDEK error: %v", err)
	}

	if bytes.Equal(blob1[:models.IVLen], blob2[:models.IVLen]) {
		t.Fatalf("expected different nonces for two wraps")
	}
	if bytes.Equal(blob1, blob2) {
		t.Fatalf("expected different blobs for two wraps")
	}
}

func TestUnwrapDEK_WrongKEKFailsAuthentication(t *testing.T) {
	svc := NewKeyService()

	dek := bytes.Repeat([]byte{0xDD}, models.DEKLen)
	kek := bytes.Repeat([]byte{0x2A}, models.KEKLen)
	wrongKEK := bytes.Repeat([]byte{0x2B}, models.KEKLen)

	blob, err := svc.WrapDEK(dek, kek)
	if err != nil {
		t.Fatalf("WrapDEK error: %v", err)
	}

	if _, err := svc.UnwrapDEK(blob, wrongKEK); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("wrong KEK: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestUnwrapDEK_TamperedBlob(t *testing.T) {
	svc := NewKeyService()

	dek := bytes.Repeat([]byte{0xDD}, models.DEKLen)
	kek := bytes.Repeat([]byte{0x2A}, models.KEKLen)

	blob, err := svc.WrapDEK(dek, kek)
	if err != nil {
		t.Fatalf("WrapDEK error: %v", err)
	}
	blob[len(blob)-1] ^= 0xFF

	if _, err := svc.UnwrapDEK(blob, kek); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("tampered blob: got %v, want ErrAuthenticationFailed", err)
	}

	if _, err := svc.UnwrapDEK(blob[:20], kek); !errors.Is(err, ErrCryptoFailure) {
		t.Fatalf("short blob: got %v, want ErrCryptoFailure", err)
	}
}

func TestEncryptPayload_DecryptRoundTrip(t *testing.T) {
	svc := NewKeyService()

	dek := bytes.Repeat([]byte{0xDD}, models.DEKLen)
	iv := bytes.Repeat([]byte{0x77}, models.IVLen)
	plaintext := []byte("the vault record graph, serialized")

	ct, err := svc.EncryptPayload(plaintext, dek, iv)
	if err != nil {
		t.Fatalf("EncryptPayload error: %v", err)
	}
	if bytes.Contains(ct, plaintext) {
		t.Fatalf("ciphertext contains plaintext")
	}

	got, err := svc.DecryptPayload(ct, dek, iv)
	if err != nil {
		t.Fatalf("DecryptPayload error: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("decrypted payload mismatch")
	}
}

func TestDecryptPayload_WrongIVFailsAuthentication(t *testing.T) {
	svc := NewKeyService()

	dek := bytes.Repeat([]byte{0xDD}, models.DEKLen)
	iv := bytes.Repeat([]byte{0x77}, models.IVLen)
	otherIV := bytes.Repeat([]byte{0x78}, models.IVLen)

	ct, err := svc.EncryptPayload([]byte("payload"), dek, iv)
	if err != nil {
		t.Fatalf("EncryptPayload error: %v", err)
	}

	if _, err := svc.DecryptPayload(ct, dek, otherIV); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("wrong IV: got %v, want ErrAuthenticationFailed", err)
	}

	ct[0] ^= 0x01
	if _, err := svc.DecryptPayload(ct, dek, iv); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("tampered ciphertext: got %v, want ErrAuthenticationFailed", err)
	}
}

func TestVerifierHash_DeterministicAndSeparated(t *testing.T) {
	svc := NewKeyService()

	kek := bytes.Repeat([]byte{0x11}, models.KEKLen)

	v1 := svc.VerifierHash(kek, "password-history")
	v2 := svc.VerifierHash(kek, "password-history")
	if !bytes.Equal(v1, v2) {
		t.Fatalf("expected VerifierHash to be deterministic")
	}

	v3 := svc.VerifierHash(kek, "other-purpose")
	if bytes.Equal(v1, v3) {
		t.Fatalf("expected VerifierHash to differ for different labels")
	}
}
