package crypto

import (
	"bytes"
	"testing"
)

func TestSecretBuffer_HoldsAndDestroys(t *testing.T) {
	key := bytes.Repeat([]byte{0xC3}, 32)
	want := bytes.Repeat([]byte{0xC3}, 32)

	sb := NewSecretBuffer(key)

	if !bytes.Equal(sb.Bytes(), want) {
		t.Fatalf("SecretBuffer content mismatch")
	}

	sb.Destroy()
	sb.Destroy() // must be safe to repeat
}

func TestSecretBuffer_TakesOwnership(t *testing.T) {
	key := bytes.Repeat([]byte{0xC3}, 32)
	sb := NewSecretBuffer(key)
	defer sb.Destroy()

	// Whichever path was taken, the buffer holds the original material.
	if len(sb.Bytes()) != 32 || sb.Bytes()[0] != 0xC3 {
		t.Fatalf("SecretBuffer lost key material")
	}
}

func TestZero_WipesSlice(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	if !bytes.Equal(b, []byte{0, 0, 0, 0}) {
		t.Fatalf("Zero left data behind: %v", b)
	}
}
