package keyslot

import "github.com/tjdeveng/KeepTower-sub013/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/keyslot_manager_mock.go -package=mock

// Manager performs every per-slot operation: building a slot around the
// shared DEK, locating a slot by username, unwrapping the DEK back out, and
// the tombstone/password lifecycle. It operates on single slots; collection
// invariants (append-only indices, last-admin protection) belong to the
// caller that owns the header.
type Manager interface {
	// Build creates a slot that wraps dek for one user. A fresh per-slot
	// salt is drawn, the KEK is derived from password with the given cost
	// (XORed with tokenResponse when non-nil), and the username is stored
	// only as a keyed hash.
	Build(dek []byte, username, password string, tokenResponse []byte, role models.SlotRole, kdf models.KDFParams) (*models.KeySlot, error)

	// DeriveSlotKEK is the first half of Build: it draws a fresh per-slot
	// salt and derives the KEK a new slot will wrap under. Split out for
	// callers that interleave hardware-token interaction between
	// derivation and sealing. Ownership of kek passes to the caller, who
	// must zero it.
	DeriveSlotKEK(password string, kdf models.KDFParams) (kek, salt []byte, err error)

	// Seal is the second half of Build: it wraps dek under a pre-derived
	// KEK and assembles the slot metadata. kek must be the DeriveSlotKEK
	// output for salt, already combined with a token response when
	// tokenEnrolled is true. The caller keeps ownership of kek.
	Seal(dek, kek, salt []byte, username string, tokenEnrolled bool, role models.SlotRole, kdf models.KDFParams) (*models.KeySlot, error)

	// Locate returns the index of the active slot whose stored hash
	// matches username, or ErrSlotNotFound. Tombstoned slots never match.
	Locate(slots []models.KeySlot, username string) (int, error)

	// Unwrap recovers the DEK from slot using password (and tokenResponse
	// for token-enrolled slots). Inactive slots fail with ErrSlotInactive
	// before any derivation work; a wrong password surfaces as the crypto
	// layer's authentication failure.
	Unwrap(slot *models.KeySlot, password string, tokenResponse []byte) ([]byte, error)

	// ChangePassword re-wraps the slot's DEK under a KEK derived from
	// newPassword, refusing passwords that match the current one or the
	// slot's history. historyDepth caps the retained history; zero keeps
	// none.
	ChangePassword(slot *models.KeySlot, oldPassword, newPassword string, tokenResponse []byte, historyDepth int) error

	// Deactivate tombstones slot in place: Active becomes false and the
	// wrapped key, salt, username hash and history are zeroed. The slot
	// keeps its index and is never reused for another user.
	Deactivate(slot *models.KeySlot)
}
