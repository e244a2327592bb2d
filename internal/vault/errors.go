package vault

import "errors"

// Sentinel errors returned by vault operations. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrLegacyFormat is returned when a key-slot operation targets a
	// single-user (V1) file, which has no slot collection to operate on.
	ErrLegacyFormat = errors.New("vault: single-user file has no key slots")

	// ErrAdminRequired is returned when the authorising credentials
	// resolve to a slot without the admin role.
	ErrAdminRequired = errors.New("vault: operation requires an admin slot")

	// ErrSlotExists is returned when a new slot's username already has an
	// active slot. Duplicate usernames would make slot lookup ambiguous.
	ErrSlotExists = errors.New("vault: a slot for this username already exists")

	// ErrLastAdminSlot is returned when deactivation would leave the vault
	// without any active admin slot, which would freeze the slot
	// collection forever.
	ErrLastAdminSlot = errors.New("vault: cannot deactivate the last active admin slot")

	// ErrKeyMismatch is returned by Save when the supplied key does not
	// open the vault file it is about to replace. Writing anyway would
	// leave a file whose key slots wrap a different key.
	ErrKeyMismatch = errors.New("vault: data key does not open this vault")

	// ErrTokenUnavailable is returned when the vault requires a hardware
	// token but the service was built without one.
	ErrTokenUnavailable = errors.New("vault: hardware token required but no token service is configured")

	// ErrTaskRunning is returned by CreationTask.Result while the task's
	// pipeline has not finished.
	ErrTaskRunning = errors.New("vault: creation task still running")
)
