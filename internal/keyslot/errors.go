package keyslot

import "errors"

// Sentinel errors returned by key-slot operations. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrSlotInactive is returned when an operation targets a tombstoned
	// slot. Deliberately distinct from an authentication failure: the
	// caller can tell "this user was removed" from "wrong password".
	ErrSlotInactive = errors.New("keyslot: slot is deactivated")

	// ErrSlotNotFound is returned when no active slot matches a username.
	ErrSlotNotFound = errors.New("keyslot: no slot for username")

	// ErrPasswordReused is returned when a password change supplies a
	// password that matches the current one or an entry in the slot's
	// password history.
	ErrPasswordReused = errors.New("keyslot: password was used before")

	// ErrTokenResponseRequired is returned when a slot was enrolled with a
	// hardware token but no token response was supplied.
	ErrTokenResponseRequired = errors.New("keyslot: hardware token response required")
)
