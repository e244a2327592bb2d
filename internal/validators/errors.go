package validators

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is the umbrella every field-specific error wraps, so
// callers can classify any validation failure with a single [errors.Is]
// check while still matching the precise field error.
var ErrInvalidParameter = errors.New("invalid parameter")

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidPath     = fmt.Errorf("%w: vault path is required", ErrInvalidParameter)
	ErrInvalidUsername = fmt.Errorf("%w: username must be 3-64 bytes", ErrInvalidParameter)
	ErrEmptyPassword   = fmt.Errorf("%w: password is required", ErrInvalidParameter)
	ErrWeakPassword    = fmt.Errorf("%w: password does not meet the strength policy", ErrInvalidParameter)
	ErrInvalidTokenPIN = fmt.Errorf("%w: token pin must be 4-63 bytes", ErrInvalidParameter)
	ErrInvalidFormat   = fmt.Errorf("%w: unknown vault format version", ErrInvalidParameter)
	ErrInvalidPolicy   = fmt.Errorf("%w: unusable security policy", ErrInvalidParameter)
)
