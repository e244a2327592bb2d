package config

import "errors"

// Validation errors returned by [EngineConfig.validate] when a merged
// configuration group is out of range or unusable.
var (
	// ErrInvalidKDFConfigs indicates unusable key-derivation settings
	// (for example, no Argon2 parameters and a zero iteration count).
	ErrInvalidKDFConfigs = errors.New("invalid kdf configuration")
	// ErrInvalidFECConfigs indicates invalid forward-error-correction
	// settings (for example, a redundancy above 100 percent).
	ErrInvalidFECConfigs = errors.New("invalid fec configuration")
	// ErrInvalidVaultConfigs indicates invalid vault policy settings
	// (for example, a password history depth beyond the representable
	// range).
	ErrInvalidVaultConfigs = errors.New("invalid vault configuration")
)
