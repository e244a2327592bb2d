package validators

import (
	"context"

	"github.com/nbutton23/zxcvbn-go"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a subset
// of fields (field-level scoping).
const (
	// FieldPath targets the destination vault file path.
	FieldPath = "path"

	// FieldUsername targets the slot username.
	FieldUsername = "username"

	// FieldPassword targets password presence. Open-style calls use this
	// alone: an existing vault may well have been created under an older,
	// weaker policy.
	FieldPassword = "password"

	// FieldPasswordStrength additionally enforces the strength policy on
	// the password. Used when the password is being established: creation,
	// slot addition, password change.
	FieldPasswordStrength = "password strength"

	// FieldTokenPIN targets the hardware-token PIN format. An absent PIN
	// passes: tokens without a PIN are unlocked by touch alone.
	FieldTokenPIN = "token_pin"

	// FieldFormat targets the requested container layout version.
	FieldFormat = "format"

	// FieldPolicy targets the security policy block.
	FieldPolicy = "policy"
)

// Username, password and PIN bounds enforced by the validator.
const (
	MinUsernameLen = 3
	MaxUsernameLen = 64

	// MinPasswordLen is the hard length floor applied before any strength
	// estimation.
	MinPasswordLen = 8

	// MinPasswordScore is the minimum zxcvbn score (0-4) for a new
	// password. 2 corresponds to "somewhat guessable": above pure
	// dictionary words and keyboard walks.
	MinPasswordScore = 2

	MinTokenPINLen = 4
	MaxTokenPINLen = 63
)

// CreationValidator implements the Validator interface for the engine's
// input models: CreationParams and Credentials. Both value and pointer
// receivers are accepted, and optional field-level scoping is available via
// variadic field name arguments.
type CreationValidator struct {
}

// NewCreationValidator constructs a new CreationValidator and returns it as
// the Validator interface.
func NewCreationValidator() Validator {
	return &CreationValidator{}
}

// Validate dispatches validation to the appropriate type-specific method
// based on the dynamic type of obj.
//
// Supported types:
//   - models.CreationParams / *models.CreationParams
//   - models.Credentials / *models.Credentials
//
// Returns ErrUnsupportedType if obj does not match any known model.
// Optional fields restrict validation to the named subset; when omitted,
// a sensible default set of fields is validated.
func (v *CreationValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.CreationParams:
		return v.validateCreationParams(ctx, value, fields...)
	case *models.CreationParams:
		return v.validateCreationParams(ctx, *value, fields...)

	case models.Credentials:
		return v.validateCredentials(ctx, value, fields...)
	case *models.Credentials:
		return v.validateCredentials(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validateCreationParams validates the complete input of a vault creation.
//
// Default validated fields (when none specified): Path, Format, Policy,
// Username, Password (with strength), TokenPIN. Credential fields are
// delegated to validateCredentials against params.Admin.
//
// Returns the first encountered validation error or nil.
func (v *CreationValidator) validateCreationParams(ctx context.Context, params models.CreationParams, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldPath, FieldFormat, FieldPolicy,
			FieldUsername, FieldPassword, FieldPasswordStrength, FieldTokenPIN}
	}

	for _, f := range fields {
		switch f {
		case FieldPath:
			if params.Path == "" {
				return ErrInvalidPath
			}
		case FieldFormat:
			if params.Format != models.FormatV1 && params.Format != models.FormatV2 {
				return ErrInvalidFormat
			}
		case FieldPolicy:
			if err := v.validatePolicy(params.Policy); err != nil {
				return err
			}
		case FieldUsername, FieldPassword, FieldPasswordStrength, FieldTokenPIN:
			if err := v.validateCredentials(ctx, params.Admin, f); err != nil {
				return err
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validateCredentials validates one user's authentication inputs.
//
// Default validated fields: Username, Password (presence only), TokenPIN.
// Strength checking is opt-in via FieldPasswordStrength because it is only
// meaningful for passwords being established, never for passwords being
// presented.
func (v *CreationValidator) validateCredentials(ctx context.Context, creds models.Credentials, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldUsername, FieldPassword, FieldTokenPIN}
	}

	for _, f := range fields {
		switch f {
		case FieldUsername:
			if len(creds.Username) < MinUsernameLen || len(creds.Username) > MaxUsernameLen {
				return ErrInvalidUsername
			}
		case FieldPassword:
			if creds.Password == "" {
				return ErrEmptyPassword
			}
		case FieldPasswordStrength:
			if err := v.validatePasswordStrength(creds.Password, creds.Username); err != nil {
				return err
			}
		case FieldTokenPIN:
			if creds.TokenPIN != "" &&
				(len(creds.TokenPIN) < MinTokenPINLen || len(creds.TokenPIN) > MaxTokenPINLen) {
				return ErrInvalidTokenPIN
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validatePasswordStrength applies the length floor, then the zxcvbn
// estimator. The username is fed in as associated user input so that
// password == username scores as guessable.
func (v *CreationValidator) validatePasswordStrength(password, username string) error {
	if len(password) < MinPasswordLen {
		return ErrWeakPassword
	}
	result := zxcvbn.PasswordStrength(password, []string{username})
	if result.Score < MinPasswordScore {
		return ErrWeakPassword
	}
	return nil
}

// validatePolicy rejects policies that no later pipeline step could satisfy:
// an out-of-range redundancy, a negative history depth, or a policy that
// configures no usable key-derivation function at all.
func (v *CreationValidator) validatePolicy(p models.SecurityPolicy) error {
	if p.DataRedundancy > 100 {
		return ErrInvalidPolicy
	}
	if p.PasswordHistoryDepth < 0 {
		return ErrInvalidPolicy
	}
	argonUsable := p.Argon2Time > 0 && p.Argon2Threads > 0
	if !argonUsable && p.KDFIterations == 0 {
		return ErrInvalidPolicy
	}
	return nil
}
