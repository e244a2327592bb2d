// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package vault

import (
	"github.com/tjdeveng/KeepTower-sub013/internal/crypto"
	"github.com/tjdeveng/KeepTower-sub013/internal/format"
	"github.com/tjdeveng/KeepTower-sub013/internal/keyslot"
	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/internal/record"
	"github.com/tjdeveng/KeepTower-sub013/internal/store"
	"github.com/tjdeveng/KeepTower-sub013/internal/token"
	"github.com/tjdeveng/KeepTower-sub013/internal/utils"
	"github.com/tjdeveng/KeepTower-sub013/internal/validators"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// defaultLegacyIterations is the PBKDF2 cost assumed for V1 files, which do
// not record their KDF parameters. Must match what the file was created
// with; the settings service overrides it via WithLegacyKDFIterations.
const defaultLegacyIterations uint32 = 600_000

// ProgressFunc receives one event after each completed creation step.
type ProgressFunc func(models.StepProgress)

// vaultService is the private implementation of [Service].
type vaultService struct {
	keys     crypto.KeyService
	slots    keyslot.Manager
	formats  format.Service
	records  record.Serializer
	files    store.VaultStore
	tokens   token.Service
	validate validators.Validator
	uuids    *utils.UUIDGenerator

	onStep           ProgressFunc
	creatorVersion   string
	legacyIterations uint32

	logger *logger.Logger
}

// ServiceOption configures optional collaborators of the service.
type ServiceOption func(*vaultService)

// WithTokenService attaches the hardware-token boundary. Without it, any
// vault or policy that requires a token fails with ErrTokenUnavailable.
func WithTokenService(tokens token.Service) ServiceOption {
	return func(v *vaultService) { v.tokens = tokens }
}

// WithValidator replaces the default creation validator.
func WithValidator(validate validators.Validator) ServiceOption {
	return func(v *vaultService) { v.validate = validate }
}

// WithProgress sets the callback invoked after each completed step of a
// synchronous Create. Asynchronous tasks deliver progress through their own
// channel instead.
func WithProgress(fn ProgressFunc) ServiceOption {
	return func(v *vaultService) { v.onStep = fn }
}

// WithCreatorVersion sets the application version stamped into new V2
// headers.
func WithCreatorVersion(version string) ServiceOption {
	return func(v *vaultService) { v.creatorVersion = version }
}

// WithLegacyKDFIterations sets the PBKDF2 iteration count used for V1 files,
// normally taken from the settings service.
func WithLegacyKDFIterations(iterations uint32) ServiceOption {
	return func(v *vaultService) {
		if iterations > 0 {
			v.legacyIterations = iterations
		}
	}
}

// NewService wires the orchestrator from its collaborators. A nil log
// silently discards engine logging.
func NewService(keys crypto.KeyService, slots keyslot.Manager, formats format.Service, records record.Serializer, files store.VaultStore, log *logger.Logger, opts ...ServiceOption) Service {
	if log == nil {
		log = logger.Nop()
	}
	v := &vaultService{
		keys:             keys,
		slots:            slots,
		formats:          formats,
		records:          records,
		files:            files,
		validate:         validators.NewCreationValidator(),
		uuids:            utils.NewUUIDGenerator(),
		legacyIterations: defaultLegacyIterations,
		logger:           log,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// kdfFromPolicy maps the vault policy onto per-slot KDF parameters. Argon2id
// is the default; a policy with no Argon2 time cost selects PBKDF2 with the
// policy's iteration count.
func kdfFromPolicy(p models.SecurityPolicy) models.KDFParams {
	if p.Argon2Time == 0 {
		return models.KDFParams{Kind: models.KDFPBKDF2, Iterations: p.KDFIterations}
	}
	return models.KDFParams{
		Kind:      models.KDFArgon2id,
		Time:      p.Argon2Time,
		MemoryKiB: p.Argon2MemoryKiB,
		Threads:   p.Argon2Threads,
	}
}

// legacyKDF is the fixed derivation convention for V1 files.
func (v *vaultService) legacyKDF() models.KDFParams {
	return models.KDFParams{Kind: models.KDFPBKDF2, Iterations: v.legacyIterations}
}
