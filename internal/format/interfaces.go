package format

import "github.com/tjdeveng/KeepTower-sub013/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/format_service_mock.go -package=mock -mock_names=Service=MockFormatService

// Service is the envelope layer consumed by the vault orchestrator: byte-
// exact parse and build for both the V1 envelope and the V2 container.
// Implementations are pure with respect to I/O; all input and output is
// in-memory bytes.
type Service interface {
	// ParseEnvelope decodes a V1 envelope (or the data section of a V2
	// container) into ciphertext plus file metadata.
	ParseEnvelope(raw []byte) (*models.ParsedVaultData, error)

	// BuildEnvelope assembles a V1 envelope around the given ciphertext.
	BuildEnvelope(ciphertext []byte, opts EnvelopeOptions) ([]byte, error)

	// IsContainer reports whether raw carries the V2 container magic.
	IsContainer(raw []byte) bool

	// ParseContainer decodes a V2 container: prologue, FEC-protected
	// header, inner envelope.
	ParseContainer(raw []byte) (*ContainerInfo, error)

	// BuildContainer wraps a complete data envelope and a key-slot header
	// into a V2 container.
	BuildContainer(header *models.VaultHeaderV2, kdfIterations uint32, dataEnvelope []byte, dataRedundancy uint8) ([]byte, error)
}

var _ Service = (*Format)(nil)
