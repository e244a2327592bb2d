package record

import "github.com/tjdeveng/KeepTower-sub013/models"

//go:generate mockgen -source=interfaces.go -destination=../mock/record_serializer_mock.go -package=mock

// Serializer converts the in-memory vault record graph to and from its
// schema-tagged binary encoding. The encoding is append-only: new fields get
// new tags, existing tags never change meaning, and unknown tags are skipped
// on read so newer vaults stay readable by older builds.
type Serializer interface {
	// Marshal encodes the record graph. The output is deterministic for a
	// given input (fields are written in ascending tag order).
	Marshal(data *models.VaultData) ([]byte, error)

	// Unmarshal decodes a record graph from raw bytes. Inputs larger than
	// MaxRecordSize are rejected before any field value is materialised.
	Unmarshal(raw []byte) (*models.VaultData, error)
}
