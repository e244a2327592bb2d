// Package migrations upgrades decoded vault records to the current schema
// version. Upgrades are forward-only and in-place; the caller persists the
// record when Migrate reports it as modified.
package migrations

import (
	"errors"
	"fmt"
	"time"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// ErrUnknownSchemaVersion is returned for records whose schema version has no
// upgrade path to the current layout. The record is left untouched.
var ErrUnknownSchemaVersion = errors.New("migrations: no upgrade path for schema version")

// now is swapped out by tests for deterministic timestamps.
var now = time.Now

// Migrate upgrades data in place and reports whether the caller must persist
// the result. It is idempotent: running it again only advances the access
// tracking fields.
//
// Version handling:
//   - 0 with at least one account: a legacy record written before versioning
//     existed. Stamp the full metadata block and report modified.
//   - 0 with no accounts: a freshly created record. Initialise metadata the
//     same way but do not report modified, so brand-new vaults are not
//     rewritten on first open.
//   - at or above current: layouts are append-only, so newer records parse
//     fine. Bump the access tracking fields and report modified.
//   - anything else: no known upgrade path, fail without mutating the record.
func Migrate(data *models.VaultData) (bool, error) {
	if data == nil {
		return false, fmt.Errorf("migration error: nil record")
	}

	ts := now().Unix()
	meta := &data.Metadata

	switch {
	case meta.SchemaVersion == 0:
		meta.SchemaVersion = models.CurrentSchemaVersion
		meta.CreatedAt = ts
		meta.LastModified = ts
		meta.LastAccessed = ts
		meta.AccessCount = 1
		return len(data.Accounts) > 0, nil

	case meta.SchemaVersion >= models.CurrentSchemaVersion:
		meta.AccessCount++
		meta.LastAccessed = ts
		return true, nil

	default:
		return false, fmt.Errorf("migration error: %w: %d", ErrUnknownSchemaVersion, meta.SchemaVersion)
	}
}
