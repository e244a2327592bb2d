// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package models

// CurrentSchemaVersion is the record schema produced by this release.
// Migration only ever moves records forward to this version, never back.
const CurrentSchemaVersion uint32 = 2

// VaultMetadata is the bookkeeping block of a structured vault record.
type VaultMetadata struct {
	// SchemaVersion tags the record layout. Zero means a legacy record
	// written before versioning existed.
	SchemaVersion uint32

	// CreatedAt, LastModified and LastAccessed are unix-second timestamps
	// maintained by the migration layer.
	CreatedAt    int64
	LastModified int64
	LastAccessed int64

	// AccessCount increments on every successful open.
	AccessCount uint64
}

// VaultData is the decrypted record graph of a vault: bookkeeping metadata
// plus the ordered account list. Order is preserved across
// serialize/deserialize round trips.
type VaultData struct {
	Metadata VaultMetadata
	Accounts []Account
}

// Account is a single stored credential entry.
type Account struct {
	// Name is the display label of the entry.
	Name string

	// Username and Password are the credential pair.
	Username string
	Password string

	// URL is the resource the credential applies to.
	URL string

	// Notes holds free-form user text.
	Notes string

	// CreatedAt and ModifiedAt are unix-second timestamps.
	CreatedAt  int64
	ModifiedAt int64

	// TOTPSecret is an optional base32 seed for one-time codes.
	TOTPSecret string

	// Tags are free-form organisation labels.
	Tags []string

	// CustomFields carries user-defined key/value pairs.
	CustomFields []CustomField
}

// CustomField is a user-defined field attached to an account entry.
type CustomField struct {
	Key   string
	Value string
}
