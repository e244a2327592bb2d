// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package record implements the schema-tagged binary encoding of the vault
// record graph. The wire format follows protobuf encoding rules via the
// protowire primitives, with fixed field tags per message so the layout can
// evolve append-only.
package record

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// MaxRecordSize bounds the decoded record payload. Unmarshal rejects larger
// inputs before materialising any field value so hostile data cannot force
// large allocations.
const MaxRecordSize = 100 << 20

// VaultData field tags.
const (
	fieldDataAccounts protowire.Number = 1
	fieldDataMetadata protowire.Number = 2
)

// VaultMetadata field tags.
const (
	fieldMetaSchemaVersion protowire.Number = 1
	fieldMetaCreatedAt     protowire.Number = 2
	fieldMetaLastModified  protowire.Number = 3
	fieldMetaLastAccessed  protowire.Number = 4
	fieldMetaAccessCount   protowire.Number = 5
)

// Account field tags.
const (
	fieldAccountName       protowire.Number = 1
	fieldAccountUsername   protowire.Number = 2
	fieldAccountPassword   protowire.Number = 3
	fieldAccountURL        protowire.Number = 4
	fieldAccountNotes      protowire.Number = 5
	fieldAccountCreatedAt  protowire.Number = 6
	fieldAccountModifiedAt protowire.Number = 7
	fieldAccountTOTPSecret protowire.Number = 8
	fieldAccountTags       protowire.Number = 9
	fieldAccountCustom     protowire.Number = 10
)

// CustomField field tags.
const (
	fieldCustomKey   protowire.Number = 1
	fieldCustomValue protowire.Number = 2
)

// WireSerializer is the production Serializer implementation.
type WireSerializer struct{}

var _ Serializer = (*WireSerializer)(nil)

// NewSerializer returns a ready-to-use WireSerializer.
func NewSerializer() *WireSerializer {
	return &WireSerializer{}
}

// Marshal encodes the record graph into its wire form. Zero-valued scalar
// fields are omitted, matching protobuf implicit presence, so the output is
// canonical for a given record.
func (s *WireSerializer) Marshal(data *models.VaultData) ([]byte, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil record", ErrSerializationFailed)
	}

	buf := make([]byte, 0, 256)
	for i := range data.Accounts {
		buf = protowire.AppendTag(buf, fieldDataAccounts, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendAccount(nil, &data.Accounts[i]))
	}
	buf = protowire.AppendTag(buf, fieldDataMetadata, protowire.BytesType)
	buf = protowire.AppendBytes(buf, appendMetadata(nil, &data.Metadata))

	if len(buf) > MaxRecordSize {
		return nil, fmt.Errorf("%w: encoded record is %d bytes (limit %d)",
			ErrRecordTooLarge, len(buf), MaxRecordSize)
	}
	return buf, nil
}

// Unmarshal decodes a record graph from raw bytes. Unknown field tags are
// skipped so records written by newer releases remain readable.
func (s *WireSerializer) Unmarshal(raw []byte) (*models.VaultData, error) {
	if len(raw) > MaxRecordSize {
		return nil, fmt.Errorf("%w: input is %d bytes (limit %d)",
			ErrRecordTooLarge, len(raw), MaxRecordSize)
	}

	data := &models.VaultData{}
	b := raw
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireErr("record tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldDataAccounts && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr("account entry", protowire.ParseError(n))
			}
			account, err := parseAccount(v)
			if err != nil {
				return nil, err
			}
			data.Accounts = append(data.Accounts, account)
			b = b[n:]
		case num == fieldDataMetadata && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr("metadata block", protowire.ParseError(n))
			}
			meta, err := parseMetadata(v)
			if err != nil {
				return nil, err
			}
			data.Metadata = meta
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireErr("unknown field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return data, nil
}

func appendMetadata(buf []byte, meta *models.VaultMetadata) []byte {
	if meta.SchemaVersion != 0 {
		buf = protowire.AppendTag(buf, fieldMetaSchemaVersion, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(meta.SchemaVersion))
	}
	if meta.CreatedAt != 0 {
		buf = protowire.AppendTag(buf, fieldMetaCreatedAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(meta.CreatedAt))
	}
	if meta.LastModified != 0 {
		buf = protowire.AppendTag(buf, fieldMetaLastModified, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(meta.LastModified))
	}
	if meta.LastAccessed != 0 {
		buf = protowire.AppendTag(buf, fieldMetaLastAccessed, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(meta.LastAccessed))
	}
	if meta.AccessCount != 0 {
		buf = protowire.AppendTag(buf, fieldMetaAccessCount, protowire.VarintType)
		buf = protowire.AppendVarint(buf, meta.AccessCount)
	}
	return buf
}

func parseMetadata(b []byte) (models.VaultMetadata, error) {
	var meta models.VaultMetadata
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return meta, wireErr("metadata tag", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType && num >= fieldMetaSchemaVersion && num <= fieldMetaAccessCount {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return meta, wireErr("metadata value", protowire.ParseError(n))
			}
			switch num {
			case fieldMetaSchemaVersion:
				meta.SchemaVersion = uint32(v)
			case fieldMetaCreatedAt:
				meta.CreatedAt = int64(v)
			case fieldMetaLastModified:
				meta.LastModified = int64(v)
			case fieldMetaLastAccessed:
				meta.LastAccessed = int64(v)
			case fieldMetaAccessCount:
				meta.AccessCount = v
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return meta, wireErr("metadata field", protowire.ParseError(n))
		}
		b = b[n:]
	}
	return meta, nil
}

func appendAccount(buf []byte, account *models.Account) []byte {
	appendStr := func(num protowire.Number, v string) {
		if v != "" {
			buf = protowire.AppendTag(buf, num, protowire.BytesType)
			buf = protowire.AppendString(buf, v)
		}
	}

	appendStr(fieldAccountName, account.Name)
	appendStr(fieldAccountUsername, account.Username)
	appendStr(fieldAccountPassword, account.Password)
	appendStr(fieldAccountURL, account.URL)
	appendStr(fieldAccountNotes, account.Notes)
	if account.CreatedAt != 0 {
		buf = protowire.AppendTag(buf, fieldAccountCreatedAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(account.CreatedAt))
	}
	if account.ModifiedAt != 0 {
		buf = protowire.AppendTag(buf, fieldAccountModifiedAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(account.ModifiedAt))
	}
	appendStr(fieldAccountTOTPSecret, account.TOTPSecret)
	for _, tag := range account.Tags {
		buf = protowire.AppendTag(buf, fieldAccountTags, protowire.BytesType)
		buf = protowire.AppendString(buf, tag)
	}
	for i := range account.CustomFields {
		buf = protowire.AppendTag(buf, fieldAccountCustom, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendCustomField(nil, &account.CustomFields[i]))
	}
	return buf
}

func parseAccount(b []byte) (models.Account, error) {
	var account models.Account
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return account, wireErr("account tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && num == fieldAccountCustom:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return account, wireErr("custom field", protowire.ParseError(n))
			}
			field, err := parseCustomField(v)
			if err != nil {
				return account, err
			}
			account.CustomFields = append(account.CustomFields, field)
			b = b[n:]
		case typ == protowire.BytesType && num <= fieldAccountTags:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return account, wireErr("account value", protowire.ParseError(n))
			}
			switch num {
			case fieldAccountName:
				account.Name = v
			case fieldAccountUsername:
				account.Username = v
			case fieldAccountPassword:
				account.Password = v
			case fieldAccountURL:
				account.URL = v
			case fieldAccountNotes:
				account.Notes = v
			case fieldAccountTOTPSecret:
				account.TOTPSecret = v
			case fieldAccountTags:
				account.Tags = append(account.Tags, v)
			default:
				// Bytes payload on a numeric tag: treat as unknown.
			}
			b = b[n:]
		case typ == protowire.VarintType && (num == fieldAccountCreatedAt || num == fieldAccountModifiedAt):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return account, wireErr("account timestamp", protowire.ParseError(n))
			}
			if num == fieldAccountCreatedAt {
				account.CreatedAt = int64(v)
			} else {
				account.ModifiedAt = int64(v)
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return account, wireErr("account field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return account, nil
}

func appendCustomField(buf []byte, field *models.CustomField) []byte {
	if field.Key != "" {
		buf = protowire.AppendTag(buf, fieldCustomKey, protowire.BytesType)
		buf = protowire.AppendString(buf, field.Key)
	}
	if field.Value != "" {
		buf = protowire.AppendTag(buf, fieldCustomValue, protowire.BytesType)
		buf = protowire.AppendString(buf, field.Value)
	}
	return buf
}

func parseCustomField(b []byte) (models.CustomField, error) {
	var field models.CustomField
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return field, wireErr("custom field tag", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.BytesType && (num == fieldCustomKey || num == fieldCustomValue) {
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return field, wireErr("custom field value", protowire.ParseError(n))
			}
			if num == fieldCustomKey {
				field.Key = v
			} else {
				field.Value = v
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return field, wireErr("custom field", protowire.ParseError(n))
		}
		b = b[n:]
	}
	return field, nil
}

func wireErr(where string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidProtobuf, where, cause)
}
