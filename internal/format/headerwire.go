// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package format

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/tjdeveng/KeepTower-sub013/models"
)

// VaultHeaderV2 field tags. Append-only, like the record schema.
const (
	fieldHeaderVaultID        protowire.Number = 1
	fieldHeaderPolicy         protowire.Number = 2
	fieldHeaderSlot           protowire.Number = 3
	fieldHeaderCreatedAt      protowire.Number = 4
	fieldHeaderCreatorVersion protowire.Number = 5
)

// SecurityPolicy field tags.
const (
	fieldPolicyKDFIterations protowire.Number = 1
	fieldPolicyArgonTime     protowire.Number = 2
	fieldPolicyArgonMemory   protowire.Number = 3
	fieldPolicyArgonThreads  protowire.Number = 4
	fieldPolicyRedundancy    protowire.Number = 5
	fieldPolicyRequireToken  protowire.Number = 6
	fieldPolicyHistoryDepth  protowire.Number = 7
)

// KeySlot field tags. The cleartext username has no tag on purpose: it is
// never serialized.
const (
	fieldSlotActive        protowire.Number = 1
	fieldSlotUsernameHash  protowire.Number = 2
	fieldSlotHashSize      protowire.Number = 3
	fieldSlotWrappedDEK    protowire.Number = 4
	fieldSlotSalt          protowire.Number = 5
	fieldSlotKDF           protowire.Number = 6
	fieldSlotTokenEnrolled protowire.Number = 7
	fieldSlotHistory       protowire.Number = 8
	fieldSlotCreatedAt     protowire.Number = 9
	fieldSlotRole          protowire.Number = 10
)

// KDFParams field tags.
const (
	fieldKDFKind       protowire.Number = 1
	fieldKDFTime       protowire.Number = 2
	fieldKDFMemoryKiB  protowire.Number = 3
	fieldKDFThreads    protowire.Number = 4
	fieldKDFIterations protowire.Number = 5
)

// PasswordHistoryEntry field tags.
const (
	fieldHistoryChangedAt protowire.Number = 1
	fieldHistoryVerifier  protowire.Number = 2
)

// MarshalHeader encodes a V2 header into its wire form. Fields are written
// in ascending tag order; slot order is preserved exactly, tombstones
// included, because slot indices are part of the format.
func MarshalHeader(h *models.VaultHeaderV2) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil header", ErrInvalidBuildInput)
	}

	buf := make([]byte, 0, 512)
	if h.VaultID != "" {
		buf = protowire.AppendTag(buf, fieldHeaderVaultID, protowire.BytesType)
		buf = protowire.AppendString(buf, h.VaultID)
	}
	buf = protowire.AppendTag(buf, fieldHeaderPolicy, protowire.BytesType)
	buf = protowire.AppendBytes(buf, appendPolicy(nil, &h.Policy))
	for i := range h.Slots {
		buf = protowire.AppendTag(buf, fieldHeaderSlot, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendSlot(nil, &h.Slots[i]))
	}
	if !h.CreatedAt.IsZero() {
		buf = protowire.AppendTag(buf, fieldHeaderCreatedAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(h.CreatedAt.Unix()))
	}
	if h.CreatorVersion != "" {
		buf = protowire.AppendTag(buf, fieldHeaderCreatorVersion, protowire.BytesType)
		buf = protowire.AppendString(buf, h.CreatorVersion)
	}
	return buf, nil
}

// UnmarshalHeader decodes a V2 header. Unknown tags are skipped so headers
// written by newer releases keep parsing.
func UnmarshalHeader(raw []byte) (*models.VaultHeaderV2, error) {
	h := &models.VaultHeaderV2{}
	b := raw
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, headerErr("header tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldHeaderVaultID && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, headerErr("vault id", protowire.ParseError(n))
			}
			h.VaultID = v
			b = b[n:]
		case num == fieldHeaderPolicy && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, headerErr("policy", protowire.ParseError(n))
			}
			policy, err := parsePolicy(v)
			if err != nil {
				return nil, err
			}
			h.Policy = policy
			b = b[n:]
		case num == fieldHeaderSlot && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, headerErr("key slot", protowire.ParseError(n))
			}
			slot, err := parseSlot(v)
			if err != nil {
				return nil, err
			}
			h.Slots = append(h.Slots, slot)
			b = b[n:]
		case num == fieldHeaderCreatedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, headerErr("created at", protowire.ParseError(n))
			}
			h.CreatedAt = time.Unix(int64(v), 0).UTC()
			b = b[n:]
		case num == fieldHeaderCreatorVersion && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, headerErr("creator version", protowire.ParseError(n))
			}
			h.CreatorVersion = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, headerErr("unknown header field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return h, nil
}

func appendPolicy(buf []byte, p *models.SecurityPolicy) []byte {
	appendVarint := func(num protowire.Number, v uint64) {
		if v != 0 {
			buf = protowire.AppendTag(buf, num, protowire.VarintType)
			buf = protowire.AppendVarint(buf, v)
		}
	}

	appendVarint(fieldPolicyKDFIterations, uint64(p.KDFIterations))
	appendVarint(fieldPolicyArgonTime, uint64(p.Argon2Time))
	appendVarint(fieldPolicyArgonMemory, uint64(p.Argon2MemoryKiB))
	appendVarint(fieldPolicyArgonThreads, uint64(p.Argon2Threads))
	appendVarint(fieldPolicyRedundancy, uint64(p.DataRedundancy))
	if p.RequireHWToken {
		appendVarint(fieldPolicyRequireToken, 1)
	}
	appendVarint(fieldPolicyHistoryDepth, uint64(p.PasswordHistoryDepth))
	return buf
}

func parsePolicy(b []byte) (models.SecurityPolicy, error) {
	var p models.SecurityPolicy
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return p, headerErr("policy tag", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType && num >= fieldPolicyKDFIterations && num <= fieldPolicyHistoryDepth {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return p, headerErr("policy value", protowire.ParseError(n))
			}
			switch num {
			case fieldPolicyKDFIterations:
				p.KDFIterations = uint32(v)
			case fieldPolicyArgonTime:
				p.Argon2Time = uint32(v)
			case fieldPolicyArgonMemory:
				p.Argon2MemoryKiB = uint32(v)
			case fieldPolicyArgonThreads:
				p.Argon2Threads = uint8(v)
			case fieldPolicyRedundancy:
				p.DataRedundancy = uint8(v)
			case fieldPolicyRequireToken:
				p.RequireHWToken = v != 0
			case fieldPolicyHistoryDepth:
				p.PasswordHistoryDepth = int(v)
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return p, headerErr("policy field", protowire.ParseError(n))
		}
		b = b[n:]
	}
	return p, nil
}

func appendSlot(buf []byte, s *models.KeySlot) []byte {
	if s.Active {
		buf = protowire.AppendTag(buf, fieldSlotActive, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)
	}
	if len(s.UsernameHash) > 0 {
		buf = protowire.AppendTag(buf, fieldSlotUsernameHash, protowire.BytesType)
		buf = protowire.AppendBytes(buf, s.UsernameHash)
	}
	if s.UsernameHashSize != 0 {
		buf = protowire.AppendTag(buf, fieldSlotHashSize, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(s.UsernameHashSize))
	}
	if len(s.WrappedDEK) > 0 {
		buf = protowire.AppendTag(buf, fieldSlotWrappedDEK, protowire.BytesType)
		buf = protowire.AppendBytes(buf, s.WrappedDEK)
	}
	if len(s.Salt) > 0 {
		buf = protowire.AppendTag(buf, fieldSlotSalt, protowire.BytesType)
		buf = protowire.AppendBytes(buf, s.Salt)
	}
	buf = protowire.AppendTag(buf, fieldSlotKDF, protowire.BytesType)
	buf = protowire.AppendBytes(buf, appendKDF(nil, &s.KDF))
	if s.TokenEnrolled {
		buf = protowire.AppendTag(buf, fieldSlotTokenEnrolled, protowire.VarintType)
		buf = protowire.AppendVarint(buf, 1)
	}
	for i := range s.PasswordHistory {
		buf = protowire.AppendTag(buf, fieldSlotHistory, protowire.BytesType)
		buf = protowire.AppendBytes(buf, appendHistoryEntry(nil, &s.PasswordHistory[i]))
	}
	if !s.CreatedAt.IsZero() {
		buf = protowire.AppendTag(buf, fieldSlotCreatedAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(s.CreatedAt.Unix()))
	}
	if s.Role != 0 {
		buf = protowire.AppendTag(buf, fieldSlotRole, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(s.Role))
	}
	return buf
}

func parseSlot(b []byte) (models.KeySlot, error) {
	var s models.KeySlot
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return s, headerErr("slot tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return s, headerErr("slot value", protowire.ParseError(n))
			}
			switch num {
			case fieldSlotActive:
				s.Active = v != 0
			case fieldSlotHashSize:
				s.UsernameHashSize = uint8(v)
			case fieldSlotTokenEnrolled:
				s.TokenEnrolled = v != 0
			case fieldSlotCreatedAt:
				s.CreatedAt = time.Unix(int64(v), 0).UTC()
			case fieldSlotRole:
				s.Role = models.SlotRole(v)
			default:
				// Unknown varint field: already consumed, nothing to keep.
			}
			b = b[n:]
		case typ == protowire.BytesType && num == fieldSlotKDF:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return s, headerErr("slot kdf", protowire.ParseError(n))
			}
			kdf, err := parseKDF(v)
			if err != nil {
				return s, err
			}
			s.KDF = kdf
			b = b[n:]
		case typ == protowire.BytesType && num == fieldSlotHistory:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return s, headerErr("slot history", protowire.ParseError(n))
			}
			entry, err := parseHistoryEntry(v)
			if err != nil {
				return s, err
			}
			s.PasswordHistory = append(s.PasswordHistory, entry)
			b = b[n:]
		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return s, headerErr("slot bytes", protowire.ParseError(n))
			}
			switch num {
			case fieldSlotUsernameHash:
				s.UsernameHash = append([]byte(nil), v...)
			case fieldSlotWrappedDEK:
				s.WrappedDEK = append([]byte(nil), v...)
			case fieldSlotSalt:
				s.Salt = append([]byte(nil), v...)
			default:
				// Unknown bytes field: skipped.
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return s, headerErr("slot field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return s, nil
}

func appendKDF(buf []byte, k *models.KDFParams) []byte {
	appendVarint := func(num protowire.Number, v uint64) {
		if v != 0 {
			buf = protowire.AppendTag(buf, num, protowire.VarintType)
			buf = protowire.AppendVarint(buf, v)
		}
	}

	appendVarint(fieldKDFKind, uint64(k.Kind))
	appendVarint(fieldKDFTime, uint64(k.Time))
	appendVarint(fieldKDFMemoryKiB, uint64(k.MemoryKiB))
	appendVarint(fieldKDFThreads, uint64(k.Threads))
	appendVarint(fieldKDFIterations, uint64(k.Iterations))
	return buf
}

func parseKDF(b []byte) (models.KDFParams, error) {
	var k models.KDFParams
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return k, headerErr("kdf tag", protowire.ParseError(n))
		}
		b = b[n:]

		if typ == protowire.VarintType && num >= fieldKDFKind && num <= fieldKDFIterations {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return k, headerErr("kdf value", protowire.ParseError(n))
			}
			switch num {
			case fieldKDFKind:
				k.Kind = models.KDFKind(v)
			case fieldKDFTime:
				k.Time = uint32(v)
			case fieldKDFMemoryKiB:
				k.MemoryKiB = uint32(v)
			case fieldKDFThreads:
				k.Threads = uint8(v)
			case fieldKDFIterations:
				k.Iterations = uint32(v)
			}
			b = b[n:]
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return k, headerErr("kdf field", protowire.ParseError(n))
		}
		b = b[n:]
	}
	return k, nil
}

func appendHistoryEntry(buf []byte, e *models.PasswordHistoryEntry) []byte {
	if !e.ChangedAt.IsZero() {
		buf = protowire.AppendTag(buf, fieldHistoryChangedAt, protowire.VarintType)
		buf = protowire.AppendVarint(buf, uint64(e.ChangedAt.Unix()))
	}
	if len(e.Verifier) > 0 {
		buf = protowire.AppendTag(buf, fieldHistoryVerifier, protowire.BytesType)
		buf = protowire.AppendBytes(buf, e.Verifier)
	}
	return buf
}

func parseHistoryEntry(b []byte) (models.PasswordHistoryEntry, error) {
	var e models.PasswordHistoryEntry
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return e, headerErr("history tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldHistoryChangedAt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return e, headerErr("history value", protowire.ParseError(n))
			}
			e.ChangedAt = time.Unix(int64(v), 0).UTC()
			b = b[n:]
		case num == fieldHistoryVerifier && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return e, headerErr("history verifier", protowire.ParseError(n))
			}
			e.Verifier = append([]byte(nil), v...)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return e, headerErr("history field", protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return e, nil
}

func headerErr(where string, cause error) error {
	return fmt.Errorf("%w: header %s: %v", ErrCorruptedFile, where, cause)
}
