// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package format implements byte-exact parsing and building of vault file
// envelopes, independent of payload cryptography.
//
// Two layouts exist. The V1 envelope is a flat single-user layout:
//
//	[salt:32][iv:12]                                   legacy, bare ciphertext
//	[salt:32][iv:12][flags:1][...sections][content]    flagged
//
// The V2 container wraps a V1 envelope together with a multi-user key-slot
// header that is itself FEC-protected at a floor redundancy, so the
// authentication material survives partial corruption even when payload FEC
// is disabled.
package format

import (
	"encoding/binary"
	"fmt"

	"github.com/tjdeveng/KeepTower-sub013/internal/fec"
	"github.com/tjdeveng/KeepTower-sub013/internal/logger"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

// V1 envelope flag bits.
const (
	flagFEC   = 1 << 0
	flagToken = 1 << 1

	reservedFlagMask = ^byte(flagFEC | flagToken)
)

const (
	envelopePrefixLen = models.SaltLen + models.IVLen

	// legacyRemainderMax separates legacy from flagged envelopes: a flagged
	// envelope carries at least a flags byte plus one full AES-GCM tag
	// (17 bytes), so any shorter remainder is legacy ciphertext verbatim.
	legacyRemainderMax = 16

	// fecHeaderLen is the redundancy byte plus the big-endian original size.
	fecHeaderLen = 5
)

// Format parses and builds vault envelopes. Parsing is pure; instances are
// safe for concurrent use from independent call sites.
type Format struct {
	codec  *fec.Codec
	log    *logger.Logger
	strict bool
}

// Option configures a [Format].
type Option func(*Format)

// WithStrictFlags makes the parser reject envelopes with reserved flag bits
// set instead of warning. Suitable when the caller knows the file was written
// by this build; default mode keeps older files with stray bits readable.
func WithStrictFlags() Option {
	return func(f *Format) { f.strict = true }
}

// New constructs a Format. A nil codec gets a codec bounded by
// [models.MaxVaultSize]; a nil logger is replaced with a no-op logger.
func New(codec *fec.Codec, log *logger.Logger, opts ...Option) *Format {
	if codec == nil {
		codec = fec.NewCodec(models.MaxVaultSize)
	}
	if log == nil {
		log = logger.Nop()
	}
	f := &Format{codec: codec, log: log}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ParseEnvelope implements [Service]. It walks the V1 layout: prefix, legacy
// short-circuit, flags byte, FEC header fields, token metadata, content.
//
// Malformed FEC header fields do not fail the parse. Older writers left
// stale flag combinations behind, so the parser downgrades the whole
// remainder (flags byte included) to legacy ciphertext. This can mask
// corruption as a successful parse with wrong ciphertext boundaries;
// tightening it is a format-version bump, not a parser change. Token
// metadata violations are corruption, never silently truncated.
func (f *Format) ParseEnvelope(raw []byte) (*models.ParsedVaultData, error) {
	if len(raw) < envelopePrefixLen {
		return nil, fmt.Errorf("%w: %d bytes is below the %d-byte minimum",
			ErrCorruptedFile, len(raw), envelopePrefixLen)
	}

	meta := models.VaultFileMetadata{
		Salt: append([]byte(nil), raw[:models.SaltLen]...),
		IV:   append([]byte(nil), raw[models.SaltLen:envelopePrefixLen]...),
	}
	remainder := raw[envelopePrefixLen:]

	if len(remainder) <= legacyRemainderMax {
		return &models.ParsedVaultData{Ciphertext: remainder, Metadata: meta}, nil
	}

	flags := remainder[0]
	if flags&reservedFlagMask != 0 {
		if f.strict {
			return nil, fmt.Errorf("%w: reserved flag bits set (0x%02x)", ErrCorruptedFile, flags)
		}
		f.log.Warn().
			Str("flags", fmt.Sprintf("0x%02x", flags)).
			Msg("reserved envelope flag bits set, continuing")
	}

	hasFEC := flags&flagFEC != 0
	hasToken := flags&flagToken != 0
	body := remainder[1:]
	offset := 0

	var redundancy uint8
	var originalSize uint32
	if hasFEC {
		// A non-legacy remainder is at least 17 bytes, so the five FEC
		// header bytes are always present when the flag is set.
		redundancy = body[0]
		originalSize = binary.BigEndian.Uint32(body[1:fecHeaderLen])
		offset = fecHeaderLen
	}

	if hasToken {
		serial, challenge, n, err := parseTokenMetadata(body[offset:])
		if err != nil {
			return nil, err
		}
		meta.RequiresHWToken = true
		meta.TokenSerial = serial
		meta.TokenChallenge = challenge
		offset += n
	}

	content := body[offset:]

	if hasFEC {
		if !fecParamsPlausible(redundancy, originalSize, len(content)) {
			f.log.Warn().
				Uint8("redundancy", redundancy).
				Uint32("original_size", originalSize).
				Int("encoded_len", len(content)).
				Msg("implausible fec header, downgrading remainder to legacy ciphertext")
			return &models.ParsedVaultData{
				Ciphertext: remainder,
				Metadata:   models.VaultFileMetadata{Salt: meta.Salt, IV: meta.IV},
			}, nil
		}

		decoded, rebuilt, err := f.codec.DecodeStats(&fec.EncodedData{
			Data:              content,
			OriginalSize:      originalSize,
			RedundancyPercent: redundancy,
		})
		if err != nil {
			return nil, err
		}
		if rebuilt > 0 {
			f.log.Warn().
				Int("rebuilt_blocks", rebuilt).
				Msg("payload fec section was damaged, rebuilt from parity")
		}
		meta.HasFEC = true
		meta.FECRedundancy = redundancy
		return &models.ParsedVaultData{Ciphertext: decoded, Metadata: meta, RepairedBlocks: rebuilt}, nil
	}

	return &models.ParsedVaultData{Ciphertext: content, Metadata: meta}, nil
}

// fecParamsPlausible reports whether the FEC header fields could describe the
// section that follows them. Anything else is a stale flag combination.
func fecParamsPlausible(redundancy uint8, originalSize uint32, encodedLen int) bool {
	return redundancy >= 1 && redundancy <= 100 &&
		originalSize > 0 && originalSize < models.MaxVaultSize &&
		uint64(originalSize) <= uint64(encodedLen)
}

// parseTokenMetadata reads [serial_len:1][serial][challenge:64] and returns
// copies of the serial and challenge plus the number of bytes consumed.
func parseTokenMetadata(b []byte) (serial, challenge []byte, consumed int, err error) {
	if len(b) < 1 {
		return nil, nil, 0, fmt.Errorf("%w: token metadata missing", ErrCorruptedFile)
	}
	serialLen := int(b[0])
	if serialLen == 0 {
		return nil, nil, 0, fmt.Errorf("%w: token serial length is zero", ErrCorruptedFile)
	}
	if len(b) < 1+serialLen+models.ChallengeLen {
		return nil, nil, 0, fmt.Errorf("%w: token metadata truncated (%d bytes for serial_len=%d)",
			ErrCorruptedFile, len(b), serialLen)
	}

	serial = append([]byte(nil), b[1:1+serialLen]...)
	challenge = append([]byte(nil), b[1+serialLen:1+serialLen+models.ChallengeLen]...)
	return serial, challenge, 1 + serialLen + models.ChallengeLen, nil
}

// EnvelopeOptions selects the sections of a built V1 envelope.
type EnvelopeOptions struct {
	// Salt is the 32-byte KDF salt for the envelope head.
	Salt []byte

	// IV is the 12-byte AEAD initialisation vector for the payload.
	IV []byte

	// FECRedundancy is the payload parity percentage. Zero disables the FEC
	// section entirely.
	FECRedundancy uint8

	// TokenSerial and TokenChallenge populate the hardware-token section.
	// A nil serial disables it; a non-nil serial requires a 64-byte
	// challenge.
	TokenSerial    []byte
	TokenChallenge []byte
}

// BuildEnvelope implements [Service]. New files always carry a flags byte;
// only the parser accepts the bare legacy layout.
func (f *Format) BuildEnvelope(ciphertext []byte, opts EnvelopeOptions) ([]byte, error) {
	switch {
	case len(opts.Salt) != models.SaltLen:
		return nil, fmt.Errorf("%w: salt is %d bytes, want %d", ErrInvalidBuildInput, len(opts.Salt), models.SaltLen)
	case len(opts.IV) != models.IVLen:
		return nil, fmt.Errorf("%w: iv is %d bytes, want %d", ErrInvalidBuildInput, len(opts.IV), models.IVLen)
	case opts.FECRedundancy > 100:
		return nil, fmt.Errorf("%w: redundancy %d exceeds 100%%", ErrInvalidBuildInput, opts.FECRedundancy)
	case len(ciphertext) <= legacyRemainderMax:
		// Anything shorter would be re-parsed as a legacy envelope with the
		// flags byte inside the ciphertext. Real AEAD output is never this
		// small (a bare tag is 16 bytes).
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, below the %d-byte envelope minimum",
			ErrInvalidBuildInput, len(ciphertext), legacyRemainderMax+1)
	case len(ciphertext) >= models.MaxVaultSize:
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, above the vault size limit",
			ErrInvalidBuildInput, len(ciphertext))
	}

	hasToken := opts.TokenSerial != nil
	if hasToken {
		if len(opts.TokenSerial) == 0 || len(opts.TokenSerial) > models.MaxSerialLen {
			return nil, fmt.Errorf("%w: token serial is %d bytes, want 1-%d",
				ErrInvalidBuildInput, len(opts.TokenSerial), models.MaxSerialLen)
		}
		if len(opts.TokenChallenge) != models.ChallengeLen {
			return nil, fmt.Errorf("%w: token challenge is %d bytes, want %d",
				ErrInvalidBuildInput, len(opts.TokenChallenge), models.ChallengeLen)
		}
	}

	content := ciphertext
	var fecHeader []byte
	if opts.FECRedundancy > 0 {
		enc, err := f.codec.Encode(ciphertext, opts.FECRedundancy)
		if err != nil {
			return nil, err
		}
		content = enc.Data
		fecHeader = make([]byte, 0, fecHeaderLen)
		fecHeader = append(fecHeader, enc.RedundancyPercent)
		fecHeader = binary.BigEndian.AppendUint32(fecHeader, enc.OriginalSize)
	}

	flags := byte(0)
	if opts.FECRedundancy > 0 {
		flags |= flagFEC
	}
	if hasToken {
		flags |= flagToken
	}

	size := envelopePrefixLen + 1 + len(fecHeader) + len(content)
	if hasToken {
		size += 1 + len(opts.TokenSerial) + models.ChallengeLen
	}

	buf := make([]byte, 0, size)
	buf = append(buf, opts.Salt...)
	buf = append(buf, opts.IV...)
	buf = append(buf, flags)
	buf = append(buf, fecHeader...)
	if hasToken {
		buf = append(buf, byte(len(opts.TokenSerial)))
		buf = append(buf, opts.TokenSerial...)
		buf = append(buf, opts.TokenChallenge...)
	}
	buf = append(buf, content...)
	return buf, nil
}
