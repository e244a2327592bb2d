// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package format

import (
	"encoding/binary"
	"fmt"

	"github.com/tjdeveng/KeepTower-sub013/internal/fec"
	"github.com/tjdeveng/KeepTower-sub013/models"
)

const (
	// containerMagic opens every V2 file.
	containerMagic = "KTV2"

	// ContainerVersion is the container layout produced by this release.
	ContainerVersion = 2

	// HeaderFloorRedundancy is the minimum FEC parity percentage applied to
	// the V2 header section. The header carries all authentication material,
	// so it stays recoverable even when the user disables payload FEC.
	HeaderFloorRedundancy = 20

	// containerPrologueLen covers magic, version, kdf_iterations and
	// header_size, each four bytes.
	containerPrologueLen = 16

	// containerHeaderPrefixLen is the redundancy byte plus the big-endian
	// original size in front of the encoded header.
	containerHeaderPrefixLen = 5
)

// ContainerInfo is the result of parsing a V2 container.
type ContainerInfo struct {
	// Version is the container layout version from the prologue.
	Version uint32

	// KDFIterations is the file-level PBKDF2 hint from the prologue. The
	// authoritative per-slot costs live inside the header.
	KDFIterations uint32

	// HeaderRedundancy is the parity percentage the header section was
	// written with.
	HeaderRedundancy uint8

	// Header is the decoded key-slot header.
	Header *models.VaultHeaderV2

	// HeaderRepairedBlocks is how many header blocks were rebuilt from
	// parity. Zero means the header section arrived intact.
	HeaderRepairedBlocks int

	// Data is the parsed inner envelope.
	Data *models.ParsedVaultData
}

// IsContainer implements [Service]. It reports whether raw opens with the V2
// magic. A V1 envelope whose salt happens to start with the magic bytes is
// misdetected; with a CSPRNG salt that is a 2^-32 event and accepted.
func (f *Format) IsContainer(raw []byte) bool {
	return len(raw) >= len(containerMagic) && string(raw[:len(containerMagic)]) == containerMagic
}

// ParseContainer implements [Service]. Unlike the V1 parser there is no
// graceful degradation here: the magic pinned the format, so structural
// violations are corruption, and FEC exhaustion on the header section
// surfaces as the codec's decoding failure.
func (f *Format) ParseContainer(raw []byte) (*ContainerInfo, error) {
	if len(raw) < containerPrologueLen {
		return nil, fmt.Errorf("%w: %d bytes is below the %d-byte container prologue",
			ErrCorruptedFile, len(raw), containerPrologueLen)
	}
	if !f.IsContainer(raw) {
		return nil, fmt.Errorf("%w: container magic missing", ErrCorruptedFile)
	}

	version := binary.BigEndian.Uint32(raw[4:8])
	if version != ContainerVersion {
		return nil, fmt.Errorf("%w: got version %d, this build reads %d",
			ErrUnsupportedVersion, version, ContainerVersion)
	}

	kdfIterations := binary.BigEndian.Uint32(raw[8:12])
	headerSize := binary.BigEndian.Uint32(raw[12:16])

	if headerSize <= containerHeaderPrefixLen {
		return nil, fmt.Errorf("%w: header size %d cannot hold an encoded header",
			ErrCorruptedFile, headerSize)
	}
	if uint64(containerPrologueLen)+uint64(headerSize) > uint64(len(raw)) {
		return nil, fmt.Errorf("%w: header size %d exceeds file length %d",
			ErrCorruptedFile, headerSize, len(raw))
	}

	section := raw[containerPrologueLen : containerPrologueLen+int(headerSize)]
	redundancy := section[0]
	originalSize := binary.BigEndian.Uint32(section[1:containerHeaderPrefixLen])
	encoded := section[containerHeaderPrefixLen:]

	if !fecParamsPlausible(redundancy, originalSize, len(encoded)) {
		return nil, fmt.Errorf("%w: implausible header fec fields (redundancy=%d original_size=%d encoded_len=%d)",
			ErrCorruptedFile, redundancy, originalSize, len(encoded))
	}

	headerWire, rebuilt, err := f.codec.DecodeStats(&fec.EncodedData{
		Data:              encoded,
		OriginalSize:      originalSize,
		RedundancyPercent: redundancy,
	})
	if err != nil {
		return nil, err
	}
	if rebuilt > 0 {
		f.log.Warn().
			Int("rebuilt_blocks", rebuilt).
			Msg("container header was damaged, rebuilt from parity")
	}

	header, err := UnmarshalHeader(headerWire)
	if err != nil {
		return nil, err
	}

	data, err := f.ParseEnvelope(raw[containerPrologueLen+int(headerSize):])
	if err != nil {
		return nil, err
	}

	return &ContainerInfo{
		Version:              version,
		KDFIterations:        kdfIterations,
		HeaderRedundancy:     redundancy,
		Header:               header,
		HeaderRepairedBlocks: rebuilt,
		Data:                 data,
	}, nil
}

// BuildContainer implements [Service]. dataEnvelope must be a complete V1
// envelope from [Format.BuildEnvelope]; it is embedded verbatim. The header
// section is FEC-encoded at max(HeaderFloorRedundancy, dataRedundancy).
func (f *Format) BuildContainer(header *models.VaultHeaderV2, kdfIterations uint32, dataEnvelope []byte, dataRedundancy uint8) ([]byte, error) {
	if dataRedundancy > 100 {
		return nil, fmt.Errorf("%w: redundancy %d exceeds 100%%", ErrInvalidBuildInput, dataRedundancy)
	}
	if len(dataEnvelope) < envelopePrefixLen {
		return nil, fmt.Errorf("%w: data section is %d bytes, below the %d-byte envelope minimum",
			ErrInvalidBuildInput, len(dataEnvelope), envelopePrefixLen)
	}

	headerWire, err := MarshalHeader(header)
	if err != nil {
		return nil, err
	}

	redundancy := uint8(HeaderFloorRedundancy)
	if dataRedundancy > redundancy {
		redundancy = dataRedundancy
	}

	enc, err := f.codec.Encode(headerWire, redundancy)
	if err != nil {
		return nil, err
	}

	headerSize := containerHeaderPrefixLen + len(enc.Data)
	buf := make([]byte, 0, containerPrologueLen+headerSize+len(dataEnvelope))
	buf = append(buf, containerMagic...)
	buf = binary.BigEndian.AppendUint32(buf, ContainerVersion)
	buf = binary.BigEndian.AppendUint32(buf, kdfIterations)
	buf = binary.BigEndian.AppendUint32(buf, uint32(headerSize))
	buf = append(buf, enc.RedundancyPercent)
	buf = binary.BigEndian.AppendUint32(buf, enc.OriginalSize)
	buf = append(buf, enc.Data...)
	buf = append(buf, dataEnvelope...)
	return buf, nil
}
