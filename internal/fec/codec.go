// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

// Package fec implements the systematic Reed-Solomon erasure coding that
// protects vault files against partial corruption.
//
// The codec splits a payload into up to 128 data blocks, derives parity
// blocks proportional to the requested redundancy percent, and appends a
// CRC-32C trailer to every block. The trailer is what turns the erasure code
// into a corruption code: on decode, blocks whose checksum no longer matches
// are treated as erasures and rebuilt from parity.
//
// Encoded layout: (numData+numParity) consecutive blocks, each
// blockSize+4 bytes (block body followed by its big-endian CRC-32C).
// Geometry is a pure function of (original size, redundancy percent), so a
// decoder needs nothing beyond those two values and the encoded bytes.
package fec

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/klauspost/reedsolomon"
)

const (
	// targetBlockSize is the preferred data-block length. Small payloads get
	// fewer, smaller blocks; large payloads cap out at maxDataBlocks.
	targetBlockSize = 256

	// maxDataBlocks bounds the data-block count so that data plus parity
	// never exceeds the 256-shard limit of GF(2^8) Reed-Solomon.
	maxDataBlocks = 128

	// blockChecksumLen is the per-block CRC-32C trailer length.
	blockChecksumLen = 4

	// DefaultMaxDecodedSize bounds decode-time allocation when the codec is
	// constructed with no explicit limit: 1 GiB.
	DefaultMaxDecodedSize = 1 << 30
)

// crcTable is the Castagnoli polynomial table shared by encode and decode.
var crcTable = crc32.MakeTable(crc32.Castagnoli)

// EncodedData is the output of [Codec.Encode] and the input of
// [Codec.Decode]. OriginalSize and RedundancyPercent are sufficient to
// re-derive the block geometry; the remaining fields are informational.
type EncodedData struct {
	// Data is the encoded section: data blocks then parity blocks, each with
	// its CRC-32C trailer.
	Data []byte

	// OriginalSize is the exact pre-encoding payload length in bytes.
	OriginalSize uint32

	// RedundancyPercent is the parity budget relative to the data blocks,
	// 1-100 inclusive.
	RedundancyPercent uint8

	// BlockSize is the data-block body length (without the CRC trailer).
	BlockSize int

	// NumDataBlocks and NumParityBlocks describe the derived geometry.
	NumDataBlocks   int
	NumParityBlocks int
}

// Codec encodes and decodes FEC-protected sections. It is safe for
// concurrent use: the underlying Reed-Solomon encoder instances are kept in
// a cache keyed by block geometry, so a redundancy change between calls
// always selects a matching instance instead of silently reusing a stale one.
type Codec struct {
	maxDecodedSize uint32

	mu    sync.Mutex
	cache map[geometry]reedsolomon.Encoder
}

// geometry keys the encoder cache.
type geometry struct {
	numData   int
	numParity int
}

// NewCodec constructs a codec whose Decode refuses to materialise payloads
// larger than maxDecodedSize bytes. Zero selects [DefaultMaxDecodedSize].
func NewCodec(maxDecodedSize uint32) *Codec {
	if maxDecodedSize == 0 {
		maxDecodedSize = DefaultMaxDecodedSize
	}
	return &Codec{
		maxDecodedSize: maxDecodedSize,
		cache:          make(map[geometry]reedsolomon.Encoder),
	}
}

// deriveGeometry computes the block layout for a payload of originalSize
// bytes at the given redundancy. The same derivation runs on both sides, so
// the envelope only needs to persist the two inputs.
func deriveGeometry(originalSize uint32, redundancyPercent uint8) (blockSize, numData, numParity int, err error) {
	if originalSize == 0 {
		return 0, 0, 0, ErrEmptyPayload
	}
	if redundancyPercent < 1 || redundancyPercent > 100 {
		return 0, 0, 0, fmt.Errorf("%w: got %d", ErrInvalidRedundancy, redundancyPercent)
	}

	size := int(originalSize)
	numData = (size + targetBlockSize - 1) / targetBlockSize
	if numData > maxDataBlocks {
		numData = maxDataBlocks
	}
	blockSize = (size + numData - 1) / numData

	// Round parity up so any non-zero redundancy yields at least one block.
	numParity = (numData*int(redundancyPercent) + 99) / 100
	return blockSize, numData, numParity, nil
}

// encoderFor returns the cached Reed-Solomon encoder for the given geometry,
// creating it on first use.
func (c *Codec) encoderFor(numData, numParity int) (reedsolomon.Encoder, error) {
	key := geometry{numData: numData, numParity: numParity}

	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.cache[key]; ok {
		return enc, nil
	}
	enc, err := reedsolomon.New(numData, numParity)
	if err != nil {
		return nil, fmt.Errorf("creating reed-solomon encoder: %w", err)
	}
	c.cache[key] = enc
	return enc, nil
}

// Encode protects data with redundancyPercent worth of parity blocks and
// per-block checksums. The input is left untouched.
func (c *Codec) Encode(data []byte, redundancyPercent uint8) (*EncodedData, error) {
	if len(data) > int(c.maxDecodedSize) {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(data))
	}
	blockSize, numData, numParity, err := deriveGeometry(uint32(len(data)), redundancyPercent)
	if err != nil {
		return nil, err
	}

	enc, err := c.encoderFor(numData, numParity)
	if err != nil {
		return nil, err
	}

	shards, err := enc.Split(data)
	if err != nil {
		return nil, fmt.Errorf("splitting payload into blocks: %w", err)
	}
	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("encoding parity blocks: %w", err)
	}

	stride := blockSize + blockChecksumLen
	out := make([]byte, (numData+numParity)*stride)
	for i, shard := range shards {
		off := i * stride
		copy(out[off:], shard)
		sum := crc32.Checksum(shard, crcTable)
		binary.BigEndian.PutUint32(out[off+blockSize:], sum)
	}

	return &EncodedData{
		Data:              out,
		OriginalSize:      uint32(len(data)),
		RedundancyPercent: redundancyPercent,
		BlockSize:         blockSize,
		NumDataBlocks:     numData,
		NumParityBlocks:   numParity,
	}, nil
}

// Decode reconstructs the original payload from an encoded section. Blocks
// with a failed checksum, and blocks lost to truncation, count as erasures;
// as long as erasures do not exceed the parity budget the payload comes back
// byte-identical. A damaged section beyond the budget yields
// [ErrDecodingFailed], never silently wrong data.
//
// The size guard runs before any output allocation, so a hostile
// OriginalSize cannot drive memory use.
func (c *Codec) Decode(enc *EncodedData) ([]byte, error) {
	payload, _, err := c.DecodeStats(enc)
	return payload, err
}

// DecodeStats is [Codec.Decode] plus a count of the blocks that were rebuilt
// from parity. Zero rebuilt blocks means every block arrived intact; anything
// above zero means the section was damaged but still within budget.
func (c *Codec) DecodeStats(enc *EncodedData) (payload []byte, rebuilt int, err error) {
	if enc.OriginalSize > c.maxDecodedSize {
		return nil, 0, fmt.Errorf("%w: claimed %d bytes", ErrPayloadTooLarge, enc.OriginalSize)
	}
	blockSize, numData, numParity, err := deriveGeometry(enc.OriginalSize, enc.RedundancyPercent)
	if err != nil {
		return nil, 0, err
	}

	rs, err := c.encoderFor(numData, numParity)
	if err != nil {
		return nil, 0, err
	}

	stride := blockSize + blockChecksumLen
	shards := make([][]byte, numData+numParity)
	intact := 0
	for i := range shards {
		off := i * stride
		if off+stride > len(enc.Data) {
			continue // lost to truncation
		}
		body := enc.Data[off : off+blockSize]
		want := binary.BigEndian.Uint32(enc.Data[off+blockSize : off+stride])
		if crc32.Checksum(body, crcTable) != want {
			continue // damaged, rebuild from parity
		}
		shards[i] = body
		intact++
	}

	rebuilt = numData + numParity - intact
	if rebuilt > 0 {
		if err := rs.Reconstruct(shards); err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
		}
	}
	ok, err := rs.Verify(shards)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDecodingFailed, err)
	}
	if !ok {
		return nil, 0, fmt.Errorf("%w: block verification failed after reconstruction", ErrDecodingFailed)
	}

	// Join the data blocks and trim the split padding.
	result := make([]byte, 0, numData*blockSize)
	for i := 0; i < numData; i++ {
		result = append(result, shards[i]...)
	}
	if int(enc.OriginalSize) > len(result) {
		return nil, 0, fmt.Errorf("%w: original size %d exceeds reconstructed length %d",
			ErrDecodingFailed, enc.OriginalSize, len(result))
	}
	return result[:enc.OriginalSize], rebuilt, nil
}

// EncodedLength reports how many bytes Encode will produce for a payload of
// originalSize bytes at the given redundancy. The envelope layer uses it to
// validate section lengths before decoding.
func EncodedLength(originalSize uint32, redundancyPercent uint8) (int, error) {
	blockSize, numData, numParity, err := deriveGeometry(originalSize, redundancyPercent)
	if err != nil {
		return 0, err
	}
	return (numData + numParity) * (blockSize + blockChecksumLen), nil
}
