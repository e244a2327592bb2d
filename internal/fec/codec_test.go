// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 KeepTower Authors

package fec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// randomPayload returns n deterministic pseudo-random bytes so failures are
// reproducible.
func randomPayload(t *testing.T, n int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(n)))
	buf := make([]byte, n)
	_, err := rng.Read(buf)
	require.NoError(t, err)
	return buf
}

// ── Geometry ─────────────────────────────────────────────────────────────────

func TestDeriveGeometry(t *testing.T) {
	tests := []struct {
		name          string
		originalSize  uint32
		redundancy    uint8
		wantBlockSize int
		wantData      int
		wantParity    int
	}{
		{name: "single byte", originalSize: 1, redundancy: 20, wantBlockSize: 1, wantData: 1, wantParity: 1},
		{name: "one full block", originalSize: 256, redundancy: 20, wantBlockSize: 256, wantData: 1, wantParity: 1},
		{name: "two blocks", originalSize: 257, redundancy: 50, wantBlockSize: 129, wantData: 2, wantParity: 1},
		{name: "sixteen blocks quarter parity", originalSize: 4096, redundancy: 25, wantBlockSize: 256, wantData: 16, wantParity: 4},
		{name: "clamped to max blocks", originalSize: 100_000, redundancy: 100, wantBlockSize: 782, wantData: 128, wantParity: 128},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blockSize, numData, numParity, err := deriveGeometry(tt.originalSize, tt.redundancy)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBlockSize, blockSize)
			assert.Equal(t, tt.wantData, numData)
			assert.Equal(t, tt.wantParity, numParity)
			// Blocks must cover the payload.
			assert.GreaterOrEqual(t, blockSize*numData, int(tt.originalSize))
		})
	}
}

func TestDeriveGeometry_InvalidInput(t *testing.T) {
	_, _, _, err := deriveGeometry(0, 20)
	assert.ErrorIs(t, err, ErrEmptyPayload)

	_, _, _, err = deriveGeometry(128, 0)
	assert.ErrorIs(t, err, ErrInvalidRedundancy)

	_, _, _, err = deriveGeometry(128, 101)
	assert.ErrorIs(t, err, ErrInvalidRedundancy)
}

// ── Round trips ──────────────────────────────────────────────────────────────

func TestCodec_EncodeDecode_RoundTrip(t *testing.T) {
	codec := NewCodec(0)

	sizes := []int{1, 16, 255, 256, 257, 1000, 4096, 100_000}
	redundancies := []uint8{1, 20, 50, 100}

	for _, size := range sizes {
		for _, redundancy := range redundancies {
			payload := randomPayload(t, size)

			enc, err := codec.Encode(payload, redundancy)
			require.NoError(t, err, "size=%d redundancy=%d", size, redundancy)
			require.Equal(t, uint32(size), enc.OriginalSize)

			got, err := codec.Decode(enc)
			require.NoError(t, err, "size=%d redundancy=%d", size, redundancy)
			assert.True(t, bytes.Equal(payload, got), "size=%d redundancy=%d", size, redundancy)
		}
	}
}

// TestCodec_Decode_FromWireFields decodes with only the fields the envelope
// persists (data, original size, redundancy), the way parse() calls in.
func TestCodec_Decode_FromWireFields(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 3000)

	enc, err := codec.Encode(payload, 20)
	require.NoError(t, err)

	wire := &EncodedData{
		Data:              enc.Data,
		OriginalSize:      enc.OriginalSize,
		RedundancyPercent: enc.RedundancyPercent,
	}
	got, err := codec.Decode(wire)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestEncodedLength_MatchesEncodeOutput(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 5000)

	enc, err := codec.Encode(payload, 30)
	require.NoError(t, err)

	want, err := EncodedLength(uint32(len(payload)), 30)
	require.NoError(t, err)
	assert.Equal(t, want, len(enc.Data))
}

// ── Corruption tolerance ─────────────────────────────────────────────────────

// corruptBlock flips one byte inside block index i of the encoded section.
func corruptBlock(enc *EncodedData, i int) {
	stride := enc.BlockSize + blockChecksumLen
	enc.Data[i*stride+enc.BlockSize/2] ^= 0xFF
}

func TestCodec_Decode_RecoversWithinParityBudget(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 4096) // 16 data blocks

	enc, err := codec.Encode(payload, 25) // 4 parity blocks
	require.NoError(t, err)
	require.Equal(t, 4, enc.NumParityBlocks)

	for i := 0; i < enc.NumParityBlocks; i++ {
		corruptBlock(enc, i)
	}

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCodec_Decode_RecoversDamagedParityBlock(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 4096)

	enc, err := codec.Encode(payload, 25)
	require.NoError(t, err)

	// Damage only a parity block; all data blocks stay intact.
	corruptBlock(enc, enc.NumDataBlocks)

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCodec_DecodeStats_CountsRebuiltBlocks(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 4096)

	enc, err := codec.Encode(payload, 25)
	require.NoError(t, err)

	got, rebuilt, err := codec.DecodeStats(enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Zero(t, rebuilt)

	corruptBlock(enc, 0)
	corruptBlock(enc, 5)

	got, rebuilt, err = codec.DecodeStats(enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, 2, rebuilt)
}

func TestCodec_Decode_FailsBeyondParityBudget(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 4096)

	enc, err := codec.Encode(payload, 25) // 4 parity blocks
	require.NoError(t, err)

	for i := 0; i <= enc.NumParityBlocks; i++ { // one damaged block too many
		corruptBlock(enc, i)
	}

	_, err = codec.Decode(enc)
	assert.ErrorIs(t, err, ErrDecodingFailed)
}

func TestCodec_Decode_ToleratesTruncation(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 4096)

	enc, err := codec.Encode(payload, 25)
	require.NoError(t, err)

	// Drop the last two blocks entirely, as a torn write would.
	stride := enc.BlockSize + blockChecksumLen
	enc.Data = enc.Data[:len(enc.Data)-2*stride]

	got, err := codec.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// ── Allocation guards ────────────────────────────────────────────────────────

func TestCodec_Decode_RejectsOversizedClaimBeforeAllocation(t *testing.T) {
	codec := NewCodec(1024)

	wire := &EncodedData{
		Data:              []byte{0x01},
		OriginalSize:      2048,
		RedundancyPercent: 20,
	}
	_, err := codec.Decode(wire)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestCodec_Encode_RejectsOversizedPayload(t *testing.T) {
	codec := NewCodec(1024)

	_, err := codec.Encode(make([]byte, 2048), 20)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestCodec_Encode_RejectsEmptyPayload(t *testing.T) {
	codec := NewCodec(0)

	_, err := codec.Encode(nil, 20)
	assert.ErrorIs(t, err, ErrEmptyPayload)
}

func TestCodec_Encode_RejectsInvalidRedundancy(t *testing.T) {
	codec := NewCodec(0)

	_, err := codec.Encode([]byte("payload"), 0)
	assert.ErrorIs(t, err, ErrInvalidRedundancy)

	_, err = codec.Encode([]byte("payload"), 101)
	assert.ErrorIs(t, err, ErrInvalidRedundancy)
}

// ── Encoder cache ────────────────────────────────────────────────────────────

// TestCodec_RedundancyChangeBetweenCalls exercises the geometry-keyed encoder
// cache: alternating redundancy on the same codec must never reuse an encoder
// built for different parameters.
func TestCodec_RedundancyChangeBetweenCalls(t *testing.T) {
	codec := NewCodec(0)
	payload := randomPayload(t, 2048)

	for _, redundancy := range []uint8{20, 50, 20, 100, 50} {
		enc, err := codec.Encode(payload, redundancy)
		require.NoError(t, err)

		got, err := codec.Decode(enc)
		require.NoError(t, err)
		require.Equal(t, payload, got, "redundancy=%d", redundancy)
	}

	codec.mu.Lock()
	cached := len(codec.cache)
	codec.mu.Unlock()
	assert.Equal(t, 3, cached, "expected one cached encoder per distinct geometry")
}
