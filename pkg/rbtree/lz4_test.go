package rbtree_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/redblack/pkg/rbtree"
)

func TestCompressDecompressUInt32Slice(t *testing.T) {
	t.Parallel()

	data := make([]uint32, 1000)
	for idx := range data {
		data[idx] = 7
	}

	packed, err := rbtree.CompressUInt32Slice(data)
	require.NoError(t, err)

	// Repetitive input must shrink.
	assert.Less(t, len(packed), len(data)*4)

	result := make([]uint32, len(data))
	require.NoError(t, rbtree.DecompressUInt32Slice(packed, result))
	assert.Equal(t, data, result)
}

func TestCompressIncompressibleRoundTrip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(11))
	data := make([]uint32, 16)

	for idx := range data {
		data[idx] = rng.Uint32()
	}

	packed, err := rbtree.CompressUInt32Slice(data)
	require.NoError(t, err)

	// Never larger than the raw column plus the encoding byte.
	assert.LessOrEqual(t, len(packed), len(data)*4+1)

	result := make([]uint32, len(data))
	require.NoError(t, rbtree.DecompressUInt32Slice(packed, result))
	assert.Equal(t, data, result)
}

func TestCompressEmpty(t *testing.T) {
	t.Parallel()

	packed, err := rbtree.CompressUInt32Slice(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, packed)

	require.NoError(t, rbtree.DecompressUInt32Slice(packed, []uint32{}))
}

func TestDecompressCorrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"UnknownEncoding", []byte{9, 1, 2, 3}},
		{"ShortRaw", []byte{0, 1, 2}},
		{"TruncatedLZ4", []byte{1, 0xf0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := rbtree.DecompressUInt32Slice(tt.data, make([]uint32, 4))
			assert.ErrorIs(t, err, rbtree.ErrCorruptColumn)
		})
	}
}

func TestDeltaEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data []uint32
	}{
		{"Ascending", []uint32{1, 2, 3, 10, 11}},
		{"Descending", []uint32{9, 7, 4, 0}},
		{"Wrapping", []uint32{0, 0xffffffff, 1, 0}},
		{"Single", []uint32{5}},
		{"Empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := append([]uint32(nil), tt.data...)
			rbtree.DeltaEncodeUInt32Slice(data)
			rbtree.DeltaDecodeUInt32Slice(data)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestDeltaEncodeAscending(t *testing.T) {
	t.Parallel()

	data := []uint32{4, 5, 6, 8}
	rbtree.DeltaEncodeUInt32Slice(data)
	assert.Equal(t, []uint32{4, 1, 1, 2}, data)
}
