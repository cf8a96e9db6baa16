package rbtree

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// ErrCorruptColumn is returned when a compressed column cannot be decoded.
var ErrCorruptColumn = errors.New("corrupt compressed column")

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Column encodings, stored in the first byte of every compressed column.
const (
	encodingRaw byte = iota
	encodingLZ4
)

// CompressUInt32Slice compresses a slice of uint32-s with LZ4. Blocks that LZ4
// cannot shrink are stored verbatim.
func CompressUInt32Slice(data []uint32) ([]byte, error) {
	raw := make([]byte, 0, len(data)*uint32ByteSize)
	for _, value := range data {
		raw = binary.LittleEndian.AppendUint32(raw, value)
	}

	compressed := make([]byte, 1+lz4.CompressBlockBound(len(raw)))

	written, err := lz4.CompressBlock(raw, compressed[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	if written == 0 || written >= len(raw) {
		return append([]byte{encodingRaw}, raw...), nil
	}

	compressed[0] = encodingLZ4

	return compressed[:1+written], nil
}

// DecompressUInt32Slice decompresses a column produced by CompressUInt32Slice.
// `result` must be preallocated to the original length.
func DecompressUInt32Slice(data []byte, result []uint32) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty", ErrCorruptColumn)
	}

	decoded := make([]byte, len(result)*uint32ByteSize)

	switch data[0] {
	case encodingRaw:
		if len(data)-1 != len(decoded) {
			return fmt.Errorf("%w: %d raw bytes, want %d", ErrCorruptColumn, len(data)-1, len(decoded))
		}

		copy(decoded, data[1:])
	case encodingLZ4:
		read, err := lz4.UncompressBlock(data[1:], decoded)
		if err != nil {
			return fmt.Errorf("%w: lz4: %w", ErrCorruptColumn, err)
		}

		if read != len(decoded) {
			return fmt.Errorf("%w: %d bytes decoded, want %d", ErrCorruptColumn, read, len(decoded))
		}
	default:
		return fmt.Errorf("%w: unknown encoding %d", ErrCorruptColumn, data[0])
	}

	for idx := range result {
		result[idx] = binary.LittleEndian.Uint32(decoded[idx*uint32ByteSize:])
	}

	return nil
}

// DeltaEncodeUInt32Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged.
func DeltaEncodeUInt32Slice(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUInt32Slice restores the values produced by DeltaEncodeUInt32Slice, in place.
func DeltaDecodeUInt32Slice(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
