package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultCompressionLevel is the zlib level used for compressed entries.
const DefaultCompressionLevel = zlib.BestCompression

// maxInflateSize bounds the declared size of a compressed entry.
const maxInflateSize = 256 << 20

// Inflate decompresses a zlib stream that expands to exactly size bytes.
func Inflate(data []byte, size int) ([]byte, error) {
	if size < 0 || size > maxInflateSize {
		return nil, fmt.Errorf("%w: declared inflated size %d", ErrInvalidFormat, size)
	}

	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedData, err)
	}
	defer reader.Close()

	result := make([]byte, size)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("%w: inflating %d bytes: %v", ErrTruncatedData, size, err)
	}
	return result, nil
}

// Deflate compresses data into a zlib stream at the given level.
func Deflate(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// packCompressed produces the on-disk form of a compressed entry: the
// decompressed length followed by the zlib stream.
func packCompressed(data []byte, level int) ([]byte, error) {
	z, err := Deflate(data, level)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 4, 4+len(z))
	binary.LittleEndian.PutUint32(out, uint32(len(data)))
	return append(out, z...), nil
}

// unpackCompressed is the inverse of packCompressed.
func unpackCompressed(stored []byte) ([]byte, error) {
	if len(stored) < 4 {
		return nil, fmt.Errorf("%w: compressed entry shorter than its size prefix", ErrTruncatedData)
	}
	size := binary.LittleEndian.Uint32(stored)
	return Inflate(stored[4:], int(size))
}
