package compression

import (
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// errIncompressible signals that the input did not shrink; callers store
// the raw bytes instead.
var errIncompressible = errors.New("data not compressible")

// NoCompressor is a pass-through compressor.
type NoCompressor struct{}

func (c *NoCompressor) Name() string { return "none" }

func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (c *NoCompressor) Decompress(data []byte, _ int) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// LZ4Compressor compresses account data with LZ4 block compression.
type LZ4Compressor struct{}

func (c *LZ4Compressor) Name() string { return "lz4" }

func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	// CompressBlock reports incompressible input as zero bytes written.
	if n == 0 {
		return nil, errIncompressible
	}
	return buf[:n], nil
}

func (c *LZ4Compressor) Decompress(data []byte, originalSize int) ([]byte, error) {
	if originalSize == 0 {
		return []byte{}, nil
	}

	buf := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(data, buf)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if n != originalSize {
		return nil, fmt.Errorf("lz4 decompression produced %d bytes, want %d", n, originalSize)
	}
	return buf, nil
}
