// Package compression provides pluggable blob compression for the account store.
package compression

import "fmt"

// Compressor compresses and decompresses account data blobs before they
// hit the backend.
type Compressor interface {
	// Name returns the identifier used in configuration ("none", "lz4").
	Name() string

	// Compress compresses data. The returned slice is always a fresh allocation.
	Compress(data []byte) ([]byte, error)

	// Decompress reverses Compress. originalSize is the exact uncompressed
	// length, recorded alongside the blob at write time.
	Decompress(data []byte, originalSize int) ([]byte, error)
}

// Get returns the compressor registered under name.
func Get(name string) (Compressor, error) {
	switch name {
	case "", "none":
		return &NoCompressor{}, nil
	case "lz4":
		return &LZ4Compressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
}
