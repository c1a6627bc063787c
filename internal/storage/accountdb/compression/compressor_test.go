package compression

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	testcases := []struct {
		name      string
		wantName  string
		expectErr bool
	}{
		{name: "", wantName: "none"},
		{name: "none", wantName: "none"},
		{name: "lz4", wantName: "lz4"},
		{name: "zstd", expectErr: true},
	}

	for _, tc := range testcases {
		t.Run("name="+tc.name, func(t *testing.T) {
			c, err := Get(tc.name)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantName, c.Name())
		})
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	c := &LZ4Compressor{}

	data := bytes.Repeat([]byte("account data blob "), 512)
	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed), len(data))

	decompressed, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, decompressed))
}

func TestLZ4RoundTripExtremeRatio(t *testing.T) {
	c := &LZ4Compressor{}

	// A zero-filled blob compresses far beyond 64x; the recorded original
	// size must still recover it exactly.
	data := make([]byte, 64*1024)
	compressed, err := c.Compress(data)
	require.NoError(t, err)
	require.Less(t, len(compressed)*64, len(data))

	decompressed, err := c.Decompress(compressed, len(data))
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, decompressed))
}

func TestLZ4DecompressSizeMismatch(t *testing.T) {
	c := &LZ4Compressor{}

	data := bytes.Repeat([]byte{7}, 4096)
	compressed, err := c.Compress(data)
	require.NoError(t, err)

	_, err = c.Decompress(compressed, len(data)/2)
	require.Error(t, err)
}

func TestLZ4RejectsIncompressible(t *testing.T) {
	c := &LZ4Compressor{}

	data := make([]byte, 1024)
	_, err := rand.Read(data)
	require.NoError(t, err)

	_, err = c.Compress(data)
	require.ErrorIs(t, err, errIncompressible)
}

func TestNoCompressorCopies(t *testing.T) {
	c := &NoCompressor{}

	data := []byte{1, 2, 3}
	out, err := c.Compress(data)
	require.NoError(t, err)
	out[0] = 9
	require.Equal(t, byte(1), data[0])
}
