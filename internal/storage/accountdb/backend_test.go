package accountdb

import (
	"bytes"
	"context"
	"crypto/rand"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Backend {
	t.Helper()

	pb, err := NewPebbleBackend(Config{Backend: "pebble", Compressor: "lz4"})
	require.NoError(t, err)

	backends := map[string]Backend{
		"memory": NewMemoryBackend(),
		"pebble": pb,
	}
	for _, b := range backends {
		backend := b
		t.Cleanup(func() { backend.Close() })
	}
	return backends
}

func TestBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	owner := solana.NewWallet().PublicKey()
	addr := solana.NewWallet().PublicKey()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			acct := &Account{
				Lamports:  1_000_000,
				Data:      []byte{1, 2, 3, 4},
				Owner:     owner,
				RentEpoch: 361,
			}
			require.NoError(t, backend.Put(ctx, addr, acct))

			got, err := backend.Get(ctx, addr)
			require.NoError(t, err)
			require.Equal(t, acct.Lamports, got.Lamports)
			require.Equal(t, acct.Owner, got.Owner)
			require.Equal(t, acct.RentEpoch, got.RentEpoch)
			require.True(t, bytes.Equal(acct.Data, got.Data))
		})
	}
}

func TestBackendNotFound(t *testing.T) {
	ctx := context.Background()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := backend.Get(ctx, solana.NewWallet().PublicKey())
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBackendPutBatch(t *testing.T) {
	ctx := context.Background()
	addrs := []solana.PublicKey{
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
		solana.NewWallet().PublicKey(),
	}

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			batch := make(map[solana.PublicKey]*Account)
			for i, addr := range addrs {
				batch[addr] = &Account{Lamports: uint64(i + 1), Data: []byte{byte(i)}}
			}
			require.NoError(t, backend.PutBatch(ctx, batch))

			for i, addr := range addrs {
				got, err := backend.Get(ctx, addr)
				require.NoError(t, err)
				require.Equal(t, uint64(i+1), got.Lamports)
			}
		})
	}
}

func TestBackendDelete(t *testing.T) {
	ctx := context.Background()
	addr := solana.NewWallet().PublicKey()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Put(ctx, addr, &Account{Lamports: 5}))
			require.NoError(t, backend.Delete(ctx, addr))

			_, err := backend.Get(ctx, addr)
			require.ErrorIs(t, err, ErrNotFound)

			// Deleting a missing record is not an error.
			require.NoError(t, backend.Delete(ctx, addr))
		})
	}
}

func TestBackendGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	addr := solana.NewWallet().PublicKey()

	for name, backend := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, backend.Put(ctx, addr, &Account{Lamports: 7, Data: []byte{9, 9}}))

			first, err := backend.Get(ctx, addr)
			require.NoError(t, err)
			first.Data[0] = 42
			first.Lamports = 0

			second, err := backend.Get(ctx, addr)
			require.NoError(t, err)
			require.Equal(t, uint64(7), second.Lamports)
			require.Equal(t, []byte{9, 9}, second.Data)
		})
	}
}

func TestPebbleCompressedLargeAccount(t *testing.T) {
	ctx := context.Background()
	backend, err := NewPebbleBackend(Config{Backend: "pebble", Compressor: "lz4"})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	// Highly compressible data well above the compression threshold.
	data := bytes.Repeat([]byte("lamport"), 4096)
	addr := solana.NewWallet().PublicKey()
	require.NoError(t, backend.Put(ctx, addr, &Account{Lamports: 1, Data: data}))

	got, err := backend.Get(ctx, addr)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got.Data))
}

func TestPebbleIncompressibleAccountStoredRaw(t *testing.T) {
	ctx := context.Background()
	backend, err := NewPebbleBackend(Config{Backend: "pebble", Compressor: "lz4"})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	data := make([]byte, 1024)
	_, err = rand.Read(data)
	require.NoError(t, err)

	addr := solana.NewWallet().PublicKey()
	require.NoError(t, backend.Put(ctx, addr, &Account{Lamports: 1, Data: data}))

	got, err := backend.Get(ctx, addr)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got.Data))
}

func TestPebbleZeroFilledAccountSurvives(t *testing.T) {
	ctx := context.Background()
	backend, err := NewPebbleBackend(Config{Backend: "pebble", Compressor: "lz4"})
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	// Freshly allocated account data is all zeroes and compresses at a
	// ratio far beyond anything a guessed buffer would cover; the record
	// must round-trip byte for byte regardless.
	data := make([]byte, 64*1024)
	addr := solana.NewWallet().PublicKey()
	require.NoError(t, backend.Put(ctx, addr, &Account{Lamports: 1, Data: data}))

	got, err := backend.Get(ctx, addr)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, got.Data))
}
