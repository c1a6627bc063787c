package txstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	st := &Status{
		Signature:           "5VERYfakeSIGNATUREbase58",
		Slot:                17,
		ErrInstructionIndex: -1,
		UnitsConsumed:       450,
		Logs:                []string{"Program log: hello", "Program log: bye"},
	}
	require.NoError(t, store.Record(ctx, st))

	got, err := store.Get(ctx, st.Signature)
	require.NoError(t, err)
	require.Equal(t, st, got)
	require.True(t, got.Ok())
}

func TestRecordFailure(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	st := &Status{
		Signature:           "failedsig",
		Slot:                3,
		ErrCode:             "InsufficientFunds",
		ErrInstructionIndex: 1,
		UnitsConsumed:       300,
	}
	require.NoError(t, store.Record(ctx, st))

	got, err := store.Get(ctx, st.Signature)
	require.NoError(t, err)
	require.False(t, got.Ok())
	require.Equal(t, 1, got.ErrInstructionIndex)
	require.Empty(t, got.Logs)
}

func TestLogLinesWithNewlinesSurvive(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	st := &Status{
		Signature:           "multilinesig",
		Slot:                9,
		ErrInstructionIndex: -1,
		UnitsConsumed:       150,
		Logs: []string{
			"Program log: first\nsecond line of the same entry",
			"Program log: plain",
		},
	}
	require.NoError(t, store.Record(ctx, st))

	got, err := store.Get(ctx, st.Signature)
	require.NoError(t, err)
	require.Equal(t, st.Logs, got.Logs)
	require.Len(t, got.Logs, 2)
}

func TestGetNotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.Get(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, store.Record(ctx, &Status{Signature: "a", ErrInstructionIndex: -1}))
	require.NoError(t, store.Record(ctx, &Status{Signature: "b", ErrInstructionIndex: -1}))

	n, err = store.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}
