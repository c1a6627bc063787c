// Package accountdb stores the ledger's account records for one session.
//
// Two backends are provided: a plain in-memory map (the default) and a
// PebbleDB instance running on an in-memory filesystem for sessions with
// state too large to hold as live Go objects. Both are ephemeral; nothing
// survives the session.
package accountdb

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrNotFound is returned when an address has no recorded account state.
	ErrNotFound = errors.New("account not found")

	// ErrClosed is returned when the backend has been closed.
	ErrClosed = errors.New("account store closed")
)

// Account is one account record as the ledger sees it.
type Account struct {
	// Lamports is the native-currency balance.
	Lamports uint64

	// Data is the raw account data buffer.
	Data []byte

	// Owner is the program that owns (may mutate) this account.
	Owner solana.PublicKey

	// Executable marks accounts holding a program image.
	Executable bool

	// RentEpoch is carried for wire compatibility; the harness does not
	// collect rent.
	RentEpoch uint64
}

// Clone returns a deep copy so callers can mutate freely.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Data = make([]byte, len(a.Data))
	copy(out.Data, a.Data)
	return &out
}

// Backend is the storage contract the bank writes account state through.
type Backend interface {
	// Get returns the account stored under addr, or ErrNotFound.
	Get(ctx context.Context, addr solana.PublicKey) (*Account, error)

	// Put stores acct under addr, replacing any previous record.
	Put(ctx context.Context, addr solana.PublicKey, acct *Account) error

	// PutBatch stores several records atomically.
	PutBatch(ctx context.Context, accts map[solana.PublicKey]*Account) error

	// Delete removes the record under addr. Deleting a missing record is
	// not an error.
	Delete(ctx context.Context, addr solana.PublicKey) error

	// Close releases the backend's resources.
	Close() error
}

// Config selects and tunes a backend.
type Config struct {
	// Backend is "memory" or "pebble".
	Backend string

	// Compressor names the blob compressor for the pebble backend
	// ("none" or "lz4"). The memory backend stores live objects and
	// ignores it.
	Compressor string
}

// DefaultConfig returns the configuration used when the caller supplies none.
func DefaultConfig() Config {
	return Config{Backend: "memory", Compressor: "lz4"}
}

// Open creates the backend named by cfg.
func Open(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryBackend(), nil
	case "pebble":
		return NewPebbleBackend(cfg)
	default:
		return nil, errors.New("unknown account store backend: " + cfg.Backend)
	}
}
