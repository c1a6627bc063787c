// Package bank holds the session ledger runtime: account state, the program
// registry, the clock, and transaction execution.
package bank

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/picosvm/picosvm/internal/config"
	"github.com/picosvm/picosvm/internal/storage/accountdb"
	"github.com/picosvm/picosvm/internal/storage/txstore"
)

// Bank is the ledger runtime for one session. All mutating operations are
// serialized; the session observes them in submission order.
type Bank struct {
	mu  sync.Mutex
	cfg *config.Config

	store    accountdb.Backend
	registry *Registry
	history  *txstore.Store
	logger   *log.Logger

	slot      uint64
	blockhash solana.Hash
	txCount   uint64
	seenSigs  *lru.Cache[solana.Signature, struct{}]
}

// New assembles a bank over the given stores and registers the native
// builtins. logger may be nil.
func New(cfg *config.Config, store accountdb.Backend, history *txstore.Store, logger *log.Logger) (*Bank, error) {
	if logger == nil {
		logger = log.Default()
	}
	seen, err := lru.New[solana.Signature, struct{}](cfg.Store.SignatureCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create signature cache: %w", err)
	}

	b := &Bank{
		cfg:      cfg,
		store:    store,
		registry: NewRegistry(),
		history:  history,
		logger:   logger,
		seenSigs: seen,
	}
	b.rotateBlockhash()

	b.registry.Register(solana.SystemProgramID, systemHandler)
	b.registry.Register(solana.ComputeBudget, computeBudgetHandler)

	return b, nil
}

// Register binds a native handler to a program address.
func (b *Bank) Register(program solana.PublicKey, h Handler) {
	b.registry.Register(program, h)
}

// GetAccount returns the stored account state for addr, or
// accountdb.ErrNotFound.
func (b *Bank) GetAccount(ctx context.Context, addr solana.PublicKey) (*accountdb.Account, error) {
	return b.store.Get(ctx, addr)
}

// GetBalance returns the lamport balance of addr. Unknown addresses have a
// balance of zero.
func (b *Bank) GetBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	acct, err := b.store.Get(ctx, addr)
	if err == accountdb.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acct.Lamports, nil
}

// SetAccount writes account state directly, bypassing execution. It backs
// program registration and test-state preloading.
func (b *Bank) SetAccount(ctx context.Context, addr solana.PublicKey, acct *accountdb.Account) error {
	return b.store.Put(ctx, addr, acct.Clone())
}

// Credit mints lamports into addr outside transaction processing, creating
// the account if needed. Requests above the configured per-call cap fail.
// Returns the balance after the credit.
func (b *Bank) Credit(ctx context.Context, addr solana.PublicKey, lamports uint64) (uint64, error) {
	if lamports == 0 {
		return 0, fmt.Errorf("credit amount must be positive")
	}
	if max := b.cfg.Funding.MaxCreditLamports; lamports > max {
		return 0, fmt.Errorf("credit of %d lamports exceeds per-call cap of %d", lamports, max)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	acct, err := b.store.Get(ctx, addr)
	if err == accountdb.ErrNotFound {
		acct = &accountdb.Account{Owner: solana.SystemProgramID}
	} else if err != nil {
		return 0, fmt.Errorf("failed to load account %s: %w", addr, err)
	}
	if acct.Lamports > ^uint64(0)-lamports {
		return 0, fmt.Errorf("credit overflows balance of account %s", addr)
	}
	acct.Lamports += lamports
	if err := b.store.Put(ctx, addr, acct); err != nil {
		return 0, fmt.Errorf("failed to store account %s: %w", addr, err)
	}
	return acct.Lamports, nil
}

// LatestBlockhash returns the hash new transactions must reference.
func (b *Bank) LatestBlockhash() solana.Hash {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blockhash
}

// rotateBlockhash advances the hash chain. Callers hold b.mu (or the bank
// is not yet shared).
func (b *Bank) rotateBlockhash() {
	var tail [16]byte
	binary.LittleEndian.PutUint64(tail[0:], b.slot)
	binary.LittleEndian.PutUint64(tail[8:], b.txCount)
	sum := sha256.Sum256(append(b.blockhash[:], tail[:]...))
	b.blockhash = solana.Hash(sum)
}
