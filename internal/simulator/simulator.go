// Package simulator is the session facade: it assembles the ledger runtime
// and exposes the operations test code drives it with.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"

	"github.com/picosvm/picosvm/internal/codec/accountcodec"
	"github.com/picosvm/picosvm/internal/config"
	"github.com/picosvm/picosvm/internal/core/bank"
	"github.com/picosvm/picosvm/internal/storage/accountdb"
	"github.com/picosvm/picosvm/internal/storage/txstore"
)

// nativeLoaderID owns builtin program accounts.
var nativeLoaderID = solana.MustPublicKeyFromBase58("NativeLoader1111111111111111111111111111111")

// Program is a native program to install at session start.
type Program struct {
	// ID is the address programs are invoked at.
	ID solana.PublicKey

	// Name is used in logs only.
	Name string

	// Handler executes the program's instructions.
	Handler bank.Handler
}

// Simulator is one ledger session. It owns the stores, the bank, and a
// funded default payer. A session is meant to be driven by one caller at
// a time; operations run to completion in the order they are issued.
type Simulator struct {
	cfg     *config.Config
	store   accountdb.Backend
	history *txstore.Store
	bank    *bank.Bank
	payer   solana.PrivateKey
	logger  *log.Logger
}

// Start opens a fresh session: empty account state at slot zero, the given
// programs installed, and a generously funded default payer. cfg may be nil
// for defaults.
func Start(ctx context.Context, cfg *config.Config, programs ...Program) (*Simulator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	} else if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	store, err := accountdb.Open(accountdb.Config{
		Backend:    cfg.Store.Backend,
		Compressor: cfg.Store.Compressor,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %w", err)
	}

	history, err := txstore.Open(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}

	logger := log.Default()
	bk, err := bank.New(cfg, store, history, logger)
	if err != nil {
		history.Close()
		store.Close()
		return nil, err
	}

	s := &Simulator{
		cfg:     cfg,
		store:   store,
		history: history,
		bank:    bk,
		payer:   solana.NewWallet().PrivateKey,
		logger:  logger,
	}

	for _, p := range programs {
		if err := s.RegisterProgram(ctx, p.ID, p.Name, p.Handler); err != nil {
			s.Close()
			return nil, err
		}
	}

	if err := s.store.Put(ctx, s.payer.PublicKey(), &accountdb.Account{
		Lamports: cfg.Genesis.PayerLamports,
		Owner:    solana.SystemProgramID,
	}); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to fund session payer: %w", err)
	}

	return s, nil
}

// Close releases the session's stores. The session must not be used after.
func (s *Simulator) Close() error {
	herr := s.history.Close()
	serr := s.store.Close()
	if herr != nil {
		return herr
	}
	return serr
}

// Payer returns the session's default fee payer.
func (s *Simulator) Payer() solana.PrivateKey { return s.payer }

// LatestBlockhash returns the hash externally built transactions must
// reference.
func (s *Simulator) LatestBlockhash() solana.Hash { return s.bank.LatestBlockhash() }

// RegisterProgram installs a native handler at id and creates the matching
// executable account so instructions can reference it.
func (s *Simulator) RegisterProgram(ctx context.Context, id solana.PublicKey, name string, h bank.Handler) error {
	if h == nil {
		return fmt.Errorf("%w: program %s has no handler", ErrInvalidArgument, id)
	}
	s.bank.Register(id, h)
	if err := s.bank.SetAccount(ctx, id, &accountdb.Account{
		Lamports:   1,
		Owner:      nativeLoaderID,
		Executable: true,
	}); err != nil {
		return fmt.Errorf("failed to create program account %s: %w", id, err)
	}
	s.logger.Printf("registered program %s at %s", name, id)
	return nil
}

// SetAccount writes account state directly, bypassing execution. Tests use
// it to preload fixtures a program expects to find on chain.
func (s *Simulator) SetAccount(ctx context.Context, addr solana.PublicKey, acct *accountdb.Account) error {
	if acct == nil {
		return fmt.Errorf("%w: nil account", ErrInvalidArgument)
	}
	return s.bank.SetAccount(ctx, addr, acct)
}

// Process builds, signs, and durably executes a transaction around the
// given instructions. A compute-budget directive is prepended unless the
// caller supplied one. Execution failures are reported in the outcome, with
// the failing index mapped back to the caller's instruction order.
func (s *Simulator) Process(ctx context.Context, ixs []solana.Instruction, opts ...TxOption) (*bank.ExecutionOutcome, error) {
	return s.execute(ctx, ixs, true, opts...)
}

// Simulate is Process without durability: no fee, no state change, no
// history record.
func (s *Simulator) Simulate(ctx context.Context, ixs []solana.Instruction, opts ...TxOption) (*bank.ExecutionOutcome, error) {
	return s.execute(ctx, ixs, false, opts...)
}

func (s *Simulator) execute(ctx context.Context, ixs []solana.Instruction, commit bool, opts ...TxOption) (*bank.ExecutionOutcome, error) {
	if len(ixs) == 0 {
		return nil, fmt.Errorf("%w: no instructions", ErrInvalidArgument)
	}
	tx, offset, err := s.buildAndSign(ixs, opts...)
	if err != nil {
		return nil, err
	}
	out, err := s.bank.ExecuteTransaction(ctx, tx, commit)
	if err != nil {
		return nil, err
	}
	return normalizeOutcome(out, offset), nil
}

// ProcessTransaction durably executes a transaction the caller built and
// signed themselves. No budget directive is added and failure indices are
// reported in message order.
func (s *Simulator) ProcessTransaction(ctx context.Context, tx *solana.Transaction) (*bank.ExecutionOutcome, error) {
	return s.bank.ExecuteTransaction(ctx, tx, true)
}

// Airdrop mints lamports into addr and returns the resulting balance.
func (s *Simulator) Airdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) (uint64, error) {
	bal, err := s.bank.Credit(ctx, addr, lamports)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCreditFailed, err)
	}
	return bal, nil
}

// NewFundedKeypair generates a keypair holding the configured default
// balance (one SOL unless overridden).
func (s *Simulator) NewFundedKeypair(ctx context.Context) (solana.PrivateKey, error) {
	return s.NewFundedKeypairWithBalance(ctx, s.cfg.Funding.DefaultFundedLamports)
}

// NewFundedKeypairWithBalance generates a keypair holding exactly lamports.
func (s *Simulator) NewFundedKeypairWithBalance(ctx context.Context, lamports uint64) (solana.PrivateKey, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}
	if _, err := s.Airdrop(ctx, key.PublicKey(), lamports); err != nil {
		return nil, err
	}
	return key, nil
}

// GetAccount returns the current state of addr, or ErrNotFound.
func (s *Simulator) GetAccount(ctx context.Context, addr solana.PublicKey) (*accountdb.Account, error) {
	acct, err := s.bank.GetAccount(ctx, addr)
	if errors.Is(err, accountdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: account %s", ErrNotFound, addr)
	}
	return acct, err
}

// GetBalance returns the lamport balance of addr; unknown addresses are
// zero.
func (s *Simulator) GetBalance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	return s.bank.GetBalance(ctx, addr)
}

// GetAccountTagged reads addr and decodes its data as a tag-discriminated
// record named accountName.
func (s *Simulator) GetAccountTagged(ctx context.Context, addr solana.PublicKey, accountName string, out interface{}) error {
	acct, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	return accountcodec.DecodeTagged(acct.Data, accountcodec.Discriminator(accountName), out)
}

// GetAccountBorsh reads addr and decodes its data as an untagged borsh
// record.
func (s *Simulator) GetAccountBorsh(ctx context.Context, addr solana.PublicKey, out interface{}) error {
	acct, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	return accountcodec.DecodeBorsh(acct.Data, out)
}

// GetAccountPacked reads addr and decodes the first packedLen bytes of its
// data as a fixed-layout record.
func (s *Simulator) GetAccountPacked(ctx context.Context, addr solana.PublicKey, packedLen int, out interface{}) error {
	acct, err := s.GetAccount(ctx, addr)
	if err != nil {
		return err
	}
	return accountcodec.DecodePacked(acct.Data, packedLen, out)
}

// GetTransactionStatus returns the recorded status of a past durable
// submission, or ErrNotFound.
func (s *Simulator) GetTransactionStatus(ctx context.Context, sig solana.Signature) (*txstore.Status, error) {
	st, err := s.history.Get(ctx, sig.String())
	if errors.Is(err, txstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: transaction %s", ErrNotFound, sig)
	}
	return st, err
}

// GetClock returns the current ledger clock.
func (s *Simulator) GetClock() bank.Clock { return s.bank.Clock() }

// AdvanceClock moves the clock forward by slots, which must be at least
// one.
func (s *Simulator) AdvanceClock(slots uint64) (bank.Clock, error) {
	clk, err := s.bank.AdvanceSlot(slots)
	if err != nil {
		return bank.Clock{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return clk, nil
}

// WarpToSlot jumps the clock to a slot strictly beyond the current one.
func (s *Simulator) WarpToSlot(slot uint64) (bank.Clock, error) {
	clk, err := s.bank.WarpToSlot(slot)
	if err != nil {
		return bank.Clock{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return clk, nil
}

// WarpToEpoch jumps the clock to the first slot of an epoch strictly beyond
// the current one.
func (s *Simulator) WarpToEpoch(epoch uint64) (bank.Clock, error) {
	clk, err := s.bank.WarpToEpoch(epoch)
	if err != nil {
		return bank.Clock{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return clk, nil
}
