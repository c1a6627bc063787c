package bank

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/picosvm/picosvm/internal/storage/accountdb"
)

// Handler executes one instruction addressed to a registered program. A
// returned error fails the whole transaction at that instruction.
type Handler func(ictx *InstructionContext) error

// BorrowedAccount is one account loaded into a transaction's working set,
// in instruction order. Mutations apply to the working copy and only reach
// the store when the transaction commits.
type BorrowedAccount struct {
	Key        solana.PublicKey
	IsSigner   bool
	IsWritable bool
	Acct       *accountdb.Account
}

// InstructionContext is what a handler sees of the instruction it executes.
type InstructionContext struct {
	// ProgramID is the invoked program.
	ProgramID solana.PublicKey

	// Accounts are the instruction's accounts, in the order the
	// instruction referenced them.
	Accounts []*BorrowedAccount

	// Data is the raw instruction payload.
	Data []byte

	logf  func(line string)
	meter *computeMeter
}

// Account returns the i-th instruction account or ErrNotEnoughAccounts.
func (ic *InstructionContext) Account(i int) (*BorrowedAccount, error) {
	if i >= len(ic.Accounts) {
		return nil, fmt.Errorf("%w: want index %d, have %d", ErrNotEnoughAccounts, i, len(ic.Accounts))
	}
	return ic.Accounts[i], nil
}

// Log emits one program log line into the transaction's log.
func (ic *InstructionContext) Log(msg string) {
	ic.logf("Program log: " + msg)
}

// Consume charges units against the transaction's compute budget.
func (ic *InstructionContext) Consume(units uint64) error {
	return ic.meter.consume(units)
}

// computeMeter tracks the remaining compute budget of one transaction.
type computeMeter struct {
	remaining uint64
}

func (m *computeMeter) consume(units uint64) error {
	if units > m.remaining {
		m.remaining = 0
		return ErrComputeBudgetExceeded
	}
	m.remaining -= units
	return nil
}

// Registry maps program addresses to their native handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[solana.PublicKey]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[solana.PublicKey]Handler)}
}

// Register binds a handler to a program address, replacing any previous
// binding.
func (r *Registry) Register(program solana.PublicKey, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[program] = h
}

// Lookup returns the handler for a program, if registered.
func (r *Registry) Lookup(program solana.PublicKey) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[program]
	return h, ok
}
