package accountdb

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// MemoryBackend keeps all account records as live Go objects.
type MemoryBackend struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]*Account
	closed   bool
}

// NewMemoryBackend creates an empty in-memory account store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		accounts: make(map[solana.PublicKey]*Account),
	}
}

func (m *MemoryBackend) Get(ctx context.Context, addr solana.PublicKey) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	acct, ok := m.accounts[addr]
	if !ok {
		return nil, ErrNotFound
	}
	// Hand out a copy; callers mutate working copies during execution.
	return acct.Clone(), nil
}

func (m *MemoryBackend) Put(ctx context.Context, addr solana.PublicKey, acct *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.accounts[addr] = acct.Clone()
	return nil
}

func (m *MemoryBackend) PutBatch(ctx context.Context, accts map[solana.PublicKey]*Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for addr, acct := range accts {
		m.accounts[addr] = acct.Clone()
	}
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, addr solana.PublicKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	delete(m.accounts, addr)
	return nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.accounts = nil
	m.closed = true
	return nil
}
