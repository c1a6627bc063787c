// Package txstore records the status of processed transactions for one
// session in an in-memory SQLite database.
package txstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver
)

// ErrNotFound is returned when no status is recorded for a signature.
var ErrNotFound = errors.New("transaction not found")

// Status is the recorded outcome of one durable submission.
type Status struct {
	// Signature is the transaction's primary signature, base58 encoded.
	Signature string

	// Slot is the slot the transaction was processed in.
	Slot uint64

	// ErrCode is empty for successful transactions.
	ErrCode string

	// ErrInstructionIndex is the failing instruction's index in the
	// caller's order, or -1 for transaction-level failures. Meaningless
	// when ErrCode is empty.
	ErrInstructionIndex int

	// UnitsConsumed is the compute spent by execution.
	UnitsConsumed uint64

	// Logs are the log lines emitted up to completion or failure.
	Logs []string
}

// Ok reports whether the transaction succeeded.
func (s *Status) Ok() bool { return s.ErrCode == "" }

// Store is a transaction history store. It is bound to one session and
// discarded with it.
type Store struct {
	db *sql.DB
}

// Open creates the in-memory history database and its schema.
func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open transaction store: %w", err)
	}

	// database/sql would otherwise open extra connections, each with its
	// own empty :memory: database.
	db.SetMaxOpenConns(1)

	const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	signature       TEXT PRIMARY KEY,
	slot            INTEGER NOT NULL,
	err_code        TEXT NOT NULL DEFAULT '',
	err_instruction INTEGER NOT NULL DEFAULT -1,
	units_consumed  INTEGER NOT NULL,
	logs            TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transactions_slot ON transactions(slot);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize transaction store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Record inserts or replaces the status for a signature.
func (s *Store) Record(ctx context.Context, st *Status) error {
	// Logs are stored as a JSON array; lines may themselves contain
	// newlines.
	logs, err := json.Marshal(st.Logs)
	if err != nil {
		return fmt.Errorf("failed to encode logs for transaction %s: %w", st.Signature, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO transactions
		 (signature, slot, err_code, err_instruction, units_consumed, logs)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		st.Signature, st.Slot, st.ErrCode, st.ErrInstructionIndex,
		st.UnitsConsumed, string(logs))
	if err != nil {
		return fmt.Errorf("failed to record transaction %s: %w", st.Signature, err)
	}
	return nil
}

// Get returns the status recorded for a signature, or ErrNotFound.
func (s *Store) Get(ctx context.Context, signature string) (*Status, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT signature, slot, err_code, err_instruction, units_consumed, logs
		 FROM transactions WHERE signature = ?`, signature)

	var st Status
	var logs string
	err := row.Scan(&st.Signature, &st.Slot, &st.ErrCode, &st.ErrInstructionIndex,
		&st.UnitsConsumed, &logs)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transaction %s: %w", signature, err)
	}
	if err := json.Unmarshal([]byte(logs), &st.Logs); err != nil {
		return nil, fmt.Errorf("failed to decode logs of transaction %s: %w", signature, err)
	}
	return &st, nil
}

// Count returns the number of recorded transactions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return n, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}
