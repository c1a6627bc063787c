package bank

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// TransactionError describes why a transaction failed. InstructionIndex is
// the offending instruction's position in the message, or -1 for failures
// that precede instruction execution (bad signatures, fee shortfall,
// duplicate submission).
type TransactionError struct {
	InstructionIndex int
	Code             string
}

func (e *TransactionError) Error() string {
	if e.InstructionIndex < 0 {
		return e.Code
	}
	return fmt.Sprintf("instruction %d: %s", e.InstructionIndex, e.Code)
}

// ExecutionOutcome is the result of executing one transaction, durable or
// simulated. A failed execution is a normal outcome, not a Go error: Err is
// set and the remaining fields describe what happened up to the failure.
type ExecutionOutcome struct {
	// Signature is the transaction's primary signature.
	Signature solana.Signature

	// Slot is the slot the transaction executed in.
	Slot uint64

	// Fee is the lamports charged to the payer. Zero for simulations and
	// for submissions rejected before fee assessment.
	Fee uint64

	// UnitsConsumed is the compute spent before completion or failure.
	UnitsConsumed uint64

	// Logs holds the emitted log lines in order.
	Logs []string

	// Err is nil on success.
	Err *TransactionError
}

// Ok reports whether the transaction succeeded.
func (o *ExecutionOutcome) Ok() bool { return o.Err == nil }
