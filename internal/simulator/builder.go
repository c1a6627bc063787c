package simulator

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"

	"github.com/picosvm/picosvm/internal/core/bank"
)

// txOptions collects per-submission overrides.
type txOptions struct {
	payer        *solana.PrivateKey
	extraSigners []solana.PrivateKey
	unitLimit    uint32
}

// TxOption customizes how Process and Simulate assemble a transaction.
type TxOption func(*txOptions)

// WithPayer makes p the fee payer and first signer instead of the session
// payer.
func WithPayer(p solana.PrivateKey) TxOption {
	return func(o *txOptions) { o.payer = &p }
}

// WithSigners supplies additional keypairs for instructions that require
// signatures beyond the payer's.
func WithSigners(keys ...solana.PrivateKey) TxOption {
	return func(o *txOptions) { o.extraSigners = append(o.extraSigners, keys...) }
}

// WithComputeUnitLimit overrides the compute ceiling requested for this
// submission.
func WithComputeUnitLimit(units uint32) TxOption {
	return func(o *txOptions) { o.unitLimit = units }
}

// buildAndSign assembles a signed transaction around the caller's
// instructions. Unless the caller already included a compute-budget
// directive, one is prepended; budgetOffset reports how many instructions
// were added in front so failure indices can be mapped back to the
// caller's order.
func (s *Simulator) buildAndSign(ixs []solana.Instruction, opts ...TxOption) (tx *solana.Transaction, budgetOffset int, err error) {
	o := &txOptions{unitLimit: uint32(s.cfg.Compute.DefaultUnitLimit)}
	for _, opt := range opts {
		opt(o)
	}

	payer := s.payer
	if o.payer != nil {
		payer = *o.payer
	}

	full := ixs
	if !hasComputeBudgetInstruction(ixs) {
		full = append([]solana.Instruction{
			computebudget.NewSetComputeUnitLimitInstruction(o.unitLimit).Build(),
		}, ixs...)
		budgetOffset = 1
	}

	tx, err = solana.NewTransaction(full, s.bank.LatestBlockhash(), solana.TransactionPayer(payer.PublicKey()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	signers := append([]solana.PrivateKey{payer}, o.extraSigners...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if signers[i].PublicKey().Equals(key) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMissingSignature, err)
	}
	return tx, budgetOffset, nil
}

func hasComputeBudgetInstruction(ixs []solana.Instruction) bool {
	for _, ix := range ixs {
		if ix.ProgramID().Equals(solana.ComputeBudget) {
			return true
		}
	}
	return false
}

// normalizeOutcome rewrites a failure's instruction index from message
// order to the caller's instruction order.
func normalizeOutcome(out *bank.ExecutionOutcome, budgetOffset int) *bank.ExecutionOutcome {
	if out.Err != nil && out.Err.InstructionIndex >= 0 {
		out.Err.InstructionIndex -= budgetOffset
		if out.Err.InstructionIndex < 0 {
			out.Err.InstructionIndex = -1
		}
	}
	return out
}
