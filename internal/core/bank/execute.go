package bank

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/picosvm/picosvm/internal/storage/accountdb"
	"github.com/picosvm/picosvm/internal/storage/txstore"
)

// ExecuteTransaction runs tx against current state.
//
// When commit is true the submission is durable: the signature fee is
// charged to the payer (on success and on execution failure alike), state
// changes persist, the blockhash rotates, and the outcome is recorded in
// the history store. When commit is false nothing is mutated and no fee is
// charged.
//
// A failed execution is reported through the outcome's Err field; the
// returned Go error is reserved for infrastructure failures.
func (b *Bank) ExecuteTransaction(ctx context.Context, tx *solana.Transaction, commit bool) (*ExecutionOutcome, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := &ExecutionOutcome{Slot: b.slot}

	if len(tx.Signatures) == 0 || len(tx.Message.AccountKeys) == 0 {
		out.Err = &TransactionError{InstructionIndex: -1, Code: CodeSignatureFailure}
		return out, nil
	}
	out.Signature = tx.Signatures[0]

	if err := tx.VerifySignatures(); err != nil {
		out.Err = &TransactionError{InstructionIndex: -1, Code: CodeSignatureFailure}
		return out, nil
	}

	// Byte-identical resubmission of a processed transaction is rejected,
	// like on a real cluster. Rejections are not re-recorded so the
	// original status stays queryable.
	if commit {
		if _, seen := b.seenSigs.Get(out.Signature); seen {
			out.Err = &TransactionError{InstructionIndex: -1, Code: CodeAlreadyProcessed}
			return out, nil
		}
	}

	msg := &tx.Message
	numRequired := int(msg.Header.NumRequiredSignatures)
	fee := b.cfg.Fees.LamportsPerSignature * uint64(numRequired)

	// Load working copies of every referenced account. Unknown addresses
	// enter the set as fresh system-owned accounts.
	working := make(map[solana.PublicKey]*accountdb.Account, len(msg.AccountKeys))
	for _, key := range msg.AccountKeys {
		if _, ok := working[key]; ok {
			continue
		}
		acct, err := b.store.Get(ctx, key)
		if err == accountdb.ErrNotFound {
			acct = &accountdb.Account{Owner: solana.SystemProgramID}
		} else if err != nil {
			return nil, fmt.Errorf("failed to load account %s: %w", key, err)
		}
		working[key] = acct
	}

	payerKey := msg.AccountKeys[0]
	payer := working[payerKey]
	if payer.Lamports < fee {
		out.Err = &TransactionError{InstructionIndex: -1, Code: CodeInsufficientFundsForFee}
		return out, nil
	}

	// The payer sees a post-fee balance during execution. If execution
	// fails, only this deduction survives the commit.
	var payerAfterFee *accountdb.Account
	if commit {
		payerAfterFee = payer.Clone()
		payerAfterFee.Lamports -= fee
		out.Fee = fee
	}
	payer.Lamports -= fee

	limit := b.resolveUnitLimit(msg)
	meter := &computeMeter{remaining: limit}
	var logs []string
	logf := func(line string) { logs = append(logs, line) }

	var txErr *TransactionError
	for idx, ci := range msg.Instructions {
		programID, accounts, err := b.resolveInstruction(msg, &ci, working)
		if err != nil {
			txErr = &TransactionError{InstructionIndex: idx, Code: errToCode(err)}
			break
		}

		handler, ok := b.registry.Lookup(programID)
		if !ok {
			txErr = &TransactionError{InstructionIndex: idx, Code: CodeUnsupportedProgram}
			break
		}

		logf(fmt.Sprintf("Program %s invoke [1]", programID))
		if err := meter.consume(b.cfg.Compute.DefaultInstructionCost); err != nil {
			logf(fmt.Sprintf("Program %s failed: %s", programID, err))
			txErr = &TransactionError{InstructionIndex: idx, Code: CodeComputeBudgetExceeded}
			break
		}

		ictx := &InstructionContext{
			ProgramID: programID,
			Accounts:  accounts,
			Data:      ci.Data,
			logf:      logf,
			meter:     meter,
		}
		if err := handler(ictx); err != nil {
			logf(fmt.Sprintf("Program %s failed: %s", programID, err))
			txErr = &TransactionError{InstructionIndex: idx, Code: errToCode(err)}
			break
		}
		logf(fmt.Sprintf("Program %s success", programID))
	}

	out.UnitsConsumed = limit - meter.remaining
	out.Logs = logs
	out.Err = txErr

	if !commit {
		return out, nil
	}

	if txErr == nil {
		if err := b.commitWorkingSet(ctx, msg, working); err != nil {
			return nil, err
		}
	} else {
		if err := b.store.Put(ctx, payerKey, payerAfterFee); err != nil {
			return nil, fmt.Errorf("failed to charge fee to %s: %w", payerKey, err)
		}
	}

	b.seenSigs.Add(out.Signature, struct{}{})
	b.txCount++
	b.rotateBlockhash()

	status := &txstore.Status{
		Signature:           out.Signature.String(),
		Slot:                out.Slot,
		ErrInstructionIndex: -1,
		UnitsConsumed:       out.UnitsConsumed,
		Logs:                out.Logs,
	}
	if txErr != nil {
		status.ErrCode = txErr.Code
		status.ErrInstructionIndex = txErr.InstructionIndex
	}
	if err := b.history.Record(ctx, status); err != nil {
		return nil, err
	}

	b.logger.Printf("processed transaction %s in slot %d: ok=%v units=%d",
		out.Signature, out.Slot, txErr == nil, out.UnitsConsumed)
	return out, nil
}

// resolveInstruction maps a compiled instruction's indices onto the working
// set.
func (b *Bank) resolveInstruction(msg *solana.Message, ci *solana.CompiledInstruction, working map[solana.PublicKey]*accountdb.Account) (solana.PublicKey, []*BorrowedAccount, error) {
	if int(ci.ProgramIDIndex) >= len(msg.AccountKeys) {
		return solana.PublicKey{}, nil, fmt.Errorf("%w: program index %d out of range", ErrNotEnoughAccounts, ci.ProgramIDIndex)
	}
	programID := msg.AccountKeys[ci.ProgramIDIndex]

	accounts := make([]*BorrowedAccount, len(ci.Accounts))
	for i, ai := range ci.Accounts {
		idx := int(ai)
		if idx >= len(msg.AccountKeys) {
			return solana.PublicKey{}, nil, fmt.Errorf("%w: account index %d out of range", ErrNotEnoughAccounts, idx)
		}
		key := msg.AccountKeys[idx]
		accounts[i] = &BorrowedAccount{
			Key:        key,
			IsSigner:   idx < int(msg.Header.NumRequiredSignatures),
			IsWritable: isWritable(msg, idx),
			Acct:       working[key],
		}
	}
	return programID, accounts, nil
}

// commitWorkingSet writes back every writable account. Accounts drained to
// zero lamports with no data revert to nonexistence.
func (b *Bank) commitWorkingSet(ctx context.Context, msg *solana.Message, working map[solana.PublicKey]*accountdb.Account) error {
	batch := make(map[solana.PublicKey]*accountdb.Account)
	var reaped []solana.PublicKey
	for i, key := range msg.AccountKeys {
		if !isWritable(msg, i) {
			continue
		}
		acct := working[key]
		if acct.Lamports == 0 && len(acct.Data) == 0 && acct.Owner.Equals(solana.SystemProgramID) {
			reaped = append(reaped, key)
			continue
		}
		batch[key] = acct
	}
	if len(batch) > 0 {
		if err := b.store.PutBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to commit account state: %w", err)
		}
	}
	for _, key := range reaped {
		if err := b.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to reap account %s: %w", key, err)
		}
	}
	return nil
}

// isWritable derives writability from the message header layout: writable
// signers first, then readonly signers, then writable non-signers, then
// readonly non-signers.
func isWritable(msg *solana.Message, idx int) bool {
	required := int(msg.Header.NumRequiredSignatures)
	if idx < required {
		return idx < required-int(msg.Header.NumReadonlySignedAccounts)
	}
	return idx < len(msg.AccountKeys)-int(msg.Header.NumReadonlyUnsignedAccounts)
}
