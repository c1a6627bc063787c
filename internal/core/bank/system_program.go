package bank

import (
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// maxPermittedDataLength mirrors the runtime cap on account data size.
const maxPermittedDataLength = 10 * 1024 * 1024

// System program instruction discriminants (bincode, little-endian u32).
const (
	sysCreateAccount uint32 = 0
	sysAssign        uint32 = 1
	sysTransfer      uint32 = 2
	sysAllocate      uint32 = 8
)

// systemHandler implements the subset of the system program the harness
// needs: account creation, ownership assignment, lamport transfers, and
// data allocation.
func systemHandler(ictx *InstructionContext) error {
	dec := bin.NewBinDecoder(ictx.Data)
	disc, err := dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		return fmt.Errorf("%w: missing discriminant", ErrInvalidInstructionData)
	}

	switch disc {
	case sysCreateAccount:
		var params struct {
			Lamports uint64
			Space    uint64
			Owner    solana.PublicKey
		}
		if err := dec.Decode(&params); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
		}
		return sysDoCreateAccount(ictx, params.Lamports, params.Space, params.Owner)

	case sysAssign:
		var params struct {
			Owner solana.PublicKey
		}
		if err := dec.Decode(&params); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
		}
		return sysDoAssign(ictx, params.Owner)

	case sysTransfer:
		var params struct {
			Lamports uint64
		}
		if err := dec.Decode(&params); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
		}
		return sysDoTransfer(ictx, params.Lamports)

	case sysAllocate:
		var params struct {
			Space uint64
		}
		if err := dec.Decode(&params); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
		}
		return sysDoAllocate(ictx, params.Space)

	default:
		return fmt.Errorf("%w: unsupported system instruction %d", ErrInvalidInstructionData, disc)
	}
}

func sysDoCreateAccount(ictx *InstructionContext, lamports, space uint64, owner solana.PublicKey) error {
	from, err := ictx.Account(0)
	if err != nil {
		return err
	}
	to, err := ictx.Account(1)
	if err != nil {
		return err
	}
	if !from.IsSigner || !to.IsSigner {
		return ErrMissingRequiredSignature
	}
	if !from.IsWritable || !to.IsWritable {
		return ErrAccountNotWritable
	}
	if to.Acct.Lamports != 0 || len(to.Acct.Data) != 0 || !to.Acct.Owner.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.Key)
	}
	if space > maxPermittedDataLength {
		return fmt.Errorf("%w: %d bytes requested", ErrMaxDataLengthExceeded, space)
	}
	if from.Acct.Lamports < lamports {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, from.Acct.Lamports, lamports)
	}

	from.Acct.Lamports -= lamports
	to.Acct.Lamports += lamports
	to.Acct.Data = make([]byte, space)
	to.Acct.Owner = owner
	return nil
}

func sysDoAssign(ictx *InstructionContext, owner solana.PublicKey) error {
	target, err := ictx.Account(0)
	if err != nil {
		return err
	}
	if !target.IsSigner {
		return ErrMissingRequiredSignature
	}
	if !target.IsWritable {
		return ErrAccountNotWritable
	}
	target.Acct.Owner = owner
	return nil
}

func sysDoTransfer(ictx *InstructionContext, lamports uint64) error {
	from, err := ictx.Account(0)
	if err != nil {
		return err
	}
	to, err := ictx.Account(1)
	if err != nil {
		return err
	}
	if !from.IsSigner {
		return ErrMissingRequiredSignature
	}
	if !from.IsWritable || !to.IsWritable {
		return ErrAccountNotWritable
	}
	if from.Acct.Lamports < lamports {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, from.Acct.Lamports, lamports)
	}

	from.Acct.Lamports -= lamports
	to.Acct.Lamports += lamports
	return nil
}

func sysDoAllocate(ictx *InstructionContext, space uint64) error {
	target, err := ictx.Account(0)
	if err != nil {
		return err
	}
	if !target.IsSigner {
		return ErrMissingRequiredSignature
	}
	if !target.IsWritable {
		return ErrAccountNotWritable
	}
	if len(target.Acct.Data) != 0 {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, target.Key)
	}
	if space > maxPermittedDataLength {
		return fmt.Errorf("%w: %d bytes requested", ErrMaxDataLengthExceeded, space)
	}
	target.Acct.Data = make([]byte, space)
	return nil
}
