package bank

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Compute budget instruction discriminant for SetComputeUnitLimit.
const computeBudgetSetUnitLimit = 2

// computeBudgetHandler is a no-op at execution time: budget directives are
// applied during budget resolution, before any instruction runs. Executing
// the directive only costs its flat metering charge.
func computeBudgetHandler(_ *InstructionContext) error {
	return nil
}

// resolveUnitLimit scans a message for a set-unit-limit directive. The last
// directive wins; requests above the configured maximum are clamped.
func (b *Bank) resolveUnitLimit(msg *solana.Message) uint64 {
	limit := b.cfg.Compute.DefaultUnitLimit
	for _, ci := range msg.Instructions {
		if int(ci.ProgramIDIndex) >= len(msg.AccountKeys) {
			continue
		}
		prog := msg.AccountKeys[ci.ProgramIDIndex]
		if !prog.Equals(solana.ComputeBudget) {
			continue
		}
		if len(ci.Data) < 5 || ci.Data[0] != computeBudgetSetUnitLimit {
			continue
		}
		requested := uint64(binary.LittleEndian.Uint32(ci.Data[1:5]))
		if requested > b.cfg.Compute.MaxUnitLimit {
			requested = b.cfg.Compute.MaxUnitLimit
		}
		limit = requested
	}
	return limit
}
