package bank

import "fmt"

// Clock is the ledger clock snapshot visible to programs and callers. All
// fields derive from the current slot and the genesis configuration.
type Clock struct {
	// Slot is the current slot.
	Slot uint64

	// Epoch is Slot / SlotsPerEpoch.
	Epoch uint64

	// EpochStartTimestamp is the unix timestamp of the epoch's first slot.
	EpochStartTimestamp int64

	// UnixTimestamp is the unix timestamp of the current slot.
	UnixTimestamp int64
}

// clockAt derives the clock snapshot for a slot.
func (b *Bank) clockAt(slot uint64) Clock {
	spe := b.cfg.Genesis.SlotsPerEpoch
	epoch := slot / spe
	return Clock{
		Slot:                slot,
		Epoch:               epoch,
		EpochStartTimestamp: b.slotTimestamp(epoch * spe),
		UnixTimestamp:       b.slotTimestamp(slot),
	}
}

// slotTimestamp is the unix timestamp of a slot under the configured slot
// duration.
func (b *Bank) slotTimestamp(slot uint64) int64 {
	elapsed := int64(slot) * b.cfg.Genesis.SlotDuration.Nanoseconds() / 1e9
	return b.cfg.Genesis.GenesisUnixTime + elapsed
}

// Clock returns the current clock snapshot.
func (b *Bank) Clock() Clock {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clockAt(b.slot)
}

// AdvanceSlot moves the clock forward by n slots. n must be at least one.
func (b *Bank) AdvanceSlot(n uint64) (Clock, error) {
	if n == 0 {
		return Clock{}, fmt.Errorf("advance must move at least one slot")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setSlot(b.slot + n)
	return b.clockAt(b.slot), nil
}

// WarpToSlot jumps the clock to target, which must lie strictly beyond the
// current slot.
func (b *Bank) WarpToSlot(target uint64) (Clock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if target <= b.slot {
		return Clock{}, fmt.Errorf("target slot %d is not beyond current slot %d", target, b.slot)
	}
	b.setSlot(target)
	return b.clockAt(b.slot), nil
}

// WarpToEpoch jumps the clock to the first slot of epoch, which must lie
// strictly beyond the current epoch.
func (b *Bank) WarpToEpoch(epoch uint64) (Clock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.slot / b.cfg.Genesis.SlotsPerEpoch
	if epoch <= current {
		return Clock{}, fmt.Errorf("target epoch %d is not beyond current epoch %d", epoch, current)
	}
	b.setSlot(epoch * b.cfg.Genesis.SlotsPerEpoch)
	return b.clockAt(b.slot), nil
}

// setSlot installs a new slot and rotates the blockhash so transactions
// built before the jump stay distinguishable from ones built after it.
// Callers hold b.mu.
func (b *Bank) setSlot(slot uint64) {
	b.slot = slot
	b.rotateBlockhash()
}
