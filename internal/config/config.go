// Package config holds the simulator session configuration.
package config

import (
	"fmt"
	"time"
)

// Config is the full simulator configuration, assembled by LoadConfig from
// defaults, an optional config file, and PICOSVM_* environment variables.
type Config struct {
	Genesis GenesisConfig `mapstructure:"genesis"`
	Fees    FeeConfig     `mapstructure:"fees"`
	Compute ComputeConfig `mapstructure:"compute"`
	Funding FundingConfig `mapstructure:"funding"`
	Store   StoreConfig   `mapstructure:"account_store"`
}

// GenesisConfig fixes the session's clock and initial state.
type GenesisConfig struct {
	// SlotsPerEpoch is the number of slots in one epoch.
	SlotsPerEpoch uint64 `mapstructure:"slots_per_epoch"`

	// SlotDuration is the wall-clock-equivalent length of one slot.
	SlotDuration time.Duration `mapstructure:"slot_duration"`

	// GenesisUnixTime is the timestamp of slot zero, in unix seconds.
	GenesisUnixTime int64 `mapstructure:"genesis_unix_time"`

	// PayerLamports is the balance minted to the session's default payer.
	PayerLamports uint64 `mapstructure:"payer_lamports"`
}

// FeeConfig is the fee schedule applied to durable submissions.
type FeeConfig struct {
	// LamportsPerSignature is charged to the payer per required signature,
	// on success and on failure alike.
	LamportsPerSignature uint64 `mapstructure:"lamports_per_signature"`
}

// ComputeConfig bounds transaction execution.
type ComputeConfig struct {
	// DefaultUnitLimit is the compute ceiling applied when a transaction
	// carries no compute-budget directive.
	DefaultUnitLimit uint64 `mapstructure:"default_unit_limit"`

	// MaxUnitLimit caps any requested ceiling.
	MaxUnitLimit uint64 `mapstructure:"max_unit_limit"`

	// DefaultInstructionCost is the units a builtin consumes when its
	// handler does not meter a specific amount.
	DefaultInstructionCost uint64 `mapstructure:"default_instruction_cost"`
}

// FundingConfig bounds the credit primitive.
type FundingConfig struct {
	// DefaultFundedLamports is credited by NewFundedKeypair when the
	// caller gives no amount.
	DefaultFundedLamports uint64 `mapstructure:"default_funded_lamports"`

	// MaxCreditLamports is the per-call cap the runtime enforces on
	// credits; requests above it fail.
	MaxCreditLamports uint64 `mapstructure:"max_credit_lamports"`
}

// StoreConfig selects the account store backend.
type StoreConfig struct {
	// Backend is "memory" or "pebble".
	Backend string `mapstructure:"backend"`

	// Compressor names the blob compressor for the pebble backend.
	Compressor string `mapstructure:"compressor"`

	// SignatureCacheSize bounds the seen-signature dedup cache.
	SignatureCacheSize int `mapstructure:"signature_cache_size"`
}

// ValidateConfig rejects configurations the runtime cannot honor.
func ValidateConfig(cfg *Config) error {
	if cfg.Genesis.SlotsPerEpoch == 0 {
		return fmt.Errorf("genesis.slots_per_epoch must be positive")
	}
	if cfg.Genesis.SlotDuration <= 0 {
		return fmt.Errorf("genesis.slot_duration must be positive")
	}
	if cfg.Compute.DefaultUnitLimit == 0 {
		return fmt.Errorf("compute.default_unit_limit must be positive")
	}
	if cfg.Compute.DefaultUnitLimit > cfg.Compute.MaxUnitLimit {
		return fmt.Errorf("compute.default_unit_limit %d exceeds max_unit_limit %d",
			cfg.Compute.DefaultUnitLimit, cfg.Compute.MaxUnitLimit)
	}
	if cfg.Store.SignatureCacheSize <= 0 {
		return fmt.Errorf("account_store.signature_cache_size must be positive")
	}
	switch cfg.Store.Backend {
	case "memory", "pebble":
	default:
		return fmt.Errorf("unknown account_store.backend: %s", cfg.Store.Backend)
	}
	return nil
}
