package config

import (
	"time"

	"github.com/spf13/viper"
)

// Default values. The clock defaults track mainnet parameters (432,000
// slots per epoch, 400ms slots); tests usually shrink the epoch via
// LoadConfig overrides so warps stay cheap.
const (
	DefaultSlotsPerEpoch = 432_000
	DefaultSlotDuration  = 400 * time.Millisecond

	// DefaultLamportsPerSignature matches the ledger's standard fee.
	DefaultLamportsPerSignature = 5_000

	// DefaultComputeUnitLimit is applied when no budget directive is
	// given; MaxComputeUnitLimit is the protocol ceiling.
	DefaultComputeUnitLimit = 1_400_000
	MaxComputeUnitLimit     = 1_400_000

	// DefaultInstructionCost is the flat metering charge per builtin
	// instruction.
	DefaultInstructionCost = 150

	// LamportsPerSol is the native-token subunit ratio.
	LamportsPerSol = 1_000_000_000

	// DefaultFundedLamports is one SOL, the classic funded-keypair amount.
	DefaultFundedLamports = LamportsPerSol

	// DefaultMaxCreditLamports caps one credit request at 1000 SOL.
	DefaultMaxCreditLamports = 1_000 * LamportsPerSol

	// DefaultPayerLamports seeds the session payer generously enough that
	// fee accounting never interferes with a test's arithmetic.
	DefaultPayerLamports = 10_000 * LamportsPerSol

	DefaultSignatureCacheSize = 4096
)

// setDefaults installs default values on a viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("genesis.slots_per_epoch", DefaultSlotsPerEpoch)
	v.SetDefault("genesis.slot_duration", DefaultSlotDuration)
	v.SetDefault("genesis.genesis_unix_time", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	v.SetDefault("genesis.payer_lamports", uint64(DefaultPayerLamports))

	v.SetDefault("fees.lamports_per_signature", uint64(DefaultLamportsPerSignature))

	v.SetDefault("compute.default_unit_limit", uint64(DefaultComputeUnitLimit))
	v.SetDefault("compute.max_unit_limit", uint64(MaxComputeUnitLimit))
	v.SetDefault("compute.default_instruction_cost", uint64(DefaultInstructionCost))

	v.SetDefault("funding.default_funded_lamports", uint64(DefaultFundedLamports))
	v.SetDefault("funding.max_credit_lamports", uint64(DefaultMaxCreditLamports))

	v.SetDefault("account_store.backend", "memory")
	v.SetDefault("account_store.compressor", "lz4")
	v.SetDefault("account_store.signature_cache_size", DefaultSignatureCacheSize)
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		// Defaults always validate; a failure here is a programming error.
		panic("invalid default config: " + err.Error())
	}
	return cfg
}
