package simulator

import "errors"

// Facade-level errors. Execution failures are reported through the
// transaction outcome instead; these cover rejected requests.
var (
	// ErrInvalidArgument marks requests the runtime refuses outright, like
	// a warp that does not move forward.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMissingSignature is returned when a required signer's key was not
	// provided to the transaction builder.
	ErrMissingSignature = errors.New("missing required signer")

	// ErrNotFound is returned for unknown accounts and signatures.
	ErrNotFound = errors.New("not found")

	// ErrCreditFailed is returned when an airdrop cannot be honored.
	ErrCreditFailed = errors.New("credit failed")
)
