package bank

import "errors"

// Handler-level failures. Execution maps these onto stable error codes in
// the transaction outcome; anything unrecognized becomes CodeProgramFailed.
var (
	ErrInvalidInstructionData   = errors.New("invalid instruction data")
	ErrInsufficientFunds        = errors.New("insufficient funds")
	ErrMissingRequiredSignature = errors.New("missing required signature")
	ErrAccountNotWritable       = errors.New("account not writable")
	ErrAccountAlreadyInUse      = errors.New("account already in use")
	ErrNotEnoughAccounts        = errors.New("not enough account keys")
	ErrMaxDataLengthExceeded    = errors.New("account data length exceeds maximum")
	ErrComputeBudgetExceeded    = errors.New("compute budget exceeded")
)

// Error codes recorded in transaction outcomes and the history store.
const (
	CodeSignatureFailure        = "SignatureFailure"
	CodeAlreadyProcessed        = "AlreadyProcessed"
	CodeInsufficientFundsForFee = "InsufficientFundsForFee"
	CodeUnsupportedProgram      = "UnsupportedProgramId"
	CodeInvalidInstructionData  = "InvalidInstructionData"
	CodeInsufficientFunds       = "InsufficientFunds"
	CodeMissingSignature        = "MissingRequiredSignature"
	CodeAccountNotWritable      = "AccountNotWritable"
	CodeAccountAlreadyInUse     = "AccountAlreadyInUse"
	CodeNotEnoughAccounts       = "NotEnoughAccountKeys"
	CodeMaxDataLengthExceeded   = "MaxDataLengthExceeded"
	CodeComputeBudgetExceeded   = "ComputeBudgetExceeded"
	CodeProgramFailed           = "ProgramFailed"
)

// errToCode maps a handler error onto its outcome code.
func errToCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInstructionData):
		return CodeInvalidInstructionData
	case errors.Is(err, ErrInsufficientFunds):
		return CodeInsufficientFunds
	case errors.Is(err, ErrMissingRequiredSignature):
		return CodeMissingSignature
	case errors.Is(err, ErrAccountNotWritable):
		return CodeAccountNotWritable
	case errors.Is(err, ErrAccountAlreadyInUse):
		return CodeAccountAlreadyInUse
	case errors.Is(err, ErrNotEnoughAccounts):
		return CodeNotEnoughAccounts
	case errors.Is(err, ErrMaxDataLengthExceeded):
		return CodeMaxDataLengthExceeded
	case errors.Is(err, ErrComputeBudgetExceeded):
		return CodeComputeBudgetExceeded
	default:
		return CodeProgramFailed
	}
}
