// Package errors defines the failures an instruction can surface to its
// caller. Program errors carry a stable numeric code so clients can match on
// them without parsing messages; host errors originate in the runtime.
package errors

import (
	stderrors "errors"
	"fmt"
)

// CustomErrorOffset is the first code available to program-defined errors.
const CustomErrorOffset uint32 = 6000

// ProgramError is a coded error returned by on-chain logic.
type ProgramError struct {
	Code uint32
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

// Is matches program errors by code so wrapped copies still compare equal.
func (e *ProgramError) Is(target error) bool {
	var other *ProgramError
	if !stderrors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func newProgramError(code uint32, name, msg string) *ProgramError {
	return &ProgramError{Code: code, Name: name, Msg: msg}
}

// Entity errors.
var (
	ErrNotFound = newProgramError(CustomErrorOffset, "NotFound", "record not found")
)

// Configuration errors.
var (
	ErrCapacityExceeded = newProgramError(CustomErrorOffset+100, "TooManyAllowedMints", "Too many allowed mints provided")
	ErrPaused           = newProgramError(CustomErrorOffset+101, "ProgramPaused", "Program is currently paused")
	ErrUnauthorized     = newProgramError(CustomErrorOffset+102, "UnauthorizedAdmin", "Unauthorized: caller is not the admin")
	ErrMintNotAllowed   = newProgramError(CustomErrorOffset+103, "MintNotAllowed", "Mint not in allowed list")
)

// Host errors raised by the runtime or by account constraint checks.
var (
	ErrAlreadyInitialized           = newProgramError(0, "AccountAlreadyInUse", "account already in use")
	ErrMissingSigner                = newProgramError(3010, "AccountNotSigner", "a required signature is missing")
	ErrSeedsMismatch                = newProgramError(2006, "ConstraintSeeds", "account address does not match derived seeds")
	ErrInstructionFallbackNotFound  = newProgramError(101, "InstructionFallbackNotFound", "unknown instruction discriminator")
	ErrInstructionDidNotDeserialize = newProgramError(102, "InstructionDidNotDeserialize", "instruction data could not be decoded")
	ErrAccountDiscriminatorMismatch = newProgramError(3002, "AccountDiscriminatorMismatch", "account discriminator did not match")
	ErrAccountDidNotDeserialize     = newProgramError(3003, "AccountDidNotDeserialize", "account data could not be decoded")
	ErrAccountNotEnoughKeys         = newProgramError(3005, "AccountNotEnoughKeys", "not enough account keys given to the instruction")
	ErrInvalidProgramID             = newProgramError(3008, "InvalidProgramId", "program id was not as expected")

	ErrInvalidSignature   = stderrors.New("runtime: invalid signature")
	ErrInsufficientFunds  = stderrors.New("runtime: insufficient funds for rent")
	ErrAccountNotOwned    = stderrors.New("runtime: account not owned by program")
	ErrAccountDataTooBig  = stderrors.New("runtime: account data exceeds allocated space")
	ErrAccountNotFound    = stderrors.New("runtime: account not found")
	ErrAccountNotWritable = stderrors.New("runtime: account not marked writable")
)

// Code extracts the program error code from err. ok is false for host errors
// without a code or for nil.
func Code(err error) (uint32, bool) {
	var pe *ProgramError
	if !stderrors.As(err, &pe) {
		return 0, false
	}
	return pe.Code, true
}
