package vmerrors

import (
	"errors"
	"strings"
)

// Stack (S) Errors
var (
	ErrSStackOverflow  = errors.New("S1|StackOverflow: Push onto a stack already holding 1024 items.")
	ErrSStackUnderflow = errors.New("S2|StackUnderflow: Pop or peek below the bottom of the stack.")
	ErrSReturnStack    = errors.New("S3|ReturnStackOverflow: Section call nesting exceeds the return stack limit.")
)

// Gas (G) Errors
var (
	ErrGOutOfGas            = errors.New("G1|OutOfGas: Charge exceeds the remaining gas.")
	ErrGGasUintOverflow     = errors.New("G2|GasUintOverflow: Gas computation overflows 64 bits.")
	ErrGCodeStoreOutOfGas   = errors.New("G3|CodeStoreOutOfGas: Not enough gas left to deposit the created code.")
	ErrGInsufficientStipend = errors.New("G4|InsufficientStipend: SSTORE with gas at or below the call stipend.")
)

// Jump & Opcode (J) Errors
var (
	ErrJInvalidJump   = errors.New("J1|InvalidJump: Jump target is not a JUMPDEST.")
	ErrJInvalidOpcode = errors.New("J2|InvalidOpcode: Opcode is not defined for the active rule set.")
	ErrJReturnDataOOB = errors.New("J3|ReturnDataOutOfBounds: Copy past the end of the return data buffer.")
)

// Memory (M) Errors
var (
	ErrMMemoryLimitExceeded = errors.New("M1|MemoryLimitExceeded: Expansion past the configured memory ceiling.")
)

// Call & Create (C) Errors
var (
	ErrCWriteProtection     = errors.New("C1|WriteProtection: State modification inside a static call.")
	ErrCDepthExceeded       = errors.New("C2|DepthExceeded: Call or create beyond the maximum frame depth.")
	ErrCInsufficientBalance = errors.New("C3|InsufficientBalance: Value transfer exceeds the sender balance.")
	ErrCCallValueOverflow   = errors.New("C4|CallValueOverflow: Value transfer overflows the recipient balance.")
	ErrCContractCollision   = errors.New("C5|ContractAddressCollision: Create target already has code, nonce or storage.")
	ErrCMaxCodeSize         = errors.New("C6|MaxCodeSizeExceeded: Deployed code is larger than the rule set allows.")
	ErrCMaxInitCodeSize     = errors.New("C7|MaxInitCodeSizeExceeded: Init code is larger than the rule set allows.")
	ErrCInvalidCodePrefix   = errors.New("C8|InvalidCodePrefix: Deployed code starts with the reserved 0xEF byte.")
	ErrCNonceOverflow       = errors.New("C9|NonceOverflow: Sender nonce is already at its maximum.")
	ErrCRevert              = errors.New("C10|ExecutionReverted: Frame exited through REVERT.")
	ErrCAddressOutOfRange   = errors.New("C11|AddressOutOfRange: Call target has bits set above the low 160.")
)

// Container validation (V) Errors
var (
	ErrVInvalidMagic            = errors.New("V1|InvalidMagic: Container does not start with 0xEF00.")
	ErrVInvalidVersion          = errors.New("V2|InvalidVersion: Unsupported container version.")
	ErrVMissingTypeHeader       = errors.New("V3|MissingTypeHeader: Type section header missing.")
	ErrVInvalidTypeSize         = errors.New("V4|InvalidTypeSize: Type section size does not match the code section count.")
	ErrVMissingCodeHeader       = errors.New("V5|MissingCodeHeader: Code section header missing.")
	ErrVInvalidCodeSize         = errors.New("V6|InvalidCodeSize: Code section count or size out of range.")
	ErrVInvalidContainerSize    = errors.New("V7|InvalidContainerSize: Container section count or size out of range.")
	ErrVMissingDataHeader       = errors.New("V8|MissingDataHeader: Data section header missing.")
	ErrVMissingTerminator       = errors.New("V9|MissingTerminator: Header terminator byte missing.")
	ErrVInvalidSectionBodySize  = errors.New("V10|InvalidSectionBodySize: Section bodies do not match the declared sizes.")
	ErrVInvalidFirstSection     = errors.New("V11|InvalidFirstSectionType: First code section must take no inputs and be non-returning.")
	ErrVTooManyInputs           = errors.New("V12|TooManyInputs: Section declares more than 127 inputs.")
	ErrVTooManyOutputs          = errors.New("V13|TooManyOutputs: Section declares more than 127 outputs.")
	ErrVTooLargeMaxStackHeight  = errors.New("V14|TooLargeMaxStackHeight: Section max stack height exceeds 1023.")
	ErrVUndefinedInstruction    = errors.New("V15|UndefinedInstruction: Code section contains an undefined opcode.")
	ErrVTruncatedImmediate      = errors.New("V16|TruncatedImmediate: Instruction immediate runs past the section end.")
	ErrVInvalidJumpDest         = errors.New("V17|InvalidJumpDest: Relative jump lands outside the section or inside an immediate.")
	ErrVInvalidSectionArgument  = errors.New("V18|InvalidSectionArgument: Code section index out of range.")
	ErrVInvalidContainerArg     = errors.New("V19|InvalidContainerArgument: Container index out of range.")
	ErrVInvalidDataloadnArg     = errors.New("V20|InvalidDataloadnArgument: DATALOADN reads past the data section.")
	ErrVInvalidCodeTermination  = errors.New("V21|InvalidCodeTermination: Code section does not end in a terminating instruction.")
	ErrVInvalidNonReturning     = errors.New("V22|InvalidNonReturningFlag: Non-returning flag disagrees with section contents.")
	ErrVUnreachableCode         = errors.New("V23|UnreachableCodeSections: Code section is never referenced.")
	ErrVTruncatedData           = errors.New("V24|TruncatedDataSection: Deployed container data section is shorter than declared.")
	ErrVIncompatibleContainer   = errors.New("V25|IncompatibleContainerKind: Subcontainer used both for creation and as runtime.")
	ErrVLegacyInContainerScope  = errors.New("V26|LegacyInstruction: Instruction is not allowed inside a container.")
	ErrVContainerDepthExceeded  = errors.New("V27|ContainerDepthExceeded: Subcontainers nest too deeply.")
	ErrVUnexpectedTrailingBytes = errors.New("V28|TrailingBytes: Bytes after the last section body.")
	ErrVUnreferencedContainer   = errors.New("V29|UnreferencedSubcontainer: Subcontainer is never referenced.")
)

// Precompile (P) Errors
var (
	ErrPInvalidInput        = errors.New("P1|InvalidInput: Precompile input is malformed.")
	ErrPInvalidPoint        = errors.New("P2|InvalidPoint: Curve point is not on the curve or not in the subgroup.")
	ErrPInvalidFieldElement = errors.New("P3|InvalidFieldElement: Field element is not canonical.")
	ErrPProofFailed         = errors.New("P4|ProofFailed: Point evaluation proof did not verify.")
	ErrPInvalidFinalFlag    = errors.New("P5|InvalidFinalFlag: BLAKE2 final block flag is not 0 or 1.")
)

// Execution guard (X) Errors
var (
	ErrXStepLimitExceeded = errors.New("X1|StepLimitExceeded: Instruction count reached the configured ceiling.")
	ErrXExecutionAborted  = errors.New("X2|ExecutionAborted: Execution stopped by the caller or an inspector.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return "No Error"
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") || !strings.Contains(errStr, ":") {
		return errStr
	}
	parts := strings.SplitN(errStr, "|", 2)
	if len(parts) < 2 {
		return errStr
	}
	nameDesc := parts[1]
	// Split on ':' to separate the error name from its description.
	nameParts := strings.SplitN(nameDesc, ":", 2)
	return strings.TrimSpace(nameParts[0])
}

func GetErrorNames(errs []error) []string {
	errStrs := make([]string, len(errs))
	for i, err := range errs {
		errStrs[i] = GetErrorName(err)
	}
	return errStrs
}

// GetErrorCode extracts the error code from the error message.
func GetErrorCode(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "|") {
		return ""
	}
	parts := strings.SplitN(errStr, "|", 2)
	return strings.TrimSpace(parts[0])
}

// GetErrorCodeWithName returns the error code and name in the format "Code_ErrorName".
func GetErrorCodeWithName(err error) string {
	code := GetErrorCode(err)
	name := GetErrorName(err)
	if code == "" || name == "" {
		return ""
	}
	return code + "_" + name
}

// GetErrorDesc extracts the error description from the error message.
func GetErrorDesc(err error) string {
	if err == nil {
		return ""
	}
	errStr := err.Error()
	parts := strings.SplitN(errStr, ":", 2)
	if len(parts) < 2 {
		return "DESC NOT SET"
	}
	return strings.TrimSpace(parts[1])
}

// IsRevert reports whether err is the deliberate REVERT exit.
func IsRevert(err error) bool {
	return errors.Is(err, ErrCRevert)
}

// ConsumesAllGas reports whether a frame ending in err loses its remaining gas
// under the classic policy. Revert and the pre-spawn call failures keep it.
func ConsumesAllGas(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrCRevert),
		errors.Is(err, ErrCDepthExceeded),
		errors.Is(err, ErrCInsufficientBalance),
		errors.Is(err, ErrCNonceOverflow):
		return false
	}
	return true
}

// IsValidation reports whether err is a container structural error.
func IsValidation(err error) bool {
	return strings.HasPrefix(GetErrorCode(rootOf(err)), "V")
}

func rootOf(err error) error {
	for {
		u := errors.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
}
