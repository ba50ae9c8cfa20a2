package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeConflict        ErrorCode = "COMMON_006"
	ErrCodeTimeout         ErrorCode = "COMMON_009"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeSerialization   ErrorCode = "COMMON_011"
	ErrCodeDatabaseError   ErrorCode = "COMMON_012"
	ErrCodeCacheError      ErrorCode = "COMMON_013"
	ErrCodeExternalService ErrorCode = "COMMON_014"
	ErrCodeStorageError    ErrorCode = "COMMON_017"
	ErrCodeMessagingError  ErrorCode = "COMMON_018"
)

// Aliases used at call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")

	CodeMoleculeInvalidSMILES = ErrCodeMoleculeInvalidSMILES
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidSMILES       ErrorCode = "MOL_001"
	ErrCodeMoleculeParsingFailed       ErrorCode = "MOL_006"
	ErrCodeFingerprintGenerationFailed ErrorCode = "MOL_007"
	ErrCodeFingerprintTypeUnsupported  ErrorCode = "MOL_008"
	ErrCodeSubstructureSearchFailed    ErrorCode = "MOL_012"
)

// Dataset Module Error Codes
const (
	// ErrCodeConfiguration marks an invalid or contradictory dataset option.
	ErrCodeConfiguration ErrorCode = "DATA_001"
	// ErrCodeInvalidState marks a pretraining-only operation called without pretraining.
	ErrCodeInvalidState ErrorCode = "DATA_002"
	// ErrCodeOutOfRange marks an index outside a container's declared length.
	ErrCodeOutOfRange ErrorCode = "DATA_003"
	// ErrCodeResourceExhausted marks a worker pool that could not be scheduled.
	ErrCodeResourceExhausted ErrorCode = "DATA_004"
	// ErrCodeDataDegenerate marks an input with nothing to mask or label.
	ErrCodeDataDegenerate ErrorCode = "DATA_005"
	ErrCodeVocabularyInvalid ErrorCode = "DATA_006"
	ErrCodeArtifactNotFound  ErrorCode = "DATA_007"
)

// ErrorCodeMessage maps ErrorCode to default user-friendly messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:        "internal error",
	ErrCodeBadRequest:      "bad request",
	ErrCodeNotFound:        "resource not found",
	ErrCodeConflict:        "resource conflict",
	ErrCodeTimeout:         "operation timed out",
	ErrCodeValidation:      "validation failed",
	ErrCodeSerialization:   "serialization error",
	ErrCodeCacheError:      "cache error",
	ErrCodeExternalService: "external service error",
	ErrCodeDatabaseError:   "database error",
	ErrCodeStorageError:    "object storage error",
	ErrCodeMessagingError:  "messaging error",

	ErrCodeMoleculeInvalidSMILES:       "invalid SMILES string",
	ErrCodeMoleculeParsingFailed:       "failed to parse molecule",
	ErrCodeFingerprintGenerationFailed: "failed to generate fingerprint",
	ErrCodeFingerprintTypeUnsupported:  "unsupported fingerprint type",
	ErrCodeSubstructureSearchFailed:    "substructure extraction failed",

	ErrCodeConfiguration:     "invalid dataset configuration",
	ErrCodeInvalidState:      "operation not valid in current dataset state",
	ErrCodeOutOfRange:        "index out of range",
	ErrCodeResourceExhausted: "worker resources exhausted",
	ErrCodeDataDegenerate:    "degenerate input data",
	ErrCodeVocabularyInvalid: "invalid vocabulary",
	ErrCodeArtifactNotFound:  "artifact not found",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsCallerError returns true if the ErrorCode indicates misuse by the caller
// rather than a failure of the system or its dependencies.
func IsCallerError(code ErrorCode) bool {
	switch code {
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeConfiguration,
		ErrCodeInvalidState, ErrCodeOutOfRange, ErrCodeMoleculeInvalidSMILES,
		ErrCodeFingerprintTypeUnsupported:
		return true
	}
	return false
}

// IsRecoverable returns true for conditions the dataset layer absorbs instead
// of surfacing: pool exhaustion and degenerate inputs.
func IsRecoverable(code ErrorCode) bool {
	return code == ErrCodeResourceExhausted || code == ErrCodeDataDegenerate
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
