package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal       ErrorCode = "COMMON_001"
	ErrCodeBadRequest     ErrorCode = "COMMON_002"
	ErrCodeNotFound       ErrorCode = "COMMON_005"
	ErrCodeConflict       ErrorCode = "COMMON_006"
	ErrCodeValidation     ErrorCode = "COMMON_010"
	ErrCodeSerialization  ErrorCode = "COMMON_011"
	ErrCodeDatabaseError  ErrorCode = "COMMON_012"
	ErrCodeCacheError     ErrorCode = "COMMON_013"
	ErrCodeStorageError   ErrorCode = "COMMON_014"
	ErrCodeUnavailable    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented ErrorCode = "COMMON_016"
)

// Aliases used at call sites.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Structure (input-shape) error codes. These abort graph construction.
const (
	ErrCodeMissingColumn           ErrorCode = "STRUCT_001"
	ErrCodeEmptySubset             ErrorCode = "STRUCT_002"
	ErrCodePDBParseFailed          ErrorCode = "STRUCT_003"
	ErrCodeDegenerateTriangulation ErrorCode = "STRUCT_004"
)

// Graph usage error codes.
const (
	ErrCodeSelfLoop           ErrorCode = "GRAPH_001"
	ErrCodeUnknownBondKind    ErrorCode = "GRAPH_002"
	ErrCodeNodeNotFound       ErrorCode = "GRAPH_003"
	ErrCodeEdgeNotFound       ErrorCode = "GRAPH_004"
	ErrCodeInvalidFeatureKind ErrorCode = "GRAPH_005"
)

// Feature encoding error codes.
const (
	ErrCodeNonCanonicalResidue ErrorCode = "FEAT_001"
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:       "internal error",
	ErrCodeBadRequest:     "invalid argument",
	ErrCodeNotFound:       "resource not found",
	ErrCodeConflict:       "resource conflict",
	ErrCodeValidation:     "validation failed",
	ErrCodeSerialization:  "serialization failed",
	ErrCodeDatabaseError:  "database error",
	ErrCodeCacheError:     "cache error",
	ErrCodeStorageError:   "object storage error",
	ErrCodeUnavailable:    "service unavailable",
	ErrCodeNotImplemented: "not implemented",

	ErrCodeMissingColumn:           "atom table is missing a required column",
	ErrCodeEmptySubset:             "atom subset is empty",
	ErrCodePDBParseFailed:          "failed to parse PDB structure",
	ErrCodeDegenerateTriangulation: "triangulation is degenerate",

	ErrCodeSelfLoop:           "self-loop edges are not allowed",
	ErrCodeUnknownBondKind:    "bond kind is not in the vocabulary",
	ErrCodeNodeNotFound:       "node not found",
	ErrCodeEdgeNotFound:       "edge not found",
	ErrCodeInvalidFeatureKind: "feature kind must be node or edge",

	ErrCodeNonCanonicalResidue: "residue is outside the canonical alphabet",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsInputShape reports whether code belongs to the fatal input-shape family.
func IsInputShape(code ErrorCode) bool {
	return ModuleForCode(code) == "STRUCT"
}

// IsUsage reports whether code is a caller usage error (invalid argument).
func IsUsage(code ErrorCode) bool {
	return ModuleForCode(code) == "GRAPH" || code == ErrCodeBadRequest
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
