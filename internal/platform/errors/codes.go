// Package errors provides structured error handling for story sessions.
package errors

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Dataset errors
	CodeMissingDataset Code = "MISSING_DATASET"
	CodeInvalidRecord  Code = "INVALID_RECORD"

	// Narrative errors
	CodeUnmappedStep Code = "UNMAPPED_STEP"
	CodeUnknownCity  Code = "UNKNOWN_CITY"

	// Session input errors
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeRateLimited     Code = "RESOURCE_EXHAUSTED"
)

// FrameCode maps domain codes to the error code carried in session frames.
func (c Code) FrameCode() string {
	switch c {
	// InvalidArgument - bad client input
	case CodeInvalidArgument,
		CodeInvalidRecord,
		CodeUnknownCity:
		return "INVALID_ARGUMENT"

	// NotFound - the narrative or data does not know the key
	case CodeUnmappedStep:
		return "NOT_FOUND"

	// Unavailable - upstream data could not be loaded
	case CodeMissingDataset:
		return "UNAVAILABLE"

	case CodeRateLimited:
		return "RESOURCE_EXHAUSTED"

	default:
		return "INTERNAL"
	}
}
