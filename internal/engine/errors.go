package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tripir/internal/ir"
)

// CheckError represents an error detected while checking a candidate.
//
// CheckError carries structured fields for diagnostics:
//   - Invalid document: the IR failed structural validation
//   - Slot evaluation: a present slot could not be evaluated
//   - Candidate shape: the candidate itinerary is malformed
//   - Replay: a stored run could not be re-checked
type CheckError struct {
	// Code identifies the error category.
	Code CheckErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the slot path, for slot evaluation errors.
	Path string

	// RunID identifies the affected run, when one was assigned.
	RunID string

	// Validation holds every structural error of an invalid document.
	Validation []ir.ValidationError

	// Err is the underlying cause.
	Err error
}

// CheckErrorCode categorizes check errors.
type CheckErrorCode string

const (
	// ErrCodeInvalidDocument indicates the IR failed Validate.
	ErrCodeInvalidDocument CheckErrorCode = "INVALID_DOCUMENT"

	// ErrCodeSlotEvaluation indicates a present slot returned an evaluator error.
	ErrCodeSlotEvaluation CheckErrorCode = "SLOT_EVALUATION"

	// ErrCodeCandidateShape indicates a malformed candidate.
	ErrCodeCandidateShape CheckErrorCode = "CANDIDATE_SHAPE"

	// ErrCodeReplay indicates a stored run could not be replayed.
	ErrCodeReplay CheckErrorCode = "REPLAY_FAILED"
)

// Error implements the error interface.
func (e *CheckError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (slot=%s)", e.Path)
	}
	if e.RunID != "" {
		msg += fmt.Sprintf(" (run=%s)", e.RunID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *CheckError) Unwrap() error {
	return e.Err
}

func hasCode(err error, code CheckErrorCode) bool {
	var ce *CheckError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// IsInvalidDocument returns true if the error reports a structurally
// invalid document.
func IsInvalidDocument(err error) bool {
	return hasCode(err, ErrCodeInvalidDocument)
}

// IsSlotError returns true if a slot failed to evaluate.
func IsSlotError(err error) bool {
	return hasCode(err, ErrCodeSlotEvaluation)
}

// IsCandidateError returns true if the candidate was malformed.
func IsCandidateError(err error) bool {
	return hasCode(err, ErrCodeCandidateShape)
}

// NewInvalidDocumentError creates a CheckError listing validation failures.
func NewInvalidDocumentError(errs []ir.ValidationError) *CheckError {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return &CheckError{
		Code:       ErrCodeInvalidDocument,
		Message:    strings.Join(parts, "; "),
		Validation: errs,
	}
}

// NewSlotError creates a CheckError for a slot whose expression failed.
func NewSlotError(path string, err error) *CheckError {
	return &CheckError{
		Code:    ErrCodeSlotEvaluation,
		Message: "constraint could not be evaluated",
		Path:    path,
		Err:     err,
	}
}

// NewCandidateError creates a CheckError for a malformed candidate.
func NewCandidateError(format string, args ...any) *CheckError {
	return &CheckError{
		Code:    ErrCodeCandidateShape,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewReplayError creates a CheckError for a run that could not be replayed.
func NewReplayError(runID string, err error) *CheckError {
	return &CheckError{
		Code:    ErrCodeReplay,
		Message: "replay failed",
		RunID:   runID,
		Err:     err,
	}
}
