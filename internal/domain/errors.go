package domain

import (
	"errors"
)

var (
	// ErrValidation marks input rejected before reaching the store.
	ErrValidation = errors.New("validation failed")
	// ErrStore marks an insert or fetch rejected by the data store.
	ErrStore = errors.New("store request failed")
	// ErrRender marks a certificate that could not be drawn or encoded.
	ErrRender = errors.New("certificate render failed")
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")
)

// User-facing messages.
const (
	MsgNoCommitments  = "Please select at least one commitment"
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidProfile = "Please choose a profile type"
	MsgSubmitFailed   = "Failed to submit pledge. Please try again."
	MsgRenderFailed   = "Could not generate your certificate. Please try again."
	MsgUnknownPrefix  = "Unknown commitment: "
)

// ValidationError carries the message shown inline next to the form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Is lets errors.Is(err, ErrValidation) match any *ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError returns a *ValidationError with msg.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
