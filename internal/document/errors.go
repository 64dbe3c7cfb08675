package document

import "errors"

var (
	// ErrNotFound is returned when no document matches the tenant and id.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput is returned when a payload fails validation.
	ErrInvalidInput = errors.New("invalid document input")
	// ErrNotEditable is returned when mutating a document that left the draft state.
	ErrNotEditable = errors.New("document is not editable")
	// ErrInvalidTransition is returned for status changes outside the lifecycle table.
	ErrInvalidTransition = errors.New("invalid status transition")
)
