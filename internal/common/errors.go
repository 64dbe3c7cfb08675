package common

import (
	"encoding/json"
	"errors"
	"net/http"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError is a 400 VALIDATION_ERROR carrying per-field rule violations.
func ValidationError(message string, err error, fields map[string]string) *AppError {
	appErr := NewAppError("VALIDATION_ERROR", message, http.StatusBadRequest, err)
	if len(fields) > 0 {
		appErr.Details = fields
	}
	return appErr
}

// WriteAppError renders err when it is (or wraps) an AppError and reports whether it did.
// JSON syntax errors surface their byte offset; an exceeded body limit becomes 413.
func WriteAppError(w http.ResponseWriter, err error) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}
	code := appErr.Code
	if code == "" {
		code = "INTERNAL"
	}
	message := appErr.Message
	if message == "" {
		message = "internal error"
	}
	details := appErr.Details
	var (
		syntaxErr *json.SyntaxError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case appErr.Err == nil:
	case errors.As(appErr.Err, &tooLarge):
		status, code, message = http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request entity too large"
		details = map[string]any{"maxBytes": tooLarge.Limit}
	case errors.As(appErr.Err, &syntaxErr):
		details = map[string]any{"offset": syntaxErr.Offset}
	}
	JSONError(w, status, code, message, details)
	return true
}
