package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Pipeline errors
var (
	// ErrTransient marks upstream provider failures worth retrying the whole job for.
	ErrTransient = errors.New("transient upstream failure")
	// ErrFatal marks failures that no retry can fix.
	ErrFatal = errors.New("fatal job failure")

	ErrFileTooLarge      = errors.New("file exceeds provider size ceiling")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrInsufficientText  = errors.New("not enough extractable text")
	ErrEmptyTranscript   = errors.New("transcription produced no text")
	ErrSourceMissing     = errors.New("source file not found")
	ErrToolUnavailable   = errors.New("required media tool unavailable")
	ErrGenerationFailed  = errors.New("note generation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsTransient reports whether err (or anything it wraps) is marked transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// MarkTransient wraps err so that IsTransient reports true.
func MarkTransient(err error) error {
	if err == nil || IsTransient(err) {
		return err
	}
	return &transientError{err: err}
}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() []error { return []error{e.err, ErrTransient} }
