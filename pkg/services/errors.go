// Package services provides the error taxonomy shared by the console components.
package services

import (
	"errors"
	"fmt"
)

// Error classes. Component-level sentinels wrap one of these so callers can
// classify failures with errors.Is.
var (
	// ErrPrecondition indicates invalid caller input rejected before any remote call (400).
	ErrPrecondition = errors.New("precondition failed")

	// ErrBusy indicates a conflicting operation is still pending (409).
	ErrBusy = errors.New("operation already in progress")
)

// ServiceError wraps component errors with operation context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPreconditionError creates an error classified as ErrPrecondition.
func NewPreconditionError(op, code, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     ErrPrecondition,
	}
}

// NewBusyError creates an error classified as ErrBusy.
func NewBusyError(op, code, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     ErrBusy,
	}
}

// IsPreconditionError checks if an error should return HTTP 400.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// IsBusyError checks if an error should return HTTP 409.
func IsBusyError(err error) bool {
	return errors.Is(err, ErrBusy)
}

// ErrorCode returns the API code carried by err, or fallback.
func ErrorCode(err error, fallback string) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Code != "" {
		return serviceErr.Code
	}

	return fallback
}
