package gateway

import (
	"errors"
	"fmt"
)

// ErrRemote classifies every failure reported by, or on the way to, the backend.
var ErrRemote = errors.New("remote operation failed")

// RemoteError is a failure at the remote boundary. Message is the
// operator-facing text supplied by the backend, when it supplied one.
type RemoteError struct {
	Op         string // Gateway operation, e.g. "StartAllocation"
	StatusCode int    // HTTP status when the failure came from a response
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (%v)", e.Op, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": remote operation failed"
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError creates a RemoteError carrying a backend message.
func NewRemoteError(op string, statusCode int, message string) *RemoteError {
	return &RemoteError{Op: op, StatusCode: statusCode, Message: message}
}

// WrapTransportError creates a RemoteError for failures where no backend
// message is available (connection refused, decode failure, timeout).
func WrapTransportError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// IsRemoteError checks if err came from the remote boundary.
func IsRemoteError(err error) bool {
	return errors.Is(err, ErrRemote)
}

// OperatorMessage returns the backend-supplied message carried by err, or
// fallback when there is none.
func OperatorMessage(err error, fallback string) string {
	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Message != "" {
		return remoteErr.Message
	}

	return fallback
}
