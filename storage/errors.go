package storage

import (
	"fmt"
)

// ErrorCode classifies a PoolError by observable outcome.
type ErrorCode int

const (
	// ErrCodeUnknown is the zero value; never returned deliberately.
	ErrCodeUnknown ErrorCode = iota
	// ErrCodeInternal marks a bug-class condition (violated invariant).
	ErrCodeInternal

	// ErrCodeInvalidConfig marks a construction-time validation failure.
	ErrCodeInvalidConfig
	// ErrCodeInvalidPageID marks an operation issued against the sentinel id.
	ErrCodeInvalidPageID
	// ErrCodeNoFreePages marks buffer pool saturation (every frame pinned).
	ErrCodeNoFreePages
	// ErrCodePagePinned marks a delete attempted against a pinned page.
	ErrCodePagePinned

	// ErrCodeDiskReadFailed marks a disk manager read failure.
	ErrCodeDiskReadFailed
	// ErrCodeDiskWriteFailed marks a disk manager write failure.
	ErrCodeDiskWriteFailed
	// ErrCodeFileNotFound marks a missing backing file.
	ErrCodeFileNotFound
)

// PoolError is a buffer pool error with operation context.
type PoolError struct {
	Code    ErrorCode
	Message string
	Op      string // Operation that failed
	Err     error  // Underlying error, if any
}

// Error implements the error interface.
func (e *PoolError) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PoolError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches a specific error code.
func (e *PoolError) Is(target error) bool {
	if t, ok := target.(*PoolError); ok {
		return e.Code == t.Code
	}
	return false
}

// NewPoolError creates a new PoolError.
func NewPoolError(code ErrorCode, op, message string, err error) *PoolError {
	return &PoolError{Code: code, Message: message, Op: op, Err: err}
}

func errInvalidConfig(op, reason string) *PoolError {
	return NewPoolError(ErrCodeInvalidConfig, op, reason, nil)
}

func errNoFreePages(op string) *PoolError {
	return NewPoolError(ErrCodeNoFreePages, op, "no free pages available in buffer pool", nil)
}

func errPagePinned(op string, pageID uint32, pinCount int32) *PoolError {
	return NewPoolError(
		ErrCodePagePinned,
		op,
		fmt.Sprintf("page %d is pinned (pin count: %d)", pageID, pinCount),
		nil,
	)
}

func errDiskOperation(op string, err error) *PoolError {
	return NewPoolError(ErrCodeDiskWriteFailed, op, "disk operation failed", err)
}

// IsErrorCode checks if an error has a specific error code.
func IsErrorCode(err error, code ErrorCode) bool {
	if pe, ok := err.(*PoolError); ok {
		return pe.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrCodeUnknown.
func GetErrorCode(err error) ErrorCode {
	if pe, ok := err.(*PoolError); ok {
		return pe.Code
	}
	return ErrCodeUnknown
}
