package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Workflow engine error codes
const (
	ErrWireTypeMismatch ErrorCode = "WIRE_TYPE_MISMATCH"
	ErrMissingInput     ErrorCode = "MISSING_INPUT"
	ErrBlockFailed      ErrorCode = "BLOCK_EXECUTION_FAILED"
	ErrWorkflowTimeout  ErrorCode = "WORKFLOW_TIMEOUT"
	ErrWorkflowNotFound ErrorCode = "WORKFLOW_NOT_FOUND"
)

// Dispatch error codes
const (
	ErrDispatchRejected ErrorCode = "DISPATCH_REJECTED"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	// Block is the name of the block that produced the error, if any.
	Block string `json:"block,omitempty"`
	// Workflow is the workflow id the error belongs to, if any.
	Workflow string `json:"workflow,omitempty"`
	Cause    error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithBlock records the originating block name.
func (e *Error) WithBlock(name string) *Error {
	e.Block = name
	return e
}

// WithWorkflow records the workflow id.
func (e *Error) WithWorkflow(id string) *Error {
	e.Workflow = id
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsCode reports whether any error in the chain carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
