package embedder

import (
	"errors"
	"fmt"
)

// Code is the fixed error-code vocabulary shared with foreign callers.
// Values are part of the ABI and must never be renumbered.
type Code int32

const (
	CodeSuccess              Code = 0
	CodeNullPointer          Code = 1
	CodeInvalidUTF8          Code = 2
	CodeInitializationFailed Code = 3
	CodeEmbeddingFailed      Code = 4
	CodeInvalidHandle        Code = 5
	CodeBufferTooSmall       Code = 6
)

// String returns the code's name for logs and diagnostics.
func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeNullPointer:
		return "null_pointer"
	case CodeInvalidUTF8:
		return "invalid_utf8"
	case CodeInitializationFailed:
		return "initialization_failed"
	case CodeEmbeddingFailed:
		return "embedding_failed"
	case CodeInvalidHandle:
		return "invalid_handle"
	case CodeBufferTooSmall:
		return "buffer_too_small"
	default:
		return fmt.Sprintf("code(%d)", int32(c))
	}
}

// Error is a failure with a boundary code and a human-readable message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds an Error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf maps err to its boundary code. nil maps to Success; errors that do
// not carry a code map to EmbeddingFailed, the catch-all operational failure.
func CodeOf(err error) Code {
	if err == nil {
		return CodeSuccess
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeEmbeddingFailed
}
