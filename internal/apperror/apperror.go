package apperror

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the failure taxonomy. Services wrap these inside an
// AppError; handlers map them to HTTP status codes with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrTimeout        = errors.New("execution timeout")
	ErrResourceLimit  = errors.New("resource exceeded")
	ErrRuntime        = errors.New("runtime error")
	ErrNoOutput       = errors.New("no output")
	ErrOutputTooLarge = errors.New("output too large")
	ErrInternal       = errors.New("internal error")
)

type AppError struct {
	Err     error  // taxonomy sentinel
	Message string // Human-readable error message, safe to send to the client
	Field   string // Optional: request field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationFailed rejects a request before any worker is spawned.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Timeout reports that execution exceeded the wall-clock ceiling and the
// worker was killed.
func Timeout(limit time.Duration) *AppError {
	return &AppError{
		Err:     ErrTimeout,
		Message: fmt.Sprintf("Execution timed out after %s", limit),
	}
}

// CapacityExceeded reports an admission rejection: all worker slots are busy.
func CapacityExceeded() *AppError {
	return &AppError{
		Err:     ErrResourceLimit,
		Message: "Server is at capacity, please retry shortly",
	}
}

// MemoryExceeded reports that the worker breached its memory ceiling.
func MemoryExceeded() *AppError {
	return &AppError{
		Err:     ErrResourceLimit,
		Message: "Execution exceeded the memory limit",
	}
}

// Runtime surfaces a failure inside the user's language runtime. The
// diagnostic text is passed through verbatim (callers bound its length).
func Runtime(diagnostic string) *AppError {
	return &AppError{
		Err:     ErrRuntime,
		Message: diagnostic,
	}
}

// NoOutput reports that the code ran to completion but produced no
// recognizable visual artifact.
func NoOutput() *AppError {
	return &AppError{
		Err:     ErrNoOutput,
		Message: "No visualization was generated",
	}
}

// OutputTooLarge reports an artifact over the configured size bound.
// Oversized artifacts are rejected whole; truncation would corrupt them.
func OutputTooLarge(size, limit int64) *AppError {
	return &AppError{
		Err:     ErrOutputTooLarge,
		Message: fmt.Sprintf("Generated artifact is %d bytes, exceeding the %d byte limit", size, limit),
	}
}

// Internal wraps an infrastructure fault unrelated to user code. The message
// is what the client sees; keep it generic and log the cause server-side.
func Internal(message string) *AppError {
	return &AppError{
		Err:     ErrInternal,
		Message: message,
	}
}

// Kind returns a short machine-readable name for the taxonomy kind of err,
// used as a metrics label and in logs.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrResourceLimit):
		return "resource_exceeded"
	case errors.Is(err, ErrRuntime):
		return "runtime_error"
	case errors.Is(err, ErrNoOutput):
		return "no_output"
	case errors.Is(err, ErrOutputTooLarge):
		return "output_too_large"
	default:
		return "internal_error"
	}
}
