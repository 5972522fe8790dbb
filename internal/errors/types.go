package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// StampError is a structured error type with context.
type StampError struct {
	Type     ErrorType
	Code     string
	Message  string
	Cause    error
	Context  map[string]interface{}
	Task     string
	FilePath string
}

// Error implements the error interface.
func (e *StampError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Task != "" {
		parts = append(parts, "task:"+e.Task)
	}

	if e.FilePath != "" {
		parts = append(parts, e.FilePath)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *StampError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *StampError) Is(target error) bool {
	var t *StampError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *StampError) WithContext(key string, value interface{}) *StampError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithFile adds file location information.
func (e *StampError) WithFile(filePath string) *StampError {
	e.FilePath = filePath

	return e
}

// WithTask records which build task produced the error.
func (e *StampError) WithTask(task string) *StampError {
	e.Task = task

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *StampError {
	return &StampError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewBuildError creates a build error.
func NewBuildError(code, message string, cause error) *StampError {
	return &StampError{
		Type:    ErrorTypeBuild,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *StampError {
	return &StampError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *StampError {
	return &StampError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *StampError {
	return &StampError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrap wraps err as a StampError of the given type. A nil err stays nil.
func Wrap(err error, errType ErrorType, code, message string) *StampError {
	if err == nil {
		return nil
	}

	return &StampError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsType reports whether err is a StampError of the given type.
func IsType(err error, errType ErrorType) bool {
	var se *StampError
	if errors.As(err, &se) {
		return se.Type == errType
	}

	return false
}

// Common error codes.
const (
	ErrCodeInvalidPath      = "ERR_INVALID_PATH"
	ErrCodePathTraversal    = "ERR_PATH_TRAVERSAL"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeReadFailed       = "ERR_READ_FAILED"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeDecodeFailed     = "ERR_DECODE_FAILED"
	ErrCodeUnsupportedFile  = "ERR_UNSUPPORTED_FILE"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeCommandFailed    = "ERR_COMMAND_FAILED"
	ErrCodeTaskNotFound     = "ERR_TASK_NOT_FOUND"
	ErrCodeTaskCycle        = "ERR_TASK_CYCLE"
	ErrCodeTaskFailed       = "ERR_TASK_FAILED"
	ErrCodeVersionInvalid   = "ERR_VERSION_INVALID"
	ErrCodeVersionMismatch  = "ERR_VERSION_MISMATCH"
	ErrCodeUnresolvedMarker = "ERR_UNRESOLVED_MARKER"
)

// ErrPathTraversal creates a path traversal validation error.
func ErrPathTraversal(path string) *StampError {
	return NewValidationError(ErrCodePathTraversal, "path escapes project directory: "+path)
}

// ErrTaskNotFound creates an error for an unknown task or alias name.
func ErrTaskNotFound(name string) *StampError {
	return NewBuildError(ErrCodeTaskNotFound, "unknown task: "+name, nil).WithTask(name)
}
