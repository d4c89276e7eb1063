package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeCompile  ErrorType = "compile"
	ErrorTypeIO       ErrorType = "io"
	ErrorTypeConfig   ErrorType = "config"
	ErrorTypeNetwork  ErrorType = "network"
	ErrorTypeInternal ErrorType = "internal"
)

// PipelineError is a structured error type with task and source location.
type PipelineError struct {
	Type        ErrorType
	Code        string
	Task        string
	Message     string
	Cause       error
	FilePath    string
	Line        int
	Column      int
	Recoverable bool
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Task != "" {
		parts = append(parts, "task:"+e.Task)
	}

	if e.FilePath != "" {
		location := e.FilePath
		if e.Line > 0 {
			location += fmt.Sprintf(":%d", e.Line)
			if e.Column > 0 {
				location += fmt.Sprintf(":%d", e.Column)
			}
		}
		parts = append(parts, location)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithLocation adds file location information.
func (e *PipelineError) WithLocation(filePath string, line, column int) *PipelineError {
	e.FilePath = filePath
	e.Line = line
	e.Column = column

	return e
}

// WithTask records the task the error surfaced in.
func (e *PipelineError) WithTask(task string) *PipelineError {
	e.Task = task

	return e
}

// NewCompileError creates a stylesheet or script compile error. Compile
// errors are recoverable: a corrected save produces a good build.
func NewCompileError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:        ErrorTypeCompile,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeIO,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewReadError creates an I/O error for a failed read. A path that does not
// exist is coded ErrCodeFileNotFound.
func NewReadError(message string, cause error) *PipelineError {
	code := ErrCodeReadFailed
	if errors.Is(cause, fs.ErrNotExist) {
		code = ErrCodeFileNotFound
	}

	return NewIOError(code, message, cause)
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeNetwork,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

// IsCompileError checks if an error came from a compiler.
func IsCompileError(err error) bool {
	return hasType(err, ErrorTypeCompile)
}

// IsConfigError checks if an error is a configuration error.
func IsConfigError(err error) bool {
	return hasType(err, ErrorTypeConfig)
}

// IsNetworkError checks if an error is network-related.
func IsNetworkError(err error) bool {
	return hasType(err, ErrorTypeNetwork)
}

func hasType(err error, t ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == t
	}

	return false
}

// Common error codes.
const (
	ErrCodeCompileFailed    = "ERR_COMPILE_FAILED"
	ErrCodeMinifyFailed     = "ERR_MINIFY_FAILED"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
	ErrCodeWriteFailed      = "ERR_WRITE_FAILED"
	ErrCodeReadFailed       = "ERR_READ_FAILED"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeEmptyComposite   = "ERR_EMPTY_COMPOSITE"
	ErrCodeUnknownTask      = "ERR_UNKNOWN_TASK"
	ErrCodeMissingAsset     = "ERR_MISSING_ASSET"
	ErrCodeBindFailed       = "ERR_BIND_FAILED"
	ErrCodeServeFailed      = "ERR_SERVE_FAILED"
	ErrCodeWatchFailed      = "ERR_WATCH_FAILED"
	ErrCodeDescriptorFailed = "ERR_DESCRIPTOR_FAILED"
)
