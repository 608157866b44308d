package result

import (
	"errors"
	"fmt"

	"github.com/CTRL-ALT-OP/docker-tools/internal/logger"
)

// Error codes for the failure taxonomy. Process and validation failures are the
// two expected classes; everything else falls back to CodeUnknown.
const (
	CodeProcess    = "PROCESS_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeResource   = "RESOURCE_ERROR"
	CodeCancelled  = "CANCELLED"
	CodeUnknown    = "UNKNOWN_ERROR"
)

// Error is a structured operation error.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// LogFields returns fields for structured logging.
func (e *Error) LogFields() []logger.Field {
	fields := []logger.Field{
		{Key: "error_code", Value: e.Code},
		{Key: "error_message", Value: e.Message},
	}
	for key, value := range e.Details {
		fields = append(fields, logger.Field{Key: key, Value: value})
	}
	return fields
}

// NewProcessError creates an error for an external command that failed or
// could not be started.
func NewProcessError(message string, exitCode int, stdout, stderr string) *Error {
	details := map[string]any{"exit_code": exitCode}
	if stdout != "" {
		details["stdout"] = stdout
	}
	if stderr != "" {
		details["stderr"] = stderr
	}
	return &Error{Code: CodeProcess, Message: message, Details: details}
}

// NewValidationError creates an error for caller-supplied input rejected
// before any process ran.
func NewValidationError(message, field string) *Error {
	details := map[string]any{}
	if field != "" {
		details["field"] = field
	}
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

// NewResourceError creates an error for a file or directory that could not be
// accessed.
func NewResourceError(message, path string) *Error {
	details := map[string]any{}
	if path != "" {
		details["resource_path"] = path
	}
	return &Error{Code: CodeResource, Message: message, Details: details}
}

// Classify converts an arbitrary error into a structured *Error. Already
// structured errors pass through unchanged; anything else becomes an
// unclassified error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Code: CodeUnknown, Message: err.Error()}
}

// ExitCode returns the exit code recorded in a process error, or -1.
func (e *Error) ExitCode() int {
	if code, ok := e.Details["exit_code"].(int); ok {
		return code
	}
	return -1
}

// Errorf creates an unclassified error from a format string.
func Errorf(format string, args ...any) *Error {
	return &Error{Code: CodeUnknown, Message: fmt.Sprintf(format, args...)}
}
