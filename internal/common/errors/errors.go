// Package errors provides standardized error handling for pipeline dispatch.
package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Input errors, raised before any dispatch.
const (
	ErrCodeInputsFileNotFound   ErrorCode = "INPUTS_FILE_NOT_FOUND"
	ErrCodeMalformedInput       ErrorCode = "MALFORMED_INPUT"
	ErrCodeMissingRequiredField ErrorCode = "MISSING_REQUIRED_FIELD"
	ErrCodeMalformedDefinition  ErrorCode = "MALFORMED_DEFINITION"
)

// Engine and result errors.
const (
	ErrCodeEngineUnavailable  ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeEngineTimeout      ErrorCode = "ENGINE_TIMEOUT"
	ErrCodeEngineRejected     ErrorCode = "ENGINE_REJECTED"
	ErrCodeDefinitionRejected ErrorCode = "DEFINITION_REJECTED"
	ErrCodeResourceNotFound   ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeAuthentication     ErrorCode = "AUTHENTICATION_ERROR"
	ErrCodeResultFieldMissing ErrorCode = "RESULT_FIELD_MISSING"
	ErrCodeUnsupportedEngine  ErrorCode = "UNSUPPORTED_ENGINE"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInputsFileNotFoundError reports an absent inputs document. It unwraps to
// fs.ErrNotExist when no more specific cause is given.
func NewInputsFileNotFoundError(path string, cause error) *StandardError {
	if cause == nil {
		cause = fs.ErrNotExist
	}
	return &StandardError{
		Code:      ErrCodeInputsFileNotFound,
		Message:   fmt.Sprintf("Inputs file not found at: %s", path),
		Details:   cause.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"path": path},
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewMalformedInputError reports an inputs document that is not a JSON object.
func NewMalformedInputError(path string, cause error) *StandardError {
	details := "document is not a JSON object"
	if cause != nil {
		details = cause.Error()
	}
	return &StandardError{
		Code:      ErrCodeMalformedInput,
		Message:   fmt.Sprintf("Inputs file is not a valid JSON object: %s", path),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"path": path},
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewMalformedDefinitionError reports a pipeline definition file whose
// content cannot be passed on as text.
func NewMalformedDefinitionError(path, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedDefinition,
		Message:   fmt.Sprintf("Pipeline definition is not valid text: %s", path),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"path": path},
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingRequiredFieldError names every absent key at once.
func NewMissingRequiredFieldError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredField,
		Message:   "Missing required inputs in JSON: " + strings.Join(missing, ", "),
		Retryable: false,
		Metadata:  map[string]interface{}{"missing": append([]string(nil), missing...)},
		Timestamp: time.Now().UTC(),
	}
}

// NewResultFieldMissingError reports an engine result without the primary output.
func NewResultFieldMissingError(field, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResultFieldMissing,
		Message:   fmt.Sprintf("Pipeline result has no string field %q", field),
		Details:   details,
		Retryable: false,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedEngineError creates a configuration error for an unknown engine kind.
func NewUnsupportedEngineError(kind string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedEngine,
		Message:   "Unsupported pipeline engine",
		Details:   fmt.Sprintf("kind: %s", kind),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineUnavailable,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewEngineRejectedError(service string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEngineRejected,
		Message:   fmt.Sprintf("Service '%s' rejected the request", service),
		Details:   fmt.Sprintf("status: %d, body: %s", status, body),
		Retryable: false,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewDefinitionRejectedError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDefinitionRejected,
		Message:   fmt.Sprintf("Pipeline definition rejected by %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuthentication,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification
// ==========================

// CodeOf returns the code of the first StandardError in err's chain, or
// INTERNAL_ERROR when there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsInputError reports whether err was raised while loading or checking inputs.
func IsInputError(err error) bool {
	return GetErrorCategory(CodeOf(err)) == "INPUT"
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeMalformedDefinition:
		return "DEFINITION"
	case strings.Contains(codeStr, "INPUT") || strings.Contains(codeStr, "REQUIRED_FIELD"):
		return "INPUT"
	case strings.Contains(codeStr, "RESULT"):
		return "RESULT"
	case strings.Contains(codeStr, "ENGINE") || strings.Contains(codeStr, "DEFINITION") ||
		strings.Contains(codeStr, "RESOURCE") || strings.Contains(codeStr, "AUTHENTICATION"):
		return "ENGINE"
	default:
		return "OTHER"
	}
}
