package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)

// AppError represents a structured error in the testing service
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeReferenceNotFound       = "REFERENCE_NOT_FOUND"
	ErrCodeProcessNotFound         = "PROCESS_NOT_FOUND"
	ErrCodeIllegalTransition       = "ILLEGAL_TRANSITION"
	ErrCodeMissingEvidence         = "MISSING_EVIDENCE"
	ErrCodeCodeAllocationExhausted = "CODE_ALLOCATION_EXHAUSTED"
	ErrCodeDuplicateCode           = "DUPLICATE_CODE"
	ErrCodeStageConflict           = "STAGE_CONFLICT"
	ErrCodeInvalidInput            = "INVALID_INPUT"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// NewReferenceNotFoundError reports a missing patient/service/appointment/consultant reference at creation time
func NewReferenceNotFoundError(entity, id string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeReferenceNotFound,
		Message: fmt.Sprintf("referenced %s not found: %s", entity, id),
		Details: map[string]interface{}{"entity": entity, "id": id},
	}
}

// NewProcessNotFoundError reports an operation against an unknown process id or code
func NewProcessNotFoundError(ref string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Code:    ErrCodeProcessNotFound,
		Message: fmt.Sprintf("test process not found: %s", ref),
	}
}

// NewIllegalTransitionError reports a stage move that is not a declared graph edge
func NewIllegalTransitionError(from, to Stage) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeIllegalTransition,
		Message: fmt.Sprintf("illegal transition from %s to %s", from, to),
		Details: map[string]interface{}{"from": string(from), "to": string(to)},
	}
}

// NewMissingEvidenceError reports a required evidence field absent for a target stage
func NewMissingEvidenceError(field string, target Stage) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    ErrCodeMissingEvidence,
		Message: fmt.Sprintf("missing evidence %q required to enter %s", field, target),
		Details: map[string]interface{}{"field": field, "target": string(target)},
	}
}

// NewCodeAllocationExhaustedError reports that the allocator ran out of retry attempts
func NewCodeAllocationExhaustedError(attempts int) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeCodeAllocationExhausted,
		Message: fmt.Sprintf("failed to allocate a unique test code after %d attempts", attempts),
		Details: map[string]interface{}{"attempts": attempts},
	}
}

// NewDuplicateCodeError reports a store-level uniqueness violation on a test code
func NewDuplicateCodeError(code string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeDuplicateCode,
		Message: fmt.Sprintf("test code already exists: %s", code),
		Details: map[string]interface{}{"code": code},
	}
}

// NewStageConflictError reports a lost optimistic update against a concurrently modified process
func NewStageConflictError(id string, expected Stage) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeStageConflict,
		Message: fmt.Sprintf("test process %s is no longer in stage %s", id, expected),
		Details: map[string]interface{}{"id": id, "expected": string(expected)},
	}
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternalError,
		Message: message,
		Cause:   cause,
	}
}

// ErrorCode extracts the structured error code from an error chain, or "" if none
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsErrorCode reports whether err carries the given structured error code
func IsErrorCode(err error, code string) bool {
	return ErrorCode(err) == code
}
