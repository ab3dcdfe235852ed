package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Manifest errors
	ErrManifestLoad    ErrorCode = "MANIFEST_LOAD"
	ErrManifestParse   ErrorCode = "MANIFEST_PARSE"
	ErrManifestInvalid ErrorCode = "MANIFEST_INVALID"

	// Plan errors
	ErrPlanDuplicateDest ErrorCode = "PLAN_DUPLICATE_DEST"
	ErrPlanCompute       ErrorCode = "PLAN_COMPUTE"

	// Merge errors
	ErrMergeParse ErrorCode = "MERGE_PARSE"
	ErrMergeWrite ErrorCode = "MERGE_WRITE"

	// Backup errors
	ErrBackupCreate   ErrorCode = "BACKUP_CREATE"
	ErrBackupNotFound ErrorCode = "BACKUP_NOT_FOUND"
	ErrBackupRestore  ErrorCode = "BACKUP_RESTORE"

	// Apply errors
	ErrApplyWrite ErrorCode = "APPLY_WRITE"

	// Configuration errors
	ErrConfigLoad ErrorCode = "CONFIG_LOAD"

	// Source errors
	ErrSourceInvalid     ErrorCode = "SOURCE_INVALID"
	ErrSourceUnreachable ErrorCode = "SOURCE_UNREACHABLE"
	ErrSecretExpansion   ErrorCode = "SECRET_EXPANSION"

	// Version stamp errors
	ErrStampRead  ErrorCode = "STAMP_READ"
	ErrStampWrite ErrorCode = "STAMP_WRITE"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// ConfsyncError represents a structured error with code and details
type ConfsyncError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ConfsyncError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ConfsyncError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ConfsyncError) Is(target error) bool {
	var targetErr *ConfsyncError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ConfsyncError with the given code and message
func New(code ErrorCode, message string) *ConfsyncError {
	return &ConfsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ConfsyncError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ConfsyncError {
	return &ConfsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ConfsyncError
func Wrap(err error, code ErrorCode, message string) *ConfsyncError {
	if err == nil {
		return nil
	}
	return &ConfsyncError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ConfsyncError {
	if err == nil {
		return nil
	}
	return &ConfsyncError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ConfsyncError) WithDetail(key string, value interface{}) *ConfsyncError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var csErr *ConfsyncError
	if errors.As(err, &csErr) {
		return csErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ConfsyncError
func GetErrorCode(err error) ErrorCode {
	var csErr *ConfsyncError
	if errors.As(err, &csErr) {
		return csErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a ConfsyncError
func GetErrorDetails(err error) map[string]interface{} {
	var csErr *ConfsyncError
	if errors.As(err, &csErr) {
		return csErr.Details
	}
	return nil
}
