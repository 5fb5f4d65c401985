// Package errors defines the error taxonomy shared by the extraction and
// reconciliation pipeline. Errors carry a category, a code, an optional
// suggestion for the operator, and structured context, and map to process
// exit codes in the CLI.
package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents a broad class of failure.
type ErrorCategory string

const (
	CategoryFile           ErrorCategory = "file"
	CategoryExtract        ErrorCategory = "extract"
	CategoryValidation     ErrorCategory = "validation"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryReconciliation ErrorCategory = "reconciliation"
	CategoryStore          ErrorCategory = "store"
	CategoryInternal       ErrorCategory = "internal"
)

// ErrorCode identifies a specific failure within a category.
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeDirectoryError ErrorCode = "directory_error"

	// Extraction errors
	CodeNoVendorMatch ErrorCode = "no_vendor_match"
	CodeBadTextBlock  ErrorCode = "bad_text_block"

	// Validation errors
	CodeInvalidAmount   ErrorCode = "invalid_amount"
	CodeInvalidDate     ErrorCode = "invalid_date"
	CodeInvalidCurrency ErrorCode = "invalid_currency"
	CodeMissingField    ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeInvalidPeriod ErrorCode = "invalid_period"

	// Reconciliation errors
	CodeMergeFailed     ErrorCode = "merge_failed"
	CodeProcessingError ErrorCode = "processing_error"

	// Store errors
	CodeStoreRead    ErrorCode = "store_read"
	CodeStoreWrite   ErrorCode = "store_write"
	CodeStoreCorrupt ErrorCode = "store_corrupt"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// LedgerError is the base error type for all application errors.
type LedgerError struct {
	Category   ErrorCategory `json:"category"`
	Code       ErrorCode     `json:"code"`
	Message    string        `json:"message"`
	Suggestion string        `json:"suggestion,omitempty"`
	Context    Context       `json:"context,omitempty"`
	Cause      error         `json:"-"`
}

// Context provides additional information about the error.
type Context map[string]interface{}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error.
func (e *LedgerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns the process exit code for the error's category.
func (e *LedgerError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryExtract, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryReconciliation, CategoryInternal:
		return 5
	case CategoryStore:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error.
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error.
func (e *LedgerError) WithSuggestion(suggestion string) *LedgerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LedgerError.
func New(category ErrorCategory, code ErrorCode, message string) *LedgerError {
	return &LedgerError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap wraps an existing error with LedgerError context.
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	return &LedgerError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    errors.WithStack(err),
	}
}

// FileError creates a file-related error.
func FileError(code ErrorCode, path string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	result := wrapOrNew(err, CategoryFile, code, message)
	return result.WithSuggestion(suggestion).WithContext("file_path", path)
}

// ExtractError creates an extraction-related error.
func ExtractError(code ErrorCode, source string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeNoVendorMatch:
		message = fmt.Sprintf("no vendor pattern matched text block from %s", source)
		suggestion = "inspect the source text and extend the vendor pattern library if needed"
	case CodeBadTextBlock:
		message = fmt.Sprintf("malformed text block from %s", source)
		suggestion = "verify the upstream mail/PDF collaborator produced valid text"
	default:
		message = fmt.Sprintf("extraction error for %s", source)
		suggestion = "check the source document"
	}

	result := wrapOrNew(err, CategoryExtract, code, message)
	return result.WithSuggestion(suggestion).WithContext("source", source)
}

// ValidationError creates a validation-related error.
func ValidationError(code ErrorCode, field string, value interface{}, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in field '%s': %v", field, value)
		suggestion = "ensure amounts are positive decimal numbers (e.g. '12.34')"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD"
	case CodeInvalidCurrency:
		message = fmt.Sprintf("unknown currency in field '%s': %v", field, value)
		suggestion = "supported currencies are HKD, USD, CNY, EUR, GBP and JPY"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	result := wrapOrNew(err, CategoryValidation, code, message)
	return result.WithSuggestion(suggestion).WithContext("field", field).WithContext("value", value)
}

// ConfigurationError creates a configuration-related error.
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeInvalidPeriod:
		message = fmt.Sprintf("invalid period '%v' for setting '%s'", value, setting)
		suggestion = "use the YYYY-MM period format, e.g. 2026-01"
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	result := wrapOrNew(err, CategoryConfiguration, code, message)
	return result.WithSuggestion(suggestion).WithContext("setting", setting).WithContext("value", value)
}

// ReconcileError creates a reconciliation-related error.
func ReconcileError(code ErrorCode, operation string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeMergeFailed:
		message = fmt.Sprintf("merge failed during %s", operation)
		suggestion = "check the loaded source record sets for inconsistencies"
	case CodeProcessingError:
		message = fmt.Sprintf("processing error during %s", operation)
		suggestion = "review the data and configuration"
	default:
		message = fmt.Sprintf("reconciliation error during %s", operation)
		suggestion = "review the data and configuration"
	}

	result := wrapOrNew(err, CategoryReconciliation, code, message)
	return result.WithSuggestion(suggestion).WithContext("operation", operation)
}

// StoreError creates a persistence-related error.
func StoreError(code ErrorCode, path string, err error) *LedgerError {
	var message, suggestion string

	switch code {
	case CodeStoreRead:
		message = fmt.Sprintf("failed to read persisted state: %s", path)
		suggestion = "check that the data directory is readable"
	case CodeStoreWrite:
		message = fmt.Sprintf("failed to write persisted state: %s", path)
		suggestion = "check that the data directory is writable"
	case CodeStoreCorrupt:
		message = fmt.Sprintf("persisted state appears corrupted: %s", path)
		suggestion = "restore the file from a backup or delete it to start fresh"
	default:
		message = fmt.Sprintf("store error: %s", path)
		suggestion = "check the data directory"
	}

	result := wrapOrNew(err, CategoryStore, code, message)
	return result.WithSuggestion(suggestion).WithContext("path", path)
}

// InternalError creates an internal error.
func InternalError(code ErrorCode, operation string, err error) *LedgerError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	result := wrapOrNew(err, CategoryInternal, code, message)
	return result.
		WithSuggestion("this is likely a bug - please report it with the error details").
		WithContext("operation", operation)
}

func wrapOrNew(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err != nil {
		return Wrap(err, category, code, message)
	}
	return New(category, code, message)
}

// IsLedgerError checks if an error is a LedgerError.
func IsLedgerError(err error) bool {
	_, ok := err.(*LedgerError)
	return ok
}

// AsLedgerError extracts a LedgerError from an error chain.
func AsLedgerError(err error) (*LedgerError, bool) {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error unless it already is a LedgerError.
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *LedgerError {
	if err == nil {
		return nil
	}

	if ledgerErr, ok := AsLedgerError(err); ok {
		return ledgerErr
	}

	return Wrap(err, category, code, message)
}
