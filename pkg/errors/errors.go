package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryExtraction    ErrorCategory = "extraction"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound    ErrorCode = "file_not_found"
	CodeFilePermission  ErrorCode = "file_permission"
	CodeUnsupportedType ErrorCode = "unsupported_type"
	CodeDirectoryError  ErrorCode = "directory_error"

	// Extraction errors
	CodeDocumentOpenFailed ErrorCode = "document_open_failed"
	CodeNoExtractableText  ErrorCode = "no_extractable_text"
	CodeUnreadableText     ErrorCode = "unreadable_text"

	// Parse errors
	CodeInvalidDate    ErrorCode = "invalid_date"
	CodeInvalidAmount  ErrorCode = "invalid_amount"
	CodeInvalidPattern ErrorCode = "invalid_pattern"
	CodeUnmatchedLine  ErrorCode = "unmatched_line"

	// Validation errors
	CodeMissingField ErrorCode = "missing_field"
	CodeOutOfRange   ErrorCode = "out_of_range"
	CodeInvalidData  ErrorCode = "invalid_data"

	// Configuration errors
	CodeInvalidConfig   ErrorCode = "invalid_config"
	CodeMissingConfig   ErrorCode = "missing_config"
	CodeMalformedConfig ErrorCode = "malformed_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodeWriteFailed     ErrorCode = "write_failed"
)

// ExtractorError is the base error type for all application errors
type ExtractorError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *ExtractorError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *ExtractorError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *ExtractorError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryExtraction:
		return 3
	case CategoryParse, CategoryValidation:
		return 4
	case CategoryConfiguration:
		return 5
	case CategoryInternal:
		return 6
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *ExtractorError) WithContext(key string, value interface{}) *ExtractorError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *ExtractorError) WithSuggestion(suggestion string) *ExtractorError {
	e.Suggestion = suggestion
	return e
}

// New creates a new ExtractorError
func New(category ErrorCategory, code ErrorCode, message string) *ExtractorError {
	return &ExtractorError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with ExtractorError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *ExtractorError {
	if err == nil {
		return nil
	}

	return &ExtractorError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *ExtractorError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeUnsupportedType:
		message = fmt.Sprintf("unsupported file type: %s", path)
		suggestion = "provide a PDF statement or a plain text export"
	case CodeDirectoryError:
		message = fmt.Sprintf("directory error: %s", path)
		suggestion = "ensure the directory exists and is accessible"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *ExtractorError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ExtractionError creates a document-text-extraction error
func ExtractionError(code ErrorCode, path string, err error) *ExtractorError {
	var message string
	var suggestion string

	switch code {
	case CodeDocumentOpenFailed:
		message = fmt.Sprintf("failed to open document: %s", path)
		suggestion = "verify the file is a valid, unencrypted PDF"
	case CodeNoExtractableText:
		message = fmt.Sprintf("no extractable text in document: %s", path)
		suggestion = "the statement may be a scanned image; text extraction needs a digital PDF"
	case CodeUnreadableText:
		message = fmt.Sprintf("extracted text is unreadable: %s", path)
		suggestion = "the PDF encoding may be unsupported; try re-exporting the statement"
	default:
		message = fmt.Sprintf("extraction error: %s", path)
		suggestion = "check the document and try again"
	}

	var result *ExtractorError
	if err != nil {
		result = Wrap(err, CategoryExtraction, code, message)
	} else {
		result = New(CategoryExtraction, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates a line-parsing error
func ParseError(code ErrorCode, file string, line int, value string, err error) *ExtractorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in %s at line %d: '%s'", file, line, value)
		suggestion = "statement dates must match one of the configured date formats"
	case CodeInvalidAmount:
		message = fmt.Sprintf("invalid amount in %s at line %d: '%s'", file, line, value)
		suggestion = "amounts must be decimal numbers, optionally with thousands separators"
	case CodeInvalidPattern:
		message = fmt.Sprintf("invalid transaction pattern: '%s'", value)
		suggestion = "check the transaction_patterns entries in the configuration file"
	case CodeUnmatchedLine:
		message = fmt.Sprintf("no strategy matched candidate line %d in %s", line, file)
		suggestion = "the line looks like a transaction but fits no known layout"
	default:
		message = fmt.Sprintf("parse error in %s at line %d", file, line)
		suggestion = "check the extracted text around this line"
	}

	var result *ExtractorError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file).
		WithContext("line", line).
		WithContext("value", value)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *ExtractorError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeOutOfRange:
		message = fmt.Sprintf("value out of range in field '%s': %v", field, value)
		suggestion = "ensure the value is within the acceptable range"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *ExtractorError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *ExtractorError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeMalformedConfig:
		message = fmt.Sprintf("malformed configuration file: %s", setting)
		suggestion = "fix the JSON syntax; built-in defaults are used until then"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *ExtractorError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *ExtractorError {
	var message string
	var suggestion string

	switch code {
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write output during %s", operation)
		suggestion = "check disk space and output directory permissions"
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or report the problem if it persists"
	}

	var result *ExtractorError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*ExtractorError     `json:"errors"`
	SampleErrors []*ExtractorError     `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*ExtractorError) *ErrorSummary {
	if len(errors) == 0 {
		return &ErrorSummary{
			Total:      0,
			ByCategory: make(map[ErrorCategory]int),
			ByCode:     make(map[ErrorCode]int),
			Errors:     []*ExtractorError{},
		}
	}

	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errors) > maxSamples {
		summary.SampleErrors = errors[:maxSamples]
	} else {
		summary.SampleErrors = errors
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsExtractorError checks if an error is an ExtractorError
func IsExtractorError(err error) bool {
	_, ok := err.(*ExtractorError)
	return ok
}

// AsExtractorError extracts an ExtractorError from an error chain
func AsExtractorError(err error) (*ExtractorError, bool) {
	var extractorErr *ExtractorError
	if errors.As(err, &extractorErr) {
		return extractorErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already an ExtractorError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *ExtractorError {
	if err == nil {
		return nil
	}

	if extractorErr, ok := AsExtractorError(err); ok {
		return extractorErr
	}

	return Wrap(err, category, code, message)
}
