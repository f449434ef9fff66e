package errors

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LineContext pinpoints a line of extracted statement text
type LineContext struct {
	File     string `json:"file"`
	Page     int    `json:"page"`
	Line     int    `json:"line"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// LineError extends the base ExtractorError with the location and content
// of the statement line that caused it. Line errors are diagnostics: the
// engine records them and moves on, it never aborts a document over one.
type LineError struct {
	*ExtractorError
	Context     *LineContext `json:"context"`
	Recoverable bool         `json:"recoverable"`
	LineContent string       `json:"line_content,omitempty"`
	Examples    []string     `json:"examples,omitempty"`
}

// Error implements the error interface with location formatting
func (e *LineError) Error() string {
	var parts []string

	parts = append(parts, e.ExtractorError.Error())

	if e.Context != nil {
		location := fmt.Sprintf("at %s", filepath.Base(e.Context.File))
		if e.Context.Page > 0 {
			location += fmt.Sprintf(" page %d", e.Context.Page)
		}
		if e.Context.Line >= 0 {
			location += fmt.Sprintf(" line %d", e.Context.Line)
		}
		parts = append(parts, location)
	}

	return strings.Join(parts, " ")
}

// GetDetailedError returns a detailed multi-line error description
func (e *LineError) GetDetailedError() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("ERROR: %s", e.Message))

	if e.Context != nil {
		lines = append(lines, fmt.Sprintf("  → File: %s", e.Context.File))
		if e.Context.Page > 0 {
			lines = append(lines, fmt.Sprintf("  → Page: %d", e.Context.Page))
		}
		if e.Context.Line >= 0 {
			lines = append(lines, fmt.Sprintf("  → Line: %d", e.Context.Line))
		}
		if e.Context.Value != "" {
			lines = append(lines, fmt.Sprintf("  → Value: '%s'", e.Context.Value))
		}
		if e.Context.Expected != "" {
			lines = append(lines, fmt.Sprintf("  → Expected: %s", e.Context.Expected))
		}
	}

	if e.LineContent != "" {
		lines = append(lines, fmt.Sprintf("  → Content: %s", e.LineContent))
	}

	if e.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  → Suggestion: %s", e.Suggestion))
	}

	if len(e.Examples) > 0 {
		lines = append(lines, "  → Examples:")
		for _, example := range e.Examples {
			lines = append(lines, fmt.Sprintf("    • %s", example))
		}
	}

	return strings.Join(lines, "\n")
}

// NewLineError creates a new line error
func NewLineError(code ErrorCode, context *LineContext, message string, cause error) *LineError {
	var baseError *ExtractorError
	if cause != nil {
		baseError = Wrap(cause, CategoryParse, code, message)
	} else {
		baseError = New(CategoryParse, code, message)
	}

	if context != nil {
		baseError.WithContext("file", context.File).
			WithContext("page", context.Page).
			WithContext("line", context.Line)
	}

	return &LineError{
		ExtractorError: baseError,
		Context:        context,
		Recoverable:    true,
	}
}

// WithLineContent adds the actual line content to the error
func (e *LineError) WithLineContent(content string) *LineError {
	e.LineContent = content
	return e
}

// WithExamples adds example values to help fix the error
func (e *LineError) WithExamples(examples ...string) *LineError {
	e.Examples = examples
	return e
}

// Common line error constructors

// UnmatchedLineError records a line that classified as a transaction start
// but was rejected by every strategy in the cascade
func UnmatchedLineError(file string, page, line int, content string) *LineError {
	context := &LineContext{
		File:     file,
		Page:     page,
		Line:     line,
		Expected: "a line matching one of the known statement layouts",
	}

	return NewLineError(CodeUnmatchedLine, context, "candidate transaction line matched no strategy", nil).
		WithLineContent(content).
		WithExamples(
			"06-Sep-24 TO TRANSFER TO 4897695 430.00 -427.92",
			"12 15 Apr 2024 15 Apr 2024 UPI TRANSFER REF123 1,000.00 5,000.00",
		)
}

// UnresolvedDateError records a structurally matched line whose date token
// could not be parsed with any configured format
func UnresolvedDateError(file string, page, line int, value string) *LineError {
	context := &LineContext{
		File:     file,
		Page:     page,
		Line:     line,
		Value:    value,
		Expected: "a date in one of the configured formats",
	}

	return NewLineError(CodeInvalidDate, context, "transaction date could not be resolved", nil).
		WithExamples("15 Apr 2024", "06-Sep-24", "15/04/2024", "2024-04-15")
}

// LineErrorCollector accumulates line errors during a document scan,
// capped so a pathological document cannot grow the slice unbounded
type LineErrorCollector struct {
	errors    []*LineError
	maxErrors int
}

// NewLineErrorCollector creates a collector keeping at most maxErrors entries
func NewLineErrorCollector(maxErrors int) *LineErrorCollector {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &LineErrorCollector{
		errors:    make([]*LineError, 0),
		maxErrors: maxErrors,
	}
}

// Add records an error; entries beyond the cap are counted but not kept
func (c *LineErrorCollector) Add(err *LineError) {
	if err == nil {
		return
	}
	if len(c.errors) < c.maxErrors {
		c.errors = append(c.errors, err)
	}
}

// HasErrors returns true if any errors have been collected
func (c *LineErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// GetErrors returns all collected errors
func (c *LineErrorCollector) GetErrors() []*LineError {
	return c.errors
}

// GetExtractorErrors converts all errors to the base ExtractorError type
func (c *LineErrorCollector) GetExtractorErrors() []*ExtractorError {
	result := make([]*ExtractorError, len(c.errors))
	for i, err := range c.errors {
		result[i] = err.ExtractorError
	}
	return result
}

// GetSummary returns an error summary for all collected errors
func (c *LineErrorCollector) GetSummary() *ErrorSummary {
	return NewErrorSummary(c.GetExtractorErrors())
}

// FormatLineErrorsForUser formats multiple line errors in a user-friendly way
func FormatLineErrorsForUser(errors []*LineError) string {
	if len(errors) == 0 {
		return "No line errors"
	}

	if len(errors) == 1 {
		return errors[0].GetDetailedError()
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("Found %d problem lines:", len(errors)))

	maxDetailed := 3
	for i, err := range errors {
		if i < maxDetailed {
			lines = append(lines, "")
			lines = append(lines, err.GetDetailedError())
		} else {
			lines = append(lines, "")
			lines = append(lines, fmt.Sprintf("... and %d more problem lines", len(errors)-maxDetailed))
			break
		}
	}

	return strings.Join(lines, "\n")
}
