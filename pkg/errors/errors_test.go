package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractorError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "extraction error",
			category:   CategoryExtraction,
			code:       CodeNoExtractableText,
			message:    "no extractable text",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidDate,
			message:    "invalid date",
			cause:      nil,
			expectCode: 4,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("missing field"),
			expectCode: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ExtractorError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.Message != tt.message {
				t.Errorf("expected message %s, got %s", tt.message, err.Message)
			}

			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}

			if err.Error() != tt.message {
				t.Errorf("expected error string %s, got %s", tt.message, err.Error())
			}

			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
		})
	}
}

func TestExtractorErrorWithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "test error").
		WithContext("file", "/path/to/statement.pdf").
		WithContext("page", 3).
		WithSuggestion("check file path")

	if err.Context["file"] != "/path/to/statement.pdf" {
		t.Errorf("expected file context '/path/to/statement.pdf', got %v", err.Context["file"])
	}
	if err.Context["page"] != 3 {
		t.Errorf("expected page context 3, got %v", err.Context["page"])
	}

	if err.Suggestion != "check file path" {
		t.Errorf("expected suggestion 'check file path', got %s", err.Suggestion)
	}

	expected := "test error (suggestion: check file path)"
	if err.Error() != expected {
		t.Errorf("expected error string '%s', got '%s'", expected, err.Error())
	}
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/test/statement.pdf", cause)

		if err.Category != CategoryFile {
			t.Errorf("expected file category, got %s", err.Category)
		}
		if err.Code != CodeFilePermission {
			t.Errorf("expected permission code, got %s", err.Code)
		}
		if err.Context["file_path"] != "/test/statement.pdf" {
			t.Errorf("expected file_path context, got %v", err.Context["file_path"])
		}
		if err.Suggestion == "" {
			t.Error("expected suggestion to be set")
		}
		if err.Cause != cause {
			t.Errorf("expected cause to be %v, got %v", cause, err.Cause)
		}
	})

	t.Run("ExtractionError", func(t *testing.T) {
		err := ExtractionError(CodeNoExtractableText, "scan.pdf", nil)

		if err.Category != CategoryExtraction {
			t.Errorf("expected extraction category, got %s", err.Category)
		}
		if err.Context["file_path"] != "scan.pdf" {
			t.Errorf("expected file_path context, got %v", err.Context["file_path"])
		}
		if !strings.Contains(err.Suggestion, "scanned") {
			t.Errorf("expected scanned-image suggestion, got %q", err.Suggestion)
		}
	})

	t.Run("ParseError", func(t *testing.T) {
		err := ParseError(CodeInvalidDate, "statement.pdf", 10, "32-Foo-2024", nil)

		if err.Category != CategoryParse {
			t.Errorf("expected parse category, got %s", err.Category)
		}
		if err.Context["file"] != "statement.pdf" {
			t.Errorf("expected file context, got %v", err.Context["file"])
		}
		if err.Context["line"] != 10 {
			t.Errorf("expected line context, got %v", err.Context["line"])
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError(CodeOutOfRange, "amount", "2000000000.00", nil)

		if err.Category != CategoryValidation {
			t.Errorf("expected validation category, got %s", err.Category)
		}
		if err.Context["field"] != "amount" {
			t.Errorf("expected field context, got %v", err.Context["field"])
		}
		if err.Context["value"] != "2000000000.00" {
			t.Errorf("expected value context, got %v", err.Context["value"])
		}
	})
}

func TestErrorSummary(t *testing.T) {
	errs := []*ExtractorError{
		New(CategoryFile, CodeFileNotFound, "error 1"),
		New(CategoryFile, CodeFilePermission, "error 2"),
		New(CategoryParse, CodeInvalidDate, "error 3"),
		New(CategoryParse, CodeInvalidAmount, "error 4"),
		New(CategoryValidation, CodeOutOfRange, "error 5"),
	}

	summary := NewErrorSummary(errs)

	if summary.Total != 5 {
		t.Errorf("expected total 5, got %d", summary.Total)
	}

	if summary.ByCategory[CategoryFile] != 2 {
		t.Errorf("expected 2 file errors, got %d", summary.ByCategory[CategoryFile])
	}
	if summary.ByCategory[CategoryParse] != 2 {
		t.Errorf("expected 2 parse errors, got %d", summary.ByCategory[CategoryParse])
	}
	if summary.ByCategory[CategoryValidation] != 1 {
		t.Errorf("expected 1 validation error, got %d", summary.ByCategory[CategoryValidation])
	}

	if summary.ByCode[CodeFileNotFound] != 1 {
		t.Errorf("expected 1 file not found error, got %d", summary.ByCode[CodeFileNotFound])
	}

	if summary.Error() == "" {
		t.Error("expected non-empty error string")
	}

	if !summary.HasCategory(CategoryFile) {
		t.Error("expected to have file category")
	}
	if summary.HasCategory(CategoryExtraction) {
		t.Error("expected not to have extraction category")
	}

	if summary.GetExitCode() == 0 {
		t.Error("expected non-zero exit code")
	}
}

func TestEmptyErrorSummary(t *testing.T) {
	summary := NewErrorSummary([]*ExtractorError{})

	if summary.Total != 0 {
		t.Errorf("expected total 0, got %d", summary.Total)
	}
	if summary.Error() != "no errors" {
		t.Errorf("expected 'no errors', got '%s'", summary.Error())
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", summary.GetExitCode())
	}
}

func TestIsExtractorError(t *testing.T) {
	extractorErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	if !IsExtractorError(extractorErr) {
		t.Error("expected IsExtractorError to return true for ExtractorError")
	}
	if IsExtractorError(genericErr) {
		t.Error("expected IsExtractorError to return false for generic error")
	}
	if IsExtractorError(nil) {
		t.Error("expected IsExtractorError to return false for nil")
	}
}

func TestAsExtractorError(t *testing.T) {
	extractorErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	if extracted, ok := AsExtractorError(extractorErr); !ok || extracted != extractorErr {
		t.Error("expected AsExtractorError to extract ExtractorError")
	}

	if _, ok := AsExtractorError(genericErr); ok {
		t.Error("expected AsExtractorError to return false for generic error")
	}

	if _, ok := AsExtractorError(nil); ok {
		t.Error("expected AsExtractorError to return false for nil")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	extractorErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	result1 := WrapIfNeeded(extractorErr, CategoryParse, CodeInvalidDate, "wrapped")
	if result1 != extractorErr {
		t.Error("expected WrapIfNeeded to return original ExtractorError")
	}

	result2 := WrapIfNeeded(genericErr, CategoryParse, CodeInvalidDate, "wrapped")
	if result2.Cause != genericErr {
		t.Error("expected WrapIfNeeded to wrap generic error")
	}
	if result2.Category != CategoryParse {
		t.Error("expected wrapped error to have correct category")
	}

	result3 := WrapIfNeeded(nil, CategoryParse, CodeInvalidDate, "wrapped")
	if result3 != nil {
		t.Error("expected WrapIfNeeded to return nil for nil input")
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category     ErrorCategory
		expectedCode int
	}{
		{CategoryFile, 2},
		{CategoryExtraction, 3},
		{CategoryParse, 4},
		{CategoryValidation, 4},
		{CategoryConfiguration, 5},
		{CategoryInternal, 6},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, "test_code", "test message")
			if err.GetExitCode() != tt.expectedCode {
				t.Errorf("expected exit code %d for category %s, got %d",
					tt.expectedCode, tt.category, err.GetExitCode())
			}
		})
	}
}

func TestLineError(t *testing.T) {
	lineErr := UnmatchedLineError("statement.pdf", 2, 14, "15 Apr 2024 mystery layout 1,000.00 5,000.00")

	if lineErr.Code != CodeUnmatchedLine {
		t.Errorf("expected code %s, got %s", CodeUnmatchedLine, lineErr.Code)
	}
	if lineErr.Context.Page != 2 {
		t.Errorf("expected page 2, got %d", lineErr.Context.Page)
	}
	if !lineErr.Recoverable {
		t.Error("expected unmatched line error to be recoverable")
	}

	msg := lineErr.Error()
	if !strings.Contains(msg, "page 2") || !strings.Contains(msg, "line 14") {
		t.Errorf("expected location in message, got %q", msg)
	}

	detail := lineErr.GetDetailedError()
	for _, want := range []string{"File:", "Page:", "Line:", "Content:", "Suggestion:"} {
		if !strings.Contains(detail, want) {
			t.Errorf("expected %q section in detailed error:\n%s", want, detail)
		}
	}
}

func TestLineErrorCollector(t *testing.T) {
	collector := NewLineErrorCollector(2)

	if collector.HasErrors() {
		t.Error("expected fresh collector to have no errors")
	}

	for i := 0; i < 5; i++ {
		collector.Add(UnmatchedLineError("s.pdf", 1, i, "line"))
	}

	if got := len(collector.GetErrors()); got != 2 {
		t.Errorf("expected collector capped at 2 errors, got %d", got)
	}

	summary := collector.GetSummary()
	if summary.Total != 2 {
		t.Errorf("expected summary total 2, got %d", summary.Total)
	}
	if !summary.HasCode(CodeUnmatchedLine) {
		t.Error("expected summary to contain unmatched line code")
	}
}

func TestFormatLineErrorsForUser(t *testing.T) {
	if got := FormatLineErrorsForUser(nil); got != "No line errors" {
		t.Errorf("expected 'No line errors', got %q", got)
	}

	errs := []*LineError{
		UnmatchedLineError("s.pdf", 1, 3, "a"),
		UnmatchedLineError("s.pdf", 1, 7, "b"),
		UnmatchedLineError("s.pdf", 2, 1, "c"),
		UnmatchedLineError("s.pdf", 2, 9, "d"),
	}

	out := FormatLineErrorsForUser(errs)
	if !strings.Contains(out, "Found 4 problem lines") {
		t.Errorf("expected header with count, got:\n%s", out)
	}
	if !strings.Contains(out, "1 more problem lines") {
		t.Errorf("expected overflow note, got:\n%s", out)
	}
}
