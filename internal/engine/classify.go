package engine

import (
	"regexp"
	"strings"

	"statement-extraction-service/internal/models"
)

// LineClass is the classifier's verdict for a single line
type LineClass int

const (
	// LineNoise marks blank lines and header/footer furniture
	LineNoise LineClass = iota
	// LineTransactionStart marks a line carrying a complete candidate
	// record: date, amount, and trailing balance all present
	LineTransactionStart
	// LineContinuation marks a line that extends the previous record's
	// narrative rather than starting a new one
	LineContinuation
)

// String returns the name of the line class
func (c LineClass) String() string {
	switch c {
	case LineNoise:
		return "noise"
	case LineTransactionStart:
		return "transaction_start"
	case LineContinuation:
		return "continuation"
	default:
		return "unknown"
	}
}

// headerMarkerPattern matches account metadata labels and column headers
// that statements repeat on every page. Tested case-insensitively against
// the start of the line.
var headerMarkerPattern = regexp.MustCompile(`(?i)^(account|branch|crn|ifsc|micr|elint|transaction|#)`)

// Classifier decides whether a line is a candidate transaction start, a
// continuation, or noise. It is used prospectively (how far does a
// multi-line narrative extend) and retrospectively (is the following line
// a continuation to merge).
type Classifier struct {
	fields *FieldExtractor
}

// NewClassifier creates a classifier over the given field extractor
func NewClassifier(fields *FieldExtractor) *Classifier {
	return &Classifier{fields: fields}
}

// Classify returns the line class for a single trimmed line of text.
// A transaction start requires a date, an amount, and a trailing-balance
// shape all at once: any one alone is too weak a signal, since narratives
// routinely contain numbers and dates.
func (c *Classifier) Classify(text string) LineClass {
	text = strings.TrimSpace(text)
	if text == "" {
		return LineNoise
	}
	if headerMarkerPattern.MatchString(text) {
		return LineNoise
	}

	if c.fields.HasDate(text) && c.fields.HasAmount(text) && c.fields.HasTrailingBalanceShape(text) {
		return LineTransactionStart
	}

	return LineContinuation
}

// ClassifyLine is Classify over a RawLine
func (c *Classifier) ClassifyLine(line models.RawLine) LineClass {
	return c.Classify(line.Text)
}
