// Package extractor turns statement documents into page-structured line
// streams. PDF text extraction tries multiple methods in order of layout
// fidelity and refuses to hand garbage downstream: output that fails the
// readability gate is treated as extraction failure, not as input for the
// reconstruction engine. Plain-text documents pass through with form-feed
// page breaks.
package extractor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"statement-extraction-service/internal/models"
	pkgerrors "statement-extraction-service/pkg/errors"
	"statement-extraction-service/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// Config holds the readability gate thresholds
type Config struct {
	// MinTextLength is the minimum total character count for extracted
	// text to be considered usable.
	MinTextLength int `json:"min_text_length"`

	// MinQuality is the minimum ratio of plain ASCII characters; below
	// it the text is assumed to be font-encoding garbage.
	MinQuality float64 `json:"min_quality"`
}

// DefaultConfig returns the built-in readability thresholds
func DefaultConfig() *Config {
	return &Config{
		MinTextLength: 50,
		MinQuality:    0.6,
	}
}

// Validate validates the extractor configuration
func (c *Config) Validate() error {
	if c.MinTextLength < 0 {
		return fmt.Errorf("min text length cannot be negative")
	}
	if c.MinQuality < 0 || c.MinQuality > 1 {
		return fmt.Errorf("min quality must be between 0 and 1, got %v", c.MinQuality)
	}
	return nil
}

// Extractor reads statement documents into line streams
type Extractor struct {
	config *Config
	logger logger.Logger
}

// NewExtractor creates an extractor with the given thresholds
func NewExtractor(config *Config) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "extractor", nil, err)
	}

	return &Extractor{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("extractor"),
	}, nil
}

// Extract reads the document at path into a page-structured line stream.
// The input format is chosen by extension: .pdf documents go through the
// multi-method PDF text extraction, .txt documents are split into pages
// on form feeds.
func (e *Extractor) Extract(ctx context.Context, path string) (*models.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.CodeUnexpectedError, "extraction cancelled")
	}

	if _, err := os.Stat(path); err != nil {
		return nil, pkgerrors.FileError(pkgerrors.CodeDocumentOpenFailed, path, err).
			WithSuggestion("Check that the file exists and is readable")
	}

	log := e.logger.WithDocument(path)

	var pages []string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err = e.extractPDF(path)
	case ".txt":
		pages, err = e.extractText(path)
	default:
		return nil, pkgerrors.FileError(pkgerrors.CodeUnsupportedType, path, nil).
			WithSuggestion("Provide a .pdf or .txt statement")
	}
	if err != nil {
		return nil, err
	}

	doc := &models.Document{Path: path}
	for _, pageText := range pages {
		doc.Pages = append(doc.Pages, models.NewPage(strings.Split(pageText, "\n")))
	}

	log.WithFields(logger.Fields{
		"pages": len(doc.Pages),
		"lines": doc.LineCount(),
	}).Info("Extracted document text")

	return doc, nil
}

// extractText splits a plain-text statement into pages on form feeds
func (e *Extractor) extractText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.FileError(pkgerrors.CodeDocumentOpenFailed, path, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, pkgerrors.ExtractionError(pkgerrors.CodeNoExtractableText, path, nil)
	}
	return strings.Split(string(data), "\f"), nil
}

// extractPDF tries each extraction method in order of layout fidelity and
// returns the first output that passes the readability gate
func (e *Extractor) extractPDF(path string) (pages []string, err error) {
	// The PDF library panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = pkgerrors.ExtractionError(pkgerrors.CodeUnreadableText, path,
				fmt.Errorf("pdf library panic: %v", r))
		}
	}()

	f, r, openErr := pdf.Open(path)
	if openErr != nil {
		return nil, pkgerrors.FileError(pkgerrors.CodeDocumentOpenFailed, path, openErr).
			WithSuggestion("Check that the file is a valid PDF")
	}
	defer f.Close()

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, pkgerrors.ExtractionError(pkgerrors.CodeNoExtractableText, path, nil)
	}

	methods := []struct {
		name    string
		extract func(*pdf.Reader, int) []string
	}{
		{"text_by_row", extractByRow},
		{"content_coordinates", extractByContent},
		{"plain_text", extractByPlainText},
	}

	for _, method := range methods {
		pages = method.extract(r, numPages)
		if e.isReadable(pages) {
			e.logger.WithDocument(path).WithField("method", method.name).Debug("PDF extraction method succeeded")
			return pages, nil
		}
	}

	if totalTextLength(pages) == 0 {
		return nil, pkgerrors.ExtractionError(pkgerrors.CodeNoExtractableText, path, nil).
			WithSuggestion("The PDF may be image-based or scanned; run OCR first")
	}
	return nil, pkgerrors.ExtractionError(pkgerrors.CodeUnreadableText, path, nil).
		WithSuggestion("The PDF may use custom font encodings that cannot be decoded")
}

// extractByRow uses GetTextByRow, the method with the best layout
// preservation for well-structured PDFs
func extractByRow(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		var lines []string
		for _, row := range rows {
			var parts []string
			for _, word := range row.Content {
				parts = append(parts, word.S)
			}
			line := strings.TrimSpace(strings.Join(parts, " "))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByContent reads raw text objects and reconstructs rows by
// grouping on the Y coordinate, then ordering left to right by X. PDF Y
// grows bottom-to-top, so rows sort descending.
func extractByContent(r *pdf.Reader, numPages int) []string {
	type textItem struct {
		x float64
		s string
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content := page.Content()
		if len(content.Text) == 0 {
			continue
		}

		rowMap := make(map[int][]textItem)
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			yKey := int(math.Round(t.Y))
			rowMap[yKey] = append(rowMap[yKey], textItem{x: t.X, s: t.S})
		}

		yKeys := make([]int, 0, len(rowMap))
		for y := range rowMap {
			yKeys = append(yKeys, y)
		}
		sort.Sort(sort.Reverse(sort.IntSlice(yKeys)))

		var lines []string
		for _, y := range yKeys {
			items := rowMap[y]
			sort.Slice(items, func(a, b int) bool { return items[a].x < items[b].x })

			var parts []string
			var prevX float64
			for j, item := range items {
				if j > 0 && item.x-prevX > 15 {
					// Large X gap marks a column boundary.
					parts = append(parts, "  ")
				}
				parts = append(parts, item.s)
				prevX = item.x
			}
			line := strings.TrimSpace(strings.Join(parts, ""))
			if line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// extractByPlainText uses GetPlainText with a per-page font map
func extractByPlainText(r *pdf.Reader, numPages int) []string {
	var pages []string
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		fonts := make(map[string]*pdf.Font)
		for _, name := range page.Fonts() {
			f := page.Font(name)
			fonts[name] = &f
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	return pages
}

// statementWords appear in virtually every bank statement; extracted text
// containing none of them is almost certainly decode garbage
var statementWords = []string{
	"bank", "account", "balance", "date", "statement", "transaction",
	"amount", "credit", "debit", "branch", "transfer", "total",
}

// isReadable checks that the text is long enough, mostly plain ASCII, and
// contains at least one recognizable statement word
func (e *Extractor) isReadable(pages []string) bool {
	if totalTextLength(pages) <= e.config.MinTextLength {
		return false
	}
	if textQuality(pages) <= e.config.MinQuality {
		return false
	}
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range statementWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// textQuality returns the ratio of plain ASCII readable characters to
// total characters. A strict ASCII check deliberately rejects the
// accented-character soup produced by identity-encoded fonts.
func textQuality(pages []string) float64 {
	total, readable := 0, 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
				(r >= '0' && r <= '9') || unicode.IsSpace(r) ||
				strings.ContainsRune(`.,-/:;()'"%&@#!?+=*`, r) ||
				r == '₹' || r == '$' || r == '€' || r == '£' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

func totalTextLength(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}
