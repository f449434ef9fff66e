// Package report renders extraction results for people and machines.
//
// Two artifacts are produced per document: a transactions CSV with the
// fixed four-column layout, and a validation report available as plain
// text, JSON, or a console summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"statement-extraction-service/internal/models"
	"statement-extraction-service/internal/validate"
	pkgerrors "statement-extraction-service/pkg/errors"
)

// OutputFormat represents the supported validation report formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatText    OutputFormat = "text"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatText:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`

	// Console options
	MaxRecommendations int `json:"max_recommendations"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:             FormatText,
		CSVDelimiter:       ',',
		CSVHeaders:         true,
		MaxRecommendations: 10,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.CSVDelimiter == 0 {
		return fmt.Errorf("csv delimiter cannot be empty")
	}
	return nil
}

// Generator renders transaction CSVs and validation reports
type Generator struct {
	config *ReportConfig
}

// NewGenerator creates a report generator with the specified configuration
func NewGenerator(config *ReportConfig) (*Generator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &Generator{config: config}, nil
}

// TransactionsCSVPath returns the CSV artifact path for a source document
func TransactionsCSVPath(outputDir, sourcePath string) string {
	return filepath.Join(outputDir, baseName(sourcePath)+"_transactions.csv")
}

// ValidationReportPath returns the validation artifact path for a source
// document
func ValidationReportPath(outputDir, sourcePath string) string {
	return filepath.Join(outputDir, baseName(sourcePath)+"_validation_report.txt")
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// WriteTransactionsCSV writes the record sequence in the fixed column
// layout. The amount column header carries the document currency symbol;
// dates render in the canonical YYYY-MM-DD form.
func (g *Generator) WriteTransactionsCSV(records []*models.TransactionRecord, currency models.Currency, w io.Writer) error {
	cw := csv.NewWriter(w)
	cw.Comma = g.config.CSVDelimiter

	if g.config.CSVHeaders {
		header := []string{
			"Transaction Date",
			"Narrative",
			fmt.Sprintf("Amount (%s)", currency.Symbol),
			"Balance",
		}
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, r := range records {
		row := []string{
			r.DateString(),
			r.Narrative,
			r.Amount.StringFixed(2),
			r.Balance.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveTransactionsCSV writes the CSV artifact to disk
func (g *Generator) SaveTransactionsCSV(records []*models.TransactionRecord, currency models.Currency, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err).
			WithSuggestion("Check that the output directory exists and is writable")
	}
	defer f.Close()

	if err := g.WriteTransactionsCSV(records, currency, f); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	return nil
}

// WriteValidationReport renders a validation report in the configured
// format
func (g *Generator) WriteValidationReport(report *validate.Report, w io.Writer) error {
	switch g.config.Format {
	case FormatJSON:
		return g.writeValidationJSON(report, w)
	case FormatConsole:
		return g.writeConsoleSummary(report, w)
	case FormatText:
		return g.writeValidationText(report, w)
	default:
		return fmt.Errorf("unsupported output format: %s", g.config.Format)
	}
}

// SaveValidationReport writes the plain-text validation artifact to disk
func (g *Generator) SaveValidationReport(report *validate.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err).
			WithSuggestion("Check that the output directory exists and is writable")
	}
	defer f.Close()

	if err := g.writeValidationText(report, f); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeWriteFailed, path, err)
	}
	return nil
}

// writeValidationText renders the full human-readable validation report
func (g *Generator) writeValidationText(report *validate.Report, w io.Writer) error {
	bar := strings.Repeat("=", 80)
	section := strings.Repeat("-", 40)

	fmt.Fprintln(w, bar)
	fmt.Fprintln(w, "BANK STATEMENT VALIDATION REPORT")
	fmt.Fprintln(w, bar)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "File: %s\n", report.FileName)
	fmt.Fprintf(w, "Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Total Transactions: %d\n", report.TotalTransactions)
	fmt.Fprintf(w, "Overall Status: %s\n\n", report.Summary.OverallStatus)

	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, section)
	fmt.Fprintf(w, "Total Issues: %d\n", report.Summary.TotalIssues)
	fmt.Fprintf(w, "Warnings: %d\n", report.Summary.Warnings)
	fmt.Fprintf(w, "Critical Issues: %d\n\n", report.Summary.CriticalIssues)

	fmt.Fprintln(w, "DETAILED RESULTS")
	fmt.Fprintln(w, section)

	for _, check := range report.Checks.Ordered() {
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(check.Name))
		fmt.Fprintln(w, strings.Repeat("-", 20))
		encoded, err := json.MarshalIndent(check.Result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode %s results: %w", check.Name, err)
		}
		fmt.Fprintln(w, string(encoded))
	}

	if len(report.Summary.Recommendations) > 0 {
		fmt.Fprintln(w, "\nRECOMMENDATIONS")
		fmt.Fprintln(w, section)
		for _, rec := range report.Summary.Recommendations {
			fmt.Fprintf(w, "\u2022 %s\n", rec)
		}
	}

	return nil
}

// writeValidationJSON renders the report as indented JSON
func (g *Generator) writeValidationJSON(report *validate.Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return fmt.Errorf("failed to encode validation report: %w", err)
	}
	return nil
}

// writeConsoleSummary renders the short per-document verdict
func (g *Generator) writeConsoleSummary(report *validate.Report, w io.Writer) error {
	fmt.Fprintf(w, "%s: %d transactions, status %s (%d issues, %d warnings)\n",
		report.FileName, report.TotalTransactions, report.Summary.OverallStatus,
		report.Summary.TotalIssues, report.Summary.Warnings)

	max := g.config.MaxRecommendations
	for i, rec := range report.Summary.Recommendations {
		if max > 0 && i >= max {
			break
		}
		fmt.Fprintf(w, "  \u2022 %s\n", rec)
	}
	return nil
}
