package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"statement-extraction-service/internal/models"
	"statement-extraction-service/internal/validate"

	"github.com/shopspring/decimal"
)

func newTestGenerator(t *testing.T, config *ReportConfig) *Generator {
	t.Helper()
	g, err := NewGenerator(config)
	if err != nil {
		t.Fatalf("NewGenerator() = %v", err)
	}
	return g
}

func sampleRecords() []*models.TransactionRecord {
	return []*models.TransactionRecord{
		models.NewTransactionRecord(
			time.Date(2024, time.April, 12, 0, 0, 0, 0, time.UTC),
			"UPI TRANSFER TO GROCERY MART",
			decimal.NewFromFloat(-850),
			decimal.NewFromFloat(9150)),
		models.NewTransactionRecord(
			time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC),
			"NEFT CR SALARY APRIL",
			decimal.NewFromFloat(45000),
			decimal.NewFromFloat(54150)),
	}
}

func sampleReport(t *testing.T) *validate.Report {
	t.Helper()
	v, err := validate.NewValidator(nil)
	if err != nil {
		t.Fatalf("NewValidator() = %v", err)
	}
	return v.Validate(sampleRecords(), "statement.pdf")
}

func TestOutputFormat_IsValid(t *testing.T) {
	tests := []struct {
		format   OutputFormat
		expected bool
	}{
		{FormatConsole, true},
		{FormatJSON, true},
		{FormatText, true},
		{OutputFormat("xml"), false},
		{OutputFormat(""), false},
	}

	for _, tt := range tests {
		if got := tt.format.IsValid(); got != tt.expected {
			t.Errorf("OutputFormat(%q).IsValid() = %v, want %v", tt.format, got, tt.expected)
		}
	}
}

func TestArtifactPaths(t *testing.T) {
	csvPath := TransactionsCSVPath("output", "/data/statements/april_statement.pdf")
	if csvPath != filepath.Join("output", "april_statement_transactions.csv") {
		t.Errorf("TransactionsCSVPath() = %s", csvPath)
	}

	reportPath := ValidationReportPath("output", "/data/statements/april_statement.pdf")
	if reportPath != filepath.Join("output", "april_statement_validation_report.txt") {
		t.Errorf("ValidationReportPath() = %s", reportPath)
	}
}

func TestWriteTransactionsCSV(t *testing.T) {
	g := newTestGenerator(t, nil)

	var sb strings.Builder
	currency := models.Currency{Code: "INR", Symbol: "₹"}
	if err := g.WriteTransactionsCSV(sampleRecords(), currency, &sb); err != nil {
		t.Fatalf("WriteTransactionsCSV() = %v", err)
	}

	want := "Transaction Date,Narrative,Amount (₹),Balance\n" +
		"2024-04-12,UPI TRANSFER TO GROCERY MART,-850.00,9150.00\n" +
		"2024-04-15,NEFT CR SALARY APRIL,45000.00,54150.00\n"
	if sb.String() != want {
		t.Errorf("CSV output:\n%s\nwant:\n%s", sb.String(), want)
	}
}

func TestWriteTransactionsCSV_NoHeaders(t *testing.T) {
	config := DefaultReportConfig()
	config.CSVHeaders = false
	g := newTestGenerator(t, config)

	var sb strings.Builder
	if err := g.WriteTransactionsCSV(sampleRecords(), models.DefaultCurrency(), &sb); err != nil {
		t.Fatalf("WriteTransactionsCSV() = %v", err)
	}
	if strings.Contains(sb.String(), "Transaction Date") {
		t.Errorf("headers written despite CSVHeaders=false:\n%s", sb.String())
	}
	if got := strings.Count(sb.String(), "\n"); got != 2 {
		t.Errorf("got %d lines, want 2", got)
	}
}

func TestWriteValidationReport_Text(t *testing.T) {
	g := newTestGenerator(t, nil)

	var sb strings.Builder
	if err := g.WriteValidationReport(sampleReport(t), &sb); err != nil {
		t.Fatalf("WriteValidationReport() = %v", err)
	}
	out := sb.String()

	for _, marker := range []string{
		strings.Repeat("=", 80),
		"BANK STATEMENT VALIDATION REPORT",
		"File: statement.pdf",
		"Total Transactions: 2",
		"SUMMARY",
		strings.Repeat("-", 40),
		"DETAILED RESULTS",
		"DATA_INTEGRITY:",
		"BUSINESS_LOGIC:",
		"STATISTICS:",
	} {
		if !strings.Contains(out, marker) {
			t.Errorf("text report missing %q", marker)
		}
	}

	// Two records trigger the low-count recommendation, rendered as
	// bullet points.
	if !strings.Contains(out, "RECOMMENDATIONS") {
		t.Error("text report missing the recommendations section")
	}
	if !strings.Contains(out, "• Low transaction count") {
		t.Error("text report missing the bulleted recommendation")
	}

	// Check sections appear in battery order.
	if strings.Index(out, "DATA_INTEGRITY:") > strings.Index(out, "STATISTICS:") {
		t.Error("check sections out of order")
	}
}

func TestWriteValidationReport_JSON(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	g := newTestGenerator(t, config)

	var sb strings.Builder
	if err := g.WriteValidationReport(sampleReport(t), &sb); err != nil {
		t.Fatalf("WriteValidationReport() = %v", err)
	}
	out := sb.String()

	for _, key := range []string{`"file_name"`, `"total_transactions"`, `"checks"`, `"summary"`, `"overall_status"`} {
		if !strings.Contains(out, key) {
			t.Errorf("JSON report missing key %s", key)
		}
	}
}

func TestWriteValidationReport_Console(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatConsole
	g := newTestGenerator(t, config)

	var sb strings.Builder
	if err := g.WriteValidationReport(sampleReport(t), &sb); err != nil {
		t.Fatalf("WriteValidationReport() = %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "statement.pdf: 2 transactions") {
		t.Errorf("console summary = %q", out)
	}
	if !strings.Contains(out, "• Low transaction count") {
		t.Errorf("console summary missing recommendations: %q", out)
	}
}

func TestSaveArtifacts(t *testing.T) {
	g := newTestGenerator(t, nil)
	dir := t.TempDir()

	csvPath := TransactionsCSVPath(dir, "statement.pdf")
	if err := g.SaveTransactionsCSV(sampleRecords(), models.DefaultCurrency(), csvPath); err != nil {
		t.Fatalf("SaveTransactionsCSV() = %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("reading CSV artifact: %v", err)
	}
	if !strings.HasPrefix(string(data), "Transaction Date,") {
		t.Errorf("CSV artifact content:\n%s", data)
	}

	reportPath := ValidationReportPath(dir, "statement.pdf")
	if err := g.SaveValidationReport(sampleReport(t), reportPath); err != nil {
		t.Fatalf("SaveValidationReport() = %v", err)
	}
	data, err = os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report artifact: %v", err)
	}
	if !strings.Contains(string(data), "BANK STATEMENT VALIDATION REPORT") {
		t.Errorf("report artifact content:\n%s", data)
	}
}

func TestSaveTransactionsCSV_BadDirectory(t *testing.T) {
	g := newTestGenerator(t, nil)
	path := filepath.Join(t.TempDir(), "missing", "out.csv")
	if err := g.SaveTransactionsCSV(sampleRecords(), models.DefaultCurrency(), path); err == nil {
		t.Error("SaveTransactionsCSV() = nil error, want failure for missing directory")
	}
}

func TestReportConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ReportConfig)
		wantErr bool
	}{
		{"Defaults are valid", func(*ReportConfig) {}, false},
		{"Unknown format", func(c *ReportConfig) { c.Format = "yaml" }, true},
		{"Zero delimiter", func(c *ReportConfig) { c.CSVDelimiter = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultReportConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
