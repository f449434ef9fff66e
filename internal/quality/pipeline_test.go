package quality

import (
	"testing"
	"time"

	"statement-extraction-service/internal/models"

	"github.com/shopspring/decimal"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(nil)
	if err != nil {
		t.Fatalf("NewPipeline(nil) = %v", err)
	}
	return p
}

func record(date time.Time, narrative string, amount float64) *models.TransactionRecord {
	return models.NewTransactionRecord(date, narrative, decimal.NewFromFloat(amount), decimal.NewFromFloat(amount).Add(decimal.NewFromInt(1000)))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"Defaults are valid", func(*Config) {}, false},
		{"Negative min amount", func(c *Config) { c.MinAmount = decimal.NewFromInt(-1) }, true},
		{"Max not above min", func(c *Config) { c.MaxAmount = c.MinAmount }, true},
		{"Negative narrative length", func(c *Config) { c.MinNarrativeLength = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCleanNarrative(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Whitespace collapse", "UPI  TRANSFER   TO  JOHN", "UPI TRANSFER TO JOHN"},
		{"Leading sequence numbers stripped", "12 450 UPI TRANSFER", "UPI TRANSFER"},
		{"Disallowed characters removed", "PAYMENT @#%& TO VENDOR", "PAYMENT TO VENDOR"},
		{"Reference punctuation kept", "UPI/DR/425032698980-VIKASH REF.123", "UPI/DR/425032698980-VIKASH REF.123"},
		{"Already clean is a fixed point", "NEFT CR SALARY APRIL", "NEFT CR SALARY APRIL"},
		{"Empty input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanNarrative(tt.input)
			if got != tt.expected {
				t.Errorf("CleanNarrative(%q) = %q, want %q", tt.input, got, tt.expected)
			}
			if again := CleanNarrative(got); again != got {
				t.Errorf("CleanNarrative is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestPipeline_Apply(t *testing.T) {
	p := newTestPipeline(t)
	date := time.Date(2024, time.April, 15, 10, 30, 0, 0, time.UTC)
	currency := models.Currency{Code: "INR", Symbol: "₹"}

	records := []*models.TransactionRecord{
		record(date, "1 UPI TRANSFER TO GROCERY MART", -850),
		record(date, "NEFT CR SALARY APRIL", 45000),
		record(date, "XX", -200),            // narrative too short after cleanup
		record(date, "TINY FEE", -0.50),     // below the amount floor
		record(date, "LUDICROUS", 2e9),      // above the amount ceiling
		record(time.Time{}, "NO DATE", 100), // unresolved date
	}

	cleaned, stats := p.Apply(records, currency)

	if len(cleaned) != 2 {
		t.Fatalf("got %d surviving records, want 2", len(cleaned))
	}
	if stats.Input != 6 || stats.Output != 2 || stats.Dropped() != 4 {
		t.Errorf("stats = input %d output %d dropped %d, want 6/2/4", stats.Input, stats.Output, stats.Dropped())
	}
	if got := stats.DroppedByStage["narrative_cleanup"]; got != 1 {
		t.Errorf("narrative_cleanup drops = %d, want 1", got)
	}
	if got := stats.DroppedByStage["suspicious_amount"]; got != 3 {
		t.Errorf("suspicious_amount drops = %d, want 3", got)
	}

	first := cleaned[0]
	if first.Narrative != "UPI TRANSFER TO GROCERY MART" {
		t.Errorf("first narrative = %q", first.Narrative)
	}
	if first.CurrencySymbol != "₹" {
		t.Errorf("first currency symbol = %q, want ₹", first.CurrencySymbol)
	}
	if first.DateString() != "2024-04-15" {
		t.Errorf("first date = %s, want 2024-04-15 (time-of-day truncated)", first.DateString())
	}
	if !first.TransactionDate.Equal(time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first date not truncated to midnight UTC: %v", first.TransactionDate)
	}
}

func TestPipeline_Apply_DoesNotModifyInput(t *testing.T) {
	p := newTestPipeline(t)
	date := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)

	original := record(date, "1 UPI TRANSFER TO GROCERY MART", -850)
	_, _ = p.Apply([]*models.TransactionRecord{original}, models.DefaultCurrency())

	if original.Narrative != "1 UPI TRANSFER TO GROCERY MART" {
		t.Errorf("input record was modified: narrative = %q", original.Narrative)
	}
	if original.CurrencySymbol != "" {
		t.Errorf("input record was modified: currency symbol = %q", original.CurrencySymbol)
	}
}

func TestPipeline_Apply_Idempotent(t *testing.T) {
	p := newTestPipeline(t)
	date := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	currency := models.DefaultCurrency()

	records := []*models.TransactionRecord{
		record(date, "12 UPI  TRANSFER TO  JOHN DOE", -1000),
		record(date, "NEFT CR SALARY APRIL", 45000),
	}

	once, _ := p.Apply(records, currency)
	twice, stats := p.Apply(once, currency)

	if stats.Dropped() != 0 {
		t.Errorf("second pass dropped %d records, want 0", stats.Dropped())
	}
	if len(twice) != len(once) {
		t.Fatalf("second pass changed record count: %d -> %d", len(once), len(twice))
	}
	for i := range once {
		if twice[i].Narrative != once[i].Narrative {
			t.Errorf("record %d narrative changed on re-run: %q -> %q", i, once[i].Narrative, twice[i].Narrative)
		}
		if !twice[i].TransactionDate.Equal(once[i].TransactionDate) {
			t.Errorf("record %d date changed on re-run", i)
		}
	}
}
