package engine

import (
	"strings"
	"testing"
	"time"

	"statement-extraction-service/internal/models"
)

func newTestStrategies(t *testing.T) []Strategy {
	t.Helper()
	config := DefaultConfig()
	fields := NewFieldExtractor(config)
	return DefaultStrategies(config, fields, NewClassifier(fields))
}

func strategyByName(t *testing.T, name string) Strategy {
	t.Helper()
	for _, s := range newTestStrategies(t) {
		if s.Name() == name {
			return s
		}
	}
	t.Fatalf("no strategy named %q", name)
	return nil
}

func TestPairedDateLookaheadStrategy(t *testing.T) {
	strategy := strategyByName(t, "paired_date_lookahead")

	page := models.NewPage([]string{
		"6-Sep-24 TO TRANSFER TO 4897695 430.00 -427.92",
		"(6-Sep-2024) UPI/DR/425032698980/VIKASH 162091",
	})

	record, consumed, ok := strategy.Try(page, 0)
	if !ok {
		t.Fatal("Try() did not match the paired-date layout")
	}
	if consumed != 2 {
		t.Errorf("consumed = %d, want 2", consumed)
	}

	wantDate := time.Date(2024, time.September, 6, 0, 0, 0, 0, time.UTC)
	if !record.TransactionDate.Equal(wantDate) {
		t.Errorf("TransactionDate = %v, want %v", record.TransactionDate, wantDate)
	}
	wantNarrative := "TO TRANSFER TO 4897695 UPI/DR/425032698980/VIKASH 162091"
	if record.Narrative != wantNarrative {
		t.Errorf("Narrative = %q, want %q", record.Narrative, wantNarrative)
	}
	if record.Amount.StringFixed(2) != "430.00" {
		t.Errorf("Amount = %s, want 430.00", record.Amount.StringFixed(2))
	}
	if record.Balance.StringFixed(2) != "-427.92" {
		t.Errorf("Balance = %s, want -427.92", record.Balance.StringFixed(2))
	}
}

func TestPairedDateLookaheadStrategy_WithoutSecondLine(t *testing.T) {
	strategy := strategyByName(t, "paired_date_lookahead")

	// The value-date line is optional: a start line followed by another
	// start line consumes only itself.
	page := models.NewPage([]string{
		"6-Sep-24 TO TRANSFER TO 4897695 430.00 -427.92",
		"7-Sep-24 BY SALARY CREDIT 45,000.00 44,572.08",
	})

	record, consumed, ok := strategy.Try(page, 0)
	if !ok {
		t.Fatal("Try() did not match")
	}
	if consumed != 1 {
		t.Errorf("consumed = %d, want 1", consumed)
	}
	if record.Narrative != "TO TRANSFER TO 4897695" {
		t.Errorf("Narrative = %q", record.Narrative)
	}
}

func TestPairedDateCompleteStrategy(t *testing.T) {
	strategy := strategyByName(t, "paired_date_complete")

	tests := []struct {
		name       string
		line       string
		wantAmount string
	}{
		{
			name:       "Debit column populated",
			line:       "1-Apr-24 (1-Apr-2024) PAYMENT TO VENDOR REF/123 500.00 - 9,500.00",
			wantAmount: "-500.00",
		},
		{
			name:       "Credit column populated",
			line:       "1-Apr-24 (1-Apr-2024) REFUND FROM VENDOR REF/456 - 500.00 10,000.00",
			wantAmount: "500.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := models.NewPage([]string{tt.line})
			record, consumed, ok := strategy.Try(page, 0)
			if !ok {
				t.Fatalf("Try(%q) did not match", tt.line)
			}
			if consumed != 1 {
				t.Errorf("consumed = %d, want 1", consumed)
			}
			if record.Amount.StringFixed(2) != tt.wantAmount {
				t.Errorf("Amount = %s, want %s", record.Amount.StringFixed(2), tt.wantAmount)
			}
		})
	}
}

func TestGenericCascadeStrategy(t *testing.T) {
	strategy := strategyByName(t, "generic_cascade")

	page := models.NewPage([]string{
		"12 15 Apr 2024 15 Apr 2024 UPI TRANSFER TO JOHN DOE REF123 1,000.00 5,000.00",
	})

	record, consumed, ok := strategy.Try(page, 0)
	if !ok {
		t.Fatal("Try() did not match the tabular layout")
	}
	if consumed != 1 {
		t.Errorf("consumed = %d, want 1", consumed)
	}

	wantDate := time.Date(2024, time.April, 15, 0, 0, 0, 0, time.UTC)
	if !record.TransactionDate.Equal(wantDate) {
		t.Errorf("TransactionDate = %v, want %v", record.TransactionDate, wantDate)
	}
	if !strings.Contains(record.Narrative, "UPI TRANSFER TO JOHN DOE") {
		t.Errorf("Narrative = %q, want it to contain the payee description", record.Narrative)
	}
	if record.Amount.StringFixed(2) != "1000.00" {
		t.Errorf("Amount = %s, want 1000.00", record.Amount.StringFixed(2))
	}
	if record.Balance.StringFixed(2) != "5000.00" {
		t.Errorf("Balance = %s, want 5000.00", record.Balance.StringFixed(2))
	}
}

func TestGenericCascadeStrategy_RequiresAllFields(t *testing.T) {
	strategy := strategyByName(t, "generic_cascade")

	tests := []struct {
		name string
		line string
	}{
		{"Missing amounts", "12 15 Apr 2024 15 Apr 2024 UPI TRANSFER TO JOHN DOE"},
		{"Missing date", "12 UPI TRANSFER TO JOHN DOE REF123 1,000.00 5,000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, ok := strategy.Try(models.NewPage([]string{tt.line}), 0); ok {
				t.Errorf("Try(%q) matched, want no match", tt.line)
			}
		})
	}
}

func TestNumericScanStrategy(t *testing.T) {
	strategy := strategyByName(t, "numeric_scan")

	t.Run("Sequence-led line", func(t *testing.T) {
		page := models.NewPage([]string{
			"3 18 Apr 2024 MISC CHARGES AND FEES 120.00 4,880.00",
		})
		record, _, ok := strategy.Try(page, 0)
		if !ok {
			t.Fatal("Try() did not match")
		}
		if !strings.Contains(record.Narrative, "MISC CHARGES AND FEES") {
			t.Errorf("Narrative = %q", record.Narrative)
		}
		if record.Balance.StringFixed(2) != "4880.00" {
			t.Errorf("Balance = %s, want 4880.00", record.Balance.StringFixed(2))
		}
	})

	t.Run("Rejects lines without a leading sequence number", func(t *testing.T) {
		page := models.NewPage([]string{
			"UPI TRANSFER 15 Apr 2024 1,000.00 5,000.00",
		})
		if _, _, ok := strategy.Try(page, 0); ok {
			t.Error("Try() matched a line without a leading sequence number")
		}
	})
}

func TestExtendNarrative(t *testing.T) {
	config := DefaultConfig()
	fields := NewFieldExtractor(config)
	ctx := &strategyContext{
		fields:             fields,
		classifier:         NewClassifier(fields),
		minNarrativeLength: config.MinNarrativeLength,
	}

	t.Run("Joins continuation lines", func(t *testing.T) {
		page := models.NewPage([]string{
			"1 15 Apr 2024 UPI- 1,000.00 5,000.00",
			"TRANSFER TO JOHN",
			"DOE REF123456",
		})
		got := ctx.extendNarrative(page, 0, "UPI-")
		if got != "UPI- TRANSFER TO JOHN DOE REF123456" {
			t.Errorf("extendNarrative() = %q", got)
		}
	})

	t.Run("Stops at the next transaction start", func(t *testing.T) {
		page := models.NewPage([]string{
			"1 15 Apr 2024 UPI- 1,000.00 5,000.00",
			"TRANSFER TO JOHN",
			"2 16 Apr 2024 ATM WDL CITY CENTRE 2,000.00 3,000.00",
		})
		got := ctx.extendNarrative(page, 0, "UPI-")
		if got != "UPI- TRANSFER TO JOHN" {
			t.Errorf("extendNarrative() = %q", got)
		}
	})

	t.Run("Stops at balance-shaped footer lines", func(t *testing.T) {
		page := models.NewPage([]string{
			"1 15 Apr 2024 UPI- 1,000.00 5,000.00",
			"CLOSING BALANCE 5,000.00",
		})
		got := ctx.extendNarrative(page, 0, "UPI-")
		if got != "UPI-" {
			t.Errorf("extendNarrative() = %q", got)
		}
	})
}

func TestNeedsContinuation(t *testing.T) {
	ctx := &strategyContext{minNarrativeLength: 10}

	tests := []struct {
		narrative string
		expected  bool
	}{
		{"UPI-", true},
		{"SHORT", true},
		{"TRANSFER TO SOMEONE-", true},
		{"TRANSFER TO SOMEONE", false},
	}

	for _, tt := range tests {
		if got := ctx.needsContinuation(tt.narrative); got != tt.expected {
			t.Errorf("needsContinuation(%q) = %v, want %v", tt.narrative, got, tt.expected)
		}
	}
}
