// Package validate runs the post-extraction validation battery over a
// record sequence: seven named checks covering integrity, business logic,
// amounts, dates, narratives, balances, and statistics, rolled up into a
// PASS / WARNING / FAIL verdict. Validation never mutates records and
// never fails extraction on its own; balance findings in particular are
// advisory.
package validate

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DateRange bounds the plausible statement years
type DateRange struct {
	MinYear int `json:"min_year"`
	MaxYear int `json:"max_year"`
}

// Rules holds the thresholds and patterns the validation checks apply
type Rules struct {
	// MinAmount and MaxAmount bound plausible absolute amounts.
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`

	// MaxDailyTransactions is the per-day count above which the day is
	// reported as implausibly busy.
	MaxDailyTransactions int `json:"max_daily_transactions"`

	// HighFrequencyThreshold is the per-day count above which a day is
	// counted as high-frequency in the business-logic check.
	HighFrequencyThreshold int `json:"high_frequency_threshold"`

	// SuspiciousPatterns are narrative substrings (matched
	// case-insensitively) that indicate test or placeholder data.
	SuspiciousPatterns []string `json:"suspicious_patterns"`

	// RequiredFields names the record fields that must be populated.
	RequiredFields []string `json:"required_fields"`

	DateRange DateRange `json:"date_range"`
}

// DefaultRules returns the built-in validation rules
func DefaultRules() *Rules {
	return &Rules{
		MinAmount:              decimal.NewFromInt(1),
		MaxAmount:              decimal.NewFromInt(1_000_000_000),
		MaxDailyTransactions:   100,
		HighFrequencyThreshold: 20,
		SuspiciousPatterns: []string{
			"test", "sample", "dummy", "placeholder",
			"0.00", "0.01", "999999", "123456",
		},
		RequiredFields: []string{"transaction_date", "narrative", "amount", "balance"},
		DateRange:      DateRange{MinYear: 2020, MaxYear: 2030},
	}
}

// Validate validates the rule set
func (r *Rules) Validate() error {
	if r.MaxAmount.LessThanOrEqual(r.MinAmount) {
		return fmt.Errorf("max amount must exceed min amount")
	}
	if r.MaxDailyTransactions <= 0 {
		return fmt.Errorf("max daily transactions must be positive")
	}
	if r.HighFrequencyThreshold <= 0 {
		return fmt.Errorf("high frequency threshold must be positive")
	}
	if r.DateRange.MaxYear < r.DateRange.MinYear {
		return fmt.Errorf("date range max year %d precedes min year %d",
			r.DateRange.MaxYear, r.DateRange.MinYear)
	}
	return nil
}
