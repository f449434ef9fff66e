package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the canonical textual form for transaction dates in all
// outputs (CSV, JSON, reports).
const DateLayout = "2006-01-02"

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	// TransactionTypeDebit represents a debit transaction (negative amount)
	TransactionTypeDebit TransactionType = "DEBIT"
	// TransactionTypeCredit represents a credit transaction (positive amount)
	TransactionTypeCredit TransactionType = "CREDIT"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeDebit || t == TransactionTypeCredit
}

// RawLine is a single physical line of extracted statement text, carrying
// its 0-indexed position within the page. RawLines are ephemeral parsing
// input and are never persisted.
type RawLine struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// IsBlank returns true if the line contains no visible text
func (l RawLine) IsBlank() bool {
	return strings.TrimSpace(l.Text) == ""
}

// TransactionRecord is the unit of output: one reconstructed statement
// transaction. Amount is signed (negative for debits, positive for
// credits). Balance is the running balance as stated by the source and is
// carried through unmodified.
type TransactionRecord struct {
	TransactionDate time.Time       `json:"transactionDate"`
	Narrative       string          `json:"narrative"`
	Amount          decimal.Decimal `json:"amount"`
	Balance         decimal.Decimal `json:"balance"`
	CurrencySymbol  string          `json:"currencySymbol"`
}

// NewTransactionRecord creates a new TransactionRecord instance
func NewTransactionRecord(date time.Time, narrative string, amount, balance decimal.Decimal) *TransactionRecord {
	return &TransactionRecord{
		TransactionDate: date,
		Narrative:       narrative,
		Amount:          amount,
		Balance:         balance,
	}
}

// Validate checks that the record is keepable. A record without a resolved
// transaction date is discarded before it ever reaches the quality
// pipeline; that gate lives here.
func (r *TransactionRecord) Validate() error {
	if r.TransactionDate.IsZero() {
		return fmt.Errorf("transaction date is unresolved")
	}
	return nil
}

// DateString returns the transaction date in canonical form
func (r *TransactionRecord) DateString() string {
	if r.TransactionDate.IsZero() {
		return ""
	}
	return r.TransactionDate.Format(DateLayout)
}

// Type returns the transaction direction derived from the amount sign
func (r *TransactionRecord) Type() TransactionType {
	if r.Amount.IsNegative() {
		return TransactionTypeDebit
	}
	return TransactionTypeCredit
}

// IsDebit returns true if the record represents a debit (negative amount)
func (r *TransactionRecord) IsDebit() bool {
	return r.Amount.IsNegative()
}

// IsCredit returns true if the record represents a credit (positive amount)
func (r *TransactionRecord) IsCredit() bool {
	return r.Amount.IsPositive()
}

// AbsoluteAmount returns the magnitude of the transaction amount
func (r *TransactionRecord) AbsoluteAmount() decimal.Decimal {
	return r.Amount.Abs()
}

// String returns a string representation of the TransactionRecord
func (r *TransactionRecord) String() string {
	return fmt.Sprintf("TransactionRecord{Date: %s, Narrative: %q, Amount: %s, Balance: %s}",
		r.DateString(), r.Narrative, r.Amount.String(), r.Balance.String())
}

// MarshalJSON implements custom JSON marshaling for TransactionRecord
func (r *TransactionRecord) MarshalJSON() ([]byte, error) {
	type Alias TransactionRecord
	return json.Marshal(&struct {
		TransactionDate string `json:"transactionDate"`
		Amount          string `json:"amount"`
		Balance         string `json:"balance"`
		*Alias
	}{
		TransactionDate: r.DateString(),
		Amount:          r.Amount.String(),
		Balance:         r.Balance.String(),
		Alias:           (*Alias)(r),
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for TransactionRecord
func (r *TransactionRecord) UnmarshalJSON(data []byte) error {
	type Alias TransactionRecord
	aux := &struct {
		TransactionDate string `json:"transactionDate"`
		Amount          string `json:"amount"`
		Balance         string `json:"balance"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	var err error
	if aux.TransactionDate != "" {
		r.TransactionDate, err = time.Parse(DateLayout, aux.TransactionDate)
		if err != nil {
			return fmt.Errorf("invalid transaction date format: %w", err)
		}
	}

	r.Amount, err = decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}

	r.Balance, err = decimal.NewFromString(aux.Balance)
	if err != nil {
		return fmt.Errorf("invalid balance format: %w", err)
	}

	return nil
}

// Equals compares two TransactionRecord instances for equality
func (r *TransactionRecord) Equals(other *TransactionRecord) bool {
	if other == nil {
		return false
	}

	return r.DateString() == other.DateString() &&
		r.Narrative == other.Narrative &&
		r.Amount.Equal(other.Amount) &&
		r.Balance.Equal(other.Balance) &&
		r.CurrencySymbol == other.CurrencySymbol
}

// Currency describes one recognized currency: its ISO-style code, the
// symbol used in output column headers, and the ordered detection patterns
// searched for in statement text.
type Currency struct {
	Code     string   `json:"code"`
	Symbol   string   `json:"symbol"`
	Patterns []string `json:"patterns"`
}

// DefaultCurrencies returns the built-in currency table in detection
// priority order. The first currency whose pattern matches a data-bearing
// line wins for the whole document.
func DefaultCurrencies() []Currency {
	return []Currency{
		{Code: "INR", Symbol: "₹", Patterns: []string{"₹", "Rs.", "INR"}},
		{Code: "USD", Symbol: "$", Patterns: []string{"$", "USD"}},
		{Code: "EUR", Symbol: "€", Patterns: []string{"€", "EUR"}},
		{Code: "GBP", Symbol: "£", Patterns: []string{"£", "GBP"}},
	}
}

// DefaultCurrency returns the currency assumed when detection never
// succeeds for a document
func DefaultCurrency() Currency {
	return Currency{Code: "INR", Symbol: "₹", Patterns: []string{"₹", "Rs.", "INR"}}
}

// Utility functions for field parsing shared across the engine and pipeline

// DefaultDateFormats returns the ordered list of date layouts tried when
// parsing statement dates. Ordering is significant: ambiguous strings
// resolve against the earliest matching layout, so day-first numeric forms
// come before anything that could shadow them.
func DefaultDateFormats() []string {
	return []string{
		"2 Jan 2006",
		"2-Jan-2006",
		"2/Jan/2006",
		"02/01/2006",
		"02-01-2006",
		"02.01.2006",
		"2006-01-02",
		"2 Jan 06",
		"2-Jan-06",
		"2/Jan/06",
		"02/01/06",
		"02-01-06",
	}
}

// ParseTimeWithFormats attempts to parse a date from string using the given
// layouts in order. With no layouts supplied the default statement layouts
// are used.
func ParseTimeWithFormats(s string, formats ...string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	if len(formats) == 0 {
		formats = DefaultDateFormats()
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// ParseDecimalFromString parses a decimal value from statement text,
// tolerating currency markers and thousands separators
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove currency markers and thousand separators
	for _, marker := range []string{"₹", "Rs.", "$", "€", "£", ","} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")

	if s == "" || s == "-" {
		return decimal.Zero, fmt.Errorf("no numeric content in amount string")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}

	return d, nil
}

// ValidateAmountRange checks if a decimal amount is within the given bounds
func ValidateAmountRange(amount, min, max decimal.Decimal) error {
	if amount.LessThan(min) {
		return fmt.Errorf("amount %s is below minimum allowed %s", amount.String(), min.String())
	}

	if amount.GreaterThan(max) {
		return fmt.Errorf("amount %s exceeds maximum allowed %s", amount.String(), max.String())
	}

	return nil
}

// ValidateDateRange checks if a date falls within the given year range
func ValidateDateRange(date time.Time, minYear, maxYear int) error {
	if date.IsZero() {
		return fmt.Errorf("date is unresolved")
	}

	year := date.Year()
	if year < minYear || year > maxYear {
		return fmt.Errorf("date %s is outside the allowed year range %d-%d",
			date.Format(DateLayout), minYear, maxYear)
	}

	return nil
}
