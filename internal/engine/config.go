// Package engine implements the transaction reconstruction engine: the
// cascading multi-strategy line parser that turns ordered sequences of raw
// statement text lines into transaction records.
//
// The engine works line by line with limited lookahead. Each candidate line
// is offered to an ordered list of format strategies, from the most
// specific bank layout down to a permissive numeric scan; the first
// strategy to succeed wins and short-circuits the rest. Lines that no
// strategy accepts degrade to "no match" instead of corrupting downstream
// records.
//
// Components:
//   - FieldExtractor: stateless date/amount/balance helpers (fields.go)
//   - Classifier: transaction-start / continuation / noise decisions (classify.go)
//   - Strategy implementations: the cascade itself (strategies.go)
//   - Issuer bundles: per-issuer classify/extend contracts (issuers.go)
//   - Engine: the scanning/skip-one state machine (engine.go)
package engine

import (
	"fmt"
	"regexp"

	"statement-extraction-service/internal/models"
)

// Config holds the pattern tables the engine parses with. All lists are
// ordered: earlier entries win over later ones.
type Config struct {
	// DateFormats are Go time layouts tried in order when parsing a date
	// token. Ambiguous strings resolve against the earliest matching
	// layout.
	DateFormats []string `json:"date_formats"`

	// DatePatterns locate date-shaped tokens inside a line. Kept in the
	// same priority order as DateFormats.
	DatePatterns []string `json:"date_patterns"`

	// AmountPatterns locate amount-shaped tokens, most specific first.
	AmountPatterns []string `json:"amount_patterns"`

	// TransactionPatterns are the generic cascading line templates, most
	// specific first. Each template must expose named capture groups; see
	// DefaultTransactionPatterns for the recognized group names.
	TransactionPatterns []string `json:"transaction_patterns"`

	// Currencies is the detection table, in priority order.
	Currencies []models.Currency `json:"currencies"`

	// MinNarrativeLength is the threshold below which a captured narrative
	// triggers multi-line continuation scanning.
	MinNarrativeLength int `json:"min_narrative_length"`
}

// DefaultDatePatterns returns the regular expressions used to locate date
// tokens, in the same priority order as models.DefaultDateFormats.
func DefaultDatePatterns() []string {
	return []string{
		`\d{1,2}\s+[A-Za-z]{3}\s+\d{4}`,
		`\d{1,2}-[A-Za-z]{3}-\d{4}`,
		`\d{1,2}/[A-Za-z]{3}/\d{4}`,
		`\d{2}/\d{2}/\d{4}`,
		`\d{2}-\d{2}-\d{4}`,
		`\d{2}\.\d{2}\.\d{4}`,
		`\d{4}-\d{2}-\d{2}`,
		`\d{1,2}\s+[A-Za-z]{3}\s+\d{2}`,
		`\d{1,2}-[A-Za-z]{3}-\d{2}`,
		`\d{1,2}/[A-Za-z]{3}/\d{2}`,
		`\d{2}/\d{2}/\d{2}`,
		`\d{2}-\d{2}-\d{2}`,
	}
}

// DefaultAmountPatterns returns the amount token patterns, most specific
// to least: signed with thousands separators and two decimals, unsigned
// with decimals, integer with separators, bare integer.
func DefaultAmountPatterns() []string {
	return []string{
		`[+-]?[0-9][0-9,]*\.\d{2}`,
		`[+-]?[0-9]+\.[0-9]{2}`,
		`[+-]?[0-9][0-9,]*`,
		`[+-]?[0-9]+`,
	}
}

// DefaultTransactionPatterns returns the generic cascading line templates
// in descending specificity: full layout with reference token, without
// reference, slash-date variant, then split debit/credit column variants.
func DefaultTransactionPatterns() []string {
	return []string{
		// seq, posting date, value date, narrative, reference, signed amount, balance
		`^(?P<seq>\d+)\s+(?P<postdate>\d{1,2}\s+\w{3}\s+\d{4})\s+(?P<date>\d{1,2}\s+\w{3}\s+\d{4})\s+(?P<narrative>.+?)\s+(?P<ref>[A-Z0-9/]+)\s+(?P<amount>[+-]?[0-9][0-9,]*\.\d{2})\s+(?P<balance>[0-9][0-9,]*\.\d{2})$`,
		// same, without the reference token
		`^(?P<seq>\d+)\s+(?P<postdate>\d{1,2}\s+\w{3}\s+\d{4})\s+(?P<date>\d{1,2}\s+\w{3}\s+\d{4})\s+(?P<narrative>.+?)\s+(?P<amount>[+-]?[0-9][0-9,]*\.\d{2})\s+(?P<balance>[0-9][0-9,]*\.\d{2})$`,
		// slash-date variant
		`^(?P<seq>\d+)\s+(?P<postdate>\d{2}/\d{2}/\d{4})\s+(?P<date>\d{2}/\d{2}/\d{4})\s+(?P<narrative>.+?)\s+(?P<amount>[+-]?[0-9][0-9,]*\.\d{2})\s+(?P<balance>[0-9][0-9,]*\.\d{2})$`,
		// single date, split debit/credit columns plus balance
		`^(?P<seq>\d+)\s+(?P<date>\d{1,2}\s+\w{3}\s+\d{4})\s+(?P<narrative>.+?)\s+(?P<ref>[A-Z0-9/]+)\s+(?P<debit>[0-9][0-9,]*\.\d{2})\s+(?P<credit>[0-9][0-9,]*\.\d{2})\s+(?P<balance>[0-9][0-9,]*\.\d{2})$`,
		// single date, debit/credit without a separate balance column
		`^(?P<seq>\d+)\s+(?P<date>\d{1,2}\s+\w{3}\s+\d{4})\s+(?P<narrative>.+?)\s+(?P<ref>[A-Z0-9/]+)\s+(?P<debit>[0-9][0-9,]*\.\d{2})\s+(?P<credit>[0-9][0-9,]*\.\d{2})$`,
	}
}

// DefaultConfig returns the built-in engine configuration
func DefaultConfig() *Config {
	return &Config{
		DateFormats:         models.DefaultDateFormats(),
		DatePatterns:        DefaultDatePatterns(),
		AmountPatterns:      DefaultAmountPatterns(),
		TransactionPatterns: DefaultTransactionPatterns(),
		Currencies:          models.DefaultCurrencies(),
		MinNarrativeLength:  10,
	}
}

// Validate checks that every configured pattern compiles and that the
// ordered lists are non-empty
func (c *Config) Validate() error {
	if len(c.DateFormats) == 0 {
		return fmt.Errorf("at least one date format is required")
	}
	if len(c.DatePatterns) == 0 {
		return fmt.Errorf("at least one date pattern is required")
	}
	if len(c.AmountPatterns) == 0 {
		return fmt.Errorf("at least one amount pattern is required")
	}
	if c.MinNarrativeLength < 0 {
		return fmt.Errorf("min narrative length cannot be negative")
	}

	for _, group := range [][]string{c.DatePatterns, c.AmountPatterns, c.TransactionPatterns} {
		for _, pattern := range group {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
		}
	}

	for _, currency := range c.Currencies {
		if currency.Code == "" || currency.Symbol == "" {
			return fmt.Errorf("currency entries require a code and a symbol")
		}
	}

	return nil
}
