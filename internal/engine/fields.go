package engine

import (
	"regexp"
	"strings"
	"time"

	"statement-extraction-service/internal/models"

	"github.com/shopspring/decimal"
)

// balanceTokenPattern matches a decimal-with-two-places token; the last
// such token in a line is interpreted as the running balance.
var balanceTokenPattern = regexp.MustCompile(`[+-]?[0-9][0-9,]*\.\d{2}`)

// balanceEndPattern matches a line ending in a balance-shaped token
var balanceEndPattern = regexp.MustCompile(`[0-9][0-9,]*\.\d{2}$`)

// balanceShapePattern matches a balance-shaped token followed by
// whitespace or end of line, the classifier's trailing-balance signal
var balanceShapePattern = regexp.MustCompile(`[0-9][0-9,]*\.\d{2}(\s|$)`)

// FieldExtractor locates dates, amounts, and trailing balance tokens
// inside single lines of statement text. All methods are pure: they share
// no mutable state and return no-match instead of failing, so callers can
// try the next line or the next strategy without special-casing errors.
type FieldExtractor struct {
	dateFormats    []string
	datePatterns   []*regexp.Regexp
	amountPatterns []*regexp.Regexp
	currencies     []models.Currency
}

// NewFieldExtractor compiles the configured pattern tables. Call
// Config.Validate first; invalid patterns are skipped here rather than
// reported.
func NewFieldExtractor(config *Config) *FieldExtractor {
	if config == nil {
		config = DefaultConfig()
	}

	fe := &FieldExtractor{
		dateFormats: config.DateFormats,
		currencies:  config.Currencies,
	}

	for _, pattern := range config.DatePatterns {
		if re, err := regexp.Compile(pattern); err == nil {
			fe.datePatterns = append(fe.datePatterns, re)
		}
	}
	for _, pattern := range config.AmountPatterns {
		if re, err := regexp.Compile(pattern); err == nil {
			fe.amountPatterns = append(fe.amountPatterns, re)
		}
	}

	return fe
}

// FindDate returns the first date token in the text, located with the
// configured patterns in priority order and parsed with the configured
// layouts. The fixed order makes ambiguous strings resolve consistently
// across a document.
func (fe *FieldExtractor) FindDate(text string) (time.Time, bool) {
	for _, re := range fe.datePatterns {
		token := re.FindString(text)
		if token == "" {
			continue
		}
		if t, err := models.ParseTimeWithFormats(token, fe.dateFormats...); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FindDateIndex is FindDate plus the location of the matched token,
// needed by the fallback numeric-scan strategy to slice out the narrative
// span following the date.
func (fe *FieldExtractor) FindDateIndex(text string) (time.Time, int, int, bool) {
	for _, re := range fe.datePatterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		token := text[loc[0]:loc[1]]
		if t, err := models.ParseTimeWithFormats(token, fe.dateFormats...); err == nil {
			return t, loc[0], loc[1], true
		}
	}
	return time.Time{}, 0, 0, false
}

// FindAmount returns the amount in the text, trying templates from most
// specific to least. When a template matches more than once, the LAST
// match is taken: amounts typically trail narratives, and a later
// occurrence is more likely the transaction amount than an embedded
// reference number.
func (fe *FieldExtractor) FindAmount(text string) (decimal.Decimal, bool) {
	for _, re := range fe.amountPatterns {
		matches := re.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		if d, err := models.ParseDecimalFromString(matches[len(matches)-1]); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// FindAmountIndex returns the position of the first amount-shaped token,
// used to bound the narrative span in the numeric-scan strategy.
func (fe *FieldExtractor) FindAmountIndex(text string) (int, bool) {
	for _, re := range fe.amountPatterns {
		loc := re.FindStringIndex(text)
		if loc != nil {
			return loc[0], true
		}
	}
	return 0, false
}

// HasAmount reports whether any amount-shaped token occurs in the text
func (fe *FieldExtractor) HasAmount(text string) bool {
	for _, re := range fe.amountPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// HasDate reports whether any date-shaped token occurs in the text
func (fe *FieldExtractor) HasDate(text string) bool {
	for _, re := range fe.datePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// FindTrailingBalance returns the last signed or unsigned
// decimal-with-two-places token in the line, interpreted as the running
// balance as stated by the source.
func (fe *FieldExtractor) FindTrailingBalance(text string) (decimal.Decimal, bool) {
	matches := balanceTokenPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return decimal.Zero, false
	}
	if d, err := models.ParseDecimalFromString(matches[len(matches)-1]); err == nil {
		return d, true
	}
	return decimal.Zero, false
}

// HasTrailingBalanceShape reports whether the line carries a
// balance-shaped token followed by whitespace or end of line
func (fe *FieldExtractor) HasTrailingBalanceShape(text string) bool {
	return balanceShapePattern.MatchString(text)
}

// EndsWithBalanceShape reports whether the line ends in a balance-shaped
// token, the signal that a continuation candidate is really a
// balance/footer line.
func (fe *FieldExtractor) EndsWithBalanceShape(text string) bool {
	return balanceEndPattern.MatchString(text)
}

// DetectCurrency returns the first configured currency whose detection
// pattern occurs in the text. Detection runs once per document on the
// first data-bearing line; the result is held constant for all records.
func (fe *FieldExtractor) DetectCurrency(text string) (models.Currency, bool) {
	for _, currency := range fe.currencies {
		for _, pattern := range currency.Patterns {
			if strings.Contains(text, pattern) {
				return currency, true
			}
		}
	}
	return models.Currency{}, false
}
