package engine

import (
	"regexp"
	"strings"

	"statement-extraction-service/internal/models"

	"github.com/shopspring/decimal"
)

// Strategy is one self-contained heuristic for turning a line (or line
// pair) into a transaction record. Try reports the record, the number of
// lines consumed, and whether the strategy matched at all. Strategies
// never partially populate a record: the result is complete or no-match.
type Strategy interface {
	Name() string
	Try(page models.Page, idx int) (*models.TransactionRecord, int, bool)
}

var (
	// date TYPE narrative amount balance, with the value date and a
	// narrative fragment on the following line in parentheses
	pairedLookaheadLine1 = regexp.MustCompile(`^(\d{1,2}-\w{3}-\d{2,4})\s+(TO|BY)\s+(.+?)\s+([0-9][0-9,]*\.\d{2})\s+([+-]?[0-9][0-9,]*\.\d{2})$`)
	pairedLookaheadLine2 = regexp.MustCompile(`^\((\d{1,2}-\w{3}-\d{2,4})\)\s*(.*)$`)

	// posting date (value date) narrative reference debit credit balance,
	// all on one line; "-" is the empty-column placeholder
	pairedCompleteLine = regexp.MustCompile(`^(\d{1,2}-\w{3}-\d{2,4})\s*\((\d{1,2}-\w{3}-\d{2,4})\)\s+(.+?)\s+([\w/-]+)\s+([0-9][0-9,]*\.\d{2}|-)\s+([0-9][0-9,]*\.\d{2}|-)\s+([+-]?[0-9][0-9,]*\.\d{2})$`)

	leadingSequencePattern = regexp.MustCompile(`^\d+`)
)

// strategyContext bundles the shared collaborators every strategy needs
type strategyContext struct {
	fields             *FieldExtractor
	classifier         *Classifier
	minNarrativeLength int
}

// extendNarrative extends a narrative fragment across following lines.
// It stops without consuming the moment the next line is a new
// transaction start, or carries an amount-shaped token and ends in a
// balance shape (a balance/footer line); otherwise the line's text is
// space-joined onto the narrative.
func (sc *strategyContext) extendNarrative(page models.Page, idx int, narrative string) string {
	for j := idx + 1; j < len(page); j++ {
		text := page[j].Text
		if sc.classifier.Classify(text) == LineTransactionStart {
			break
		}
		if sc.fields.HasAmount(text) && sc.fields.EndsWithBalanceShape(text) {
			break
		}
		if text != "" {
			narrative += " " + text
		}
	}
	return strings.TrimSpace(narrative)
}

// needsContinuation reports whether a captured narrative looks truncated:
// shorter than the configured minimum, or ending in a hyphen
func (sc *strategyContext) needsContinuation(narrative string) bool {
	return len(narrative) < sc.minNarrativeLength || strings.HasSuffix(narrative, "-")
}

// PairedDateLookaheadStrategy parses the two-line paired-date layout:
// the start line carries the posting date, a TO/BY direction marker, a
// narrative fragment, the amount, and the balance; the following line, if
// present, carries the value date in parentheses plus a trailing
// narrative fragment to merge. A successful lookahead consumes two lines.
type PairedDateLookaheadStrategy struct {
	ctx *strategyContext
}

// Name identifies the strategy in stats and logs
func (s *PairedDateLookaheadStrategy) Name() string { return "paired_date_lookahead" }

// Try attempts the paired-date two-line parse at the given cursor
func (s *PairedDateLookaheadStrategy) Try(page models.Page, idx int) (*models.TransactionRecord, int, bool) {
	m := pairedLookaheadLine1.FindStringSubmatch(page[idx].Text)
	if m == nil {
		return nil, 0, false
	}

	date, err := models.ParseTimeWithFormats(m[1], s.ctx.fields.dateFormats...)
	if err != nil {
		return nil, 0, false
	}
	amount, err := models.ParseDecimalFromString(m[4])
	if err != nil {
		return nil, 0, false
	}
	balance, err := models.ParseDecimalFromString(m[5])
	if err != nil {
		return nil, 0, false
	}

	narrative := m[2] + " " + strings.TrimSpace(m[3])
	consumed := 1

	// Exactly one line of lookahead: a parenthesized value date plus
	// trailing narrative fragment.
	if idx+1 < len(page) {
		if m2 := pairedLookaheadLine2.FindStringSubmatch(page[idx+1].Text); m2 != nil {
			if fragment := strings.TrimSpace(m2[2]); fragment != "" {
				narrative += " " + fragment
			}
			consumed = 2
		}
	}

	record := models.NewTransactionRecord(date, narrative, amount, balance)
	return record, consumed, true
}

// PairedDateCompleteStrategy parses the single-line paired-date layout
// with separate debit/credit/balance columns. The signed amount is the
// negative of the debit column when it holds a value, else the credit
// column, else zero; "-" marks an empty column.
type PairedDateCompleteStrategy struct {
	ctx *strategyContext
}

// Name identifies the strategy in stats and logs
func (s *PairedDateCompleteStrategy) Name() string { return "paired_date_complete" }

// Try attempts the single-line debit/credit parse at the given cursor
func (s *PairedDateCompleteStrategy) Try(page models.Page, idx int) (*models.TransactionRecord, int, bool) {
	m := pairedCompleteLine.FindStringSubmatch(page[idx].Text)
	if m == nil {
		return nil, 0, false
	}

	date, err := models.ParseTimeWithFormats(m[1], s.ctx.fields.dateFormats...)
	if err != nil {
		return nil, 0, false
	}
	balance, err := models.ParseDecimalFromString(m[7])
	if err != nil {
		return nil, 0, false
	}

	debit, credit := m[5], m[6]
	amount := decimal.Zero
	switch {
	case debit != "-":
		d, err := models.ParseDecimalFromString(debit)
		if err != nil {
			return nil, 0, false
		}
		amount = d.Neg()
	case credit != "-":
		d, err := models.ParseDecimalFromString(credit)
		if err != nil {
			return nil, 0, false
		}
		amount = d
	}

	record := models.NewTransactionRecord(date, strings.TrimSpace(m[3]), amount, balance)
	return record, 1, true
}

// GenericCascadeStrategy tries the configured generic line templates in
// descending specificity. A record is produced only when a date, a
// numeric amount, and a numeric balance all resolve from the match; any
// one missing is a strategy failure, never a partial record.
type GenericCascadeStrategy struct {
	ctx       *strategyContext
	templates []*genericTemplate
}

type genericTemplate struct {
	re     *regexp.Regexp
	groups map[string]int
}

func newGenericTemplate(pattern string) (*genericTemplate, bool) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	groups := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			groups[name] = i
		}
	}
	if _, ok := groups["date"]; !ok {
		return nil, false
	}
	return &genericTemplate{re: re, groups: groups}, true
}

func (t *genericTemplate) group(m []string, name string) (string, bool) {
	i, ok := t.groups[name]
	if !ok || i >= len(m) {
		return "", false
	}
	return m[i], true
}

// NewGenericCascadeStrategy compiles the configured templates, dropping
// any that fail to compile or lack a date group
func NewGenericCascadeStrategy(ctx *strategyContext, patterns []string) *GenericCascadeStrategy {
	s := &GenericCascadeStrategy{ctx: ctx}
	for _, pattern := range patterns {
		if t, ok := newGenericTemplate(pattern); ok {
			s.templates = append(s.templates, t)
		}
	}
	return s
}

// Name identifies the strategy in stats and logs
func (s *GenericCascadeStrategy) Name() string { return "generic_cascade" }

// Try attempts each template in order against the line at the cursor
func (s *GenericCascadeStrategy) Try(page models.Page, idx int) (*models.TransactionRecord, int, bool) {
	line := page[idx].Text

	for _, t := range s.templates {
		m := t.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		dateStr, _ := t.group(m, "date")
		date, err := models.ParseTimeWithFormats(dateStr, s.ctx.fields.dateFormats...)
		if err != nil {
			continue
		}

		narrative := ""
		if narr, ok := t.group(m, "narrative"); ok {
			narrative = strings.TrimSpace(narr)
			if s.ctx.needsContinuation(narrative) {
				narrative = s.ctx.extendNarrative(page, idx, narrative)
			}
		}

		amount, ok := s.resolveAmount(t, m)
		if !ok {
			continue
		}

		balance, ok := s.ctx.fields.FindTrailingBalance(line)
		if !ok {
			continue
		}

		record := models.NewTransactionRecord(date, narrative, amount, balance)
		return record, 1, true
	}

	return nil, 0, false
}

// resolveAmount derives the signed amount from either the explicit amount
// group or the split debit/credit columns
func (s *GenericCascadeStrategy) resolveAmount(t *genericTemplate, m []string) (decimal.Decimal, bool) {
	if amountStr, ok := t.group(m, "amount"); ok {
		d, err := models.ParseDecimalFromString(amountStr)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}

	debitStr, hasDebit := t.group(m, "debit")
	creditStr, hasCredit := t.group(m, "credit")
	if hasDebit {
		if d, err := models.ParseDecimalFromString(debitStr); err == nil && d.IsPositive() {
			return d.Neg(), true
		}
	}
	if hasCredit {
		if d, err := models.ParseDecimalFromString(creditStr); err == nil && d.IsPositive() {
			return d, true
		}
	}
	return decimal.Zero, false
}

// NumericScanStrategy is the most permissive fallback, tried last. It
// applies only to lines opening with a bare sequence number: the first
// date occurrence anywhere in the line becomes the transaction date, the
// narrative is the span between that date and the first amount-shaped
// token, and the amount and trailing balance are extracted independently
// from the whole line.
type NumericScanStrategy struct {
	ctx *strategyContext
}

// Name identifies the strategy in stats and logs
func (s *NumericScanStrategy) Name() string { return "numeric_scan" }

// Try attempts the permissive whole-line scan at the given cursor
func (s *NumericScanStrategy) Try(page models.Page, idx int) (*models.TransactionRecord, int, bool) {
	line := page[idx].Text
	if !leadingSequencePattern.MatchString(line) {
		return nil, 0, false
	}

	date, _, dateEnd, ok := s.ctx.fields.FindDateIndex(line)
	if !ok {
		return nil, 0, false
	}

	rest := line[dateEnd:]
	narrativeEnd := len(rest)
	if pos, ok := s.ctx.fields.FindAmountIndex(rest); ok {
		narrativeEnd = pos
	}
	narrative := strings.TrimSpace(rest[:narrativeEnd])
	if s.ctx.needsContinuation(narrative) {
		narrative = s.ctx.extendNarrative(page, idx, narrative)
	}

	amount, ok := s.ctx.fields.FindAmount(line)
	if !ok {
		return nil, 0, false
	}
	balance, ok := s.ctx.fields.FindTrailingBalance(line)
	if !ok {
		return nil, 0, false
	}

	record := models.NewTransactionRecord(date, narrative, amount, balance)
	return record, 1, true
}

// DefaultStrategies returns the strategy cascade in its fixed priority
// order: paired-date lookahead, paired-date complete, generic templates,
// numeric scan. Ordering from most specific to most permissive is the
// dominant correctness lever: it keeps a permissive pattern from silently
// swallowing a line that a stricter pattern would parse properly.
func DefaultStrategies(config *Config, fields *FieldExtractor, classifier *Classifier) []Strategy {
	ctx := &strategyContext{
		fields:             fields,
		classifier:         classifier,
		minNarrativeLength: config.MinNarrativeLength,
	}
	return []Strategy{
		&PairedDateLookaheadStrategy{ctx: ctx},
		&PairedDateCompleteStrategy{ctx: ctx},
		NewGenericCascadeStrategy(ctx, config.TransactionPatterns),
		&NumericScanStrategy{ctx: ctx},
	}
}
