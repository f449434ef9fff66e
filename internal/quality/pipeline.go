// Package quality post-processes reconstructed transaction records:
// column normalization, narrative cleanup, suspicious-record removal, and
// date standardization. Stages are total over the record sequence and run
// in a fixed order; each stage is a fixed point, so re-running the
// pipeline on its own output changes nothing.
//
// Balance is never recalculated or cross-checked against amount deltas
// here; that reconciliation is advisory-only and lives in the validation
// engine.
package quality

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"statement-extraction-service/internal/models"
	"statement-extraction-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds the quality pipeline thresholds
type Config struct {
	// MinAmount and MaxAmount bound the absolute amount; records outside
	// the bounds are treated as parse noise and dropped.
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`

	// MinNarrativeLength is the cleaned-narrative length below which a
	// record is dropped.
	MinNarrativeLength int `json:"min_narrative_length"`
}

// DefaultConfig returns the built-in thresholds: amounts between 1.0 and
// one billion, narratives of at least 3 characters
func DefaultConfig() *Config {
	return &Config{
		MinAmount:          decimal.NewFromInt(1),
		MaxAmount:          decimal.NewFromInt(1_000_000_000),
		MinNarrativeLength: 3,
	}
}

// Validate validates the pipeline configuration
func (c *Config) Validate() error {
	if c.MinAmount.IsNegative() {
		return fmt.Errorf("min amount cannot be negative")
	}
	if c.MaxAmount.LessThanOrEqual(c.MinAmount) {
		return fmt.Errorf("max amount must exceed min amount")
	}
	if c.MinNarrativeLength < 0 {
		return fmt.Errorf("min narrative length cannot be negative")
	}
	return nil
}

// Stats reports what each stage did to the record sequence
type Stats struct {
	Input          int            `json:"input"`
	Output         int            `json:"output"`
	DroppedByStage map[string]int `json:"dropped_by_stage"`
}

// Dropped returns the total number of records removed by the pipeline
func (s *Stats) Dropped() int {
	return s.Input - s.Output
}

// Pipeline applies the quality stages in their fixed order
type Pipeline struct {
	config *Config
	logger logger.Logger
}

// NewPipeline creates a quality pipeline with the given thresholds
func NewPipeline(config *Config) (*Pipeline, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid quality configuration: %w", err)
	}

	return &Pipeline{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("quality"),
	}, nil
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// leading runs of digits are artifacts of sequence-number capture
	leadingDigitRuns = regexp.MustCompile(`^[0-9]+(\s+[0-9]+)*\s*`)
	// conservative allow-list for narrative characters
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9_\s./-]`)
)

// Apply runs all stages over the record sequence, preserving relative
// order, and stamps every surviving record with the detected currency
// symbol. The input slice is not modified.
func (p *Pipeline) Apply(records []*models.TransactionRecord, currency models.Currency) ([]*models.TransactionRecord, *Stats) {
	stats := &Stats{
		Input:          len(records),
		DroppedByStage: make(map[string]int),
	}

	cleaned := p.normalizeColumns(records, currency)
	cleaned = p.cleanNarratives(cleaned, stats)
	cleaned = p.filterSuspicious(cleaned, stats)
	cleaned = p.standardizeDates(cleaned, stats)

	stats.Output = len(cleaned)
	p.logger.WithFields(logger.Fields{
		"input":   stats.Input,
		"output":  stats.Output,
		"dropped": stats.Dropped(),
	}).Info("Quality pipeline completed")

	return cleaned, stats
}

// normalizeColumns ensures a fixed output shape regardless of which
// strategy produced each record: every record carries the document
// currency symbol used in the output amount column header.
func (p *Pipeline) normalizeColumns(records []*models.TransactionRecord, currency models.Currency) []*models.TransactionRecord {
	out := make([]*models.TransactionRecord, 0, len(records))
	for _, r := range records {
		copied := *r
		copied.CurrencySymbol = currency.Symbol
		out = append(out, &copied)
	}
	return out
}

// cleanNarratives collapses whitespace, strips leading digit runs, and
// removes characters outside the allow-list. Records whose cleaned
// narrative is shorter than the minimum are parse noise, not valid
// zero-narrative transactions, and are dropped.
func (p *Pipeline) cleanNarratives(records []*models.TransactionRecord, stats *Stats) []*models.TransactionRecord {
	out := records[:0]
	for _, r := range records {
		r.Narrative = CleanNarrative(r.Narrative)
		if len(r.Narrative) < p.config.MinNarrativeLength {
			stats.DroppedByStage["narrative_cleanup"]++
			continue
		}
		out = append(out, r)
	}
	return out
}

// CleanNarrative normalizes a single narrative string. Exposed so tests
// and the validation engine share the exact cleanup semantics.
func CleanNarrative(text string) string {
	text = disallowedChars.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	text = leadingDigitRuns.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// filterSuspicious drops records whose absolute amount falls outside the
// configured bounds, and records with unresolved dates
func (p *Pipeline) filterSuspicious(records []*models.TransactionRecord, stats *Stats) []*models.TransactionRecord {
	out := records[:0]
	for _, r := range records {
		abs := r.AbsoluteAmount()
		if abs.LessThan(p.config.MinAmount) || abs.GreaterThan(p.config.MaxAmount) {
			stats.DroppedByStage["suspicious_amount"]++
			continue
		}
		if r.TransactionDate.IsZero() {
			stats.DroppedByStage["suspicious_amount"]++
			continue
		}
		out = append(out, r)
	}
	return out
}

// standardizeDates truncates all surviving dates to their calendar day in
// UTC so they render in the canonical form; records whose date is still
// unresolved at this stage are dropped
func (p *Pipeline) standardizeDates(records []*models.TransactionRecord, stats *Stats) []*models.TransactionRecord {
	out := records[:0]
	for _, r := range records {
		if r.TransactionDate.IsZero() {
			stats.DroppedByStage["date_standardization"]++
			continue
		}
		y, m, d := r.TransactionDate.Date()
		r.TransactionDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		out = append(out, r)
	}
	return out
}
