package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"statement-extraction-service/internal/models"
	pkgerrors "statement-extraction-service/pkg/errors"
	"statement-extraction-service/pkg/logger"
)

// scanState is the engine's per-page cursor state. skip-one is entered
// immediately after a strategy consumes two lines: the following line was
// already swallowed as the paired-date continuation and must not be
// matched again.
type scanState int

const (
	stateScanning scanState = iota
	stateSkipOne
)

// ParseStats summarizes one document's reconstruction pass
type ParseStats struct {
	PagesProcessed  int            `json:"pages_processed"`
	LinesScanned    int            `json:"lines_scanned"`
	BlankLines      int            `json:"blank_lines"`
	RecordsEmitted  int            `json:"records_emitted"`
	UnmatchedStarts int            `json:"unmatched_starts"`
	StrategyWins    map[string]int `json:"strategy_wins"`
	Duration        time.Duration  `json:"duration"`
}

// NewParseStats creates an empty stats accumulator
func NewParseStats() *ParseStats {
	return &ParseStats{StrategyWins: make(map[string]int)}
}

// String returns a human-readable summary of the parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Scanned %d lines on %d pages, emitted %d records (%d unmatched candidates) in %v",
		ps.LinesScanned, ps.PagesProcessed, ps.RecordsEmitted, ps.UnmatchedStarts, ps.Duration)
}

// Result is the outcome of reconstructing one document
type Result struct {
	Records  []*models.TransactionRecord `json:"records"`
	Currency models.Currency             `json:"currency"`
	Stats    *ParseStats                 `json:"stats"`
	// LineErrors lists candidate transaction lines no strategy accepted.
	// They are diagnostics, not failures: the engine moved past them.
	LineErrors []*pkgerrors.LineError `json:"-"`
}

// documentState holds all state scoped to one document's processing
// lifetime. It is created at the start of ProcessDocument and discarded
// at the end; nothing here is shared across documents.
type documentState struct {
	records        []*models.TransactionRecord
	currency       models.Currency
	currencyFrozen bool
	stats          *ParseStats
	errors         *pkgerrors.LineErrorCollector
	page           int
	path           string
}

// append records a strategy win and accumulates the record. Emitting the
// first record freezes currency detection for the rest of the document.
func (st *documentState) append(record *models.TransactionRecord, strategy string) {
	st.records = append(st.records, record)
	st.stats.RecordsEmitted++
	st.stats.StrategyWins[strategy]++
	if !st.currencyFrozen {
		st.currency = models.DefaultCurrency()
		st.currencyFrozen = true
	}
}

// Engine drives per-document, per-page line streams through the format
// strategies in priority order. An Engine is stateless across documents
// and safe to reuse; all mutable state lives in the per-document context.
type Engine struct {
	config     *Config
	fields     *FieldExtractor
	classifier *Classifier
	strategies []Strategy
	issuers    []IssuerBundle
	logger     logger.Logger
}

// New creates a reconstruction engine from the given configuration
func New(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "engine", nil, err)
	}

	fields := NewFieldExtractor(config)
	classifier := NewClassifier(fields)

	log := logger.GetGlobalLogger().WithComponent("engine")
	log.WithFields(logger.Fields{
		"date_formats":         len(config.DateFormats),
		"transaction_patterns": len(config.TransactionPatterns),
		"min_narrative_length": config.MinNarrativeLength,
	}).Debug("Created reconstruction engine")

	return &Engine{
		config:     config,
		fields:     fields,
		classifier: classifier,
		strategies: DefaultStrategies(config, fields, classifier),
		issuers:    []IssuerBundle{NewPNBBundle(config)},
		logger:     log,
	}, nil
}

// Classifier exposes the engine's line classifier
func (e *Engine) Classifier() *Classifier {
	return e.classifier
}

// Fields exposes the engine's field extractor
func (e *Engine) Fields() *FieldExtractor {
	return e.fields
}

// ProcessDocument reconstructs all transaction records from a document's
// line stream. Pages are processed in order; the accumulated record
// sequence and the detected currency carry across pages. A document that
// yields no transaction-start lines produces an empty record sequence,
// not an error. Cancellation is checked between pages only; the inner
// line loop is suspension-free.
func (e *Engine) ProcessDocument(ctx context.Context, doc *models.Document) (*Result, error) {
	if doc == nil {
		return nil, pkgerrors.New(pkgerrors.CategoryInternal, pkgerrors.CodeUnexpectedError, "document cannot be nil")
	}

	start := time.Now()
	log := e.logger.WithDocument(doc.Path)
	log.WithField("pages", len(doc.Pages)).Info("Reconstructing transactions")

	st := &documentState{
		currency: models.DefaultCurrency(),
		stats:    NewParseStats(),
		errors:   pkgerrors.NewLineErrorCollector(0),
		path:     doc.Path,
	}

	for pageNum, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.CodeUnexpectedError, "document processing cancelled")
		}

		st.page = pageNum + 1
		st.stats.PagesProcessed++

		if bundle := e.issuerFor(doc, page); bundle != nil {
			log.WithFields(logger.Fields{
				"page":   st.page,
				"issuer": bundle.Name(),
			}).Info("Dispatching page to issuer bundle")
			bundle.ParsePage(st, page)
			continue
		}

		e.scanPage(st, page)
	}

	st.stats.Duration = time.Since(start)
	log.WithFields(logger.Fields{
		"records":  st.stats.RecordsEmitted,
		"currency": st.currency.Code,
		"duration": st.stats.Duration.String(),
	}).Info("Reconstruction complete")

	if st.stats.RecordsEmitted == 0 {
		log.Warn("No transactions found in document")
	}

	return &Result{
		Records:    st.records,
		Currency:   st.currency,
		Stats:      st.stats,
		LineErrors: st.errors.GetErrors(),
	}, nil
}

// issuerFor returns the dedicated bundle claiming this page, or nil for
// the default cascade. An explicit issuer hint on the document wins over
// filename and page-text detection.
func (e *Engine) issuerFor(doc *models.Document, page models.Page) IssuerBundle {
	for _, bundle := range e.issuers {
		if doc.IssuerHint != "" && bundle.Matches(doc.IssuerHint, nil) {
			return bundle
		}
		if bundle.Matches(doc.Path, page) {
			return bundle
		}
	}
	return nil
}

// scanPage runs the scanning/skip-one state machine over one page
func (e *Engine) scanPage(st *documentState, page models.Page) {
	state := stateScanning

	for i := 0; i < len(page); i++ {
		if state == stateSkipOne {
			// The line was already consumed as a paired-date continuation.
			state = stateScanning
			continue
		}

		line := page[i]
		st.stats.LinesScanned++
		if line.IsBlank() {
			st.stats.BlankLines++
			continue
		}

		if !st.currencyFrozen {
			if currency, ok := e.fields.DetectCurrency(line.Text); ok {
				st.currency = currency
				st.currencyFrozen = true
				e.logger.WithFields(logger.Fields{
					"currency": currency.Code,
					"symbol":   currency.Symbol,
				}).Info("Detected document currency")
			}
		}

		matched := false
		for _, strategy := range e.strategies {
			record, consumed, ok := strategy.Try(page, i)
			if !ok {
				continue
			}
			if record.Validate() != nil {
				// A record without a resolvable date never leaves the engine.
				continue
			}

			st.append(record, strategy.Name())
			e.logger.WithFields(logger.Fields{
				"strategy": strategy.Name(),
				"line":     line.Index,
				"date":     record.DateString(),
				"amount":   record.Amount.String(),
			}).Debug("Strategy matched")

			if consumed == 2 {
				state = stateSkipOne
			}
			matched = true
			break
		}

		if !matched && e.classifier.ClassifyLine(line) == LineTransactionStart {
			st.stats.UnmatchedStarts++
			st.errors.Add(pkgerrors.UnmatchedLineError(st.path, st.page, line.Index, truncateLine(line.Text)))
		}
	}
}

// truncateLine caps line content carried in diagnostics
func truncateLine(text string) string {
	const max = 120
	if len(text) <= max {
		return text
	}
	return strings.TrimSpace(text[:max]) + "..."
}
