// Package process orchestrates the end-to-end extraction workflow:
// document text extraction, transaction reconstruction, quality fixes,
// validation, and artifact writing. It is the single entry point the CLI
// and the HTTP API share.
package process

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"statement-extraction-service/internal/engine"
	"statement-extraction-service/internal/extractor"
	"statement-extraction-service/internal/models"
	"statement-extraction-service/internal/quality"
	"statement-extraction-service/internal/report"
	"statement-extraction-service/internal/validate"
	pkgerrors "statement-extraction-service/pkg/errors"
	"statement-extraction-service/pkg/logger"
)

// Config wires the per-stage configurations together
type Config struct {
	Extractor *extractor.Config    `json:"extractor"`
	Engine    *engine.Config       `json:"engine"`
	Quality   *quality.Config      `json:"quality"`
	Rules     *validate.Rules      `json:"validation_rules"`
	Report    *report.ReportConfig `json:"report"`

	// OutputDir receives the CSV and validation artifacts.
	OutputDir string `json:"output_dir"`

	// WriteArtifacts disables disk output when false; the API serves
	// results in-memory and never touches the output directory.
	WriteArtifacts bool `json:"write_artifacts"`

	// BankHint forces issuer-specific parsing for every document this
	// processor handles; empty means auto-detect per document.
	BankHint string `json:"bank_hint,omitempty"`
}

// DefaultConfig returns the full default stage configuration
func DefaultConfig() *Config {
	return &Config{
		Extractor:      extractor.DefaultConfig(),
		Engine:         engine.DefaultConfig(),
		Quality:        quality.DefaultConfig(),
		Rules:          validate.DefaultRules(),
		Report:         report.DefaultReportConfig(),
		OutputDir:      "output",
		WriteArtifacts: true,
	}
}

// Validate validates every stage configuration
func (c *Config) Validate() error {
	if c.WriteArtifacts && c.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	for name, v := range map[string]interface{ Validate() error }{
		"extractor":        c.Extractor,
		"engine":           c.Engine,
		"quality":          c.Quality,
		"validation_rules": c.Rules,
		"report":           c.Report,
	} {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid %s configuration: %w", name, err)
		}
	}
	return nil
}

// Step names reported to callbacks, in workflow order
const (
	StepExtract     = "extract_text"
	StepReconstruct = "reconstruct_transactions"
	StepQuality     = "apply_quality_fixes"
	StepValidate    = "validate_records"
	StepArtifacts   = "write_artifacts"
)

const totalSteps = 5

// StepCallback is invoked as each workflow step starts
type StepCallback func(step string, completed, total int)

// Outcome is the complete result of processing one document
type Outcome struct {
	SourcePath   string                      `json:"source_path"`
	Records      []*models.TransactionRecord `json:"records"`
	Currency     models.Currency             `json:"currency"`
	ParseStats   *engine.ParseStats          `json:"parse_stats"`
	QualityStats *quality.Stats              `json:"quality_stats"`
	Validation   *validate.Report            `json:"validation"`
	LineErrors   []*pkgerrors.LineError      `json:"-"`
	CSVPath      string                      `json:"csv_path,omitempty"`
	ReportPath   string                      `json:"report_path,omitempty"`
	Duration     time.Duration               `json:"duration"`
}

// BatchResult aggregates a directory run. Per-file failures do not abort
// the batch; they are collected here instead.
type BatchResult struct {
	Outcomes []*Outcome       `json:"outcomes"`
	Failures map[string]error `json:"-"`
}

// Processor runs the extraction workflow. It is safe for concurrent use:
// all per-document state lives in the Outcome.
type Processor struct {
	config    *Config
	extractor *extractor.Extractor
	engine    *engine.Engine
	pipeline  *quality.Pipeline
	validator *validate.Validator
	generator *report.Generator
	logger    logger.Logger

	callbackMu sync.RWMutex
	callbacks  []StepCallback
}

// NewProcessor creates a processor with all stages configured
func NewProcessor(config *Config) (*Processor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "processor", nil, err)
	}

	ext, err := extractor.NewExtractor(config.Extractor)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(config.Engine)
	if err != nil {
		return nil, err
	}
	pipeline, err := quality.NewPipeline(config.Quality)
	if err != nil {
		return nil, err
	}
	validator, err := validate.NewValidator(config.Rules)
	if err != nil {
		return nil, err
	}
	generator, err := report.NewGenerator(config.Report)
	if err != nil {
		return nil, err
	}

	return &Processor{
		config:    config,
		extractor: ext,
		engine:    eng,
		pipeline:  pipeline,
		validator: validator,
		generator: generator,
		logger:    logger.GetGlobalLogger().WithComponent("processor"),
	}, nil
}

// AddStepCallback registers a callback invoked as workflow steps start
func (p *Processor) AddStepCallback(callback StepCallback) {
	p.callbackMu.Lock()
	defer p.callbackMu.Unlock()
	p.callbacks = append(p.callbacks, callback)
}

func (p *Processor) notifyStep(step string, completed int) {
	p.callbackMu.RLock()
	defer p.callbackMu.RUnlock()
	for _, cb := range p.callbacks {
		cb(step, completed, totalSteps)
	}
}

// ProcessFile runs the full workflow over one document, using the
// configured bank hint if any
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Outcome, error) {
	return p.ProcessFileWithHint(ctx, path, p.config.BankHint)
}

// ProcessFileWithHint runs the full workflow over one document with an
// explicit issuer hint overriding the configured one
func (p *Processor) ProcessFileWithHint(ctx context.Context, path, bankHint string) (*Outcome, error) {
	start := time.Now()
	op := logger.NewOperationLogger("process_statement", p.logger.WithDocument(path))

	op.Step(StepExtract)
	p.notifyStep(StepExtract, 0)
	doc, err := p.extractor.Extract(ctx, path)
	if err != nil {
		op.Error(err, "Text extraction failed")
		return nil, err
	}
	doc.IssuerHint = bankHint

	op.Step(StepReconstruct)
	p.notifyStep(StepReconstruct, 1)
	result, err := p.engine.ProcessDocument(ctx, doc)
	if err != nil {
		op.Error(err, "Transaction reconstruction failed")
		return nil, err
	}

	op.Step(StepQuality)
	p.notifyStep(StepQuality, 2)
	records, qualityStats := p.pipeline.Apply(result.Records, result.Currency)

	op.Step(StepValidate)
	p.notifyStep(StepValidate, 3)
	validation := p.validator.Validate(records, filepath.Base(path))

	outcome := &Outcome{
		SourcePath:   path,
		Records:      records,
		Currency:     result.Currency,
		ParseStats:   result.Stats,
		QualityStats: qualityStats,
		Validation:   validation,
		LineErrors:   result.LineErrors,
	}

	if p.config.WriteArtifacts {
		op.Step(StepArtifacts)
		p.notifyStep(StepArtifacts, 4)
		if err := p.writeArtifacts(outcome); err != nil {
			op.Error(err, "Artifact writing failed")
			return nil, err
		}
	}

	outcome.Duration = time.Since(start)
	op.WithField("records", len(records)).Success("Statement processed")
	return outcome, nil
}

// writeArtifacts writes the CSV and validation report next to each other
// in the output directory
func (p *Processor) writeArtifacts(outcome *Outcome) error {
	if err := os.MkdirAll(p.config.OutputDir, 0o755); err != nil {
		return pkgerrors.FileError(pkgerrors.CodeDirectoryError, p.config.OutputDir, err).
			WithSuggestion("Check output directory permissions")
	}

	csvPath := report.TransactionsCSVPath(p.config.OutputDir, outcome.SourcePath)
	if err := p.generator.SaveTransactionsCSV(outcome.Records, outcome.Currency, csvPath); err != nil {
		return err
	}
	outcome.CSVPath = csvPath

	reportPath := report.ValidationReportPath(p.config.OutputDir, outcome.SourcePath)
	if err := p.generator.SaveValidationReport(outcome.Validation, reportPath); err != nil {
		return err
	}
	outcome.ReportPath = reportPath

	return nil
}

// ProcessDirectory runs the workflow over every statement in a directory.
// One failing document does not abort the batch: its error is recorded
// and the remaining documents still process.
func (p *Processor) ProcessDirectory(ctx context.Context, dir string) (*BatchResult, error) {
	paths, err := statementPaths(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, pkgerrors.FileError(pkgerrors.CodeFileNotFound, dir, nil).
			WithSuggestion("Place .pdf or .txt statements in the directory")
	}

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "process_directory",
		Total:     int64(len(paths)),
		Logger:    p.logger,
	})

	batch := &BatchResult{Failures: make(map[string]error)}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			tracker.CompleteWithError(err)
			return batch, pkgerrors.Wrap(err, pkgerrors.CategoryInternal, pkgerrors.CodeUnexpectedError, "batch processing cancelled")
		}

		outcome, err := p.ProcessFile(ctx, path)
		if err != nil {
			p.logger.WithDocument(path).WithError(err).Error("Statement processing failed")
			batch.Failures[path] = err
		} else {
			batch.Outcomes = append(batch.Outcomes, outcome)
		}
		tracker.Increment()
	}
	tracker.Complete()

	return batch, nil
}

// statementPaths lists the processable documents in a directory, sorted
// for deterministic batch order
func statementPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, pkgerrors.FileError(pkgerrors.CodeDirectoryError, dir, err).
			WithSuggestion("Check that the directory exists and is readable")
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".pdf", ".txt":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
