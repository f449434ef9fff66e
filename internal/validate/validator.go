package validate

import (
	"time"

	"statement-extraction-service/internal/models"
	"statement-extraction-service/pkg/logger"

	pkgerrors "statement-extraction-service/pkg/errors"
)

// Overall report statuses
const (
	StatusPass    = "PASS"
	StatusWarning = "WARNING"
	StatusFail    = "FAIL"
)

// Checks holds every check's typed result
type Checks struct {
	DataIntegrity *DataIntegrityResult       `json:"data_integrity"`
	BusinessLogic *BusinessLogicResult       `json:"business_logic"`
	Amounts       *AmountValidationResult    `json:"amount_validation"`
	Dates         *DateValidationResult      `json:"date_validation"`
	Narratives    *NarrativeValidationResult `json:"narrative_validation"`
	Balances      *BalanceValidationResult   `json:"balance_validation"`
	Statistics    *StatisticsResult          `json:"statistics"`
}

// NamedCheck pairs a check name with its result for ordered rendering
type NamedCheck struct {
	Name   string
	Result interface{}
}

// Ordered returns the check results in their fixed battery order,
// skipping checks that did not run
func (c *Checks) Ordered() []NamedCheck {
	var out []NamedCheck
	add := func(name string, result interface{}, ran bool) {
		if ran {
			out = append(out, NamedCheck{Name: name, Result: result})
		}
	}
	add(CheckDataIntegrity, c.DataIntegrity, c.DataIntegrity != nil)
	add(CheckBusinessLogic, c.BusinessLogic, c.BusinessLogic != nil)
	add(CheckAmounts, c.Amounts, c.Amounts != nil)
	add(CheckDates, c.Dates, c.Dates != nil)
	add(CheckNarratives, c.Narratives, c.Narratives != nil)
	add(CheckBalances, c.Balances, c.Balances != nil)
	add(CheckStatistics, c.Statistics, c.Statistics != nil)
	return out
}

// Summary is the rolled-up verdict over all checks
type Summary struct {
	OverallStatus   string   `json:"overall_status"`
	TotalIssues     int      `json:"total_issues"`
	CriticalIssues  int      `json:"critical_issues"`
	Warnings        int      `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

// Report is the full validation output for one document
type Report struct {
	FileName          string    `json:"file_name"`
	GeneratedAt       time.Time `json:"timestamp"`
	TotalTransactions int       `json:"total_transactions"`
	Checks            *Checks   `json:"checks"`
	Warnings          []string  `json:"warnings"`
	Errors            []string  `json:"errors"`
	Summary           *Summary  `json:"summary"`
}

// Validator runs the validation battery. It is stateless and safe to
// reuse across documents.
type Validator struct {
	rules  *Rules
	logger logger.Logger
	now    func() time.Time
}

// NewValidator creates a validator with the given rules
func NewValidator(rules *Rules) (*Validator, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if err := rules.Validate(); err != nil {
		return nil, pkgerrors.ConfigurationError(pkgerrors.CodeInvalidConfig, "validation_rules", nil, err)
	}

	return &Validator{
		rules:  rules,
		logger: logger.GetGlobalLogger().WithComponent("validate"),
		now:    time.Now,
	}, nil
}

// Validate runs every check over the record sequence and rolls the
// findings into a report. Validation is read-only: it never mutates the
// records, and a failing report does not fail extraction.
func (v *Validator) Validate(records []*models.TransactionRecord, fileName string) *Report {
	report := &Report{
		FileName:          fileName,
		GeneratedAt:       v.now(),
		TotalTransactions: len(records),
		Checks:            &Checks{},
		Summary:           &Summary{OverallStatus: StatusPass},
	}

	if len(records) == 0 {
		report.Errors = append(report.Errors, "no transactions found in file")
		report.Summary.CriticalIssues = 1
		report.Summary.TotalIssues = 1
		report.Summary.OverallStatus = StatusFail
		v.logger.WithDocument(fileName).Warn("Validation ran against an empty record set")
		return report
	}

	var issues, warnings []string

	integrity, integrityIssues := checkDataIntegrity(records)
	report.Checks.DataIntegrity = integrity
	issues = append(issues, integrityIssues...)

	business, businessWarnings := checkBusinessLogic(records, v.rules)
	report.Checks.BusinessLogic = business
	warnings = append(warnings, businessWarnings...)

	amounts, amountWarnings := checkAmounts(records, v.rules)
	report.Checks.Amounts = amounts
	warnings = append(warnings, amountWarnings...)

	dates, dateWarnings := checkDates(records, v.rules, v.now())
	report.Checks.Dates = dates
	warnings = append(warnings, dateWarnings...)

	narratives, narrativeWarnings := checkNarratives(records)
	report.Checks.Narratives = narratives
	warnings = append(warnings, narrativeWarnings...)

	balances, balanceWarnings := checkBalances(records)
	report.Checks.Balances = balances
	warnings = append(warnings, balanceWarnings...)

	report.Checks.Statistics = checkStatistics(records)

	report.Errors = issues
	report.Warnings = warnings
	report.Summary = v.summarize(report)

	v.logger.WithDocument(fileName).WithFields(logger.Fields{
		"status":   report.Summary.OverallStatus,
		"issues":   report.Summary.TotalIssues,
		"warnings": report.Summary.Warnings,
	}).Info("Validation completed")

	return report
}

// summarize rolls check findings into the overall verdict: FAIL when any
// critical issue exists, WARNING when any issue exists, PASS otherwise
func (v *Validator) summarize(report *Report) *Summary {
	summary := &Summary{
		OverallStatus: StatusPass,
		TotalIssues:   len(report.Errors),
		Warnings:      len(report.Warnings),
	}

	switch {
	case summary.CriticalIssues > 0:
		summary.OverallStatus = StatusFail
	case summary.TotalIssues > 0:
		summary.OverallStatus = StatusWarning
	}

	if report.TotalTransactions < 10 {
		summary.Recommendations = append(summary.Recommendations,
			"Low transaction count - verify extraction completeness")
	}
	if summary.Warnings > 5 {
		summary.Recommendations = append(summary.Recommendations,
			"Multiple warnings detected - review data quality")
	}

	return summary
}
