package validate

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"statement-extraction-service/internal/models"

	"github.com/shopspring/decimal"
)

// Check names, in the fixed order the battery runs them
const (
	CheckDataIntegrity = "data_integrity"
	CheckBusinessLogic = "business_logic"
	CheckAmounts       = "amount_validation"
	CheckDates         = "date_validation"
	CheckNarratives    = "narrative_validation"
	CheckBalances      = "balance_validation"
	CheckStatistics    = "statistics"
)

// CheckOrder is the order check results appear in reports
var CheckOrder = []string{
	CheckDataIntegrity,
	CheckBusinessLogic,
	CheckAmounts,
	CheckDates,
	CheckNarratives,
	CheckBalances,
	CheckStatistics,
}

// DataIntegrityResult reports missing required fields
type DataIntegrityResult struct {
	RowCount       int            `json:"row_count"`
	MissingFields  map[string]int `json:"missing_fields"`
	CompleteFields []string       `json:"complete_fields"`
}

// DateRangeStats describes the span of transaction dates
type DateRangeStats struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	SpanDays int    `json:"span_days"`
}

// FrequencyStats describes per-day transaction density
type FrequencyStats struct {
	MaxDaily          int     `json:"max_daily"`
	AvgDaily          float64 `json:"avg_daily"`
	HighFrequencyDays int     `json:"high_frequency_days"`
}

// BusinessLogicResult reports date-range and frequency plausibility
type BusinessLogicResult struct {
	DateRange DateRangeStats `json:"date_range"`
	Frequency FrequencyStats `json:"transaction_frequency"`
}

// AmountStats aggregates the debit and credit totals
type AmountStats struct {
	TotalDebits       int             `json:"total_debits"`
	TotalCredits      int             `json:"total_credits"`
	TotalDebitAmount  decimal.Decimal `json:"total_debit_amount"`
	TotalCreditAmount decimal.Decimal `json:"total_credit_amount"`
	NetAmount         decimal.Decimal `json:"net_amount"`
}

// AmountRange describes the amount distribution
type AmountRange struct {
	Min    decimal.Decimal `json:"min"`
	Max    decimal.Decimal `json:"max"`
	Mean   decimal.Decimal `json:"mean"`
	Median decimal.Decimal `json:"median"`
}

// SuspiciousMatch counts records whose narrative contains a suspicious
// pattern
type SuspiciousMatch struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// AmountValidationResult reports amount aggregates and suspicious hits
type AmountValidationResult struct {
	Stats      AmountStats       `json:"amount_stats"`
	Range      AmountRange       `json:"amount_range"`
	Suspicious []SuspiciousMatch `json:"suspicious_amounts"`
	OutOfRange int               `json:"out_of_range"`
}

// DateValidationResult reports implausible dates
type DateValidationResult struct {
	FutureDates    []string `json:"future_dates"`
	InvalidDates   int      `json:"invalid_dates"`
	OutOfRangeYear int      `json:"out_of_range_year"`
}

// NarrativeStats describes narrative lengths
type NarrativeStats struct {
	AvgLength float64 `json:"avg_length"`
	MinLength int     `json:"min_length"`
	MaxLength int     `json:"max_length"`
}

// NarrativeValidationResult reports narrative completeness
type NarrativeValidationResult struct {
	Stats               NarrativeStats `json:"narrative_stats"`
	EmptyNarratives     int            `json:"empty_narratives"`
	ShortNarratives     int            `json:"short_narratives"`
	DuplicateNarratives int            `json:"duplicate_narratives"`
}

// BalanceValidationResult reports balance plausibility. Findings here are
// advisory: a balance decrease between consecutive records is expected
// whenever a withdrawal posts, so consistency issues are surfaced, never
// enforced.
type BalanceValidationResult struct {
	NegativeBalances   int      `json:"negative_balances"`
	BalanceConsistency bool     `json:"balance_consistency"`
	Issues             []string `json:"balance_issues"`
}

// MonthlyStats aggregates one calendar month
type MonthlyStats struct {
	TransactionCount int             `json:"transaction_count"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AvgAmount        decimal.Decimal `json:"avg_amount"`
	MinAmount        decimal.Decimal `json:"min_amount"`
	MaxAmount        decimal.Decimal `json:"max_amount"`
}

// TransactionSummary is a record reference inside statistics output
type TransactionSummary struct {
	TransactionDate string          `json:"transaction_date"`
	Narrative       string          `json:"narrative"`
	Amount          decimal.Decimal `json:"amount"`
}

// TopTransactions lists the extreme records by signed amount
type TopTransactions struct {
	LargestDebits  []TransactionSummary `json:"largest_debits"`
	LargestCredits []TransactionSummary `json:"largest_credits"`
}

// StatisticsResult is the statistical analysis check output
type StatisticsResult struct {
	MonthlySummary map[string]MonthlyStats `json:"monthly_summary"`
	Top            TopTransactions         `json:"top_transactions"`
}

const shortNarrativeThreshold = 5

func checkDataIntegrity(records []*models.TransactionRecord) (*DataIntegrityResult, []string) {
	result := &DataIntegrityResult{
		RowCount:      len(records),
		MissingFields: make(map[string]int),
	}

	for _, r := range records {
		if r.TransactionDate.IsZero() {
			result.MissingFields["transaction_date"]++
		}
		if r.Narrative == "" {
			result.MissingFields["narrative"]++
		}
		if r.Amount.IsZero() {
			result.MissingFields["amount"]++
		}
	}

	for _, field := range []string{"transaction_date", "narrative", "amount", "balance"} {
		if result.MissingFields[field] == 0 {
			result.CompleteFields = append(result.CompleteFields, field)
		}
	}

	var issues []string
	for field, count := range result.MissingFields {
		issues = append(issues, field+" missing in "+strconv.Itoa(count)+" records")
	}
	sort.Strings(issues)
	return result, issues
}

func checkBusinessLogic(records []*models.TransactionRecord, rules *Rules) (*BusinessLogicResult, []string) {
	result := &BusinessLogicResult{}

	minDate, maxDate := records[0].TransactionDate, records[0].TransactionDate
	daily := make(map[string]int)
	for _, r := range records {
		if r.TransactionDate.Before(minDate) {
			minDate = r.TransactionDate
		}
		if r.TransactionDate.After(maxDate) {
			maxDate = r.TransactionDate
		}
		daily[r.DateString()]++
	}

	result.DateRange = DateRangeStats{
		Start:    minDate.Format(models.DateLayout),
		End:      maxDate.Format(models.DateLayout),
		SpanDays: int(maxDate.Sub(minDate).Hours() / 24),
	}

	maxDaily := 0
	for _, count := range daily {
		if count > maxDaily {
			maxDaily = count
		}
		if count > rules.HighFrequencyThreshold {
			result.Frequency.HighFrequencyDays++
		}
	}
	result.Frequency.MaxDaily = maxDaily
	if len(daily) > 0 {
		result.Frequency.AvgDaily = float64(len(records)) / float64(len(daily))
	}

	var warnings []string
	if maxDaily > rules.MaxDailyTransactions {
		warnings = append(warnings, "daily transaction count "+strconv.Itoa(maxDaily)+
			" exceeds plausible maximum "+strconv.Itoa(rules.MaxDailyTransactions))
	}
	if result.Frequency.HighFrequencyDays > 0 {
		warnings = append(warnings, strconv.Itoa(result.Frequency.HighFrequencyDays)+" high-frequency days detected")
	}
	return result, warnings
}

func checkAmounts(records []*models.TransactionRecord, rules *Rules) (*AmountValidationResult, []string) {
	result := &AmountValidationResult{}

	amounts := make([]decimal.Decimal, 0, len(records))
	for _, r := range records {
		amounts = append(amounts, r.Amount)
		if r.Amount.IsNegative() {
			result.Stats.TotalDebits++
			result.Stats.TotalDebitAmount = result.Stats.TotalDebitAmount.Add(r.Amount)
		} else if r.Amount.IsPositive() {
			result.Stats.TotalCredits++
			result.Stats.TotalCreditAmount = result.Stats.TotalCreditAmount.Add(r.Amount)
		}
		result.Stats.NetAmount = result.Stats.NetAmount.Add(r.Amount)

		abs := r.AbsoluteAmount()
		if abs.LessThan(rules.MinAmount) || abs.GreaterThan(rules.MaxAmount) {
			result.OutOfRange++
		}
	}

	sorted := make([]decimal.Decimal, len(amounts))
	copy(sorted, amounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })
	result.Range = AmountRange{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   decimal.Avg(sorted[0], sorted[1:]...).Round(2),
		Median: median(sorted),
	}

	for _, pattern := range rules.SuspiciousPatterns {
		count := 0
		for _, r := range records {
			if strings.Contains(strings.ToLower(r.Narrative), strings.ToLower(pattern)) {
				count++
			}
		}
		if count > 0 {
			result.Suspicious = append(result.Suspicious, SuspiciousMatch{Pattern: pattern, Count: count})
		}
	}

	var warnings []string
	if result.OutOfRange > 0 {
		warnings = append(warnings, strconv.Itoa(result.OutOfRange)+" amounts outside the plausible range")
	}
	for _, s := range result.Suspicious {
		warnings = append(warnings, "suspicious pattern "+s.Pattern+" matched "+strconv.Itoa(s.Count)+" narratives")
	}
	return result, warnings
}

func checkDates(records []*models.TransactionRecord, rules *Rules, now time.Time) (*DateValidationResult, []string) {
	result := &DateValidationResult{}

	for _, r := range records {
		if r.TransactionDate.IsZero() {
			result.InvalidDates++
			continue
		}
		if r.TransactionDate.After(now) {
			result.FutureDates = append(result.FutureDates, r.DateString())
		}
		year := r.TransactionDate.Year()
		if year < rules.DateRange.MinYear || year > rules.DateRange.MaxYear {
			result.OutOfRangeYear++
		}
	}

	var warnings []string
	if len(result.FutureDates) > 0 {
		warnings = append(warnings, strconv.Itoa(len(result.FutureDates))+" transactions dated in the future")
	}
	if result.InvalidDates > 0 {
		warnings = append(warnings, strconv.Itoa(result.InvalidDates)+" transactions with unresolved dates")
	}
	if result.OutOfRangeYear > 0 {
		warnings = append(warnings, strconv.Itoa(result.OutOfRangeYear)+" transactions dated outside the plausible years")
	}
	return result, warnings
}

func checkNarratives(records []*models.TransactionRecord) (*NarrativeValidationResult, []string) {
	result := &NarrativeValidationResult{}

	seen := make(map[string]bool)
	totalLength := 0
	result.Stats.MinLength = len(records[0].Narrative)
	for _, r := range records {
		length := len(r.Narrative)
		totalLength += length
		if length < result.Stats.MinLength {
			result.Stats.MinLength = length
		}
		if length > result.Stats.MaxLength {
			result.Stats.MaxLength = length
		}
		if r.Narrative == "" {
			result.EmptyNarratives++
		}
		if length < shortNarrativeThreshold {
			result.ShortNarratives++
		}
		if seen[r.Narrative] {
			result.DuplicateNarratives++
		}
		seen[r.Narrative] = true
	}
	result.Stats.AvgLength = float64(totalLength) / float64(len(records))

	var warnings []string
	if result.EmptyNarratives > 0 {
		warnings = append(warnings, strconv.Itoa(result.EmptyNarratives)+" records with empty narratives")
	}
	if result.ShortNarratives > 0 {
		warnings = append(warnings, strconv.Itoa(result.ShortNarratives)+" records with very short narratives")
	}
	return result, warnings
}

func checkBalances(records []*models.TransactionRecord) (*BalanceValidationResult, []string) {
	result := &BalanceValidationResult{BalanceConsistency: true}

	for i, r := range records {
		if r.Balance.IsNegative() {
			result.NegativeBalances++
		}
		if i == 0 {
			continue
		}
		prev := records[i-1].Balance
		if r.Balance.LessThan(prev) && !r.Balance.IsNegative() {
			result.BalanceConsistency = false
			result.Issues = append(result.Issues, "balance decrease at row "+strconv.Itoa(i+1))
		}
	}

	var warnings []string
	if !result.BalanceConsistency {
		warnings = append(warnings, strconv.Itoa(len(result.Issues))+" balance decreases between consecutive records")
	}
	return result, warnings
}

func checkStatistics(records []*models.TransactionRecord) *StatisticsResult {
	result := &StatisticsResult{MonthlySummary: make(map[string]MonthlyStats)}

	byMonth := make(map[string][]decimal.Decimal)
	for _, r := range records {
		month := r.TransactionDate.Format("2006-01")
		byMonth[month] = append(byMonth[month], r.Amount)
	}
	for month, amounts := range byMonth {
		stats := MonthlyStats{TransactionCount: len(amounts)}
		stats.MinAmount, stats.MaxAmount = amounts[0], amounts[0]
		for _, a := range amounts {
			stats.TotalAmount = stats.TotalAmount.Add(a)
			if a.LessThan(stats.MinAmount) {
				stats.MinAmount = a
			}
			if a.GreaterThan(stats.MaxAmount) {
				stats.MaxAmount = a
			}
		}
		stats.AvgAmount = decimal.Avg(amounts[0], amounts[1:]...).Round(2)
		result.MonthlySummary[month] = stats
	}

	bySigned := make([]*models.TransactionRecord, len(records))
	copy(bySigned, records)
	sort.SliceStable(bySigned, func(i, j int) bool {
		return bySigned[i].Amount.LessThan(bySigned[j].Amount)
	})

	for i := 0; i < len(bySigned) && i < 5; i++ {
		result.Top.LargestDebits = append(result.Top.LargestDebits, summarize(bySigned[i]))
	}
	for i := len(bySigned) - 1; i >= 0 && len(result.Top.LargestCredits) < 5; i-- {
		result.Top.LargestCredits = append(result.Top.LargestCredits, summarize(bySigned[i]))
	}

	return result
}

func summarize(r *models.TransactionRecord) TransactionSummary {
	return TransactionSummary{
		TransactionDate: r.DateString(),
		Narrative:       r.Narrative,
		Amount:          r.Amount,
	}
}

// median of an already-sorted slice; the even case averages the two
// middle values
func median(sorted []decimal.Decimal) decimal.Decimal {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return decimal.Avg(sorted[n/2-1], sorted[n/2]).Round(2)
}
