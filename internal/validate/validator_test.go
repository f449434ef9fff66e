package validate

import (
	"strings"
	"testing"
	"time"

	"statement-extraction-service/internal/models"

	"github.com/shopspring/decimal"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator(nil)
	if err != nil {
		t.Fatalf("NewValidator(nil) = %v", err)
	}
	v.now = func() time.Time {
		return time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	}
	return v
}

func testRecord(day int, narrative string, amount, balance float64) *models.TransactionRecord {
	return models.NewTransactionRecord(
		time.Date(2024, time.April, day, 0, 0, 0, 0, time.UTC),
		narrative,
		decimal.NewFromFloat(amount),
		decimal.NewFromFloat(balance),
	)
}

func cleanRecords() []*models.TransactionRecord {
	return []*models.TransactionRecord{
		testRecord(1, "OPENING CREDIT SALARY APRIL", 45000, 45000),
		testRecord(3, "UPI TRANSFER TO GROCERY MART", -850, 44150),
		testRecord(5, "ELECTRICITY BILL PAYMENT ONLINE", -1200, 42950),
		testRecord(8, "INTEREST CREDIT QUARTERLY", 320, 43270),
		testRecord(12, "ATM WITHDRAWAL CITY CENTRE", -2000, 41270),
		testRecord(15, "UPI TRANSFER TO JOHN DOE", -1000, 40270),
		testRecord(18, "NEFT CR CLIENT INVOICE 4451", 15000, 55270),
		testRecord(20, "POS PURCHASE APEX PHARMACY", -640, 54630),
		testRecord(22, "MOBILE RECHARGE PREPAID", -299, 54331),
		testRecord(25, "RENT PAYMENT LANDLORD", -18000, 36331),
	}
}

func TestValidator_Validate_EmptyRecords(t *testing.T) {
	v := newTestValidator(t)

	report := v.Validate(nil, "empty.pdf")

	if report.Summary.OverallStatus != StatusFail {
		t.Errorf("status = %s, want %s", report.Summary.OverallStatus, StatusFail)
	}
	if report.Summary.CriticalIssues != 1 {
		t.Errorf("critical issues = %d, want 1", report.Summary.CriticalIssues)
	}
	if len(report.Errors) != 1 || report.Errors[0] != "no transactions found in file" {
		t.Errorf("errors = %v", report.Errors)
	}
	if report.Checks.DataIntegrity != nil {
		t.Error("no checks should run against an empty record set")
	}
}

func TestValidator_Validate_CleanData(t *testing.T) {
	v := newTestValidator(t)

	report := v.Validate(cleanRecords(), "statement.pdf")

	if report.Summary.OverallStatus != StatusPass {
		t.Errorf("status = %s, want %s (warnings: %v)", report.Summary.OverallStatus, StatusPass, report.Warnings)
	}
	if report.TotalTransactions != 10 {
		t.Errorf("total transactions = %d, want 10", report.TotalTransactions)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %v, want none", report.Errors)
	}

	integrity := report.Checks.DataIntegrity
	if integrity == nil || integrity.RowCount != 10 {
		t.Fatalf("data integrity = %+v", integrity)
	}
	if len(integrity.CompleteFields) != 4 {
		t.Errorf("complete fields = %v, want all four", integrity.CompleteFields)
	}

	business := report.Checks.BusinessLogic
	if business.DateRange.Start != "2024-04-01" || business.DateRange.End != "2024-04-25" {
		t.Errorf("date range = %+v", business.DateRange)
	}
	if business.DateRange.SpanDays != 24 {
		t.Errorf("span days = %d, want 24", business.DateRange.SpanDays)
	}
	if business.Frequency.MaxDaily != 1 {
		t.Errorf("max daily = %d, want 1", business.Frequency.MaxDaily)
	}
}

func TestValidator_Validate_MissingFieldsAreIssues(t *testing.T) {
	v := newTestValidator(t)

	records := cleanRecords()
	records = append(records, models.NewTransactionRecord(
		time.Time{}, "", decimal.Zero, decimal.NewFromInt(100)))

	report := v.Validate(records, "statement.pdf")

	if report.Summary.OverallStatus != StatusWarning {
		t.Errorf("status = %s, want %s", report.Summary.OverallStatus, StatusWarning)
	}
	if len(report.Errors) != 3 {
		t.Fatalf("errors = %v, want transaction_date, narrative and amount findings", report.Errors)
	}
	for _, want := range []string{"transaction_date missing in 1 records", "narrative missing in 1 records", "amount missing in 1 records"} {
		found := false
		for _, got := range report.Errors {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("errors %v missing %q", report.Errors, want)
		}
	}
}

func TestCheckAmounts(t *testing.T) {
	result, warnings := checkAmounts(cleanRecords(), DefaultRules())

	if result.Stats.TotalDebits != 7 || result.Stats.TotalCredits != 3 {
		t.Errorf("debits/credits = %d/%d, want 7/3", result.Stats.TotalDebits, result.Stats.TotalCredits)
	}
	if result.Stats.TotalDebitAmount.StringFixed(2) != "-23989.00" {
		t.Errorf("total debit amount = %s, want -23989.00", result.Stats.TotalDebitAmount.StringFixed(2))
	}
	if result.Stats.TotalCreditAmount.StringFixed(2) != "60320.00" {
		t.Errorf("total credit amount = %s, want 60320.00", result.Stats.TotalCreditAmount.StringFixed(2))
	}
	if result.Stats.NetAmount.StringFixed(2) != "36331.00" {
		t.Errorf("net amount = %s, want 36331.00", result.Stats.NetAmount.StringFixed(2))
	}
	if result.Range.Min.StringFixed(2) != "-18000.00" || result.Range.Max.StringFixed(2) != "45000.00" {
		t.Errorf("range = [%s, %s]", result.Range.Min.StringFixed(2), result.Range.Max.StringFixed(2))
	}
	// Even count: the median averages the two middle signed amounts.
	if result.Range.Median.StringFixed(2) != "-745.00" {
		t.Errorf("median = %s, want -745.00", result.Range.Median.StringFixed(2))
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestCheckAmounts_SuspiciousPatterns(t *testing.T) {
	records := cleanRecords()
	records = append(records, testRecord(26, "TEST TRANSACTION PLACEHOLDER", -50, 36281))

	result, warnings := checkAmounts(records, DefaultRules())

	if len(result.Suspicious) != 2 {
		t.Fatalf("suspicious = %+v, want test and placeholder hits", result.Suspicious)
	}
	joined := strings.Join(warnings, "; ")
	if !strings.Contains(joined, "suspicious pattern test") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestCheckDates(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	records := []*models.TransactionRecord{
		testRecord(1, "NORMAL TRANSACTION ONE", -100, 900),
		models.NewTransactionRecord(
			time.Date(2031, time.January, 1, 0, 0, 0, 0, time.UTC),
			"FAR FUTURE TRANSACTION", decimal.NewFromInt(-100), decimal.NewFromInt(800)),
		models.NewTransactionRecord(
			time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC),
			"ANCIENT TRANSACTION", decimal.NewFromInt(-100), decimal.NewFromInt(700)),
	}

	result, warnings := checkDates(records, DefaultRules(), now)

	if len(result.FutureDates) != 1 || result.FutureDates[0] != "2031-01-01" {
		t.Errorf("future dates = %v", result.FutureDates)
	}
	// 2031 is both future and past the plausible year ceiling; 2015 is
	// below the floor.
	if result.OutOfRangeYear != 2 {
		t.Errorf("out-of-range years = %d, want 2", result.OutOfRangeYear)
	}
	if len(warnings) != 2 {
		t.Errorf("warnings = %v, want future-date and year-range findings", warnings)
	}
}

func TestCheckNarratives(t *testing.T) {
	records := []*models.TransactionRecord{
		testRecord(1, "UPI TRANSFER TO JOHN DOE", -100, 900),
		testRecord(2, "UPI TRANSFER TO JOHN DOE", -100, 800),
		testRecord(3, "FEE", -10, 790),
	}

	result, warnings := checkNarratives(records)

	if result.DuplicateNarratives != 1 {
		t.Errorf("duplicates = %d, want 1", result.DuplicateNarratives)
	}
	if result.ShortNarratives != 1 {
		t.Errorf("short narratives = %d, want 1", result.ShortNarratives)
	}
	if result.Stats.MinLength != 3 || result.Stats.MaxLength != 24 {
		t.Errorf("lengths = [%d, %d]", result.Stats.MinLength, result.Stats.MaxLength)
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want the short-narrative finding", warnings)
	}
}

func TestCheckBalances(t *testing.T) {
	t.Run("Monotonic balances are consistent", func(t *testing.T) {
		records := []*models.TransactionRecord{
			testRecord(1, "CREDIT ONE", 100, 1000),
			testRecord(2, "CREDIT TWO", 100, 1100),
		}
		result, warnings := checkBalances(records)
		if !result.BalanceConsistency {
			t.Error("BalanceConsistency = false, want true")
		}
		if len(warnings) != 0 {
			t.Errorf("warnings = %v", warnings)
		}
	})

	t.Run("Decrease is advisory, not an error", func(t *testing.T) {
		records := []*models.TransactionRecord{
			testRecord(1, "CREDIT", 100, 1000),
			testRecord(2, "WITHDRAWAL", -100, 900),
		}
		result, warnings := checkBalances(records)
		if result.BalanceConsistency {
			t.Error("BalanceConsistency = true, want false")
		}
		if len(result.Issues) != 1 || result.Issues[0] != "balance decrease at row 2" {
			t.Errorf("issues = %v", result.Issues)
		}
		if len(warnings) != 1 {
			t.Errorf("warnings = %v, want one", warnings)
		}
	})

	t.Run("Negative balances counted but not flagged as decreases", func(t *testing.T) {
		records := []*models.TransactionRecord{
			testRecord(1, "WITHDRAWAL", -500, 100),
			testRecord(2, "OVERDRAFT", -500, -400),
		}
		result, _ := checkBalances(records)
		if result.NegativeBalances != 1 {
			t.Errorf("negative balances = %d, want 1", result.NegativeBalances)
		}
		if !result.BalanceConsistency {
			t.Error("overdraft rows are excluded from the decrease heuristic")
		}
	})
}

func TestCheckStatistics(t *testing.T) {
	result := checkStatistics(cleanRecords())

	monthly, ok := result.MonthlySummary["2024-04"]
	if !ok {
		t.Fatalf("monthly summary = %v, want a 2024-04 bucket", result.MonthlySummary)
	}
	if monthly.TransactionCount != 10 {
		t.Errorf("monthly count = %d, want 10", monthly.TransactionCount)
	}
	if monthly.MinAmount.StringFixed(2) != "-18000.00" || monthly.MaxAmount.StringFixed(2) != "45000.00" {
		t.Errorf("monthly min/max = %s/%s", monthly.MinAmount.StringFixed(2), monthly.MaxAmount.StringFixed(2))
	}

	if len(result.Top.LargestDebits) != 5 || len(result.Top.LargestCredits) != 5 {
		t.Fatalf("top lists = %d debits, %d credits, want 5 each",
			len(result.Top.LargestDebits), len(result.Top.LargestCredits))
	}
	if result.Top.LargestDebits[0].Narrative != "RENT PAYMENT LANDLORD" {
		t.Errorf("largest debit = %q", result.Top.LargestDebits[0].Narrative)
	}
	if result.Top.LargestCredits[0].Narrative != "OPENING CREDIT SALARY APRIL" {
		t.Errorf("largest credit = %q", result.Top.LargestCredits[0].Narrative)
	}
}

func TestSummaryRecommendations(t *testing.T) {
	v := newTestValidator(t)

	t.Run("Low transaction count", func(t *testing.T) {
		records := cleanRecords()[:3]
		report := v.Validate(records, "statement.pdf")
		found := false
		for _, rec := range report.Summary.Recommendations {
			if strings.Contains(rec, "Low transaction count") {
				found = true
			}
		}
		if !found {
			t.Errorf("recommendations = %v, want a low-count hint", report.Summary.Recommendations)
		}
	})

	t.Run("Ten clean records need no recommendations", func(t *testing.T) {
		report := v.Validate(cleanRecords(), "statement.pdf")
		if len(report.Summary.Recommendations) != 0 {
			t.Errorf("recommendations = %v, want none", report.Summary.Recommendations)
		}
	})
}

func TestChecks_Ordered(t *testing.T) {
	v := newTestValidator(t)
	report := v.Validate(cleanRecords(), "statement.pdf")

	ordered := report.Checks.Ordered()
	if len(ordered) != len(CheckOrder) {
		t.Fatalf("got %d ordered checks, want %d", len(ordered), len(CheckOrder))
	}
	for i, check := range ordered {
		if check.Name != CheckOrder[i] {
			t.Errorf("check %d = %s, want %s", i, check.Name, CheckOrder[i])
		}
		if check.Result == nil {
			t.Errorf("check %s has a nil result", check.Name)
		}
	}
}
