// Package generate produces synthetic bank statement text for testing
// and demos. The output mimics the three statement layouts the
// reconstruction engine understands: the two-line paired-date layout, the
// numbered generic table layout, and the PNB date-led grouping layout.
package generate

import (
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Layout selects the statement shape to generate
type Layout string

const (
	LayoutPaired  Layout = "paired"
	LayoutGeneric Layout = "generic"
	LayoutPNB     Layout = "pnb"
)

// IsValid checks if the layout is supported
func (l Layout) IsValid() bool {
	switch l {
	case LayoutPaired, LayoutGeneric, LayoutPNB:
		return true
	default:
		return false
	}
}

// Config controls statement generation
type Config struct {
	Layout Layout `json:"layout"`

	// Count is the number of transactions to generate.
	Count int `json:"count"`

	// Seed makes generation reproducible.
	Seed int64 `json:"seed"`

	// StartDate is the first transaction date; subsequent transactions
	// advance zero to two days each.
	StartDate time.Time `json:"start_date"`

	// OpeningBalance seeds the running balance.
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// DefaultConfig returns a reproducible default generation setup
func DefaultConfig() *Config {
	return &Config{
		Layout:         LayoutGeneric,
		Count:          25,
		Seed:           42,
		StartDate:      time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC),
		OpeningBalance: decimal.NewFromInt(50_000),
	}
}

// Validate validates the generation configuration
func (c *Config) Validate() error {
	if !c.Layout.IsValid() {
		return fmt.Errorf("invalid layout: %s", c.Layout)
	}
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("start date cannot be zero")
	}
	return nil
}

// Generator produces synthetic statement text
type Generator struct {
	config *Config
	rng    *rand.Rand
}

// NewGenerator creates a generator from the given configuration
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator configuration: %w", err)
	}
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}, nil
}

var payees = []string{
	"JOHN DOE", "ACME STORES", "CITY ELECTRIC", "RAMESH KUMAR",
	"GROCERY MART", "METRO FUELS", "PRIYA SHARMA", "OFFICE CANTEEN",
	"BOOK DEPOT", "APEX PHARMACY",
}

var creditNarratives = []string{
	"SALARY CREDIT", "NEFT CR FROM EMPLOYER", "INTEREST CREDIT",
	"REFUND FROM MERCHANT", "IMPS CR",
}

// transaction is one generated row before layout rendering
type transaction struct {
	date      time.Time
	narrative string
	amount    decimal.Decimal
	balance   decimal.Decimal
	reference string
}

// Generate renders a complete statement in the configured layout
func (g *Generator) Generate() string {
	txns := g.transactions()

	var b strings.Builder
	g.writeHeader(&b)
	switch g.config.Layout {
	case LayoutPaired:
		g.renderPaired(&b, txns)
	case LayoutPNB:
		g.renderPNB(&b, txns)
	default:
		g.renderGeneric(&b, txns)
	}
	return b.String()
}

// WriteFile writes the generated statement to path
func (g *Generator) WriteFile(path string) error {
	return os.WriteFile(path, []byte(g.Generate()), 0o644)
}

// transactions builds the row sequence with a consistent running balance
func (g *Generator) transactions() []transaction {
	txns := make([]transaction, 0, g.config.Count)
	date := g.config.StartDate
	balance := g.config.OpeningBalance

	for i := 0; i < g.config.Count; i++ {
		var narrative string
		var amount decimal.Decimal

		if g.rng.Intn(4) == 0 {
			narrative = creditNarratives[g.rng.Intn(len(creditNarratives))]
			amount = decimal.NewFromInt(int64(500 + g.rng.Intn(45_000)))
		} else {
			payee := payees[g.rng.Intn(len(payees))]
			narrative = fmt.Sprintf("UPI TRANSFER TO %s", payee)
			amount = decimal.NewFromInt(int64(10 + g.rng.Intn(5_000))).Neg()
		}

		balance = balance.Add(amount)
		txns = append(txns, transaction{
			date:      date,
			narrative: narrative,
			amount:    amount,
			balance:   balance,
			reference: fmt.Sprintf("REF%06d", 100_000+g.rng.Intn(900_000)),
		})

		date = date.AddDate(0, 0, g.rng.Intn(3))
	}
	return txns
}

func (g *Generator) writeHeader(b *strings.Builder) {
	bank := "STATE BANK STATEMENT"
	if g.config.Layout == LayoutPNB {
		bank = "Punjab National Bank"
	}
	fmt.Fprintf(b, "%s\n", bank)
	fmt.Fprintf(b, "Account Number: %010d\n", 1_000_000_000+g.rng.Intn(900_000_000))
	fmt.Fprintf(b, "Branch: MAIN BRANCH\n")
	fmt.Fprintf(b, "IFSC: DEMO0001234\n")
	fmt.Fprintf(b, "\n")
}

// renderGeneric writes the numbered table layout: sequence number,
// transaction date, value date, narrative, reference, amount, balance
func (g *Generator) renderGeneric(b *strings.Builder, txns []transaction) {
	fmt.Fprintf(b, "# Transaction Date Value Date Narrative Reference Amount Balance\n")
	for i, t := range txns {
		dateStr := t.date.Format("2 Jan 2006")
		fmt.Fprintf(b, "%d %s %s %s %s %s %s\n",
			i+1, dateStr, dateStr, t.narrative, t.reference,
			grouped(t.amount.Abs()), grouped(t.balance))
	}
}

// renderPaired writes the two-line paired-date layout: the start line
// carries posting date, TO/BY marker, narrative fragment, amount, and
// balance; the second line carries the parenthesized value date and the
// rest of the narrative
func (g *Generator) renderPaired(b *strings.Builder, txns []transaction) {
	for _, t := range txns {
		marker := "TO"
		if t.amount.IsPositive() {
			marker = "BY"
		}
		fmt.Fprintf(b, "%s %s %s %s %s\n",
			t.date.Format("2-Jan-06"), marker, t.narrative,
			grouped(t.amount.Abs()), grouped(t.balance))
		fmt.Fprintf(b, "(%s) %s\n", t.date.Format("2-Jan-2006"), t.reference)
	}
}

// renderPNB writes the date-led grouping layout: each start line carries
// the DD/MM/YYYY date, withdrawal and deposit columns, and the balance
// with the Cr. marker; the narration follows on its own line
func (g *Generator) renderPNB(b *strings.Builder, txns []transaction) {
	for _, t := range txns {
		withdrawal, deposit := "0.00", "0.00"
		if t.amount.IsNegative() {
			withdrawal = grouped(t.amount.Abs())
		} else {
			deposit = grouped(t.amount)
		}
		fmt.Fprintf(b, "%s %s %s %s Cr.\n",
			t.date.Format("02/01/2006"), withdrawal, deposit, grouped(t.balance))
		fmt.Fprintf(b, "%s %s\n", t.narrative, t.reference)
	}
}

// grouped formats a decimal with comma thousand separators and two
// decimal places, the way statements print amounts
func grouped(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]

	var parts []string
	for len(whole) > 3 {
		parts = append([]string{whole[len(whole)-3:]}, parts...)
		whole = whole[:len(whole)-3]
	}
	parts = append([]string{whole}, parts...)

	out := strings.Join(parts, ",") + frac
	if neg {
		out = "-" + out
	}
	return out
}
