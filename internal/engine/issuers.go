package engine

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"statement-extraction-service/internal/models"

	"github.com/shopspring/decimal"
)

// IssuerBundle is a complete per-issuer parsing contract: how lines are
// classified, how narratives extend, and which strategies apply. The
// general cascade is simply the default bundle; a dedicated bundle can
// swap the whole contract, not just the regex templates.
type IssuerBundle interface {
	Name() string
	// Matches reports whether this bundle should take over the page,
	// judged from the document's filename hint and the page text.
	Matches(filenameHint string, page models.Page) bool
	// ParsePage reconstructs all records from one page, appending to the
	// document state.
	ParsePage(st *documentState, page models.Page)
}

var (
	pnbStartPattern   = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})`)
	pnbAmountPattern  = regexp.MustCompile(`[0-9][0-9,]*\.\d{2}`)
	pnbBalancePattern = regexp.MustCompile(`([0-9][0-9,]*\.\d{2})\s*Cr\.`)
)

// PNBBundle reconstructs Punjab National Bank layouts. The classification
// contract differs from the general cascade: a transaction start is
// recognized solely by a leading DD/MM/YYYY date token, and every line
// until the next date-led line accumulates as narrative continuation for
// the PREVIOUS record. Amount tokens on the start line are assigned
// positionally to withdrawal then deposit; a trailing amount immediately
// followed by the "Cr." marker is the balance and is excluded from the
// positional pool.
type PNBBundle struct {
	dateFormats []string
}

// NewPNBBundle creates the Punjab National Bank issuer bundle
func NewPNBBundle(config *Config) *PNBBundle {
	if config == nil {
		config = DefaultConfig()
	}
	return &PNBBundle{dateFormats: config.DateFormats}
}

// Name identifies the bundle in stats and logs
func (b *PNBBundle) Name() string { return "pnb_grouping" }

// Matches detects PNB statements by filename hint or by the bank's name
// appearing anywhere in the page text
func (b *PNBBundle) Matches(filenameHint string, page models.Page) bool {
	base := strings.ToLower(filepath.Base(filenameHint))
	if strings.Contains(base, "pnb") {
		return true
	}
	for _, line := range page {
		if strings.Contains(strings.ToLower(line.Text), "punjab national bank") {
			return true
		}
	}
	return false
}

// ParsePage runs the date-led grouping parse over the whole page
func (b *PNBBundle) ParsePage(st *documentState, page models.Page) {
	var pending []string
	var last *models.TransactionRecord

	flush := func() {
		if len(pending) > 0 && last != nil {
			fragment := strings.Join(pending, " ")
			last.Narrative = strings.TrimSpace(last.Narrative + " " + fragment)
		}
		pending = pending[:0]
	}

	for _, line := range page {
		st.stats.LinesScanned++
		text := line.Text
		if text == "" {
			st.stats.BlankLines++
			continue
		}

		m := pnbStartPattern.FindStringSubmatch(text)
		if m == nil {
			pending = append(pending, text)
			continue
		}

		date, err := models.ParseTimeWithFormats(m[1], b.dateFormats...)
		if err != nil {
			pending = append(pending, text)
			continue
		}

		flush()

		record := b.buildRecord(date, text)
		st.append(record, b.Name())
		last = record
	}

	flush()
}

// buildRecord assigns the line's amount tokens: balance first (the token
// trailed by "Cr."), then withdrawal and deposit positionally from what
// remains. Amount is the negative of the withdrawal when one is present,
// else the deposit.
func (b *PNBBundle) buildRecord(date time.Time, text string) *models.TransactionRecord {
	balance := decimal.Zero
	balanceStart := -1
	if loc := pnbBalancePattern.FindStringSubmatchIndex(text); loc != nil {
		token := text[loc[2]:loc[3]]
		if d, err := models.ParseDecimalFromString(token); err == nil {
			balance = d
			balanceStart = loc[2]
		}
	}

	var positional []decimal.Decimal
	for _, loc := range pnbAmountPattern.FindAllStringIndex(text, -1) {
		if loc[0] == balanceStart {
			continue
		}
		if d, err := models.ParseDecimalFromString(text[loc[0]:loc[1]]); err == nil {
			positional = append(positional, d)
		}
	}

	amount := decimal.Zero
	switch {
	case len(positional) >= 1 && positional[0].IsPositive():
		amount = positional[0].Neg() // withdrawal column
	case len(positional) >= 2 && positional[1].IsPositive():
		amount = positional[1] // deposit column
	}

	return models.NewTransactionRecord(date, "", amount, balance)
}
