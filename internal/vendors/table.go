package vendors

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// headerKeywords mark a statement table's header row. Header rows are
// skipped, never parsed as transactions.
var headerKeywords = []string{
	"DATE", "DESCRIPTION", "WITHDRAWAL", "DEPOSIT", "BALANCE",
	"日期", "項目", "项目", "存入", "支出", "結餘", "结余",
}

// TableExtractor parses line-oriented statement tables, the format ZA
// Bank, Mox and most PDF statement exports share. Each row carries a
// date, a description and one to three trailing amount columns. Three
// columns mean withdrawal, deposit and balance; which of the first two
// is non-zero decides the direction.
type TableExtractor struct {
	rowPattern  *regexp.Regexp
	lineAmounts *regexp.Regexp
}

// NewTableExtractor creates the statement-table extractor.
func NewTableExtractor() *TableExtractor {
	return &TableExtractor{
		rowPattern: regexp.MustCompile(
			`^\s*(\d{4}[-/]\d{2}[-/]\d{2}|\d{1,2}[-/]\d{1,2}(?:[-/]\d{4})?|\d{1,2}\s+[A-Za-z]{3}(?:\s+\d{4})?|\d{1,2}月\d{1,2}日)\s+(.+?)((?:\s+-?[\d,]+\.\d{2}){1,3})\s*$`),
		lineAmounts: regexp.MustCompile(`-?[\d,]+\.\d{2}`),
	}
}

// Tag implements Extractor.
func (e *TableExtractor) Tag() string { return "table" }

// Matches implements Extractor. As the catch-all it fires whenever the
// text contains a table header or at least one parseable row.
func (e *TableExtractor) Matches(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if isHeaderRow(line) || e.rowPattern.MatchString(line) {
			return true
		}
	}
	return false
}

// Extract implements Extractor.
func (e *TableExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	year := blockYear(block)

	var txns []models.Transaction
	for _, line := range strings.Split(block.Text, "\n") {
		if isHeaderRow(line) {
			continue
		}
		m := e.rowPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		amounts := e.lineAmounts.FindAllString(m[3], -1)
		amount, direction, ok := resolveColumns(amounts, m[2])
		if !ok {
			continue
		}

		row := block
		row.Date = normalize.DateInYear(m[1], year)
		txns = append(txns, buildTransaction(row, m[2], amount, models.CurrencyHKD, direction))
	}
	return txns
}

// creditRowKeywords mark a statement row as money coming in when the
// columns alone cannot tell.
var creditRowKeywords = []string{
	"DEPOSIT", "PAYMENT", "存入", "入賬", "入账", "轉入", "转入",
}

// debitRowKeywords mark a statement row as money going out.
var debitRowKeywords = []string{
	"WITHDRAWAL", "DEBIT", "支出", "付款",
}

// resolveColumns interprets the trailing amount columns of a row. With
// fewer than three columns the description keywords decide the
// direction; a negative amount is always a debit.
func resolveColumns(raw []string, description string) (amount decimal.Decimal, direction models.Direction, ok bool) {
	switch len(raw) {
	case 3:
		// withdrawal, deposit, balance
		withdrawal, wok := normalize.Amount(raw[0])
		deposit, dok := normalize.Amount(raw[1])
		if wok && !withdrawal.IsZero() {
			return withdrawal, models.DirectionDebit, true
		}
		if dok && !deposit.IsZero() {
			return deposit, models.DirectionCredit, true
		}
		return amount, direction, false
	case 2:
		// amount, balance
		a, aok := normalize.Amount(raw[0])
		if !aok || a.IsZero() {
			return amount, direction, false
		}
		if a.IsNegative() {
			return a.Neg(), models.DirectionDebit, true
		}
		if dir, found := rowDirection(description); found {
			return a, dir, true
		}
		return a, models.DirectionCredit, true
	case 1:
		a, aok := normalize.Amount(raw[0])
		if !aok || a.IsZero() {
			return amount, direction, false
		}
		if a.IsNegative() {
			return a.Neg(), models.DirectionDebit, true
		}
		if dir, found := rowDirection(description); found {
			return a, dir, true
		}
		return a, models.DirectionDebit, true
	}
	return amount, direction, false
}

// rowDirection infers the direction from description keywords. The
// boolean reports whether any keyword matched.
func rowDirection(description string) (models.Direction, bool) {
	upper := strings.ToUpper(description)
	for _, keyword := range creditRowKeywords {
		if strings.Contains(upper, keyword) {
			return models.DirectionCredit, true
		}
	}
	for _, keyword := range debitRowKeywords {
		if strings.Contains(upper, keyword) {
			return models.DirectionDebit, true
		}
	}
	return "", false
}

func isHeaderRow(line string) bool {
	upper := strings.ToUpper(line)
	hits := 0
	for _, keyword := range headerKeywords {
		if strings.Contains(upper, keyword) {
			hits++
		}
		if hits >= 2 {
			return true
		}
	}
	return false
}

// blockYear resolves the year used for yearless row dates, preferring
// the block's own date over the wall clock.
func blockYear(block models.RawTextBlock) int {
	if normalized := normalize.Date(block.Date); len(normalized) >= 4 {
		if year, err := strconv.Atoi(normalized[:4]); err == nil && year > 1900 {
			return year
		}
	}
	return time.Now().Year()
}
