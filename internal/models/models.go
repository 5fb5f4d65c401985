// Package models defines the core data structures for extracted
// transactions and reconciliation results.
package models

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 style currency code.
type Currency string

const (
	CurrencyHKD Currency = "HKD"
	CurrencyUSD Currency = "USD"
	CurrencyCNY Currency = "CNY"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
)

// SupportedCurrencies lists every currency the pipeline accepts.
var SupportedCurrencies = []Currency{
	CurrencyHKD, CurrencyUSD, CurrencyCNY, CurrencyEUR, CurrencyGBP, CurrencyJPY,
}

// ParseCurrency normalizes a raw currency token to a Currency.
// Vendor aliases such as RMB and US$ map onto their canonical codes.
// The boolean reports whether the token was recognized.
func ParseCurrency(raw string) (Currency, bool) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	switch token {
	case "RMB", "人民幣":
		token = "CNY"
	case "US$":
		token = "USD"
	case "HK$":
		token = "HKD"
	}
	for _, c := range SupportedCurrencies {
		if string(c) == token {
			return c, true
		}
	}
	return "", false
}

// IsValid reports whether c is one of the canonical supported codes.
// Aliases like RMB or US$ are not valid Currency values; they must go
// through ParseCurrency first.
func (c Currency) IsValid() bool {
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return true
		}
	}
	return false
}

// Direction indicates whether money moved out of or into the account.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// SourceTag identifies where a transaction was extracted from.
const (
	SourceTagEmail  = "email"
	SourceTagPDF    = "pdf"
	SourceTagMerged = "email+pdf"
)

// MaxDescriptionLength bounds transaction descriptions, counted in
// runes so truncation never splits a multi-byte character.
const MaxDescriptionLength = 80

// Transaction is a single extracted financial transaction.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    Currency        `json:"currency"`
	Direction   Direction       `json:"direction"`
	Category    string          `json:"category"`
	SourceFile  string          `json:"sourceFile"`
	SourceTag   string          `json:"sourceTag"`
}

// ContentID derives the deterministic identity of a transaction from
// its date, description, amount and currency. Two extractions of the
// same underlying transaction always produce the same ID.
func ContentID(date, description string, amount decimal.Decimal, currency Currency) string {
	payload := fmt.Sprintf("%s|%s|%s|%s",
		date, description, amount.StringFixed(2), currency)
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])[:12]
}

// AssignID computes and sets the transaction's content-derived ID.
func (t *Transaction) AssignID() {
	t.ID = ContentID(t.Date, t.Description, t.Amount, t.Currency)
}

// TruncateDescription trims the description to the maximum length.
// Truncation happens on rune boundaries so CJK descriptions stay valid
// UTF-8 and survive a JSON round trip unchanged.
func (t *Transaction) TruncateDescription() {
	if runes := []rune(t.Description); len(runes) > MaxDescriptionLength {
		t.Description = string(runes[:MaxDescriptionLength])
	}
}

// transactionJSON mirrors Transaction with the amount as a string so
// decimal values survive a round trip without float drift.
type transactionJSON struct {
	ID          string    `json:"id"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Currency    Currency  `json:"currency"`
	Direction   Direction `json:"direction"`
	Category    string    `json:"category"`
	SourceFile  string    `json:"sourceFile"`
	SourceTag   string    `json:"sourceTag"`
}

// MarshalJSON implements custom JSON marshaling for Transaction.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Date:        t.Date,
		Description: t.Description,
		Amount:      t.Amount.StringFixed(2),
		Currency:    t.Currency,
		Direction:   t.Direction,
		Category:    t.Category,
		SourceFile:  t.SourceFile,
		SourceTag:   t.SourceTag,
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var aux transactionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(aux.Amount)
	if err != nil {
		return fmt.Errorf("failed to parse amount '%s': %w", aux.Amount, err)
	}

	t.ID = aux.ID
	t.Date = aux.Date
	t.Description = aux.Description
	t.Amount = amount
	t.Currency = aux.Currency
	t.Direction = aux.Direction
	t.Category = aux.Category
	t.SourceFile = aux.SourceFile
	t.SourceTag = aux.SourceTag
	return nil
}

// RawTextBlock is a unit of source text handed to the extraction
// pipeline, typically one email body or one PDF page.
type RawTextBlock struct {
	Source string
	Text   string
	Date   string
}

// ReconciliationResult is the persisted outcome of merging the email
// and statement record sets for one period.
type ReconciliationResult struct {
	PeriodKey    string        `json:"periodKey"`
	EmailCount   int           `json:"emailCount"`
	PDFCount     int           `json:"pdfCount"`
	MergedCount  int           `json:"mergedCount"`
	PDFOnlyCount int           `json:"pdfOnlyCount"`
	Transactions []Transaction `json:"transactions"`
	GeneratedAt  time.Time     `json:"generatedAt"`
}

var periodKeyPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ValidatePeriodKey checks that a period key has the YYYY-MM form
// with a real month.
func ValidatePeriodKey(key string) error {
	if !periodKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid period key '%s': expected YYYY-MM", key)
	}
	return nil
}
