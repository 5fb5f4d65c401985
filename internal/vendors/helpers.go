package vendors

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// currencyWindow is how far back from an amount match the extractors
// scan for a currency token.
const currencyWindow = 30

var currencyTokens = []struct {
	token    string
	currency models.Currency
}{
	{"US$", models.CurrencyUSD},
	{"USD", models.CurrencyUSD},
	{"CNY", models.CurrencyCNY},
	{"RMB", models.CurrencyCNY},
	{"人民幣", models.CurrencyCNY},
	{"EUR", models.CurrencyEUR},
	{"GBP", models.CurrencyGBP},
	{"JPY", models.CurrencyJPY},
}

// currencyBefore scans the text just before an amount match for a
// currency token. Hong Kong sources default to HKD when no token
// appears.
func currencyBefore(text string, idx int) models.Currency {
	start := idx - currencyWindow
	if start < 0 {
		start = 0
	}
	window := strings.ToUpper(text[start:idx])

	for _, ct := range currencyTokens {
		if strings.Contains(window, ct.token) {
			return ct.currency
		}
	}
	return models.CurrencyHKD
}

// fallbackMerchant names a transaction when no merchant label was
// found near the amount.
func fallbackMerchant(vendor string) string {
	return vendor + " Payment"
}

// vendorDescription labels an extracted merchant with its vendor so
// merged ledgers show where each record came from.
func vendorDescription(vendor, merchant string) string {
	return vendor + ": " + strings.TrimSpace(merchant)
}

// buildTransaction assembles a transaction from extracted parts,
// normalizing the date, truncating the description and assigning the
// content-derived ID.
func buildTransaction(block models.RawTextBlock, description string, amount decimal.Decimal, currency models.Currency, direction models.Direction) models.Transaction {
	date := block.Date
	if date == "" {
		date = "unknown"
	}

	tx := models.Transaction{
		Date:        normalize.Date(date),
		Description: strings.TrimSpace(description),
		Amount:      amount,
		Currency:    currency,
		Direction:   direction,
		SourceFile:  block.Source,
	}
	tx.TruncateDescription()
	tx.AssignID()
	return tx
}

// firstSubmatch returns the first capture group of the first match, or
// the empty string.
func firstSubmatch(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// containsAny reports whether the text contains any of the tokens,
// case-insensitively.
func containsAny(text string, tokens ...string) bool {
	lower := strings.ToLower(text)
	for _, token := range tokens {
		if strings.Contains(lower, strings.ToLower(token)) {
			return true
		}
	}
	return false
}
