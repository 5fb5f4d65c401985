package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// merchantProximity is how far around an amount match the HSBC
// extractor looks for a merchant label.
const merchantProximity = 200

// HSBCExtractor parses HSBC Hong Kong alert emails. HSBC alerts quote
// amounts as "HKD 1,234.56" with the merchant named in prose nearby
// ("at STARBUCKS", "to PAYEE NAME") rather than on a labelled line.
type HSBCExtractor struct {
	amountPattern   *regexp.Regexp
	merchantPattern *regexp.Regexp
}

// NewHSBCExtractor creates the HSBC extractor.
func NewHSBCExtractor() *HSBCExtractor {
	return &HSBCExtractor{
		amountPattern:   regexp.MustCompile(`(?:HKD|USD)\s*([\d,]+\.\d{2})`),
		merchantPattern: regexp.MustCompile(`(?i)\b(?:at|to|merchant|payee)[::]?\s+([A-Za-z0-9&\-' \x{4e00}-\x{9fff}]{2,60})`),
	}
}

// Tag implements Extractor.
func (e *HSBCExtractor) Tag() string { return "hsbc" }

// Matches implements Extractor.
func (e *HSBCExtractor) Matches(text string) bool {
	return containsAny(text, "HSBC", "滙豐", "汇丰")
}

// Extract implements Extractor. Each quoted amount becomes one
// transaction, described by the nearest merchant label within the
// proximity window.
func (e *HSBCExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	var txns []models.Transaction

	for _, loc := range e.amountPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}

		merchant := fallbackMerchant("HSBC")
		if found := e.merchantNear(block.Text, loc[0], loc[1]); found != "" {
			merchant = vendorDescription("HSBC", found)
		}

		currency := currencyBefore(block.Text, loc[3])
		txns = append(txns, buildTransaction(block, merchant, amount, currency, models.DirectionDebit))
	}
	return txns
}

func (e *HSBCExtractor) merchantNear(text string, start, end int) string {
	lo := start - merchantProximity
	if lo < 0 {
		lo = 0
	}
	hi := end + merchantProximity
	if hi > len(text) {
		hi = len(text)
	}
	return firstSubmatch(e.merchantPattern, text[lo:hi])
}
