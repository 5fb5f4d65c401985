package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// AEONExtractor parses AEON credit card alert emails, which label the
// merchant and the signed amount on separate lines.
type AEONExtractor struct {
	merchantPattern *regexp.Regexp
	amountPattern   *regexp.Regexp
}

// NewAEONExtractor creates the AEON extractor.
func NewAEONExtractor() *AEONExtractor {
	return &AEONExtractor{
		merchantPattern: regexp.MustCompile(`(?:商戶|商户|Merchant)[::]?\s*(.+)`),
		amountPattern:   regexp.MustCompile(`(?:簽賬金額|签账金额|Amount)[::]?\s*(?:HKD|HK\$)?\s*([\d,]+\.?\d*)`),
	}
}

// Tag implements Extractor.
func (e *AEONExtractor) Tag() string { return "aeon" }

// Matches implements Extractor.
func (e *AEONExtractor) Matches(text string) bool {
	return containsAny(text, "AEON", "永旺")
}

// Extract implements Extractor.
func (e *AEONExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	merchants := e.merchantPattern.FindAllStringSubmatch(block.Text, -1)

	var txns []models.Transaction
	for i, loc := range e.amountPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}

		merchant := fallbackMerchant("AEON")
		if i < len(merchants) {
			merchant = vendorDescription("AEON", merchants[i][1])
		}

		currency := currencyBefore(block.Text, loc[2])
		txns = append(txns, buildTransaction(block, merchant, amount, currency, models.DirectionDebit))
	}
	return txns
}
