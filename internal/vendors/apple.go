package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// AppleExtractor parses App Store and Apple services receipts. Receipt
// line items name the app or service; subscription renewals are called
// out so the recurring-charge report can flag them.
type AppleExtractor struct {
	amountPattern *regexp.Regexp
	itemPattern   *regexp.Regexp
}

// NewAppleExtractor creates the Apple receipt extractor.
func NewAppleExtractor() *AppleExtractor {
	return &AppleExtractor{
		amountPattern: regexp.MustCompile(`(?:HKD|USD|US\$)\s*([\d,]+\.\d{2})`),
		itemPattern:   regexp.MustCompile(`(?m)^\s*([A-Za-z][A-Za-z0-9 +:.\-']{2,60}?)\s+(?:HKD|USD|US\$)\s*[\d,]+\.\d{2}\s*$`),
	}
}

// Tag implements Extractor.
func (e *AppleExtractor) Tag() string { return "apple" }

// Matches implements Extractor.
func (e *AppleExtractor) Matches(text string) bool {
	return containsAny(text, "Apple", "App Store", "apple.com", "iTunes")
}

// Extract implements Extractor.
func (e *AppleExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	items := e.itemPattern.FindAllStringSubmatch(block.Text, -1)
	subscription := containsAny(block.Text, "subscription", "renews", "訂閱")

	var txns []models.Transaction
	for i, loc := range e.amountPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}

		description := fallbackMerchant("Apple")
		if i < len(items) {
			description = vendorDescription("Apple", items[i][1])
		}
		if subscription {
			description += " (subscription)"
		}

		currency := currencyBefore(block.Text, loc[3])
		txns = append(txns, buildTransaction(block, description, amount, currency, models.DirectionDebit))
	}
	return txns
}
