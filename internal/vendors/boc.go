package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// BOCExtractor parses Bank of China (Hong Kong) transaction alert
// emails. BOC alerts label the merchant and amount explicitly in
// Chinese or English, one transaction per labelled pair.
type BOCExtractor struct {
	merchantPattern *regexp.Regexp
	amountPattern   *regexp.Regexp
	altPattern      *regexp.Regexp
}

// NewBOCExtractor creates the BOC extractor.
func NewBOCExtractor() *BOCExtractor {
	return &BOCExtractor{
		merchantPattern: regexp.MustCompile(`(?:商戶名稱|商户名称|Merchant Name)[::]?\s*(.+)`),
		amountPattern:   regexp.MustCompile(`(?:交易金額|交易金额|Transaction Amount)[::]?\s*(?:HKD|USD|CNY|RMB|港幣|人民幣)?\s*([\d,]+\.?\d*)`),
		altPattern:      regexp.MustCompile(`(?:HKD|港幣)\s*([\d,]+\.\d{2})`),
	}
}

// Tag implements Extractor.
func (e *BOCExtractor) Tag() string { return "boc" }

// Matches implements Extractor.
func (e *BOCExtractor) Matches(text string) bool {
	return containsAny(text, "中國銀行", "中国银行", "Bank of China", "BOCHK", "中銀香港")
}

// Extract implements Extractor. Labelled merchant and amount lines are
// paired in document order. The bare-amount fallback only runs when no
// labelled amount was found at all.
func (e *BOCExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	merchants := e.merchantPattern.FindAllStringSubmatch(block.Text, -1)
	amounts := e.amountPattern.FindAllStringSubmatchIndex(block.Text, -1)

	var txns []models.Transaction
	for i, loc := range amounts {
		raw := block.Text[loc[2]:loc[3]]
		amount, ok := normalize.Amount(raw)
		if !ok || amount.IsZero() {
			continue
		}

		merchant := fallbackMerchant("BOC")
		if i < len(merchants) {
			merchant = merchants[i][1]
		}

		currency := currencyBefore(block.Text, loc[2])
		txns = append(txns, buildTransaction(block, merchant, amount, currency, models.DirectionDebit))
	}
	if len(txns) > 0 {
		return txns
	}

	// No labelled amounts; fall back to bare HKD amounts.
	for _, loc := range e.altPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}
		txns = append(txns, buildTransaction(block, fallbackMerchant("BOC"), amount, models.CurrencyHKD, models.DirectionDebit))
	}
	return txns
}
