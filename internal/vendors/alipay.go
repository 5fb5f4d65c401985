package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// AlipayExtractor parses Alipay / AlipayHK payment notifications.
type AlipayExtractor struct {
	amountPattern   *regexp.Regexp
	merchantPattern *regexp.Regexp
}

// NewAlipayExtractor creates the Alipay extractor.
func NewAlipayExtractor() *AlipayExtractor {
	return &AlipayExtractor{
		amountPattern:   regexp.MustCompile(`(?:交易金額|交易金额|付款金額|付款金额)[::]?\s*(?:HKD|CNY|RMB|港幣|人民幣)?\s*([\d,]+\.?\d*)`),
		merchantPattern: regexp.MustCompile(`(?:商家|商戶名稱|商户名称|收款方)[::]?\s*(.+)`),
	}
}

// Tag implements Extractor.
func (e *AlipayExtractor) Tag() string { return "alipay" }

// Matches implements Extractor.
func (e *AlipayExtractor) Matches(text string) bool {
	return containsAny(text, "Alipay", "支付寶", "支付宝", "AlipayHK")
}

// Extract implements Extractor.
func (e *AlipayExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	merchants := e.merchantPattern.FindAllStringSubmatch(block.Text, -1)

	var txns []models.Transaction
	for i, loc := range e.amountPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}

		merchant := fallbackMerchant("Alipay")
		if i < len(merchants) {
			merchant = vendorDescription("Alipay", merchants[i][1])
		}

		currency := currencyBefore(block.Text, loc[2])
		txns = append(txns, buildTransaction(block, merchant, amount, currency, models.DirectionDebit))
	}
	return txns
}
