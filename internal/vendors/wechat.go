package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// WeChatExtractor parses WeChat Pay (HK) payment notifications. A
// notification describing money received or transferred in is treated
// as a credit.
type WeChatExtractor struct {
	amountPattern   *regexp.Regexp
	merchantPattern *regexp.Regexp
}

// NewWeChatExtractor creates the WeChat Pay extractor.
func NewWeChatExtractor() *WeChatExtractor {
	return &WeChatExtractor{
		amountPattern:   regexp.MustCompile(`(?:支付金額|支付金额|付款金額|付款金额|金額|金额)[::]?\s*(?:HKD|CNY|RMB|港幣|人民幣)?\s*([\d,]+\.?\d*)`),
		merchantPattern: regexp.MustCompile(`(?:商戶|商户|收款方)[::]?\s*(.+)`),
	}
}

// Tag implements Extractor.
func (e *WeChatExtractor) Tag() string { return "wechat" }

// Matches implements Extractor.
func (e *WeChatExtractor) Matches(text string) bool {
	return containsAny(text, "WeChat", "微信支付", "微信")
}

// Extract implements Extractor.
func (e *WeChatExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	direction := models.DirectionDebit
	if containsAny(block.Text, "收到", "轉入", "转入") {
		direction = models.DirectionCredit
	}

	merchants := e.merchantPattern.FindAllStringSubmatch(block.Text, -1)

	var txns []models.Transaction
	for i, loc := range e.amountPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}

		merchant := fallbackMerchant("WeChat Pay")
		if i < len(merchants) {
			merchant = vendorDescription("WeChat Pay", merchants[i][1])
		}

		currency := currencyBefore(block.Text, loc[2])
		txns = append(txns, buildTransaction(block, merchant, amount, currency, direction))
	}
	return txns
}
