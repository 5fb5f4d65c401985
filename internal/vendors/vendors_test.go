package vendors

import (
	"testing"

	"github.com/shopspring/decimal"

	"hk-finance-reconciler/internal/models"
)

func block(source, date, text string) models.RawTextBlock {
	return models.RawTextBlock{Source: source, Date: date, Text: text}
}

func TestBOCLabelledExtraction(t *testing.T) {
	text := "中國銀行(香港)交易提示\n" +
		"商戶名稱: STARBUCKS IFC\n" +
		"交易金額: HKD 45.00\n"

	txns := NewBOCExtractor().Extract(block("boc-alert.txt", "2026-01-15", text))

	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	tx := txns[0]
	if tx.Description != "STARBUCKS IFC" {
		t.Errorf("description = %q", tx.Description)
	}
	if !tx.Amount.Equal(decimal.NewFromInt(45)) {
		t.Errorf("amount = %s", tx.Amount)
	}
	if tx.Currency != models.CurrencyHKD {
		t.Errorf("currency = %s", tx.Currency)
	}
	if tx.Date != "2026-01-15" {
		t.Errorf("date = %s", tx.Date)
	}
	if tx.ID == "" {
		t.Error("ID not assigned")
	}
}

func TestBOCFallbackOnlyWithoutLabels(t *testing.T) {
	text := "中國銀行(香港)\n閣下的賬戶已扣除 HKD 128.50\n"

	txns := NewBOCExtractor().Extract(block("boc.txt", "2026-01-15", text))

	if len(txns) != 1 {
		t.Fatalf("expected fallback to fire, got %d transactions", len(txns))
	}
	if txns[0].Description != "BOC Payment" {
		t.Errorf("description = %q", txns[0].Description)
	}

	// With a labelled amount present, the fallback must stay quiet even
	// though a bare HKD amount also appears.
	labelled := "中國銀行(香港)\n商戶名稱: WELLCOME\n交易金額: HKD 200.00\n結餘 HKD 5,000.00\n"
	txns = NewBOCExtractor().Extract(block("boc.txt", "2026-01-15", labelled))
	if len(txns) != 1 {
		t.Fatalf("fallback leaked extra transactions: %d", len(txns))
	}
	if txns[0].Description != "WELLCOME" {
		t.Errorf("description = %q", txns[0].Description)
	}
}

func TestHSBCMerchantProximity(t *testing.T) {
	text := "HSBC alert: a payment of HKD 342.80 was made at PARKNSHOP CENTRAL on your card.\n"

	txns := NewHSBCExtractor().Extract(block("hsbc.txt", "2026-01-16", text))

	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Description != "HSBC: PARKNSHOP CENTRAL on your card" &&
		txns[0].Description != "HSBC: PARKNSHOP CENTRAL" {
		t.Errorf("merchant not found near amount: %q", txns[0].Description)
	}
	if !txns[0].Amount.Equal(decimal.RequireFromString("342.80")) {
		t.Errorf("amount = %s", txns[0].Amount)
	}
}

func TestHSBCUSDCurrency(t *testing.T) {
	text := "HSBC: charged USD 9.99 to NETFLIX.COM\n"

	txns := NewHSBCExtractor().Extract(block("hsbc.txt", "2026-01-16", text))

	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Currency != models.CurrencyUSD {
		t.Errorf("currency = %s, want USD", txns[0].Currency)
	}
}

func TestWeChatCreditDirection(t *testing.T) {
	debit := "微信支付\n商戶: 美心快餐\n支付金額: 58.00\n"
	txns := NewWeChatExtractor().Extract(block("wechat.txt", "2026-01-10", debit))
	if len(txns) != 1 || txns[0].Direction != models.DirectionDebit {
		t.Fatalf("expected one debit, got %+v", txns)
	}

	credit := "微信支付\n你已收到轉賬\n收款方: 朋友\n金額: 100.00\n收到款項已存入零錢\n"
	txns = NewWeChatExtractor().Extract(block("wechat.txt", "2026-01-10", credit))
	if len(txns) != 1 || txns[0].Direction != models.DirectionCredit {
		t.Fatalf("expected one credit, got %+v", txns)
	}
}

func TestAppleSubscription(t *testing.T) {
	text := "Apple receipt\nApp Store\n" +
		"Netflix Premium HKD 93.00\n" +
		"Your subscription renews monthly.\n"

	txns := NewAppleExtractor().Extract(block("apple.txt", "2026-01-05", text))

	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Description != "Apple: Netflix Premium (subscription)" {
		t.Errorf("description = %q", txns[0].Description)
	}
}

func TestSteamTotalOnly(t *testing.T) {
	text := "Thank you for your Steam purchase\n" +
		"Half-Life: Alyx HK$ 389.00\n" +
		"Total: HK$ 389.00\n"

	txns := NewSteamExtractor().Extract(block("steam.txt", "2026-01-20", text))

	if len(txns) != 1 {
		t.Fatalf("expected only the total, got %d", len(txns))
	}
	if !txns[0].Amount.Equal(decimal.NewFromInt(389)) {
		t.Errorf("amount = %s", txns[0].Amount)
	}
	if txns[0].Description != "Steam Purchase" {
		t.Errorf("description = %q", txns[0].Description)
	}
}

func TestTableHeaderFiltering(t *testing.T) {
	text := "DATE DESCRIPTION WITHDRAWAL DEPOSIT BALANCE\n" +
		"2026-01-05 MTR FARE 12.50 0.00 4,987.50\n" +
		"2026-01-06 SALARY 0.00 30,000.00 34,987.50\n"

	txns := NewTableExtractor().Extract(block("zabank.txt", "2026-01-31", text))

	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].Direction != models.DirectionDebit || !txns[0].Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("withdrawal row parsed wrong: %+v", txns[0])
	}
	if txns[1].Direction != models.DirectionCredit || !txns[1].Amount.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("deposit row parsed wrong: %+v", txns[1])
	}
	if txns[1].Description != "SALARY" {
		t.Errorf("description = %q", txns[1].Description)
	}
}

func TestTableYearlessDates(t *testing.T) {
	text := "日期 項目 支出 存入 結餘\n" +
		"15 Jan PARKNSHOP 342.80 0.00 1,000.00\n"

	txns := NewTableExtractor().Extract(block("statement.txt", "2026-01-31", text))

	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Date != "2026-01-15" {
		t.Errorf("date = %s, want 2026-01-15", txns[0].Date)
	}
}

func TestTableKeywordDirection(t *testing.T) {
	text := "15 Jan SALARY PAYMENT 30,000.00\n" +
		"16 Jan ATM WITHDRAWAL 500.00 29,500.00\n" +
		"17 Jan CHEQUE DEPOSIT 1,000.00 30,500.00\n"

	txns := NewTableExtractor().Extract(block("hsbc-statement.txt", "2026-01-31", text))

	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}
	if txns[0].Direction != models.DirectionCredit {
		t.Errorf("PAYMENT row direction = %s, want credit", txns[0].Direction)
	}
	if !txns[0].Amount.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("PAYMENT row amount = %s", txns[0].Amount)
	}
	if txns[1].Direction != models.DirectionDebit {
		t.Errorf("WITHDRAWAL row direction = %s, want debit", txns[1].Direction)
	}
	if txns[2].Direction != models.DirectionCredit {
		t.Errorf("DEPOSIT row direction = %s, want credit", txns[2].Direction)
	}
}

func TestVendorDescriptionPrefixes(t *testing.T) {
	wechat := NewWeChatExtractor().Extract(block("wechat.txt", "2026-01-10",
		"微信支付\n商戶: 美心快餐\n支付金額: 58.00\n"))
	if len(wechat) != 1 || wechat[0].Description != "WeChat Pay: 美心快餐" {
		t.Errorf("wechat description = %+v", wechat)
	}

	alipay := NewAlipayExtractor().Extract(block("alipay.txt", "2026-01-12",
		"支付寶\n收款方: 淘寶商店\n付款金額: 120.00\n"))
	if len(alipay) != 1 || alipay[0].Description != "Alipay: 淘寶商店" {
		t.Errorf("alipay description = %+v", alipay)
	}

	aeon := NewAEONExtractor().Extract(block("aeon.txt", "2026-01-18",
		"AEON信用卡\n商戶: DON DON DONKI\n簽賬金額: HKD 260.00\n"))
	if len(aeon) != 1 || aeon[0].Description != "AEON: DON DON DONKI" {
		t.Errorf("aeon description = %+v", aeon)
	}

	// BOC descriptions stay bare; its alerts already label the merchant.
	boc := NewBOCExtractor().Extract(block("boc.txt", "2026-01-15",
		"中國銀行(香港)\n商戶名稱: WELLCOME\n交易金額: HKD 200.00\n"))
	if len(boc) != 1 || boc[0].Description != "WELLCOME" {
		t.Errorf("boc description = %+v", boc)
	}
}

func TestRegistryPrioritySuppression(t *testing.T) {
	// A BOC alert that also mentions WeChat Pay as the channel must be
	// claimed by the BOC extractor alone.
	text := "中國銀行(香港)交易提示 (微信支付渠道)\n" +
		"商戶名稱: 美心快餐\n" +
		"交易金額: HKD 58.00\n"

	registry := NewRegistry(nil)
	txns, matched := registry.ExtractAll(block("boc.txt", "2026-01-10", text))

	if len(txns) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txns))
	}
	if txns[0].Description != "美心快餐" {
		t.Errorf("wrong extractor claimed the block: %+v", txns[0])
	}

	foundBOC, foundWeChat := false, false
	for _, tag := range matched {
		if tag == "boc" {
			foundBOC = true
		}
		if tag == "wechat" {
			foundWeChat = true
		}
	}
	if !foundBOC || !foundWeChat {
		t.Errorf("matched tags = %v, want both boc and wechat", matched)
	}
}

func TestRegistryIntraBlockDedup(t *testing.T) {
	// The same labelled transaction repeated in one block collapses to
	// a single record.
	text := "中國銀行(香港)\n" +
		"商戶名稱: STARBUCKS IFC\n交易金額: HKD 45.00\n" +
		"商戶名稱: STARBUCKS IFC\n交易金額: HKD 45.00\n"

	registry := NewRegistry(nil)
	txns, _ := registry.ExtractAll(block("boc.txt", "2026-01-15", text))

	if len(txns) != 1 {
		t.Fatalf("expected dedup to 1 transaction, got %d", len(txns))
	}
}

func TestRegistryNoMatch(t *testing.T) {
	registry := NewRegistry(nil)
	txns, matched := registry.ExtractAll(block("junk.txt", "2026-01-01", "nothing financial here"))

	if len(txns) != 0 || len(matched) != 0 {
		t.Errorf("expected no output, got %v / %v", txns, matched)
	}
}
