package models

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		raw    string
		want   Currency
		wantOK bool
	}{
		{"HKD", CurrencyHKD, true},
		{"hkd", CurrencyHKD, true},
		{" USD ", CurrencyUSD, true},
		{"RMB", CurrencyCNY, true},
		{"US$", CurrencyUSD, true},
		{"HK$", CurrencyHKD, true},
		{"JPY", CurrencyJPY, true},
		{"XYZ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCurrency(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseCurrency(%q) = (%q, %v), want (%q, %v)",
				tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCurrencyIsValid(t *testing.T) {
	for _, c := range SupportedCurrencies {
		if !c.IsValid() {
			t.Errorf("%s.IsValid() = false, want true", c)
		}
	}

	// Aliases and junk are only acceptable as ParseCurrency input.
	for _, c := range []Currency{"RMB", "US$", "hkd", "XYZ", ""} {
		if c.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", c)
		}
	}
}

func TestContentIDDeterministic(t *testing.T) {
	amount := decimal.NewFromFloat(128.50)

	a := ContentID("2026-01-15", "NETFLIX.COM", amount, CurrencyHKD)
	b := ContentID("2026-01-15", "NETFLIX.COM", amount, CurrencyHKD)

	if a != b {
		t.Errorf("same content produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 12 {
		t.Errorf("ID length = %d, want 12", len(a))
	}
}

func TestContentIDSensitivity(t *testing.T) {
	base := ContentID("2026-01-15", "NETFLIX.COM", decimal.NewFromFloat(128.50), CurrencyHKD)

	variants := []string{
		ContentID("2026-01-16", "NETFLIX.COM", decimal.NewFromFloat(128.50), CurrencyHKD),
		ContentID("2026-01-15", "SPOTIFY", decimal.NewFromFloat(128.50), CurrencyHKD),
		ContentID("2026-01-15", "NETFLIX.COM", decimal.NewFromFloat(128.51), CurrencyHKD),
		ContentID("2026-01-15", "NETFLIX.COM", decimal.NewFromFloat(128.50), CurrencyUSD),
	}

	for i, v := range variants {
		if v == base {
			t.Errorf("variant %d unexpectedly matched the base ID", i)
		}
	}
}

func TestContentIDAmountPrecision(t *testing.T) {
	// 128.5 and 128.50 are the same amount at two decimal places.
	a := ContentID("2026-01-15", "X", decimal.RequireFromString("128.5"), CurrencyHKD)
	b := ContentID("2026-01-15", "X", decimal.RequireFromString("128.50"), CurrencyHKD)

	if a != b {
		t.Errorf("equal amounts at 2dp produced different IDs: %s vs %s", a, b)
	}
}

func TestAssignID(t *testing.T) {
	tx := Transaction{
		Date:        "2026-01-15",
		Description: "STARBUCKS IFC",
		Amount:      decimal.NewFromFloat(45.00),
		Currency:    CurrencyHKD,
	}
	tx.AssignID()

	if tx.ID == "" {
		t.Fatal("AssignID left ID empty")
	}
	if tx.ID != ContentID(tx.Date, tx.Description, tx.Amount, tx.Currency) {
		t.Error("AssignID disagrees with ContentID")
	}
}

func TestTruncateDescription(t *testing.T) {
	tx := Transaction{Description: strings.Repeat("a", 200)}
	tx.TruncateDescription()

	if len(tx.Description) != MaxDescriptionLength {
		t.Errorf("description length = %d, want %d", len(tx.Description), MaxDescriptionLength)
	}

	tx = Transaction{Description: "short"}
	tx.TruncateDescription()
	if tx.Description != "short" {
		t.Errorf("short description was modified: %s", tx.Description)
	}
}

func TestTruncateDescriptionMultiByte(t *testing.T) {
	tx := Transaction{Description: strings.Repeat("美", 100)}
	tx.TruncateDescription()

	if !utf8.ValidString(tx.Description) {
		t.Fatalf("truncation produced invalid UTF-8: %q", tx.Description)
	}
	if got := utf8.RuneCountInString(tx.Description); got != MaxDescriptionLength {
		t.Errorf("rune count = %d, want %d", got, MaxDescriptionLength)
	}
}

func TestTruncatedCJKIDSurvivesRoundTrip(t *testing.T) {
	tx := Transaction{
		Date:        "2026-01-15",
		Description: strings.Repeat("美", 100),
		Amount:      decimal.RequireFromString("58.00"),
		Currency:    CurrencyHKD,
		Direction:   DirectionDebit,
	}
	tx.TruncateDescription()
	tx.AssignID()

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if back.Description != tx.Description {
		t.Errorf("description changed in round trip: %q vs %q", back.Description, tx.Description)
	}
	if back.ID != ContentID(back.Date, back.Description, back.Amount, back.Currency) {
		t.Error("persisted ID no longer matches its content after round trip")
	}
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	tx := Transaction{
		Date:        "2026-01-15",
		Description: "PARKnSHOP CENTRAL",
		Amount:      decimal.RequireFromString("342.80"),
		Currency:    CurrencyHKD,
		Direction:   DirectionDebit,
		Category:    "groceries",
		SourceFile:  "statement-jan.txt",
		SourceTag:   SourceTagPDF,
	}
	tx.AssignID()

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"amount":"342.80"`) {
		t.Errorf("amount not serialized as a fixed-point string: %s", data)
	}

	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !back.Amount.Equal(tx.Amount) {
		t.Errorf("amount changed in round trip: %s vs %s", back.Amount, tx.Amount)
	}
	if back.ID != tx.ID || back.Description != tx.Description || back.Category != tx.Category {
		t.Errorf("fields changed in round trip: %+v", back)
	}
}

func TestValidatePeriodKey(t *testing.T) {
	valid := []string{"2026-01", "2026-12", "1999-06"}
	for _, key := range valid {
		if err := ValidatePeriodKey(key); err != nil {
			t.Errorf("ValidatePeriodKey(%q) = %v, want nil", key, err)
		}
	}

	invalid := []string{"2026-13", "2026-00", "2026-1", "2026/01", "202601", "jan-2026", ""}
	for _, key := range invalid {
		if err := ValidatePeriodKey(key); err == nil {
			t.Errorf("ValidatePeriodKey(%q) = nil, want error", key)
		}
	}
}
