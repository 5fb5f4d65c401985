package vendors

import (
	"regexp"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
)

// SteamExtractor parses Steam purchase receipts. Only the receipt
// total is extracted; per-item lines restate the same money.
type SteamExtractor struct {
	totalPattern *regexp.Regexp
}

// NewSteamExtractor creates the Steam extractor.
func NewSteamExtractor() *SteamExtractor {
	return &SteamExtractor{
		totalPattern: regexp.MustCompile(`(?:Total|總計|总计)[::]?\s*(?:HK\$|HKD|US\$|USD)?\s*([\d,]+\.?\d*)`),
	}
}

// Tag implements Extractor.
func (e *SteamExtractor) Tag() string { return "steam" }

// Matches implements Extractor.
func (e *SteamExtractor) Matches(text string) bool {
	return containsAny(text, "Steam", "steampowered.com", "Valve")
}

// Extract implements Extractor.
func (e *SteamExtractor) Extract(block models.RawTextBlock) []models.Transaction {
	var txns []models.Transaction
	for _, loc := range e.totalPattern.FindAllStringSubmatchIndex(block.Text, -1) {
		amount, ok := normalize.Amount(block.Text[loc[2]:loc[3]])
		if !ok || amount.IsZero() {
			continue
		}

		currency := currencyBefore(block.Text, loc[2])
		txns = append(txns, buildTransaction(block, "Steam Purchase", amount, currency, models.DirectionDebit))
	}
	return txns
}
