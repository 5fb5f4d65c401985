// Package vendors implements the heuristic pattern library that turns
// raw bank, payment and merchant text into transactions. Each vendor
// gets its own extractor; the registry tries them in a fixed priority
// order and the first extractor that produces transactions wins.
package vendors

import (
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/pkg/logger"
)

// Extractor recognizes one vendor's document format and pulls
// transactions out of it.
type Extractor interface {
	// Tag is the short vendor name used in logs and reports.
	Tag() string
	// Matches reports whether the text looks like this vendor's output.
	Matches(text string) bool
	// Extract parses the block into transactions. It may return an
	// empty slice when the text matched but no amounts were found.
	Extract(block models.RawTextBlock) []models.Transaction
}

// Registry holds the extractors in priority order.
type Registry struct {
	extractors []Extractor
	logger     logger.Logger
}

// NewRegistry creates a registry with the built-in extractors. Bank
// extractors come before payment platforms and merchants so that a
// bank notification mentioning a platform is claimed by the bank.
// The generic statement-table extractor runs last as the catch-all.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Registry{
		extractors: []Extractor{
			NewBOCExtractor(),
			NewHSBCExtractor(),
			NewAlipayExtractor(),
			NewWeChatExtractor(),
			NewAppleExtractor(),
			NewSteamExtractor(),
			NewAEONExtractor(),
			NewTableExtractor(),
		},
		logger: log.WithComponent("vendors"),
	}
}

// Extractors returns the registered extractors in priority order.
func (r *Registry) Extractors() []Extractor {
	return r.extractors
}

// ExtractAll runs the block through the extractors in priority order.
// The first extractor that both matches and yields transactions claims
// the block; lower-priority extractors never see it. The returned tags
// list every extractor whose Matches fired, which helps diagnose
// blocks claimed by the wrong vendor.
func (r *Registry) ExtractAll(block models.RawTextBlock) ([]models.Transaction, []string) {
	var matched []string
	var result []models.Transaction

	for _, ex := range r.extractors {
		if !ex.Matches(block.Text) {
			continue
		}
		matched = append(matched, ex.Tag())

		if result != nil {
			continue
		}
		if txns := ex.Extract(block); len(txns) > 0 {
			result = dedupeByID(txns)
			r.logger.WithFields(logger.Fields{
				"vendor": ex.Tag(),
				"source": block.Source,
				"count":  len(result),
			}).Debug("extractor claimed block")
		}
	}

	return result, matched
}

// dedupeByID drops repeated extractions of the same transaction within
// a single block, keeping the first occurrence.
func dedupeByID(txns []models.Transaction) []models.Transaction {
	seen := make(map[string]bool, len(txns))
	out := txns[:0]
	for _, tx := range txns {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}
	return out
}
