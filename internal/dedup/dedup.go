// Package dedup removes duplicate extractions and merges the email and
// statement views of the same underlying transactions.
package dedup

import (
	"sort"
	"strings"

	"hk-finance-reconciler/internal/models"
)

// ByID removes transactions whose content-derived ID was already seen,
// keeping the first occurrence. This is the intra-source pass: the
// same alert forwarded twice extracts to the same ID.
func ByID(txns []models.Transaction) []models.Transaction {
	seen := make(map[string]bool, len(txns))
	out := make([]models.Transaction, 0, len(txns))
	for _, tx := range txns {
		if seen[tx.ID] {
			continue
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}
	return out
}

// recurringPrefixLength is how much of the description participates in
// the recurring-charge key. Subscription descriptions often differ in
// their tail (invoice numbers, months) but share a stable prefix.
const recurringPrefixLength = 15

// RecurringGroup is a set of transactions that repeat the same amount
// and description prefix, typically a subscription.
type RecurringGroup struct {
	Key          string
	Transactions []models.Transaction
}

// recurringKey builds the grouping key from the amount at two decimal
// places and the lowercased description prefix. The prefix is taken in
// runes so CJK descriptions group on whole characters.
func recurringKey(tx models.Transaction) string {
	desc := strings.ToLower(tx.Description)
	if runes := []rune(desc); len(runes) > recurringPrefixLength {
		desc = string(runes[:recurringPrefixLength])
	}
	return tx.Amount.StringFixed(2) + "|" + desc
}

// FindRecurring groups transactions that look like repeated charges.
// Only groups with at least two members are returned; the members stay
// in the record set untouched, the groups exist for reporting.
func FindRecurring(txns []models.Transaction) []RecurringGroup {
	byKey := make(map[string][]models.Transaction)
	for _, tx := range txns {
		key := recurringKey(tx)
		byKey[key] = append(byKey[key], tx)
	}

	var groups []RecurringGroup
	for key, members := range byKey {
		if len(members) >= 2 {
			groups = append(groups, RecurringGroup{Key: key, Transactions: members})
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// MergeKey identifies a transaction across sources. Email alerts and
// statement rows describe the same merchant differently, so the key is
// the date plus the amount at two decimal places, never the text.
func MergeKey(tx models.Transaction) string {
	return tx.Date + "|" + tx.Amount.StringFixed(2)
}

// MergeResult is the outcome of reconciling the email view against the
// statement view of one period.
type MergeResult struct {
	Transactions []models.Transaction
	// EmailCount and PDFCount are the input set sizes.
	EmailCount int
	PDFCount   int
	// MergedCount is the size of the final merged set. Merging the two
	// views in either order produces the same count.
	MergedCount int
	// MatchedCount is how many records were corroborated by both views.
	MatchedCount int
	// PDFOnlyCount is how many statement records had no email match.
	PDFOnlyCount int
}

// Merge reconciles the two record sets. A statement transaction whose
// merge key matches an unclaimed email transaction collapses into it:
// the survivor keeps the email record's identity, adopts the longer of
// the two descriptions and is tagged as seen in both sources. Each
// email record is claimed at most once. Statement transactions with no
// match are appended as statement-only records.
func Merge(email, pdf []models.Transaction) MergeResult {
	unclaimed := make(map[string][]int, len(email))
	for i, tx := range email {
		key := MergeKey(tx)
		unclaimed[key] = append(unclaimed[key], i)
	}

	merged := make([]models.Transaction, len(email))
	copy(merged, email)

	result := MergeResult{
		EmailCount: len(email),
		PDFCount:   len(pdf),
	}

	for _, pdfTx := range pdf {
		key := MergeKey(pdfTx)
		if idxs := unclaimed[key]; len(idxs) > 0 {
			i := idxs[0]
			unclaimed[key] = idxs[1:]

			if len(pdfTx.Description) > len(merged[i].Description) {
				merged[i].Description = pdfTx.Description
			}
			merged[i].SourceTag = models.SourceTagMerged
			result.MatchedCount++
			continue
		}
		result.PDFOnlyCount++
		merged = append(merged, pdfTx)
	}

	result.Transactions = merged
	result.MergedCount = len(merged)
	return result
}
