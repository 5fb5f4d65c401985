package reporter

import (
	"fmt"
	"sort"

	"hk-finance-reconciler/internal/dedup"
	"hk-finance-reconciler/internal/models"
)

// topExpenseCount is how many of the largest expenses the digest lists.
const topExpenseCount = 3

// Digest is the condensed monthly view: the biggest expenses, where
// the money went by category, and any charges that look like
// subscriptions.
type Digest struct {
	Period       string               `json:"period"`
	TopExpenses  []models.Transaction `json:"topExpenses"`
	Categories   []CategoryBreakdown  `json:"categories"`
	RecurringFmt []string             `json:"recurringWarnings"`
}

// BuildDigest computes the digest for a result.
func BuildDigest(result models.ReconciliationResult, recurring []dedup.RecurringGroup) Digest {
	summary := BuildSummary(result)

	var expenses []models.Transaction
	for _, tx := range result.Transactions {
		if tx.Direction != models.DirectionCredit {
			expenses = append(expenses, tx)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Amount.Equal(expenses[j].Amount) {
			return expenses[i].Amount.GreaterThan(expenses[j].Amount)
		}
		return expenses[i].ID < expenses[j].ID
	})
	if len(expenses) > topExpenseCount {
		expenses = expenses[:topExpenseCount]
	}

	digest := Digest{
		Period:      result.PeriodKey,
		TopExpenses: expenses,
		Categories:  summary.Categories,
	}

	for _, group := range recurring {
		sample := group.Transactions[0]
		digest.RecurringFmt = append(digest.RecurringFmt,
			fmt.Sprintf("%s charged %s %d times this period, likely a subscription",
				sample.Description, sample.Amount.StringFixed(2), len(group.Transactions)))
	}
	return digest
}

func (g *Generator) writeConsoleDigest(digest Digest) error {
	w := g.config.Output

	fmt.Fprintf(w, "Monthly Digest: %s\n", digest.Period)
	fmt.Fprintf(w, "========================================\n")

	if len(digest.TopExpenses) > 0 {
		fmt.Fprintf(w, "Top expenses:\n")
		for i, tx := range digest.TopExpenses {
			fmt.Fprintf(w, "  %d. %s  %s %s  (%s)\n",
				i+1, tx.Date, tx.Amount.StringFixed(2), tx.Currency, tx.Description)
		}
	}

	if len(digest.Categories) > 0 {
		fmt.Fprintf(w, "\nWhere the money went:\n")
		for _, cb := range digest.Categories {
			fmt.Fprintf(w, "  %-15s %.1f%%\n", cb.Category, cb.Percent)
		}
	}

	if len(digest.RecurringFmt) > 0 {
		fmt.Fprintf(w, "\nSubscription warnings:\n")
		for _, warning := range digest.RecurringFmt {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
	}
	return nil
}
