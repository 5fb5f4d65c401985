// Package reporter renders reconciliation results as console
// summaries, monthly digests, JSON and CSV.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/shopspring/decimal"

	"hk-finance-reconciler/internal/dedup"
	"hk-finance-reconciler/internal/models"
)

// OutputFormat determines how a report is rendered.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// Config holds reporter settings.
type Config struct {
	Format OutputFormat
	Output io.Writer
}

// DefaultConfig returns console output to stdout.
func DefaultConfig() *Config {
	return &Config{
		Format: FormatConsole,
		Output: os.Stdout,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatConsole, FormatJSON, FormatCSV:
	default:
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}
	if c.Output == nil {
		return fmt.Errorf("output writer cannot be nil")
	}
	return nil
}

// CategoryBreakdown is one category's share of the period's spending.
type CategoryBreakdown struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
	Percent  float64         `json:"percent"`
}

// SummaryReport aggregates one period's reconciled transactions.
type SummaryReport struct {
	Period       string              `json:"period"`
	Income       decimal.Decimal     `json:"income"`
	Expense      decimal.Decimal     `json:"expense"`
	Net          decimal.Decimal     `json:"net"`
	Categories   []CategoryBreakdown `json:"categories"`
	SourceCounts map[string]int      `json:"sourceCounts"`
}

// Generator renders reports.
type Generator struct {
	config *Config
}

// NewGenerator creates a Generator. A nil config uses DefaultConfig.
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{config: config}, nil
}

// BuildSummary computes the summary for a result. Credits count as
// income, debits as expense; the category breakdown covers expenses
// only and is sorted by total, largest first.
func BuildSummary(result models.ReconciliationResult) SummaryReport {
	summary := SummaryReport{
		Period:       result.PeriodKey,
		Income:       decimal.Zero,
		Expense:      decimal.Zero,
		SourceCounts: make(map[string]int),
	}

	totals := make(map[string]*CategoryBreakdown)
	for _, tx := range result.Transactions {
		summary.SourceCounts[tx.SourceTag]++

		if tx.Direction == models.DirectionCredit {
			summary.Income = summary.Income.Add(tx.Amount)
			continue
		}
		summary.Expense = summary.Expense.Add(tx.Amount)

		cb, ok := totals[tx.Category]
		if !ok {
			cb = &CategoryBreakdown{Category: tx.Category, Total: decimal.Zero}
			totals[tx.Category] = cb
		}
		cb.Total = cb.Total.Add(tx.Amount)
		cb.Count++
	}
	summary.Net = summary.Income.Sub(summary.Expense)

	for _, cb := range totals {
		if summary.Expense.IsPositive() {
			percent, _ := cb.Total.Div(summary.Expense).Mul(decimal.NewFromInt(100)).Round(1).Float64()
			cb.Percent = percent
		}
		summary.Categories = append(summary.Categories, *cb)
	}
	sort.Slice(summary.Categories, func(i, j int) bool {
		a, b := summary.Categories[i], summary.Categories[j]
		if !a.Total.Equal(b.Total) {
			return a.Total.GreaterThan(b.Total)
		}
		return a.Category < b.Category
	})

	return summary
}

// WriteSummary renders the summary in the configured format.
func (g *Generator) WriteSummary(result models.ReconciliationResult) error {
	switch g.config.Format {
	case FormatJSON:
		encoder := json.NewEncoder(g.config.Output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(BuildSummary(result))
	case FormatCSV:
		return WriteCSV(g.config.Output, result.Transactions)
	default:
		return g.writeConsoleSummary(BuildSummary(result), result)
	}
}

// WriteDigest renders the monthly digest in the configured format.
// CSV output falls back to the transaction listing.
func (g *Generator) WriteDigest(result models.ReconciliationResult, recurring []dedup.RecurringGroup) error {
	switch g.config.Format {
	case FormatJSON:
		encoder := json.NewEncoder(g.config.Output)
		encoder.SetIndent("", "  ")
		return encoder.Encode(BuildDigest(result, recurring))
	case FormatCSV:
		return WriteCSV(g.config.Output, result.Transactions)
	default:
		return g.writeConsoleDigest(BuildDigest(result, recurring))
	}
}

func (g *Generator) writeConsoleSummary(summary SummaryReport, result models.ReconciliationResult) error {
	w := g.config.Output

	fmt.Fprintf(w, "Reconciliation Summary: %s\n", summary.Period)
	fmt.Fprintf(w, "========================================\n")
	fmt.Fprintf(w, "Email records:     %d\n", result.EmailCount)
	fmt.Fprintf(w, "Statement records: %d\n", result.PDFCount)
	fmt.Fprintf(w, "Merged ledger:     %d\n", result.MergedCount)
	fmt.Fprintf(w, "Matched in both:   %d\n", result.EmailCount+result.PDFCount-result.MergedCount)
	fmt.Fprintf(w, "Statement only:    %d\n", result.PDFOnlyCount)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Income:  %s\n", summary.Income.StringFixed(2))
	fmt.Fprintf(w, "Expense: %s\n", summary.Expense.StringFixed(2))
	fmt.Fprintf(w, "Net:     %s\n", summary.Net.StringFixed(2))

	if len(summary.Categories) > 0 {
		fmt.Fprintf(w, "\nSpending by category:\n")
		for _, cb := range summary.Categories {
			fmt.Fprintf(w, "  %-15s %12s  (%d txns, %.1f%%)\n",
				cb.Category, cb.Total.StringFixed(2), cb.Count, cb.Percent)
		}
	}

	if len(summary.SourceCounts) > 0 {
		fmt.Fprintf(w, "\nRecords by source:\n")
		tags := make([]string, 0, len(summary.SourceCounts))
		for tag := range summary.SourceCounts {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		for _, tag := range tags {
			fmt.Fprintf(w, "  %-12s %d\n", tag, summary.SourceCounts[tag])
		}
	}
	return nil
}
