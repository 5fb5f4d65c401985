// Package reconcile merges the email and statement record sets of a
// period into one reconciled result and persists it.
package reconcile

import (
	"context"
	"os"
	"sort"
	"time"

	"hk-finance-reconciler/internal/dedup"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/reporter"
	"hk-finance-reconciler/internal/store"
	apperrors "hk-finance-reconciler/pkg/errors"
	"hk-finance-reconciler/pkg/logger"
)

// Stage names the merger's position in its run. Stages advance
// strictly forward; a failed run stops at the stage that failed.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageLoading       Stage = "loading"
	StageDeduplicating Stage = "deduplicating"
	StageMerging       Stage = "merging"
	StagePersisting    Stage = "persisting"
	StageReporting     Stage = "reporting"
	StageDone          Stage = "done"
)

// Config holds merger settings.
type Config struct {
	// Period is the YYYY-MM period to reconcile.
	Period string
	// Banks lists the statement sources to load. Empty means the
	// default bank list.
	Banks []string
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := models.ValidatePeriodKey(c.Period); err != nil {
		return apperrors.ConfigurationError(apperrors.CodeInvalidPeriod, "period", c.Period, err)
	}
	return nil
}

// Stats carries run counters beyond what the persisted result records.
type Stats struct {
	// PreviouslySeen counts merged transactions whose IDs were already
	// in the processed-ID store from an earlier run.
	PreviouslySeen int
	// RecurringGroups counts detected repeated-charge groups.
	RecurringGroups int
	Duration        time.Duration
}

// Merger runs the reconciliation for one period.
type Merger struct {
	config  *Config
	sources *store.SourceStore
	results *store.ResultStore
	idStore store.ProcessedIDStore
	logger  logger.Logger

	stage     Stage
	recurring []dedup.RecurringGroup
	stats     Stats
}

// NewMerger creates a Merger.
func NewMerger(config *Config, sources *store.SourceStore, results *store.ResultStore, idStore store.ProcessedIDStore) (*Merger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if len(config.Banks) == 0 {
		config.Banks = store.DefaultBanks
	}

	return &Merger{
		config:  config,
		sources: sources,
		results: results,
		idStore: idStore,
		logger:  logger.GetGlobalLogger().WithComponent("reconcile"),
		stage:   StageIdle,
	}, nil
}

// Stage returns the merger's current stage.
func (m *Merger) Stage() Stage {
	return m.stage
}

// Recurring returns the repeated-charge groups found during the run.
func (m *Merger) Recurring() []dedup.RecurringGroup {
	return m.recurring
}

// Stats returns the run counters. Valid after Run.
func (m *Merger) Stats() Stats {
	return m.stats
}

// Run executes the full reconciliation. Rerunning a period over the
// same inputs produces the same record set; the processed-ID store
// only tracks what has been seen, it never hides records from the
// result.
func (m *Merger) Run(ctx context.Context) (*models.ReconciliationResult, error) {
	start := time.Now()

	m.advance(StageLoading)
	email, pdf, err := m.loadSources(ctx)
	if err != nil {
		return nil, err
	}

	m.advance(StageDeduplicating)
	email = dedup.ByID(email)
	pdf = dedup.ByID(pdf)

	m.advance(StageMerging)
	merged := dedup.Merge(email, pdf)
	sort.Slice(merged.Transactions, func(i, j int) bool {
		a, b := merged.Transactions[i], merged.Transactions[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})

	result := &models.ReconciliationResult{
		PeriodKey:    m.config.Period,
		EmailCount:   merged.EmailCount,
		PDFCount:     merged.PDFCount,
		MergedCount:  merged.MergedCount,
		PDFOnlyCount: merged.PDFOnlyCount,
		Transactions: merged.Transactions,
		GeneratedAt:  time.Now().UTC(),
	}

	m.advance(StagePersisting)
	if err := m.persist(result); err != nil {
		return nil, err
	}

	m.advance(StageReporting)
	m.recurring = dedup.FindRecurring(result.Transactions)
	m.stats.RecurringGroups = len(m.recurring)
	for _, group := range m.recurring {
		m.logger.WithFields(logger.Fields{
			"key":   group.Key,
			"count": len(group.Transactions),
		}).Info("recurring charge detected")
	}

	m.advance(StageDone)
	m.stats.Duration = time.Since(start)
	m.logger.WithFields(logger.Fields{
		"period":   m.config.Period,
		"email":    result.EmailCount,
		"pdf":      result.PDFCount,
		"merged":   result.MergedCount,
		"pdf_only": result.PDFOnlyCount,
		"duration": m.stats.Duration.String(),
	}).Info("reconciliation complete")

	return result, nil
}

func (m *Merger) loadSources(ctx context.Context) (email, pdf []models.Transaction, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	email, err = m.sources.LoadEmail(m.config.Period)
	if err != nil {
		return nil, nil, apperrors.WrapIfNeeded(err, apperrors.CategoryReconciliation, apperrors.CodeProcessingError, "loading email record set")
	}

	pdf, err = m.sources.LoadBanks(m.config.Period, m.config.Banks)
	if err != nil {
		return nil, nil, apperrors.WrapIfNeeded(err, apperrors.CategoryReconciliation, apperrors.CodeProcessingError, "loading statement record sets")
	}

	m.logger.WithFields(logger.Fields{
		"period": m.config.Period,
		"email":  len(email),
		"pdf":    len(pdf),
		"banks":  m.config.Banks,
	}).Debug("record sets loaded")
	return email, pdf, nil
}

func (m *Merger) persist(result *models.ReconciliationResult) error {
	if err := m.results.Save(*result); err != nil {
		return err
	}
	if err := m.exportCSV(result); err != nil {
		return err
	}

	if m.idStore == nil {
		return nil
	}
	for _, tx := range result.Transactions {
		if m.idStore.Contains(tx.ID) {
			m.stats.PreviouslySeen++
			continue
		}
		m.idStore.Add(tx.ID)
	}
	return m.idStore.Persist()
}

// exportCSV writes the merged record set as CSV next to the result
// JSON, so the period's ledger can be opened without running a report.
func (m *Merger) exportCSV(result *models.ReconciliationResult) error {
	path := m.results.CSVPath(result.PeriodKey)

	f, err := os.Create(path)
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}
	if err := reporter.WriteCSV(f, result.Transactions); err != nil {
		f.Close()
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}
	return nil
}

func (m *Merger) advance(next Stage) {
	m.logger.WithFields(logger.Fields{"from": string(m.stage), "to": string(next)}).Debug("stage transition")
	m.stage = next
}
