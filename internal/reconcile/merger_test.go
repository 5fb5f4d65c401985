package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/reporter"
	"hk-finance-reconciler/internal/store"
)

func makeTx(date, description, amount, tag string) models.Transaction {
	tx := models.Transaction{
		Date:        date,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Currency:    models.CurrencyHKD,
		Direction:   models.DirectionDebit,
		SourceTag:   tag,
	}
	tx.AssignID()
	return tx
}

func seedStores(t *testing.T) (string, *store.SourceStore, *store.ResultStore) {
	t.Helper()
	dir := t.TempDir()
	return dir, store.NewSourceStore(dir, nil), store.NewResultStore(dir)
}

func newMerger(t *testing.T, config *Config, sources *store.SourceStore, results *store.ResultStore, ids store.ProcessedIDStore) *Merger {
	t.Helper()
	m, err := NewMerger(config, sources, results, ids)
	if err != nil {
		t.Fatalf("NewMerger failed: %v", err)
	}
	return m
}

func TestMergerFullRun(t *testing.T) {
	dir, sources, results := seedStores(t)

	email := []models.Transaction{
		makeTx("2026-01-15", "STARBUCKS", "45.00", models.SourceTagEmail),
		makeTx("2026-01-16", "MTR", "12.50", models.SourceTagEmail),
	}
	pdf := []models.Transaction{
		makeTx("2026-01-15", "STARBUCKS COFFEE IFC", "45.00", models.SourceTagPDF),
		makeTx("2026-01-20", "CLP POWER", "800.00", models.SourceTagPDF),
	}
	if err := sources.SaveEmail("2026-01", email); err != nil {
		t.Fatal(err)
	}
	if err := sources.SaveBank("2026-01", "hsbc", pdf); err != nil {
		t.Fatal(err)
	}

	ids := store.NewFileIDStore(filepath.Join(dir, "processed_ids.json"))
	m := newMerger(t, &Config{Period: "2026-01", Banks: []string{"hsbc"}}, sources, results, ids)

	result, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if m.Stage() != StageDone {
		t.Errorf("stage = %s, want done", m.Stage())
	}
	if result.EmailCount != 2 || result.PDFCount != 2 || result.MergedCount != 3 || result.PDFOnlyCount != 1 {
		t.Errorf("counts wrong: %+v", result)
	}
	if len(result.Transactions) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(result.Transactions))
	}

	// Result is persisted.
	loaded, ok, err := results.Load("2026-01")
	if err != nil || !ok {
		t.Fatalf("result not persisted: %v, %v", ok, err)
	}
	if loaded.MergedCount != 3 {
		t.Errorf("persisted result differs: %+v", loaded)
	}

	// All result IDs are now in the processed-ID store.
	for _, tx := range result.Transactions {
		if !ids.Contains(tx.ID) {
			t.Errorf("ID %s not recorded as processed", tx.ID)
		}
	}
}

func TestMergerWritesCSVExport(t *testing.T) {
	dir, sources, results := seedStores(t)

	if err := sources.SaveEmail("2026-01", []models.Transaction{
		makeTx("2026-01-15", "STARBUCKS", "45.00", models.SourceTagEmail),
		makeTx("2026-01-16", "MTR", "12.50", models.SourceTagEmail),
	}); err != nil {
		t.Fatal(err)
	}

	m := newMerger(t, &Config{Period: "2026-01"}, sources, results, store.NewFileIDStore(filepath.Join(dir, "processed_ids.json")))
	result, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	f, err := os.Open(results.CSVPath("2026-01"))
	if err != nil {
		t.Fatalf("CSV export not written next to the result: %v", err)
	}
	defer f.Close()

	txns, err := reporter.ReadCSV(f)
	if err != nil {
		t.Fatalf("CSV export unreadable: %v", err)
	}
	if len(txns) != len(result.Transactions) {
		t.Errorf("CSV rows = %d, want %d", len(txns), len(result.Transactions))
	}
}

func TestMergerMissingSourcesAreEmpty(t *testing.T) {
	_, sources, results := seedStores(t)

	m := newMerger(t, &Config{Period: "2026-03"}, sources, results, nil)
	result, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run with no sources failed: %v", err)
	}

	if result.EmailCount != 0 || result.PDFCount != 0 || len(result.Transactions) != 0 {
		t.Errorf("expected an empty result, got %+v", result)
	}
	if m.Stage() != StageDone {
		t.Errorf("stage = %s, want done", m.Stage())
	}
}

func TestMergerIdempotentRerun(t *testing.T) {
	dir, sources, results := seedStores(t)

	if err := sources.SaveEmail("2026-01", []models.Transaction{
		makeTx("2026-01-15", "STARBUCKS", "45.00", models.SourceTagEmail),
	}); err != nil {
		t.Fatal(err)
	}

	idPath := filepath.Join(dir, "processed_ids.json")

	first := newMerger(t, &Config{Period: "2026-01"}, sources, results, store.NewFileIDStore(idPath))
	r1, err := first.Run(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	ids := store.NewFileIDStore(idPath)
	if err := ids.Load(); err != nil {
		t.Fatal(err)
	}
	second := newMerger(t, &Config{Period: "2026-01"}, sources, results, ids)
	r2, err := second.Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if len(r1.Transactions) != len(r2.Transactions) {
		t.Errorf("rerun changed the record set: %d vs %d", len(r1.Transactions), len(r2.Transactions))
	}
	if second.Stats().PreviouslySeen != len(r1.Transactions) {
		t.Errorf("previously seen = %d, want %d", second.Stats().PreviouslySeen, len(r1.Transactions))
	}
}

func TestMergerIntraSourceDedup(t *testing.T) {
	_, sources, results := seedStores(t)

	dup := makeTx("2026-01-15", "STARBUCKS", "45.00", models.SourceTagEmail)
	if err := sources.SaveEmail("2026-01", []models.Transaction{dup, dup}); err != nil {
		t.Fatal(err)
	}

	m := newMerger(t, &Config{Period: "2026-01"}, sources, results, nil)
	result, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(result.Transactions) != 1 {
		t.Errorf("duplicate email record survived: %d transactions", len(result.Transactions))
	}
}

func TestMergerRecurringDetection(t *testing.T) {
	_, sources, results := seedStores(t)

	if err := sources.SaveEmail("2026-01", []models.Transaction{
		makeTx("2026-01-05", "NETFLIX.COM", "93.00", models.SourceTagEmail),
		makeTx("2026-01-12", "NETFLIX.COM", "93.00", models.SourceTagEmail),
	}); err != nil {
		t.Fatal(err)
	}

	m := newMerger(t, &Config{Period: "2026-01"}, sources, results, nil)
	result, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Recurring members are reported, never removed.
	if len(result.Transactions) != 2 {
		t.Errorf("recurring members dropped: %d transactions", len(result.Transactions))
	}
	if len(m.Recurring()) != 1 {
		t.Errorf("recurring groups = %d, want 1", len(m.Recurring()))
	}
}

func TestMergerInvalidPeriod(t *testing.T) {
	_, sources, results := seedStores(t)

	if _, err := NewMerger(&Config{Period: "jan-2026"}, sources, results, nil); err == nil {
		t.Error("invalid period accepted")
	}
}

func TestMergerContextCancelled(t *testing.T) {
	_, sources, results := seedStores(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newMerger(t, &Config{Period: "2026-01"}, sources, results, nil)
	if _, err := m.Run(ctx); err == nil {
		t.Error("expected context error")
	}
}
