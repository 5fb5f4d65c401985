package extract

import (
	"context"
	"fmt"
	"testing"

	"hk-finance-reconciler/internal/categorize"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/validate"
	"hk-finance-reconciler/internal/vendors"
)

func newTestPipeline(t *testing.T, config *Config) *Pipeline {
	t.Helper()
	p, err := New(vendors.NewRegistry(nil), validate.New(), categorize.New(nil), config)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

func bocBlock(source, date, merchant, amount string) models.RawTextBlock {
	return models.RawTextBlock{
		Source: source,
		Date:   date,
		Text: "中國銀行(香港)交易提示\n" +
			"商戶名稱: " + merchant + "\n" +
			"交易金額: HKD " + amount + "\n",
	}
}

func TestPipelineRun(t *testing.T) {
	blocks := []models.RawTextBlock{
		bocBlock("a.txt", "2026-01-15", "STARBUCKS IFC", "45.00"),
		bocBlock("b.txt", "2026-01-10", "MTR FARE", "12.50"),
		{Source: "junk.txt", Date: "2026-01-01", Text: "nothing financial"},
	}

	outcome, err := newTestPipeline(t, nil).Run(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Transactions) != 2 {
		t.Fatalf("accepted = %d, want 2", len(outcome.Transactions))
	}
	if len(outcome.Unparsed) != 1 || outcome.Unparsed[0].Source != "junk.txt" {
		t.Errorf("unparsed = %v", outcome.Unparsed)
	}

	// Sorted by date regardless of input order.
	if outcome.Transactions[0].Date != "2026-01-10" {
		t.Errorf("first transaction date = %s, want 2026-01-10", outcome.Transactions[0].Date)
	}

	first := outcome.Transactions[0]
	if first.Category != "transport" {
		t.Errorf("category = %q, want transport", first.Category)
	}
	if first.SourceTag != models.SourceTagEmail {
		t.Errorf("source tag = %q", first.SourceTag)
	}
}

func TestPipelineDropsInvalid(t *testing.T) {
	// An unparseable date survives extraction as-is and must then be
	// rejected by validation.
	block := models.RawTextBlock{
		Source: "bad.txt",
		Date:   "sometime in january",
		Text:   "中國銀行(香港)\n商戶名稱: SHOP\n交易金額: HKD 45.00\n",
	}

	outcome, err := newTestPipeline(t, nil).Run(context.Background(), []models.RawTextBlock{block})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Transactions) != 0 {
		t.Errorf("invalid transaction accepted: %+v", outcome.Transactions)
	}
	if len(outcome.Dropped) != 1 {
		t.Fatalf("dropped = %d, want 1", len(outcome.Dropped))
	}
	if len(outcome.Dropped[0].Violations) == 0 {
		t.Error("dropped record has no violations")
	}
}

func TestPipelineFlagsWarnings(t *testing.T) {
	block := bocBlock("big.txt", "2026-01-15", "PROPERTY AGENT", "2,500,000.00")

	outcome, err := newTestPipeline(t, nil).Run(context.Background(), []models.RawTextBlock{block})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Transactions) != 1 {
		t.Fatalf("warning-level record must still be accepted, got %d", len(outcome.Transactions))
	}
	if len(outcome.Flagged) != 1 {
		t.Fatalf("flagged = %d, want 1", len(outcome.Flagged))
	}
	if outcome.Flagged[0].Violations[0].Severity != validate.SeverityWarning {
		t.Errorf("violation severity = %s", outcome.Flagged[0].Violations[0].Severity)
	}
}

func TestPipelineCrossBlockDedup(t *testing.T) {
	// The same alert forwarded twice arrives as two blocks but is one
	// transaction.
	blocks := []models.RawTextBlock{
		bocBlock("fwd1.txt", "2026-01-15", "STARBUCKS IFC", "45.00"),
		bocBlock("fwd2.txt", "2026-01-15", "STARBUCKS IFC", "45.00"),
	}

	outcome, err := newTestPipeline(t, &Config{SourceTag: models.SourceTagEmail, Workers: 1}).
		Run(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(outcome.Transactions) != 1 {
		t.Errorf("expected cross-block dedup to 1, got %d", len(outcome.Transactions))
	}
}

func TestPipelineDeterministicAcrossWorkers(t *testing.T) {
	var blocks []models.RawTextBlock
	for i := 0; i < 20; i++ {
		blocks = append(blocks,
			bocBlock(fmt.Sprintf("m%d.txt", i), fmt.Sprintf("2026-01-%02d", i+1),
				fmt.Sprintf("MERCHANT %d", i), "45.00"))
	}

	serial, err := newTestPipeline(t, &Config{SourceTag: models.SourceTagEmail, Workers: 1}).
		Run(context.Background(), blocks)
	if err != nil {
		t.Fatalf("serial run failed: %v", err)
	}
	parallel, err := newTestPipeline(t, &Config{SourceTag: models.SourceTagEmail, Workers: 8}).
		Run(context.Background(), blocks)
	if err != nil {
		t.Fatalf("parallel run failed: %v", err)
	}

	if len(serial.Transactions) != len(parallel.Transactions) {
		t.Fatalf("counts differ: %d vs %d", len(serial.Transactions), len(parallel.Transactions))
	}
	for i := range serial.Transactions {
		if serial.Transactions[i].ID != parallel.Transactions[i].ID {
			t.Fatalf("order differs at %d", i)
		}
	}
}

func TestPipelineContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var blocks []models.RawTextBlock
	for i := 0; i < 100; i++ {
		blocks = append(blocks, bocBlock(fmt.Sprintf("c%d.txt", i), "2026-01-15", "SHOP", "45.00"))
	}

	if _, err := newTestPipeline(t, nil).Run(ctx, blocks); err == nil {
		t.Error("expected context error")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{SourceTag: "email", Workers: 0}).Validate(); err == nil {
		t.Error("zero workers should be rejected")
	}
	if err := (&Config{SourceTag: "", Workers: 1}).Validate(); err == nil {
		t.Error("empty source tag should be rejected")
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}
