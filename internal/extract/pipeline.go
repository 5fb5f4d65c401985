// Package extract runs raw text blocks through the vendor registry,
// categorization and validation, producing a clean record set.
package extract

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hk-finance-reconciler/internal/categorize"
	"hk-finance-reconciler/internal/dedup"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/validate"
	"hk-finance-reconciler/internal/vendors"
	"hk-finance-reconciler/pkg/logger"
)

// Config holds pipeline settings.
type Config struct {
	// SourceTag is stamped on every extracted transaction, "email" or
	// "pdf" depending on what the blocks came from.
	SourceTag string
	// Workers is the number of blocks processed concurrently.
	Workers int
}

// DefaultConfig returns the default pipeline settings.
func DefaultConfig() *Config {
	return &Config{
		SourceTag: models.SourceTagEmail,
		Workers:   4,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SourceTag == "" {
		return fmt.Errorf("source tag cannot be empty")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// FlaggedTransaction is a transaction accepted with warnings.
type FlaggedTransaction struct {
	Transaction models.Transaction
	Violations  []validate.Violation
}

// DroppedTransaction is a transaction rejected by validation.
type DroppedTransaction struct {
	Transaction models.Transaction
	Violations  []validate.Violation
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	// Transactions are the accepted records, categorized, deduplicated
	// and sorted by date. Flagged transactions are included here too.
	Transactions []models.Transaction
	// Unparsed lists the blocks no vendor claimed.
	Unparsed []models.RawTextBlock
	// Flagged lists accepted transactions that carried warnings.
	Flagged []FlaggedTransaction
	// Dropped lists transactions rejected by validation.
	Dropped []DroppedTransaction
}

// Pipeline wires the extraction stages together.
type Pipeline struct {
	registry    *vendors.Registry
	validator   *validate.Validator
	categorizer *categorize.Categorizer
	config      *Config
	logger      logger.Logger
}

// New creates a Pipeline. A nil config uses DefaultConfig.
func New(registry *vendors.Registry, validator *validate.Validator, categorizer *categorize.Categorizer, config *Config) (*Pipeline, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Pipeline{
		registry:    registry,
		validator:   validator,
		categorizer: categorizer,
		config:      config,
		logger:      logger.GetGlobalLogger().WithComponent("extract"),
	}, nil
}

// Run processes the blocks and returns the outcome. Blocks are worked
// concurrently but the outcome is deterministic: accepted transactions
// come back deduplicated and sorted by date then ID.
func (p *Pipeline) Run(ctx context.Context, blocks []models.RawTextBlock) (*Outcome, error) {
	outcome := &Outcome{}

	var mu sync.Mutex
	var wg sync.WaitGroup
	work := make(chan models.RawTextBlock)
	progress := logger.NewProgressTracker("extract", int64(len(blocks)), p.logger)

	for i := 0; i < p.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for block := range work {
				p.processBlock(block, outcome, &mu)
				progress.Increment()
			}
		}()
	}

	var cancelled error
feed:
	for _, block := range blocks {
		select {
		case work <- block:
		case <-ctx.Done():
			cancelled = ctx.Err()
			break feed
		}
	}
	close(work)
	wg.Wait()
	progress.Complete()

	if cancelled != nil {
		return nil, cancelled
	}

	outcome.Transactions = dedup.ByID(outcome.Transactions)
	sort.Slice(outcome.Transactions, func(i, j int) bool {
		a, b := outcome.Transactions[i], outcome.Transactions[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.ID < b.ID
	})

	p.logger.WithFields(logger.Fields{
		"blocks":   len(blocks),
		"accepted": len(outcome.Transactions),
		"unparsed": len(outcome.Unparsed),
		"dropped":  len(outcome.Dropped),
	}).Info("extraction complete")

	return outcome, nil
}

func (p *Pipeline) processBlock(block models.RawTextBlock, outcome *Outcome, mu *sync.Mutex) {
	txns, matched := p.registry.ExtractAll(block)

	if len(txns) == 0 {
		mu.Lock()
		outcome.Unparsed = append(outcome.Unparsed, block)
		mu.Unlock()
		if len(matched) > 0 {
			p.logger.WithFields(logger.Fields{
				"source":  block.Source,
				"matched": matched,
			}).Warn("vendor matched but extracted nothing")
		}
		return
	}

	var accepted []models.Transaction
	var flagged []FlaggedTransaction
	var dropped []DroppedTransaction

	for _, tx := range txns {
		tx.SourceTag = p.config.SourceTag
		tx.Category = p.categorizer.Categorize(tx.Description)

		result := p.validator.Validate(tx)
		if result.Fatal() {
			dropped = append(dropped, DroppedTransaction{Transaction: tx, Violations: result.Violations})
			continue
		}
		if len(result.Violations) > 0 {
			flagged = append(flagged, FlaggedTransaction{Transaction: tx, Violations: result.Violations})
		}
		accepted = append(accepted, tx)
	}

	mu.Lock()
	outcome.Transactions = append(outcome.Transactions, accepted...)
	outcome.Flagged = append(outcome.Flagged, flagged...)
	outcome.Dropped = append(outcome.Dropped, dropped...)
	mu.Unlock()
}
