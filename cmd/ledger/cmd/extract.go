package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	ledgerconfig "hk-finance-reconciler/cmd/ledger/config"
	"hk-finance-reconciler/internal/categorize"
	"hk-finance-reconciler/internal/extract"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/normalize"
	"hk-finance-reconciler/internal/store"
	"hk-finance-reconciler/internal/validate"
	"hk-finance-reconciler/internal/vendors"
	apperrors "hk-finance-reconciler/pkg/errors"
	"hk-finance-reconciler/pkg/logger"
)

const (
	metadataMarker = "EMAIL_METADATA"
	contentMarker  = "===CONTENT==="
)

var (
	extractInputDir  string
	extractPeriod    string
	extractSourceTag string
	extractBank      string
	extractWorkers   int
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract transactions from text files into a record set",
	Long: `Extract reads every .txt file under the input directory, runs each
through the vendor pattern library, and saves the accepted transactions
as the period's record set.

Email exports may carry an EMAIL_METADATA header naming the message
date; statement text falls back to the period for its year.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if extractInputDir == "" {
			return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "input-dir", "", nil).
				WithSuggestion("pass --input-dir pointing at the exported text files")
		}
		if err := models.ValidatePeriodKey(extractPeriod); err != nil {
			return apperrors.ConfigurationError(apperrors.CodeInvalidPeriod, "period", extractPeriod, err)
		}
		if extractSourceTag == models.SourceTagPDF && extractBank == "" {
			return apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "bank", "", nil).
				WithSuggestion("statement extraction needs --bank to name the record set")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.Context())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractInputDir, "input-dir", "i", "", "directory of .txt files to extract (required)")
	extractCmd.Flags().StringVarP(&extractPeriod, "period", "p", "", "period to extract into, YYYY-MM (required)")
	extractCmd.Flags().StringVarP(&extractSourceTag, "source-tag", "s", models.SourceTagEmail, "source of the files: email or pdf")
	extractCmd.Flags().StringVarP(&extractBank, "bank", "b", "", "bank name for statement record sets")
	extractCmd.Flags().IntVarP(&extractWorkers, "workers", "w", 0, "concurrent extraction workers")

	extractCmd.MarkFlagRequired("input-dir")
	extractCmd.MarkFlagRequired("period")
}

func runExtract(ctx context.Context) error {
	log := logger.GetGlobalLogger().WithComponent("extract-cmd")

	pipelineConfig, err := ledgerconfig.CreatePipelineConfig(ledgerconfig.PipelineOptions{
		SourceTag: extractSourceTag,
		Workers:   extractWorkers,
	})
	if err != nil {
		return err
	}

	blocks, err := readBlocks(extractInputDir, extractPeriod)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		log.WithField("input_dir", extractInputDir).Warn("no .txt files found")
	}

	pipeline, err := extract.New(vendors.NewRegistry(nil), validate.New(), categorize.New(nil), pipelineConfig)
	if err != nil {
		return apperrors.WrapIfNeeded(err, apperrors.CategoryConfiguration, apperrors.CodeInvalidConfig, "building pipeline")
	}

	outcome, err := pipeline.Run(ctx, blocks)
	if err != nil {
		return apperrors.WrapIfNeeded(err, apperrors.CategoryExtract, apperrors.CodeBadTextBlock, "extraction failed")
	}

	for _, dropped := range outcome.Dropped {
		log.WithFields(logger.Fields{
			"source":     dropped.Transaction.SourceFile,
			"violations": len(dropped.Violations),
		}).Warn("transaction rejected by validation")
	}
	for _, block := range outcome.Unparsed {
		log.WithField("source", block.Source).Warn("no vendor claimed block")
	}

	sources := store.NewSourceStore(resolveDataDir(), nil)
	if extractSourceTag == models.SourceTagPDF {
		err = sources.SaveBank(extractPeriod, extractBank, outcome.Transactions)
	} else {
		err = sources.SaveEmail(extractPeriod, outcome.Transactions)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %d transactions from %d files (%d unparsed, %d dropped)\n",
		len(outcome.Transactions), len(blocks), len(outcome.Unparsed), len(outcome.Dropped))
	return nil
}

// readBlocks loads every .txt file under dir into a raw text block.
// Files are visited in lexical order so runs are reproducible.
func readBlocks(dir, period string) ([]models.RawTextBlock, error) {
	var blocks []models.RawTextBlock

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return apperrors.FileError(apperrors.CodeDirectoryError, dir, err)
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".txt") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return apperrors.FileError(apperrors.CodeFilePermission, path, err)
		}

		block := parseBlock(d.Name(), string(data), period)
		blocks = append(blocks, block)
		return nil
	})
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryFile, apperrors.CodeDirectoryError, "reading input directory")
	}
	return blocks, nil
}

// parseBlock splits an optional EMAIL_METADATA header off the body.
// The header carries "Key: value" lines, of which Date is used, and
// ends at the content marker. Files without the header are taken
// whole, dated by the period so yearless statement rows resolve.
func parseBlock(name, text, period string) models.RawTextBlock {
	block := models.RawTextBlock{
		Source: name,
		Text:   text,
		Date:   period + "-01",
	}

	if !strings.HasPrefix(strings.TrimSpace(text), metadataMarker) {
		return block
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == contentMarker {
			block.Text = strings.Join(lines[i+2:], "\n")
			break
		}
		if key, value, found := strings.Cut(trimmed, ":"); found {
			if strings.EqualFold(strings.TrimSpace(key), "date") {
				block.Date = normalize.Date(strings.TrimSpace(value))
			}
		}
	}
	return block
}
