package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	ledgerconfig "hk-finance-reconciler/cmd/ledger/config"
	"hk-finance-reconciler/internal/dedup"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/reporter"
	"hk-finance-reconciler/internal/store"
	apperrors "hk-finance-reconciler/pkg/errors"
)

var (
	reportPeriod string
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report on a reconciled period",
	Long: `Report renders a reconciled period. The summary format shows income,
expense and the category breakdown; digest shows the top expenses and
subscription warnings; csv exports the transactions; json emits the
summary as machine-readable output.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := models.ValidatePeriodKey(reportPeriod); err != nil {
			return apperrors.ConfigurationError(apperrors.CodeInvalidPeriod, "period", reportPeriod, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportPeriod, "period", "p", "", "period to report on, YYYY-MM (required)")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "summary", "report format: summary, digest, csv or json")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to a file instead of stdout")

	reportCmd.MarkFlagRequired("period")
}

func runReport() error {
	results := store.NewResultStore(resolveDataDir())

	result, ok, err := results.Load(reportPeriod)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.FileError(apperrors.CodeFileNotFound, results.Path(reportPeriod), nil).
			WithSuggestion("run 'ledger reconcile' for this period first")
	}

	var output io.Writer = os.Stdout
	if reportOutput != "" {
		f, err := os.Create(reportOutput)
		if err != nil {
			return apperrors.FileError(apperrors.CodeFilePermission, reportOutput, err)
		}
		defer f.Close()
		output = f
	}

	reporterConfig, err := ledgerconfig.CreateReporterConfig(reportFormat, output)
	if err != nil {
		return err
	}
	generator, err := reporter.NewGenerator(reporterConfig)
	if err != nil {
		return err
	}

	if reportFormat == "digest" {
		recurring := dedup.FindRecurring(result.Transactions)
		return generator.WriteDigest(result, recurring)
	}
	return generator.WriteSummary(result)
}
