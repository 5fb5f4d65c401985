package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	ledgerconfig "hk-finance-reconciler/cmd/ledger/config"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/reconcile"
	"hk-finance-reconciler/internal/store"
	apperrors "hk-finance-reconciler/pkg/errors"
)

var (
	reconcilePeriod  string
	reconcileBanks   []string
	reconcileIDStore string
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Merge a period's email and statement record sets",
	Long: `Reconcile loads the period's email record set and the statement
record sets of the selected banks, merges records that appear in both
views, and writes the combined result under reconciled/.

Sources without a record set contribute zero records; a period can be
reconciled before all statements have arrived and rerun later.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := models.ValidatePeriodKey(reconcilePeriod); err != nil {
			return apperrors.ConfigurationError(apperrors.CodeInvalidPeriod, "period", reconcilePeriod, err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVarP(&reconcilePeriod, "period", "p", "", "period to reconcile, YYYY-MM (required)")
	reconcileCmd.Flags().StringSliceVarP(&reconcileBanks, "banks", "b", nil,
		fmt.Sprintf("banks to include (default %v)", store.DefaultBanks))
	reconcileCmd.Flags().StringVar(&reconcileIDStore, "id-store", "file", "processed-ID backend: file or sqlite")

	reconcileCmd.MarkFlagRequired("period")
}

func runReconcile(cmd *cobra.Command) error {
	dataDir := resolveDataDir()

	mergerConfig, err := ledgerconfig.CreateMergerConfig(reconcilePeriod, reconcileBanks)
	if err != nil {
		return err
	}

	idStore, err := ledgerconfig.CreateIDStore(reconcileIDStore, dataDir)
	if err != nil {
		return err
	}
	defer idStore.Close()

	if err := idStore.Load(); err != nil {
		return err
	}

	merger, err := reconcile.NewMerger(
		mergerConfig,
		store.NewSourceStore(dataDir, nil),
		store.NewResultStore(dataDir),
		idStore,
	)
	if err != nil {
		return err
	}

	result, err := merger.Run(cmd.Context())
	if err != nil {
		return err
	}

	matched := result.EmailCount + result.PDFCount - result.MergedCount
	fmt.Printf("Reconciled %s: %d records (%d email, %d statement, %d matched in both, %d statement only)\n",
		result.PeriodKey, result.MergedCount, result.EmailCount, result.PDFCount, matched, result.PDFOnlyCount)
	if groups := merger.Recurring(); len(groups) > 0 {
		fmt.Printf("Detected %d recurring charge group(s); see 'ledger report --format digest'\n", len(groups))
	}
	return nil
}
