package cmd

import (
	"fmt"
	"os"

	apperrors "hk-finance-reconciler/pkg/errors"
	"hk-finance-reconciler/pkg/logger"
)

// HandleError reports an error to the user and exits with the code
// mapped to its category.
func HandleError(err error) {
	if err == nil {
		return
	}

	if ledgerErr, ok := apperrors.AsLedgerError(err); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", ledgerErr.Message)
		if ledgerErr.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Suggestion: %s\n", ledgerErr.Suggestion)
		}

		fields := logger.Fields{
			"category": string(ledgerErr.Category),
			"code":     string(ledgerErr.Code),
		}
		for k, v := range ledgerErr.Context {
			fields[k] = v
		}
		logger.GetGlobalLogger().WithFields(fields).Debug("command failed")

		os.Exit(ledgerErr.GetExitCode())
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
