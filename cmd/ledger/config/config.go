// Package config builds component configurations from command-line
// options, keeping flag handling out of the internal packages.
package config

import (
	"fmt"
	"io"
	"path/filepath"

	"hk-finance-reconciler/internal/extract"
	"hk-finance-reconciler/internal/models"
	"hk-finance-reconciler/internal/reconcile"
	"hk-finance-reconciler/internal/reporter"
	"hk-finance-reconciler/internal/store"
	apperrors "hk-finance-reconciler/pkg/errors"
)

// PipelineOptions are the extract command's knobs.
type PipelineOptions struct {
	SourceTag string
	Workers   int
}

// CreatePipelineConfig builds the extraction pipeline configuration.
func CreatePipelineConfig(opts PipelineOptions) (*extract.Config, error) {
	config := extract.DefaultConfig()

	if opts.SourceTag != "" {
		if opts.SourceTag != models.SourceTagEmail && opts.SourceTag != models.SourceTagPDF {
			return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig,
				"source-tag", opts.SourceTag, nil).
				WithSuggestion("use 'email' or 'pdf'")
		}
		config.SourceTag = opts.SourceTag
	}
	if opts.Workers > 0 {
		config.Workers = opts.Workers
	}

	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "pipeline", nil, err)
	}
	return config, nil
}

// CreateMergerConfig builds the reconciliation configuration.
func CreateMergerConfig(period string, banks []string) (*reconcile.Config, error) {
	config := &reconcile.Config{
		Period: period,
		Banks:  banks,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateReporterConfig builds the reporter configuration for a report
// format name.
func CreateReporterConfig(format string, output io.Writer) (*reporter.Config, error) {
	config := reporter.DefaultConfig()
	config.Output = output

	switch format {
	case "summary", "digest", "":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
	default:
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "format", format, nil).
			WithSuggestion("use 'summary', 'digest', 'csv' or 'json'")
	}

	if err := config.Validate(); err != nil {
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "reporter", nil, err)
	}
	return config, nil
}

// CreateIDStore builds the processed-ID store backend. The file
// backend keeps a JSON set, the sqlite backend a database; both live
// in the data directory.
func CreateIDStore(backend, dataDir string) (store.ProcessedIDStore, error) {
	switch backend {
	case "file", "":
		return store.NewFileIDStore(filepath.Join(dataDir, "processed_ids.json")), nil
	case "sqlite":
		s, err := store.NewSQLiteIDStore(filepath.Join(dataDir, "processed_ids.db"))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, apperrors.ConfigurationError(apperrors.CodeInvalidConfig, "id-store", backend, nil).
			WithSuggestion(fmt.Sprintf("use 'file' or 'sqlite', not '%s'", backend))
	}
}
