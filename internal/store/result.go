package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hk-finance-reconciler/internal/models"
	apperrors "hk-finance-reconciler/pkg/errors"
)

// ResultStore persists completed reconciliation results under the
// reconciled/ subdirectory of the data directory.
type ResultStore struct {
	dataDir string
}

// NewResultStore creates a ResultStore rooted at dataDir.
func NewResultStore(dataDir string) *ResultStore {
	return &ResultStore{dataDir: dataDir}
}

// Path returns the result file path for a period.
func (s *ResultStore) Path(period string) string {
	return filepath.Join(s.dataDir, "reconciled", fmt.Sprintf("%s-complete.json", period))
}

// CSVPath returns the CSV export path written next to the result file.
func (s *ResultStore) CSVPath(period string) string {
	return filepath.Join(s.dataDir, "reconciled", fmt.Sprintf("%s-complete.csv", period))
}

// Save writes a reconciliation result.
func (s *ResultStore) Save(result models.ReconciliationResult) error {
	path := s.Path(result.PeriodKey)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}
	return nil
}

// Load reads the reconciliation result for a period. The boolean
// reports whether a result exists.
func (s *ResultStore) Load(period string) (models.ReconciliationResult, bool, error) {
	path := s.Path(period)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.ReconciliationResult{}, false, nil
	}
	if err != nil {
		return models.ReconciliationResult{}, false, apperrors.StoreError(apperrors.CodeStoreRead, path, err)
	}

	var result models.ReconciliationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return models.ReconciliationResult{}, false, apperrors.StoreError(apperrors.CodeStoreCorrupt, path, err)
	}
	return result, true, nil
}
