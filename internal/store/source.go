// Package store persists the pipeline's record sets: per-source
// transaction files, the processed-ID cache that keeps reruns
// idempotent, and the final reconciliation results.
//
// The on-disk layout under the data directory is
//
//	<period>-email.json             email record set
//	<period>/<bank>.json            one statement record set per bank
//	reconciled/<period>-complete.json
//	processed_ids.json              or processed_ids.db for sqlite
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"hk-finance-reconciler/internal/models"
	apperrors "hk-finance-reconciler/pkg/errors"
	"hk-finance-reconciler/pkg/logger"
)

// DefaultBanks lists the statement sources consulted when the caller
// does not narrow them.
var DefaultBanks = []string{"hsbc", "boc", "zabank", "mox", "aeon"}

// SourceStore reads and writes per-source transaction record sets.
type SourceStore struct {
	dataDir string
	logger  logger.Logger
}

// NewSourceStore creates a SourceStore rooted at dataDir.
func NewSourceStore(dataDir string, log logger.Logger) *SourceStore {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &SourceStore{
		dataDir: dataDir,
		logger:  log.WithComponent("store"),
	}
}

// EmailPath returns the email record set path for a period.
func (s *SourceStore) EmailPath(period string) string {
	return filepath.Join(s.dataDir, fmt.Sprintf("%s-email.json", period))
}

// BankPath returns the statement record set path for a period and bank.
func (s *SourceStore) BankPath(period, bank string) string {
	return filepath.Join(s.dataDir, period, fmt.Sprintf("%s.json", bank))
}

// SaveEmail writes the email record set for a period.
func (s *SourceStore) SaveEmail(period string, txns []models.Transaction) error {
	return s.save(s.EmailPath(period), txns)
}

// LoadEmail reads the email record set for a period. A missing file is
// not an error: the period simply has no email records yet.
func (s *SourceStore) LoadEmail(period string) ([]models.Transaction, error) {
	return s.load(s.EmailPath(period))
}

// SaveBank writes one bank's statement record set for a period.
func (s *SourceStore) SaveBank(period, bank string, txns []models.Transaction) error {
	return s.save(s.BankPath(period, bank), txns)
}

// LoadBank reads one bank's statement record set. A missing file
// yields zero records.
func (s *SourceStore) LoadBank(period, bank string) ([]models.Transaction, error) {
	return s.load(s.BankPath(period, bank))
}

// LoadBanks reads and concatenates the statement record sets of the
// given banks, in the order given. Banks without a file contribute
// nothing.
func (s *SourceStore) LoadBanks(period string, banks []string) ([]models.Transaction, error) {
	var combined []models.Transaction
	for _, bank := range banks {
		txns, err := s.LoadBank(period, bank)
		if err != nil {
			return nil, err
		}
		combined = append(combined, txns...)
	}
	return combined, nil
}

func (s *SourceStore) save(path string, txns []models.Transaction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}

	data, err := json.MarshalIndent(txns, "", "  ")
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}

	s.logger.WithFields(logger.Fields{"path": path, "count": len(txns)}).Debug("record set written")
	return nil
}

func (s *SourceStore) load(path string) ([]models.Transaction, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeStoreRead, path, err)
	}

	var txns []models.Transaction
	if err := json.Unmarshal(data, &txns); err != nil {
		return nil, apperrors.StoreError(apperrors.CodeStoreCorrupt, path, err)
	}
	return txns, nil
}
