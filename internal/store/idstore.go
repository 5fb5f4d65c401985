package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "hk-finance-reconciler/pkg/errors"
)

// ProcessedIDStore remembers which transaction IDs have already been
// reconciled, so rerunning a period never double-counts a record.
type ProcessedIDStore interface {
	// Load reads the persisted ID set. Call once before use.
	Load() error
	// Contains reports whether an ID has been processed.
	Contains(id string) bool
	// Add marks an ID as processed. Not durable until Persist.
	Add(id string)
	// Persist writes the ID set durably.
	Persist() error
	// Close releases any underlying resources.
	Close() error
}

// FileIDStore keeps the processed-ID set in one JSON file.
type FileIDStore struct {
	path string

	mu  sync.Mutex
	ids map[string]bool
}

// NewFileIDStore creates a file-backed ID store at path.
func NewFileIDStore(path string) *FileIDStore {
	return &FileIDStore{
		path: path,
		ids:  make(map[string]bool),
	}
}

// Load implements ProcessedIDStore. A missing file means an empty set.
func (s *FileIDStore) Load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreRead, s.path, err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreCorrupt, s.path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.ids[id] = true
	}
	return nil
}

// Contains implements ProcessedIDStore.
func (s *FileIDStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Add implements ProcessedIDStore.
func (s *FileIDStore) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids[id] = true
}

// Persist implements ProcessedIDStore. The set is written sorted so
// the file diffs cleanly between runs.
func (s *FileIDStore) Persist() error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Strings(ids)

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, s.path, err)
	}
	data, err := json.MarshalIndent(ids, "", "  ")
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, s.path, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, s.path, err)
	}
	return nil
}

// Close implements ProcessedIDStore.
func (s *FileIDStore) Close() error { return nil }
