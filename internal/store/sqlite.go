package store

import (
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	apperrors "hk-finance-reconciler/pkg/errors"
)

const idSchema = `
CREATE TABLE IF NOT EXISTS processed_ids (
	id TEXT PRIMARY KEY,
	added_at TEXT NOT NULL
);`

// SQLiteIDStore keeps the processed-ID set in a SQLite database. It
// suits long-lived installs where the JSON file grows past what is
// comfortable to rewrite on every run.
type SQLiteIDStore struct {
	db *sql.DB

	mu      sync.Mutex
	ids     map[string]bool
	pending []string
}

// NewSQLiteIDStore opens (creating if needed) the database at path.
func NewSQLiteIDStore(path string) (*SQLiteIDStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeStoreRead, path, err)
	}
	if _, err := db.Exec(idSchema); err != nil {
		db.Close()
		return nil, apperrors.StoreError(apperrors.CodeStoreWrite, path, err)
	}

	return &SQLiteIDStore{
		db:  db,
		ids: make(map[string]bool),
	}, nil
}

// Load implements ProcessedIDStore.
func (s *SQLiteIDStore) Load() error {
	rows, err := s.db.Query(`SELECT id FROM processed_ids`)
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreRead, "processed_ids", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return apperrors.StoreError(apperrors.CodeStoreCorrupt, "processed_ids", err)
		}
		s.ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreRead, "processed_ids", err)
	}
	return nil
}

// Contains implements ProcessedIDStore.
func (s *SQLiteIDStore) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Add implements ProcessedIDStore.
func (s *SQLiteIDStore) Add(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return
	}
	s.ids[id] = true
	s.pending = append(s.pending, id)
}

// Persist implements ProcessedIDStore. Only IDs added since the last
// Persist are written, in one transaction.
func (s *SQLiteIDStore) Persist() error {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, "processed_ids", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO processed_ids (id, added_at) VALUES (?, ?)`)
	if err != nil {
		tx.Rollback()
		return apperrors.StoreError(apperrors.CodeStoreWrite, "processed_ids", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range pending {
		if _, err := stmt.Exec(id, now); err != nil {
			tx.Rollback()
			return apperrors.StoreError(apperrors.CodeStoreWrite, "processed_ids", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.StoreError(apperrors.CodeStoreWrite, "processed_ids", err)
	}
	return nil
}

// Close implements ProcessedIDStore.
func (s *SQLiteIDStore) Close() error {
	return s.db.Close()
}
