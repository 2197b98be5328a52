package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// analysisStore keeps the latest record in a single row with id 1.
type analysisStore struct {
	store *Store
}

var _ driven.AnalysisStore = (*analysisStore)(nil)

// Put replaces the stored record.
func (s *analysisStore) Put(ctx context.Context, record domain.AnalysisRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling analysis: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO analysis (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, string(body), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("saving analysis: %w", err)
	}
	return nil
}

// Get returns the stored record or domain.ErrNotFound.
func (s *analysisStore) Get(ctx context.Context) (*domain.AnalysisRecord, error) {
	var body string
	err := s.store.db.GetContext(ctx, &body, "SELECT body FROM analysis WHERE id = 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading analysis: %w", err)
	}

	var rec domain.AnalysisRecord
	if err := json.Unmarshal([]byte(body), &rec); err != nil {
		return nil, fmt.Errorf("decoding analysis: %w", err)
	}
	return &rec, nil
}
