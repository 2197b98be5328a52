package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

type documentRow struct {
	Name           string `db:"name"`
	Filename       string `db:"filename"`
	MIMEType       string `db:"mime_type"`
	TextPath       string `db:"text_path"`
	Lines          int    `db:"lines"`
	RecordsWritten int    `db:"records_written"`
	Status         string `db:"status"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (r documentRow) toDomain() domain.DocumentRecord {
	return domain.DocumentRecord{
		Name:           r.Name,
		Filename:       r.Filename,
		MIMEType:       r.MIMEType,
		TextPath:       r.TextPath,
		Lines:          r.Lines,
		RecordsWritten: r.RecordsWritten,
		Status:         domain.IngestStatus(r.Status),
		CreatedAt:      parseTime(r.CreatedAt),
		UpdatedAt:      parseTime(r.UpdatedAt),
	}
}

// Save stores or replaces a record.
func (s *documentStore) Save(ctx context.Context, record domain.DocumentRecord) error {
	row := documentRow{
		Name:           record.Name,
		Filename:       record.Filename,
		MIMEType:       record.MIMEType,
		TextPath:       record.TextPath,
		Lines:          record.Lines,
		RecordsWritten: record.RecordsWritten,
		Status:         string(record.Status),
		CreatedAt:      formatTime(record.CreatedAt),
		UpdatedAt:      formatTime(record.UpdatedAt),
	}

	_, err := s.store.db.NamedExecContext(ctx, `
		INSERT INTO documents (name, filename, mime_type, text_path, lines, records_written, status, created_at, updated_at)
		VALUES (:name, :filename, :mime_type, :text_path, :lines, :records_written, :status, :created_at, :updated_at)
		ON CONFLICT(name) DO UPDATE SET
			filename = excluded.filename,
			mime_type = excluded.mime_type,
			text_path = excluded.text_path,
			lines = excluded.lines,
			records_written = excluded.records_written,
			status = excluded.status,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, row)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// Get retrieves a record by name.
func (s *documentStore) Get(ctx context.Context, name string) (*domain.DocumentRecord, error) {
	var row documentRow
	err := s.store.db.GetContext(ctx, &row, "SELECT * FROM documents WHERE name = ?", name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	rec := row.toDomain()
	return &rec, nil
}

// List returns all records, most recently updated first.
func (s *documentStore) List(ctx context.Context) ([]domain.DocumentRecord, error) {
	var rows []documentRow
	if err := s.store.db.SelectContext(ctx, &rows,
		"SELECT * FROM documents ORDER BY updated_at DESC, name ASC",
	); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	docs := make([]domain.DocumentRecord, len(rows))
	for i, row := range rows {
		docs[i] = row.toDomain()
	}
	return docs, nil
}
