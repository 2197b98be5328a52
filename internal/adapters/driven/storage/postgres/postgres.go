// Package postgres implements driven.VectorIndex on PostgreSQL with the
// pgvector extension.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// DefaultTable is the table holding vectors.
const DefaultTable = "docqa_vectors"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Index is a pgvector-backed vector index.
type Index struct {
	db    *sqlx.DB
	table string

	mu         sync.RWMutex
	dimensions int
}

type vectorRow struct {
	ID        string          `db:"id"`
	Embedding pgvector.Vector `db:"embedding"`
	Metadata  []byte          `db:"metadata"`
	Score     float64         `db:"score"`
}

// Open connects to dsn. If table is empty DefaultTable is used.
func Open(ctx context.Context, dsn, table string) (*Index, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidInput)
	}
	if table == "" {
		table = DefaultTable
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrInvalidInput, table)
	}

	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %v", domain.ErrVectorIndexUnavailable, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return &Index{db: db, table: table}, nil
}

// EnsureIndex creates the extension and table. An existing table with a
// different vector size fails with domain.ErrDimensionMismatch.
func (x *Index) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	if _, err := x.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("%w: create extension: %v", domain.ErrVectorIndexUnavailable, err)
	}

	// dimensions is an int and table matched identPattern.
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (namespace, id)
		)`, x.table, dimensions)
	if _, err := x.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("%w: create table: %v", domain.ErrVectorIndexUnavailable, err)
	}

	// atttypmod holds the declared dimensions of a vector column.
	var existing int
	err := x.db.GetContext(ctx, &existing, `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = $1::regclass AND attname = 'embedding'`, x.table)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: inspect table: %v", domain.ErrVectorIndexUnavailable, err)
	}
	if existing > 0 && existing != dimensions {
		return fmt.Errorf("%w: table %s has %d, requested %d", domain.ErrDimensionMismatch, x.table, existing, dimensions)
	}

	x.mu.Lock()
	x.dimensions = dimensions
	x.mu.Unlock()
	return nil
}

func (x *Index) checkDimensions(n int) error {
	x.mu.RLock()
	dims := x.dimensions
	x.mu.RUnlock()
	if dims != 0 && n != dims {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, n, dims)
	}
	return nil
}

// Upsert inserts or replaces a record.
func (x *Index) Upsert(ctx context.Context, namespace string, record domain.VectorRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
	}
	if err := x.checkDimensions(len(record.Vector)); err != nil {
		return err
	}

	metadata := record.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = x.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (namespace, id, embedding, metadata, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (namespace, id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = EXCLUDED.updated_at`, x.table),
		namespace, record.ID, pgvector.NewVector(record.Vector), metaJSON)
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrVectorIndexUnavailable, record.ID, err)
	}
	return nil
}

// Query orders by similarity (1 - cosine distance) descending, then id.
// Zero-norm vectors score 0 so they rank with orthogonal ones.
func (x *Index) Query(
	ctx context.Context, namespace string, vector []float32, opts domain.QueryOptions,
) ([]domain.QueryMatch, error) {
	if opts.TopK <= 0 {
		return []domain.QueryMatch{}, nil
	}
	if err := x.checkDimensions(len(vector)); err != nil {
		return nil, err
	}

	var rows []vectorRow
	err := x.db.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, embedding, metadata, %s AS score
		FROM %s
		WHERE namespace = $1
		ORDER BY score DESC, id
		LIMIT $3`, scoreExpr, x.table),
		namespace, pgvector.NewVector(vector), opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrVectorIndexUnavailable, err)
	}

	matches := make([]domain.QueryMatch, 0, len(rows))
	for _, row := range rows {
		m := domain.QueryMatch{ID: row.ID, Similarity: clampSimilarity(row.Score)}
		if opts.IncludeValues {
			m.Vector = row.Embedding.Slice()
		}
		if opts.IncludeMetadata {
			meta, err := decodeMetadata(row.Metadata)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", row.ID, err)
			}
			m.Metadata = meta
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// List returns up to limit records ordered by id.
func (x *Index) List(ctx context.Context, namespace string, limit int) ([]domain.VectorRecord, error) {
	var rows []vectorRow
	err := x.db.SelectContext(ctx, &rows, fmt.Sprintf(`
		SELECT id, embedding, metadata, 0::float8 AS score
		FROM %s WHERE namespace = $1 ORDER BY id LIMIT $2`, x.table),
		namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", domain.ErrVectorIndexUnavailable, err)
	}

	records := make([]domain.VectorRecord, 0, len(rows))
	for _, row := range rows {
		meta, err := decodeMetadata(row.Metadata)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", row.ID, err)
		}
		records = append(records, domain.VectorRecord{
			ID:        row.ID,
			Vector:    row.Embedding.Slice(),
			Metadata:  meta,
			Namespace: namespace,
		})
	}
	return records, nil
}

// Count returns the number of records in namespace.
func (x *Index) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	if err := x.db.GetContext(ctx, &n,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE namespace = $1", x.table), namespace,
	); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return n, nil
}

// Close closes the connection pool.
func (x *Index) Close() error {
	return x.db.Close()
}

// scoreExpr turns pgvector cosine distance into similarity in [-1, 1].
// A zero-norm operand yields a NaN distance, which scores 0. Postgres
// compares NaN equal to itself, so NULLIF catches it.
const scoreExpr = `GREATEST(-1, LEAST(1, 1 - COALESCE(NULLIF(embedding <=> $2, 'NaN'::float8), 1)))`

// clampSimilarity keeps a score within [-1, 1] the way domain.CosineSimilarity does.
func clampSimilarity(s float64) float64 {
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(-1, math.Min(1, s))
}

func decodeMetadata(raw []byte) (map[string]any, error) {
	meta := map[string]any{}
	if len(raw) == 0 {
		return meta, nil
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return meta, nil
}
