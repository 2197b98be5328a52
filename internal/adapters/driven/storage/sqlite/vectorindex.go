package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

const metaDimensions = "dimensions"

// VectorIndex stores vectors as little-endian float32 blobs and ranks them
// in Go by cosine similarity.
type VectorIndex struct {
	store *Store

	mu         sync.Mutex
	dimensions int
}

type vectorRow struct {
	ID       string `db:"id"`
	Vector   []byte `db:"vector"`
	Metadata string `db:"metadata"`
}

// EnsureIndex records the dimensionality on first use and rejects a
// different one afterwards.
func (v *VectorIndex) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	current, err := v.loadDimensions(ctx)
	if err != nil {
		return err
	}
	if current != 0 {
		if current != dimensions {
			return fmt.Errorf("%w: index has %d, requested %d", domain.ErrDimensionMismatch, current, dimensions)
		}
		return nil
	}

	if _, err := v.store.db.ExecContext(ctx,
		"INSERT INTO index_meta (key, value) VALUES (?, ?)", metaDimensions, strconv.Itoa(dimensions),
	); err != nil {
		return fmt.Errorf("%w: save dimensions: %v", domain.ErrVectorIndexUnavailable, err)
	}
	v.dimensions = dimensions
	return nil
}

// loadDimensions returns the cached or stored dimensionality, 0 if unset (caller holds mu).
func (v *VectorIndex) loadDimensions(ctx context.Context) (int, error) {
	if v.dimensions != 0 {
		return v.dimensions, nil
	}
	var value string
	err := v.store.db.GetContext(ctx, &value, "SELECT value FROM index_meta WHERE key = ?", metaDimensions)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: load dimensions: %v", domain.ErrVectorIndexUnavailable, err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt dimensions %q", domain.ErrVectorIndexUnavailable, value)
	}
	v.dimensions = n
	return n, nil
}

func (v *VectorIndex) checkDimensions(ctx context.Context, n int) error {
	v.mu.Lock()
	dims, err := v.loadDimensions(ctx)
	v.mu.Unlock()
	if err != nil {
		return err
	}
	if dims != 0 && n != dims {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, n, dims)
	}
	return nil
}

// Upsert inserts or replaces a record.
func (v *VectorIndex) Upsert(ctx context.Context, namespace string, record domain.VectorRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
	}
	if err := v.checkDimensions(ctx, len(record.Vector)); err != nil {
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

	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO vectors (namespace, id, vector, metadata, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			vector = excluded.vector,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, namespace, record.ID, float32SliceToBytes(record.Vector), string(metaJSON), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("%w: upsert %s: %v", domain.ErrVectorIndexUnavailable, record.ID, err)
	}
	return nil
}

// Query scans namespace and ranks every record by cosine similarity.
func (v *VectorIndex) Query(
	ctx context.Context, namespace string, vector []float32, opts domain.QueryOptions,
) ([]domain.QueryMatch, error) {
	if err := v.checkDimensions(ctx, len(vector)); err != nil {
		return nil, err
	}

	var rows []vectorRow
	if err := v.store.db.SelectContext(ctx, &rows,
		"SELECT id, vector, metadata FROM vectors WHERE namespace = ?", namespace,
	); err != nil {
		return nil, fmt.Errorf("%w: query: %v", domain.ErrVectorIndexUnavailable, err)
	}

	matches := make([]domain.QueryMatch, 0, len(rows))
	for _, row := range rows {
		stored := bytesToFloat32Slice(row.Vector)
		m := domain.QueryMatch{
			ID:         row.ID,
			Similarity: domain.CosineSimilarity(vector, stored),
		}
		if opts.IncludeValues {
			m.Vector = stored
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

	return domain.RankMatches(matches, opts.TopK), nil
}

// List returns up to limit records ordered by id.
func (v *VectorIndex) List(ctx context.Context, namespace string, limit int) ([]domain.VectorRecord, error) {
	var rows []vectorRow
	if err := v.store.db.SelectContext(ctx, &rows,
		"SELECT id, vector, metadata FROM vectors WHERE namespace = ? ORDER BY id LIMIT ?", namespace, limit,
	); err != nil {
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
			Vector:    bytesToFloat32Slice(row.Vector),
			Metadata:  meta,
			Namespace: namespace,
		})
	}
	return records, nil
}

// Count returns the number of records in namespace.
func (v *VectorIndex) Count(ctx context.Context, namespace string) (int, error) {
	var n int
	if err := v.store.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM vectors WHERE namespace = ?", namespace); err != nil {
		return 0, fmt.Errorf("%w: count: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *VectorIndex) Close() error {
	return nil
}

func decodeMetadata(raw string) (map[string]any, error) {
	meta := map[string]any{}
	if raw == "" {
		return meta, nil
	}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	return meta, nil
}
