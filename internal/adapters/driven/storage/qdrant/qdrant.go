// Package qdrant implements driven.VectorIndex on a Qdrant collection over
// its REST API. Namespaces share one collection and are separated by a
// payload filter.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/adapters/driven/httpclient"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Payload keys reserved by the adapter.
const (
	payloadNamespace = "namespace"
	payloadRecordID  = "record_id"
)

// scrollPageSize is the page size used when listing a namespace.
const scrollPageSize = 256

// Config configures the Qdrant index.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Retry      domain.RetrySettings
}

// Index is a Qdrant-backed vector index.
type Index struct {
	baseURL    string
	apiKey     string
	collection string
	client     *httpclient.Client

	mu         sync.RWMutex
	dimensions int
}

// New creates an Index. No request is made until EnsureIndex.
func New(cfg Config) *Index {
	base := cfg.URL
	if base == "" {
		base = domain.DefaultQdrantURL
	}
	collection := cfg.Collection
	if collection == "" {
		collection = domain.DefaultCollection
	}
	return &Index{
		baseURL:    strings.TrimRight(base, "/"),
		apiKey:     cfg.APIKey,
		collection: collection,
		client:     httpclient.New(httpclient.FromSettings(cfg.Retry, domain.ErrVectorIndexUnavailable)),
	}
}

type point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type filter struct {
	Must []condition `json:"must"`
}

type condition struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

func namespaceFilter(namespace string) filter {
	c := condition{Key: payloadNamespace}
	c.Match.Value = namespace
	return filter{Must: []condition{c}}
}

// PointID maps a namespaced record id to the UUID Qdrant requires.
func PointID(namespace, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(namespace+"/"+id)).String()
}

// EnsureIndex creates the collection with cosine distance if it does not
// exist, and checks the vector size if it does.
func (x *Index) EnsureIndex(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrInvalidInput)
	}

	var info struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	err := x.client.DoJSON(ctx, "GET", x.collectionURL(""), x.headers(), nil, &info)
	switch {
	case err == nil:
		if size := info.Result.Config.Params.Vectors.Size; size != 0 && size != dimensions {
			return fmt.Errorf("%w: collection %s has %d, requested %d",
				domain.ErrDimensionMismatch, x.collection, size, dimensions)
		}
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("Creating Qdrant collection %s (%d dimensions)", x.collection, dimensions)
		body := map[string]any{
			"vectors": map[string]any{"size": dimensions, "distance": "Cosine"},
		}
		if err := x.client.DoJSON(ctx, "PUT", x.collectionURL(""), x.headers(), body, nil); err != nil {
			return fmt.Errorf("create collection %s: %w", x.collection, err)
		}
		index := map[string]any{"field_name": payloadNamespace, "field_schema": "keyword"}
		if err := x.client.DoJSON(ctx, "PUT", x.collectionURL("/index"), x.headers(), index, nil); err != nil {
			logger.Warn("Qdrant payload index on %s not created: %v", payloadNamespace, err)
		}
	default:
		return fmt.Errorf("get collection %s: %w", x.collection, err)
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

// Upsert writes one point. The point id is derived from namespace and id.
func (x *Index) Upsert(ctx context.Context, namespace string, record domain.VectorRecord) error {
	if record.ID == "" {
		return fmt.Errorf("%w: record id is empty", domain.ErrInvalidInput)
	}
	if err := x.checkDimensions(len(record.Vector)); err != nil {
		return err
	}

	payload := make(map[string]any, len(record.Metadata)+2)
	for k, v := range record.Metadata {
		payload[k] = v
	}
	payload[payloadNamespace] = namespace
	payload[payloadRecordID] = record.ID

	body := map[string]any{
		"points": []point{{ID: PointID(namespace, record.ID), Vector: record.Vector, Payload: payload}},
	}
	if err := x.client.DoJSON(ctx, "PUT", x.collectionURL("/points?wait=true"), x.headers(), body, nil); err != nil {
		return fmt.Errorf("upsert %s: %w", record.ID, err)
	}
	return nil
}

// Query searches within namespace. Ordering among equal scores is Qdrant's.
func (x *Index) Query(
	ctx context.Context, namespace string, vector []float32, opts domain.QueryOptions,
) ([]domain.QueryMatch, error) {
	if opts.TopK <= 0 {
		return []domain.QueryMatch{}, nil
	}
	if err := x.checkDimensions(len(vector)); err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        opts.TopK,
		"filter":       namespaceFilter(namespace),
		"with_payload": true,
		"with_vector":  opts.IncludeValues,
	}
	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := x.client.DoJSON(ctx, "POST", x.collectionURL("/points/search"), x.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]domain.QueryMatch, 0, len(resp.Result))
	for _, p := range resp.Result {
		id, meta := splitPayload(p.Payload)
		m := domain.QueryMatch{ID: id, Similarity: p.Score}
		if opts.IncludeValues {
			m.Vector = p.Vector
		}
		if opts.IncludeMetadata {
			m.Metadata = meta
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// List returns the first limit records by id. It scrolls record ids only,
// keeping the smallest limit of them, then fetches those points with their
// vectors, so memory stays bounded by limit rather than the namespace.
func (x *Index) List(ctx context.Context, namespace string, limit int) ([]domain.VectorRecord, error) {
	if limit <= 0 {
		return []domain.VectorRecord{}, nil
	}

	var ids []string
	var offset any
	for {
		body := map[string]any{
			"filter":       namespaceFilter(namespace),
			"limit":        scrollPageSize,
			"with_payload": []string{payloadRecordID},
			"with_vector":  false,
		}
		if offset != nil {
			body["offset"] = offset
		}
		var resp struct {
			Result struct {
				Points         []scoredPoint `json:"points"`
				NextPageOffset any           `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := x.client.DoJSON(ctx, "POST", x.collectionURL("/points/scroll"), x.headers(), body, &resp); err != nil {
			return nil, fmt.Errorf("scroll: %w", err)
		}
		for _, p := range resp.Result.Points {
			id, _ := p.Payload[payloadRecordID].(string)
			ids = keepSmallest(ids, id, limit)
		}
		if resp.Result.NextPageOffset == nil {
			break
		}
		offset = resp.Result.NextPageOffset
	}
	if len(ids) == 0 {
		return []domain.VectorRecord{}, nil
	}

	pointIDs := make([]string, len(ids))
	for i, id := range ids {
		pointIDs[i] = PointID(namespace, id)
	}
	body := map[string]any{"ids": pointIDs, "with_payload": true, "with_vector": true}
	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	if err := x.client.DoJSON(ctx, "POST", x.collectionURL("/points"), x.headers(), body, &resp); err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	records := make([]domain.VectorRecord, 0, len(resp.Result))
	for _, p := range resp.Result {
		id, meta := splitPayload(p.Payload)
		records = append(records, domain.VectorRecord{
			ID:        id,
			Vector:    p.Vector,
			Metadata:  meta,
			Namespace: namespace,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// keepSmallest inserts id into the sorted slice ids, keeping at most n.
func keepSmallest(ids []string, id string, n int) []string {
	i := sort.SearchStrings(ids, id)
	if i >= n {
		return ids
	}
	if len(ids) < n {
		ids = append(ids, "")
	}
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// Count returns the exact number of points in namespace.
func (x *Index) Count(ctx context.Context, namespace string) (int, error) {
	body := map[string]any{"filter": namespaceFilter(namespace), "exact": true}
	var resp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := x.client.DoJSON(ctx, "POST", x.collectionURL("/points/count"), x.headers(), body, &resp); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return resp.Result.Count, nil
}

// Close is a no-op.
func (x *Index) Close() error {
	return nil
}

func (x *Index) collectionURL(suffix string) string {
	return x.baseURL + "/collections/" + url.PathEscape(x.collection) + suffix
}

func (x *Index) headers() map[string]string {
	if x.apiKey == "" {
		return nil
	}
	return map[string]string{"api-key": x.apiKey}
}

// splitPayload separates the record id from user metadata.
func splitPayload(payload map[string]any) (string, map[string]any) {
	meta := make(map[string]any, len(payload))
	var id string
	for k, v := range payload {
		switch k {
		case payloadRecordID:
			id, _ = v.(string)
		case payloadNamespace:
		default:
			meta[k] = v
		}
	}
	return id, meta
}
