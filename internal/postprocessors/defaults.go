package postprocessors

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/postprocessors/minwords"
)

// SummaryPipeline is the processor order used to prepare summarisation input.
var SummaryPipeline = []string{"chunker", "minwords"}

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("minwords", buildMinWords)
}

// NewSummaryPipeline builds the default chunker and min-words pipeline.
func NewSummaryPipeline(chunkSize, minWords int) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(SummaryPipeline, map[string]any{
		"chunk_size": chunkSize,
		"min_words":  minWords,
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): characters per segment (default: 1024)
func buildChunker(cfg map[string]any) (driven.SegmentProcessor, error) {
	var opts []chunker.Option

	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}

	return chunker.New(opts...), nil
}

// buildMinWords creates a min-words filter from generic config.
// Supported config keys:
//   - min_words (int): minimum words per segment (default: 10)
func buildMinWords(cfg map[string]any) (driven.SegmentProcessor, error) {
	var opts []minwords.Option

	if _, ok := cfg["min_words"]; ok {
		opts = append(opts, minwords.WithMinWords(getIntFromConfig(cfg, "min_words")))
	}

	return minwords.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
