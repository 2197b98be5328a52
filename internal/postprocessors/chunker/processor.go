// Package chunker provides a word-bounded text chunking processor.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default number of characters per segment.
const DefaultChunkSize = 1024

// Processor splits text into segments that never break a word.
// It implements the SegmentProcessor interface.
type Processor struct {
	chunkSize int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the segment size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured segment size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Process splits text into segments.
// Input segments are ignored; this processor creates new segments from the text.
func (p *Processor) Process(_ context.Context, text string, _ []string) ([]string, error) {
	return Chunk(text, p.chunkSize), nil
}

// Chunk splits text on whitespace and packs words into segments of at most
// size characters, counting one separator per word. A word longer than size
// is emitted whole as its own segment. Empty input yields no segments.
func Chunk(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	var (
		segments []string
		current  []string
		length   int
	)

	for _, word := range words {
		n := utf8.RuneCountInString(word)
		if len(current) > 0 && length+n+1 > size {
			segments = append(segments, strings.Join(current, " "))
			current = current[:0]
			length = 0
		}
		current = append(current, word)
		length += n + 1
	}

	if len(current) > 0 {
		segments = append(segments, strings.Join(current, " "))
	}

	return segments
}
