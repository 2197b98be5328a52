// Package minwords drops segments too short to summarise.
package minwords

import (
	"context"
	"strings"
)

// DefaultMinWords is the default minimum number of words a segment keeps.
const DefaultMinWords = 10

// Processor filters out segments with fewer than minWords words.
type Processor struct {
	minWords int
}

// Option configures the filter.
type Option func(*Processor)

// WithMinWords sets the minimum word count. Zero keeps every non-empty segment.
func WithMinWords(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.minWords = n
		}
	}
}

// New creates a new filter with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{minWords: DefaultMinWords}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "minwords"
}

// Process keeps the segments that have at least the minimum word count.
func (p *Processor) Process(_ context.Context, _ string, segments []string) ([]string, error) {
	kept := make([]string, 0, len(segments))
	for _, s := range segments {
		n := len(strings.Fields(s))
		if n == 0 || n < p.minWords {
			continue
		}
		kept = append(kept, s)
	}
	return kept, nil
}
