package driven

import "context"

// SegmentProcessor transforms the segments that feed summarization.
// Processors are chained in a pipeline (chunking, filtering).
type SegmentProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes the full text and the segments produced so far.
	// A processor that creates segments (the chunker) ignores the input
	// segments; a filter returns a subset of them.
	Process(ctx context.Context, text string, segments []string) ([]string, error)
}

// SegmentPipeline chains SegmentProcessors.
type SegmentPipeline interface {
	// Process runs text through all processors and returns the final segments.
	Process(ctx context.Context, text string) ([]string, error)
}
