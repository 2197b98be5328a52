package driven

import "context"

// Summarizer condenses text. Backends are independent and selected by configuration.
type Summarizer interface {
	// Name identifies the backend in analysis records.
	Name() string

	// Summarize returns a summary of text.
	Summarize(ctx context.Context, text string) (string, error)
}
