package search

import "errors"

// Error definitions for the search view.
var (
	// ErrNoVectorService indicates that no vector service was provided.
	ErrNoVectorService = errors.New("vector service is required")
)
