package domain

import (
	"strings"
	"time"
	"unicode"
)

// AnalysisRecord holds derived statistics for the most recently ingested document.
// Each ingestion replaces it wholesale.
type AnalysisRecord struct {
	// Filename is the uploaded file the analysis describes.
	Filename string `json:"filename"`

	// Summary is the output of the first summarizer that produced one.
	Summary string `json:"summary"`

	// Summaries maps summarizer name to its summary.
	Summaries map[string]string `json:"summaries,omitempty"`

	// Statistics holds counts and ratios.
	Statistics AnalysisStatistics `json:"statistics"`

	// Errors maps summarizer name to the reason it produced nothing.
	Errors map[string]string `json:"errors,omitempty"`

	// CreatedAt is when the analysis was computed.
	CreatedAt time.Time `json:"created_at"`
}

// AnalysisStatistics holds the numeric part of an AnalysisRecord.
type AnalysisStatistics struct {
	WordCount     int `json:"word_count"`
	SentenceCount int `json:"sentence_count"`

	// CompressionRatio belongs to the primary summary.
	CompressionRatio float64 `json:"compression_ratio"`

	// CompressionRatios maps summarizer name to its ratio.
	CompressionRatios map[string]float64 `json:"compression_ratios,omitempty"`

	// Similarity maps summarizer name to the cosine similarity between
	// the summary embedding and the source embedding.
	Similarity map[string]float64 `json:"similarity,omitempty"`
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// SentenceCount counts runs of text terminated by '.', '!' or '?', or by
// the end of the text. Runs with no letters or digits are not sentences.
func SentenceCount(text string) int {
	count := 0
	content := false
	for _, r := range text {
		switch {
		case r == '.' || r == '!' || r == '?':
			if content {
				count++
				content = false
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			content = true
		}
	}
	if content {
		count++
	}
	return count
}

// CompressionRatio returns summaryWords/sourceWords, or 0 when the
// source has no words.
func CompressionRatio(summaryWords, sourceWords int) float64 {
	if sourceWords <= 0 {
		return 0
	}
	return float64(summaryWords) / float64(sourceWords)
}
