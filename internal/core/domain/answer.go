package domain

// Answer is the result of answering one question.
type Answer struct {
	// Question is the question as asked.
	Question string `json:"question"`

	// Text is the generated answer, returned verbatim.
	Text string `json:"answer"`

	// Sources are the retrieved segments in descending similarity order.
	Sources []QueryMatch `json:"sources,omitempty"`
}
