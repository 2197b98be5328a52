package driven

// PromptStore provides access to LLM prompt templates.
type PromptStore interface {
	// Load returns the prompt template for the given name, falling back
	// to the built-in default when no custom template exists.
	Load(name string) (string, error)

	// Reload clears any cached prompts so edits on disk take effect.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system message for retrieval-augmented answering.
	// It has no placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser carries the retrieved context and the question.
	// It expects two %s placeholders: context, then question.
	PromptAnswerUser = "answer_user"

	// PromptSummarize asks for a summary of one segment.
	// It expects a single %s placeholder for the segment text.
	PromptSummarize = "summarize"
)
