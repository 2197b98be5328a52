// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewChat is the question and answer transcript.
	ViewChat
	// ViewSearch runs raw similarity searches.
	ViewSearch
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewDocContent shows the extracted text of a document.
	ViewDocContent
	// ViewAnalysis shows the latest summary and statistics.
	ViewAnalysis
	// ViewSettings is the provider and index configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewChat:
		return "chat"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewDocContent:
		return "doc_content"
	case ViewAnalysis:
		return "analysis"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AnswerReceived carries the answer to a chat question.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// SearchCompleted carries similarity matches back to the model.
type SearchCompleted struct {
	Query   string
	Matches []domain.QueryMatch
	Err     error
}

// DocumentsLoaded carries the document registry.
type DocumentsLoaded struct {
	Documents []domain.DocumentRecord
	Err       error
}

// DocumentSelected signals a document was selected.
type DocumentSelected struct {
	Document domain.DocumentRecord
}

// DocumentContentLoaded carries the extracted text of a document.
type DocumentContentLoaded struct {
	Name    string
	Content string
	Err     error
}

// AnalysisLoaded carries the latest analysis record. Record is nil when
// nothing has been ingested yet.
type AnalysisLoaded struct {
	Record *domain.AnalysisRecord
	Err    error
}

// SettingsLoaded carries the application settings.
type SettingsLoaded struct {
	Settings *domain.AppSettings
	Err      error
}

// SettingsSaved signals settings were saved.
type SettingsSaved struct {
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
