package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
)

func newTestPorts() *Ports {
	return &Ports{
		Answer:  &MockAnswerService{},
		Vectors: &MockVectorService{},
		Document: &MockDocumentService{
			docs:  []domain.DocumentRecord{{Name: "report", Filename: "report.pdf", Status: domain.IngestStatusSuccess}},
			texts: map[string]string{"report": "Revenue grew."},
		},
		Analysis: &MockAnalysisService{},
	}
}

// plainStyles renders markdown without ANSI escapes.
func plainStyles() *styles.Styles {
	theme := styles.DefaultTheme()
	theme.Glamour = "notty"
	return styles.NewStyles(theme)
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewAppWithStyles(newTestPorts(), plainStyles())
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app
}

// drive feeds msg to the app and then follows the app's own messages
// produced by the returned commands. Cursor blinks and batches stop it.
func drive(app *App, msg tea.Msg) {
	for msg != nil {
		_, cmd := app.Update(msg)
		if cmd == nil {
			return
		}
		msg = cmd()
		switch msg.(type) {
		case messages.ViewChanged, messages.DocumentsLoaded, messages.DocumentSelected,
			messages.DocumentContentLoaded, messages.AnalysisLoaded, messages.SettingsLoaded,
			messages.SearchCompleted, messages.AnswerReceived:
		default:
			return
		}
	}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestPorts())

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Vectors: &MockVectorService{}})

	assert.ErrorIs(t, err, ErrMissingAnswerService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
}

func TestApp_Init(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	assert.NotNil(t, app.Init())
}

func TestApp_WindowSize(t *testing.T) {
	app, _ := NewApp(newTestPorts())

	app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "docqa")
}

func TestApp_ViewSwitching(t *testing.T) {
	tests := []struct {
		view     messages.ViewType
		contains string
	}{
		{messages.ViewChat, "Ask:"},
		{messages.ViewSearch, "docqa search"},
		{messages.ViewDocuments, "report"},
		{messages.ViewAnalysis, "No analysis available yet"},
		{messages.ViewSettings, "Settings"},
		{messages.ViewHelp, "Help"},
		{messages.ViewMenu, "Question answering"},
	}

	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			app := newTestApp(t)

			drive(app, messages.ViewChanged{View: tt.view})

			assert.Equal(t, tt.view, app.CurrentView())
			assert.Contains(t, app.View(), tt.contains)
		})
	}
}

func TestApp_MenuSelectsChat(t *testing.T) {
	app := newTestApp(t)

	drive(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, messages.ViewChat, app.CurrentView())
}

func TestApp_ChatRoundTrip(t *testing.T) {
	ports := newTestPorts()
	answers := ports.Answer.(*MockAnswerService)
	answers.answer = &domain.Answer{Question: "what grew?", Text: "Revenue grew."}
	app, err := NewAppWithStyles(ports, plainStyles())
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	drive(app, messages.ViewChanged{View: messages.ViewChat})

	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("what grew?")})
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	// The batch holds the spinner tick and the question; run the question.
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(messages.AnswerReceived); ok {
			app.Update(msg)
		}
	}

	assert.Equal(t, []string{"what grew?"}, answers.asked)
	assert.Contains(t, app.chatView.Transcript(), "Revenue grew.")
}

func TestApp_AnswerRoutedWhileAway(t *testing.T) {
	app := newTestApp(t)
	drive(app, messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.AnswerReceived{Question: "q", Answer: &domain.Answer{Text: "late"}})

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
}

func TestApp_DocumentFlow(t *testing.T) {
	app := newTestApp(t)
	drive(app, messages.ViewChanged{View: messages.ViewDocuments})

	drive(app, messages.DocumentSelected{Document: domain.DocumentRecord{Name: "report", Filename: "report.pdf"}})

	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	assert.Contains(t, app.View(), "Revenue grew.")

	drive(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}

func TestApp_HelpEsc(t *testing.T) {
	app := newTestApp(t)
	drive(app, messages.ViewChanged{View: messages.ViewHelp})

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Quit(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
	}{
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}},
		{"quit message", messages.Quit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			_, cmd := app.Update(tt.msg)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.Quit(), cmd())
		})
	}
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)
	drive(app, messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: domain.ErrVectorIndexUnavailable})

	assert.ErrorIs(t, app.Err(), domain.ErrVectorIndexUnavailable)
}

func TestNewAppWithStyles_NilUsesDefaults(t *testing.T) {
	app, err := NewAppWithStyles(newTestPorts(), nil)

	require.NoError(t, err)
	require.NotNil(t, app.styles)
	assert.Equal(t, "dark", app.styles.Theme().Glamour)
}
