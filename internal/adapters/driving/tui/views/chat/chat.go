// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoAnswerService indicates that no answer service was provided.
var ErrNoAnswerService = errors.New("answer service is required")

const welcome = "Ask a question about the ingested documents.\n\nCommands: /clear, /sources, /help"

// turn is one question with its answer.
type turn struct {
	question string
	answer   *domain.Answer
	err      error
}

// View is the chat transcript with a question prompt.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	prompt    *input.Prompt
	viewport  viewport.Model
	spinner   spinner.Model
	statusbar *status.Bar
	renderer  *glamour.TermRenderer

	answerService driving.AnswerService
	ctx           context.Context

	turns       []turn
	notice      string
	thinking    bool
	showSources bool
	width       int
	height      int
	ready       bool
}

// NewView creates a new chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, answerService driving.AnswerService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Spinner

	bar := status.NewBar(s, km)
	bar.SetBindings(km.ChatHelp())

	v := &View{
		styles:        s,
		keymap:        km,
		prompt:        input.NewPrompt(s, "Ask:", "What would you like to know?"),
		viewport:      viewport.New(80, 18),
		spinner:       sp,
		statusbar:     bar,
		answerService: answerService,
		ctx:           context.Background(),
		notice:        welcome,
		width:         80,
		height:        24,
	}
	v.refresh()
	return v
}

// WithContext sets the context used for answering.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.prompt.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case keymap.Matches(msg.String(), v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(msg.String(), v.keymap.PageUp):
		v.viewport.HalfPageUp()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.PageDown):
		v.viewport.HalfPageDown()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Sources):
		v.toggleSources()
		return v, nil
	case keymap.Matches(msg.String(), v.keymap.Clear):
		v.clear()
		return v, nil
	}

	// The prompt is read-only while an answer is pending.
	if v.thinking {
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		return v, v.submit()
	}

	var cmd tea.Cmd
	v.prompt, cmd = v.prompt.Update(msg)
	return v, cmd
}

// submit handles slash commands or sends the question.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.prompt.Value())
	if question == "" {
		return nil
	}
	v.prompt.Reset()

	switch question {
	case "/clear":
		v.clear()
		return nil
	case "/sources":
		v.toggleSources()
		return nil
	case "/help":
		v.notice = welcome
		v.refresh()
		return nil
	}

	v.turns = append(v.turns, turn{question: question})
	v.thinking = true
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.ask(question))
}

func (v *View) ask(question string) tea.Cmd {
	return func() tea.Msg {
		if v.answerService == nil {
			return messages.AnswerReceived{Question: question, Err: ErrNoAnswerService}
		}
		answer, err := v.answerService.Answer(v.ctx, question)
		return messages.AnswerReceived{Question: question, Answer: answer, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	if n := len(v.turns); n > 0 && v.turns[n-1].answer == nil && v.turns[n-1].err == nil {
		v.turns[n-1].answer = msg.Answer
		v.turns[n-1].err = msg.Err
	} else {
		v.turns = append(v.turns, turn{question: msg.Question, answer: msg.Answer, err: msg.Err})
	}

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
	} else {
		v.statusbar.Clear()
	}
	v.refresh()
}

func (v *View) toggleSources() {
	v.showSources = !v.showSources
	v.refresh()
}

func (v *View) clear() {
	if v.thinking {
		return
	}
	v.turns = nil
	v.notice = "Conversation cleared."
	v.statusbar.Clear()
	v.refresh()
}

// refresh re-renders the transcript and scrolls to the bottom.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render(v.notice)
	}

	var b strings.Builder
	for i := range v.turns {
		t := &v.turns[i]
		b.WriteString(v.styles.Question.Render("You: "))
		b.WriteString(t.question)
		b.WriteString("\n\n")

		switch {
		case t.err != nil:
			b.WriteString(v.styles.Error.Render("Error: " + t.err.Error()))
			b.WriteString("\n\n")
		case t.answer != nil:
			b.WriteString(v.renderMarkdown(t.answer.Text))
			b.WriteString("\n")
			if v.showSources {
				b.WriteString(v.renderSources(t.answer.Sources))
			}
			b.WriteString("\n")
		}
	}

	if v.thinking {
		b.WriteString(v.spinner.View())
		b.WriteString(" ")
		b.WriteString(v.styles.Muted.Render("Thinking..."))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderMarkdown(text string) string {
	if v.renderer == nil {
		return v.styles.Normal.Render(text)
	}
	out, err := v.renderer.Render(text)
	if err != nil {
		return v.styles.Normal.Render(text)
	}
	return strings.TrimRight(out, "\n")
}

func (v *View) renderSources(sources []domain.QueryMatch) string {
	if len(sources) == 0 {
		return v.styles.Source.Render("(no context retrieved)") + "\n"
	}
	var b strings.Builder
	for _, m := range sources {
		label := m.ID
		if doc := m.Document(); doc != "" && m.Line() >= 0 {
			label = fmt.Sprintf("%s:%d", doc, m.Line())
		}
		b.WriteString(v.styles.Source.Render(fmt.Sprintf("[%s %.2f] %s", label, m.Similarity, m.Text())))
		b.WriteString("\n")
	}
	return b.String()
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		v.styles.Title.Render("docqa chat"),
		v.viewport.View(),
		v.prompt.View(),
		v.statusbar.View(),
	)
}

// SetDimensions sizes the transcript and rebuilds the markdown renderer
// for the new wrap width.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	// Title, prompt (3 lines with border) and status bar.
	vpHeight := max(height-5, 5)
	v.viewport.Width = width
	v.viewport.Height = vpHeight
	v.prompt.SetWidth(width)
	v.statusbar.SetWidth(width)

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-4, 20))}
	if style := v.styles.Theme().Glamour; style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	if r, err := glamour.NewTermRenderer(opts...); err == nil {
		v.renderer = r
	}
	v.refresh()
}

// Turns returns the number of questions asked.
func (v *View) Turns() int {
	return len(v.turns)
}

// Thinking reports whether an answer is pending.
func (v *View) Thinking() bool {
	return v.thinking
}

// ShowSources reports whether retrieved lines are shown under answers.
func (v *View) ShowSources() bool {
	return v.showSources
}

// Transcript returns the rendered transcript without the viewport frame.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

// Reset focuses the prompt, keeping the transcript.
func (v *View) Reset() {
	v.prompt.Focus()
}
