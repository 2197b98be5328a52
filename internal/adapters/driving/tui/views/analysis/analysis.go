// Package analysis provides the view of the latest document analysis.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoAnalysisService is reported when the view has no analysis service.
var ErrNoAnalysisService = errors.New("analysis service not available")

// NoAnalysisMessage is shown before the first ingestion.
const NoAnalysisMessage = "No analysis available yet. Upload a document first."

// View shows the summary and statistics of the last ingested document.
type View struct {
	styles          *styles.Styles
	analysisService driving.AnalysisService
	ctx             context.Context

	record       *domain.AnalysisRecord
	scrollOffset int
	width        int
	height       int
	ready        bool
	loading      bool
	err          error
}

// NewView creates a new analysis view.
func NewView(s *styles.Styles, analysisService driving.AnalysisService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:          s,
		analysisService: analysisService,
		ctx:             context.Background(),
		width:           80,
		height:          24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Load fetches the latest analysis.
func (v *View) Load() tea.Cmd {
	v.loading = true
	v.err = nil
	v.scrollOffset = 0
	return func() tea.Msg {
		if v.analysisService == nil {
			return messages.AnalysisLoaded{Err: ErrNoAnalysisService}
		}
		record, err := v.analysisService.Latest(v.ctx)
		if errors.Is(err, domain.ErrNotFound) {
			return messages.AnalysisLoaded{}
		}
		return messages.AnalysisLoaded{Record: record, Err: err}
	}
}

// Update handles messages for the analysis view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnalysisLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.record = msg.Record
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "r":
		return v, v.Load()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Title, separator, help and padding.
	reserved := 6
	return max(v.height-reserved, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.buildContent())-v.visibleLines(), 0)
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.record == nil {
		return nil
	}
	r := v.record
	stats := r.Statistics

	lines := []string{
		v.formatField("File", r.Filename),
		v.formatField("Words", fmt.Sprintf("%d", stats.WordCount)),
		v.formatField("Sentences", fmt.Sprintf("%d", stats.SentenceCount)),
		v.formatField("Compression", fmt.Sprintf("%.3f", stats.CompressionRatio)),
	}
	if !r.CreatedAt.IsZero() {
		lines = append(lines, v.formatField("Analysed", r.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	}

	lines = append(lines, "", "Summary:")
	lines = append(lines, v.wrap(r.Summary, "  ")...)

	for _, name := range sortedKeys(r.Summaries) {
		if r.Summaries[name] == r.Summary {
			continue
		}
		lines = append(lines, "", fmt.Sprintf("Summary (%s):", name))
		lines = append(lines, v.wrap(r.Summaries[name], "  ")...)
	}

	if len(stats.CompressionRatios) > 0 || len(stats.Similarity) > 0 {
		lines = append(lines, "", "Summarizers:")
		names := sortedKeys(stats.CompressionRatios)
		for _, name := range sortedKeys(stats.Similarity) {
			if _, ok := stats.CompressionRatios[name]; !ok {
				names = append(names, name)
			}
		}
		for _, name := range names {
			line := fmt.Sprintf("  %s: ratio %.3f", name, stats.CompressionRatios[name])
			if sim, ok := stats.Similarity[name]; ok {
				line += fmt.Sprintf("  similarity %.3f", sim)
			}
			lines = append(lines, line)
		}
	}

	if len(r.Errors) > 0 {
		lines = append(lines, "", "Errors:")
		for _, name := range sortedKeys(r.Errors) {
			lines = append(lines, fmt.Sprintf("  %s: %s", name, r.Errors[name]))
		}
	}

	return lines
}

// wrap breaks text to the view width with the given indent.
func (v *View) wrap(text, indent string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{indent + "(empty)"}
	}
	width := max(v.width-4-len(indent), 20)
	wrapped := lipgloss.NewStyle().Width(width).Render(text)
	out := strings.Split(wrapped, "\n")
	for i := range out {
		out[i] = indent + strings.TrimRight(out[i], " ")
	}
	return out
}

// formatField formats a field for display.
func (v *View) formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// View renders the analysis view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Analysis"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading analysis..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case v.record == nil:
		b.WriteString(v.styles.Muted.Render(NoAnalysisMessage))
	default:
		lines := v.buildContent()
		visible := v.visibleLines()
		for i := v.scrollOffset; i < len(lines) && i < v.scrollOffset+visible; i++ {
			b.WriteString(v.renderLine(lines[i]))
			b.WriteString("\n")
		}
		if len(lines) > visible {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
				v.scrollOffset+1,
				min(v.scrollOffset+visible, len(lines)),
				len(lines))))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderLine styles section headings and label/value fields.
func (v *View) renderLine(line string) string {
	switch {
	case strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " "):
		return v.styles.Subtitle.Render(line)
	case strings.HasPrefix(line, " "):
		return v.styles.Normal.Render(line)
	}
	if label, value, ok := strings.Cut(line, ":"); ok {
		return v.styles.Subtitle.Render(label+":") + v.styles.Normal.Render(value)
	}
	return v.styles.Normal.Render(line)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Record returns the loaded analysis, nil if none.
func (v *View) Record() *domain.AnalysisRecord {
	return v.record
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
