// Package settings provides the settings configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docqa/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrNoSettingsService is reported when the view has no settings service.
var ErrNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionIndex
	SectionEmbedding
	SectionLLM
)

const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// providerPicker is the provider list plus API key input shared by the
// embedding and LLM sections.
type providerPicker struct {
	title     string
	providers []domain.AIProvider
	defaults  map[domain.AIProvider]string
	input     textinput.Model

	current func(*domain.AppSettings) domain.AIProvider
	save    func(svc driving.SettingsService, p domain.AIProvider, model, apiKey string) error
}

func newProviderPicker(title string, providers []domain.AIProvider, defaults map[domain.AIProvider]string) *providerPicker {
	in := textinput.New()
	in.Placeholder = "Enter API key"
	in.EchoMode = textinput.EchoPassword
	in.CharLimit = 256
	return &providerPicker{title: title, providers: providers, defaults: defaults, input: in}
}

// index returns the position of the configured provider, or 0.
func (p *providerPicker) index(s *domain.AppSettings) int {
	if s == nil {
		return 0
	}
	cur := p.current(s)
	for i, pr := range p.providers {
		if pr == cur {
			return i
		}
	}
	return 0
}

func (p *providerPicker) needsKey(i int) bool {
	return i >= 0 && i < len(p.providers) && p.providers[i].RequiresAPIKey()
}

func (p *providerPicker) clear() {
	p.input.SetValue("")
	p.input.Blur()
}

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error

	section  Section
	selected int

	// keyFocused is set while the API key input has focus.
	keyFocused bool

	embedding *providerPicker
	llm       *providerPicker

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	embedding := newProviderPicker("Embedding", domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())
	embedding.current = func(a *domain.AppSettings) domain.AIProvider { return a.Embedding.Provider }
	embedding.save = func(svc driving.SettingsService, p domain.AIProvider, model, key string) error {
		return svc.SetEmbeddingProvider(p, model, key)
	}

	llm := newProviderPicker("LLM", domain.AllLLMProviders(), domain.DefaultLLMModels())
	llm.current = func(a *domain.AppSettings) domain.AIProvider { return a.LLM.Provider }
	llm.save = func(svc driving.SettingsService, p domain.AIProvider, model, key string) error {
		return svc.SetLLMProvider(p, model, key)
	}

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		embedding:       embedding,
		llm:             llm,
	}
}

// Init initialises the view and loads settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.SettingsLoaded:
		v.err = msg.Err
		if msg.Err == nil {
			v.settings = msg.Settings
		}
		return v, nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.backToOverview()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.String() == "esc" {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		v.handleOverviewKeys(msg)
		return v, nil
	case SectionIndex:
		return v, v.handleIndexKeys(msg)
	case SectionEmbedding:
		return v, v.handleProviderKeys(v.embedding, msg)
	case SectionLLM:
		return v, v.handleProviderKeys(v.llm, msg)
	}
	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) {
	switch msg.String() {
	case keyUp, "k":
		v.move(-1, 3)
	case keyDown, "j":
		v.move(1, 3)
	case keyEnter:
		switch v.selected {
		case 0:
			v.section = SectionIndex
			v.selected = v.indexBackendIndex()
		case 1:
			v.section = SectionEmbedding
			v.selected = v.embedding.index(v.settings)
		case 2:
			v.section = SectionLLM
			v.selected = v.llm.index(v.settings)
		}
	}
}

func (v *View) handleIndexKeys(msg tea.KeyMsg) tea.Cmd {
	backends := domain.AllIndexBackends()

	switch msg.String() {
	case keyUp, "k":
		v.move(-1, len(backends))
	case keyDown, "j":
		v.move(1, len(backends))
	case keyEnter:
		if v.selected >= 0 && v.selected < len(backends) {
			backend := backends[v.selected]
			return v.save(func(svc driving.SettingsService) error {
				return svc.Set("index.backend", string(backend))
			})
		}
	}
	return nil
}

func (v *View) handleProviderKeys(p *providerPicker, msg tea.KeyMsg) tea.Cmd {
	if v.keyFocused {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.keyFocused = false
			p.input.Blur()
			return nil
		case keyEnter:
			return v.saveProvider(p, p.input.Value())
		default:
			var cmd tea.Cmd
			p.input, cmd = p.input.Update(msg)
			return cmd
		}
	}

	switch msg.String() {
	case keyUp, "k":
		v.move(-1, len(p.providers))
	case keyDown, "j":
		v.move(1, len(p.providers))
	case keyTab, keyEnter:
		if p.needsKey(v.selected) {
			v.keyFocused = true
			return p.input.Focus()
		}
		if msg.String() == keyEnter {
			return v.saveProvider(p, "")
		}
	}
	return nil
}

func (v *View) saveProvider(p *providerPicker, apiKey string) tea.Cmd {
	if v.selected < 0 || v.selected >= len(p.providers) {
		return nil
	}
	provider := p.providers[v.selected]
	model := p.defaults[provider]
	return v.save(func(svc driving.SettingsService) error {
		return p.save(svc, provider, model, apiKey)
	})
}

// save runs fn against the settings service off the update loop.
func (v *View) save(fn func(driving.SettingsService) error) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: fn(svc)}
	}
}

func (v *View) move(delta, n int) {
	next := v.selected + delta
	if next >= 0 && next < n {
		v.selected = next
	}
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.keyFocused = false
	v.embedding.clear()
	v.llm.clear()
}

func (v *View) indexBackendIndex() int {
	if v.settings == nil {
		return 0
	}
	for i, b := range domain.AllIndexBackends() {
		if b == v.settings.Index.Backend {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionIndex:
		b.WriteString(v.renderIndexSelect())
	case SectionEmbedding:
		b.WriteString(v.renderProviderSelect(v.embedding))
	case SectionLLM:
		b.WriteString(v.renderProviderSelect(v.llm))
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderRow writes one selectable row.
func (v *View) renderRow(b *strings.Builder, text string, selected bool) {
	if selected {
		b.WriteString(v.styles.Selected.Render("> " + text))
	} else {
		b.WriteString(v.styles.Normal.Render("  " + text))
	}
	b.WriteString("\n")
}

func (v *View) renderOverview() string {
	var b strings.Builder
	s := v.settings

	rows := []string{
		"Vector Index: " + s.Index.Backend.Description(),
		"Embedding Provider: " + providerValue(s.Embedding.Provider, s.Embedding.Model) + " " +
			v.configuredStatus(s.Embedding.IsConfigured()),
		"LLM Provider: " + providerValue(s.LLM.Provider, s.LLM.Model) + " " +
			v.configuredStatus(s.LLM.IsConfigured()),
	}
	for i, row := range rows {
		v.renderRow(&b, row, i == v.selected)
	}

	b.WriteString("\n")
	if v.settingsService != nil {
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}

	return b.String()
}

func providerValue(p domain.AIProvider, model string) string {
	if p == "" {
		return "Not Set"
	}
	return fmt.Sprintf("%s (%s)", p.Description(), model)
}

func (v *View) configuredStatus(ok bool) string {
	if ok {
		return v.styles.Success.Render("[configured]")
	}
	return v.styles.Warning.Render("[not configured]")
}

func (v *View) renderIndexSelect() string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render("Select Vector Index"))
	b.WriteString("\n\n")

	for i, backend := range domain.AllIndexBackends() {
		text := backend.Description()
		if backend == v.settings.Index.Backend {
			text += v.styles.Success.Render(" (current)")
		}
		v.renderRow(&b, text, i == v.selected)

		if need := v.indexRequirement(backend); need != "" {
			b.WriteString(v.styles.Muted.Render("    Requires: " + need))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Changes apply on the next start of the server."))
	b.WriteString("\n")

	return b.String()
}

// indexRequirement names the setting a backend still needs, if any.
func (v *View) indexRequirement(backend domain.IndexBackend) string {
	switch backend {
	case domain.IndexBackendQdrant:
		if v.settings.Index.QdrantURL == "" {
			return "index.qdrant_url"
		}
	case domain.IndexBackendPGVector:
		if v.settings.Index.PostgresDSN == "" {
			return "index.postgres_dsn"
		}
	}
	return ""
}

func (v *View) renderProviderSelect(p *providerPicker) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render("Select " + p.title + " Provider"))
	b.WriteString("\n\n")

	current := p.current(v.settings)
	for i, provider := range p.providers {
		text := provider.Description()
		if provider == current {
			text += v.styles.Success.Render(" (current)")
		}
		v.renderRow(&b, text, i == v.selected && !v.keyFocused)

		if model, ok := p.defaults[provider]; ok {
			b.WriteString(v.styles.Muted.Render("    Model: " + model))
			b.WriteString("\n")
		}
	}

	if p.needsKey(v.selected) {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(p.input.View())
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderHelp() string {
	switch v.section {
	case SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case SectionIndex:
		return v.styles.Help.Render("[j/k] navigate  [enter] select  [esc] back")
	case SectionEmbedding, SectionLLM:
		if v.keyFocused {
			return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
		}
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	default:
		return ""
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Selected returns the selection within the active section.
func (v *View) Selected() int {
	return v.selected
}

// Settings returns the loaded settings.
func (v *View) Settings() *domain.AppSettings {
	return v.settings
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to initial state.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
}
