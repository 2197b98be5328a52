package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested documents",
	Long: `Embed the question, retrieve the most similar lines from the index and
generate an answer from them.

Each question is answered independently; there is no conversation history.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output answer as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "print the retrieved lines")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errNotConfigured("answer")
	}

	question := strings.Join(args, " ")
	answer, err := answerService.Answer(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(renderMarkdown(cmd, answer.Text))

	if askSources && len(answer.Sources) > 0 {
		cmd.Println("Sources:")
		for _, m := range answer.Sources {
			cmd.Println("  " + formatMatch(m))
		}
	}
	return nil
}

// renderMarkdown renders text with glamour when writing to a terminal.
func renderMarkdown(cmd *cobra.Command, text string) string {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return text
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// formatMatch renders a match as "[doc:line 0.912] text".
func formatMatch(m domain.QueryMatch) string {
	ref := m.ID
	if doc := m.Document(); doc != "" {
		ref = fmt.Sprintf("%s:%d", doc, m.Line())
	}
	return fmt.Sprintf("[%s %.3f] %s", ref, m.Similarity, m.Text())
}
