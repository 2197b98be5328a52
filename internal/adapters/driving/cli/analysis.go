package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var analysisJSON bool

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
)

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Show the analysis of the last ingested document",
	Long: `Show the summary and statistics computed for the most recently
ingested document. Each ingestion replaces the previous analysis.`,
	Args: cobra.NoArgs,
	RunE: runAnalysis,
}

func init() {
	analysisCmd.Flags().BoolVar(&analysisJSON, "json", false, "output analysis as JSON")
	rootCmd.AddCommand(analysisCmd)
}

func runAnalysis(cmd *cobra.Command, _ []string) error {
	if analysisService == nil {
		return errNotConfigured("analysis")
	}

	rec, err := analysisService.Latest(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No analysis available yet. Ingest a document first.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get analysis: %w", err)
	}

	if analysisJSON {
		return printJSON(cmd, rec)
	}

	stats := rec.Statistics
	cmd.Println(headingStyle.Render("Analysis of " + rec.Filename))
	cmd.Println()
	cmd.Printf("%s %d\n", labelStyle.Render("Words:      "), stats.WordCount)
	cmd.Printf("%s %d\n", labelStyle.Render("Sentences:  "), stats.SentenceCount)
	cmd.Printf("%s %.3f\n", labelStyle.Render("Compression:"), stats.CompressionRatio)
	if !rec.CreatedAt.IsZero() {
		cmd.Printf("%s %s\n", labelStyle.Render("Analysed:   "), rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	cmd.Println()

	cmd.Println(headingStyle.Render("Summary"))
	if rec.Summary == "" {
		cmd.Println("(empty)")
	} else {
		cmd.Println(rec.Summary)
	}

	names := make([]string, 0, len(rec.Summaries))
	for name := range rec.Summaries {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > 1 {
		cmd.Println()
		cmd.Println(headingStyle.Render("Summarizers"))
		for _, name := range names {
			line := fmt.Sprintf("  %s: ratio %.3f", name, stats.CompressionRatios[name])
			if sim, ok := stats.Similarity[name]; ok {
				line += fmt.Sprintf("  similarity %.3f", sim)
			}
			cmd.Println(line)
		}
	}

	if len(rec.Errors) > 0 {
		cmd.Println()
		cmd.Println(headingStyle.Render("Errors"))
		errNames := make([]string, 0, len(rec.Errors))
		for name := range rec.Errors {
			errNames = append(errNames, name)
		}
		sort.Strings(errNames)
		for _, name := range errNames {
			cmd.Printf("  %s: %s\n", name, rec.Errors[name])
		}
	}
	return nil
}
