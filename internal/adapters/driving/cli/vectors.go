package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var (
	vectorsLimit int
	vectorsJSON  bool
)

var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Dump stored vectors",
	Long: `List records of the vector index with their metadata.

The number of records is bounded by --limit, which defaults to the
configured dump limit and is capped at 1000.`,
	Args: cobra.NoArgs,
	RunE: runVectors,
}

func init() {
	vectorsCmd.Flags().IntVar(&vectorsLimit, "limit", 0, "maximum number of records (0 = configured default)")
	vectorsCmd.Flags().BoolVar(&vectorsJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(vectorsCmd)
}

func runVectors(cmd *cobra.Command, _ []string) error {
	if vectorService == nil {
		return errNotConfigured("vector")
	}

	records, err := vectorService.Dump(cmd.Context(), vectorsLimit)
	if err != nil {
		return fmt.Errorf("dump failed: %w", err)
	}

	if vectorsJSON {
		return printJSON(cmd, records)
	}

	total, err := vectorService.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("count failed: %w", err)
	}

	cmd.Printf("Vectors (%d of %d)\n", len(records), total)
	if len(records) == 0 {
		cmd.Println("No vectors stored yet.")
		return nil
	}
	cmd.Println()
	for _, r := range records {
		cmd.Printf("  %s  dim=%d  %s\n", r.ID, len(r.Vector), truncate(r.Text(), 60))
		if doc := domain.MetadataString(r.Metadata, domain.MetadataDocument); doc != "" {
			cmd.Printf("      document: %s line %d\n", doc, domain.MetadataInt(r.Metadata, domain.MetadataLine))
		}
	}
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
