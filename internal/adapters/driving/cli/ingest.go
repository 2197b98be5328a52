package cli

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var (
	ingestName string
	ingestText bool
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document",
	Long: `Extract the text of a document, index every non-blank line and
recompute the analysis.

PDF, DOCX, HTML, email (.eml), Markdown and plain text files are
supported. With --text the
file is read as already extracted text and extraction is skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (default: file name)")
	ingestCmd.Flags().BoolVar(&ingestText, "text", false, "treat the file as extracted text")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	filename := filepath.Base(path)
	if ingestName != "" {
		filename = ingestName + filepath.Ext(filename)
	}

	var result *driving.UploadResult
	if ingestText {
		res, ierr := ingestService.Ingest(cmd.Context(), domain.DocumentName(filename), string(content))
		if ierr != nil {
			return fmt.Errorf("ingest failed: %w", ierr)
		}
		result = &driving.UploadResult{Filename: filename, IngestResult: *res}
	} else {
		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
		if !ingestService.Supports(filename, mimeType) {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedType, filepath.Ext(filename))
		}
		result, err = ingestService.Upload(cmd.Context(), domain.Document{
			Filename: filename,
			MIMEType: mimeType,
			Content:  content,
		})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
	}

	if ingestJSON {
		if err := printJSON(cmd, result); err != nil {
			return err
		}
	} else {
		printIngestResult(cmd, result)
	}

	if !result.Success() {
		return fmt.Errorf("%d of %d lines failed to index", len(result.Failures), result.Lines)
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, result *driving.UploadResult) {
	cmd.Printf("Ingested %s (%s)\n", result.DocumentName, result.Filename)
	cmd.Printf("  Lines:   %d\n", result.Lines)
	cmd.Printf("  Records: %d\n", result.RecordsWritten)
	cmd.Printf("  Status:  %s\n", result.Status())
	if result.TextFile != "" {
		cmd.Printf("  Text:    %s\n", result.TextFile)
	}
	for _, f := range result.Failures {
		cmd.Printf("  line %d: %s\n", f.LineIndex, f.Reason)
	}
	if result.AnalysisError != "" {
		cmd.Printf("Warning: analysis failed: %s\n", result.AnalysisError)
	}
}

// printJSON writes v indented to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
