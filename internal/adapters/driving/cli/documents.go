package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

var documentsJSON bool

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "List ingested documents",
	Long:    `List, inspect and print the extracted text of ingested documents.`,
	Args:    cobra.NoArgs,
	RunE:    runDocumentsList,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsGetCmd = &cobra.Command{
	Use:   "get [name]",
	Short: "Show details of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsGet,
}

var documentsTextCmd = &cobra.Command{
	Use:   "text [name]",
	Short: "Print the extracted text of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsText,
}

func init() {
	documentsCmd.PersistentFlags().BoolVar(&documentsJSON, "json", false, "output as JSON")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsGetCmd)
	documentsCmd.AddCommand(documentsTextCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if documentsJSON {
		return printJSON(cmd, docs)
	}

	if len(docs) == 0 {
		cmd.Println("No documents ingested yet.")
		return nil
	}

	cmd.Printf("Documents (%d)\n\n", len(docs))
	for i := range docs {
		d := &docs[i]
		cmd.Printf("  %-24s %6d lines %6d records  %-7s %s\n",
			d.Name, d.Lines, d.RecordsWritten, d.Status, d.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runDocumentsGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("document %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if documentsJSON {
		return printJSON(cmd, doc)
	}

	cmd.Printf("Name:      %s\n", doc.Name)
	cmd.Printf("Filename:  %s\n", doc.Filename)
	if doc.MIMEType != "" {
		cmd.Printf("Type:      %s\n", doc.MIMEType)
	}
	cmd.Printf("Lines:     %d\n", doc.Lines)
	cmd.Printf("Records:   %d\n", doc.RecordsWritten)
	cmd.Printf("Status:    %s\n", doc.Status)
	if doc.TextPath != "" {
		cmd.Printf("Text:      %s\n", doc.TextPath)
	}
	cmd.Printf("Created:   %s\n", doc.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	cmd.Printf("Updated:   %s\n", doc.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentsText(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	text, err := documentService.Text(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("document %q not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read document text: %w", err)
	}

	if documentsJSON {
		return printJSON(cmd, map[string]string{"name": args[0], "text": text})
	}
	cmd.Print(text)
	if text != "" && text[len(text)-1] != '\n' {
		cmd.Println()
	}
	return nil
}
