package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/watcher"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest documents written to a directory",
	Long: `Watch a directory and ingest every supported file created or modified
in it. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	w := watcher.New(args[0], ingestService)
	w.SetDebounce(watchDebounce)
	w.OnResult(func(path string, result *driving.UploadResult, err error) {
		switch {
		case err != nil:
			cmd.PrintErrf("%s: %v\n", path, err)
		case result == nil:
		case !result.Success():
			cmd.Printf("%s: %d records, %d lines failed\n", path, result.RecordsWritten, len(result.Failures))
		default:
			cmd.Printf("%s: %d records\n", path, result.RecordsWritten)
		}
	})

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	return w.Run(cmd.Context())
}
