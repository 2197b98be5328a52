package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa/internal/adapters/driving/api"
	"github.com/custodia-labs/docqa/internal/adapters/driving/watcher"
)

var (
	serveAddr     string
	serveWatchDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the web frontend.

Endpoints:
  POST /upload_pdf     upload a document (multipart field "file")
  GET  /analysis       summary and statistics of the last upload
  POST /ask_question   {"question": "..."}
  GET  /get_vectors    dump stored vectors (?limit=N)
  POST /search         {"query": "...", "top_k": N}
  GET  /documents      list ingested documents

With --watch, files dropped into the directory are ingested as well.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	serveCmd.Flags().StringVar(&serveWatchDir, "watch", "", "also ingest files written to this directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := settings()

	server, err := api.NewServer(&api.Ports{
		Ingest:   ingestService,
		Answer:   answerService,
		Analysis: analysisService,
		Vectors:  vectorService,
		Document: documentService,
	}, api.Config{
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		DumpLimit:      cfg.Index.DumpLimit,
	})
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	watchErr := make(chan error, 1)
	if serveWatchDir != "" {
		w := watcher.New(serveWatchDir, ingestService)
		go func() {
			err := w.Run(ctx)
			if err != nil {
				cancel()
			}
			watchErr <- err
		}()
		cmd.Printf("Watching %s for new documents\n", serveWatchDir)
	} else {
		close(watchErr)
	}

	cmd.Printf("Listening on %s\n", addr)
	serveErr := server.Run(ctx, addr)
	cancel()

	if err := <-watchErr; err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	return nil
}
