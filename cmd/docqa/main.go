// Command docqa answers questions over ingested documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/app"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap wires the application for a command.
func bootstrap(ctx context.Context, configPath string, settingsOnly bool) (*cli.Runtime, error) {
	a, err := app.New(ctx, app.Options{
		ConfigPath:    configPath,
		SkipProviders: settingsOnly,
	})
	if err != nil {
		return nil, err
	}

	rt := &cli.Runtime{
		Settings: a.SettingsService,
		Config:   a.Settings,
		Close:    a.Close,
	}
	if settingsOnly {
		return rt, nil
	}

	rt.Ingest = a.Ingest
	rt.Answer = a.Answer
	rt.Analysis = a.Analysis
	rt.Vectors = a.Vectors
	rt.Documents = a.Documents
	return rt, nil
}
