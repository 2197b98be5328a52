package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

func TestRootCmd_PersistentFlags(t *testing.T) {
	v := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, v)
	assert.Equal(t, "v", v.Shorthand)

	require.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestRootCmd_Subcommands(t *testing.T) {
	want := []string{"serve", "ingest", "ask", "search", "vectors", "analysis",
		"documents", "settings", "watch", "chat", "mcp", "version"}

	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, names[name], "missing command %s", name)
	}
}

func TestBootstrap(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantCalled   bool
		settingsOnly bool
	}{
		{name: "full runtime for ask", args: []string{"ask", "why?"}, wantCalled: true},
		{name: "settings only for settings path", args: []string{"settings", "path"}, wantCalled: true, settingsOnly: true},
		{name: "none for version", args: []string{"version"}, wantCalled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, cleanup := setupTestServices()
			defer cleanup()

			var (
				called bool
				gotCfg string
				gotOne bool
				closed bool
			)
			SetBootstrap(func(_ context.Context, path string, settingsOnly bool) (*Runtime, error) {
				called, gotCfg, gotOne = true, path, settingsOnly
				return &Runtime{
					Answer:   ts.answer,
					Settings: ts.settings,
					Close: func() error {
						closed = true
						return nil
					},
				}, nil
			})

			_, err := execute(append(tt.args, "--config", "/tmp/docqa")...)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCalled, called)
			if tt.wantCalled {
				assert.Equal(t, "/tmp/docqa", gotCfg)
				assert.Equal(t, tt.settingsOnly, gotOne)
				assert.True(t, closed, "runtime should be closed after the command")
			}
		})
	}
}

func TestBootstrap_Error(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	SetBootstrap(func(context.Context, string, bool) (*Runtime, error) {
		return nil, domain.ErrEmbeddingUnavailable
	})

	_, err := execute("ask", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "initialising")
}

func TestVerboseFlag(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	defer logger.SetVerbose(false)

	_, err := execute("version", "-v")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestSettings_FallsBackToDefaults(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	s := settings()
	assert.Equal(t, domain.DefaultServerAddr, s.Server.Addr)

	cfg := domain.DefaultAppSettings()
	cfg.Server.Addr = ":9999"
	appSettings = &cfg
	assert.Equal(t, ":9999", settings().Server.Addr)
}
