package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"capctl/internal/app"
)

// loadApplication builds the application for a command from the global flags.
// CLI logs go to the command's error stream so output stays scriptable.
func loadApplication(cmd *cobra.Command, tui bool) (*app.Application, error) {
	cfg := app.NewConfig(configPath, logLevel, backend)
	cfg.TUI = tui
	cfg.LogOutput = cmd.ErrOrStderr()

	application, err := app.NewApplication(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return application, nil
}
