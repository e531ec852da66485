package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// configPath loads a single configuration file instead of the layered lookup.
	configPath string
	// logLevel overrides logging.level from the configuration.
	logLevel string
	// backend overrides the configured backend (ollama, azure, simulated).
	backend string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "capctl",
	Short: "Check, download and use on-device AI capabilities",
	Long: `capctl manages the lifecycle of AI capabilities (prompting, translation,
summarization and proofreading) offered by a local or hosted model runtime.

It reports whether each capability is supported and available, downloads
missing models with progress, and runs requests either in one piece or as a
cancellable stream. The same capabilities can be used interactively ('capctl ui')
or exposed to AI assistants as MCP tools ('capctl serve').`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. unavailable capabilities, failed downloads)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Interrupts cancel the command context so running requests stop cooperatively.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "capctl version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: layered ~/.config/capctl/config.yaml and .capctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Backend override (ollama, azure, simulated)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
