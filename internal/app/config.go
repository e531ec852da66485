package app

import (
	"io"
	"os"
)

// Config holds the command-line settings that shape bootstrapping. Empty
// fields leave the loaded configuration untouched.
type Config struct {
	// ConfigPath loads a single file instead of the layered configuration.
	ConfigPath string

	// LogLevel and Backend override the configuration file.
	LogLevel string
	Backend  string

	// TUI routes logging to the channel drained by the terminal UI.
	TUI bool

	// LogOutput receives CLI logs. Defaults to stderr.
	LogOutput io.Writer
}

// NewConfig creates a new application configuration
func NewConfig(configPath, logLevel, backend string) *Config {
	return &Config{
		ConfigPath: configPath,
		LogLevel:   logLevel,
		Backend:    backend,
		LogOutput:  os.Stderr,
	}
}
