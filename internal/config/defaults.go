package config

import (
	"time"

	"capctl/internal/capability"
)

// GetDefaultConfig returns the built-in configuration. Without any config file
// capctl talks to a local Ollama server.
func GetDefaultConfig() CapctlConfig {
	return CapctlConfig{
		Backend: BackendOllama,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Ollama: OllamaConfig{
			Host:      "http://127.0.0.1:11434",
			Model:     "llama3.2",
			KeepAlive: 5 * time.Minute,
		},
		Azure: AzureConfig{
			APIKeyEnv: "AZURE_OPENAI_API_KEY",
		},
		Simulated: SimulatedConfig{
			InitialStatus: capability.StatusDownloadable,
			DownloadSteps: 10,
			StepDelay:     50 * time.Millisecond,
			ChunkDelay:    20 * time.Millisecond,
		},
		Capabilities: CapabilitiesConfig{
			Prompt:      capability.PromptOptions{}.Normalize(),
			Translator:  capability.TranslatorOptions{}.Normalize(),
			Summarizer:  capability.SummarizerOptions{}.Normalize(),
			Proofreader: capability.ProofreaderOptions{}.Normalize(),
		},
		Messages: map[string]MessageOverrides{},
		Server: ServerConfig{
			Transport: TransportStdio,
			Host:      "localhost",
			Port:      8090,
		},
	}
}
