// Package providers builds the capability providers for the configured backend.
package providers

import (
	"fmt"
	"os"

	"capctl/internal/capability"
	"capctl/internal/config"
	"capctl/internal/providers/azure"
	"capctl/internal/providers/ollama"
	"capctl/internal/providers/simulated"
	"capctl/pkg/logging"
)

const subsystem = "Providers"

// Set holds one provider per capability kind.
type Set struct {
	Backend     config.Backend
	Prompt      capability.Provider[capability.PromptOptions, capability.PromptOptions]
	Translator  capability.Provider[capability.TranslatorOptions, capability.TranslatorOptions]
	Summarizer  capability.Provider[capability.SummarizerOptions, capability.SummarizerOptions]
	Proofreader capability.Provider[capability.ProofreaderOptions, capability.ProofreaderOptions]
}

// runtime is what every backend offers.
type runtime interface {
	Prompt() capability.Provider[capability.PromptOptions, capability.PromptOptions]
	Translator() capability.Provider[capability.TranslatorOptions, capability.TranslatorOptions]
	Summarizer() capability.Provider[capability.SummarizerOptions, capability.SummarizerOptions]
	Proofreader() capability.Provider[capability.ProofreaderOptions, capability.ProofreaderOptions]
}

var (
	_ runtime = (*ollama.Runtime)(nil)
	_ runtime = (*azure.Runtime)(nil)
	_ runtime = (*simulated.Runtime)(nil)
)

// Build creates the providers for cfg.Backend.
func Build(cfg config.CapctlConfig) (*Set, error) {
	var (
		rt  runtime
		err error
	)
	switch cfg.Backend {
	case config.BackendOllama:
		rt, err = ollama.NewRuntime(ollama.Options{
			Host:      cfg.Ollama.Host,
			Model:     cfg.Ollama.Model,
			KeepAlive: cfg.Ollama.KeepAlive,
		})
	case config.BackendAzure:
		var key string
		if cfg.Azure.APIKeyEnv != "" {
			key = os.Getenv(cfg.Azure.APIKeyEnv)
		}
		rt, err = azure.NewRuntime(azure.Options{
			Endpoint:   cfg.Azure.Endpoint,
			APIKey:     key,
			Deployment: cfg.Azure.Deployment,
		})
	case config.BackendSimulated:
		rt = simulated.NewRuntime(simulated.Options{
			Unsupported:   cfg.Simulated.Unsupported,
			InitialStatus: cfg.Simulated.InitialStatus,
			DownloadSteps: cfg.Simulated.DownloadSteps,
			StepDelay:     cfg.Simulated.StepDelay,
			ChunkDelay:    cfg.Simulated.ChunkDelay,
		})
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s backend: %w", cfg.Backend, err)
	}

	logging.Debug(subsystem, "Using %s backend", cfg.Backend)
	return &Set{
		Backend:     cfg.Backend,
		Prompt:      rt.Prompt(),
		Translator:  rt.Translator(),
		Summarizer:  rt.Summarizer(),
		Proofreader: rt.Proofreader(),
	}, nil
}
