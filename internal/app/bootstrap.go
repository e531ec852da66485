// Package app wires configuration, providers and lifecycle managers into the
// application the CLI, TUI and MCP server operate on.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"capctl/internal/capability"
	"capctl/internal/config"
	"capctl/internal/lifecycle"
	"capctl/internal/providers"
	"capctl/pkg/logging"
)

const subsystem = "Bootstrap"

// Application owns one lifecycle manager per capability kind.
type Application struct {
	Config    config.CapctlConfig
	Providers *providers.Set

	Prompt      *lifecycle.Manager[capability.PromptOptions, capability.PromptOptions]
	Translator  *lifecycle.Manager[capability.TranslatorOptions, capability.TranslatorOptions]
	Summarizer  *lifecycle.Manager[capability.SummarizerOptions, capability.SummarizerOptions]
	Proofreader *lifecycle.Manager[capability.ProofreaderOptions, capability.ProofreaderOptions]

	// LogChannel is set when logging was routed to the TUI.
	LogChannel <-chan logging.LogEntry
}

// NewApplication initializes logging, loads the configuration and activates
// every capability.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	capCfg, err := LoadConfiguration(cfg)
	if err != nil {
		return nil, err
	}

	level, _ := logging.ParseLevel(capCfg.Logging.Level)
	var logChan <-chan logging.LogEntry
	if cfg.TUI {
		logChan = logging.InitForTUI(level)
	} else {
		out := cfg.LogOutput
		if out == nil {
			out = os.Stderr
		}
		logging.InitForCLIWithFormat(level, logging.Format(capCfg.Logging.Format), out)
	}

	a, err := New(ctx, capCfg)
	if err != nil {
		if cfg.TUI {
			logging.CloseTUIChannel()
		}
		return nil, err
	}
	a.LogChannel = logChan
	return a, nil
}

// LoadConfiguration loads the layered or explicit configuration, applies the
// command-line overrides and validates the result.
func LoadConfiguration(cfg *Config) (config.CapctlConfig, error) {
	var (
		capCfg config.CapctlConfig
		err    error
	)
	if cfg.ConfigPath != "" {
		capCfg, err = config.LoadConfigFromPath(cfg.ConfigPath)
		if err != nil {
			return capCfg, fmt.Errorf("failed to load capctl configuration from path %s: %w", cfg.ConfigPath, err)
		}
	} else {
		capCfg, err = config.LoadConfig()
		if err != nil {
			return capCfg, fmt.Errorf("failed to load capctl configuration: %w", err)
		}
	}

	if cfg.LogLevel != "" {
		capCfg.Logging.Level = cfg.LogLevel
	}
	if cfg.Backend != "" {
		backend, err := config.ParseBackend(cfg.Backend)
		if err != nil {
			return capCfg, err
		}
		capCfg.Backend = backend
	}

	if err := capCfg.Validate(); err != nil {
		return capCfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return capCfg, nil
}

// New builds the providers for cfg and attaches a manager per kind. A failed
// initial probe is logged; the manager stays usable and can be refreshed.
func New(ctx context.Context, cfg config.CapctlConfig) (*Application, error) {
	set, err := providers.Build(cfg)
	if err != nil {
		logging.Error(subsystem, err, "Failed to initialize providers")
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	a := &Application{Config: cfg, Providers: set}
	caps := cfg.Capabilities

	var errs []error
	a.Prompt, err = attach(ctx, cfg, capability.KindLanguageModel, set.Prompt, caps.Prompt)
	errs = append(errs, err)
	a.Translator, err = attach(ctx, cfg, capability.KindTranslator, set.Translator, caps.Translator)
	errs = append(errs, err)
	a.Summarizer, err = attach(ctx, cfg, capability.KindSummarizer, set.Summarizer, caps.Summarizer)
	errs = append(errs, err)
	a.Proofreader, err = attach(ctx, cfg, capability.KindProofreader, set.Proofreader, caps.Proofreader)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		a.Close()
		return nil, err
	}
	logging.Info(subsystem, "Activated %d capabilities on the %s backend", len(capability.AllKinds), cfg.Backend)
	return a, nil
}

func attach[O any](ctx context.Context, cfg config.CapctlConfig, kind capability.Kind, p capability.Provider[O, O], defaults O) (*lifecycle.Manager[O, O], error) {
	msgs := cfg.MessagesFor(kind)
	m, err := lifecycle.Attach(ctx, lifecycle.Config[O, O]{
		Kind:                kind,
		Provider:            p,
		NotSupportedMessage: msgs.NotSupported,
		UnavailableMessage:  msgs.Unavailable,
		AvailabilityOptions: lifecycle.Identity[O],
		Defaults:            defaults,
		DefaultAvailability: defaults,
	})
	if m == nil {
		return nil, fmt.Errorf("failed to create %s manager: %w", kind, err)
	}
	if err != nil {
		logging.Warn(subsystem, "Initial %s probe failed: %v", kind, err)
	}
	return m, nil
}

// Controllers returns the managers in display order.
func (a *Application) Controllers() []lifecycle.Controller {
	return []lifecycle.Controller{a.Prompt, a.Translator, a.Summarizer, a.Proofreader}
}

// Controller returns the manager for kind.
func (a *Application) Controller(kind capability.Kind) (lifecycle.Controller, error) {
	switch kind {
	case capability.KindLanguageModel:
		return a.Prompt, nil
	case capability.KindTranslator:
		return a.Translator, nil
	case capability.KindSummarizer:
		return a.Summarizer, nil
	case capability.KindProofreader:
		return a.Proofreader, nil
	}
	return nil, fmt.Errorf("unknown capability %q", kind)
}

// Close detaches every manager and closes their subscriptions.
func (a *Application) Close() {
	if a.Prompt != nil {
		a.Prompt.Close()
	}
	if a.Translator != nil {
		a.Translator.Close()
	}
	if a.Summarizer != nil {
		a.Summarizer.Close()
	}
	if a.Proofreader != nil {
		a.Proofreader.Close()
	}
	if a.LogChannel != nil {
		logging.CloseTUIChannel()
		a.LogChannel = nil
	}
}
