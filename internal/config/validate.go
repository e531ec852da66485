package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"capctl/internal/capability"
	"capctl/pkg/logging"
)

// ErrUnknownBackend is returned for a backend name capctl has no runtime for.
var ErrUnknownBackend = errors.New("unknown backend")

// ParseBackend accepts the backend names case-insensitively.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendOllama, BackendAzure, BackendSimulated:
		return b, nil
	}
	return "", fmt.Errorf("%w %q (expected ollama, azure or simulated)", ErrUnknownBackend, s)
}

// Validate checks the configuration for values no component can work with.
// All problems are reported together.
func (c CapctlConfig) Validate() error {
	var errs []error

	if _, err := ParseBackend(string(c.Backend)); err != nil {
		errs = append(errs, err)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); c.Logging.Level != "" && err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch logging.Format(c.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	switch c.Backend {
	case BackendOllama:
		if _, err := url.Parse(c.Ollama.Host); err != nil {
			errs = append(errs, fmt.Errorf("ollama.host: %w", err))
		}
		if c.Ollama.KeepAlive < 0 {
			errs = append(errs, errors.New("ollama.keepAlive must not be negative"))
		}
	case BackendSimulated:
		if c.Simulated.InitialStatus != capability.StatusUnknown && !c.Simulated.InitialStatus.IsKnown() {
			errs = append(errs, fmt.Errorf("simulated.initialStatus: unknown status %q", c.Simulated.InitialStatus))
		}
		if c.Simulated.DownloadSteps < 0 {
			errs = append(errs, errors.New("simulated.downloadSteps must not be negative"))
		}
	}

	caps := c.Capabilities
	for _, err := range []error{
		caps.Prompt.Validate(),
		caps.Translator.Validate(),
		caps.Summarizer.Validate(),
		caps.Proofreader.Validate(),
	} {
		if err != nil {
			errs = append(errs, fmt.Errorf("capabilities: %w", err))
		}
	}

	for kind := range c.Messages {
		if k, err := capability.ParseKind(kind); err != nil || string(k) != kind {
			errs = append(errs, fmt.Errorf("messages: unknown capability %q", kind))
		}
	}

	switch c.Server.Transport {
	case "", TransportStdio, TransportSSE, TransportStreamableHTTP:
	default:
		errs = append(errs, fmt.Errorf("server.transport: unknown transport %q", c.Server.Transport))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}

	return errors.Join(errs...)
}
