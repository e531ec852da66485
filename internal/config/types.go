package config

import (
	"time"

	"capctl/internal/capability"
)

// Backend names the runtime that backs every capability.
type Backend string

const (
	BackendOllama    Backend = "ollama"
	BackendAzure     Backend = "azure"
	BackendSimulated Backend = "simulated"
)

const (
	// TransportStdio serves MCP over standard I/O.
	TransportStdio = "stdio"
	// TransportSSE serves MCP over Server-Sent Events.
	TransportSSE = "sse"
	// TransportStreamableHTTP serves MCP over streamable HTTP.
	TransportStreamableHTTP = "streamable-http"
)

// CapctlConfig is the top-level configuration structure for capctl.
type CapctlConfig struct {
	Backend      Backend                     `yaml:"backend"`
	Logging      LoggingConfig               `yaml:"logging"`
	Ollama       OllamaConfig                `yaml:"ollama"`
	Azure        AzureConfig                 `yaml:"azure"`
	Simulated    SimulatedConfig             `yaml:"simulated"`
	Capabilities CapabilitiesConfig          `yaml:"capabilities"`
	Messages     map[string]MessageOverrides `yaml:"messages,omitempty"` // keyed by capability kind
	Server       ServerConfig                `yaml:"server"`
}

// LoggingConfig controls the CLI log handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// OllamaConfig points at a local or remote Ollama server.
type OllamaConfig struct {
	Host      string        `yaml:"host,omitempty"`
	Model     string        `yaml:"model,omitempty"`
	KeepAlive time.Duration `yaml:"keepAlive,omitempty"`
}

// AzureConfig configures an Azure OpenAI deployment. The API key is read from
// the environment variable named by APIKeyEnv.
type AzureConfig struct {
	Endpoint   string `yaml:"endpoint,omitempty"`
	APIKeyEnv  string `yaml:"apiKeyEnv,omitempty"`
	Deployment string `yaml:"deployment,omitempty"`
}

// SimulatedConfig tunes the offline runtime.
type SimulatedConfig struct {
	Unsupported   bool              `yaml:"unsupported,omitempty"`
	InitialStatus capability.Status `yaml:"initialStatus,omitempty"`
	DownloadSteps int               `yaml:"downloadSteps,omitempty"`
	StepDelay     time.Duration     `yaml:"stepDelay,omitempty"`
	ChunkDelay    time.Duration     `yaml:"chunkDelay,omitempty"`
}

// CapabilitiesConfig holds the default options of each capability.
type CapabilitiesConfig struct {
	Prompt      capability.PromptOptions      `yaml:"prompt"`
	Translator  capability.TranslatorOptions  `yaml:"translator"`
	Summarizer  capability.SummarizerOptions  `yaml:"summarizer"`
	Proofreader capability.ProofreaderOptions `yaml:"proofreader"`
}

// MessageOverrides replaces the user-facing texts of one capability.
type MessageOverrides struct {
	NotSupported string `yaml:"notSupported,omitempty"`
	Unavailable  string `yaml:"unavailable,omitempty"`
}

// ServerConfig configures `capctl serve`.
type ServerConfig struct {
	Transport   string `yaml:"transport,omitempty"`
	Host        string `yaml:"host,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	MetricsAddr string `yaml:"metricsAddr,omitempty"` // empty disables the metrics listener
}

// MessagesFor returns the overrides for kind, empty when none are configured.
func (c CapctlConfig) MessagesFor(kind capability.Kind) MessageOverrides {
	return c.Messages[string(kind)]
}
