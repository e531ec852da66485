package lifecycle

import (
	"context"

	"capctl/internal/capability"
)

// Controller is the option-agnostic view of a Manager. Surfaces that handle
// every capability kind the same way (status listings, the TUI, the MCP
// server) work through it and leave the typed options to the configuration.
type Controller interface {
	Kind() capability.Kind
	Snapshot() State

	Refresh(ctx context.Context) error
	DownloadDefault(ctx context.Context, onProgress capability.ProgressFunc) error
	InstantiateDefault(ctx context.Context) (capability.Handle, error)

	SetError(msg string)
	ClearError()

	Subscribe(buffer int) *Subscription
	Unsubscribe(sub *Subscription)
	Close()
}

var (
	_ Controller = (*Manager[capability.PromptOptions, capability.PromptOptions])(nil)
	_ Controller = (*Manager[capability.TranslatorOptions, capability.TranslatorOptions])(nil)
	_ Controller = (*Manager[capability.SummarizerOptions, capability.SummarizerOptions])(nil)
	_ Controller = (*Manager[capability.ProofreaderOptions, capability.ProofreaderOptions])(nil)
)

// Identity is an AvailabilityOptions mapping for providers whose creation and
// availability options share a type.
func Identity[T any](opts T) T { return opts }
