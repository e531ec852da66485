// Package capability defines the contract between capctl and the runtimes that
// actually execute on-device AI functions.
//
// # Overview
//
// A capability is one discrete AI function exposed by a runtime: text
// generation ("prompt"), translation, summarization or proofreading. capctl
// never talks to a runtime directly; it goes through a Provider, which answers
// four questions:
//
//   - IsSupported: is this capability family present at all? (synchronous)
//   - CheckAvailability: given these options, is it downloadable, downloading,
//     available or unavailable?
//   - Download: acquire the resources, reporting progress as a percentage.
//   - Create: return a ready Handle.
//
// A Handle is a live instance of the capability. It answers a request either in
// one piece (Invoke) or as a lazy sequence of text chunks (InvokeStreaming).
// Both honour cancellation of the context they are given.
//
// # Options
//
// Every kind has an options type (PromptOptions, TranslatorOptions,
// SummarizerOptions, ProofreaderOptions). The zero value of each means "use the
// defaults"; Normalize fills them in and Validate reports combinations the
// runtime cannot serve. Instructions renders the backend independent system
// prompt used by the model-backed providers.
//
// # Errors
//
// ErrNotSupported and ErrUnavailable are the two anticipated, user-facing
// failure conditions. Everything else a provider returns is a provider failure
// and is passed through untouched by the lifecycle layer.
package capability
