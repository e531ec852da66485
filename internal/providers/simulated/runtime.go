// Package simulated is an offline, deterministic capability runtime. It needs
// no model files or network and is used for demos, the TUI walkthrough and
// tests of the layers above the providers.
package simulated

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	"capctl/internal/capability"
	"capctl/pkg/logging"
)

const subsystem = "Simulated"

// Options tune the simulated runtime.
type Options struct {
	// Unsupported makes every capability family report itself absent.
	Unsupported bool
	// InitialStatus is reported until a download completes. Defaults to
	// downloadable.
	InitialStatus capability.Status
	// DownloadSteps is the number of progress reports per download.
	DownloadSteps int
	StepDelay     time.Duration
	ChunkDelay    time.Duration
}

// Runtime holds the installation state shared by the four providers.
type Runtime struct {
	opts Options

	mu          sync.Mutex
	status      map[capability.Kind]capability.Status
	downloading map[capability.Kind]bool
}

// NewRuntime returns a runtime with every kind in the initial status.
func NewRuntime(opts Options) *Runtime {
	if opts.InitialStatus == capability.StatusUnknown {
		opts.InitialStatus = capability.StatusDownloadable
	}
	if opts.DownloadSteps <= 0 {
		opts.DownloadSteps = 10
	}
	status := make(map[capability.Kind]capability.Status, len(capability.AllKinds))
	for _, k := range capability.AllKinds {
		status[k] = opts.InitialStatus
	}
	return &Runtime{opts: opts, status: status, downloading: map[capability.Kind]bool{}}
}

// Prompt returns the language model provider.
func (r *Runtime) Prompt() capability.Provider[capability.PromptOptions, capability.PromptOptions] {
	return &provider[capability.PromptOptions]{rt: r, kind: capability.KindLanguageModel,
		validate: capability.PromptOptions.Validate, respond: respondPrompt}
}

// Translator returns the translator provider.
func (r *Runtime) Translator() capability.Provider[capability.TranslatorOptions, capability.TranslatorOptions] {
	return &provider[capability.TranslatorOptions]{rt: r, kind: capability.KindTranslator,
		validate: capability.TranslatorOptions.Validate, respond: translate}
}

// Summarizer returns the summarizer provider.
func (r *Runtime) Summarizer() capability.Provider[capability.SummarizerOptions, capability.SummarizerOptions] {
	return &provider[capability.SummarizerOptions]{rt: r, kind: capability.KindSummarizer,
		validate: capability.SummarizerOptions.Validate, respond: summarize}
}

// Proofreader returns the proofreader provider.
func (r *Runtime) Proofreader() capability.Provider[capability.ProofreaderOptions, capability.ProofreaderOptions] {
	return &provider[capability.ProofreaderOptions]{rt: r, kind: capability.KindProofreader,
		validate: capability.ProofreaderOptions.Validate, respond: proofread}
}

// SetStatus forces the status reported for kind.
func (r *Runtime) SetStatus(kind capability.Kind, status capability.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[kind] = status
}

func (r *Runtime) statusOf(kind capability.Kind) capability.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.downloading[kind] {
		return capability.StatusDownloading
	}
	return r.status[kind]
}

// provider adapts the runtime to one capability kind. O is both the creation
// and the availability option type.
type provider[O any] struct {
	rt       *Runtime
	kind     capability.Kind
	validate func(O) error
	respond  func(O, string) string
}

func (p *provider[O]) IsSupported() bool { return !p.rt.opts.Unsupported }

func (p *provider[O]) CheckAvailability(ctx context.Context, opts O) (capability.Status, error) {
	if err := ctx.Err(); err != nil {
		return capability.StatusUnknown, err
	}
	if err := p.validate(opts); err != nil {
		logging.Debug(subsystem, "%s declined options: %v", p.kind, err)
		return capability.StatusUnavailable, nil
	}
	return p.rt.statusOf(p.kind), nil
}

func (p *provider[O]) Download(ctx context.Context, opts O, progress capability.ProgressFunc) error {
	if err := p.validate(opts); err != nil {
		return err
	}
	if p.rt.statusOf(p.kind) == capability.StatusAvailable {
		capability.ReportProgress(progress, 100)
		return nil
	}

	p.rt.mu.Lock()
	p.rt.downloading[p.kind] = true
	p.rt.mu.Unlock()
	defer func() {
		p.rt.mu.Lock()
		delete(p.rt.downloading, p.kind)
		p.rt.mu.Unlock()
	}()

	steps := p.rt.opts.DownloadSteps
	ticker := time.NewTicker(max(p.rt.opts.StepDelay, time.Microsecond))
	defer ticker.Stop()

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		capability.ReportProgress(progress, float64(i)*100/float64(steps))
	}

	p.rt.SetStatus(p.kind, capability.StatusAvailable)
	logging.Info(subsystem, "%s model installed", p.kind)
	return nil
}

func (p *provider[O]) Create(ctx context.Context, opts O) (capability.Handle, error) {
	if err := p.validate(opts); err != nil {
		return nil, err
	}
	if p.rt.statusOf(p.kind) != capability.StatusAvailable {
		if err := p.Download(ctx, opts, nil); err != nil {
			return nil, err
		}
	}
	return &handle[O]{p: p, opts: opts}, nil
}

type handle[O any] struct {
	p    *provider[O]
	opts O

	mu     sync.Mutex
	closed bool
}

func (h *handle[O]) Invoke(ctx context.Context, input string) (string, error) {
	if err := h.ready(ctx); err != nil {
		return "", err
	}
	return h.p.respond(h.opts, input), nil
}

// InvokeStreaming yields the response word by word. The context is checked
// before every chunk.
func (h *handle[O]) InvokeStreaming(ctx context.Context, input string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := h.ready(ctx); err != nil {
			yield("", err)
			return
		}
		for _, chunk := range chunkWords(h.p.respond(h.opts, input)) {
			if err := sleep(ctx, h.p.rt.opts.ChunkDelay); err != nil {
				yield("", err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (h *handle[O]) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *handle[O]) ready(ctx context.Context) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return errHandleClosed
	}
	return ctx.Err()
}

// chunkWords splits s after every space so that the chunks concatenate back
// to s.
func chunkWords(s string) []string {
	var chunks []string
	for _, c := range strings.SplitAfter(s, " ") {
		if c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
