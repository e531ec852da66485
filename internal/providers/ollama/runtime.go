// Package ollama backs the capabilities with a model served by Ollama.
//
// All four capability kinds share one model; they differ only in the system
// instructions sent with each chat request. Downloading a capability pulls the
// model.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/singleflight"

	"capctl/internal/capability"
	"capctl/pkg/logging"
)

const subsystem = "Ollama"

// Options configure the connection to the Ollama server.
type Options struct {
	// Host is the server URL. Empty falls back to OLLAMA_HOST and the
	// client's default.
	Host      string
	Model     string
	KeepAlive time.Duration
	// HTTPClient overrides the client used for requests.
	HTTPClient *http.Client
}

// Runtime is a connection to one Ollama server and model.
type Runtime struct {
	client    *api.Client
	model     string
	keepAlive time.Duration
	supported bool

	pulls singleflight.Group

	mu      sync.Mutex
	pulling map[string]*pullState
}

// pullState is shared by every caller waiting on one model pull. The pull runs
// detached from any single caller and is cancelled when the last one leaves.
type pullState struct {
	ctx    context.Context
	cancel context.CancelFunc

	waiters   int
	nextID    int
	listeners map[int]capability.ProgressFunc
	last      float64
}

// NewRuntime creates the API client. An unusable host is not an error: the
// runtime then reports every capability as not supported.
func NewRuntime(opts Options) (*Runtime, error) {
	rt := &Runtime{
		model:     normalizeModel(opts.Model),
		keepAlive: opts.KeepAlive,
		pulling:   map[string]*pullState{},
	}

	if opts.Host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client from environment: %w", err)
		}
		rt.client = client
		rt.supported = rt.model != ""
		return rt, nil
	}

	base, err := url.Parse(opts.Host)
	if err != nil || base.Scheme == "" || base.Host == "" {
		logging.Warn(subsystem, "Ignoring unusable host %q", opts.Host)
		base = &url.URL{Scheme: "http", Host: "127.0.0.1:11434"}
	} else {
		rt.supported = rt.model != ""
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rt.client = api.NewClient(base, httpClient)
	return rt, nil
}

// Model returns the normalized model name.
func (r *Runtime) Model() string { return r.model }

// Ping checks that the server answers.
func (r *Runtime) Ping(ctx context.Context) error {
	return r.client.Heartbeat(ctx)
}

// Prompt returns the language model provider.
func (r *Runtime) Prompt() capability.Provider[capability.PromptOptions, capability.PromptOptions] {
	return &provider[capability.PromptOptions]{
		rt:           r,
		kind:         capability.KindLanguageModel,
		validate:     capability.PromptOptions.Validate,
		instructions: capability.PromptOptions.Instructions,
		modelOptions: func(o capability.PromptOptions) map[string]any {
			if o.Temperature == 0 {
				return nil
			}
			return map[string]any{"temperature": o.Temperature}
		},
	}
}

// Translator returns the translator provider.
func (r *Runtime) Translator() capability.Provider[capability.TranslatorOptions, capability.TranslatorOptions] {
	return &provider[capability.TranslatorOptions]{
		rt:           r,
		kind:         capability.KindTranslator,
		validate:     capability.TranslatorOptions.Validate,
		instructions: capability.TranslatorOptions.Instructions,
		modelOptions: deterministic[capability.TranslatorOptions],
	}
}

// Summarizer returns the summarizer provider.
func (r *Runtime) Summarizer() capability.Provider[capability.SummarizerOptions, capability.SummarizerOptions] {
	return &provider[capability.SummarizerOptions]{
		rt:           r,
		kind:         capability.KindSummarizer,
		validate:     capability.SummarizerOptions.Validate,
		instructions: capability.SummarizerOptions.Instructions,
	}
}

// Proofreader returns the proofreader provider.
func (r *Runtime) Proofreader() capability.Provider[capability.ProofreaderOptions, capability.ProofreaderOptions] {
	return &provider[capability.ProofreaderOptions]{
		rt:           r,
		kind:         capability.KindProofreader,
		validate:     capability.ProofreaderOptions.Validate,
		instructions: capability.ProofreaderOptions.Instructions,
		modelOptions: deterministic[capability.ProofreaderOptions],
	}
}

func deterministic[O any](O) map[string]any {
	return map[string]any{"temperature": 0}
}

// installed reports whether the model is present locally.
func (r *Runtime) installed(ctx context.Context) (bool, error) {
	resp, err := r.client.List(ctx)
	if err != nil {
		return false, err
	}
	for _, m := range resp.Models {
		if normalizeModel(m.Model) == r.model || normalizeModel(m.Name) == r.model {
			return true, nil
		}
	}
	return false, nil
}

func (r *Runtime) isPulling() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulling[r.model] != nil
}

// pull downloads the model, reporting aggregated layer progress. Concurrent
// callers join the pull already in flight and all receive its progress and
// result. A caller whose ctx ends stops waiting; the pull itself stops only
// when no caller is left.
func (r *Runtime) pull(ctx context.Context, progress capability.ProgressFunc) error {
	st, id, last := r.joinPull(ctx, progress)
	defer r.leavePull(st, id)
	if last > 0 {
		capability.ReportProgress(progress, last)
	}

	ch := r.pulls.DoChan(r.model, func() (any, error) {
		return nil, r.runPull(st)
	})
	select {
	case res := <-ch:
		if res.Shared {
			logging.Debug(subsystem, "Joined pull of %s", r.model)
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runtime) joinPull(ctx context.Context, progress capability.ProgressFunc) (*pullState, int, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.pulling[r.model]
	if st == nil {
		pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		st = &pullState{ctx: pctx, cancel: cancel, listeners: map[int]capability.ProgressFunc{}}
		r.pulling[r.model] = st
	}
	st.waiters++
	st.nextID++
	if progress != nil {
		st.listeners[st.nextID] = progress
	}
	return st, st.nextID, st.last
}

func (r *Runtime) leavePull(st *pullState, id int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(st.listeners, id)
	st.waiters--
	if st.waiters == 0 {
		st.cancel()
		if r.pulling[r.model] == st {
			delete(r.pulling, r.model)
		}
	}
}

func (r *Runtime) broadcast(st *pullState, pct float64) {
	r.mu.Lock()
	st.last = pct
	listeners := make([]capability.ProgressFunc, 0, len(st.listeners))
	for _, fn := range st.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(pct)
	}
}

// runPull performs the pull for st. Success requires the server's final
// "success" status; a stream that just ends is an error.
func (r *Runtime) runPull(st *pullState) error {
	defer func() {
		r.mu.Lock()
		if r.pulling[r.model] == st {
			delete(r.pulling, r.model)
		}
		r.mu.Unlock()
	}()

	logging.Info(subsystem, "Pulling model %s", r.model)
	agg := newPullProgress()
	succeeded := false
	err := r.client.Pull(st.ctx, &api.PullRequest{Model: r.model}, func(p api.ProgressResponse) error {
		if p.Status == "success" {
			succeeded = true
		}
		if pct, ok := agg.update(p); ok {
			r.broadcast(st, pct)
		}
		return st.ctx.Err()
	})
	if err != nil {
		return err
	}
	if err := st.ctx.Err(); err != nil {
		return fmt.Errorf("pull of %s interrupted: %w", r.model, err)
	}
	if !succeeded {
		return fmt.Errorf("%w: %s", errPullIncomplete, r.model)
	}
	if agg.last < 100 {
		r.broadcast(st, 100)
	}
	logging.Info(subsystem, "Model %s pulled", r.model)
	return nil
}

func (r *Runtime) chatRequest(system string, input string, options map[string]any, stream bool) *api.ChatRequest {
	req := &api.ChatRequest{
		Model: r.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: input},
		},
		Stream:  &stream,
		Options: options,
	}
	if r.keepAlive > 0 {
		req.KeepAlive = &api.Duration{Duration: r.keepAlive}
	}
	return req
}

var errPullIncomplete = errors.New("pull ended before the model was complete")

// normalizeModel appends the implicit ":latest" tag.
func normalizeModel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if i := strings.LastIndex(name, "/"); !strings.Contains(name[i+1:], ":") {
		return name + ":latest"
	}
	return name
}

// isNotFound reports whether err is the server's answer for a missing model.
func isNotFound(err error) bool {
	var se api.StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound
	}
	var sep *api.StatusError
	if errors.As(err, &sep) {
		return sep.StatusCode == http.StatusNotFound
	}
	return false
}
