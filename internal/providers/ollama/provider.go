package ollama

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/ollama/ollama/api"

	"capctl/internal/capability"
	"capctl/pkg/logging"
)

var errHandleClosed = errors.New("ollama: handle is closed")

// provider serves one capability kind. O is both the creation and the
// availability option type.
type provider[O any] struct {
	rt           *Runtime
	kind         capability.Kind
	validate     func(O) error
	instructions func(O) string
	modelOptions func(O) map[string]any
}

func (p *provider[O]) IsSupported() bool { return p.rt.supported }

// CheckAvailability declines invalid options, reports an in-process pull as
// downloading and otherwise asks the server whether the model is installed.
func (p *provider[O]) CheckAvailability(ctx context.Context, opts O) (capability.Status, error) {
	if err := p.validate(opts); err != nil {
		logging.Debug(subsystem, "%s declined options: %v", p.kind, err)
		return capability.StatusUnavailable, nil
	}
	if p.rt.isPulling() {
		return capability.StatusDownloading, nil
	}
	ok, err := p.rt.installed(ctx)
	if err != nil {
		return capability.StatusUnknown, err
	}
	if ok {
		return capability.StatusAvailable, nil
	}
	return capability.StatusDownloadable, nil
}

func (p *provider[O]) Download(ctx context.Context, opts O, progress capability.ProgressFunc) error {
	if err := p.validate(opts); err != nil {
		return err
	}
	return p.rt.pull(ctx, progress)
}

// Create checks the model and pulls it first when it is missing.
func (p *provider[O]) Create(ctx context.Context, opts O) (capability.Handle, error) {
	if err := p.validate(opts); err != nil {
		return nil, err
	}
	if _, err := p.rt.client.Show(ctx, &api.ShowRequest{Model: p.rt.model}); err != nil {
		if !isNotFound(err) {
			return nil, err
		}
		logging.Info(subsystem, "Model %s missing, pulling before creating %s", p.rt.model, p.kind)
		if err := p.rt.pull(ctx, nil); err != nil {
			return nil, err
		}
	}

	var options map[string]any
	if p.modelOptions != nil {
		options = p.modelOptions(opts)
	}
	return &handle{rt: p.rt, system: p.instructions(opts), options: options}, nil
}

type handle struct {
	rt      *Runtime
	system  string
	options map[string]any

	mu     sync.Mutex
	closed bool
}

func (h *handle) Invoke(ctx context.Context, input string) (string, error) {
	if h.isClosed() {
		return "", errHandleClosed
	}
	var out string
	err := h.rt.client.Chat(ctx, h.rt.chatRequest(h.system, input, h.options, false), func(r api.ChatResponse) error {
		out += r.Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// InvokeStreaming bridges the callback-based streaming chat into an iterator.
// The request runs on its own goroutine and is cancelled when the consumer
// stops early; the iterator does not return before that goroutine has exited.
func (h *handle) InvokeStreaming(ctx context.Context, input string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if h.isClosed() {
			yield("", errHandleClosed)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		chunks := make(chan string)
		errc := make(chan error, 1)
		go func() {
			defer close(chunks)
			errc <- h.rt.client.Chat(ctx, h.rt.chatRequest(h.system, input, h.options, true), func(r api.ChatResponse) error {
				if r.Message.Content == "" {
					return nil
				}
				select {
				case chunks <- r.Message.Content:
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		}()

		for chunk := range chunks {
			if !yield(chunk, nil) {
				cancel()
				for range chunks {
				}
				return
			}
		}
		if err := <-errc; err != nil {
			yield("", err)
		}
	}
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *handle) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
