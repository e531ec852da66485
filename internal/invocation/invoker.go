package invocation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"capctl/internal/capability"
	"capctl/internal/metrics"
	"capctl/pkg/logging"
)

const (
	subsystem  = "Invocation"
	tracerName = "capctl/internal/invocation"
)

// Outcome tags how an invocation settled.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeCancelled Outcome = "cancelled"
)

// Result describes a settled invocation.
type Result struct {
	Outcome Outcome
	// Output is the final output, or the partial output accumulated before a
	// streaming invocation was cancelled or failed.
	Output   string
	Chunks   int
	TokenID  string
	Duration time.Duration
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTracer sets the tracer used for invocation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(i *Invoker) { i.tracer = tracer }
}

// Invoker runs invocations for one call site and holds at most one current
// token. Starting a new invocation supersedes the current token without
// cancelling it; Cancel only ever reaches the current one.
type Invoker struct {
	kind   capability.Kind
	tracer trace.Tracer

	mu       sync.Mutex
	current  *Token
	inFlight bool
}

// NewInvoker returns an idle invoker for kind.
func NewInvoker(kind capability.Kind, opts ...Option) *Invoker {
	i := &Invoker{kind: kind}
	for _, opt := range opts {
		opt(i)
	}
	if i.tracer == nil {
		i.tracer = otel.Tracer(tracerName)
	}
	return i
}

// Invoke runs a single request-response invocation.
func (i *Invoker) Invoke(ctx context.Context, h capability.Handle, input string) (Result, error) {
	tok := i.begin(ctx)
	defer i.settle(tok)

	ctx, span := i.tracer.Start(tok.Context(), "capctl.invoke", trace.WithAttributes(
		attribute.String("capctl.kind", string(i.kind)),
		attribute.String("capctl.token_id", tok.ID()),
	))
	defer span.End()

	start := time.Now()
	output, err := h.Invoke(ctx, input)
	res := Result{Output: output, TokenID: tok.ID(), Duration: time.Since(start)}

	return i.finish(span, tok, "once", res, err)
}

// InvokeStreaming runs a streaming invocation. Every chunk is appended to the
// accumulated output, which is handed to publish before the next chunk is
// requested. A cancelled token stops consumption at the next chunk boundary:
// a chunk delivered after cancellation is dropped and the output accumulated
// before it is kept in the result.
func (i *Invoker) InvokeStreaming(ctx context.Context, h capability.Handle, input string, publish func(accumulated string)) (Result, error) {
	tok := i.begin(ctx)
	defer i.settle(tok)

	ctx, span := i.tracer.Start(tok.Context(), "capctl.invoke_stream", trace.WithAttributes(
		attribute.String("capctl.kind", string(i.kind)),
		attribute.String("capctl.token_id", tok.ID()),
	))
	defer span.End()

	start := time.Now()
	var (
		acc    strings.Builder
		chunks int
		err    error
	)
	for chunk, chunkErr := range h.InvokeStreaming(ctx, input) {
		if tok.Cancelled() {
			break
		}
		if chunkErr != nil {
			err = chunkErr
			break
		}
		acc.WriteString(chunk)
		chunks++
		if publish != nil {
			publish(acc.String())
		}
		if tok.Cancelled() {
			break
		}
	}
	metrics.AddStreamChunks(string(i.kind), chunks)

	res := Result{Output: acc.String(), Chunks: chunks, TokenID: tok.ID(), Duration: time.Since(start)}
	span.SetAttributes(attribute.Int("capctl.chunks", chunks))

	return i.finish(span, tok, "stream", res, err)
}

// Cancel cancels the current invocation. It reports false when nothing is in
// flight.
func (i *Invoker) Cancel() bool {
	i.mu.Lock()
	tok := i.current
	i.mu.Unlock()

	if tok == nil {
		return false
	}
	logging.Debug(subsystem, "Cancelling %s invocation %s", i.kind, tok.ID())
	tok.Cancel()
	return true
}

// Current returns the current token, or nil when idle.
func (i *Invoker) Current() *Token {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.current
}

// InFlight reports whether an invocation is running.
func (i *Invoker) InFlight() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.inFlight
}

func (i *Invoker) begin(ctx context.Context) *Token {
	tok := newToken(ctx)

	i.mu.Lock()
	if i.current != nil {
		logging.Debug(subsystem, "Invocation %s superseded by %s", i.current.ID(), tok.ID())
	}
	i.current = tok
	i.inFlight = true
	i.mu.Unlock()

	return tok
}

// settle releases the token. A superseded invocation leaves the newer token
// and the in-flight flag alone.
func (i *Invoker) settle(tok *Token) {
	i.mu.Lock()
	if i.current == tok {
		i.current = nil
		i.inFlight = false
	}
	i.mu.Unlock()
	tok.release()
}

func (i *Invoker) finish(span trace.Span, tok *Token, mode string, res Result, err error) (Result, error) {
	kind := string(i.kind)

	switch {
	case tok.Cancelled() || (err != nil && errors.Is(err, context.Canceled)):
		res.Outcome = OutcomeCancelled
		span.SetAttributes(attribute.String("capctl.outcome", string(OutcomeCancelled)))
		metrics.RecordInvocation(kind, mode, string(OutcomeCancelled), res.Duration)
		logging.Info(subsystem, "%s invocation %s cancelled after %d chunks", kind, tok.ID(), res.Chunks)
		return res, nil

	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("capctl.outcome", "failed"))
		metrics.RecordInvocation(kind, mode, "failed", res.Duration)
		logging.Error(subsystem, err, "%s invocation %s failed", kind, tok.ID())
		return res, err

	default:
		res.Outcome = OutcomeCompleted
		span.SetAttributes(attribute.String("capctl.outcome", string(OutcomeCompleted)))
		metrics.RecordInvocation(kind, mode, string(OutcomeCompleted), res.Duration)
		logging.Debug(subsystem, "%s invocation %s completed in %s", kind, tok.ID(), res.Duration)
		return res, nil
	}
}
