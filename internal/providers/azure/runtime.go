// Package azure backs the capabilities with an Azure OpenAI chat deployment.
// The deployment lives in the cloud, so there is nothing to download: every
// capability is available as soon as the endpoint is configured.
package azure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"

	"capctl/internal/capability"
	"capctl/pkg/logging"
)

const subsystem = "Azure"

var errNoCompletion = errors.New("no completion received from Azure OpenAI")

// Options identify the deployment.
type Options struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

// Runtime is a client for one Azure OpenAI deployment.
type Runtime struct {
	client     *azopenai.Client
	deployment string
}

// NewRuntime creates the client. Missing settings leave the runtime
// unsupported rather than failing.
func NewRuntime(opts Options) (*Runtime, error) {
	rt := &Runtime{deployment: opts.Deployment}
	if opts.Endpoint == "" || opts.APIKey == "" || opts.Deployment == "" {
		logging.Debug(subsystem, "Endpoint, API key or deployment not configured")
		return rt, nil
	}

	client, err := azopenai.NewClientWithKeyCredential(opts.Endpoint, azcore.NewKeyCredential(opts.APIKey), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating Azure OpenAI client: %w", err)
	}
	rt.client = client
	return rt, nil
}

func (r *Runtime) Prompt() capability.Provider[capability.PromptOptions, capability.PromptOptions] {
	return &provider[capability.PromptOptions]{
		rt:           r,
		kind:         capability.KindLanguageModel,
		validate:     capability.PromptOptions.Validate,
		instructions: capability.PromptOptions.Instructions,
		temperature: func(o capability.PromptOptions) *float32 {
			if o.Temperature == 0 {
				return nil
			}
			return to.Ptr(float32(o.Temperature))
		},
	}
}

func (r *Runtime) Translator() capability.Provider[capability.TranslatorOptions, capability.TranslatorOptions] {
	return &provider[capability.TranslatorOptions]{
		rt:           r,
		kind:         capability.KindTranslator,
		validate:     capability.TranslatorOptions.Validate,
		instructions: capability.TranslatorOptions.Instructions,
	}
}

func (r *Runtime) Summarizer() capability.Provider[capability.SummarizerOptions, capability.SummarizerOptions] {
	return &provider[capability.SummarizerOptions]{
		rt:           r,
		kind:         capability.KindSummarizer,
		validate:     capability.SummarizerOptions.Validate,
		instructions: capability.SummarizerOptions.Instructions,
	}
}

func (r *Runtime) Proofreader() capability.Provider[capability.ProofreaderOptions, capability.ProofreaderOptions] {
	return &provider[capability.ProofreaderOptions]{
		rt:           r,
		kind:         capability.KindProofreader,
		validate:     capability.ProofreaderOptions.Validate,
		instructions: capability.ProofreaderOptions.Instructions,
	}
}

type provider[O any] struct {
	rt           *Runtime
	kind         capability.Kind
	validate     func(O) error
	instructions func(O) string
	temperature  func(O) *float32
}

func (p *provider[O]) IsSupported() bool { return p.rt.client != nil }

func (p *provider[O]) CheckAvailability(_ context.Context, opts O) (capability.Status, error) {
	if err := p.validate(opts); err != nil {
		logging.Debug(subsystem, "%s declined options: %v", p.kind, err)
		return capability.StatusUnavailable, nil
	}
	return capability.StatusAvailable, nil
}

// Download has nothing to fetch and completes immediately.
func (p *provider[O]) Download(_ context.Context, opts O, progress capability.ProgressFunc) error {
	if err := p.validate(opts); err != nil {
		return err
	}
	capability.ReportProgress(progress, 100)
	return nil
}

func (p *provider[O]) Create(_ context.Context, opts O) (capability.Handle, error) {
	if p.rt.client == nil {
		return nil, capability.ErrNotSupported
	}
	if err := p.validate(opts); err != nil {
		return nil, err
	}
	h := &handle{rt: p.rt, instructions: p.instructions(opts)}
	if p.temperature != nil {
		h.temperature = p.temperature(opts)
	}
	return h, nil
}

type handle struct {
	rt           *Runtime
	instructions string
	temperature  *float32
}

func (h *handle) Invoke(ctx context.Context, input string) (string, error) {
	resp, err := h.rt.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		DeploymentName: to.Ptr(h.rt.deployment),
		Messages:       h.messages(input),
		Temperature:    h.temperature,
	}, nil)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) > 0 && resp.Choices[0].Message != nil && resp.Choices[0].Message.Content != nil {
		return *resp.Choices[0].Message.Content, nil
	}
	return "", errNoCompletion
}

// InvokeStreaming reads completion deltas from the server-sent event stream.
// The context is checked before each read.
func (h *handle) InvokeStreaming(ctx context.Context, input string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := h.rt.client.GetChatCompletionsStream(ctx, azopenai.ChatCompletionsStreamOptions{
			DeploymentName: to.Ptr(h.rt.deployment),
			Messages:       h.messages(input),
			Temperature:    h.temperature,
		}, nil)
		if err != nil {
			yield("", err)
			return
		}
		stream := resp.ChatCompletionsStream
		defer stream.Close()

		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}
			chunk, err := stream.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			for _, choice := range chunk.Choices {
				if choice.Delta == nil || choice.Delta.Content == nil || *choice.Delta.Content == "" {
					continue
				}
				if !yield(*choice.Delta.Content, nil) {
					return
				}
			}
		}
	}
}

func (h *handle) Close() error { return nil }

// messages folds the instructions into the single user turn.
func (h *handle) messages(input string) []azopenai.ChatRequestMessageClassification {
	return []azopenai.ChatRequestMessageClassification{
		&azopenai.ChatRequestUserMessage{
			Content: azopenai.NewChatRequestUserMessageContent(composePrompt(h.instructions, input)),
		},
	}
}

func composePrompt(instructions, input string) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nText:\n")
	b.WriteString(input)
	return b.String()
}
