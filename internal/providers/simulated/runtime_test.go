package simulated

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capctl/internal/capability"
	"capctl/internal/invocation"
	"capctl/internal/lifecycle"
)

func fastRuntime(opts Options) *Runtime {
	if opts.StepDelay == 0 {
		opts.StepDelay = time.Millisecond
	}
	return NewRuntime(opts)
}

func TestCheckAvailability(t *testing.T) {
	rt := fastRuntime(Options{})
	p := rt.Translator()

	status, err := p.CheckAvailability(context.Background(), capability.TranslatorOptions{})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusDownloadable, status)

	status, err = p.CheckAvailability(context.Background(), capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "tlh"})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusUnavailable, status)

	rt.SetStatus(capability.KindTranslator, capability.StatusAvailable)
	status, err = p.CheckAvailability(context.Background(), capability.TranslatorOptions{})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusAvailable, status)
}

func TestUnsupported(t *testing.T) {
	rt := fastRuntime(Options{Unsupported: true})
	assert.False(t, rt.Prompt().IsSupported())
	assert.False(t, rt.Proofreader().IsSupported())
}

func TestDownload_ReportsProgress(t *testing.T) {
	rt := fastRuntime(Options{DownloadSteps: 4})
	p := rt.Summarizer()

	var seen []float64
	require.NoError(t, p.Download(context.Background(), capability.SummarizerOptions{}, func(pct float64) {
		seen = append(seen, pct)
	}))
	assert.Equal(t, []float64{25, 50, 75, 100}, seen)

	status, err := p.CheckAvailability(context.Background(), capability.SummarizerOptions{})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusAvailable, status)

	other, err := rt.Prompt().CheckAvailability(context.Background(), capability.PromptOptions{})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusDownloadable, other, "downloads are per kind")
}

func TestDownload_ReportsDownloadingWhileRunning(t *testing.T) {
	rt := fastRuntime(Options{DownloadSteps: 3})
	p := rt.Prompt()

	var during []capability.Status
	require.NoError(t, p.Download(context.Background(), capability.PromptOptions{}, func(float64) {
		s, _ := p.CheckAvailability(context.Background(), capability.PromptOptions{})
		during = append(during, s)
	}))
	assert.Equal(t, []capability.Status{capability.StatusDownloading, capability.StatusDownloading, capability.StatusDownloading}, during)
}

func TestDownload_Cancelled(t *testing.T) {
	rt := fastRuntime(Options{DownloadSteps: 100, StepDelay: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	err := rt.Translator().Download(ctx, capability.TranslatorOptions{}, func(pct float64) {
		if pct >= 2 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)

	status, err := rt.Translator().CheckAvailability(context.Background(), capability.TranslatorOptions{})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusDownloadable, status)
}

func TestDownload_InvalidOptions(t *testing.T) {
	rt := fastRuntime(Options{})
	err := rt.Summarizer().Download(context.Background(), capability.SummarizerOptions{Type: "poem"}, nil)
	assert.ErrorIs(t, err, capability.ErrUnavailable)
}

func TestCreate_InstallsSilently(t *testing.T) {
	rt := fastRuntime(Options{DownloadSteps: 2})
	h, err := rt.Proofreader().Create(context.Background(), capability.ProofreaderOptions{})
	require.NoError(t, err)
	defer h.Close()

	status, err := rt.Proofreader().CheckAvailability(context.Background(), capability.ProofreaderOptions{})
	require.NoError(t, err)
	assert.Equal(t, capability.StatusAvailable, status)
}

func TestHandle_StreamingConcatenatesToInvoke(t *testing.T) {
	rt := fastRuntime(Options{InitialStatus: capability.StatusAvailable})
	h, err := rt.Prompt().Create(context.Background(), capability.PromptOptions{})
	require.NoError(t, err)

	whole, err := h.Invoke(context.Background(), "What is Go?")
	require.NoError(t, err)

	var b strings.Builder
	chunks := 0
	for chunk, err := range h.InvokeStreaming(context.Background(), "What is Go?") {
		require.NoError(t, err)
		b.WriteString(chunk)
		chunks++
	}
	assert.Equal(t, whole, b.String())
	assert.Greater(t, chunks, 1)
}

func TestHandle_Closed(t *testing.T) {
	rt := fastRuntime(Options{InitialStatus: capability.StatusAvailable})
	h, err := rt.Translator().Create(context.Background(), capability.TranslatorOptions{})
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.Invoke(context.Background(), "Hello")
	assert.True(t, errors.Is(err, errHandleClosed))
}

func TestHandle_StreamingStopsOnCancel(t *testing.T) {
	rt := fastRuntime(Options{InitialStatus: capability.StatusAvailable, ChunkDelay: time.Millisecond})
	h, err := rt.Prompt().Create(context.Background(), capability.PromptOptions{})
	require.NoError(t, err)

	inv := invocation.NewInvoker(capability.KindLanguageModel)
	var published []string
	res, err := inv.InvokeStreaming(context.Background(), h, "Tell me a story", func(acc string) {
		published = append(published, acc)
		if len(published) == 2 {
			inv.Cancel()
		}
	})

	require.NoError(t, err)
	assert.Equal(t, invocation.OutcomeCancelled, res.Outcome)
	assert.Len(t, published, 2)
	assert.Equal(t, published[1], res.Output)
}

func TestLifecycleWalkthrough(t *testing.T) {
	rt := fastRuntime(Options{DownloadSteps: 2})
	m, err := lifecycle.Attach(context.Background(), lifecycle.Config[capability.TranslatorOptions, capability.TranslatorOptions]{
		Kind:                capability.KindTranslator,
		Provider:            rt.Translator(),
		AvailabilityOptions: lifecycle.Identity[capability.TranslatorOptions],
	})
	require.NoError(t, err)
	defer m.Close()

	require.Equal(t, capability.StatusDownloadable, m.Status())
	require.NoError(t, m.Download(context.Background(), capability.TranslatorOptions{}, nil))
	assert.Equal(t, capability.StatusAvailable, m.Status())
	assert.Equal(t, 100.0, m.DownloadProgress())

	h, err := m.Instantiate(context.Background(), capability.TranslatorOptions{TargetLanguage: "fr"})
	require.NoError(t, err)
	out, err := h.Invoke(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "[fr] Hello", out)
}
