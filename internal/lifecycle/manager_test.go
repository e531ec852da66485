package lifecycle

import (
	"context"
	"errors"
	"iter"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capctl/internal/capability"
)

type fakeHandle struct{}

func (fakeHandle) Invoke(context.Context, string) (string, error) { return "ok", nil }
func (fakeHandle) InvokeStreaming(context.Context, string) iter.Seq2[string, error] {
	return func(func(string, error) bool) {}
}
func (fakeHandle) Close() error { return nil }

type fakeProvider struct {
	mu sync.Mutex

	supported bool
	statuses  []capability.Status // consumed in order, last one repeats
	checkErr  error

	progress    []float64
	downloadErr error
	createErr   error

	checks     []capability.TranslatorOptions
	downloads  int
	creates    int
	duringStep func(i int)
}

func (f *fakeProvider) IsSupported() bool { return f.supported }

func (f *fakeProvider) CheckAvailability(_ context.Context, opts capability.TranslatorOptions) (capability.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks = append(f.checks, opts)
	if f.checkErr != nil {
		return capability.StatusUnknown, f.checkErr
	}
	if len(f.statuses) == 0 {
		return capability.StatusAvailable, nil
	}
	s := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return s, nil
}

func (f *fakeProvider) Create(context.Context, capability.TranslatorOptions) (capability.Handle, error) {
	f.mu.Lock()
	f.creates++
	f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return fakeHandle{}, nil
}

func (f *fakeProvider) Download(_ context.Context, _ capability.TranslatorOptions, progress capability.ProgressFunc) error {
	f.mu.Lock()
	f.downloads++
	f.mu.Unlock()
	for i, p := range f.progress {
		progress(p)
		if f.duringStep != nil {
			f.duringStep(i)
		}
	}
	return f.downloadErr
}

func (f *fakeProvider) checkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checks)
}

func newTranslatorManager(t *testing.T, p *fakeProvider) *Manager[capability.TranslatorOptions, capability.TranslatorOptions] {
	t.Helper()
	m, err := New(Config[capability.TranslatorOptions, capability.TranslatorOptions]{
		Kind:                capability.KindTranslator,
		Provider:            p,
		AvailabilityOptions: Identity[capability.TranslatorOptions],
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config[capability.PromptOptions, capability.PromptOptions]{Kind: capability.KindLanguageModel})
	assert.Error(t, err)

	_, err = New(Config[capability.TranslatorOptions, capability.TranslatorOptions]{Provider: &fakeProvider{}})
	assert.Error(t, err)

	m, err := New(Config[capability.TranslatorOptions, capability.TranslatorOptions]{
		Kind:     capability.KindTranslator,
		Provider: &fakeProvider{},
	})
	require.NoError(t, err)
	snap := m.Snapshot()
	assert.Equal(t, capability.StatusUnknown, snap.Status)
	assert.Empty(t, snap.Error)
	assert.Zero(t, snap.DownloadProgress)
}

func TestProbeAvailability_Statuses(t *testing.T) {
	tests := []struct {
		name      string
		status    capability.Status
		wantError string
	}{
		{"available", capability.StatusAvailable, ""},
		{"downloadable", capability.StatusDownloadable, ""},
		{"downloading", capability.StatusDownloading, ""},
		{"unavailable", capability.StatusUnavailable, "Translation is not available for the selected languages"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTranslatorManager(t, &fakeProvider{supported: true, statuses: []capability.Status{tt.status}})

			require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
			assert.Equal(t, tt.status, m.Status())
			assert.Equal(t, tt.wantError, m.Error())
		})
	}
}

func TestProbeAvailability_NotSupported(t *testing.T) {
	p := &fakeProvider{supported: false}
	m := newTranslatorManager(t, p)

	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))

	assert.Equal(t, capability.StatusUnknown, m.Status())
	assert.Equal(t, "Translator is not supported", m.Error())
	assert.Zero(t, p.checkCount(), "provider must not be probed when the family is absent")
}

func TestProbeAvailability_NotSupportedOverridesEarlierStatus(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusAvailable}}
	m := newTranslatorManager(t, p)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
	require.Equal(t, capability.StatusAvailable, m.Status())

	p.supported = false
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
	assert.Equal(t, capability.StatusUnknown, m.Status())
	assert.Equal(t, "Translator is not supported", m.Error())
}

func TestProbeAvailability_ClearsStaleError(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusUnavailable, capability.StatusAvailable}}
	m := newTranslatorManager(t, p)

	opts := capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "xx"}
	require.NoError(t, m.ProbeAvailability(context.Background(), opts))
	assert.Equal(t, capability.StatusUnavailable, m.Status())
	assert.NotEmpty(t, m.Error())

	opts.TargetLanguage = "fr"
	require.NoError(t, m.ProbeAvailability(context.Background(), opts))
	assert.Equal(t, capability.StatusAvailable, m.Status())
	assert.Empty(t, m.Error())
}

func TestProbeAvailability_ProviderFailurePropagates(t *testing.T) {
	boom := errors.New("service crashed")
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusDownloadable}}
	m := newTranslatorManager(t, p)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))

	p.checkErr = boom
	err := m.ProbeAvailability(context.Background(), capability.TranslatorOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, capability.StatusDownloadable, m.Status(), "status is left as it was")
	assert.Empty(t, m.Error(), "provider failures are not translated into the error text")
}

func TestProbeAvailability_InvalidStatus(t *testing.T) {
	m := newTranslatorManager(t, &fakeProvider{supported: true, statuses: []capability.Status{"readily"}})
	err := m.ProbeAvailability(context.Background(), capability.TranslatorOptions{})
	assert.Error(t, err)
	assert.Equal(t, capability.StatusUnknown, m.Status())
}

func TestProbeAvailability_PassesOptions(t *testing.T) {
	p := &fakeProvider{supported: true}
	m := newTranslatorManager(t, p)

	opts := capability.TranslatorOptions{SourceLanguage: "de", TargetLanguage: "ja"}
	require.NoError(t, m.ProbeAvailability(context.Background(), opts))
	require.Len(t, p.checks, 1)
	assert.Equal(t, opts, p.checks[0])
}

func TestDownload_ProgressThenAvailable(t *testing.T) {
	p := &fakeProvider{
		supported: true,
		statuses:  []capability.Status{capability.StatusDownloadable, capability.StatusAvailable},
		progress:  []float64{10, 55, 100},
	}
	m := newTranslatorManager(t, p)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
	require.True(t, m.Snapshot().CanDownload())

	var seen []float64
	var statusDuring []capability.Status
	p.duringStep = func(int) { statusDuring = append(statusDuring, m.Status()) }

	err := m.Download(context.Background(), capability.TranslatorOptions{}, func(pct float64) {
		seen = append(seen, pct)
		assert.Equal(t, pct, m.DownloadProgress(), "state is updated before the observer runs")
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 55, 100}, seen)
	assert.Equal(t, []capability.Status{capability.StatusDownloading, capability.StatusDownloading, capability.StatusDownloading}, statusDuring)
	assert.Equal(t, capability.StatusAvailable, m.Status())
	assert.Empty(t, m.Error())
	assert.Equal(t, 100.0, m.DownloadProgress())
	assert.True(t, m.Snapshot().CanInvoke())
}

func TestDownload_ReprobesWithCreateOptions(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusUnavailable}}
	m := newTranslatorManager(t, p)

	opts := capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "zz"}
	require.NoError(t, m.Download(context.Background(), opts, nil))

	require.Len(t, p.checks, 1)
	assert.Equal(t, opts, p.checks[0])
	assert.Equal(t, capability.StatusUnavailable, m.Status())
	assert.Equal(t, "Translation is not available for the selected languages", m.Error())
}

func TestDownload_FailureRestoresStatus(t *testing.T) {
	boom := errors.New("network unreachable")
	p := &fakeProvider{
		supported:   true,
		statuses:    []capability.Status{capability.StatusDownloadable},
		progress:    []float64{20},
		downloadErr: boom,
	}
	m := newTranslatorManager(t, p)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))

	err := m.Download(context.Background(), capability.TranslatorOptions{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, capability.StatusDownloadable, m.Status())
	assert.Equal(t, 20.0, m.DownloadProgress(), "progress keeps the last reported value")
	assert.Empty(t, m.Error())
	assert.Equal(t, 1, p.checkCount(), "no re-probe after a failed download")
}

func TestDownload_ReprobeFailureRestoresStatus(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusDownloadable}}
	m := newTranslatorManager(t, p)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))

	boom := errors.New("probe failed")
	p.checkErr = boom
	err := m.Download(context.Background(), capability.TranslatorOptions{}, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, capability.StatusDownloadable, m.Status())
}

func TestDownload_ClampsProgress(t *testing.T) {
	p := &fakeProvider{supported: true, progress: []float64{-5, math.NaN(), 140}}
	m := newTranslatorManager(t, p)

	var seen []float64
	require.NoError(t, m.Download(context.Background(), capability.TranslatorOptions{}, func(pct float64) {
		seen = append(seen, pct)
	}))
	assert.Equal(t, []float64{0, 100}, seen)
	assert.Equal(t, 100.0, m.DownloadProgress())
}

func TestDownload_ResetsProgressAndError(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusDownloadable}}
	m := newTranslatorManager(t, p)
	m.SetError("something earlier")

	p.progress = []float64{40}
	p.downloadErr = errors.New("interrupted")
	_ = m.Download(context.Background(), capability.TranslatorOptions{}, nil)
	require.Equal(t, 40.0, m.DownloadProgress())

	p.progress = nil
	p.downloadErr = nil
	sub := m.Subscribe(16)
	require.NoError(t, m.Download(context.Background(), capability.TranslatorOptions{}, nil))

	ev := <-sub.Channel
	assert.Zero(t, ev.New.DownloadProgress)
	assert.Equal(t, capability.StatusDownloading, ev.New.Status)
	assert.Empty(t, ev.New.Error)
}

func TestInstantiate_IsNotGated(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusDownloadable}}
	m := newTranslatorManager(t, p)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))

	h, err := m.Instantiate(context.Background(), capability.TranslatorOptions{})
	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Equal(t, 1, p.creates)
}

func TestInstantiate_PropagatesError(t *testing.T) {
	boom := errors.New("model corrupted")
	m := newTranslatorManager(t, &fakeProvider{supported: true, createErr: boom})

	_, err := m.Instantiate(context.Background(), capability.TranslatorOptions{})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.Error())
}

func TestAttach_ProbesOnceWithDefaults(t *testing.T) {
	p := &fakeProvider{supported: true, statuses: []capability.Status{capability.StatusDownloadable}}
	defaults := capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "kn"}

	m, err := Attach(context.Background(), Config[capability.TranslatorOptions, capability.TranslatorOptions]{
		Kind:                capability.KindTranslator,
		Provider:            p,
		Defaults:            defaults,
		DefaultAvailability: defaults,
	})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, capability.StatusDownloadable, m.Status())
	require.Len(t, p.checks, 1)
	assert.Equal(t, defaults, p.checks[0])
}

func TestAttach_ReturnsManagerOnProbeFailure(t *testing.T) {
	boom := errors.New("boom")
	m, err := Attach(context.Background(), Config[capability.TranslatorOptions, capability.TranslatorOptions]{
		Kind:     capability.KindTranslator,
		Provider: &fakeProvider{supported: true, checkErr: boom},
	})
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, m)
	m.Close()
}

func TestCustomMessages(t *testing.T) {
	m, err := New(Config[capability.TranslatorOptions, capability.TranslatorOptions]{
		Kind:                capability.KindTranslator,
		Provider:            &fakeProvider{supported: false},
		NotSupportedMessage: "Translator API is not supported",
	})
	require.NoError(t, err)
	require.NoError(t, m.ProbeAvailability(context.Background(), capability.TranslatorOptions{}))
	assert.Equal(t, "Translator API is not supported", m.Error())
}

func TestSetAndClearError(t *testing.T) {
	m := newTranslatorManager(t, &fakeProvider{supported: true})
	m.SetError("Prompt aborted")
	assert.True(t, m.Snapshot().HasError())
	m.ClearError()
	assert.False(t, m.Snapshot().HasError())
}

func TestControllerDefaults(t *testing.T) {
	p := &fakeProvider{supported: true}
	m := newTranslatorManager(t, p)

	pair := capability.TranslatorOptions{SourceLanguage: "fr", TargetLanguage: "de"}
	m.SetDefaults(pair, pair)

	var c Controller = m
	require.NoError(t, c.Refresh(context.Background()))
	require.NoError(t, c.DownloadDefault(context.Background(), nil))
	_, err := c.InstantiateDefault(context.Background())
	require.NoError(t, err)

	require.Len(t, p.checks, 2)
	assert.Equal(t, pair, p.checks[0])
	assert.Equal(t, pair, p.checks[1])
	assert.Equal(t, capability.KindTranslator, c.Kind())
}
