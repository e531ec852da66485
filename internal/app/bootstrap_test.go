package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capctl/internal/capability"
	"capctl/internal/config"
)

func simulatedConfig() config.CapctlConfig {
	cfg := config.GetDefaultConfig()
	cfg.Backend = config.BackendSimulated
	cfg.Simulated.StepDelay = 0
	cfg.Simulated.ChunkDelay = 0
	return cfg
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNew_ActivatesEveryCapability(t *testing.T) {
	a, err := New(context.Background(), simulatedConfig())
	require.NoError(t, err)
	defer a.Close()

	ctrls := a.Controllers()
	require.Len(t, ctrls, 4)
	for i, kind := range capability.AllKinds {
		assert.Equal(t, kind, ctrls[i].Kind())
		assert.Equal(t, capability.StatusDownloadable, ctrls[i].Snapshot().Status)
	}
}

func TestNew_UnsupportedUsesMessageOverrides(t *testing.T) {
	cfg := simulatedConfig()
	cfg.Simulated.Unsupported = true
	cfg.Messages = map[string]config.MessageOverrides{
		"translator": {NotSupported: "Translation needs a newer runtime"},
	}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "Translation needs a newer runtime", a.Translator.Error())
	assert.Equal(t, "Summarizer is not supported", a.Summarizer.Error())
	assert.Equal(t, capability.StatusUnknown, a.Prompt.Status())
}

func TestNew_UnavailableDefaults(t *testing.T) {
	cfg := simulatedConfig()
	cfg.Capabilities.Translator = capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "en"}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, capability.StatusUnavailable, a.Translator.Status())
	assert.Equal(t, "Translation is not available for the selected languages", a.Translator.Error())
}

func TestNew_UnknownBackend(t *testing.T) {
	cfg := simulatedConfig()
	cfg.Backend = "nope"

	_, err := New(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrUnknownBackend)
}

func TestController(t *testing.T) {
	a, err := New(context.Background(), simulatedConfig())
	require.NoError(t, err)
	defer a.Close()

	c, err := a.Controller(capability.KindSummarizer)
	require.NoError(t, err)
	assert.Equal(t, capability.KindSummarizer, c.Kind())

	_, err = a.Controller("painter")
	assert.Error(t, err)
}

func TestDownloadThenInvoke(t *testing.T) {
	a, err := New(context.Background(), simulatedConfig())
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Translator.DownloadDefault(ctx, nil))
	assert.Equal(t, capability.StatusAvailable, a.Translator.Status())
	assert.Equal(t, float64(100), a.Translator.DownloadProgress())

	h, err := a.Translator.InstantiateDefault(ctx)
	require.NoError(t, err)
	defer h.Close()
	out, err := h.Invoke(ctx, "Hello")
	require.NoError(t, err)
	assert.Equal(t, "[kn] Hello", out)
}

func TestClose_ClosesSubscriptions(t *testing.T) {
	a, err := New(context.Background(), simulatedConfig())
	require.NoError(t, err)

	sub := a.Proofreader.Subscribe(4)
	a.Close()
	assert.True(t, sub.IsClosed())
}

func TestLoadConfiguration_Overrides(t *testing.T) {
	path := writeConfig(t, "backend: ollama\nlogging:\n  level: warn\n")

	cfg, err := LoadConfiguration(&Config{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, config.BackendOllama, cfg.Backend)
	assert.Equal(t, "warn", cfg.Logging.Level)

	cfg, err = LoadConfiguration(&Config{ConfigPath: path, Backend: "simulated", LogLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, config.BackendSimulated, cfg.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfiguration_Errors(t *testing.T) {
	path := writeConfig(t, "backend: simulated\n")

	_, err := LoadConfiguration(&Config{ConfigPath: path, Backend: "llamafile"})
	assert.ErrorIs(t, err, config.ErrUnknownBackend)

	_, err = LoadConfiguration(&Config{ConfigPath: path, LogLevel: "loud"})
	assert.ErrorContains(t, err, "invalid configuration")

	_, err = LoadConfiguration(&Config{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestNewApplication_CLILogging(t *testing.T) {
	path := writeConfig(t, "backend: simulated\nsimulated:\n  stepDelay: 0s\n  chunkDelay: 0s\n")

	var logs bytes.Buffer
	a, err := NewApplication(context.Background(), &Config{ConfigPath: path, LogLevel: "debug", LogOutput: &logs})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.LogChannel)
	assert.Contains(t, logs.String(), "Activated 4 capabilities")
}

func TestNewApplication_TUILogging(t *testing.T) {
	path := writeConfig(t, "backend: simulated\n")

	a, err := NewApplication(context.Background(), &Config{ConfigPath: path, TUI: true})
	require.NoError(t, err)
	require.NotNil(t, a.LogChannel)

	ch := a.LogChannel
	a.Close()
	for range ch {
	}
	assert.Nil(t, a.LogChannel)
}
