package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"capctl/internal/app"
	"capctl/internal/capability"
	"capctl/internal/config"
)

func newTestServer(t *testing.T, initial capability.Status) *Server {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Backend = config.BackendSimulated
	cfg.Simulated.InitialStatus = initial
	cfg.Simulated.StepDelay = 0
	cfg.Simulated.ChunkDelay = 0

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return New(a, "test")
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "unexpected content %T", res.Content[0])
	return text.Text
}

func TestToolsAreRegistered(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)

	resp := s.MCPServer().HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{"capability_status", "capability_download", "prompt", "translate", "summarize", "proofread"} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}

func TestHandleStatus(t *testing.T) {
	s := newTestServer(t, capability.StatusDownloadable)

	res, err := s.handleStatus(context.Background(), call(nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var statuses []capabilityStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &statuses))
	require.Len(t, statuses, 4)
	assert.Equal(t, capability.KindLanguageModel, statuses[0].Kind)
	assert.Equal(t, "downloadable", statuses[0].Status)

	res, err = s.handleStatus(context.Background(), call(map[string]any{"kind": "translate", "refresh": true}))
	require.NoError(t, err)
	statuses = nil
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, capability.KindTranslator, statuses[0].Kind)

	res, err = s.handleStatus(context.Background(), call(map[string]any{"kind": "painter"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleDownload(t *testing.T) {
	s := newTestServer(t, capability.StatusDownloadable)

	res, err := s.handleDownload(context.Background(), call(map[string]any{"kind": "summarizer"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var st capabilityStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &st))
	assert.Equal(t, "available", st.Status)
	assert.Equal(t, float64(100), st.DownloadProgress)

	// Already available is not an error.
	res, err = s.handleDownload(context.Background(), call(map[string]any{"kind": "summarizer"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleDownload(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleDownload_Unavailable(t *testing.T) {
	s := newTestServer(t, capability.StatusUnavailable)

	res, err := s.handleDownload(context.Background(), call(map[string]any{"kind": "proofreader"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Proofreader is not available")
}

func TestHandleTranslate(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)

	res, err := s.handleTranslate(context.Background(), call(map[string]any{"text": "Hello", "target_language": "fr"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out invocationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "completed", out.Outcome)
	assert.Equal(t, "[fr] Hello", out.Output)
}

func TestHandleTranslate_UnsupportedPair(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)

	res, err := s.handleTranslate(context.Background(), call(map[string]any{"text": "Hello", "source_language": "en", "target_language": "en"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Translation is not available for the selected languages", resultText(t, res))
}

func TestHandleTranslate_ProbesRequestedPair(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)
	s.app.Translator.SetDefaults(
		capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "en"},
		capability.TranslatorOptions{SourceLanguage: "en", TargetLanguage: "en"},
	)
	require.NoError(t, s.app.Translator.Refresh(context.Background()))
	require.Equal(t, capability.StatusUnavailable, s.app.Translator.Status())

	res, err := s.handleTranslate(context.Background(), call(map[string]any{"text": "Hello", "source_language": "en", "target_language": "hi"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out invocationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "[hi] Hello", out.Output)
	assert.Equal(t, capability.StatusUnavailable, s.app.Translator.Status(), "status describes the defaults again")
}

func TestHandleTranslate_UnsupportedPairKeepsDefaultStatus(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)

	res, err := s.handleTranslate(context.Background(), call(map[string]any{"text": "Hello", "source_language": "fr", "target_language": "fr"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, capability.StatusAvailable, s.app.Translator.Status())
	assert.Empty(t, s.app.Translator.Error())
}

func TestHandleProofread_Streaming(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)

	res, err := s.handleProofread(context.Background(), call(map[string]any{"text": "i like teh cat", "stream": true}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out invocationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "I like the cat.", out.Output)
	assert.Greater(t, out.Chunks, 1)
}

func TestHandleSummarize_RejectsBadOptions(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)

	res, err := s.handleSummarize(context.Background(), call(map[string]any{"text": "One. Two.", "length": "endless"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Summarizer is not available", resultText(t, res))
}

func TestHandlePrompt_RequiresAvailable(t *testing.T) {
	s := newTestServer(t, capability.StatusDownloadable)

	res, err := s.handlePrompt(context.Background(), call(map[string]any{"input": "hi"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "downloadable")

	res, err = s.handlePrompt(context.Background(), call(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandlePrompt_CancelledContext(t *testing.T) {
	s := newTestServer(t, capability.StatusAvailable)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.handlePrompt(ctx, call(map[string]any{"input": "hello there", "stream": true}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	var out invocationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, "cancelled", out.Outcome)
}
