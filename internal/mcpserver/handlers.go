package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"capctl/internal/capability"
	"capctl/internal/invocation"
	"capctl/internal/lifecycle"
	"capctl/pkg/logging"
)

// capabilityStatus is the JSON shape of one capability in tool results.
type capabilityStatus struct {
	Kind             capability.Kind `json:"kind"`
	Status           string          `json:"status"`
	Error            string          `json:"error,omitempty"`
	DownloadProgress float64         `json:"downloadProgress"`
}

// invocationResult is the JSON shape of an invocation tool result.
type invocationResult struct {
	Outcome string `json:"outcome"`
	Output  string `json:"output"`
	Chunks  int    `json:"chunks,omitempty"`
}

func statusOf(c lifecycle.Controller) capabilityStatus {
	st := c.Snapshot()
	return capabilityStatus{
		Kind:             c.Kind(),
		Status:           st.Status.String(),
		Error:            st.Error,
		DownloadProgress: st.DownloadProgress,
	}
}

func (s *Server) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctrls := s.app.Controllers()
	if name := stringArg(request, "kind"); name != "" {
		kind, err := capability.ParseKind(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		c, err := s.app.Controller(kind)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		ctrls = []lifecycle.Controller{c}
	}

	statuses := make([]capabilityStatus, 0, len(ctrls))
	for _, c := range ctrls {
		if boolArg(request, "refresh") {
			if err := c.Refresh(ctx); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to probe %s: %v", c.Kind(), err)), nil
			}
		}
		statuses = append(statuses, statusOf(c))
	}
	return jsonResult(statuses)
}

func (s *Server) handleDownload(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind parameter is required"), nil
	}
	kind, err := capability.ParseKind(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.app.Controller(kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := c.Snapshot()
	switch st.Status {
	case capability.StatusAvailable:
		return jsonResult(statusOf(c))
	case capability.StatusDownloadable:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s cannot be downloaded while %s", kind.DisplayName(), describe(st))), nil
	}

	logging.Info(subsystem, "Downloading %s on behalf of a client", kind)
	if err := c.DownloadDefault(ctx, progressNotifier(ctx, request)); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Download of %s failed: %v", kind, err)), nil
	}
	return jsonResult(statusOf(c))
}

func (s *Server) handlePrompt(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError("input parameter is required"), nil
	}
	opts, _ := s.app.Prompt.Defaults()
	if v := stringArg(request, "system_prompt"); v != "" {
		opts.SystemPrompt = v
	}
	if v, ok := floatArg(request, "temperature"); ok {
		opts.Temperature = v
	}
	return invoke(ctx, s.app.Prompt, opts, input, request)
}

func (s *Server) handleTranslate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	opts, _ := s.app.Translator.Defaults()
	if v := stringArg(request, "source_language"); v != "" {
		opts.SourceLanguage = v
	}
	if v := stringArg(request, "target_language"); v != "" {
		opts.TargetLanguage = v
	}
	return invoke(ctx, s.app.Translator, opts, text, request)
}

func (s *Server) handleSummarize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	opts, _ := s.app.Summarizer.Defaults()
	if v := stringArg(request, "type"); v != "" {
		opts.Type = capability.SummarizerType(v)
	}
	if v := stringArg(request, "format"); v != "" {
		opts.Format = capability.SummarizerFormat(v)
	}
	if v := stringArg(request, "length"); v != "" {
		opts.Length = capability.SummarizerLength(v)
	}
	return invoke(ctx, s.app.Summarizer, opts, text, request)
}

func (s *Server) handleProofread(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text parameter is required"), nil
	}
	opts, _ := s.app.Proofreader.Defaults()
	if v := stringArg(request, "languages"); v != "" {
		opts.ExpectedInputLanguages = strings.Split(v, ",")
	}
	return invoke(ctx, s.app.Proofreader, opts, text, request)
}

// invoke runs one request against the manager's provider. Availability is
// probed with the request's options and must be available; options the
// provider declines are reported with the kind's unavailable message. A probe
// with non-default options is followed by a probe with the defaults so the
// reported status keeps describing them.
func invoke[O any](ctx context.Context, m *lifecycle.Manager[O, O], opts O, input string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := m.Kind()
	if _, defaults := m.Defaults(); !cmp.Equal(opts, defaults) {
		defer func() {
			if err := m.Refresh(context.WithoutCancel(ctx)); err != nil {
				logging.Warn(subsystem, "Failed to restore %s status: %v", kind, err)
			}
		}()
	}
	if err := m.ProbeAvailability(ctx, opts); err != nil {
		if ctx.Err() != nil {
			return jsonResult(invocationResult{Outcome: "cancelled"})
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to check %s availability: %v", kind.DisplayName(), err)), nil
	}
	switch st := m.Snapshot(); {
	case st.Status == capability.StatusUnavailable && st.Error != "":
		return mcp.NewToolResultError(st.Error), nil
	case !st.CanInvoke():
		return mcp.NewToolResultError(fmt.Sprintf("%s cannot be used while %s", kind.DisplayName(), describe(st))), nil
	}

	h, err := m.Instantiate(ctx, opts)
	if err != nil {
		return mcp.NewToolResultError(capability.UserMessage(kind, err)), nil
	}
	defer h.Close()

	inv := invocation.NewInvoker(kind)
	var res invocation.Result
	if boolArg(request, "stream") {
		notify := progressNotifier(ctx, request)
		res, err = inv.InvokeStreaming(ctx, h, input, func(accumulated string) {
			if notify != nil {
				notify(float64(len(accumulated)))
			}
		})
	} else {
		res, err = inv.Invoke(ctx, h, input)
	}
	if err != nil {
		if errors.Is(err, capability.ErrUnavailable) || errors.Is(err, capability.ErrNotSupported) {
			return mcp.NewToolResultError(capability.UserMessage(kind, err)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", kind.DisplayName(), err)), nil
	}

	out := invocationResult{Output: res.Output, Chunks: res.Chunks, Outcome: "completed"}
	if res.Outcome == invocation.OutcomeCancelled {
		out.Outcome = "cancelled"
	}
	return jsonResult(out)
}

func describe(st lifecycle.State) string {
	if st.Error != "" {
		return fmt.Sprintf("%s (%s)", st.Status, st.Error)
	}
	return st.Status.String()
}

// progressNotifier returns a callback that forwards progress to the client,
// or nil when the request carries no progress token.
func progressNotifier(ctx context.Context, request mcp.CallToolRequest) capability.ProgressFunc {
	if request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return nil
	}
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return nil
	}
	token := request.Params.Meta.ProgressToken
	return func(progress float64) {
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      progress,
		})
		if err != nil {
			logging.Debug(subsystem, "Dropped progress notification: %v", err)
		}
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(request mcp.CallToolRequest, key string) string {
	v, _ := request.GetArguments()[key].(string)
	return strings.TrimSpace(v)
}

func boolArg(request mcp.CallToolRequest, key string) bool {
	v, _ := request.GetArguments()[key].(bool)
	return v
}

func floatArg(request mcp.CallToolRequest, key string) (float64, bool) {
	switch v := request.GetArguments()[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
