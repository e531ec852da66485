package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.server.AddTool(statusTool(), s.handleStatus)
	s.server.AddTool(downloadTool(), s.handleDownload)
	s.server.AddTool(promptTool(), s.handlePrompt)
	s.server.AddTool(translateTool(), s.handleTranslate)
	s.server.AddTool(summarizeTool(), s.handleSummarize)
	s.server.AddTool(proofreadTool(), s.handleProofread)
}

func statusTool() mcp.Tool {
	return mcp.NewTool("capability_status",
		mcp.WithDescription("Report the status, error and download progress of the capabilities"),
		mcp.WithString("kind",
			mcp.Description("Capability to report (prompt, translator, summarizer, proofreader); all when omitted"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Probe availability again before reporting"),
			mcp.DefaultBool(false),
		),
	)
}

func downloadTool() mcp.Tool {
	return mcp.NewTool("capability_download",
		mcp.WithDescription("Download the resources of a capability using its configured options"),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("Capability to download (prompt, translator, summarizer, proofreader)"),
		),
	)
}

func promptTool() mcp.Tool {
	return mcp.NewTool("prompt",
		mcp.WithDescription("Send a prompt to the language model"),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Prompt text"),
		),
		mcp.WithString("system_prompt",
			mcp.Description("System prompt; the configured one when omitted"),
		),
		mcp.WithNumber("temperature",
			mcp.Description("Sampling temperature between 0 and 2"),
		),
		withStream(),
	)
}

func translateTool() mcp.Tool {
	return mcp.NewTool("translate",
		mcp.WithDescription("Translate text between two supported languages"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to translate"),
		),
		mcp.WithString("source_language",
			mcp.Description("Source language code, e.g. en"),
		),
		mcp.WithString("target_language",
			mcp.Description("Target language code, e.g. kn"),
		),
		withStream(),
	)
}

func summarizeTool() mcp.Tool {
	return mcp.NewTool("summarize",
		mcp.WithDescription("Summarize text"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to summarize"),
		),
		mcp.WithString("type",
			mcp.Description("Summary type"),
			mcp.Enum("key-points", "tldr", "teaser", "headline"),
		),
		mcp.WithString("format",
			mcp.Description("Output format"),
			mcp.Enum("markdown", "plain-text"),
		),
		mcp.WithString("length",
			mcp.Description("Summary length"),
			mcp.Enum("short", "medium", "long"),
		),
		withStream(),
	)
}

func proofreadTool() mcp.Tool {
	return mcp.NewTool("proofread",
		mcp.WithDescription("Correct spelling, grammar and punctuation"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to proofread"),
		),
		mcp.WithString("languages",
			mcp.Description("Comma-separated expected input language codes"),
		),
		withStream(),
	)
}

func withStream() mcp.ToolOption {
	return mcp.WithBoolean("stream",
		mcp.Description("Stream partial output as progress notifications"),
		mcp.DefaultBool(false),
	)
}
