package mcp

import "github.com/mark3labs/mcp-go/mcp"

// askKidSafeTool defines the ask_kid_safe MCP tool.
var askKidSafeTool = mcp.NewTool("ask_kid_safe",
	mcp.WithDescription("Send a child's message through the safety pipeline. Returns either a short kid-safe answer or a clarifying question, together with the safety verdict."),
	mcp.WithString("message",
		mcp.Required(),
		mcp.Description("The child's latest message"),
	),
	mcp.WithString("history",
		mcp.Description(`Earlier turns as a JSON array of {"role": "user"|"assistant"|"system", "content": "..."} objects, oldest first`),
	),
	mcp.WithString("model",
		mcp.Description("Override the configured model for this call"),
	),
)

// maskPIITool defines the mask_pii MCP tool.
var maskPIITool = mcp.NewTool("mask_pii",
	mcp.WithDescription("Replace email addresses and phone numbers in text with [REDACTED]. Runs locally without calling a model."),
	mcp.WithString("text",
		mcp.Required(),
		mcp.Description("Text to mask"),
	),
)
