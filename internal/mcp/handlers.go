package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/sprouts/internal/ask"
	"github.com/ziadkadry99/sprouts/internal/llm"
	"github.com/ziadkadry99/sprouts/internal/pii"
)

// handleAskKidSafe appends the message to the supplied history and runs the pipeline.
func (s *Server) handleAskKidSafe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	message, err := request.RequireString("message")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: message"), nil
	}

	var history []llm.Message
	if raw := request.GetString("history", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &history); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history must be a JSON array of messages: %v", err)), nil
		}
	}

	req := ask.Request{
		Messages: append(history, llm.Message{Role: llm.RoleUser, Content: message}),
		Model:    request.GetString("model", ""),
	}
	if err := req.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := s.asker.Handle(ctx, ask.EndpointMCP, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ask failed: %v", err)), nil
	}

	return jsonResult(resp)
}

type maskResult struct {
	Text     string `json:"text"`
	Redacted bool   `json:"redacted"`
}

// handleMaskPII runs the PII masker on the given text.
func (s *Server) handleMaskPII(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: text"), nil
	}

	masked, had := pii.Mask(text)
	return jsonResult(maskResult{Text: masked, Redacted: had})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
