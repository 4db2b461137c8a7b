package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolName is the MCP tool exposed by RegisterMCP.
const ToolName = "check_compliance"

type checkReq struct {
	URL string `json:"url"`
}

// RegisterMCP registers the compliance check as an MCP tool.
func (c *Checker) RegisterMCP(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        ToolName,
		Description: "Fetch a web page and judge whether its text complies with the content policy.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url": map[string]any{"type": "string", "description": "Absolute http(s) URL of the page to check"},
			},
			"required": []string{"url"},
		},
	}

	srv.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r checkReq
		if err := json.Unmarshal(req.Params.Arguments, &r); err != nil {
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}
		if strings.TrimSpace(r.URL) == "" {
			return toolError(errors.New("url is required")), nil
		}

		result, err := c.Check(ctx, r.URL)
		if err != nil {
			return toolError(err), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
