package pdfpipe

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the extraction tools on an MCP server.
func (p *Pipeline) RegisterMCP(srv *mcp.Server) {
	p.registerExtractTool(srv)
	p.registerTextTool(srv)
	p.registerMetadataTool(srv)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

// addJSONTool wires a handler into the SDK: arguments arrive as raw JSON,
// the response is marshalled into a single text content block, and handler
// errors become tool errors instead of protocol errors.
func addJSONTool(srv *mcp.Server, tool *mcp.Tool, run func(ctx context.Context, args json.RawMessage) (any, error)) {
	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := run(ctx, call.Params.Arguments)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(err)
			return &res, nil
		}
		data, err := json.Marshal(resp)
		if err != nil {
			var res mcp.CallToolResult
			res.SetError(fmt.Errorf("marshal: %w", err))
			return &res, nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

// --- extract (batch) ---

type extractArgs struct {
	Paths []string `json:"paths"`
}

func (p *Pipeline) registerExtractTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pdf_extract",
		Description: "Extract text and metadata from a set of PDF files. Unreadable files stay in the result with empty text and a degraded metadata record.",
		InputSchema: inputSchema(map[string]any{
			"paths": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "PDF file paths to extract",
			},
		}, []string{"paths"}),
	}

	addJSONTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a extractArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return p.ExtractWithMetadata(ctx, Many(a.Paths))
	})
}

// --- extract_text (single) ---

type textArgs struct {
	Path string `json:"path"`
}

func (p *Pipeline) registerTextTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pdf_extract_text",
		Description: "Extract the plain text of a single PDF file. Fails if the file is missing or unreadable.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "PDF file path"},
		}, []string{"path"}),
	}

	addJSONTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a textArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		text, err := p.ExtractText(ctx, a.Path)
		if err != nil {
			return nil, err
		}
		return map[string]any{"path": a.Path, "text": text, "chars": len(text)}, nil
	})
}

// --- metadata ---

func (p *Pipeline) registerMetadataTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "pdf_metadata",
		Description: "Probe a PDF file for page count, size, title and author. Never fails: unreadable files yield a degraded record with the error message.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "PDF file path"},
		}, []string{"path"}),
	}

	addJSONTool(srv, tool, func(ctx context.Context, args json.RawMessage) (any, error) {
		var a textArgs
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, fmt.Errorf("invalid arguments: %w", err)
		}
		return p.Probe(ctx, a.Path), nil
	})
}
