package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpgolang "github.com/metoro-io/mcp-golang"
	mcphttp "github.com/metoro-io/mcp-golang/transport/http"
)

// httpClient speaks unary request/response MCP over HTTP
type httpClient struct {
	client *mcpgolang.Client
}

var _ ToolClient = (*httpClient)(nil)

func dialHTTP(ctx context.Context, url string) (ToolClient, error) {
	transport := mcphttp.NewHTTPClientTransport(url)
	client := mcpgolang.NewClient(transport)

	if _, err := client.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return &httpClient{client: client}, nil
}

func (h *httpClient) ListTools(ctx context.Context) ([]Tool, error) {
	var (
		tools  []Tool
		cursor *string
	)
	for {
		resp, err := h.client.ListTools(ctx, cursor)
		if err != nil {
			return nil, err
		}
		for _, t := range resp.Tools {
			tool := Tool{Name: t.Name, InputSchema: schemaMap(t.InputSchema)}
			if t.Description != nil {
				tool.Description = *t.Description
			}
			tools = append(tools, tool)
		}
		if resp.NextCursor == nil || *resp.NextCursor == "" {
			return tools, nil
		}
		cursor = resp.NextCursor
	}
}

func (h *httpClient) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*CallResult, error) {
	if arguments == nil {
		arguments = map[string]interface{}{}
	}
	resp, err := h.client.CallTool(ctx, name, arguments)
	if err != nil {
		return nil, err
	}

	out := &CallResult{}
	if resp == nil {
		return out, nil
	}
	for _, content := range resp.Content {
		if content != nil && content.TextContent != nil {
			out.Content = append(out.Content, content.TextContent.Text)
		}
	}
	return out, nil
}

// Ping lists tools since the unary transport keeps no session to check
func (h *httpClient) Ping(ctx context.Context) error {
	_, err := h.client.ListTools(ctx, nil)
	return err
}

func (h *httpClient) Close() error {
	return nil
}

// schemaMap normalizes whatever the server declared into a JSON object
func schemaMap(schema interface{}) map[string]interface{} {
	if m, ok := schema.(map[string]interface{}); ok {
		return m
	}
	out := map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	if schema == nil {
		return out
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return out
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil || m == nil {
		return out
	}
	return m
}
