package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/inference-gateway/capability-orchestrator/capability"
)

// sessionClient adapts a mark3labs client, used for stdio and streamable HTTP
type sessionClient struct {
	client client.MCPClient
}

var _ ToolClient = (*sessionClient)(nil)

func dialStdio(ctx context.Context, endpoint capability.Endpoint, opts ClientOptions) (ToolClient, error) {
	c, err := client.NewStdioMCPClient(endpoint.Command, environ(endpoint.Env), endpoint.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", endpoint.Command, err)
	}
	return initialize(ctx, c, opts)
}

func initialize(ctx context.Context, c client.MCPClient, opts ClientOptions) (ToolClient, error) {
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    opts.ClientName,
				Version: opts.ClientVersion,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	})
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to initialize client: %w", err)
	}
	return &sessionClient{client: c}, nil
}

func (s *sessionClient) ListTools(ctx context.Context) ([]Tool, error) {
	result, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	tools := make([]Tool, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: inputSchema(t),
		})
	}
	return tools, nil
}

func (s *sessionClient) CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*CallResult, error) {
	result, err := s.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: arguments,
		},
	})
	if err != nil {
		return nil, err
	}

	out := &CallResult{IsError: result.IsError}
	for _, content := range result.Content {
		switch c := content.(type) {
		case mcp.TextContent:
			out.Content = append(out.Content, c.Text)
		case *mcp.TextContent:
			out.Content = append(out.Content, c.Text)
		default:
			if b, err := json.Marshal(content); err == nil {
				out.Content = append(out.Content, string(b))
			}
		}
	}
	return out, nil
}

func (s *sessionClient) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *sessionClient) Close() error {
	return s.client.Close()
}

func inputSchema(t mcp.Tool) map[string]interface{} {
	if len(t.RawInputSchema) > 0 {
		var raw map[string]interface{}
		if err := json.Unmarshal(t.RawInputSchema, &raw); err == nil {
			return raw
		}
	}

	schemaType := t.InputSchema.Type
	if schemaType == "" {
		schemaType = "object"
	}
	properties := t.InputSchema.Properties
	if properties == nil {
		properties = map[string]interface{}{}
	}
	schema := map[string]interface{}{
		"type":       schemaType,
		"properties": properties,
	}
	if len(t.InputSchema.Required) > 0 {
		schema["required"] = t.InputSchema.Required
	}
	return schema
}

func environ(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
