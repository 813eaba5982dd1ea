package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
)

// dialStreamable connects over MCP streamable HTTP. The server decides per
// response whether to answer with JSON or an event stream.
func dialStreamable(ctx context.Context, url string, opts ClientOptions) (ToolClient, error) {
	c, err := client.NewStreamableHttpClient(url)
	if err != nil {
		return nil, fmt.Errorf("failed to create streamable http client: %w", err)
	}
	// the transport outlives the dial context
	if err := c.Start(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to start streamable http client: %w", err)
	}
	return initialize(ctx, c, opts)
}
