package mcp_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	mcpgolang "github.com/metoro-io/mcp-golang"
	mcphttp "github.com/metoro-io/mcp-golang/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/mcp"
)

type shoutArguments struct {
	Text string `json:"text" jsonschema:"required,description=Text to shout"`
}

type sumArguments struct {
	A int `json:"a" jsonschema:"required,description=First addend"`
	B int `json:"b" jsonschema:"required,description=Second addend"`
}

// newUnaryServer serves two tools, one per tools/list page
func newUnaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	transport := mcphttp.NewGinTransport()
	s := mcpgolang.NewServer(transport, mcpgolang.WithName("paperino"), mcpgolang.WithPaginationLimit(1))
	require.NoError(t, s.RegisterTool("shout", "Upper cases a string", func(args shoutArguments) (*mcpgolang.ToolResponse, error) {
		upper := strings.ToUpper(args.Text)
		return mcpgolang.NewToolResponse(mcpgolang.NewTextContent(upper), mcpgolang.NewTextContent(upper+"!")), nil
	}))
	require.NoError(t, s.RegisterTool("sum", "Adds two numbers", func(args sumArguments) (*mcpgolang.ToolResponse, error) {
		return mcpgolang.NewToolResponse(mcpgolang.NewTextContent("ok")), nil
	}))
	require.NoError(t, s.Serve())

	r := gin.New()
	r.POST("/mcp", transport.Handler())

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func TestDial_UnaryHTTP(t *testing.T) {
	ts := newUnaryServer(t)

	client, err := mcp.Dial(context.Background(), capability.Descriptor{
		ID:        "paperino",
		Kind:      capability.KindTool,
		Transport: capability.TransportHTTP,
		Endpoint:  capability.Endpoint{URL: ts.URL + "/mcp"},
	}, mcp.ClientOptions{}, logger.NewNoOpLogger())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "shout", tools[0].Name)
	assert.Equal(t, "Upper cases a string", tools[0].Description)
	assert.Contains(t, tools[0].InputSchema["properties"], "text")
	assert.Equal(t, "sum", tools[1].Name)

	result, err := client.CallTool(context.Background(), "shout", map[string]interface{}{"text": "ciao"})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, []string{"CIAO", "CIAO!"}, result.Content)
	assert.Equal(t, "CIAO\nCIAO!", result.Text())
}
