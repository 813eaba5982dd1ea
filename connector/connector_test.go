package connector_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/connector"
	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/mcp"
	"github.com/inference-gateway/capability-orchestrator/mocks"
)

func toolServer(id string, enabled bool) capability.Descriptor {
	return capability.Descriptor{
		ID:        id,
		Kind:      capability.KindTool,
		Transport: capability.TransportHTTPStream,
		Endpoint:  capability.Endpoint{URL: "http://" + id + "/mcp"},
		Enabled:   enabled,
	}
}

func newRegistry(t *testing.T, descriptors ...capability.Descriptor) *capability.RegistryImpl {
	t.Helper()
	registry, err := capability.NewRegistry(nil, logger.NewNoOpLogger(), descriptors...)
	require.NoError(t, err)
	return registry
}

var reverseTool = mcp.Tool{
	Name:        "reverse",
	Description: "Reverses a string",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{"type": "string"},
		},
		"required": []interface{}{"text"},
	},
}

// staticDialer hands out the given clients per id and counts dials
type staticDialer struct {
	clients map[string][]mcp.ToolClient
	dials   atomic.Int32
}

func (d *staticDialer) dial(ctx context.Context, descriptor capability.Descriptor) (mcp.ToolClient, error) {
	d.dials.Add(1)
	queue := d.clients[descriptor.ID]
	if len(queue) == 0 {
		return nil, fmt.Errorf("connection refused")
	}
	client := queue[0]
	d.clients[descriptor.ID] = queue[1:]
	return client, nil
}

func TestConnector_ConnectIsMemoized(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockToolClient(ctrl)
	client.EXPECT().ListTools(gomock.Any()).Return([]mcp.Tool{reverseTool}, nil).Times(1)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{"topolino": {client}}}
	c := connector.NewConnector(newRegistry(t, toolServer("topolino", true)), dialer.dial, nil, logger.NewNoOpLogger(), connector.Options{HealthcheckInterval: time.Hour})

	require.NoError(t, c.Connect(context.Background(), "topolino"))
	require.NoError(t, c.Connect(context.Background(), "topolino"))

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, capability.ToolDescriptor{
		CapabilityID: "topolino",
		Name:         "reverse",
		Function:     "topolino_reverse",
		Description:  "Reverses a string",
		Parameters:   reverseTool.InputSchema,
	}, tools[0])

	assert.Equal(t, int32(1), dialer.dials.Load())
	assert.Equal(t, []string{"topolino"}, c.Connected())
}

func TestConnector_ConnectErrors(t *testing.T) {
	registry := newRegistry(t,
		toolServer("pluto", false),
		capability.Descriptor{ID: "minnie", Kind: capability.KindAgent, Endpoint: capability.Endpoint{URL: "http://minnie"}, Enabled: true},
		capability.Descriptor{ID: "paperina", Kind: capability.KindTool, Transport: "smoke-signal", Enabled: true},
		toolServer("gastone", true),
	)

	dial := func(ctx context.Context, d capability.Descriptor) (mcp.ToolClient, error) {
		if d.ID == "paperina" {
			return nil, fmt.Errorf("%w: %s", capability.ErrUnsupportedTransport, d.Transport)
		}
		return nil, errors.New("connection refused")
	}
	c := connector.NewConnector(registry, dial, nil, logger.NewNoOpLogger(), connector.Options{})

	tests := []struct {
		name     string
		id       string
		expected error
	}{
		{name: "unknown", id: "nobody", expected: capability.ErrCapabilityNotFound},
		{name: "disabled", id: "pluto", expected: capability.ErrCapabilityDisabled},
		{name: "agent is not a tool server", id: "minnie", expected: capability.ErrCapabilityNotFound},
		{name: "unsupported transport", id: "paperina", expected: capability.ErrUnsupportedTransport},
		{name: "dial failure", id: "gastone", expected: capability.ErrConnectFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Connect(context.Background(), tt.id)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
	assert.Empty(t, c.Connected())
}

func TestConnector_ListToolsSkipsUnreachableServers(t *testing.T) {
	ctrl := gomock.NewController(t)
	healthy := mocks.NewMockToolClient(ctrl)
	healthy.EXPECT().ListTools(gomock.Any()).Return([]mcp.Tool{reverseTool}, nil)

	broken := mocks.NewMockToolClient(ctrl)
	broken.EXPECT().ListTools(gomock.Any()).Return(nil, errors.New("not initialized"))
	broken.EXPECT().Close().Return(nil)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{
		"topolino": {healthy},
		"gastone":  {broken},
	}}
	registry := newRegistry(t, toolServer("topolino", true), toolServer("gastone", true), toolServer("pluto", false))
	c := connector.NewConnector(registry, dialer.dial, nil, logger.NewNoOpLogger(), connector.Options{})

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "topolino", tools[0].CapabilityID)
	assert.Equal(t, []string{"topolino"}, c.Connected())
}

func TestConnector_UnhealthyClientIsReplaced(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockToolClient(ctrl)
	second := mocks.NewMockToolClient(ctrl)

	gomock.InOrder(
		first.EXPECT().ListTools(gomock.Any()).Return([]mcp.Tool{reverseTool}, nil),
		first.EXPECT().Ping(gomock.Any()).Return(errors.New("broken pipe")),
		first.EXPECT().Close().Return(nil),
		second.EXPECT().ListTools(gomock.Any()).Return([]mcp.Tool{reverseTool}, nil),
	)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{"topolino": {first, second}}}
	c := connector.NewConnector(newRegistry(t, toolServer("topolino", true)), dialer.dial, nil, logger.NewNoOpLogger(), connector.Options{HealthcheckInterval: time.Nanosecond})

	require.NoError(t, c.Connect(context.Background(), "topolino"))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Connect(context.Background(), "topolino"))
	assert.Equal(t, int32(2), dialer.dials.Load())
}

func TestConnector_EndpointChangeRedials(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockToolClient(ctrl)
	second := mocks.NewMockToolClient(ctrl)
	first.EXPECT().ListTools(gomock.Any()).Return(nil, nil)
	first.EXPECT().Close().Return(nil)
	second.EXPECT().ListTools(gomock.Any()).Return(nil, nil)

	registry := newRegistry(t, toolServer("topolino", true))
	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{"topolino": {first, second}}}
	c := connector.NewConnector(registry, dialer.dial, nil, logger.NewNoOpLogger(), connector.Options{HealthcheckInterval: time.Hour})

	require.NoError(t, c.Connect(context.Background(), "topolino"))

	moved := toolServer("topolino", true)
	moved.Endpoint.URL = "http://topolino-v2/mcp"
	require.NoError(t, registry.Register("topolino", moved))

	require.NoError(t, c.Connect(context.Background(), "topolino"))
	assert.Equal(t, int32(2), dialer.dials.Load())
}

func TestConnector_CallTool(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockToolClient(ctrl)
	client.EXPECT().ListTools(gomock.Any()).Return([]mcp.Tool{reverseTool, {Name: "explode"}}, nil)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{"topolino": {client}}}
	c := connector.NewConnector(newRegistry(t, toolServer("topolino", true)), dialer.dial, nil, logger.NewNoOpLogger(), connector.Options{})

	t.Run("success", func(t *testing.T) {
		client.EXPECT().CallTool(gomock.Any(), "reverse", map[string]interface{}{"text": "abc"}).
			Return(&mcp.CallResult{Content: []string{"cba"}}, nil)

		out, err := c.CallTool(context.Background(), "topolino_reverse", map[string]interface{}{"text": "abc"})
		require.NoError(t, err)
		assert.Equal(t, "cba", out)
	})

	t.Run("invalid arguments never reach the server", func(t *testing.T) {
		_, err := c.CallTool(context.Background(), "topolino_reverse", map[string]interface{}{"text": 42})
		assert.ErrorIs(t, err, connector.ErrInvalidArguments)
	})

	t.Run("tool reported error", func(t *testing.T) {
		client.EXPECT().CallTool(gomock.Any(), "explode", gomock.Any()).
			Return(&mcp.CallResult{Content: []string{"kaboom"}, IsError: true}, nil)

		_, err := c.CallTool(context.Background(), "topolino_explode", nil)
		assert.ErrorIs(t, err, connector.ErrToolReported)
		assert.Contains(t, err.Error(), "kaboom")
	})

	t.Run("transport failure", func(t *testing.T) {
		client.EXPECT().CallTool(gomock.Any(), "explode", gomock.Any()).
			Return(nil, errors.New("stream closed"))

		_, err := c.CallTool(context.Background(), "topolino_explode", map[string]interface{}{})
		assert.ErrorIs(t, err, capability.ErrCommunication)
	})

	t.Run("unknown function", func(t *testing.T) {
		_, err := c.CallTool(context.Background(), "topolino_missing", nil)
		assert.ErrorIs(t, err, capability.ErrCapabilityNotFound)
	})
}

func TestConnector_DisconnectAndCloseAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	topolino := mocks.NewMockToolClient(ctrl)
	gastone := mocks.NewMockToolClient(ctrl)
	replacement := mocks.NewMockToolClient(ctrl)

	topolino.EXPECT().ListTools(gomock.Any()).Return(nil, nil)
	topolino.EXPECT().Close().Return(nil)
	gastone.EXPECT().ListTools(gomock.Any()).Return(nil, nil)
	gastone.EXPECT().Close().Return(errors.New("process already exited"))
	replacement.EXPECT().ListTools(gomock.Any()).Return(nil, nil)
	replacement.EXPECT().Close().Return(nil)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{
		"topolino": {topolino, replacement},
		"gastone":  {gastone},
	}}
	registry := newRegistry(t, toolServer("topolino", true), toolServer("gastone", true))
	c := connector.NewConnector(registry, dialer.dial, nil, logger.NewNoOpLogger(), connector.Options{})

	require.NoError(t, c.Connect(context.Background(), "topolino"))
	require.NoError(t, c.Connect(context.Background(), "gastone"))
	assert.Equal(t, []string{"topolino", "gastone"}, c.Connected())

	require.NoError(t, c.Disconnect("topolino"))
	require.NoError(t, c.Disconnect("nobody"))
	assert.Equal(t, []string{"gastone"}, c.Connected())

	require.NoError(t, c.Reconnect(context.Background(), "topolino"))
	assert.Equal(t, []string{"topolino", "gastone"}, c.Connected())

	err := c.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gastone")
	assert.Empty(t, c.Connected())
}

func TestFunctionName(t *testing.T) {
	tests := []struct {
		capabilityID string
		tool         string
		expected     string
	}{
		{capabilityID: "topolino", tool: "reverse", expected: "topolino_reverse"},
		{capabilityID: "file.system", tool: "read file", expected: "file_system_read_file"},
		{capabilityID: "a", tool: strings.Repeat("x", 80), expected: "a_" + strings.Repeat("x", 62)},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			name := connector.FunctionName(tt.capabilityID, tt.tool)
			assert.Equal(t, tt.expected, name)
			assert.LessOrEqual(t, len(name), 64)
		})
	}
}

func TestConnector_ConnectBoundsToolListing(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockToolClient(ctrl)
	client.EXPECT().ListTools(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]mcp.Tool, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	client.EXPECT().Close().Return(nil)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{"topolino": {client}}}
	c := connector.NewConnector(newRegistry(t, toolServer("topolino", true)), dialer.dial, nil, logger.NewNoOpLogger(),
		connector.Options{ConnectTimeout: 50 * time.Millisecond})

	start := time.Now()
	err := c.Connect(context.Background(), "topolino")
	require.Error(t, err)
	assert.ErrorIs(t, err, capability.ErrConnectFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Empty(t, c.Connected())
}

func TestConnector_ListToolsRenamesCollidingFunctions(t *testing.T) {
	ctrl := gomock.NewController(t)
	objectSchema := map[string]interface{}{"type": "object"}
	first := mcp.Tool{Name: strings.Repeat("x", 70) + "_first", InputSchema: objectSchema}
	second := mcp.Tool{Name: strings.Repeat("x", 70) + "_second", InputSchema: objectSchema}

	client := mocks.NewMockToolClient(ctrl)
	client.EXPECT().ListTools(gomock.Any()).Return([]mcp.Tool{first, second}, nil)
	client.EXPECT().CallTool(gomock.Any(), second.Name, gomock.Any()).Return(&mcp.CallResult{Content: []string{"from second"}}, nil)

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()
	log.EXPECT().Warn("tool function name collides after truncation, renaming", gomock.Any()).Times(1)

	dialer := &staticDialer{clients: map[string][]mcp.ToolClient{"a": {client}}}
	c := connector.NewConnector(newRegistry(t, toolServer("a", true)), dialer.dial, nil, log, connector.Options{HealthcheckInterval: time.Hour})

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)

	base := connector.FunctionName("a", first.Name)
	assert.Equal(t, base, connector.FunctionName("a", second.Name))
	assert.Equal(t, base, tools[0].Function)
	assert.Equal(t, base[:62]+"_2", tools[1].Function)
	assert.Len(t, tools[1].Function, 64)

	text, err := c.CallTool(context.Background(), tools[1].Function, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "from second", text)
}
