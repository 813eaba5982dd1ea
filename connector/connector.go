package connector

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/mcp"
	"github.com/inference-gateway/capability-orchestrator/otel"
)

var (
	// ErrInvalidArguments is returned when tool arguments fail the declared schema
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrToolReported is returned when a tool server answered with an error result
	ErrToolReported = errors.New("tool reported an error")
)

const maxFunctionName = 64

var unsafeFunctionChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// Dialer opens a transport client for a tool descriptor
type Dialer func(ctx context.Context, descriptor capability.Descriptor) (mcp.ToolClient, error)

// Connector establishes and caches tool server clients and exposes their
// functions. It only reads the registry.
//
//go:generate mockgen -source=connector.go -destination=../mocks/connector.go -package=mocks
type Connector interface {
	Connect(ctx context.Context, id string) error
	Disconnect(id string) error
	Reconnect(ctx context.Context, id string) error
	ListTools(ctx context.Context) ([]capability.ToolDescriptor, error)
	CallTool(ctx context.Context, function string, arguments map[string]interface{}) (string, error)
	Connected() []string
	CloseAll() error
}

// Options tune handle reuse
type Options struct {
	HealthcheckInterval time.Duration
	// ConnectTimeout bounds the tool listing that follows a dial
	ConnectTimeout time.Duration
}

const defaultConnectTimeout = 30 * time.Second

type handle struct {
	client     mcp.ToolClient
	descriptor capability.Descriptor
	checkedAt  time.Time
	tools      []mcp.Tool
	schemas    map[string]*mcp.ArgumentSchema
}

// slot serializes dialing for one capability id
type slot struct {
	mu     sync.Mutex
	handle *handle
}

type toolRef struct {
	capabilityID string
	tool         string
}

var _ Connector = (*ConnectorImpl)(nil)

type ConnectorImpl struct {
	registry  capability.Registry
	dial      Dialer
	telemetry otel.OpenTelemetry
	logger    logger.Logger
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time

	mu        sync.Mutex
	slots     map[string]*slot
	functions map[string]toolRef
}

// NewConnector creates a connector over the registry's tool descriptors
func NewConnector(registry capability.Registry, dial Dialer, telemetry otel.OpenTelemetry, log logger.Logger, opts Options) *ConnectorImpl {
	if telemetry == nil {
		telemetry = otel.Noop{}
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	return &ConnectorImpl{
		registry:  registry,
		dial:      dial,
		telemetry: telemetry,
		logger:    log,
		interval:  opts.HealthcheckInterval,
		timeout:   opts.ConnectTimeout,
		now:       time.Now,
		slots:     make(map[string]*slot),
		functions: make(map[string]toolRef),
	}
}

// MCPDialer dials with the mcp package adapters
func MCPDialer(opts mcp.ClientOptions, log logger.Logger) Dialer {
	return func(ctx context.Context, descriptor capability.Descriptor) (mcp.ToolClient, error) {
		return mcp.Dial(ctx, descriptor, opts, log)
	}
}

// FunctionName is the namespaced name a tool is declared under
func FunctionName(capabilityID, tool string) string {
	name := unsafeFunctionChars.ReplaceAllString(capabilityID+"_"+tool, "_")
	if len(name) > maxFunctionName {
		name = name[:maxFunctionName]
	}
	return name
}

// Connect opens the transport for a tool capability if it is not open yet
func (c *ConnectorImpl) Connect(ctx context.Context, id string) error {
	_, err := c.acquire(ctx, id)
	return err
}

// Disconnect closes the client of a capability. Unknown ids are ignored.
func (c *ConnectorImpl) Disconnect(id string) error {
	c.mu.Lock()
	s, ok := c.slots[id]
	c.forgetFunctions(id)
	c.mu.Unlock()
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return c.closeHandle(id, s)
}

// Reconnect closes the current client and dials a fresh one
func (c *ConnectorImpl) Reconnect(ctx context.Context, id string) error {
	if err := c.Disconnect(id); err != nil {
		c.logger.Warn("error closing tool client before reconnect", "id", id, "error", err)
	}
	return c.Connect(ctx, id)
}

// Connected returns ids that currently hold an open client
func (c *ConnectorImpl) Connected() []string {
	c.mu.Lock()
	slots := make(map[string]*slot, len(c.slots))
	for id, s := range c.slots {
		slots[id] = s
	}
	c.mu.Unlock()

	var ids []string
	for _, d := range c.registry.List(kindPtr(capability.KindTool)) {
		s, ok := slots[d.ID]
		if !ok {
			continue
		}
		s.mu.Lock()
		if s.handle != nil {
			ids = append(ids, d.ID)
		}
		s.mu.Unlock()
	}
	return ids
}

// ListTools connects every enabled tool capability and returns its functions.
// A server that cannot be reached is logged and skipped.
func (c *ConnectorImpl) ListTools(ctx context.Context) ([]capability.ToolDescriptor, error) {
	descriptors := c.registry.List(kindPtr(capability.KindTool))

	perServer := make([][]capability.ToolDescriptor, len(descriptors))
	var wg sync.WaitGroup
	for i, d := range descriptors {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			h, err := c.acquire(ctx, id)
			if err != nil {
				c.logger.Warn("skipping unreachable tool server", "id", id, "error", err)
				return
			}
			perServer[i] = toolDescriptors(id, h.tools)
		}(i, d.ID)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var tools []capability.ToolDescriptor
	c.mu.Lock()
	c.functions = make(map[string]toolRef)
	for i, d := range descriptors {
		for _, t := range perServer[i] {
			name := FunctionName(d.ID, t.Name)
			if _, taken := c.functions[name]; taken {
				unique := uniqueFunctionName(c.functions, name)
				c.logger.Warn("tool function name collides after truncation, renaming",
					"id", d.ID, "tool", t.Name, "function", name, "renamed", unique)
				name = unique
			}
			c.functions[name] = toolRef{capabilityID: d.ID, tool: t.Name}
			t.Function = name
			tools = append(tools, t)
		}
	}
	c.mu.Unlock()
	return tools, nil
}

// uniqueFunctionName appends the first free numeric suffix, trimming the
// base so the result stays within the function name limit
func uniqueFunctionName(taken map[string]toolRef, base string) string {
	for n := 2; ; n++ {
		suffix := fmt.Sprintf("_%d", n)
		candidate := base
		if len(candidate)+len(suffix) > maxFunctionName {
			candidate = candidate[:maxFunctionName-len(suffix)]
		}
		candidate += suffix
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

// CallTool invokes a namespaced function and returns its text result
func (c *ConnectorImpl) CallTool(ctx context.Context, function string, arguments map[string]interface{}) (string, error) {
	ref, ok := c.lookup(function)
	if !ok {
		if _, err := c.ListTools(ctx); err != nil {
			return "", err
		}
		if ref, ok = c.lookup(function); !ok {
			return "", fmt.Errorf("%w: no tool function %s", capability.ErrCapabilityNotFound, function)
		}
	}

	start := c.now()
	outcome := otel.OutcomeError
	defer func() {
		c.telemetry.RecordToolCall(ctx, ref.capabilityID, ref.tool, outcome, float64(c.now().Sub(start).Milliseconds()))
	}()

	h, err := c.acquire(ctx, ref.capabilityID)
	if err != nil {
		return "", err
	}

	if schema := h.schemas[ref.tool]; schema != nil {
		if err := schema.Validate(arguments); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidArguments, function, err)
		}
	}

	c.logger.Debug("calling tool", "id", ref.capabilityID, "tool", ref.tool)
	result, err := h.client.CallTool(ctx, ref.tool, arguments)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", capability.ErrCommunication, ref.capabilityID, err)
	}
	if result.IsError {
		return "", fmt.Errorf("%w: %s", ErrToolReported, result.Text())
	}

	outcome = otel.OutcomeSuccess
	return result.Text(), nil
}

// CloseAll closes every cached client, terminating stdio subprocesses
func (c *ConnectorImpl) CloseAll() error {
	c.mu.Lock()
	slots := make(map[string]*slot, len(c.slots))
	for id, s := range c.slots {
		slots[id] = s
	}
	c.functions = make(map[string]toolRef)
	c.mu.Unlock()

	var errs []error
	for id, s := range slots {
		s.mu.Lock()
		if err := c.closeHandle(id, s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// acquire returns a healthy handle, dialing or redialing as needed
func (c *ConnectorImpl) acquire(ctx context.Context, id string) (*handle, error) {
	d, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if d.Kind != capability.KindTool {
		return nil, fmt.Errorf("%w: %s is not a tool server", capability.ErrCapabilityNotFound, id)
	}
	if !d.Enabled {
		return nil, fmt.Errorf("%w: %s", capability.ErrCapabilityDisabled, id)
	}

	s := c.slot(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle != nil {
		switch {
		case !sameEndpoint(s.handle.descriptor, d):
			c.logger.Info("tool server endpoint changed, reconnecting", "id", id)
		case c.healthy(ctx, s.handle):
			return s.handle, nil
		default:
			c.logger.Warn("tool client failed health check, reconnecting", "id", id)
		}
		if err := c.closeHandle(id, s); err != nil {
			c.logger.Warn("error closing stale tool client", "id", id, "error", err)
		}
	}

	client, err := c.dial(ctx, d)
	if err != nil {
		if errors.Is(err, capability.ErrUnsupportedTransport) || errors.Is(err, capability.ErrConnectFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", capability.ErrConnectFailed, id, err)
	}

	listCtx, cancel := context.WithTimeout(ctx, c.timeout)
	tools, err := client.ListTools(listCtx)
	cancel()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %s: list tools: %v", capability.ErrConnectFailed, id, err)
	}

	schemas := make(map[string]*mcp.ArgumentSchema, len(tools))
	for _, t := range tools {
		schema, err := mcp.CompileArgumentSchema(FunctionName(id, t.Name), t.InputSchema)
		if err != nil {
			c.logger.Warn("ignoring unusable tool schema", "id", id, "tool", t.Name, "error", err)
			continue
		}
		schemas[t.Name] = schema
	}

	s.handle = &handle{
		client:     client,
		descriptor: d,
		checkedAt:  c.now(),
		tools:      tools,
		schemas:    schemas,
	}
	c.logger.Info("tool server ready", "id", id, "tools", len(tools))
	return s.handle, nil
}

func (c *ConnectorImpl) healthy(ctx context.Context, h *handle) bool {
	if c.interval <= 0 || c.now().Sub(h.checkedAt) < c.interval {
		return true
	}
	if err := h.client.Ping(ctx); err != nil {
		return false
	}
	h.checkedAt = c.now()
	return true
}

// closeHandle expects s.mu to be held
func (c *ConnectorImpl) closeHandle(id string, s *slot) error {
	if s.handle == nil {
		return nil
	}
	err := s.handle.client.Close()
	s.handle = nil
	c.logger.Info("closed tool client", "id", id)
	return err
}

func (c *ConnectorImpl) slot(id string) *slot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[id]
	if !ok {
		s = &slot{}
		c.slots[id] = s
	}
	return s
}

func (c *ConnectorImpl) lookup(function string) (toolRef, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ref, ok := c.functions[function]
	return ref, ok
}

// forgetFunctions expects c.mu to be held
func (c *ConnectorImpl) forgetFunctions(id string) {
	for name, ref := range c.functions {
		if ref.capabilityID == id {
			delete(c.functions, name)
		}
	}
}

func toolDescriptors(id string, tools []mcp.Tool) []capability.ToolDescriptor {
	out := make([]capability.ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		out = append(out, capability.ToolDescriptor{
			CapabilityID: id,
			Name:         t.Name,
			Description:  t.Description,
			Parameters:   t.InputSchema,
		})
	}
	return out
}

func sameEndpoint(a, b capability.Descriptor) bool {
	if a.Transport != b.Transport || a.Endpoint.URL != b.Endpoint.URL || a.Endpoint.Command != b.Endpoint.Command {
		return false
	}
	if len(a.Endpoint.Args) != len(b.Endpoint.Args) {
		return false
	}
	for i := range a.Endpoint.Args {
		if a.Endpoint.Args[i] != b.Endpoint.Args[i] {
			return false
		}
	}
	return true
}

func kindPtr(k capability.Kind) *capability.Kind { return &k }
