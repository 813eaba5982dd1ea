package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/logger"
)

// Tool is a function declared by a tool server
type Tool struct {
	Name        string
	Description string
	InputSchema map[string]interface{}
}

// CallResult holds the text content of a tool invocation
type CallResult struct {
	Content []string
	IsError bool
}

// Text joins the content blocks with newlines
func (r *CallResult) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Content, "\n")
}

// ToolClient is an initialized session with one tool server.
// Every transport adapter exposes the same surface.
//
//go:generate mockgen -source=client.go -destination=../mocks/mcp.go -package=mocks
type ToolClient interface {
	ListTools(ctx context.Context) ([]Tool, error)
	CallTool(ctx context.Context, name string, arguments map[string]interface{}) (*CallResult, error)
	Ping(ctx context.Context) error
	Close() error
}

// ClientOptions apply to every adapter
type ClientOptions struct {
	ClientName     string
	ClientVersion  string
	ConnectTimeout time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.ClientName == "" {
		o.ClientName = "capability-orchestrator"
	}
	if o.ClientVersion == "" {
		o.ClientVersion = "1.0.0"
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	return o
}

// Dial creates and initializes a tool client for the descriptor's transport.
// The set of transports is closed; anything else is ErrUnsupportedTransport.
func Dial(ctx context.Context, descriptor capability.Descriptor, opts ClientOptions, log logger.Logger) (ToolClient, error) {
	opts = opts.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	var (
		client ToolClient
		err    error
	)
	switch descriptor.Transport {
	case capability.TransportStdio:
		if descriptor.Endpoint.Command == "" {
			return nil, fmt.Errorf("%w: %s: stdio transport needs a command", capability.ErrConnectFailed, descriptor.ID)
		}
		client, err = dialStdio(ctx, descriptor.Endpoint, opts)
	case capability.TransportHTTP:
		if descriptor.Endpoint.URL == "" {
			return nil, fmt.Errorf("%w: %s: http transport needs a url", capability.ErrConnectFailed, descriptor.ID)
		}
		client, err = dialHTTP(ctx, descriptor.Endpoint.URL)
	case capability.TransportHTTPStream:
		if descriptor.Endpoint.URL == "" {
			return nil, fmt.Errorf("%w: %s: http-stream transport needs a url", capability.ErrConnectFailed, descriptor.ID)
		}
		client, err = dialStreamable(ctx, descriptor.Endpoint.URL, opts)
	default:
		return nil, fmt.Errorf("%w: %q for %s", capability.ErrUnsupportedTransport, descriptor.Transport, descriptor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", capability.ErrConnectFailed, descriptor.ID, err)
	}

	log.Info("connected to tool server",
		"id", descriptor.ID,
		"transport", descriptor.Transport,
		"endpoint", descriptor.Endpoint.String())
	return client, nil
}
