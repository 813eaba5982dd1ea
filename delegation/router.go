package delegation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inference-gateway/capability-orchestrator/a2a"
	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/otel"
)

// Router sends a text payload to a remote agent and normalizes the reply
//
//go:generate mockgen -source=router.go -destination=../mocks/delegation.go -package=mocks
type Router interface {
	Delegate(ctx context.Context, capabilityID, input, contextID string) (string, error)
	CloseAll() error
}

// ClientFactory creates the client for an agent descriptor
type ClientFactory func(descriptor capability.Descriptor) a2a.Client

// A2AClientFactory builds a2a clients sharing one set of options
func A2AClientFactory(opts a2a.Options, log logger.Logger) ClientFactory {
	return func(descriptor capability.Descriptor) a2a.Client {
		return a2a.NewClient(descriptor.Endpoint.URL, opts, log)
	}
}

// Options tune client reuse
type Options struct {
	HealthcheckInterval time.Duration
	RequestTimeout      time.Duration
}

type agentHandle struct {
	client    a2a.Client
	url       string
	checkedAt time.Time
}

type agentSlot struct {
	mu     sync.Mutex
	handle *agentHandle
}

var _ Router = (*RouterImpl)(nil)

type RouterImpl struct {
	registry  capability.Registry
	newClient ClientFactory
	telemetry otel.OpenTelemetry
	logger    logger.Logger
	opts      Options

	mu    sync.Mutex
	slots map[string]*agentSlot
}

// NewRouter creates a router over the registry's agent descriptors
func NewRouter(registry capability.Registry, newClient ClientFactory, telemetry otel.OpenTelemetry, log logger.Logger, opts Options) *RouterImpl {
	if telemetry == nil {
		telemetry = otel.Noop{}
	}
	return &RouterImpl{
		registry:  registry,
		newClient: newClient,
		telemetry: telemetry,
		logger:    log,
		opts:      opts,
		slots:     make(map[string]*agentSlot),
	}
}

// Delegate sends input to the agent and returns the concatenated text of its
// reply. Every failure is returned as *Error and never panics past here.
func (r *RouterImpl) Delegate(ctx context.Context, capabilityID, input, contextID string) (text string, err error) {
	start := time.Now()
	outcome := otel.OutcomeError

	ctx, span := r.telemetry.Tracer().Start(ctx, "delegate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("capability.id", capabilityID)),
	)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recovered from panic during delegation", fmt.Errorf("%v", rec), "id", capabilityID)
			text, err = "", communication(capabilityID, fmt.Errorf("internal error: %v", rec))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("delegation.outcome", outcome))
		span.End()
		r.telemetry.RecordDelegation(ctx, capabilityID, outcome, float64(time.Since(start).Milliseconds()))
	}()

	descriptor, lookupErr := r.resolve(capabilityID)
	if lookupErr != nil {
		outcome = otel.OutcomeUnavailable
		r.logger.Warn("delegation target unavailable", "id", capabilityID, "error", lookupErr)
		return "", unavailable(capabilityID, r.registry.IDs(kindPtr(capability.KindAgent)), lookupErr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", communication(capabilityID, ctxErr)
	}

	if r.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
	}

	client := r.acquire(ctx, descriptor)
	stream := descriptor.Transport == capability.TransportHTTPStream
	r.logger.Debug("delegating to agent", "id", capabilityID, "stream", stream, "context_id", contextID)

	reply, sendErr := client.SendMessage(ctx, a2a.NewUserMessage(input, contextID), stream)
	if sendErr != nil {
		r.logger.Error("delegation failed", sendErr, "id", capabilityID)
		r.forget(capabilityID, client)
		return "", communication(capabilityID, sendErr)
	}

	text, found := reply.Text()
	switch reply.State() {
	case a2a.TaskStateFailed, a2a.TaskStateRejected:
		reason := fmt.Errorf("task %s", reply.State())
		if found {
			reason = fmt.Errorf("task %s: %s", reply.State(), text)
		}
		return "", communication(capabilityID, reason)
	}

	outcome = otel.OutcomeSuccess
	if !found {
		return fmt.Sprintf("No response received from agent '%s'", capabilityID), nil
	}
	return text, nil
}

// CloseAll drops every cached agent client
func (r *RouterImpl) CloseAll() error {
	r.mu.Lock()
	slots := r.slots
	r.slots = make(map[string]*agentSlot)
	r.mu.Unlock()

	for _, s := range slots {
		s.mu.Lock()
		s.handle = nil
		s.mu.Unlock()
	}
	r.logger.Info("dropped cached agent clients", "count", len(slots))
	return nil
}

func (r *RouterImpl) resolve(id string) (capability.Descriptor, error) {
	d, err := r.registry.Get(id)
	if err != nil {
		return capability.Descriptor{}, err
	}
	if d.Kind != capability.KindAgent {
		return capability.Descriptor{}, fmt.Errorf("%w: %s is not an agent", capability.ErrCapabilityNotFound, id)
	}
	if !d.Enabled {
		return capability.Descriptor{}, fmt.Errorf("%w: %s", capability.ErrCapabilityDisabled, id)
	}
	if d.Endpoint.URL == "" {
		return capability.Descriptor{}, fmt.Errorf("%w: %s has no url", capability.ErrConnectFailed, id)
	}
	return d, nil
}

// acquire returns the cached client, recreating it when the url changed or
// the health check failed
func (r *RouterImpl) acquire(ctx context.Context, d capability.Descriptor) a2a.Client {
	s := r.slot(d.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if h := s.handle; h != nil && h.url == d.Endpoint.URL {
		if r.opts.HealthcheckInterval <= 0 || time.Since(h.checkedAt) < r.opts.HealthcheckInterval {
			return h.client
		}
		if err := h.client.Ping(ctx); err == nil {
			h.checkedAt = time.Now()
			return h.client
		} else if !errors.Is(err, context.Canceled) {
			r.logger.Warn("agent client failed health check, recreating", "id", d.ID, "error", err)
		}
	}

	s.handle = &agentHandle{
		client:    r.newClient(d),
		url:       d.Endpoint.URL,
		checkedAt: time.Now(),
	}
	return s.handle.client
}

// forget drops a client after a failed call so the next delegation starts fresh
func (r *RouterImpl) forget(id string, client a2a.Client) {
	s := r.slot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle != nil && s.handle.client == client {
		s.handle = nil
	}
}

func (r *RouterImpl) slot(id string) *agentSlot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		s = &agentSlot{}
		r.slots[id] = s
	}
	return s
}

func kindPtr(k capability.Kind) *capability.Kind { return &k }
