package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/connector"
	"github.com/inference-gateway/capability-orchestrator/delegation"
	"github.com/inference-gateway/capability-orchestrator/engine"
	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/otel"
	"github.com/inference-gateway/capability-orchestrator/session"
)

// DefaultMaxIterations limits engine round trips per chat turn
const DefaultMaxIterations = 10

// ErrEngineFailure is returned when the reasoning engine call itself failed.
// The user message stays in the session history.
var ErrEngineFailure = errors.New("reasoning engine failure")

// Orchestrator runs chat turns against the reasoning engine
//
//go:generate mockgen -source=orchestrator.go -destination=../mocks/orchestrator.go -package=mocks
type Orchestrator interface {
	Chat(ctx context.Context, sessionID, message string) (string, error)
	History(sessionID string) []session.Message
	Clear(sessionID string) bool
}

// Options of the chat loop
type Options struct {
	MaxIterations int
}

var _ Orchestrator = (*OrchestratorImpl)(nil)

type OrchestratorImpl struct {
	engine        engine.Engine
	registry      capability.Registry
	router        delegation.Router
	connector     connector.Connector
	store         session.Store
	telemetry     otel.OpenTelemetry
	logger        logger.Logger
	maxIterations int
}

// NewOrchestrator wires the chat loop. The connector may be nil when no tool
// server is configured.
func NewOrchestrator(
	eng engine.Engine,
	registry capability.Registry,
	router delegation.Router,
	conn connector.Connector,
	store session.Store,
	telemetry otel.OpenTelemetry,
	log logger.Logger,
	opts Options,
) *OrchestratorImpl {
	if telemetry == nil {
		telemetry = otel.Noop{}
	}
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &OrchestratorImpl{
		engine:        eng,
		registry:      registry,
		router:        router,
		connector:     conn,
		store:         store,
		telemetry:     telemetry,
		logger:        log,
		maxIterations: maxIterations,
	}
}

// Chat appends the user message, drives the engine until it answers without
// function calls and appends the answer. Capability failures never fail the
// turn, they are reported back to the engine as function results.
func (o *OrchestratorImpl) Chat(ctx context.Context, sessionID, message string) (answer string, err error) {
	start := time.Now()
	iterations := 0

	ctx, span := o.telemetry.Tracer().Start(ctx, "chat")
	defer func() {
		outcome := otel.OutcomeSuccess
		if err != nil {
			outcome = otel.OutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("chat.iterations", iterations))
		span.End()
		o.telemetry.RecordChat(ctx, outcome, iterations, float64(time.Since(start).Milliseconds()))
	}()

	turn, history := o.store.AppendTurn(sessionID, session.RoleUser, message)
	messages := toEngineMessages(history)
	functions := o.declarations(ctx)

	o.logger.Debug("chat turn started", "session", sessionID, "history", len(history), "functions", len(functions))

	var lastContent string
	answered := false
	for iterations < o.maxIterations {
		resp, respErr := o.engine.Respond(ctx, messages, functions)
		iterations++
		if respErr != nil {
			o.logger.Error("reasoning engine call failed", respErr, "session", sessionID, "iteration", iterations)
			return "", fmt.Errorf("%w: %v", ErrEngineFailure, respErr)
		}
		if resp == nil {
			return "", fmt.Errorf("%w: empty response", ErrEngineFailure)
		}

		if resp.Content != "" {
			lastContent = resp.Content
		}
		if resp.Final() {
			answer = resp.Content
			answered = true
			break
		}

		o.logger.Debug("executing function calls", "session", sessionID, "iteration", iterations, "calls", len(resp.FunctionCalls))
		messages = append(messages, engine.Message{
			Role:          engine.RoleAssistant,
			Content:       resp.Content,
			FunctionCalls: resp.FunctionCalls,
		})
		messages = append(messages, o.execute(ctx, sessionID, resp.FunctionCalls)...)
	}

	if !answered {
		o.logger.Warn("chat turn reached maximum iterations", "session", sessionID, "iterations", iterations)
		answer = lastContent
		if answer == "" {
			answer = fmt.Sprintf("I could not complete the request within %d reasoning steps.", o.maxIterations)
		}
	}

	if !o.store.AppendIfCurrent(turn, session.RoleAssistant, answer) {
		o.logger.Debug("session cleared during the turn, answer not recorded", "session", sessionID)
	}
	return answer, nil
}

func (o *OrchestratorImpl) History(sessionID string) []session.Message {
	return o.store.History(sessionID)
}

func (o *OrchestratorImpl) Clear(sessionID string) bool {
	cleared := o.store.Clear(sessionID)
	if cleared {
		o.logger.Info("session cleared", "session", sessionID)
	}
	return cleared
}

func toEngineMessages(history []session.Message) []engine.Message {
	out := make([]engine.Message, 0, len(history))
	for _, m := range history {
		role := engine.RoleUser
		if m.Role == session.RoleAssistant {
			role = engine.RoleAssistant
		}
		out = append(out, engine.Message{Role: role, Content: m.Text})
	}
	return out
}
