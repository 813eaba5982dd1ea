package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/connector"
	"github.com/inference-gateway/capability-orchestrator/engine"
)

// Built-in function names
const (
	FunctionDelegate         = "delegate_to_agent"
	FunctionListCapabilities = "list_capabilities"
)

// DelegateArguments are the parameters of delegate_to_agent
type DelegateArguments struct {
	AgentID string `json:"agent_id" jsonschema:"description=The id of the agent to call"`
	Input   string `json:"input" jsonschema:"description=The message or input to send to the agent"`
}

// ListCapabilitiesArguments are the parameters of list_capabilities
type ListCapabilitiesArguments struct{}

var (
	reflectOnce sync.Once
	builtins    []engine.FunctionDeclaration
)

// parametersOf reflects a Go struct into an inline JSON schema object
func parametersOf(model interface{}) map[string]interface{} {
	r := new(jsonschema.Reflector)
	r.ExpandedStruct = true
	r.DoNotReference = true

	b, err := json.Marshal(r.Reflect(model))
	if err != nil {
		return map[string]interface{}{"type": "object"}
	}
	var params map[string]interface{}
	if err := json.Unmarshal(b, &params); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	delete(params, "$schema")
	delete(params, "$id")
	if _, ok := params["properties"]; !ok {
		params["properties"] = map[string]interface{}{}
	}
	return params
}

func builtinFunctions() []engine.FunctionDeclaration {
	reflectOnce.Do(func() {
		builtins = []engine.FunctionDeclaration{
			{
				Name:        FunctionDelegate,
				Description: "Communicates with a remote A2A agent and returns its answer. Call list_capabilities to discover the available agent ids.",
				Parameters:  parametersOf(&DelegateArguments{}),
			},
			{
				Name:        FunctionListCapabilities,
				Description: "Lists the available A2A agents with their skills and the connected tool servers.",
				Parameters:  parametersOf(&ListCapabilitiesArguments{}),
			},
		}
	})
	return builtins
}

// declarations returns the built-ins plus every reachable tool function
func (o *OrchestratorImpl) declarations(ctx context.Context) []engine.FunctionDeclaration {
	functions := append([]engine.FunctionDeclaration(nil), builtinFunctions()...)
	if o.connector == nil {
		return functions
	}

	tools, err := o.connector.ListTools(ctx)
	if err != nil {
		o.logger.Warn("tool functions unavailable for this turn", "error", err)
		return functions
	}
	for _, t := range tools {
		params := t.Parameters
		if len(params) == 0 {
			params = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
		}
		description := t.Description
		if description == "" {
			description = fmt.Sprintf("Tool %s of the %s server", t.Name, t.CapabilityID)
		}
		name := t.Function
		if name == "" {
			name = connector.FunctionName(t.CapabilityID, t.Name)
		}
		functions = append(functions, engine.FunctionDeclaration{
			Name:        name,
			Description: description,
			Parameters:  params,
		})
	}
	return functions
}

// execute runs every call of one engine turn concurrently. Results keep the
// order of the calls and failures become function results, never errors.
func (o *OrchestratorImpl) execute(ctx context.Context, sessionID string, calls []engine.FunctionCall) []engine.Message {
	results := make([]engine.Message, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call engine.FunctionCall) {
			defer wg.Done()
			results[i] = engine.Message{
				Role:           engine.RoleFunction,
				Content:        o.dispatch(ctx, sessionID, call),
				FunctionCallID: call.ID,
			}
		}(i, call)
	}
	wg.Wait()
	return results
}

func (o *OrchestratorImpl) dispatch(ctx context.Context, sessionID string, call engine.FunctionCall) (result string) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("recovered from panic in function call", fmt.Errorf("%v", rec), "function", call.Name)
			result = fmt.Sprintf("Error: %v", rec)
		}
	}()

	arguments := strings.TrimSpace(call.Arguments)
	if arguments == "" {
		arguments = "{}"
	}

	o.logger.Debug("executing function call", "id", call.ID, "function", call.Name)
	switch call.Name {
	case FunctionDelegate:
		var args DelegateArguments
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fmt.Sprintf("Error: Failed to parse arguments: %v", err)
		}
		text, err := o.router.Delegate(ctx, args.AgentID, args.Input, sessionID)
		if err != nil {
			// delegation errors carry their user facing explanation
			return err.Error()
		}
		return text

	case FunctionListCapabilities:
		return o.describeCapabilities()

	default:
		if o.connector == nil {
			return fmt.Sprintf("Error: unknown function %s", call.Name)
		}
		var args map[string]interface{}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return fmt.Sprintf("Error: Failed to parse arguments: %v", err)
		}
		text, err := o.connector.CallTool(ctx, call.Name, args)
		if err != nil {
			o.logger.Warn("tool call failed", "function", call.Name, "error", err)
			return fmt.Sprintf("Error: %v", err)
		}
		return text
	}
}

func (o *OrchestratorImpl) describeCapabilities() string {
	agent, tool := capability.KindAgent, capability.KindTool

	var sb strings.Builder
	sb.WriteString("Available A2A Agents:\n")
	for _, d := range o.registry.List(&agent) {
		fmt.Fprintf(&sb, "- %s: %s\n", d.ID, d.Description)
		if len(d.Skills) > 0 {
			names := make([]string, 0, len(d.Skills))
			for _, s := range d.Skills {
				names = append(names, s.Name)
			}
			fmt.Fprintf(&sb, "  Skills: %s\n", strings.Join(names, ", "))
		}
	}

	servers := o.registry.List(&tool)
	if len(servers) > 0 {
		sb.WriteString("Available tool servers:\n")
		for _, d := range servers {
			fmt.Fprintf(&sb, "- %s: %s\n", d.ID, d.Description)
		}
	}
	return sb.String()
}
