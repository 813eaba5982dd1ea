package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/inference-gateway/capability-orchestrator/config"
	"github.com/inference-gateway/capability-orchestrator/logger"
)

var _ Engine = (*OpenAIEngine)(nil)

// OpenAIEngine calls an OpenAI compatible chat completions API
type OpenAIEngine struct {
	client       openai.Client
	model        string
	systemPrompt string
	logger       logger.Logger
}

// NewOpenAIEngine creates an engine from the ENGINE_* settings. Extra request
// options are appended after the configured ones.
func NewOpenAIEngine(cfg *config.EngineConfig, log logger.Logger, extra ...option.RequestOption) *OpenAIEngine {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(cfg.URL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	opts = append(opts, extra...)

	return &OpenAIEngine{
		client:       openai.NewClient(opts...),
		model:        strings.TrimSpace(cfg.Model),
		systemPrompt: cfg.SystemPrompt,
		logger:       log,
	}
}

func (e *OpenAIEngine) Respond(ctx context.Context, messages []Message, functions []FunctionDeclaration) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(e.model),
		Messages: e.toParams(messages),
	}
	for _, f := range functions {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        f.Name,
				Description: openai.String(f.Description),
				Parameters:  openai.FunctionParameters(f.Parameters),
			},
		})
	}

	e.logger.Debug("requesting completion", "model", e.model, "messages", len(params.Messages), "functions", len(params.Tools))
	completion, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, ErrNoChoices
	}

	msg := completion.Choices[0].Message
	resp := &Response{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		resp.FunctionCalls = append(resp.FunctionCalls, FunctionCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return resp, nil
}

func (e *OpenAIEngine) toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if e.systemPrompt != "" {
		out = append(out, openai.SystemMessage(e.systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleUser:
			out = append(out, openai.UserMessage(m.Content))
		case RoleFunction:
			out = append(out, openai.ToolMessage(m.Content, m.FunctionCallID))
		case RoleAssistant:
			if len(m.FunctionCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if m.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(m.Content),
				}
			}
			for _, call := range m.FunctionCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: call.Arguments,
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return out
}
