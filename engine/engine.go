package engine

import (
	"context"
	"errors"
)

// Role of a conversation message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleFunction  Role = "function"
)

// ErrNoChoices is returned when the engine answered without any choice
var ErrNoChoices = errors.New("engine returned no choices")

// FunctionCall is a request from the engine to invoke a declared function
type FunctionCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry of the conversation presented to the engine.
// Assistant messages may carry function calls, function messages carry the
// id of the call they answer.
type Message struct {
	Role           Role           `json:"role"`
	Content        string         `json:"content"`
	FunctionCalls  []FunctionCall `json:"functionCalls,omitempty"`
	FunctionCallID string         `json:"functionCallId,omitempty"`
}

// FunctionDeclaration advertises a callable function to the engine
type FunctionDeclaration struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Response is either a final answer or a request to call functions
type Response struct {
	Content       string
	FunctionCalls []FunctionCall
}

// Final reports whether the engine produced an answer without function calls
func (r *Response) Final() bool {
	return r == nil || len(r.FunctionCalls) == 0
}

// Engine is the external reasoning engine
//
//go:generate mockgen -source=engine.go -destination=../mocks/engine.go -package=mocks
type Engine interface {
	Respond(ctx context.Context, messages []Message, functions []FunctionDeclaration) (*Response, error)
}
