package a2a

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/google/uuid"

	"github.com/inference-gateway/capability-orchestrator/logger"
)

const (
	// DefaultCardPath is the well-known location of an agent card
	DefaultCardPath = "/.well-known/agent.json"

	defaultPollInterval = time.Second
	maxErrorBody        = 512
)

// Client speaks JSON-RPC to one remote agent
//
//go:generate mockgen -source=client.go -destination=../mocks/a2a.go -package=mocks
type Client interface {
	SendMessage(ctx context.Context, message Message, stream bool) (Reply, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
	GetAgentCard(ctx context.Context) (*AgentCard, error)
	Ping(ctx context.Context) error
}

// Options shared by every agent client
type Options struct {
	HTTPClient   *http.Client
	CardPath     string
	PollInterval time.Duration
}

var _ Client = (*ClientImpl)(nil)

type ClientImpl struct {
	baseURL      string
	cardPath     string
	pollInterval time.Duration
	http         *http.Client
	logger       logger.Logger
}

// NewClient creates a client for the agent served at baseURL
func NewClient(baseURL string, opts Options, log logger.Logger) *ClientImpl {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	cardPath := opts.CardPath
	if cardPath == "" {
		cardPath = DefaultCardPath
	}
	if !strings.HasPrefix(cardPath, "/") {
		cardPath = "/" + cardPath
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &ClientImpl{
		baseURL:      strings.TrimRight(baseURL, "/"),
		cardPath:     cardPath,
		pollInterval: poll,
		http:         httpClient,
		logger:       log,
	}
}

// NewUserMessage builds a single text part message with a fresh id
func NewUserMessage(text, contextID string) Message {
	return Message{
		Kind:      "message",
		Role:      RoleUser,
		MessageID: uuid.New().String(),
		ContextID: contextID,
		Parts:     []Part{TextPart(text)},
	}
}

// SendMessage sends message/send, or message/stream when stream is set. The
// reply shape is detected from the response Content-Type. A task that is
// still running after a unary reply is polled with tasks/get until it settles.
func (c *ClientImpl) SendMessage(ctx context.Context, message Message, stream bool) (Reply, error) {
	method := MethodMessageSend
	if stream {
		method = MethodMessageStream
	}

	params := MessageSendParams{
		Message: message,
		Configuration: &MessageSendConfiguration{
			AcceptedOutputModes: []string{"text/plain", "application/json"},
			Blocking:            true,
		},
	}

	resp, err := c.call(ctx, method, params)
	if err != nil {
		return Reply{}, err
	}
	defer resp.Body.Close()

	folder := &replyFolder{}
	if isEventStream(resp.Header.Get("Content-Type")) {
		if err := c.readStream(resp.Body, folder); err != nil {
			return Reply{}, err
		}
	} else {
		result, err := decodeRPC(resp.Body)
		if err != nil {
			return Reply{}, err
		}
		if err := folder.add(result); err != nil {
			return Reply{}, err
		}
	}

	reply, err := folder.result()
	if err != nil {
		return Reply{}, err
	}
	if reply.Task != nil && !reply.Task.Status.State.Settled() && reply.Task.ID != "" {
		return c.awaitTask(ctx, reply.Task.ID)
	}
	return reply, nil
}

// GetTask fetches the current state of a task
func (c *ClientImpl) GetTask(ctx context.Context, taskID string) (*Task, error) {
	resp, err := c.call(ctx, MethodTasksGet, TaskQueryParams{ID: taskID})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	result, err := decodeRPC(resp.Body)
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal(result, &task); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	return &task, nil
}

// GetAgentCard fetches the card from the well-known path
func (c *ClientImpl) GetAgentCard(ctx context.Context) (*AgentCard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.cardPath, nil)
	if err != nil {
		return nil, fmt.Errorf("create card request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch agent card: %s", statusError(resp))
	}

	var card AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

// Ping checks that the agent still serves its card
func (c *ClientImpl) Ping(ctx context.Context) error {
	_, err := c.GetAgentCard(ctx)
	return err
}

func (c *ClientImpl) call(ctx context.Context, method string, params interface{}) (*http.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      uuid.New().String(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	c.logger.Debug("sending a2a request", "method", method, "url", c.baseURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, fmt.Errorf("%s: %s", method, statusError(resp))
	}
	return resp, nil
}

// readStream decodes one event at a time and returns as soon as the reply
// is complete. Agents may keep the connection open after the final event.
func (c *ClientImpl) readStream(body io.Reader, folder *replyFolder) error {
	reader := bufio.NewReader(body)
	var block strings.Builder
	for {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return fmt.Errorf("decode event stream: %w", readErr)
		}
		block.WriteString(line)

		blankLine := strings.TrimRight(line, "\r\n") == "" && line != ""
		if blankLine || (readErr == io.EOF && block.Len() > 0) {
			if err := c.foldEvent(block.String(), folder); err != nil {
				return err
			}
			block.Reset()
			if folder.done {
				return nil
			}
		}
		if readErr == io.EOF {
			return nil
		}
	}
}

func (c *ClientImpl) foldEvent(block string, folder *replyFolder) error {
	if strings.TrimSpace(block) == "" {
		return nil
	}
	events, err := sse.Decode(strings.NewReader(strings.ReplaceAll(block, "\r\n", "\n") + "\n"))
	if err != nil {
		return fmt.Errorf("decode event stream: %w", err)
	}
	for _, event := range events {
		data, ok := event.Data.(string)
		if !ok || strings.TrimSpace(data) == "" {
			continue
		}
		result, err := decodeRPC(strings.NewReader(data))
		if err != nil {
			return err
		}
		if err := folder.add(result); err != nil {
			return err
		}
		if folder.done {
			return nil
		}
	}
	return nil
}

func (c *ClientImpl) awaitTask(ctx context.Context, taskID string) (Reply, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Reply{}, fmt.Errorf("waiting for task %s: %w", taskID, ctx.Err())
		case <-ticker.C:
			task, err := c.GetTask(ctx, taskID)
			if err != nil {
				return Reply{}, err
			}
			c.logger.Debug("polled a2a task", "task_id", taskID, "state", task.Status.State)
			if task.Status.State.Settled() {
				return Reply{Task: task}, nil
			}
		}
	}
}

func decodeRPC(r io.Reader) (json.RawMessage, error) {
	var rpc JSONRPCResponse
	if err := json.NewDecoder(r).Decode(&rpc); err != nil {
		return nil, fmt.Errorf("decode json-rpc response: %w", err)
	}
	if rpc.Error != nil {
		return nil, rpc.Error
	}
	if len(rpc.Result) == 0 {
		return nil, fmt.Errorf("json-rpc response has no result")
	}
	return rpc.Result, nil
}

func isEventStream(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/event-stream"
}

func statusError(resp *http.Response) string {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(snippet) == 0 {
		return resp.Status
	}
	return fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(snippet)))
}
