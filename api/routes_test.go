package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/inference-gateway/capability-orchestrator/api"
	"github.com/inference-gateway/capability-orchestrator/api/middlewares"
	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/config"
	"github.com/inference-gateway/capability-orchestrator/delegation"
	"github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/mocks"
	"github.com/inference-gateway/capability-orchestrator/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	fetcher      *mocks.MockCardFetcher
	orchestrator *mocks.MockOrchestrator
	delegator    *mocks.MockRouter
	connector    *mocks.MockConnector
	registry     *capability.RegistryImpl
	engine       *gin.Engine
}

func newFixture(t *testing.T, policy string, use ...gin.HandlerFunc) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		fetcher:      mocks.NewMockCardFetcher(ctrl),
		orchestrator: mocks.NewMockOrchestrator(ctrl),
		delegator:    mocks.NewMockRouter(ctrl),
		connector:    mocks.NewMockConnector(ctrl),
	}

	registry, err := capability.NewRegistry(f.fetcher, logger.NewNoOpLogger(),
		capability.Descriptor{ID: "alpha", Kind: capability.KindAgent, Endpoint: capability.Endpoint{URL: "http://x"}, Enabled: true},
		capability.Descriptor{ID: "beta", Kind: capability.KindTool, Transport: capability.TransportStdio, Endpoint: capability.Endpoint{Command: "beta"}, Enabled: false},
		capability.Descriptor{ID: "gamma", Kind: capability.KindAgent, Endpoint: capability.Endpoint{URL: "http://gamma"}, Enabled: false},
		capability.Descriptor{ID: "delta", Kind: capability.KindTool, Transport: capability.TransportHTTP, Endpoint: capability.Endpoint{URL: "http://delta"}, Enabled: true},
	)
	require.NoError(t, err)
	f.registry = registry

	cfg := config.Config{Session: &config.SessionConfig{IDPolicy: policy}}
	router := api.NewRouter(cfg, logger.NewNoOpLogger(), registry, f.orchestrator, f.delegator, f.connector)

	f.engine = gin.New()
	f.engine.Use(use...)
	api.Register(f.engine, router)
	return f
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestChatHandler(t *testing.T) {
	tests := []struct {
		name           string
		policy         string
		body           interface{}
		setup          func(f *fixture)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "blank message",
			policy:         config.SessionIDPolicyShared,
			body:           api.ChatRequest{Message: "   ", SessionID: "s1"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Message cannot be empty"}`,
		},
		{
			name:           "malformed body",
			policy:         config.SessionIDPolicyShared,
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Failed to decode request"}`,
		},
		{
			name:           "missing session id is rejected by default",
			policy:         config.SessionIDPolicyRequire,
			body:           api.ChatRequest{Message: "hello"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"sessionId is required"}`,
		},
		{
			name:           "subject policy without a caller",
			policy:         config.SessionIDPolicySubject,
			body:           api.ChatRequest{Message: "hello"},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"sessionId is required when the caller is not authenticated"}`,
		},
		{
			name:   "shared policy falls back to the default session",
			policy: config.SessionIDPolicyShared,
			body:   api.ChatRequest{Message: "hello"},
			setup: func(f *fixture) {
				f.orchestrator.EXPECT().Chat(gomock.Any(), session.DefaultID, "hello").Return("hi", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"hi","sessionId":"default"}`,
		},
		{
			name:   "explicit session id",
			policy: config.SessionIDPolicyRequire,
			body:   api.ChatRequest{Message: "hello", SessionID: "s1"},
			setup: func(f *fixture) {
				f.orchestrator.EXPECT().Chat(gomock.Any(), "s1", "hello").Return("hi", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"hi","sessionId":"s1"}`,
		},
		{
			name:   "engine failure",
			policy: config.SessionIDPolicyRequire,
			body:   api.ChatRequest{Message: "hello", SessionID: "s1"},
			setup: func(f *fixture) {
				f.orchestrator.EXPECT().Chat(gomock.Any(), "s1", "hello").Return("", errors.New("reasoning engine failure: timeout"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"reasoning engine failure: timeout"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.policy)
			if tt.setup != nil {
				tt.setup(f)
			}

			w := f.do(http.MethodPost, "/chat", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestChatHandler_SubjectPolicy(t *testing.T) {
	authenticated := func(c *gin.Context) {
		c.Set(middlewares.AuthSubjectContextKey, "user-42")
		c.Next()
	}
	f := newFixture(t, config.SessionIDPolicySubject, authenticated)
	f.orchestrator.EXPECT().Chat(gomock.Any(), "subject:user-42", "hello").Return("hi", nil)

	w := f.do(http.MethodPost, "/chat", api.ChatRequest{Message: "hello"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "subject:user-42", decode[api.ChatResponse](t, w).SessionID)
}

func TestChatHistoryAndClear(t *testing.T) {
	f := newFixture(t, config.SessionIDPolicyRequire)
	gomock.InOrder(
		f.orchestrator.EXPECT().History("s1").Return([]session.Message{
			{Role: session.RoleUser, Text: "hello"},
			{Role: session.RoleAssistant, Text: "hi"},
		}),
		f.orchestrator.EXPECT().Clear("s1").Return(true),
		f.orchestrator.EXPECT().History("s1").Return(nil),
	)

	w := f.do(http.MethodGet, "/chat/s1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessionId":"s1","messages":[{"role":"user","text":"hello"},{"role":"assistant","text":"hi"}]}`, w.Body.String())

	w = f.do(http.MethodDelete, "/chat/s1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(http.MethodGet, "/chat/s1", nil)
	assert.JSONEq(t, `{"sessionId":"s1","messages":[]}`, w.Body.String())
}

func TestAgentsHandlers(t *testing.T) {
	f := newFixture(t, config.SessionIDPolicyRequire)

	t.Run("list returns enabled agents only", func(t *testing.T) {
		w := f.do(http.MethodGet, "/agents", nil)
		require.Equal(t, http.StatusOK, w.Code)
		agents := decode[[]capability.Descriptor](t, w)
		require.Len(t, agents, 1)
		assert.Equal(t, "alpha", agents[0].ID)
	})

	t.Run("get", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/agents/alpha", nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/agents/gamma", nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/agents/beta", nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/agents/nobody", nil).Code)
	})

	t.Run("card", func(t *testing.T) {
		f.fetcher.EXPECT().FetchCard(gomock.Any(), gomock.Any()).Return(&capability.Card{Name: "Alpha", Version: "1.0.0"}, nil)

		w := f.do(http.MethodGet, "/agents/alpha/card", nil)
		require.Equal(t, http.StatusOK, w.Code)
		card := decode[capability.Card](t, w)
		assert.Equal(t, "alpha", card.ID)
		assert.Equal(t, "Alpha", card.Name)

		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/agents/nobody/card", nil).Code)
	})

	t.Run("card fetch failure", func(t *testing.T) {
		require.NoError(t, f.registry.Register("alpha", capability.Descriptor{Kind: capability.KindAgent, Endpoint: capability.Endpoint{URL: "http://x"}, Enabled: true}))
		f.fetcher.EXPECT().FetchCard(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))

		w := f.do(http.MethodGet, "/agents/alpha/card", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, decode[api.ErrorResponse](t, w).Error, "connection refused")
	})
}

func TestDelegateHandler(t *testing.T) {
	f := newFixture(t, config.SessionIDPolicyRequire)

	f.delegator.EXPECT().Delegate(gomock.Any(), "alpha", "hi", "").Return("hello from alpha", nil)
	w := f.do(http.MethodPost, "/agents/alpha/delegate", api.DelegateRequest{Message: "hi"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"response":"hello from alpha"}`, w.Body.String())

	unavailable := &delegation.Error{Kind: delegation.ErrorKindUnavailable, CapabilityID: "beta", Available: []string{"alpha"}}
	f.delegator.EXPECT().Delegate(gomock.Any(), "beta", "hi", "").Return("", unavailable)
	w = f.do(http.MethodPost, "/agents/beta/delegate", api.DelegateRequest{Message: "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Agent 'beta' not found or not enabled. Available agents: alpha"}`, w.Body.String())

	broken := &delegation.Error{Kind: delegation.ErrorKindCommunication, CapabilityID: "alpha", Err: errors.New("connection refused")}
	f.delegator.EXPECT().Delegate(gomock.Any(), "alpha", "hi", "").Return("", broken)
	w = f.do(http.MethodPost, "/agents/alpha/delegate", api.DelegateRequest{Message: "hi"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = f.do(http.MethodPost, "/agents/alpha/delegate", api.DelegateRequest{Message: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterAndUnregisterAgent(t *testing.T) {
	f := newFixture(t, config.SessionIDPolicyRequire)

	w := f.do(http.MethodPut, "/agents/omega", map[string]interface{}{
		"endpoint":    map[string]interface{}{"url": "http://omega"},
		"description": "Omega agent",
		"enabled":     true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	registered := decode[capability.Descriptor](t, w)
	assert.Equal(t, capability.KindAgent, registered.Kind)
	assert.Equal(t, "Omega", registered.DisplayName)

	agents := decode[[]capability.Descriptor](t, f.do(http.MethodGet, "/agents", nil))
	require.Len(t, agents, 2)
	assert.Equal(t, "omega", agents[1].ID)

	w = f.do(http.MethodPut, "/agents/broken", map[string]interface{}{
		"endpoint":          map[string]interface{}{"url": "http://broken"},
		"versionConstraint": "not a constraint",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/agents/delta", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/agents/omega", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/agents/omega", nil).Code)
	assert.Len(t, decode[[]capability.Descriptor](t, f.do(http.MethodGet, "/agents", nil)), 1)
}

func TestMCPHandlers(t *testing.T) {
	f := newFixture(t, config.SessionIDPolicyRequire)

	t.Run("servers", func(t *testing.T) {
		f.connector.EXPECT().Connected().Return([]string{"delta"})
		w := f.do(http.MethodGet, "/mcp/servers", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var servers []map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &servers))
		require.Len(t, servers, 1)
		assert.Equal(t, "delta", servers[0]["id"])
		assert.Equal(t, true, servers[0]["connected"])
	})

	t.Run("tools", func(t *testing.T) {
		f.connector.EXPECT().ListTools(gomock.Any()).Return([]capability.ToolDescriptor{{CapabilityID: "delta", Name: "sum"}}, nil)
		w := f.do(http.MethodGet, "/mcp/tools", nil)
		require.Equal(t, http.StatusOK, w.Code)
		tools := decode[[]capability.ToolDescriptor](t, w)
		require.Len(t, tools, 1)
		assert.Equal(t, "sum", tools[0].Name)
	})

	t.Run("connect", func(t *testing.T) {
		f.connector.EXPECT().Connect(gomock.Any(), "delta").Return(nil)
		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/mcp/servers/delta/connect", nil).Code)

		f.connector.EXPECT().Connect(gomock.Any(), "beta").Return(capability.ErrCapabilityDisabled)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/mcp/servers/beta/connect", nil).Code)

		f.connector.EXPECT().Connect(gomock.Any(), "delta").Return(capability.ErrUnsupportedTransport)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/mcp/servers/delta/connect", nil).Code)

		f.connector.EXPECT().Connect(gomock.Any(), "delta").Return(capability.ErrConnectFailed)
		assert.Equal(t, http.StatusInternalServerError, f.do(http.MethodPost, "/mcp/servers/delta/connect", nil).Code)
	})

	t.Run("disconnect", func(t *testing.T) {
		f.connector.EXPECT().Disconnect("delta").Return(nil)
		assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/mcp/servers/delta/connection", nil).Code)
	})
}

func TestHealthAndNotFound(t *testing.T) {
	f := newFixture(t, config.SessionIDPolicyRequire)

	w := f.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"OK"}`, w.Body.String())

	w = f.do(http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Requested route is not found"}`, w.Body.String())
}
