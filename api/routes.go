package api

import (
	"errors"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/config"
	"github.com/inference-gateway/capability-orchestrator/connector"
	"github.com/inference-gateway/capability-orchestrator/delegation"
	l "github.com/inference-gateway/capability-orchestrator/logger"
	"github.com/inference-gateway/capability-orchestrator/orchestrator"
	"github.com/inference-gateway/capability-orchestrator/session"
)

type Router interface {
	NotFoundHandler(c *gin.Context)
	HealthcheckHandler(c *gin.Context)

	ChatHandler(c *gin.Context)
	ChatHistoryHandler(c *gin.Context)
	ClearChatHandler(c *gin.Context)

	ListAgentsHandler(c *gin.Context)
	GetAgentHandler(c *gin.Context)
	GetAgentCardHandler(c *gin.Context)
	DelegateHandler(c *gin.Context)
	RegisterAgentHandler(c *gin.Context)
	UnregisterAgentHandler(c *gin.Context)

	ListMCPServersHandler(c *gin.Context)
	ListMCPToolsHandler(c *gin.Context)
	ConnectMCPServerHandler(c *gin.Context)
	DisconnectMCPServerHandler(c *gin.Context)
}

type RouterImpl struct {
	cfg          config.Config
	logger       l.Logger
	registry     capability.Registry
	orchestrator orchestrator.Orchestrator
	delegator    delegation.Router
	connector    connector.Connector
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ResponseJSON struct {
	Message string `json:"message"`
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

type ChatResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type ChatHistoryResponse struct {
	SessionID string            `json:"sessionId"`
	Messages  []session.Message `json:"messages"`
}

type DelegateRequest struct {
	Message string `json:"message"`
}

type DelegateResponse struct {
	Response string `json:"response"`
}

type MCPServerResponse struct {
	capability.Descriptor
	Connected bool `json:"connected"`
}

func NewRouter(
	cfg config.Config,
	logger l.Logger,
	registry capability.Registry,
	orch orchestrator.Orchestrator,
	delegator delegation.Router,
	conn connector.Connector,
) Router {
	return &RouterImpl{
		cfg:          cfg,
		logger:       logger,
		registry:     registry,
		orchestrator: orch,
		delegator:    delegator,
		connector:    conn,
	}
}

// Register mounts every handler on the engine
func Register(r *gin.Engine, router Router) {
	r.POST("/chat", router.ChatHandler)
	r.GET("/chat/:sessionId", router.ChatHistoryHandler)
	r.DELETE("/chat/:sessionId", router.ClearChatHandler)

	r.GET("/agents", router.ListAgentsHandler)
	r.GET("/agents/:id", router.GetAgentHandler)
	r.PUT("/agents/:id", router.RegisterAgentHandler)
	r.DELETE("/agents/:id", router.UnregisterAgentHandler)
	r.GET("/agents/:id/card", router.GetAgentCardHandler)
	r.POST("/agents/:id/delegate", router.DelegateHandler)

	r.GET("/mcp/servers", router.ListMCPServersHandler)
	r.GET("/mcp/tools", router.ListMCPToolsHandler)
	r.POST("/mcp/servers/:id/connect", router.ConnectMCPServerHandler)
	r.DELETE("/mcp/servers/:id/connection", router.DisconnectMCPServerHandler)

	r.GET("/health", router.HealthcheckHandler)
	r.NoRoute(router.NotFoundHandler)
}

func (router *RouterImpl) NotFoundHandler(c *gin.Context) {
	router.logger.Debug("requested route is not found", "path", c.Request.URL.Path)
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "Requested route is not found"})
}

func (router *RouterImpl) HealthcheckHandler(c *gin.Context) {
	router.logger.Debug("healthcheck")
	c.JSON(http.StatusOK, ResponseJSON{Message: "OK"})
}

// errorStatus maps capability errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, capability.ErrCapabilityNotFound), errors.Is(err, capability.ErrCapabilityDisabled):
		return http.StatusNotFound
	case errors.Is(err, capability.ErrInvalidDescriptor), errors.Is(err, capability.ErrUnsupportedTransport):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to decode request"})
		return false
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
