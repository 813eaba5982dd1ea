package api

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/capability"
	"github.com/inference-gateway/capability-orchestrator/delegation"
)

func agentKind() *capability.Kind {
	k := capability.KindAgent
	return &k
}

func (router *RouterImpl) ListAgentsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, router.registry.List(agentKind()))
}

// enabledAgent writes a 404 and returns false when id is not an enabled agent
func (router *RouterImpl) enabledAgent(c *gin.Context, id string) (capability.Descriptor, bool) {
	d, err := router.registry.Get(id)
	if err != nil || d.Kind != capability.KindAgent || !d.Enabled {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Agent '" + id + "' not found"})
		return capability.Descriptor{}, false
	}
	return d, true
}

func (router *RouterImpl) GetAgentHandler(c *gin.Context) {
	d, ok := router.enabledAgent(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, d)
}

func (router *RouterImpl) GetAgentCardHandler(c *gin.Context) {
	id := c.Param("id")
	card, err := router.registry.GetCard(c.Request.Context(), id)
	if err != nil {
		router.logger.Warn("agent card unavailable", "id", id, "error", err)
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, card)
}

// DelegateHandler calls the router directly, bypassing the reasoning engine
func (router *RouterImpl) DelegateHandler(c *gin.Context) {
	var req DelegateRequest
	if !bindJSON(c, &req) {
		return
	}
	if blank(req.Message) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message cannot be empty"})
		return
	}

	text, err := router.delegator.Delegate(c.Request.Context(), c.Param("id"), req.Message, "")
	if err != nil {
		status := http.StatusInternalServerError
		var delegationErr *delegation.Error
		if errors.As(err, &delegationErr) && delegationErr.Kind == delegation.ErrorKindUnavailable {
			status = http.StatusNotFound
		}
		c.JSON(status, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, DelegateResponse{Response: text})
}

// RegisterAgentHandler inserts or replaces an agent descriptor
func (router *RouterImpl) RegisterAgentHandler(c *gin.Context) {
	id := c.Param("id")

	var d capability.Descriptor
	if !bindJSON(c, &d) {
		return
	}
	d.Kind = capability.KindAgent
	if d.ID == "" {
		d.ID = id
	}

	if err := router.registry.Register(id, d); err != nil {
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}

	registered, err := router.registry.Get(id)
	if err != nil {
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, registered)
}

func (router *RouterImpl) UnregisterAgentHandler(c *gin.Context) {
	id := c.Param("id")
	if d, err := router.registry.Get(id); err == nil && d.Kind != capability.KindAgent {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Agent '" + id + "' not found"})
		return
	}
	router.registry.Unregister(id)
	c.Status(http.StatusNoContent)
}
