package api

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/capability"
)

// ListMCPServersHandler lists enabled tool servers with their connection state
func (router *RouterImpl) ListMCPServersHandler(c *gin.Context) {
	kind := capability.KindTool
	connected := make(map[string]bool)
	for _, id := range router.connector.Connected() {
		connected[id] = true
	}

	servers := []MCPServerResponse{}
	for _, d := range router.registry.List(&kind) {
		servers = append(servers, MCPServerResponse{Descriptor: d, Connected: connected[d.ID]})
	}
	c.JSON(http.StatusOK, servers)
}

func (router *RouterImpl) ListMCPToolsHandler(c *gin.Context) {
	tools, err := router.connector.ListTools(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	if tools == nil {
		tools = []capability.ToolDescriptor{}
	}
	c.JSON(http.StatusOK, tools)
}

func (router *RouterImpl) ConnectMCPServerHandler(c *gin.Context) {
	id := c.Param("id")
	if err := router.connector.Connect(c.Request.Context(), id); err != nil {
		router.logger.Warn("tool server connect failed", "id", id, "error", err)
		c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ResponseJSON{Message: "Connected to " + id})
}

func (router *RouterImpl) DisconnectMCPServerHandler(c *gin.Context) {
	id := c.Param("id")
	if err := router.connector.Disconnect(id); err != nil {
		router.logger.Warn("tool server disconnect reported an error", "id", id, "error", err)
	}
	c.Status(http.StatusNoContent)
}
