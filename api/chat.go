package api

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"github.com/inference-gateway/capability-orchestrator/api/middlewares"
	"github.com/inference-gateway/capability-orchestrator/config"
	"github.com/inference-gateway/capability-orchestrator/session"
)

func (router *RouterImpl) ChatHandler(c *gin.Context) {
	var req ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	if blank(req.Message) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Message cannot be empty"})
		return
	}

	sessionID, msg := router.resolveSessionID(c, req.SessionID)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
		return
	}

	answer, err := router.orchestrator.Chat(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		router.logger.Error("chat failed", err, "session", sessionID)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Message: answer, SessionID: sessionID})
}

func (router *RouterImpl) ChatHistoryHandler(c *gin.Context) {
	id := c.Param("sessionId")
	messages := router.orchestrator.History(id)
	if messages == nil {
		messages = []session.Message{}
	}
	c.JSON(http.StatusOK, ChatHistoryResponse{SessionID: id, Messages: messages})
}

func (router *RouterImpl) ClearChatHandler(c *gin.Context) {
	router.orchestrator.Clear(c.Param("sessionId"))
	c.Status(http.StatusNoContent)
}

// resolveSessionID applies SESSION_ID_POLICY to a request without a session
// id. An empty id comes with the reason it could not be resolved.
func (router *RouterImpl) resolveSessionID(c *gin.Context, requested string) (string, string) {
	if !blank(requested) {
		return requested, ""
	}

	policy := config.SessionIDPolicyRequire
	if router.cfg.Session != nil {
		policy = router.cfg.Session.IDPolicy
	}

	switch policy {
	case config.SessionIDPolicyShared:
		return session.DefaultID, ""
	case config.SessionIDPolicySubject:
		if subject, ok := middlewares.Subject(c); ok {
			return "subject:" + subject, ""
		}
		return "", "sessionId is required when the caller is not authenticated"
	default:
		return "", "sessionId is required"
	}
}
