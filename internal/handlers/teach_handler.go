package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/middleware"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
)

type TeachHandler struct {
	Service *service.TeachService
}

func NewTeachHandler(s *service.TeachService) *TeachHandler {
	return &TeachHandler{Service: s}
}

// Start activates the teaching session and returns the tutor's opening turn.
func (h *TeachHandler) Start(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := middleware.UserID(c)
	reply, err := h.Service.Start(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// Message forwards one learner message and returns the tutor's reply.
func (h *TeachHandler) Message(c *gin.Context) {
	var req struct {
		SessionID   string `json:"sessionId"`
		Text        string `json:"text"`
		UserMessage string `json:"userMessage"`
	}
	_ = c.ShouldBindJSON(&req)

	text := req.Text
	if strings.TrimSpace(text) == "" {
		text = req.UserMessage
	}

	userID := middleware.UserID(c)
	reply, err := h.Service.Message(c.Request.Context(), userID, req.SessionID, text)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}
