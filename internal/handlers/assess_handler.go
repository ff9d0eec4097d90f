package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AhmedAbdelmoaty/Assessment/internal/middleware"
	"github.com/AhmedAbdelmoaty/Assessment/internal/service"
	"github.com/AhmedAbdelmoaty/Assessment/internal/utils"
)

type AssessHandler struct {
	Service *service.AssessService
}

func NewAssessHandler(s *service.AssessService) *AssessHandler {
	return &AssessHandler{Service: s}
}

// Next serves the next assessment question, re-serving the in-flight one
// unchanged when the previous response was lost.
func (h *AssessHandler) Next(c *gin.Context) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	_ = c.ShouldBindJSON(&req)

	userID := middleware.UserID(c)
	view, err := h.Service.NextQuestion(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Answer grades the submitted choice for the in-flight question.
func (h *AssessHandler) Answer(c *gin.Context) {
	var req struct {
		SessionID       string `json:"sessionId"`
		UserChoiceIndex *int   `json:"userChoiceIndex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.UserChoiceIndex == nil {
		utils.BadRequestResponse(c, "userChoiceIndex is required")
		return
	}

	userID := middleware.UserID(c)
	view, err := h.Service.SubmitAnswer(c.Request.Context(), userID, req.SessionID, *req.UserChoiceIndex)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
